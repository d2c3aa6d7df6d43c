// Package registration implements the install handshake: Saleor hands the
// app an auth token, the app proves the token against the issuing instance
// and only then stores it.
package registration

import (
	"context"
	"errors"
	"net/url"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/logistiker/saleor-app/internal/apl"
	"github.com/logistiker/saleor-app/internal/app/metrics"
	svcerrors "github.com/logistiker/saleor-app/internal/errors"
	"github.com/logistiker/saleor-app/internal/logging"
	"github.com/logistiker/saleor-app/internal/saleor"
)

// State is a step of one registration attempt.
type State string

const (
	StateReceived        State = "received"
	StateTokenValidating State = "token_validating"
	StateAccepted        State = "accepted"
	StateRejected        State = "rejected"
)

// DefaultValidationTimeout bounds the outbound validation call.
const DefaultValidationTimeout = 8 * time.Second

// Validator proves tokens against a Saleor instance. *saleor.Client
// implements it.
type Validator interface {
	FetchAppIdentity(ctx context.Context, apiURL, token string) (saleor.AppIdentity, error)
	FetchJWKS(ctx context.Context, apiURL string) (string, error)
}

var _ Validator = (*saleor.Client)(nil)

// Config tunes a Registrar.
type Config struct {
	ValidationTimeout time.Duration
	// AllowedURLs restricts which instances may register. Empty allows all.
	AllowedURLs []*regexp.Regexp
}

// Registrar runs registrations against a store.
type Registrar struct {
	store     apl.Store
	validator Validator
	cfg       Config
	log       *logging.Logger
}

func New(store apl.Store, validator Validator, cfg Config, log *logging.Logger) *Registrar {
	if cfg.ValidationTimeout <= 0 {
		cfg.ValidationTimeout = DefaultValidationTimeout
	}
	if log == nil {
		log = logging.Default()
	}
	return &Registrar{store: store, validator: validator, cfg: cfg, log: log}
}

// Register validates req and, on success, stores the installation. The
// returned error is always a *errors.ServiceError. No store write happens
// unless the instance confirmed the token. Once it has, the write runs to
// completion even if ctx is canceled.
func (r *Registrar) Register(ctx context.Context, req Request) (apl.Record, error) {
	ctx = logging.WithAPIURL(ctx, req.APIURL)
	r.transition(ctx, StateReceived, nil)

	if err := r.checkRequest(req); err != nil {
		return apl.Record{}, r.reject(ctx, err)
	}

	r.transition(ctx, StateTokenValidating, nil)
	vctx, cancel := context.WithTimeout(ctx, r.cfg.ValidationTimeout)
	defer cancel()

	start := time.Now()
	identity, err := r.validator.FetchAppIdentity(vctx, req.APIURL, req.AuthToken)
	if err != nil {
		serviceErr := classifyValidation(vctx, err)
		metrics.RecordValidation(string(serviceErr.Code), time.Since(start))
		return apl.Record{}, r.reject(ctx, serviceErr)
	}
	metrics.RecordValidation("ok", time.Since(start))

	rec := apl.Record{
		APIURL:    req.APIURL,
		AuthToken: req.AuthToken,
		AppID:     identity.AppID,
		Domain:    req.Domain,
	}
	if rec.Domain == "" {
		if u, err := url.Parse(req.APIURL); err == nil {
			rec.Domain = u.Host
		}
	}

	jwks, err := r.validator.FetchJWKS(vctx, req.APIURL)
	if err != nil {
		r.log.WithContext(ctx).WithError(err).Warn("JWKS not available; storing installation without it")
	} else {
		rec.JWKS = jwks
	}

	if err := r.store.Set(context.WithoutCancel(ctx), rec); err != nil {
		return apl.Record{}, r.reject(ctx, classifyStore(err))
	}

	r.transition(ctx, StateAccepted, logrus.Fields{"app_id": rec.AppID})
	return rec, nil
}

// Installation returns the stored record for apiURL. Outbound calls made on
// behalf of an installation read their token through it.
func (r *Registrar) Installation(ctx context.Context, apiURL string) (apl.Record, bool, error) {
	return r.store.Get(ctx, apiURL)
}

func (r *Registrar) checkRequest(req Request) *svcerrors.ServiceError {
	if req.APIURL == "" {
		return svcerrors.MissingAPIURL()
	}
	u, err := url.Parse(req.APIURL)
	if err != nil {
		return svcerrors.InvalidAPIURL("unparsable")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return svcerrors.InvalidAPIURL("scheme must be http or https")
	}
	if u.Host == "" {
		return svcerrors.InvalidAPIURL("host is required")
	}
	if req.AuthToken == "" {
		return svcerrors.MissingAuthToken()
	}
	if len(r.cfg.AllowedURLs) > 0 && !matchesAny(r.cfg.AllowedURLs, req.APIURL) {
		return svcerrors.APIURLNotAllowed()
	}
	return nil
}

func classifyValidation(vctx context.Context, err error) *svcerrors.ServiceError {
	switch {
	case errors.Is(err, saleor.ErrInvalidToken):
		return svcerrors.InvalidToken(err)
	case saleor.IsTimeout(err) || errors.Is(vctx.Err(), context.DeadlineExceeded):
		return svcerrors.InstanceTimeout(err)
	default:
		return svcerrors.UnreachableInstance(err)
	}
}

func classifyStore(err error) *svcerrors.ServiceError {
	if errors.Is(err, apl.ErrCorrupt) {
		return svcerrors.StoreCorrupt(err)
	}
	return svcerrors.StoreIO(err)
}

func (r *Registrar) reject(ctx context.Context, err *svcerrors.ServiceError) error {
	entry := r.log.WithContext(ctx).WithError(err).WithFields(logrus.Fields{
		"state":  StateRejected,
		"kind":   err.Code,
		"status": err.HTTPStatus,
	})
	if err.HTTPStatus >= 500 {
		entry.Error("registration rejected")
	} else {
		entry.Warn("registration rejected")
	}
	metrics.RecordRegistration(string(StateRejected), string(err.Code))
	return err
}

func (r *Registrar) transition(ctx context.Context, state State, fields logrus.Fields) {
	entry := r.log.WithContext(ctx).WithField("state", state)
	if len(fields) > 0 {
		entry = entry.WithFields(fields)
	}
	if state == StateAccepted {
		entry.Info("registration accepted")
	} else {
		entry.Debug("registration state")
	}
	metrics.RecordRegistration(string(state), "")
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
