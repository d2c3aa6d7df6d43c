package registration

import (
	"net/http"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/logistiker/saleor-app/internal/httputil"
)

// Headers Saleor sends with the registration call.
const (
	HeaderAPIURL = "Saleor-Api-Url"
	HeaderDomain = "Saleor-Domain"
)

const maxRequestBody = 64 << 10

// Request is the input of one registration attempt.
type Request struct {
	APIURL    string
	AuthToken string
	Domain    string
}

// ParseRequest extracts a Request from the registration call. The API URL
// comes from the Saleor-Api-Url header or the apiUrl/saleorApiUrl query
// parameter. The token comes from the auth_token/authToken query parameter,
// a bearer Authorization header, or a JSON body, in that order. Missing
// values are left empty for Register to reject.
func ParseRequest(r *http.Request) Request {
	q := r.URL.Query()

	req := Request{
		APIURL: firstNonEmpty(r.Header.Get(HeaderAPIURL), q.Get("apiUrl"), q.Get("saleorApiUrl")),
		Domain: strings.TrimSpace(r.Header.Get(HeaderDomain)),
	}

	req.AuthToken = firstNonEmpty(q.Get("auth_token"), q.Get("authToken"), bearerToken(r.Header.Get("Authorization")))
	if req.AuthToken == "" && r.Body != nil {
		body, _, err := httputil.ReadAllWithLimit(r.Body, maxRequestBody)
		if err == nil && gjson.ValidBytes(body) {
			req.AuthToken = firstNonEmpty(
				gjson.GetBytes(body, "auth_token").String(),
				gjson.GetBytes(body, "authToken").String(),
			)
		}
	}
	return req
}

func bearerToken(header string) string {
	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
