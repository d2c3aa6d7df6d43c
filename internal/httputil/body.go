package httputil

import (
	"errors"
	"fmt"
	"io"
)

// ErrBodyTooLarge is returned by ReadAllStrict when the limit is exceeded.
var ErrBodyTooLarge = errors.New("body exceeds size limit")

// ReadAllWithLimit reads at most limit bytes and reports whether more data
// was available.
func ReadAllWithLimit(r io.Reader, limit int64) ([]byte, bool, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(data)) > limit {
		return data[:limit], true, nil
	}
	return data, false, nil
}

// ReadAllStrict reads the whole body and fails with ErrBodyTooLarge when it
// exceeds limit.
func ReadAllStrict(r io.Reader, limit int64) ([]byte, error) {
	data, truncated, err := ReadAllWithLimit(r, limit)
	if err != nil {
		return nil, err
	}
	if truncated {
		return nil, fmt.Errorf("%w (%d bytes)", ErrBodyTooLarge, limit)
	}
	return data, nil
}
