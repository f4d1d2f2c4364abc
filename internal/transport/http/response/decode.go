package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/baechuer/wholesale-catalog/internal/domain"
)

const maxBodyBytes = 1 << 20

// DecodeJSON decodes a single JSON value from the request body into dst.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return domain.ErrInvalidJSON(err)
	}
	// {}{} is rejected
	if err := dec.Decode(&struct{}{}); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return domain.ErrInvalidJSON(err)
	}
	return domain.ErrInvalidJSON(errors.New("multiple JSON values"))
}
