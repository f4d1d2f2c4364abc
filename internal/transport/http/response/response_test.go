package response

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/wholesale-catalog/internal/domain"
	appCtx "github.com/baechuer/wholesale-catalog/internal/pkg/context"
)

func TestWriteError_DomainError(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req = req.WithContext(appCtx.WithRequestID(context.Background(), "req-123"))
	rr := httptest.NewRecorder()

	WriteError(rr, req, domain.ErrMissingField("productId"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "missing_field", body.Code)
	assert.Equal(t, "productId", body.Meta["field"])
	assert.Equal(t, "req-123", body.RequestID)
}

func TestWriteError_StorageHintIsLifted(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	rr := httptest.NewRecorder()

	WriteError(rr, req, domain.ErrStorage(errors.New("boom"), "42P01", "run migrations"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "storage_error", body.Code)
	assert.Equal(t, "run migrations", body.Hint)
	assert.Equal(t, "42P01", body.Meta["db_code"])
	assert.NotContains(t, rr.Body.String(), "boom")
}

func TestWriteError_NonDomainHidesDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, httptest.NewRequest(http.MethodGet, "/x", nil), errors.New("pq: secret detail"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "secret")
	assert.Contains(t, rr.Body.String(), `"code":"internal_error"`)
}

func TestWriteError_RateLimitedSetsRetryAfter(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, httptest.NewRequest(http.MethodGet, "/x", nil), domain.ErrRateLimited("login"))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "60", rr.Header().Get("Retry-After"))
}

func TestStatusFromKind(t *testing.T) {
	cases := map[domain.ErrKind]int{
		domain.KindValidation:     http.StatusBadRequest,
		domain.KindAuth:           http.StatusUnauthorized,
		domain.KindForbidden:      http.StatusForbidden,
		domain.KindNotFound:       http.StatusNotFound,
		domain.KindConflict:       http.StatusConflict,
		domain.KindRateLimited:    http.StatusTooManyRequests,
		domain.KindInfrastructure: http.StatusServiceUnavailable,
		domain.KindInternal:       http.StatusInternalServerError,
		"unknown":                 http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, statusFromKind(kind), kind)
	}
}

func TestOKAndCreated(t *testing.T) {
	rr := httptest.NewRecorder()
	OK(rr, map[string]int{"x": 1})
	assert.JSONEq(t, `{"success":true,"data":{"x":1}}`, rr.Body.String())

	rr = httptest.NewRecorder()
	Created(rr, map[string]string{"y": "z"})
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"success":true,"data":{"y":"z"}}`, rr.Body.String())
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		A string `json:"a"`
	}

	req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(`{"a":"x"}`))
	require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, &dst))
	assert.Equal(t, "x", dst.A)

	for _, body := range []string{`{"a":`, `{}{}`, ``} {
		req := httptest.NewRequest(http.MethodPost, "/x", strings.NewReader(body))
		err := DecodeJSON(httptest.NewRecorder(), req, &dst)
		assert.True(t, domain.Is(err, "invalid_json"), body)
	}
}
