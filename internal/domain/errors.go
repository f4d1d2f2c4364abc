package domain

import (
	"errors"
	"fmt"
)

// ErrKind is used to map domain errors to HTTP status codes consistently.
type ErrKind string

const (
	KindValidation     ErrKind = "validation"     // 400
	KindAuth           ErrKind = "auth"           // 401
	KindForbidden      ErrKind = "forbidden"      // 403
	KindNotFound       ErrKind = "not_found"      // 404
	KindConflict       ErrKind = "conflict"       // 409
	KindRateLimited    ErrKind = "rate_limited"   // 429
	KindInfrastructure ErrKind = "infrastructure" // 503
	KindInternal       ErrKind = "internal"       // 500
)

// Error is a structured domain error.
// - Kind: high-level category for HTTP mapping
// - Code: stable machine code
// - Message: safe summary for clients
// - Meta: optional details (field, reason, db_code, hint)
// - Cause: wrapped internal error for logging
type Error struct {
	Kind    ErrKind
	Code    string
	Message string
	Meta    map[string]string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Kind, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind ErrKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Wrap(kind ErrKind, code, msg string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Cause: cause}
}

func WithMeta(err *Error, meta map[string]string) *Error {
	err.Meta = meta
	return err
}

// Is reports whether err is a domain error carrying code.
func Is(err error, code string) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// KindOf returns the kind of a domain error, or KindInternal for anything else.
func KindOf(err error) ErrKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// ----------------------
// Validation errors (400)
// ----------------------

func ErrInvalidJSON(cause error) *Error {
	return Wrap(KindValidation, "invalid_json", "invalid JSON body", cause)
}

func ErrMissingField(field string) *Error {
	return WithMeta(New(KindValidation, "missing_field", "missing required field: "+field), map[string]string{
		"field": field,
	})
}

func ErrInvalidField(field, reason string) *Error {
	return WithMeta(New(KindValidation, "invalid_field", "invalid field: "+field), map[string]string{
		"field":  field,
		"reason": reason,
	})
}

func ErrWeakPassword(reason string) *Error {
	return WithMeta(New(KindValidation, "weak_password", "password does not meet requirements"), map[string]string{
		"reason": reason,
	})
}

// ----------------------
// Auth errors (401)
// ----------------------

// Login failures never say which half of the pair was wrong.
func ErrInvalidCredentials() *Error {
	return New(KindAuth, "invalid_credentials", "invalid username or password")
}

func ErrTokenMissing() *Error {
	return New(KindAuth, "token_missing", "no token provided")
}

func ErrTokenInvalid() *Error {
	return New(KindAuth, "token_invalid", "invalid token")
}

func ErrTokenExpired() *Error {
	return New(KindAuth, "token_expired", "token is expired")
}

// ----------------------
// Forbidden (403)
// ----------------------

func ErrForbidden() *Error {
	return New(KindForbidden, "forbidden", "forbidden")
}

func ErrInsufficientRole(required string) *Error {
	return WithMeta(New(KindForbidden, "insufficient_role", "insufficient role"), map[string]string{
		"required": required,
	})
}

// ----------------------
// Not Found (404)
// ----------------------

func ErrProductNotFound(productID string) *Error {
	return WithMeta(New(KindNotFound, "product_not_found", "product not found"), map[string]string{
		"productId": productID,
	})
}

func ErrBadgeNotFound() *Error {
	return New(KindNotFound, "badge_not_found", "fire badge not found")
}

func ErrCatalogItemNotFound(sku string) *Error {
	return WithMeta(New(KindNotFound, "catalog_item_not_found", "catalog item not found"), map[string]string{
		"sku": sku,
	})
}

func ErrBackupNotFound(key string) *Error {
	return WithMeta(New(KindNotFound, "backup_not_found", "backup not found"), map[string]string{
		"key": key,
	})
}

func ErrUserNotFound() *Error {
	return New(KindNotFound, "user_not_found", "user not found")
}

// ----------------------
// Conflict (409)
// ----------------------

func ErrProductExists(productID string) *Error {
	return WithMeta(New(KindConflict, "product_exists", "product already tracked"), map[string]string{
		"productId": productID,
	})
}

func ErrUsernameTaken() *Error {
	return New(KindConflict, "username_taken", "username already registered")
}

func ErrPositionOccupied(position int) *Error {
	return WithMeta(New(KindConflict, "position_occupied", "badge position is being assigned concurrently"), map[string]string{
		"position": fmt.Sprintf("%d", position),
	})
}

// ----------------------
// Rate limit (429)
// ----------------------

func ErrRateLimited(scope string) *Error {
	return WithMeta(New(KindRateLimited, "rate_limited", "too many requests"), map[string]string{
		"scope": scope,
	})
}

// ----------------------
// Infrastructure / internal (5xx)
// ----------------------

// ErrStorage carries the storage diagnostic (SQLSTATE and hint) for operators.
func ErrStorage(cause error, dbCode, hint string) *Error {
	e := Wrap(KindInternal, "storage_error", "storage operation failed", cause)
	meta := map[string]string{}
	if dbCode != "" {
		meta["db_code"] = dbCode
	}
	if hint != "" {
		meta["hint"] = hint
	}
	if len(meta) > 0 {
		e.Meta = meta
	}
	return e
}

func ErrCatalogUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "catalog_unavailable", "catalog source unavailable", cause)
}

func ErrBlobUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "blob_unavailable", "backup storage unavailable", cause)
}

func ErrSettingsUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, "settings_unavailable", "settings store unavailable", cause)
}

func ErrHashFailed(cause error) *Error {
	return Wrap(KindInternal, "hash_failed", "password hashing failed", cause)
}

func ErrTokenSignFailed(cause error) *Error {
	return Wrap(KindInternal, "token_sign_failed", "token signing failed", cause)
}

func ErrInternal(cause error) *Error {
	return Wrap(KindInternal, "internal_error", "internal error", cause)
}
