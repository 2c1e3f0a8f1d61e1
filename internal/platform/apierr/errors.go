// Package apierr translates domain failures into the wire error taxonomy of
// the external HTTP surface: a stable machine-readable code, a human detail,
// optional field errors and a correlation id for support.
package apierr

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind is the taxonomy named in the error handling design: client-correctable
// validation problems, conflicts, authorization failures and so on.
type Kind string

const (
	KindValidation            Kind = "validation"
	KindConflict              Kind = "conflict"
	KindAuthorization         Kind = "authorization"
	KindNotFound              Kind = "not_found"
	KindPreconditionFailed    Kind = "precondition_failed"
	KindRateLimited           Kind = "rate_limited"
	KindRuleBlock             Kind = "rule_block"
	KindDependencyUnavailable Kind = "dependency_unavailable"
	KindInternal              Kind = "internal"
)

var statusByKind = map[Kind]int{
	KindValidation:            http.StatusBadRequest,
	KindConflict:              http.StatusConflict,
	KindAuthorization:         http.StatusForbidden,
	KindNotFound:              http.StatusNotFound,
	KindPreconditionFailed:    http.StatusPreconditionFailed,
	KindRateLimited:           http.StatusTooManyRequests,
	KindRuleBlock:             http.StatusForbidden,
	KindDependencyUnavailable: http.StatusServiceUnavailable,
	KindInternal:              http.StatusInternalServerError,
}

// FieldError annotates one offending request field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// RiskFactor is attached to rule_block errors, one per rule that contributed
// to the block, so a caller can see which specific check failed.
type RiskFactor struct {
	Factor string  `json:"factor"`
	Impact float64 `json:"impact"`
	Value  string  `json:"value"`
}

// Error is the canonical application error. It implements error so it can
// travel unchanged through service layers and is unwrapped at the HTTP edge.
type Error struct {
	Kind    Kind         `json:"-"`
	Code    string       `json:"code"`
	Detail  string       `json:"detail"`
	Fields  []FieldError `json:"fields,omitempty"`
	Factors []RiskFactor `json:"factors,omitempty"`
}

func (e *Error) Error() string { return e.Detail }

func New(kind Kind, code, detail string) *Error {
	return &Error{Kind: kind, Code: code, Detail: detail}
}

func Validation(code, detail string, fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Code: code, Detail: detail, Fields: fields}
}

func Conflict(code, detail string) *Error {
	return New(KindConflict, code, detail)
}

func NotFound(code, detail string) *Error {
	return New(KindNotFound, code, detail)
}

func Precondition(code, detail string) *Error {
	return New(KindPreconditionFailed, code, detail)
}

func Authorization(code, detail string) *Error {
	return New(KindAuthorization, code, detail)
}

func RuleBlock(detail string, factors ...RiskFactor) *Error {
	return &Error{Kind: KindRuleBlock, Code: "RISK_BLOCKED", Detail: detail, Factors: factors}
}

func DependencyUnavailable(code, detail string) *Error {
	return New(KindDependencyUnavailable, code, detail)
}

// Respond writes err to the gin context using the correlation id already
// stashed in the request context by the correlation-id middleware. Unknown
// error types are folded into KindInternal so a handler can always just
// return a plain error without caring about the taxonomy.
func Respond(c *gin.Context, err error) {
	apiErr, ok := err.(*Error)
	if !ok {
		apiErr = New(KindInternal, "INTERNAL", "an internal error occurred")
	}
	status, ok := statusByKind[apiErr.Kind]
	if !ok {
		status = http.StatusInternalServerError
	}
	correlationID, _ := c.Get(CorrelationIDKey)
	c.JSON(status, gin.H{
		"error":          apiErr,
		"correlationId":  correlationID,
	})
}

// CorrelationIDKey is the gin context key the correlation-id middleware
// populates and Respond reads back.
const CorrelationIDKey = "correlationId"
