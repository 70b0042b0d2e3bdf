package models

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Problem is an RFC 7807 error body, served as application/problem+json.
// TraceID mirrors the X-Request-Id of the failing request.
type Problem struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	TraceID  string       `json:"traceId"`
	Errors   []FieldError `json:"errors,omitempty"`
}

// FieldError points at one offending request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

const (
	CodeRequired = "REQUIRED"
	CodeInvalid  = "INVALID"
)

// Problem type URIs.
const (
	ProblemTypeValidation       = "/problems/validation-error"
	ProblemTypeUnauthorized     = "/problems/unauthorized"
	ProblemTypeForbidden        = "/problems/forbidden"
	ProblemTypeNotFound         = "/problems/not-found"
	ProblemTypeConflict         = "/problems/conflict"
	ProblemTypeUnsupportedMedia = "/problems/unsupported-media-type"
	ProblemTypeTooManyRequests  = "/problems/too-many-requests"
	ProblemTypeInternal         = "/problems/internal-error"
	ProblemTypeUnavailable      = "/problems/service-unavailable"
)

var titles = map[string]string{
	ProblemTypeValidation:       "Validation error",
	ProblemTypeUnauthorized:     "Unauthorized",
	ProblemTypeForbidden:        "Forbidden",
	ProblemTypeNotFound:         "Not found",
	ProblemTypeConflict:         "Conflict",
	ProblemTypeUnsupportedMedia: "Unsupported media type",
	ProblemTypeTooManyRequests:  "Too many requests",
	ProblemTypeInternal:         "Internal server error",
	ProblemTypeUnavailable:      "Service unavailable",
}

// NewProblem builds a Problem of a known type. The title is looked up from
// the type; unknown types fall back to the HTTP status text.
func NewProblem(problemType string, status int, traceID, detail string) *Problem {
	title, ok := titles[problemType]
	if !ok {
		title = http.StatusText(status)
	}
	return &Problem{
		Type:    problemType,
		Title:   title,
		Status:  status,
		Detail:  detail,
		TraceID: traceID,
	}
}

func (p *Problem) Error() string {
	if p.Detail == "" {
		return p.Title
	}
	return p.Title + ": " + p.Detail
}

// Write sends the Problem with its status code.
func (p *Problem) Write(w http.ResponseWriter) {
	h := w.Header()
	h.Set("Content-Type", "application/problem+json")
	if p.TraceID != "" {
		h.Set("X-Request-Id", p.TraceID)
	}
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// AsProblem unwraps a Problem from err.
func AsProblem(err error) (*Problem, bool) {
	var p *Problem
	ok := errors.As(err, &p)
	return p, ok
}

func NewBadRequest(traceID, detail string, fields []FieldError) *Problem {
	p := NewProblem(ProblemTypeValidation, http.StatusBadRequest, traceID, detail)
	p.Errors = fields
	return p
}

func NewUnauthorized(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeUnauthorized, http.StatusUnauthorized, traceID, detail)
}

func NewForbidden(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeForbidden, http.StatusForbidden, traceID, detail)
}

func NewNotFound(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeNotFound, http.StatusNotFound, traceID, detail)
}

func NewConflict(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeConflict, http.StatusConflict, traceID, detail)
}

func NewUnsupportedMediaType(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeUnsupportedMedia, http.StatusUnsupportedMediaType, traceID, detail)
}

func NewTooManyRequests(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeTooManyRequests, http.StatusTooManyRequests, traceID, detail)
}

func NewInternalError(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeInternal, http.StatusInternalServerError, traceID, detail)
}

func NewServiceUnavailable(traceID, detail string) *Problem {
	return NewProblem(ProblemTypeUnavailable, http.StatusServiceUnavailable, traceID, detail)
}
