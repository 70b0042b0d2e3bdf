// Package response writes the API's JSON, CSV and problem responses and maps
// domain errors onto HTTP statuses.
package response

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/pulseboard/pulseboard/internal/api/middleware"
	"github.com/pulseboard/pulseboard/internal/api/models"
	"github.com/pulseboard/pulseboard/internal/dashboard"
	"github.com/pulseboard/pulseboard/internal/probe"
)

// MaxBodyBytes bounds request bodies read by Decode.
const MaxBodyBytes = 1 << 20

func echoRequestID(w http.ResponseWriter, r *http.Request) string {
	id := middleware.GetRequestID(r.Context())
	if id != "" {
		w.Header().Set("X-Request-Id", id)
	}
	return id
}

// JSON encodes data with the given status. A nil data writes headers only.
func JSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	echoRequestID(w, r)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// Created answers 201, pointing Location at the new resource.
func Created(w http.ResponseWriter, r *http.Request, location string, data any) {
	if location != "" {
		w.Header().Set("Location", location)
	}
	JSON(w, r, http.StatusCreated, data)
}

func NoContent(w http.ResponseWriter, r *http.Request) {
	echoRequestID(w, r)
	w.WriteHeader(http.StatusNoContent)
}

// CSV streams rows as a download named filename.
func CSV(w http.ResponseWriter, r *http.Request, filename string, rows [][]string) {
	echoRequestID(w, r)
	h := w.Header()
	h.Set("Content-Type", "text/csv; charset=utf-8")
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_ = csv.NewWriter(w).WriteAll(rows)
}

// Decode reads a JSON body of at most MaxBodyBytes into dst. Failures come
// back as a 400 Problem.
func Decode(r *http.Request, dst any) error {
	err := json.NewDecoder(http.MaxBytesReader(nil, r.Body, MaxBodyBytes)).Decode(dst)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, io.EOF):
		return models.NewBadRequest(middleware.GetRequestID(r.Context()), "request body is required", nil)
	default:
		return models.NewBadRequest(middleware.GetRequestID(r.Context()), "malformed JSON body: "+err.Error(), nil)
	}
}

// Error stamps the request path on problem and writes it.
func Error(w http.ResponseWriter, r *http.Request, problem *models.Problem) {
	problem.Instance = r.URL.Path
	problem.Write(w)
}

// FromError writes err as a Problem. Problems pass through unchanged, domain
// sentinels map to their status and anything else is a 500 without detail.
func FromError(w http.ResponseWriter, r *http.Request, err error) {
	if p, ok := models.AsProblem(err); ok {
		Error(w, r, p)
		return
	}

	switch {
	case errors.Is(err, dashboard.ErrServiceNotFound), errors.Is(err, dashboard.ErrAlertNotFound):
		NotFound(w, r, err.Error())
	case errors.Is(err, dashboard.ErrServiceExists):
		Conflict(w, r, err.Error())
	case errors.Is(err, dashboard.ErrInvalidPatch), errors.Is(err, probe.ErrNoHealthCheckURL):
		BadRequest(w, r, err.Error(), nil)
	default:
		InternalError(w, r, "an unexpected error occurred")
	}
}

func BadRequest(w http.ResponseWriter, r *http.Request, detail string, fields []models.FieldError) {
	Error(w, r, models.NewBadRequest(middleware.GetRequestID(r.Context()), detail, fields))
}

func Unauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewUnauthorized(middleware.GetRequestID(r.Context()), detail))
}

func NotFound(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewNotFound(middleware.GetRequestID(r.Context()), detail))
}

func Conflict(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewConflict(middleware.GetRequestID(r.Context()), detail))
}

func InternalError(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewInternalError(middleware.GetRequestID(r.Context()), detail))
}

func ServiceUnavailable(w http.ResponseWriter, r *http.Request, detail string) {
	Error(w, r, models.NewServiceUnavailable(middleware.GetRequestID(r.Context()), detail))
}
