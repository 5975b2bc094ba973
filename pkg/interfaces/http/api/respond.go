package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vsinha/brewerp/pkg/domain/apperror"
	"github.com/vsinha/brewerp/pkg/domain/repositories"
)

// maxBodyBytes caps request bodies
const maxBodyBytes = 1 << 20

// errorBody is the JSON shape of every error response
type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// statusOf maps a service error to its HTTP status
func statusOf(err error) int {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperror.ErrConflict),
		errors.Is(err, apperror.ErrInsufficientStock),
		errors.Is(err, apperror.ErrInvalidState):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	body := errorBody{Error: err.Error()}
	var ve *apperror.ValidationError
	if errors.As(err, &ve) {
		body.Fields = ve.Fields
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("request_id", requestID(r)),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		body.Error = http.StatusText(status)
	}
	writeJSON(w, status, body)
}

// decode reads a JSON body into dst, rejecting unknown fields and trailing data
func decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperror.Invalid("body", "is required")
		}
		return apperror.Invalid("body", "%s", strings.TrimPrefix(err.Error(), "json: "))
	}
	if dec.More() {
		return apperror.Invalid("body", "must contain a single JSON object")
	}
	return nil
}

// query wraps URL query parsing and collects every bad parameter
type query struct {
	r *http.Request
	v *apperror.ValidationError
}

func newQuery(r *http.Request) *query {
	return &query{r: r, v: apperror.NewValidationError()}
}

func (q *query) str(name string) string {
	return strings.TrimSpace(q.r.URL.Query().Get(name))
}

func (q *query) int(name string) int {
	s := q.str(name)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		q.v.Add(name, "must be an integer")
	}
	return n
}

func (q *query) bool(name string) bool {
	s := q.str(name)
	if s == "" {
		return false
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		q.v.Add(name, "must be true or false")
	}
	return b
}

// time accepts RFC 3339 timestamps and plain dates (midnight UTC)
func (q *query) time(name string) time.Time {
	s := q.str(name)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		q.v.Add(name, "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
	}
	return t.UTC()
}

func (q *query) timePtr(name string) *time.Time {
	t := q.time(name)
	if t.IsZero() {
		return nil
	}
	return &t
}

func (q *query) page() repositories.ListOptions {
	opts := repositories.ListOptions{Limit: q.int("limit"), Offset: q.int("offset")}
	if opts.Limit < 0 {
		q.v.Add("limit", "cannot be negative")
	}
	if opts.Offset < 0 {
		q.v.Add("offset", "cannot be negative")
	}
	return opts
}

func (q *query) err() error {
	return q.v.Err()
}

// listBody wraps collections so they can grow paging metadata
type listBody[T any] struct {
	Data []T `json:"data"`
}

func list[T any](items []T) listBody[T] {
	if items == nil {
		items = []T{}
	}
	return listBody[T]{Data: items}
}

func notFoundRoute(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{Error: fmt.Sprintf("no route for %s %s", r.Method, r.URL.Path)})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: fmt.Sprintf("method %s not allowed", r.Method)})
}
