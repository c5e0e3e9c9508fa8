package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hyperengineering/protrack/internal/category"
	"github.com/hyperengineering/protrack/internal/chatbot"
	"github.com/hyperengineering/protrack/internal/store"
	"github.com/hyperengineering/protrack/internal/validation"
)

// Problem represents an RFC 7807 Problem Details response. Message repeats
// Detail for clients that read the legacy {message} body.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail"`
	Message  string `json:"message"`
	Instance string `json:"instance,omitempty"`
}

type problemType struct {
	typeURI string
	title   string
}

// problemTypes maps HTTP status codes to RFC 7807 type URIs and titles.
var problemTypes = map[int]problemType{
	http.StatusBadRequest: {
		typeURI: "https://protrack.dev/errors/bad-request",
		title:   "Bad Request",
	},
	http.StatusUnauthorized: {
		typeURI: "https://protrack.dev/errors/unauthorized",
		title:   "Unauthorized",
	},
	http.StatusNotFound: {
		typeURI: "https://protrack.dev/errors/not-found",
		title:   "Not Found",
	},
	http.StatusTooManyRequests: {
		typeURI: "https://protrack.dev/errors/rate-limit",
		title:   "Too Many Requests",
	},
	http.StatusInternalServerError: {
		typeURI: "https://protrack.dev/errors/internal-error",
		title:   "Internal Server Error",
	},
}

func lookupProblemType(status int) problemType {
	if pt, ok := problemTypes[status]; ok {
		return pt
	}
	return problemType{
		typeURI: "https://protrack.dev/errors/unknown",
		title:   http.StatusText(status),
	}
}

func newProblem(r *http.Request, status int, detail string) Problem {
	pt := lookupProblemType(status)
	return Problem{
		Type:     pt.typeURI,
		Title:    pt.title,
		Status:   status,
		Detail:   detail,
		Message:  detail,
		Instance: r.URL.Path,
	}
}

// WriteProblem writes an RFC 7807 Problem Details response.
func WriteProblem(w http.ResponseWriter, r *http.Request, status int, detail string) {
	writeProblemBody(w, status, newProblem(r, status, detail))
}

// ProblemWithErrors extends Problem with validation error details.
type ProblemWithErrors struct {
	Problem
	Errors []validation.ValidationError `json:"errors,omitempty"`
}

// WriteProblemWithErrors writes a 400 Problem Details response with field errors.
func WriteProblemWithErrors(w http.ResponseWriter, r *http.Request, detail string, errs []validation.ValidationError) {
	p := ProblemWithErrors{
		Problem: newProblem(r, http.StatusBadRequest, detail),
		Errors:  errs,
	}
	writeProblemBody(w, http.StatusBadRequest, p)
}

func writeProblemBody(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode problem response", "error", err)
	}
}

// MapError converts domain errors to Problem Details responses.
func MapError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		actionErr *chatbot.ValidationError
		regenErr  *chatbot.RegenerationError
		formErr   category.ValidationErrors
	)

	switch {
	case errors.As(err, &actionErr):
		WriteProblem(w, r, http.StatusBadRequest, actionErr.Message)
	case errors.As(err, &regenErr):
		slog.Error("regeneration failed", "error", err, "path", r.URL.Path)
		WriteProblem(w, r, http.StatusInternalServerError, regenErr.Error())
	case errors.As(err, &formErr):
		WriteProblemWithErrors(w, r, formErr.Error(), fieldErrors(formErr))
	case errors.Is(err, store.ErrNotFound):
		WriteProblem(w, r, http.StatusNotFound, "Roadmap not found")
	default:
		slog.Error("request failed", "error", err, "path", r.URL.Path)
		WriteProblem(w, r, http.StatusInternalServerError, "Server error: "+err.Error())
	}
}

func fieldErrors(e category.ValidationErrors) []validation.ValidationError {
	out := make([]validation.ValidationError, len(e.Errors))
	for i, fe := range e.Errors {
		out[i] = validation.ValidationError{Field: fe.Field, Message: fe.Message}
	}
	return out
}
