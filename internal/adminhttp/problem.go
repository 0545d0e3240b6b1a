// Package adminhttp implements the dispatch core's administrative HTTP
// surface: DLQ inspection and retry, replay, and liveness/readiness
// checks. It is intentionally thin — there is no event ingestion HTTP
// API in this core, only operator tooling.
package adminhttp

import (
	"encoding/json"
	"net/http"

	"github.com/moogar0880/problems"

	"github.com/cuemby/reflex-dispatch/internal/dispatcherr"
)

// ContentTypeProblemJSON is the RFC 7807 media type.
const ContentTypeProblemJSON = "application/problem+json"

// Problem is an RFC 7807 Problem Details response, embedding
// moogar0880/problems for the core fields and adding a stable code for
// programmatic handling.
type Problem struct {
	*problems.DefaultProblem
	Code string `json:"code,omitempty"`
}

// NewProblem builds a Problem for an ad hoc status/title/detail triple
// with no dispatcherr code attached (decode failures, method-not-allowed,
// and the like).
func NewProblem(status int, title, detail string) *Problem {
	base := problems.NewStatusProblem(status)
	base.Title = title
	base.Detail = detail
	return &Problem{DefaultProblem: base}
}

// codeStatus maps dispatcherr codes to the HTTP status the admin surface
// reports them as.
var codeStatus = map[string]int{
	dispatcherr.CodeDuplicateType:    http.StatusConflict,
	dispatcherr.CodeUnknownType:      http.StatusBadRequest,
	dispatcherr.CodeSchemaError:      http.StatusBadRequest,
	dispatcherr.CodeDuplicateEvent:   http.StatusConflict,
	dispatcherr.CodeHandlerFailure:   http.StatusUnprocessableEntity,
	dispatcherr.CodeLockTimeout:      http.StatusConflict,
	dispatcherr.CodeStoreUnavailable: http.StatusServiceUnavailable,
}

// FromDomainError builds a Problem from a dispatcherr.DomainError,
// mapping its code to an HTTP status and surfacing the code and hint.
func FromDomainError(err *dispatcherr.DomainError) *Problem {
	status, ok := codeStatus[err.Code]
	if !ok {
		status = http.StatusInternalServerError
	}

	detail := err.Message
	if err.Hint != "" {
		detail = err.Message + ": " + err.Hint
	}

	base := problems.NewStatusProblem(status)
	base.Title = err.Code
	base.Detail = detail

	return &Problem{DefaultProblem: base, Code: err.Code}
}

// WriteProblem writes p as application/problem+json, falling back to a
// generic 500 if p or its status is unset.
func WriteProblem(w http.ResponseWriter, p *Problem) {
	if p == nil {
		p = NewProblem(http.StatusInternalServerError, "Internal Server Error", "an internal error occurred")
	}
	if p.Status == 0 {
		p.Status = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", ContentTypeProblemJSON)
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// WriteError writes err as a Problem, unwrapping a dispatcherr.DomainError
// when present and falling back to a generic 500 otherwise.
func WriteError(w http.ResponseWriter, err error) {
	if de := dispatcherr.As(err); de != nil {
		WriteProblem(w, FromDomainError(de))
		return
	}
	WriteProblem(w, NewProblem(http.StatusInternalServerError, "Internal Server Error", "an internal error occurred"))
}
