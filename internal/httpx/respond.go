package httpx

import (
	"encoding/json"
	"github.com/ariefcatur/go-realtime-store/internal/apperr"
	"github.com/sirupsen/logrus"
	"net/http"
)

// ProblemDetail is an RFC7807 body; Code carries the stable domain code.
type ProblemDetail struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
	Code   string `json:"code,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func problem(w http.ResponseWriter, status int, title, detail, code string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ProblemDetail{Title: title, Status: status, Detail: detail, Code: code})
}

var kindStatus = map[apperr.Kind]struct {
	status int
	title  string
}{
	apperr.KindValidation:        {http.StatusBadRequest, "Validation Failed"},
	apperr.KindNotFound:          {http.StatusNotFound, "Not Found"},
	apperr.KindConflict:          {http.StatusConflict, "Conflict"},
	apperr.KindState:             {http.StatusConflict, "Invalid State"},
	apperr.KindInsufficientStock: {http.StatusConflict, "Insufficient Stock"},
}

// respondError maps a domain error by kind. Storage failures are logged with
// their cause and rendered without detail.
func respondError(w http.ResponseWriter, log logrus.FieldLogger, err error) {
	kind := apperr.KindOf(err)
	if m, ok := kindStatus[kind]; ok {
		problem(w, m.status, m.title, err.Error(), apperr.CodeOf(err))
		return
	}
	log.WithError(err).Error("request failed")
	problem(w, http.StatusInternalServerError, "Internal Error", "storage failure", "storage_failure")
}
