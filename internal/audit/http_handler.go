package audit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
)

// Handler exposes recorded outcomes for operators.
type Handler struct {
	sink *PostgresSink
}

// NewHTTPHandler wraps the persistent sink with a GET endpoint.
func NewHTTPHandler(sink *PostgresSink) http.Handler {
	return &Handler{sink: sink}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	action := strings.TrimSpace(r.URL.Query().Get("action"))
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "limit must be an integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	entries, err := h.sink.List(r.Context(), action, limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(entries)
}
