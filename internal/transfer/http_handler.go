package transfer

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rpattn/rowsync/internal/domain"
)

// Handler exposes transfer runs as an HTTP endpoint.
type Handler struct {
	engine *Engine
	specs  map[string]domain.TransferSpec
}

// NewHTTPHandler wraps the engine with a POST endpoint over named specs.
func NewHTTPHandler(engine *Engine, specs []domain.TransferSpec) http.Handler {
	byName := make(map[string]domain.TransferSpec, len(specs))
	for _, spec := range specs {
		byName[spec.Name] = spec
	}
	return &Handler{engine: engine, specs: byName}
}

type runRequest struct {
	Spec      string `json:"spec"`
	SourceRow int    `json:"sourceRow"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest)
		return
	}

	spec, ok := h.specs[req.Spec]
	if !ok {
		http.Error(w, fmt.Sprintf("unknown spec: %s", req.Spec), http.StatusNotFound)
		return
	}
	if req.SourceRow <= 1 {
		http.Error(w, "sourceRow must be a data row (header is row 1)", http.StatusBadRequest)
		return
	}

	entry := h.engine.Run(r.Context(), spec, req.SourceRow)

	status := http.StatusOK
	if entry.Result == domain.ResultError {
		status = http.StatusInternalServerError
	}
	writeJSON(w, status, entry)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
