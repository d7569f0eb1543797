// internal/api/handler/api/regime.go
package api

import (
	"encoding/json"
	"net/http"

	"github.com/newthinker/prism/internal/api/response"
	"github.com/newthinker/prism/internal/core"
	"github.com/newthinker/prism/internal/regime"
)

// ClassifyRequest carries one snapshot of indicator values.
type ClassifyRequest struct {
	Scope      string                 `json:"scope,omitempty"`
	Indicators regime.IndicatorValues `json:"indicators"`
	Types      regime.TypeIndex       `json:"types,omitempty"`
}

// ClassifyResponse reports the winning regime, or a null regime when
// nothing matched.
type ClassifyResponse struct {
	Regime *regime.ActiveRegime `json:"regime"`
}

// RegimeHandler serves classification and definition management.
type RegimeHandler struct {
	store *regime.ConfigStore
}

// NewRegimeHandler creates a new regime handler.
func NewRegimeHandler(store *regime.ConfigStore) *RegimeHandler {
	return &RegimeHandler{store: store}
}

// Classify evaluates the request snapshot against the loaded regime
// definitions.
func (h *RegimeHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req ClassifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, err))
		return
	}

	if len(req.Indicators) == 0 {
		response.Error(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigMissing, nil))
		return
	}

	active, err := regime.Classify(req.Indicators, req.Types, h.store.Definitions(), req.Scope)
	if err != nil {
		response.Error(w, http.StatusUnprocessableEntity, err)
		return
	}

	response.JSON(w, http.StatusOK, ClassifyResponse{Regime: active})
}

// Definitions lists the loaded regime definitions.
func (h *RegimeHandler) Definitions(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"regimes":   h.store.Definitions(),
		"loaded_at": h.store.LoadedAt(),
	})
}

// Reload re-reads the regime definition file from disk.
func (h *RegimeHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Reload(); err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]any{
		"regimes":   len(h.store.Definitions()),
		"loaded_at": h.store.LoadedAt(),
	})
}
