// internal/api/handler/api/strategies.go
package api

import (
	"net/http"

	"github.com/newthinker/prism/internal/api/response"
	"github.com/newthinker/prism/internal/strategy"
)

// StrategiesHandler lists the registered strategies.
type StrategiesHandler struct {
	registry *strategy.Registry
}

// NewStrategiesHandler creates a new strategies handler.
func NewStrategiesHandler(registry *strategy.Registry) *StrategiesHandler {
	return &StrategiesHandler{registry: registry}
}

// List returns the registered strategy names and descriptions.
func (h *StrategiesHandler) List(w http.ResponseWriter, r *http.Request) {
	type item struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	var items []item
	for _, name := range h.registry.Names() {
		factory, _ := h.registry.Get(name)
		strat := factory()
		items = append(items, item{Name: strat.Name(), Description: strat.Description()})
	}

	response.JSON(w, http.StatusOK, map[string]any{"strategies": items})
}
