package handlers

import (
	"net/http"
	"time"

	"getgsa/onboarding/pkg/api/types"
	"getgsa/onboarding/pkg/compliance/rules"
)

// RuleInfo describes one rule of the active pack.
type RuleInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// RulesResponse is the body of GET /api/v1/rules.
type RulesResponse struct {
	Version         string            `json:"version"`
	Threshold       float64           `json:"threshold"`
	MinProjectValue float64           `json:"min_project_value"`
	RecencyMonths   int               `json:"recency_months"`
	NAICSToSIN      map[string]string `json:"naics_to_sin"`
	LoadedAt        time.Time         `json:"loaded_at"`
	Reloads         int64             `json:"reloads"`
	Rules           []RuleInfo        `json:"rules"`
}

// RulesHandler serves GET /api/v1/rules.
type RulesHandler struct {
	registry *rules.Registry
}

// NewRulesHandler creates a rules handler reading the registry on every
// request, so reloads are visible immediately.
func NewRulesHandler(registry *rules.Registry) *RulesHandler {
	return &RulesHandler{registry: registry}
}

// ServeHTTP implements http.Handler.
func (h *RulesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	pack := h.registry.Current()

	resp := RulesResponse{
		Version:         pack.Version,
		Threshold:       pack.Threshold,
		MinProjectValue: pack.MinProjectValue,
		RecencyMonths:   pack.RecencyMonths,
		NAICSToSIN:      pack.NAICSToSIN,
		LoadedAt:        h.registry.LoadedAt().UTC(),
		Reloads:         h.registry.Reloads(),
		Rules:           make([]RuleInfo, 0, len(pack.Rules)),
	}
	for _, rule := range pack.Rules {
		resp.Rules = append(resp.Rules, RuleInfo{
			ID:          rule.ID,
			Title:       rule.Title,
			Description: rule.Description,
		})
	}
	types.WriteJSON(w, http.StatusOK, resp)
}
