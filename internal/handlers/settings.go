package handlers

import (
	"net/http"

	"video-shelf/internal/search"
)

// SettingsBody holds the persisted preferences.
type SettingsBody struct {
	Sensitivity *float64      `json:"sensitivity,omitempty"`
	Order       *search.Order `json:"order,omitempty"`
}

// GetSettings returns the title sensitivity and sort order.
func (h *Handlers) GetSettings(w http.ResponseWriter, _ *http.Request) {
	sensitivity, order := h.session.Sensitivity(), h.session.Order()
	respondJSON(w, http.StatusOK, SettingsBody{Sensitivity: &sensitivity, Order: &order})
}

// PutSettings updates the given fields. Sensitivity is clamped to [0, 1].
func (h *Handlers) PutSettings(w http.ResponseWriter, r *http.Request) {
	var body SettingsBody
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Sensitivity != nil {
		h.session.SetSensitivity(*body.Sensitivity)
	}
	if body.Order != nil {
		h.session.SetOrder(*body.Order)
	}
	h.GetSettings(w, r)
}
