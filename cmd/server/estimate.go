package main

import (
	"context"
	"io"
	"net/http"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Simplici0/quickestimate/internal/pricing"
	"github.com/Simplici0/quickestimate/internal/store"
	"github.com/Simplici0/quickestimate/internal/validation"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

type projectTypeInfo struct {
	Name           pricing.ProjectType `json:"name"`
	Measurement    pricing.Dimension   `json:"measurement"`
	RequiredFields []pricing.Dimension `json:"requiredFields"`
}

func (s *server) handleProjectTypes(w http.ResponseWriter, r *http.Request) {
	types := make([]projectTypeInfo, 0, len(pricing.ProjectTypes))
	for _, p := range pricing.ProjectTypes {
		types = append(types, projectTypeInfo{
			Name:           p,
			Measurement:    pricing.MeasurementFor(p),
			RequiredFields: pricing.RequiredFields(p),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"projectTypes":     types,
		"complexityLevels": pricing.ComplexityLevels,
	})
}

func (s *server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid estimate inputs", err.Error())
		return
	}

	inputs, err := validation.DecodeInputs(body)
	if verrs, ok := validation.AsErrors(err); ok {
		writeError(w, http.StatusBadRequest, "Invalid estimate inputs", verrs)
		return
	}
	if err != nil {
		writeFailure(w, r, "Failed to calculate estimate", err)
		return
	}

	settings, err := s.currentSettings(r.Context())
	if err != nil {
		writeFailure(w, r, "Failed to calculate estimate", err)
		return
	}

	estimate := pricing.Calculate(inputs, settings)
	if !estimate.Finite() {
		writeError(w, http.StatusBadRequest, "Invalid estimate inputs", "Dimensions are too large to estimate")
		return
	}
	writeJSON(w, http.StatusOK, map[string]pricing.Result{"estimate": estimate})
}

// currentSettings reads the pricing settings, writing the defaults first
// if the record was never seeded.
func (s *server) currentSettings(ctx context.Context) (pricing.Settings, error) {
	settings, err := s.store.GetSettings(ctx)
	if eris.Is(err, store.ErrNotFound) {
		defaults := pricing.DefaultSettings()
		if _, err := s.store.EnsureSettings(ctx, defaults); err != nil {
			return pricing.Settings{}, err
		}
		zap.L().Warn("pricing settings missing, defaults restored")
		return s.store.GetSettings(ctx)
	}
	return settings, err
}
