package main

import (
	"bytes"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/Simplici0/quickestimate/internal/export"
	"github.com/Simplici0/quickestimate/internal/lead"
	"github.com/Simplici0/quickestimate/internal/pricing"
	"github.com/Simplici0/quickestimate/internal/store"
	"github.com/Simplici0/quickestimate/internal/validation"
)

func (s *server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.currentSettings(r.Context())
	if err != nil {
		writeFailure(w, r, "Failed to load settings", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]pricing.Settings{"settings": settings})
}

func (s *server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid settings payload", err.Error())
		return
	}

	settings, err := validation.DecodeSettings(body)
	if verrs, ok := validation.AsErrors(err); ok {
		writeError(w, http.StatusBadRequest, "Invalid settings payload", verrs)
		return
	}
	if err != nil {
		writeFailure(w, r, "Failed to update settings", err)
		return
	}

	if err := s.store.ReplaceSettings(r.Context(), settings); err != nil {
		writeFailure(w, r, "Failed to update settings", err)
		return
	}
	zap.L().Info("pricing settings updated",
		zap.Float64("labor_rate_per_hour", settings.LaborRatePerHour),
		zap.Float64("low_factor", settings.LowFactor),
		zap.Float64("high_factor", settings.HighFactor),
	)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *server) handleResetSettings(w http.ResponseWriter, r *http.Request) {
	defaults := pricing.DefaultSettings()
	if err := s.store.ReplaceSettings(r.Context(), defaults); err != nil {
		writeFailure(w, r, "Failed to reset settings", err)
		return
	}
	zap.L().Info("pricing settings reset to defaults")
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "settings": defaults})
}

// queryInt parses a non-negative integer query parameter; absent means 0.
func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, eris.Errorf("%s must be a non-negative integer", key)
	}
	return n, nil
}

func (s *server) handleListLeads(w http.ResponseWriter, r *http.Request) {
	filter := store.LeadFilter{ProjectType: r.URL.Query().Get("projectType")}
	if filter.ProjectType != "" && !pricing.ProjectType(filter.ProjectType).Valid() {
		writeError(w, http.StatusBadRequest, "Invalid project type", filter.ProjectType)
		return
	}

	var err error
	if filter.Limit, err = queryInt(r, "limit"); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query", err.Error())
		return
	}
	if filter.Offset, err = queryInt(r, "offset"); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query", err.Error())
		return
	}

	leads, err := s.store.ListLeads(r.Context(), filter)
	if err != nil {
		writeFailure(w, r, "Failed to list leads", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": leads})
}

func (s *server) handleGetLead(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid lead id", nil)
		return
	}

	rec, err := s.store.GetLead(r.Context(), id)
	if eris.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Lead not found", nil)
		return
	}
	if err != nil {
		writeFailure(w, r, "Failed to load lead", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lead": rec})
}

func (s *server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	s.writeExport(w, r, "csv", export.CSVContentType, export.WriteCSV)
}

func (s *server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	s.writeExport(w, r, "xlsx", export.XLSXContentType, export.WriteXLSX)
}

// writeExport renders every lead into a buffer first so a failure can
// still be reported as JSON.
func (s *server) writeExport(
	w http.ResponseWriter,
	r *http.Request,
	ext, contentType string,
	render func(io.Writer, []lead.Record) error,
) {
	records, err := s.store.ListLeadRecords(r.Context())
	if err != nil {
		writeFailure(w, r, "Failed to export leads", err)
		return
	}

	var buf bytes.Buffer
	if err := render(&buf, records); err != nil {
		writeFailure(w, r, "Failed to export leads", err)
		return
	}

	filename := export.Filename(s.exportPrefix, s.now(), ext)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		zap.L().Debug("write export", zap.Error(err))
	}
	zap.L().Info("leads exported", zap.String("format", ext), zap.Int("leads", len(records)))
}
