package main

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/Simplici0/quickestimate/internal/photos"
	"github.com/Simplici0/quickestimate/internal/validation"
)

// multipartMemory is the part of a lead form kept in memory before
// ParseMultipartForm spills file parts to disk.
const multipartMemory = 8 << 20

// maxLeadBody allows every photo at its size limit plus one oversize part,
// so the limit checks below report the problem instead of the body reader.
func (s *server) maxLeadBody() int64 {
	return int64(s.limits.MaxPhotos+1)*s.limits.MaxBytes + 1<<20
}

func formValueOr(r *http.Request, key, fallback string) string {
	if v := r.FormValue(key); v != "" {
		return v
	}
	return fallback
}

// readUploads reads the non-empty "photos" parts of a parsed form.
func readUploads(form *multipart.Form) ([]photos.Upload, error) {
	if form == nil {
		return nil, nil
	}
	var uploads []photos.Upload
	for _, fh := range form.File["photos"] {
		if fh.Size == 0 {
			continue
		}
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close() //nolint:errcheck
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, photos.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}
	return uploads, nil
}

func (s *server) handleCreateLead(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxLeadBody())
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "Lead upload is too large", nil)
			return
		}
		writeError(w, http.StatusBadRequest, "Invalid lead payload", err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	inputs, err := validation.DecodeInputs([]byte(formValueOr(r, "inputs", "{}")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid estimate payload", nil)
		return
	}

	uploads, err := readUploads(r.MultipartForm)
	if err != nil {
		writeFailure(w, r, "Failed to create lead", err)
		return
	}
	if err := s.limits.Check(uploads); err != nil {
		var limitErr *photos.LimitError
		if errors.As(err, &limitErr) {
			writeError(w, http.StatusBadRequest, limitErr.Message, nil)
			return
		}
		writeFailure(w, r, "Failed to create lead", err)
		return
	}

	contact := validation.Contact{
		Name:  r.FormValue("name"),
		Phone: r.FormValue("phone"),
		Email: r.FormValue("email"),
		Zip:   r.FormValue("zip"),
	}
	sub, err := validation.Lead(contact, inputs, []byte(formValueOr(r, "estimate", "{}")))
	if verrs, ok := validation.AsErrors(err); ok {
		writeError(w, http.StatusBadRequest, "Invalid lead payload", verrs)
		return
	}
	if err != nil {
		writeFailure(w, r, "Failed to create lead", err)
		return
	}

	refs, err := photos.SaveAll(r.Context(), s.photos, uploads)
	if err != nil {
		writeFailure(w, r, "Failed to create lead", err)
		return
	}
	sub.Photos = refs

	id, err := s.store.CreateLead(r.Context(), sub)
	if err != nil {
		if cleanupErr := photos.DeleteAll(context.WithoutCancel(r.Context()), s.photos, refs); cleanupErr != nil {
			zap.L().Warn("orphaned lead photos",
				zap.Strings("refs", refs),
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.Error(cleanupErr),
			)
		}
		writeFailure(w, r, "Failed to create lead", err)
		return
	}

	zap.L().Info("lead created",
		zap.Int64("lead_id", id),
		zap.String("project_type", string(sub.Inputs.ProjectType)),
		zap.Float64("estimate_low", sub.Estimate.LowEstimate),
		zap.Float64("estimate_high", sub.Estimate.HighEstimate),
		zap.Int("photos", len(sub.Photos)),
	)
	writeJSON(w, http.StatusOK, map[string]int64{"leadId": id})
}
