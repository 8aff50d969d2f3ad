// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/olegiv/eventbot/internal/imaging"
)

// PhotoProcessor normalizes and stores an uploaded image.
type PhotoProcessor interface {
	Process(r io.Reader) (imaging.Photo, error)
}

// PhotosHandler accepts photo uploads and returns the reference to pass
// back in a photo update.
type PhotosHandler struct {
	processor PhotoProcessor
	logger    *slog.Logger
}

// NewPhotosHandler creates a photos handler.
func NewPhotosHandler(p PhotoProcessor, logger *slog.Logger) *PhotosHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &PhotosHandler{processor: p, logger: logger}
}

// PhotoResponse is returned for a stored photo.
type PhotoResponse struct {
	Photo  string `json:"photo"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// Upload handles POST /api/v1/photos?user_id=<id> with a multipart "photo" field.
func (h *PhotosHandler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)
	if err != nil || userID <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_user", "user_id query parameter is required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoBytes)
	if err := r.ParseMultipartForm(maxPhotoBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "too_large", "Photo is too large")
			return
		}
		writeJSONError(w, http.StatusBadRequest, "invalid_form", "Expected multipart form data")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, _, err := r.FormFile("photo")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "missing_photo", "photo field is required")
		return
	}
	defer func() { _ = file.Close() }()

	photo, err := h.processor.Process(file)
	switch {
	case errors.Is(err, imaging.ErrUnsupportedFormat):
		writeJSONError(w, http.StatusUnsupportedMediaType, "unsupported_format", "Supported formats: JPEG, PNG, GIF, WebP")
		return
	case errors.Is(err, imaging.ErrInvalidImage):
		writeJSONError(w, http.StatusBadRequest, "invalid_image", "Image could not be decoded")
		return
	case err != nil:
		h.logger.Error("storing photo failed", "user_id", userID, "error", err)
		writeInternalError(w)
		return
	}

	h.logger.Info("photo stored",
		"user_id", userID,
		"photo", photo.Ref,
		"width", photo.Width,
		"height", photo.Height,
		"size", photo.Size,
	)
	writeJSON(w, http.StatusCreated, PhotoResponse{Photo: photo.Ref, Width: photo.Width, Height: photo.Height})
}
