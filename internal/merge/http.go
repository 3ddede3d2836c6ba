// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package merge

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/resona/internal/platform/request"
	"github.com/taibuivan/resona/internal/platform/respond"
	"github.com/taibuivan/resona/internal/platform/validate"
)

// # Handler Implementation

// Handler implements the HTTP layer for merge operations.
type Handler struct {
	service *Service
}

// NewHandler constructs a new merge [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with the merge endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/artists", handler.mergeArtists)
	router.Post("/releases", handler.mergeReleases)

	return router
}

// # Request Payloads

// mergeArtistsRequest defines the inbound JSON schema for an artist merge.
type mergeArtistsRequest struct {
	SourceID string `json:"source_id"`
	DestID   string `json:"dest_id"`
}

// mergeReleasesRequest defines the inbound JSON schema for a release merge.
type mergeReleasesRequest struct {
	SourceID string `json:"source_id"`
	DestID   string `json:"dest_id"`

	// AddAsMedia appends the source discs after the destination's instead of
	// collapsing discs by number.
	AddAsMedia bool `json:"add_as_media"`
}

/*
POST /api/v1/merges/artists.

Description: Folds the source artist into the destination: releases,
track credits, ratings and playlist entries move over, then the source
is deleted and the destination rescanned.

Request:
  - source_id: string (Artist UUID)
  - dest_id: string (Artist UUID)

Response:
  - 200: Merge summary envelope
  - 400: Source and destination are the same artist
  - 404: Either artist not found
*/
func (handler *Handler) mergeArtists(writer http.ResponseWriter, request *http.Request) {
	var payload mergeArtistsRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.UUID("source_id", payload.SourceID)
	validator.UUID("dest_id", payload.DestID)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result := handler.service.MergeArtists(request.Context(), payload.SourceID, payload.DestID)
	respond.Result(writer, request, result)
}

/*
POST /api/v1/merges/releases.

Description: Folds the source release into the destination, either
appending its discs (add_as_media) or collapsing discs by number.

Request:
  - source_id: string (Release UUID)
  - dest_id: string (Release UUID)
  - add_as_media: bool

Response:
  - 200: Merge summary envelope
  - 400: Source and destination are the same release
  - 404: Either release not found
*/
func (handler *Handler) mergeReleases(writer http.ResponseWriter, request *http.Request) {
	var payload mergeReleasesRequest
	if err := requestutil.DecodeJSON(request, &payload); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.UUID("source_id", payload.SourceID)
	validator.UUID("dest_id", payload.DestID)
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result := handler.service.MergeReleases(request.Context(), payload.SourceID, payload.DestID, payload.AddAsMedia)
	respond.Result(writer, request, result)
}
