// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package batch

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	requestutil "github.com/taibuivan/resona/internal/platform/request"
	"github.com/taibuivan/resona/internal/platform/respond"
)

// # Handler Implementation

// Handler implements the HTTP layer for library-wide maintenance runs.
type Handler struct {
	service *Service
}

// NewHandler constructs a new batch [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns a [chi.Router] configured with the maintenance endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/scan", handler.runLibraryScan)
	router.Post("/collections/refresh", handler.refreshCollections)

	return router
}

/*
POST /api/v1/library/scan.

Description: Scans every top-level artist folder under the library root.
Runs synchronously; large libraries should prefer the CLI driver.

Request:
  - dry_run: bool

Response:
  - 200: Library scan summary envelope
*/
func (handler *Handler) runLibraryScan(writer http.ResponseWriter, request *http.Request) {
	result := handler.service.RunLibraryScan(request.Context(), requestutil.Flag(request, "dry_run"))
	respond.Result(writer, request, result)
}

/*
POST /api/v1/library/collections/refresh.

Description: Re-imports every unlocked collection whose last import is
older than the configured staleness window.

Response:
  - 200: Refresh summary envelope
*/
func (handler *Handler) refreshCollections(writer http.ResponseWriter, request *http.Request) {
	result := handler.service.RefreshStaleCollections(request.Context())
	respond.Result(writer, request, result)
}
