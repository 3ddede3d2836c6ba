// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package scanner

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/resona/internal/catalog"
	requestutil "github.com/taibuivan/resona/internal/platform/request"
	"github.com/taibuivan/resona/internal/platform/respond"
	"github.com/taibuivan/resona/internal/platform/validate"
	"github.com/taibuivan/resona/pkg/pagination"
)

// # Handler Implementation

// Handler implements the HTTP layer for scan operations and their history.
type Handler struct {
	service *Service
	store   catalog.Store
}

// NewHandler constructs a new scan [Handler].
func NewHandler(service *Service, store catalog.Store) *Handler {
	return &Handler{service: service, store: store}
}

// Routes returns a [chi.Router] configured with the scan endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/releases/{id}", handler.scanRelease)
	router.Post("/artists/{id}", handler.scanArtist)
	router.Get("/history", handler.listHistory)

	return router
}

/*
POST /api/v1/scans/releases/{id}.

Description: Reconciles one release's folder against its catalog rows.

Request:
  - id: string (Release UUID)
  - dry_run: bool (Report changes without applying them)

Response:
  - 200: Scan summary envelope
  - 404: Release not found
  - 409: Release is locked by a concurrent operation
*/
func (handler *Handler) scanRelease(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")
	validator := &validate.Validator{}
	if err := validator.UUID("id", id).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result := handler.service.ScanRelease(request.Context(), id, requestutil.Flag(request, "dry_run"))
	respond.Result(writer, request, result)
}

/*
POST /api/v1/scans/artists/{id}.

Description: Scans every known release folder of an artist and discovers
folders without a catalog row.

Request:
  - id: string (Artist UUID)
  - dry_run: bool

Response:
  - 200: Scan summary envelope
  - 404: Artist not found
*/
func (handler *Handler) scanArtist(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")
	validator := &validate.Validator{}
	if err := validator.UUID("id", id).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result := handler.service.ScanArtistFolders(request.Context(), id, requestutil.Flag(request, "dry_run"))
	respond.Result(writer, request, result)
}

/*
GET /api/v1/scans/history.

Description: Lists past scan invocations, newest first.

Request:
  - page: int
  - limit: int

Response:
  - 200: []ScanHistory: Paginated history rows
*/
func (handler *Handler) listHistory(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	rows, total, err := handler.store.History().ListScanHistory(request.Context(), params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, rows, pagination.NewMeta(params.Page, params.Limit, total))
}
