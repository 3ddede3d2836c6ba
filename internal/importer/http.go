// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package importer

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/resona/internal/cache"
	"github.com/taibuivan/resona/internal/catalog"
	requestutil "github.com/taibuivan/resona/internal/platform/request"
	"github.com/taibuivan/resona/internal/platform/respond"
	"github.com/taibuivan/resona/internal/platform/validate"
)

// # Handler Implementation

// Handler implements the HTTP layer for collection imports.
type Handler struct {
	service *Service
	store   catalog.Store
	cache   cache.Cache
}

// NewHandler constructs a new import [Handler].
func NewHandler(service *Service, store catalog.Store, regionCache cache.Cache) *Handler {
	return &Handler{service: service, store: store, cache: regionCache}
}

// Routes returns a [chi.Router] configured with the import endpoints.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/{id}/import", handler.importCollection)
	router.Get("/{id}/missing", handler.listMissing)

	return router
}

/*
POST /api/v1/collections/{id}/import.

Description: Parses the collection's stored list data and resolves every
entry against the catalog, rebuilding membership and missing rows.

Request:
  - id: string (Collection UUID)
  - purge: bool (Drop existing membership rows before resolving)

Response:
  - 200: Import summary envelope
  - 404: Collection not found
  - 422: List data cannot be parsed
*/
func (handler *Handler) importCollection(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")
	validator := &validate.Validator{}
	if err := validator.UUID("id", id).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	result := handler.service.ImportCollection(request.Context(), id, requestutil.Flag(request, "purge"))
	respond.Result(writer, request, result)
}

/*
GET /api/v1/collections/{id}/missing.

Description: Lists the entries of the last import that could not be
resolved against the catalog.

Response:
  - 200: []CollectionMissing
  - 404: Collection not found
*/
func (handler *Handler) listMissing(writer http.ResponseWriter, request *http.Request) {
	id := requestutil.ID(request, "id")
	validator := &validate.Validator{}
	if err := validator.UUID("id", id).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// Served through the collection region so an import invalidates it.
	payload, err := handler.cache.GetOrCompute(request.Context(), cache.CollectionRegion(id), "missing",
		func(ctx context.Context) ([]byte, error) {
			collection, err := handler.store.Collections().GetCollectionByExternalID(ctx, id)
			if err != nil {
				return nil, err
			}
			missing, err := handler.store.Collections().ListCollectionMissing(ctx, collection.ID)
			if err != nil {
				return nil, err
			}
			return json.Marshal(missing)
		})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, json.RawMessage(payload))
}
