package api

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/imcadom/entregas/internal/auth"
	"github.com/imcadom/entregas/internal/model"
	"github.com/imcadom/entregas/internal/store"
)

// DeliveriesHandler exposes the delivery records read-mostly over JSON.
type DeliveriesHandler struct {
	DB *sql.DB
}

// ListActive handles GET /api/entregas?fecha=&busqueda=.
func (h *DeliveriesHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.ActiveFilter{DatePrefix: q.Get("fecha"), Search: q.Get("busqueda")}

	deliveries, err := store.FindActive(r.Context(), h.DB, filter)
	if err != nil {
		slog.Error("failed to list active deliveries", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list deliveries")
		return
	}
	jsonResponse(w, http.StatusOK, nonNil(deliveries))
}

// ListReturned handles GET /api/devueltos.
func (h *DeliveriesHandler) ListReturned(w http.ResponseWriter, r *http.Request) {
	deliveries, err := store.FindReturned(r.Context(), h.DB)
	if err != nil {
		slog.Error("failed to list returned deliveries", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list deliveries")
		return
	}
	jsonResponse(w, http.StatusOK, nonNil(deliveries))
}

// Get handles GET /api/entregas/{id}.
func (h *DeliveriesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid id")
		return
	}

	d, err := store.FindDelivery(r.Context(), h.DB, id)
	if errors.Is(err, model.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "delivery not found")
		return
	}
	if err != nil {
		slog.Error("failed to get delivery", "delivery", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
		return
	}
	jsonResponse(w, http.StatusOK, d)
}

// Return handles POST /api/entregas/{id}/devolver.
func (h *DeliveriesHandler) Return(w http.ResponseWriter, r *http.Request) {
	caller := auth.IdentityFrom(r.Context())
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid id")
		return
	}

	d, err := store.MarkReturned(r.Context(), h.DB, id)
	if errors.Is(err, model.ErrNotFound) {
		jsonError(w, http.StatusNotFound, "delivery not found")
		return
	}
	if err != nil {
		slog.Error("failed to mark delivery returned", "delivery", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to mark delivery returned")
		return
	}

	slog.Info("delivery returned", "user", caller.Login, "delivery", d.ID, "via", "api")
	jsonResponse(w, http.StatusOK, d)
}

// nonNil keeps empty lists encoding as [] rather than null.
func nonNil(deliveries []model.Delivery) []model.Delivery {
	if deliveries == nil {
		return []model.Delivery{}
	}
	return deliveries
}
