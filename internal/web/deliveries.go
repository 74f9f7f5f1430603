package web

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/imcadom/entregas/internal/auth"
	"github.com/imcadom/entregas/internal/export"
	"github.com/imcadom/entregas/internal/model"
	"github.com/imcadom/entregas/internal/store"
)

// MaxUploadBytes limits the size of a delivery form including its attachment.
const MaxUploadBytes = 32 << 20

// Index handles GET and POST / (active deliveries with optional filters).
func (s *Server) Index(w http.ResponseWriter, r *http.Request) {
	filter := model.ActiveFilter{
		DatePrefix: r.FormValue("fecha"),
		Search:     r.FormValue("busqueda"),
	}

	data := s.page(w, r, "Entregas activas")
	deliveries, err := store.FindActive(r.Context(), s.DB, filter)
	if err != nil {
		slog.Error("failed to list active deliveries", "error", err)
		data.Flash = &Flash{Kind: FlashDanger, Message: "No se pudieron cargar las entregas."}
	}

	s.Templates.Render(w, "index.html", &struct {
		PageData
		Filter     model.ActiveFilter
		Deliveries []model.Delivery
	}{
		PageData:   data,
		Filter:     filter,
		Deliveries: deliveries,
	})
}

// Save handles POST /guardar. The attachment, if any, is written before the
// row is inserted so that a failed upload never leaves a record behind.
func (s *Server) Save(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFrom(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		slog.Warn("invalid delivery form", "user", id.Login, "error", err)
		redirectFlash(w, r, "/", FlashDanger, "No se pudo procesar el formulario o el archivo es demasiado grande.")
		return
	}

	fields := deliveryFields(r)
	if err := fields.Validate(); err != nil {
		slog.Warn("delivery rejected", "user", id.Login, "error", err)
		redirectFlash(w, r, "/", FlashDanger, "Complete los campos obligatorios: equipo, tipo y persona.")
		return
	}

	var attachment string
	file, header, err := r.FormFile("archivo")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	case err != nil:
		slog.Warn("failed to read attachment", "user", id.Login, "error", err)
		redirectFlash(w, r, "/", FlashDanger, "No se pudo leer el archivo adjunto.")
		return
	default:
		defer file.Close()
		attachment, err = s.Files.Save(header.Filename, file)
		if err != nil {
			slog.Error("failed to store attachment", "user", id.Login, "file", header.Filename, "error", err)
			redirectFlash(w, r, "/", FlashDanger, "No se pudo guardar el archivo adjunto. La entrega no fue registrada.")
			return
		}
	}

	d, err := store.InsertDelivery(r.Context(), s.DB, fields, attachment)
	if err != nil {
		slog.Error("failed to create delivery", "user", id.Login, "error", err)
		if attachment != "" {
			slog.Warn("attachment stored without a delivery", "file", attachment)
		}
		redirectFlash(w, r, "/", FlashDanger, "No se pudo registrar la entrega.")
		return
	}

	slog.Info("delivery created", "user", id.Login, "delivery", d.ID,
		"equipment", d.EquipmentName, "recipient", d.RecipientName, "attachment", d.Attachment)
	redirectFlash(w, r, "/", FlashSuccess, "Entrega registrada exitosamente")
}

// Edit handles GET /editar/{id}.
func (s *Server) Edit(w http.ResponseWriter, r *http.Request) {
	d, ok := s.loadDelivery(w, r)
	if !ok {
		return
	}

	s.Templates.Render(w, "edit.html", &struct {
		PageData
		Delivery *model.Delivery
	}{
		PageData: s.page(w, r, "Editar entrega"),
		Delivery: d,
	})
}

// Update handles POST /actualizar/{id}.
func (s *Server) Update(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFrom(r.Context())
	deliveryID, ok := pathID(w, r)
	if !ok {
		return
	}

	fields := deliveryFields(r)
	if err := fields.Validate(); err != nil {
		slog.Warn("delivery update rejected", "user", id.Login, "delivery", deliveryID, "error", err)
		redirectFlash(w, r, fmt.Sprintf("/editar/%d", deliveryID), FlashDanger,
			"Complete los campos obligatorios: equipo, tipo y persona.")
		return
	}

	d, err := store.UpdateDelivery(r.Context(), s.DB, deliveryID, fields)
	if err != nil {
		s.mutationFailed(w, r, "update delivery", err)
		return
	}

	slog.Info("delivery updated", "user", id.Login, "delivery", d.ID)
	redirectFlash(w, r, "/", FlashInfo, "Entrega actualizada correctamente")
}

// Delete handles GET /eliminar/{id}. The attachment file is kept on disk.
func (s *Server) Delete(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFrom(r.Context())
	deliveryID, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := store.DeleteDelivery(r.Context(), s.DB, deliveryID); err != nil {
		s.mutationFailed(w, r, "delete delivery", err)
		return
	}

	slog.Info("delivery deleted", "user", id.Login, "delivery", deliveryID)
	redirectFlash(w, r, "/", FlashInfo, "Entrega eliminada")
}

// Return handles GET /devolver/{id}.
func (s *Server) Return(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFrom(r.Context())
	deliveryID, ok := pathID(w, r)
	if !ok {
		return
	}

	d, err := store.MarkReturned(r.Context(), s.DB, deliveryID)
	if err != nil {
		s.mutationFailed(w, r, "mark delivery returned", err)
		return
	}

	slog.Info("delivery returned", "user", id.Login, "delivery", d.ID, "returned_at", d.ReturnedAt)
	redirectFlash(w, r, "/", FlashSuccess, "Entrega marcada como devuelta")
}

// Returned handles GET /devueltos.
func (s *Server) Returned(w http.ResponseWriter, r *http.Request) {
	data := s.page(w, r, "Equipos devueltos")
	deliveries, err := store.FindReturned(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to list returned deliveries", "error", err)
		data.Flash = &Flash{Kind: FlashDanger, Message: "No se pudieron cargar las devoluciones."}
	}

	s.Templates.Render(w, "returned.html", &struct {
		PageData
		Deliveries []model.Delivery
	}{
		PageData:   data,
		Deliveries: deliveries,
	})
}

// Export handles GET /exportar.
func (s *Server) Export(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFrom(r.Context())

	deliveries, err := store.FindAll(r.Context(), s.DB)
	if err != nil {
		slog.Error("failed to load deliveries for export", "error", err)
		redirectFlash(w, r, "/", FlashDanger, "No se pudo generar el archivo de exportación.")
		return
	}

	// Buffered so a failure can still be reported as a redirect.
	var buf bytes.Buffer
	if err := export.WriteDeliveries(&buf, deliveries); err != nil {
		slog.Error("failed to write export", "error", err)
		redirectFlash(w, r, "/", FlashDanger, "No se pudo generar el archivo de exportación.")
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": export.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("failed to send export", "error", err)
		return
	}
	slog.Info("deliveries exported", "user", id.Login, "rows", len(deliveries))
}

func deliveryFields(r *http.Request) model.DeliveryFields {
	return model.DeliveryFields{
		EquipmentName: r.FormValue("equipo"),
		EquipmentType: r.FormValue("tipo_equipo"),
		IMEI:          r.FormValue("imei"),
		RecipientName: r.FormValue("persona"),
		Notes:         r.FormValue("observaciones"),
	}
}

// pathID parses the {id} path value. Malformed ids are answered with 404,
// the same as ids that do not exist.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		notFound(w)
		return 0, false
	}
	return id, true
}

// loadDelivery fetches the delivery named by the {id} path value, answering
// the request itself when that fails.
func (s *Server) loadDelivery(w http.ResponseWriter, r *http.Request) (*model.Delivery, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return nil, false
	}

	d, err := store.FindDelivery(r.Context(), s.DB, id)
	if errors.Is(err, model.ErrNotFound) {
		notFound(w)
		return nil, false
	}
	if err != nil {
		slog.Error("failed to get delivery", "delivery", id, "error", err)
		http.Error(w, "Error interno", http.StatusInternalServerError)
		return nil, false
	}
	return d, true
}

func (s *Server) mutationFailed(w http.ResponseWriter, r *http.Request, action string, err error) {
	if errors.Is(err, model.ErrNotFound) {
		notFound(w)
		return
	}
	slog.Error("failed to "+action, "error", err)
	redirectFlash(w, r, "/", FlashDanger, "La operación no se pudo completar.")
}

func notFound(w http.ResponseWriter) {
	http.Error(w, "Entrega no encontrada", http.StatusNotFound)
}
