package web

import (
	"errors"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"os"

	"github.com/imcadom/entregas/internal/imaging"
	"github.com/imcadom/entregas/internal/model"
)

// AttachmentGet handles GET /adjuntos/{id}.
func (s *Server) AttachmentGet(w http.ResponseWriter, r *http.Request) {
	d, f, ok := s.openAttachment(w, r)
	if !ok {
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		slog.Error("failed to stat attachment", "file", d.Attachment, "error", err)
		http.Error(w, "Error interno", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": d.Attachment}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, d.Attachment, info.ModTime(), f)
}

// AttachmentThumbnail handles GET /adjuntos/{id}/miniatura.
func (s *Server) AttachmentThumbnail(w http.ResponseWriter, r *http.Request) {
	d, f, ok := s.openAttachment(w, r)
	if !ok {
		return
	}
	defer f.Close()

	thumb, err := imaging.Thumbnail(f, imaging.ThumbnailDimension)
	if errors.Is(err, imaging.ErrUnsupported) {
		http.Error(w, "El adjunto no es una imagen", http.StatusUnsupportedMediaType)
		return
	}
	if err != nil {
		slog.Warn("failed to render thumbnail", "file", d.Attachment, "error", err)
		http.Error(w, "No se pudo generar la miniatura", http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := w.Write(thumb); err != nil {
		slog.Error("failed to write thumbnail response", "error", err)
	}
}

func (s *Server) openAttachment(w http.ResponseWriter, r *http.Request) (*model.Delivery, *os.File, bool) {
	d, ok := s.loadDelivery(w, r)
	if !ok {
		return nil, nil, false
	}
	if d.Attachment == "" {
		http.Error(w, "La entrega no tiene adjunto", http.StatusNotFound)
		return nil, nil, false
	}

	f, err := s.Files.Open(d.Attachment)
	if errors.Is(err, fs.ErrNotExist) {
		http.Error(w, "Adjunto no encontrado", http.StatusNotFound)
		return nil, nil, false
	}
	if err != nil {
		slog.Error("failed to open attachment", "file", d.Attachment, "error", err)
		http.Error(w, "Error interno", http.StatusInternalServerError)
		return nil, nil, false
	}
	return d, f, true
}
