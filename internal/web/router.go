package web

import (
	"database/sql"
	"net/http"

	"github.com/imcadom/entregas/internal/attachments"
	webembed "github.com/imcadom/entregas/web"
)

// NewRouter creates the web page router with all page routes registered.
func NewRouter(db *sql.DB, secret string, files *attachments.Store) (http.Handler, error) {
	templates, err := LoadTemplates()
	if err != nil {
		return nil, err
	}

	s := &Server{
		DB:        db,
		Templates: templates,
		Secret:    secret,
		Files:     files,
	}

	mux := http.NewServeMux()
	session := RequireSession(secret, db)

	// Static assets.
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(webembed.StaticFS()))))

	// Public routes.
	mux.HandleFunc("GET /login", s.LoginPage)
	mux.HandleFunc("POST /login", s.LoginSubmit)
	mux.HandleFunc("GET /registrar", s.RegisterPage)
	mux.HandleFunc("POST /registrar", s.RegisterSubmit)

	// Authenticated routes.
	mux.Handle("GET /logout", session(http.HandlerFunc(s.Logout)))

	mux.Handle("GET /{$}", session(http.HandlerFunc(s.Index)))
	mux.Handle("POST /{$}", session(http.HandlerFunc(s.Index)))
	mux.Handle("POST /guardar", session(http.HandlerFunc(s.Save)))
	mux.Handle("GET /editar/{id}", session(http.HandlerFunc(s.Edit)))
	mux.Handle("POST /actualizar/{id}", session(http.HandlerFunc(s.Update)))
	mux.Handle("GET /eliminar/{id}", session(http.HandlerFunc(s.Delete)))
	mux.Handle("GET /devolver/{id}", session(http.HandlerFunc(s.Return)))
	mux.Handle("GET /devueltos", session(http.HandlerFunc(s.Returned)))
	mux.Handle("GET /exportar", session(http.HandlerFunc(s.Export)))

	mux.Handle("GET /adjuntos/{id}", session(http.HandlerFunc(s.AttachmentGet)))
	mux.Handle("GET /adjuntos/{id}/miniatura", session(http.HandlerFunc(s.AttachmentThumbnail)))

	return mux, nil
}
