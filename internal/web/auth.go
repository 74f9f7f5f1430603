package web

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/imcadom/entregas/internal/auth"
	"github.com/imcadom/entregas/internal/model"
	"github.com/imcadom/entregas/internal/store"
)

// LoginPage handles GET /login.
func (s *Server) LoginPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "login.html", s.page(w, r, "Iniciar sesión"))
}

// LoginSubmit handles POST /login.
func (s *Server) LoginSubmit(w http.ResponseWriter, r *http.Request) {
	login := r.FormValue("usuario")
	password := r.FormValue("contrasena")

	data := s.page(w, r, "Iniciar sesión")
	if login == "" || password == "" {
		data.Flash = &Flash{Kind: FlashDanger, Message: "Ingrese usuario y contraseña."}
		s.Templates.Render(w, "login.html", data)
		return
	}

	user, err := auth.Verify(r.Context(), s.DB, login, password)
	if errors.Is(err, model.ErrInvalidCredentials) {
		slog.Warn("login failed", "login", login, "remote", r.RemoteAddr)
		data.Flash = &Flash{Kind: FlashDanger, Message: "Usuario o contraseña incorrectos"}
		s.Templates.Render(w, "login.html", data)
		return
	}
	if err != nil {
		slog.Error("failed to verify credentials", "error", err)
		data.Flash = &Flash{Kind: FlashDanger, Message: "Error al iniciar sesión."}
		s.Templates.Render(w, "login.html", data)
		return
	}

	token, err := auth.GenerateToken(s.Secret, user)
	if err != nil {
		slog.Error("failed to generate session token", "error", err)
		data.Flash = &Flash{Kind: FlashDanger, Message: "Error al iniciar sesión."}
		s.Templates.Render(w, "login.html", data)
		return
	}

	setAuthCookie(w, token)
	slog.Info("user logged in", "user", user.Login)
	redirectFlash(w, r, "/", FlashSuccess, "Sesión iniciada correctamente")
}

// Logout handles GET /logout.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFrom(r.Context())
	if err := store.RevokeToken(r.Context(), s.DB, id.SessionID, id.ExpiresAt); err != nil {
		// Clearing only the cookie would leave the token usable until it expires.
		slog.Error("failed to revoke session", "user", id.Login, "error", err)
		redirectFlash(w, r, "/", FlashDanger, "No se pudo cerrar la sesión. Intente de nuevo.")
		return
	}

	clearAuthCookie(w)
	slog.Info("user logged out", "user", id.Login)
	redirectFlash(w, r, "/login", FlashInfo, "Sesión cerrada")
}

// RegisterPage handles GET /registrar.
func (s *Server) RegisterPage(w http.ResponseWriter, r *http.Request) {
	s.Templates.Render(w, "register.html", s.page(w, r, "Registrar usuario"))
}

// RegisterSubmit handles POST /registrar. Registration is open to anyone.
func (s *Server) RegisterSubmit(w http.ResponseWriter, r *http.Request) {
	name := r.FormValue("nombre")
	login := r.FormValue("usuario")
	password := r.FormValue("contrasena")

	data := s.page(w, r, "Registrar usuario")

	user, err := auth.Register(r.Context(), s.DB, name, login, password)
	var verr *model.ValidationError
	switch {
	case errors.As(err, &verr):
		data.Flash = &Flash{Kind: FlashDanger, Message: "Complete todos los campos."}
		s.Templates.Render(w, "register.html", data)
		return
	case errors.Is(err, model.ErrDuplicateLogin):
		data.Flash = &Flash{Kind: FlashDanger, Message: "Ese nombre de usuario ya está registrado"}
		s.Templates.Render(w, "register.html", data)
		return
	case err != nil:
		slog.Error("failed to register user", "login", login, "error", err)
		data.Flash = &Flash{Kind: FlashDanger, Message: "No se pudo registrar el usuario."}
		s.Templates.Render(w, "register.html", data)
		return
	}

	slog.Info("user registered", "user", user.Login)
	redirectFlash(w, r, "/login", FlashSuccess, "Usuario registrado. Inicie sesión.")
}
