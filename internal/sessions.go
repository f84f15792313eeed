package internal

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/backend"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/models"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/validation"
)

type loginData struct {
	Email string
}

func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, status int, email, message string) {
	s.render(w, r, status, "login.html", pageData{
		Title: "Inloggen",
		Error: message,
		Data:  loginData{Email: email},
	})
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	if _, err := s.Sessions.FromRequest(r); err == nil {
		s.redirect(w, r, "/")
		return
	}
	s.renderLogin(w, r, http.StatusOK, "", "")
}

// login exchanges the submitted credentials for a backend token and stores
// it in the session cookie
func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderLogin(w, r, http.StatusBadRequest, "", "Ongeldig formulier.")
		return
	}
	req := models.LoginRequest{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	if err := s.validate.Struct(req); err != nil {
		s.renderLogin(w, r, http.StatusBadRequest, req.Email, validation.Message(err))
		return
	}

	resp, err := s.Backend.Login(r.Context(), req)
	if err == nil {
		err = s.Backend.WithToken(resp.Token).ValidateToken(r.Context())
	}
	if err != nil {
		s.Logger.Info("login failed", zap.String("email", req.Email), zap.Error(err))
		s.renderLogin(w, r, loginStatus(err), req.Email, backend.UserMessage(err))
		return
	}

	if _, err := s.Sessions.SetCookie(w, models.Session{Token: resp.Token, Email: req.Email}); err != nil {
		s.Logger.Error("issue session", zap.Error(err))
		s.renderLogin(w, r, http.StatusInternalServerError, req.Email, backend.GenericErrorMessage)
		return
	}
	s.Logger.Info("user logged in", zap.String("email", req.Email))
	s.redirect(w, r, "/")
}

// loginStatus passes the backend's client errors on; everything else is a
// gateway failure
func loginStatus(err error) int {
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500 {
		return apiErr.Status
	}
	return http.StatusBadGateway
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	s.Drafts.Reset(sess.ID)
	s.Sessions.ClearCookie(w)
	s.redirect(w, r, "/login")
}

type homeData struct {
	Columns []string
	Rows    []map[string]any
}

// home shows the records of the dummy controller
func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	cols, rows, err := s.Dummy.Rows(r.Context())
	if err != nil {
		if s.abandoned(w, r, err) {
			return
		}
		s.Logger.Warn("home data unavailable", zap.Error(err))
		s.render(w, r, http.StatusOK, "home.html", pageData{
			Title: "Home",
			Error: "De gegevens konden niet worden opgehaald.",
			Data:  homeData{},
		})
		return
	}
	s.render(w, r, http.StatusOK, "home.html", pageData{
		Title: "Home",
		Data:  homeData{Columns: cols, Rows: rows},
	})
}

func (s *Server) about(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "about.html", pageData{Title: "Over"})
}
