package internal

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"

	"go.uber.org/zap"

	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/models"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/notify"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/views"
)

//go:embed templates static
var assets embed.FS

// Page templates, each rendered inside layout.html
var pageFiles = []string{
	"login.html",
	"home.html",
	"about.html",
	"devices.html",
	"device_edit.html",
	"device_new.html",
	"device_import.html",
	"borrow_status.html",
	"borrow_detail.html",
	"borrow_request.html",
	"confirm.html",
	"error.html",
}

var templateFuncs = template.FuncMap{
	"specsSummary": views.SpecsSummary,
	"dataTypes":    func() []models.DataType { return models.DataTypes },
	"deviceTypes":  func() []string { return models.DeviceTypes },
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageFiles))
	for _, name := range pageFiles {
		t, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(assets,
			"templates/layout.html",
			"templates/partials.html",
			"templates/"+name,
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

func staticFS() fs.FS {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// pageData is what every template receives
type pageData struct {
	Title   string
	Session models.Session
	Toasts  []notify.Toast
	Error   string
	Data    any
}

// render executes page with data and the pending toasts of the session.
// The page is buffered so a template error never leaves half a page behind.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page string, pd pageData) {
	t, ok := s.pages[page]
	if !ok {
		s.Logger.Error("unknown page template", zap.String("page", page))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	pd.Session = session(r)
	if pd.Session.ID != "" {
		pd.Toasts = s.Toasts.Drain(pd.Session.ID)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", pd); err != nil {
		s.Logger.Error("render page", zap.String("page", page), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// renderError shows a page with only a message
func (s *Server) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	s.render(w, r, status, "error.html", pageData{Title: http.StatusText(status), Error: message})
}

// confirmation asks the user to repeat a destructive POST with confirm=yes
type confirmation struct {
	Question string
	Action   string
	Cancel   string
}

func (s *Server) renderConfirm(w http.ResponseWriter, r *http.Request, c confirmation) {
	s.render(w, r, http.StatusOK, "confirm.html", pageData{Title: "Bevestigen", Data: c})
}
