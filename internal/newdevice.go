package internal

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/backend"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/form"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/handlers"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/models"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/pkg/importer"
)

const newDevicePath = "/devices/new"

type newDeviceData struct {
	Form  form.DeviceForm
	Known []models.SpecDefinition
}

// newDevicePage shows the session's draft with the spec catalog
func (s *Server) newDevicePage(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	draft := s.Drafts.Get(sess.ID)

	status := http.StatusOK
	var message string
	defs, err := s.Backend.ForSession(sess).ListSpecs(r.Context())
	if err != nil {
		if s.abandoned(w, r, err) {
			return
		}
		status, message = http.StatusBadGateway, backend.UserMessage(err)
	}

	s.render(w, r, status, "device_new.html", pageData{
		Title: "Apparaat toevoegen",
		Error: message,
		Data: newDeviceData{
			Form:  draft.Form,
			Known: draft.Known(defs).List(),
		},
	})
}

// updateNewDevice stores the posted fields and spec selection in the draft.
// With op=submit the draft is then sent to the backend.
func (s *Server) updateNewDevice(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	if err := r.ParseForm(); err != nil {
		s.Toasts.Error(sess.ID, "Ongeldig formulier.")
		s.redirect(w, r, newDevicePath)
		return
	}

	// Select drops names missing from the catalog, so it needs all of it
	defs, err := s.Backend.ForSession(sess).ListSpecs(r.Context())
	if err != nil {
		if s.abandoned(w, r, err) {
			return
		}
		s.Toasts.Error(sess.ID, backend.UserMessage(err))
		s.redirect(w, r, newDevicePath)
		return
	}

	draft := s.Drafts.Get(sess.ID)
	for _, name := range form.FieldNames {
		if _, ok := r.PostForm[name]; ok {
			_ = draft.Form.Set(name, strings.TrimSpace(r.PostFormValue(name)))
		}
	}
	draft.Form.Specs.Select(r.PostForm["selected"], draft.Known(defs))
	for _, name := range draft.Form.Specs.Names() {
		if v, ok := r.PostForm["spec:"+name]; ok && len(v) > 0 {
			draft.Form.Specs.SetValue(name, strings.TrimSpace(v[0]))
		}
	}
	s.Drafts.Put(sess.ID, draft)

	if r.PostFormValue("op") != "submit" {
		s.redirect(w, r, newDevicePath)
		return
	}

	if _, err := s.Actions.CreateDevice(r.Context(), sess, draft.Form, nil); err != nil {
		if s.abandoned(w, r, err) {
			return
		}
		s.redirect(w, r, newDevicePath)
		return
	}
	s.redirect(w, r, "/devices")
}

// addSpecDefinition adds a spec name to the session's catalog. It is not
// sent to the backend until a device uses it.
func (s *Server) addSpecDefinition(w http.ResponseWriter, r *http.Request) {
	sess := session(r)

	dt, err := models.ParseDataType(r.PostFormValue("dataType"))
	if err != nil {
		s.Toasts.Error(sess.ID, "Kies een geldig gegevenstype.")
		s.redirect(w, r, newDevicePath)
		return
	}
	defs, err := s.Backend.ForSession(sess).ListSpecs(r.Context())
	if err != nil {
		if s.abandoned(w, r, err) {
			return
		}
		s.Toasts.Error(sess.ID, backend.UserMessage(err))
		s.redirect(w, r, newDevicePath)
		return
	}

	draft := s.Drafts.Get(sess.ID)
	def := models.SpecDefinition{SpecName: r.PostFormValue("specName"), DataType: dt}
	if err := draft.AddSpec(defs, def); err != nil {
		s.Toasts.Error(sess.ID, form.Message(err))
	} else {
		s.Drafts.Put(sess.ID, draft)
		s.Toasts.Success(sess.ID, form.MsgSpecAdded)
	}
	s.redirect(w, r, newDevicePath)
}

func (s *Server) resetNewDevice(w http.ResponseWriter, r *http.Request) {
	s.Drafts.ClearForm(session(r).ID)
	s.redirect(w, r, newDevicePath)
}

type importData struct {
	Summary *importer.ImportSummary
}

func (s *Server) importPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "device_import.html", pageData{
		Title: "Apparaten importeren",
		Data:  importData{},
	})
}

// importDevices runs an uploaded workbook through the importer and shows
// the summary
func (s *Server) importDevices(w http.ResponseWriter, r *http.Request) {
	sess := session(r)
	sum, err := s.Imports.Import(w, r)

	var reqErr *handlers.RequestError
	switch {
	case errors.As(err, &reqErr):
		s.render(w, r, reqErr.Status, "device_import.html", pageData{
			Title: "Apparaten importeren",
			Error: reqErr.Message,
			Data:  importData{},
		})
		return
	case err != nil:
		if s.abandoned(w, r, err) {
			return
		}
		s.Logger.Warn("device import stopped", zap.Error(err), zap.Int("created", sum.Created))
		s.render(w, r, http.StatusUnprocessableEntity, "device_import.html", pageData{
			Title: "Apparaten importeren",
			Error: fmt.Sprintf("Import afgebroken: %v", err),
			Data:  importData{Summary: &sum},
		})
		return
	}

	switch {
	case sum.DryRun:
		s.Toasts.Success(sess.ID, fmt.Sprintf("Proefimport: %d apparaten zijn geldig", sum.Created))
	case sum.Created > 0:
		s.Toasts.Success(sess.ID, fmt.Sprintf("%d apparaten geïmporteerd", sum.Created))
	}
	if sum.Errors > 0 {
		s.Toasts.Error(sess.ID, fmt.Sprintf("%d rijen konden niet worden geïmporteerd", sum.Errors))
	}
	s.render(w, r, http.StatusOK, "device_import.html", pageData{
		Title: "Apparaten importeren",
		Data:  importData{Summary: &sum},
	})
}
