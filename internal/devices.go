package internal

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/actions"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/auth"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/backend"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/form"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/labels"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/models"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/views"
)

type devicesData struct {
	Nav  tableNav
	Rows []models.Device
}

// LIST with filter, sort & pagination over the whole collection
func (s *Server) listDevices(w http.ResponseWriter, r *http.Request) {
	devices := s.deviceCollection(session(r))
	defer devices.Close()

	status := http.StatusOK
	var message string
	items, err := devices.Items(r.Context())
	if err != nil {
		if s.abandoned(w, r, err) {
			return
		}
		status, message = http.StatusBadGateway, backend.UserMessage(err)
	}

	state, page := applyList(r, views.Devices, items)
	s.render(w, r, status, "devices.html", pageData{
		Title: "Apparaten",
		Error: message,
		Data: devicesData{
			Nav:  buildNav("/devices", views.Devices, state, page),
			Rows: page.Rows,
		},
	})
}

func (s *Server) devicesView(w http.ResponseWriter, r *http.Request) {
	devices := s.deviceCollection(session(r))
	defer devices.Close()

	items, err := devices.Items(r.Context())
	if err != nil {
		if s.abandoned(w, r, err) {
			return
		}
		auth.SendError(w, backend.UserMessage(err), "BACKEND_ERROR", http.StatusBadGateway)
		return
	}
	sendView(w, r, views.Devices, items)
}

type deviceEditData struct {
	ID    int64
	Form  form.DeviceForm
	Known []models.SpecDefinition
}

func (s *Server) renderDeviceEdit(w http.ResponseWriter, r *http.Request, status int, id int64, f form.DeviceForm) {
	known, err := s.Backend.ForSession(session(r)).ListSpecs(r.Context())
	if err != nil {
		if s.abandoned(w, r, err) {
			return
		}
		s.Logger.Warn("spec catalog unavailable", zap.Error(err))
	}
	s.render(w, r, status, "device_edit.html", pageData{
		Title: "Apparaat bewerken",
		Data:  deviceEditData{ID: id, Form: f, Known: known},
	})
}

func (s *Server) editDevicePage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "Apparaat niet gevonden.")
		return
	}
	d, err := s.Backend.ForSession(session(r)).Device(r.Context(), id)
	if err != nil {
		if s.abandoned(w, r, err) {
			return
		}
		s.renderError(w, r, loadStatus(err), deviceLoadMessage(err))
		return
	}
	s.renderDeviceEdit(w, r, http.StatusOK, id, form.FromDevice(d))
}

// saveDevice sends the edited device. A rejected save shows the form again
// with what the user typed.
func (s *Server) saveDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "Apparaat niet gevonden.")
		return
	}
	f, err := deviceFormFromRequest(r)
	if err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Ongeldig formulier.")
		return
	}

	if _, err := s.Actions.SaveDevice(r.Context(), session(r), id, f, nil); err != nil {
		if s.abandoned(w, r, err) {
			return
		}
		s.renderDeviceEdit(w, r, http.StatusUnprocessableEntity, id, f)
		return
	}
	s.redirect(w, r, "/devices")
}

func (s *Server) deleteDevice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "Apparaat niet gevonden.")
		return
	}
	confirmed := r.PostFormValue("confirm") == "yes"

	_, err := s.Actions.DeleteDevice(r.Context(), session(r), id, confirmed, nil)
	switch {
	case errors.Is(err, actions.ErrConfirmationRequired):
		question := "Weet je zeker dat je dit apparaat wilt verwijderen?"
		if d, err := s.Backend.ForSession(session(r)).Device(r.Context(), id); err == nil {
			question = fmt.Sprintf("Weet je zeker dat je %s wilt verwijderen?", d.Label())
		}
		s.renderConfirm(w, r, confirmation{
			Question: question,
			Action:   fmt.Sprintf("/devices/%d/delete", id),
			Cancel:   fmt.Sprintf("/devices/%d/edit", id),
		})
	case err != nil:
		if s.abandoned(w, r, err) {
			return
		}
		s.redirect(w, r, fmt.Sprintf("/devices/%d/edit", id))
	default:
		s.redirect(w, r, "/devices")
	}
}

// deviceLabel serves the QR sticker of a device
func (s *Server) deviceLabel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		http.NotFound(w, r)
		return
	}
	size := labels.DefaultSize
	if v, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil && v >= 64 && v <= 1024 {
		size = v
	}

	d, err := s.Backend.ForSession(session(r)).Device(r.Context(), id)
	if err != nil {
		if s.abandoned(w, r, err) {
			return
		}
		http.Error(w, deviceLoadMessage(err), loadStatus(err))
		return
	}
	png, err := labels.PNG(s.Config.PublicURL, d, size)
	if err != nil {
		s.Logger.Error("render label", zap.Int64("device_id", id), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"device-%d.png\"", id))
	w.Write(png)
}

func deviceLoadMessage(err error) string {
	if errors.Is(err, backend.ErrNotFound) {
		return "Apparaat niet gevonden."
	}
	return backend.UserMessage(err)
}

// deviceFormFromRequest reads the scalar fields and the spec rows of the
// edit form. A spec row whose name is cleared is dropped.
func deviceFormFromRequest(r *http.Request) (form.DeviceForm, error) {
	f := form.NewDeviceForm()
	if err := r.ParseForm(); err != nil {
		return f, err
	}
	for _, name := range form.FieldNames {
		if err := f.Set(name, strings.TrimSpace(r.PostFormValue(name))); err != nil {
			return f, err
		}
	}

	names := r.PostForm["specName"]
	types := r.PostForm["specType"]
	values := r.PostForm["specValue"]
	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		dt := models.DataTypeText
		if i < len(types) {
			if parsed, err := models.ParseDataType(types[i]); err == nil {
				dt = parsed
			}
		}
		var value string
		if i < len(values) {
			value = strings.TrimSpace(values[i])
		}
		f.Specs.Upsert(name, dt, value)
	}
	return f, nil
}
