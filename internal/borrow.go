package internal

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/actions"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/auth"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/backend"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/models"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/store"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/views"
)

type borrowStatusesData struct {
	Nav  tableNav
	Rows []models.BorrowStatus
}

func (s *Server) listBorrowStatuses(w http.ResponseWriter, r *http.Request) {
	statuses := s.statusCollection(session(r))
	defer statuses.Close()

	status := http.StatusOK
	var message string
	items, err := statuses.Items(r.Context())
	if err != nil {
		if s.abandoned(w, r, err) {
			return
		}
		status, message = http.StatusBadGateway, backend.UserMessage(err)
	}

	state, page := applyList(r, views.BorrowStatuses, items)
	s.render(w, r, status, "borrow_status.html", pageData{
		Title: "Uitgeleende apparaten",
		Error: message,
		Data: borrowStatusesData{
			Nav:  buildNav("/borrowedstatus", views.BorrowStatuses, state, page),
			Rows: page.Rows,
		},
	})
}

func (s *Server) borrowStatusesView(w http.ResponseWriter, r *http.Request) {
	statuses := s.statusCollection(session(r))
	defer statuses.Close()

	items, err := statuses.Items(r.Context())
	if err != nil {
		if s.abandoned(w, r, err) {
			return
		}
		auth.SendError(w, backend.UserMessage(err), "BACKEND_ERROR", http.StatusBadGateway)
		return
	}
	sendView(w, r, views.BorrowStatuses, items)
}

// findStatus loads the collection and picks the request with id
func findStatus(r *http.Request, statuses *store.Collection[models.BorrowStatus], id int64) (models.BorrowStatus, error) {
	items, err := statuses.Items(r.Context())
	if err != nil {
		return models.BorrowStatus{}, err
	}
	for _, st := range items {
		if st.ID == id {
			return st, nil
		}
	}
	return models.BorrowStatus{}, fmt.Errorf("borrow status %d: %w", id, backend.ErrNotFound)
}

func statusLoadMessage(err error) string {
	if errors.Is(err, backend.ErrNotFound) {
		return "Verzoek niet gevonden."
	}
	return backend.UserMessage(err)
}

// borrowStatusDetail is the modal of one request with the actions its
// state allows
func (s *Server) borrowStatusDetail(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "Verzoek niet gevonden.")
		return
	}
	statuses := s.statusCollection(session(r))
	defer statuses.Close()

	st, err := findStatus(r, statuses, id)
	if err != nil {
		if s.abandoned(w, r, err) {
			return
		}
		s.renderError(w, r, loadStatus(err), statusLoadMessage(err))
		return
	}
	s.render(w, r, http.StatusOK, "borrow_detail.html", pageData{
		Title: "Verzoek van " + st.User.Name,
		Data:  st,
	})
}

var confirmQuestions = map[string]string{
	"reject": "Weet je zeker dat je dit verzoek wilt afwijzen?",
	"delete": "Weet je zeker dat je dit verzoek wilt verwijderen?",
}

// borrowStatusAction approves, rejects or deletes a request. Reject and
// delete are confirmed on a separate page first.
func (s *Server) borrowStatusAction(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		s.renderError(w, r, http.StatusNotFound, "Verzoek niet gevonden.")
		return
	}
	action := chi.URLParam(r, "action")
	confirmed := r.PostFormValue("confirm") == "yes"
	sess := session(r)

	statuses := s.statusCollection(sess)
	defer statuses.Close()

	st, err := findStatus(r, statuses, id)
	if err != nil {
		if s.abandoned(w, r, err) {
			return
		}
		s.renderError(w, r, loadStatus(err), statusLoadMessage(err))
		return
	}

	var out actions.Outcome
	switch action {
	case "approve":
		out, err = s.Actions.Approve(r.Context(), sess, st, nil)
	case "reject":
		out, err = s.Actions.Reject(r.Context(), sess, st, confirmed, nil)
	case "delete":
		out, err = s.Actions.Delete(r.Context(), sess, st, confirmed, nil)
	default:
		s.renderError(w, r, http.StatusNotFound, "Onbekende actie.")
		return
	}

	detail := fmt.Sprintf("/borrowedstatus/%d", id)
	switch {
	case errors.Is(err, actions.ErrConfirmationRequired):
		s.renderConfirm(w, r, confirmation{
			Question: confirmQuestions[action],
			Action:   fmt.Sprintf("/borrowedstatus/%d/%s", id, action),
			Cancel:   detail,
		})
	case err != nil:
		if s.abandoned(w, r, err) {
			return
		}
		s.redirect(w, r, detail)
	case out.CloseModal:
		s.Logger.Info("borrow status changed",
			zap.Int64("id", id),
			zap.String("action", action),
			zap.String("backend_message", out.BackendMessage),
		)
		s.redirect(w, r, "/borrowedstatus")
	default:
		s.redirect(w, r, detail)
	}
}

type borrowRequestData struct {
	Request models.BorrowRequest
	Devices []models.Device
	Users   []models.Employee
}

// renderBorrowRequest shows the borrow form with req filled in
func (s *Server) renderBorrowRequest(w http.ResponseWriter, r *http.Request, status int, req models.BorrowRequest) {
	client := s.Backend.ForSession(session(r))
	devices, err := client.ListDevices(r.Context(), "")
	var users []models.Employee
	if err == nil {
		users, err = client.ListBorrowUsers(r.Context())
	}

	var message string
	if err != nil {
		if s.abandoned(w, r, err) {
			return
		}
		status, message = http.StatusBadGateway, backend.UserMessage(err)
	}
	s.render(w, r, status, "borrow_request.html", pageData{
		Title: "Apparaat uitlenen",
		Error: message,
		Data:  borrowRequestData{Request: req, Devices: devices, Users: users},
	})
}

func (s *Server) borrowRequestPage(w http.ResponseWriter, r *http.Request) {
	var req models.BorrowRequest
	if id, err := strconv.ParseInt(r.URL.Query().Get("device"), 10, 64); err == nil {
		req.DeviceID = id
	}
	s.renderBorrowRequest(w, r, http.StatusOK, req)
}

func (s *Server) borrowRequest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		s.renderError(w, r, http.StatusBadRequest, "Ongeldig formulier.")
		return
	}
	req := models.BorrowRequest{
		UserName:    strings.TrimSpace(r.PostFormValue("userName")),
		Description: r.PostFormValue("description"),
	}
	req.DeviceID, _ = strconv.ParseInt(r.PostFormValue("deviceId"), 10, 64)

	if _, err := s.Actions.Borrow(r.Context(), session(r), req, nil); err != nil {
		if s.abandoned(w, r, err) {
			return
		}
		s.renderBorrowRequest(w, r, http.StatusUnprocessableEntity, req)
		return
	}
	s.redirect(w, r, "/borrowedstatus")
}
