// Package actions performs the mutations a user triggers from a page and
// reports the outcome as toasts.
package actions

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/backend"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/form"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/models"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/notify"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/validation"
)

var (
	// ErrConfirmationRequired is returned by destructive actions that were
	// not confirmed; no request is sent.
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrEmptyDescription     = errors.New("description is empty")
	ErrNotAllowed           = errors.New("transition not allowed")
)

// Success toasts
const (
	MsgApproved      = "Verzoek succesvol goedgekeurd"
	MsgRejected      = "Verzoek succesvol afgewezen"
	MsgDeleted       = "Verzoek succesvol verwijderd"
	MsgDeviceDeleted = "Apparaat succesvol verwijderd"
	MsgDeviceSaved   = "Apparaat succesvol opgeslagen"
	MsgDeviceCreated = "Apparaat succesvol toegevoegd"
	MsgBorrowed      = "Apparaat succesvol uitgeleend"

	msgEmptyDescription = "Vul een beschrijving in."
	msgNotAllowed       = "Deze actie is niet mogelijk voor de huidige status van het verzoek."
	msgCreateFailed     = "Er is een fout opgetreden bij het toevoegen van het apparaat."
)

// Invalidator is told when a mutation changed the collection it caches.
// Page handlers pass nil: the redirect after a mutation loads the list again.
type Invalidator interface {
	Invalidate()
}

// Outcome of a successful action
type Outcome struct {
	// CloseModal tells the page to leave the detail view it was opened from
	CloseModal bool
	// BackendMessage is the message the backend attached to its response
	BackendMessage string
}

// Dispatcher runs actions on behalf of a session
type Dispatcher struct {
	client   *backend.Client
	toasts   *notify.Center
	drafts   *form.Drafts
	validate *validator.Validate
	logger   *zap.Logger
}

// New creates a dispatcher
func New(client *backend.Client, toasts *notify.Center, drafts *form.Drafts, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		client:   client,
		toasts:   toasts,
		drafts:   drafts,
		validate: validation.New(),
		logger:   logger,
	}
}

// Approve moves a pending borrow request to Approved
func (d *Dispatcher) Approve(ctx context.Context, sess models.Session, st models.BorrowStatus, inv Invalidator) (Outcome, error) {
	if !st.CanApprove() {
		return Outcome{}, d.reject(sess, ErrNotAllowed, msgNotAllowed)
	}
	return d.run(sess, inv, MsgApproved, func(c *backend.Client) (string, error) {
		return c.ApproveBorrow(ctx, st.ID)
	})
}

// Reject moves a pending borrow request to Rejected. It needs confirmation.
func (d *Dispatcher) Reject(ctx context.Context, sess models.Session, st models.BorrowStatus, confirmed bool, inv Invalidator) (Outcome, error) {
	if !st.CanReject() {
		return Outcome{}, d.reject(sess, ErrNotAllowed, msgNotAllowed)
	}
	if !confirmed {
		return Outcome{}, ErrConfirmationRequired
	}
	return d.run(sess, inv, MsgRejected, func(c *backend.Client) (string, error) {
		return c.RejectBorrow(ctx, st.ID)
	})
}

// Delete removes a rejected borrow request. It needs confirmation.
func (d *Dispatcher) Delete(ctx context.Context, sess models.Session, st models.BorrowStatus, confirmed bool, inv Invalidator) (Outcome, error) {
	if !st.CanDelete() {
		return Outcome{}, d.reject(sess, ErrNotAllowed, msgNotAllowed)
	}
	if !confirmed {
		return Outcome{}, ErrConfirmationRequired
	}
	return d.run(sess, inv, MsgDeleted, func(c *backend.Client) (string, error) {
		return c.DeleteBorrow(ctx, st.ID)
	})
}

// DeleteDevice removes a device. It needs confirmation.
func (d *Dispatcher) DeleteDevice(ctx context.Context, sess models.Session, id int64, confirmed bool, inv Invalidator) (Outcome, error) {
	if !confirmed {
		return Outcome{}, ErrConfirmationRequired
	}
	return d.run(sess, inv, MsgDeviceDeleted, func(c *backend.Client) (string, error) {
		return c.DeleteDevice(ctx, id)
	})
}

// SaveDevice replaces the device id with the edited form
func (d *Dispatcher) SaveDevice(ctx context.Context, sess models.Session, id int64, f form.DeviceForm, inv Invalidator) (Outcome, error) {
	if err := f.Validate(d.validate, false); err != nil {
		return Outcome{}, d.reject(sess, err, form.Message(err))
	}
	return d.run(sess, inv, MsgDeviceSaved, func(c *backend.Client) (string, error) {
		return c.UpdateDevice(ctx, id, f.Payload())
	})
}

// CreateDevice posts the form as a new device. On success the session's
// form is cleared; on failure it is kept so the user can retry.
func (d *Dispatcher) CreateDevice(ctx context.Context, sess models.Session, f form.DeviceForm, inv Invalidator) (Outcome, error) {
	if err := f.Validate(d.validate, false); err != nil {
		return Outcome{}, d.reject(sess, err, form.Message(err))
	}
	out, err := d.runWithFallback(sess, inv, MsgDeviceCreated, msgCreateFailed, func(c *backend.Client) (string, error) {
		return c.CreateDevice(ctx, f.Payload())
	})
	if err != nil {
		return out, err
	}
	d.drafts.ClearForm(sess.ID)
	return out, nil
}

// Borrow submits a borrow request. An empty description is refused locally.
func (d *Dispatcher) Borrow(ctx context.Context, sess models.Session, req models.BorrowRequest, inv Invalidator) (Outcome, error) {
	req.UserName = strings.TrimSpace(req.UserName)
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		return Outcome{}, d.reject(sess, ErrEmptyDescription, msgEmptyDescription)
	}
	if err := d.validate.Struct(req); err != nil {
		return Outcome{}, d.reject(sess, err, validation.Message(err))
	}
	return d.run(sess, inv, MsgBorrowed, func(c *backend.Client) (string, error) {
		return c.CreateBorrowStatus(ctx, req)
	})
}

// reject reports a local validation failure; nothing was sent
func (d *Dispatcher) reject(sess models.Session, err error, message string) error {
	d.logger.Debug("action refused locally", zap.Error(err))
	d.toasts.Error(sess.ID, message)
	return err
}

func (d *Dispatcher) run(sess models.Session, inv Invalidator, success string, call func(*backend.Client) (string, error)) (Outcome, error) {
	return d.runWithFallback(sess, inv, success, backend.GenericErrorMessage, call)
}

// runWithFallback sends the request; unreachable shows fallback, a backend
// rejection its own message.
func (d *Dispatcher) runWithFallback(sess models.Session, inv Invalidator, success, fallback string, call func(*backend.Client) (string, error)) (Outcome, error) {
	msg, err := call(d.client.ForSession(sess))
	if err != nil {
		return Outcome{}, d.fail(sess, err, fallback)
	}
	d.toasts.Success(sess.ID, success)
	if inv != nil {
		inv.Invalidate()
	}
	return Outcome{CloseModal: true, BackendMessage: msg}, nil
}

func (d *Dispatcher) fail(sess models.Session, err error, fallback string) error {
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		return err
	case errors.Is(err, context.Canceled):
		return err
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		d.toasts.Error(sess.ID, apiErr.Message)
	} else {
		d.toasts.Error(sess.ID, fallback)
	}
	return err
}
