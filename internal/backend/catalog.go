package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/models"
)

// Catalog backend paths
const (
	PathDevices       = "/devices"
	PathSpecs         = "/specs"
	PathBorrowStatus  = "/borrowedstatus"
	PathBorrowUsers   = "/borrowedstatus/users"
	PathLogin         = "/auth/login"
	PathValidateToken = "/auth/validate"
	pathBorrowApprove = "/borrowedstatus/approve/%d"
	pathBorrowReject  = "/borrowedstatus/reject/%d"
	pathBorrowDelete  = "/borrowedstatus/delete/%d"
	pathDeviceByID    = "/devices/%d"
)

// DevicesPath returns the device list path, with a server side search when
// search is not empty.
func DevicesPath(search string) string {
	if search == "" {
		return PathDevices
	}
	return PathDevices + "?search=" + url.QueryEscape(search)
}

// send issues a mutation and returns the message the backend attached to a
// successful response, if any.
func (c *Client) send(ctx context.Context, method, path string, body any) (string, error) {
	var raw []byte
	if err := c.Do(ctx, method, path, body, &raw); err != nil {
		return "", err
	}
	var msg struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &msg) == nil {
		return msg.Message, nil
	}
	return truncate(strings.TrimSpace(string(raw)), maxMessageRunes), nil
}

const maxMessageRunes = 200

// truncate cuts s to at most n runes
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}

// ListDevices returns all devices, optionally filtered by the backend search
func (c *Client) ListDevices(ctx context.Context, search string) ([]models.Device, error) {
	var devices []models.Device
	if err := c.Get(ctx, DevicesPath(search), &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// Device looks a single device up in the device collection
func (c *Client) Device(ctx context.Context, id int64) (models.Device, error) {
	devices, err := c.ListDevices(ctx, "")
	if err != nil {
		return models.Device{}, err
	}
	for _, d := range devices {
		if d.ID == id {
			return d, nil
		}
	}
	return models.Device{}, fmt.Errorf("device %d: %w", id, ErrNotFound)
}

// CreateDevice posts a translated device payload
func (c *Client) CreateDevice(ctx context.Context, payload any) (string, error) {
	return c.send(ctx, http.MethodPost, PathDevices, payload)
}

// UpdateDevice replaces the device with the given id
func (c *Client) UpdateDevice(ctx context.Context, id int64, payload any) (string, error) {
	return c.send(ctx, http.MethodPut, fmt.Sprintf(pathDeviceByID, id), payload)
}

// DeleteDevice removes the device with the given id
func (c *Client) DeleteDevice(ctx context.Context, id int64) (string, error) {
	return c.send(ctx, http.MethodDelete, fmt.Sprintf(pathDeviceByID, id), nil)
}

// ListSpecs returns the known specification definitions sorted by name.
// The backend answers with a name -> data type object; an array of
// definitions is accepted too.
func (c *Client) ListSpecs(ctx context.Context) ([]models.SpecDefinition, error) {
	var raw []byte
	if err := c.Get(ctx, PathSpecs, &raw); err != nil {
		return nil, err
	}
	return DecodeSpecs(raw)
}

// DecodeSpecs parses either shape of the GET /specs response
func DecodeSpecs(raw []byte) ([]models.SpecDefinition, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var byName map[string]models.DataType
	if err := json.Unmarshal(raw, &byName); err == nil {
		defs := make([]models.SpecDefinition, 0, len(byName))
		for name, dt := range byName {
			defs = append(defs, models.SpecDefinition{SpecName: name, DataType: dt})
		}
		sort.Slice(defs, func(i, j int) bool { return defs[i].SpecName < defs[j].SpecName })
		return defs, nil
	}
	var defs []models.SpecDefinition
	if err := json.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("decode specs: %w", err)
	}
	return defs, nil
}

// ListBorrowStatuses returns every borrow request
func (c *Client) ListBorrowStatuses(ctx context.Context) ([]models.BorrowStatus, error) {
	var statuses []models.BorrowStatus
	if err := c.Get(ctx, PathBorrowStatus, &statuses); err != nil {
		return nil, err
	}
	return statuses, nil
}

// CreateBorrowStatus submits a borrow request
func (c *Client) CreateBorrowStatus(ctx context.Context, req models.BorrowRequest) (string, error) {
	return c.send(ctx, http.MethodPost, PathBorrowStatus, req)
}

// ApproveBorrow moves a pending request to Approved
func (c *Client) ApproveBorrow(ctx context.Context, id int64) (string, error) {
	return c.send(ctx, http.MethodPost, fmt.Sprintf(pathBorrowApprove, id), nil)
}

// RejectBorrow moves a pending request to Rejected
func (c *Client) RejectBorrow(ctx context.Context, id int64) (string, error) {
	return c.send(ctx, http.MethodPost, fmt.Sprintf(pathBorrowReject, id), nil)
}

// DeleteBorrow hard-deletes a rejected request
func (c *Client) DeleteBorrow(ctx context.Context, id int64) (string, error) {
	return c.send(ctx, http.MethodPost, fmt.Sprintf(pathBorrowDelete, id), nil)
}

// ListBorrowUsers returns the borrower directory
func (c *Client) ListBorrowUsers(ctx context.Context) ([]models.Employee, error) {
	var users []models.Employee
	if err := c.Get(ctx, PathBorrowUsers, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Login exchanges credentials for a session token
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (models.LoginResponse, error) {
	var resp models.LoginResponse
	if err := c.Do(ctx, http.MethodPost, PathLogin, req, &resp); err != nil {
		return models.LoginResponse{}, err
	}
	if resp.Token == "" {
		return models.LoginResponse{}, &APIError{Status: http.StatusBadGateway, Message: "Login response did not contain a token"}
	}
	return resp, nil
}

// ValidateToken asks the backend whether the client's bearer token is valid
func (c *Client) ValidateToken(ctx context.Context) error {
	return c.Do(ctx, http.MethodPost, PathValidateToken, nil, nil)
}
