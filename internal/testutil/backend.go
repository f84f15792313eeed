package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/models"
)

// Messages the fake backend answers with
const (
	MsgDeviceCreated  = "Apparaat succesvol toegevoegd"
	MsgDeviceUpdated  = "Apparaat succesvol bijgewerkt"
	MsgDeviceDeleted  = "Apparaat succesvol verwijderd"
	MsgDeviceNotFound = "Apparaat niet gevonden"
	MsgBorrowCreated  = "Apparaat succesvol uitgeleend"
	MsgApproved       = "Verzoek goedgekeurd"
	MsgRejected       = "Verzoek afgewezen"
	MsgDeleted        = "Verzoek verwijderd"
	MsgBadCredentials = "Ongeldige inloggegevens"
	MsgUnauthorized   = "Niet geautoriseerd"
)

// Fixture credentials accepted by the fake backend
const (
	Email    = "admin@quintor.nl"
	Password = "secret"
	Token    = "backend-token-123"
)

// Request is a request recorded by the fake backend
type Request struct {
	Method string
	Path   string
	Query  string
	Auth   string
	Body   map[string]any
}

type failure struct {
	status  int
	message string
}

// Backend is an in-memory catalog REST backend served over httptest
type Backend struct {
	*httptest.Server

	// RequireAuth makes every endpoint except login demand the fixture token
	RequireAuth bool

	mu       sync.Mutex
	devices  []models.Device
	specs    map[string]models.DataType
	statuses []models.BorrowStatus
	users    []models.Employee
	dummy    []map[string]any
	requests []Request
	failures map[string]failure
	nextID   int64
}

// NewBackend starts a fake backend that is closed when the test ends
func NewBackend(t *testing.T) *Backend {
	t.Helper()

	b := &Backend{
		specs:    map[string]models.DataType{},
		failures: map[string]failure{},
		nextID:   1000,
		dummy: []map[string]any{
			{"id": 1, "name": "dummy", "value": "42"},
		},
	}
	b.Server = httptest.NewServer(b.routes())

	t.Cleanup(func() {
		b.Server.Close()
	})
	return b
}

// SeedDevices replaces the device collection
func (b *Backend) SeedDevices(devices ...models.Device) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.devices = append([]models.Device(nil), devices...)
}

// SeedSpecs replaces the known specifications
func (b *Backend) SeedSpecs(specs map[string]models.DataType) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.specs = specs
}

// SeedStatuses replaces the borrow status collection
func (b *Backend) SeedStatuses(statuses ...models.BorrowStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.statuses = append([]models.BorrowStatus(nil), statuses...)
}

// SeedUsers replaces the borrower directory
func (b *Backend) SeedUsers(users ...models.Employee) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.users = append([]models.Employee(nil), users...)
}

// Fail makes every request to method+path answer status with message
func (b *Backend) Fail(method, path string, status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[method+" "+path] = failure{status: status, message: message}
}

// Requests returns the recorded requests in arrival order
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// RequestsTo returns the recorded requests for method and path
func (b *Backend) RequestsTo(method, path string) []Request {
	var out []Request
	for _, r := range b.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// Devices returns the current device collection
func (b *Backend) Devices() []models.Device {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Device(nil), b.devices...)
}

// Statuses returns the current borrow status collection
func (b *Backend) Statuses() []models.BorrowStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.BorrowStatus(nil), b.statuses...)
}

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(b.record)

	r.Post("/auth/login", b.login)
	r.Get("/api/v1/dummy-controller", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, b.dummy)
	})

	r.Group(func(r chi.Router) {
		r.Use(b.authorize)

		r.Post("/auth/validate", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
		})

		r.Get("/devices", b.listDevices)
		r.Post("/devices", b.createDevice)
		r.Put("/devices/{id}", b.updateDevice)
		r.Delete("/devices/{id}", b.deleteDevice)

		r.Get("/specs", func(w http.ResponseWriter, _ *http.Request) {
			b.mu.Lock()
			defer b.mu.Unlock()
			writeJSON(w, http.StatusOK, b.specs)
		})

		r.Get("/borrowedstatus", func(w http.ResponseWriter, _ *http.Request) {
			b.mu.Lock()
			defer b.mu.Unlock()
			writeJSON(w, http.StatusOK, b.statuses)
		})
		r.Post("/borrowedstatus", b.createStatus)
		r.Get("/borrowedstatus/users", func(w http.ResponseWriter, _ *http.Request) {
			b.mu.Lock()
			defer b.mu.Unlock()
			writeJSON(w, http.StatusOK, b.users)
		})
		r.Post("/borrowedstatus/approve/{id}", b.transition(models.BorrowApproved, MsgApproved))
		r.Post("/borrowedstatus/reject/{id}", b.transition(models.BorrowRejected, MsgRejected))
		r.Post("/borrowedstatus/delete/{id}", b.deleteStatus)
	})
	return r
}

// record stores the request and answers injected failures
func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Auth:   r.Header.Get("Authorization"),
		}
		if r.Body != nil {
			data, _ := io.ReadAll(r.Body)
			r.Body.Close()
			if len(data) > 0 {
				_ = json.Unmarshal(data, &rec.Body)
			}
			r.Body = io.NopCloser(strings.NewReader(string(data)))
		}

		b.mu.Lock()
		b.requests = append(b.requests, rec)
		f, failing := b.failures[r.Method+" "+r.URL.Path]
		b.mu.Unlock()

		if failing {
			writeJSON(w, f.status, map[string]string{"message": f.message})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.RequireAuth && r.Header.Get("Authorization") != "Bearer "+Token {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": MsgUnauthorized})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid JSON"})
		return
	}
	if req.Email != Email || req.Password != Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": MsgBadCredentials})
		return
	}
	writeJSON(w, http.StatusOK, models.LoginResponse{Token: Token})
}

func (b *Backend) listDevices(w http.ResponseWriter, r *http.Request) {
	search := strings.ToLower(r.URL.Query().Get("search"))

	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]models.Device, 0, len(b.devices))
	for _, d := range b.devices {
		if search == "" ||
			strings.Contains(strings.ToLower(d.Type), search) ||
			strings.Contains(strings.ToLower(d.BrandName), search) ||
			strings.Contains(strings.ToLower(d.Model), search) {
			out = append(out, d)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (b *Backend) createDevice(w http.ResponseWriter, r *http.Request) {
	var d models.Device
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid JSON"})
		return
	}
	if d.SerialNumber != "" {
		b.mu.Lock()
		for _, existing := range b.devices {
			if existing.SerialNumber == d.SerialNumber {
				b.mu.Unlock()
				writeJSON(w, http.StatusConflict, map[string]string{
					"message": fmt.Sprintf("Serienummer %s bestaat al", d.SerialNumber),
				})
				return
			}
		}
		b.mu.Unlock()
	}

	b.mu.Lock()
	b.nextID++
	d.ID = b.nextID
	b.devices = append(b.devices, d)
	for _, s := range d.Specs {
		if _, ok := b.specs[s.SpecName]; !ok {
			b.specs[s.SpecName] = s.DataType
		}
	}
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]any{"message": MsgDeviceCreated, "id": d.ID})
}

func (b *Backend) updateDevice(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	var d models.Device
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid JSON"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.devices {
		if b.devices[i].ID == id {
			d.ID = id
			b.devices[i] = d
			writeJSON(w, http.StatusOK, map[string]string{"message": MsgDeviceUpdated})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": MsgDeviceNotFound})
}

func (b *Backend) deleteDevice(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.devices {
		if b.devices[i].ID == id {
			b.devices = append(b.devices[:i], b.devices[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": MsgDeviceDeleted})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": MsgDeviceNotFound})
}

func (b *Backend) createStatus(w http.ResponseWriter, r *http.Request) {
	var req models.BorrowRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid JSON"})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	var device *models.Device
	for i := range b.devices {
		if b.devices[i].ID == req.DeviceID {
			device = &b.devices[i]
		}
	}
	if device == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": MsgDeviceNotFound})
		return
	}
	b.nextID++
	b.statuses = append(b.statuses, models.BorrowStatus{
		ID:          b.nextID,
		User:        models.BorrowUser{Name: req.UserName},
		Device:      *device,
		Status:      models.BorrowPending,
		Description: req.Description,
	})
	writeJSON(w, http.StatusCreated, map[string]string{"message": MsgBorrowCreated})
}

func (b *Backend) transition(to models.BorrowState, msg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

		b.mu.Lock()
		defer b.mu.Unlock()
		for i := range b.statuses {
			if b.statuses[i].ID != id {
				continue
			}
			if b.statuses[i].Status != models.BorrowPending {
				writeJSON(w, http.StatusConflict, map[string]string{"message": "Verzoek is al behandeld"})
				return
			}
			b.statuses[i].Status = to
			writeJSON(w, http.StatusOK, map[string]string{"message": msg})
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Verzoek niet gevonden"})
	}
}

func (b *Backend) deleteStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)

	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.statuses {
		if b.statuses[i].ID == id {
			b.statuses = append(b.statuses[:i], b.statuses[i+1:]...)
			writeJSON(w, http.StatusOK, map[string]string{"message": MsgDeleted})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Verzoek niet gevonden"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// SortedSpecNames returns the spec names the backend knows, sorted
func (b *Backend) SortedSpecNames() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	names := make([]string, 0, len(b.specs))
	for n := range b.specs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
