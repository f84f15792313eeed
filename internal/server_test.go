package internal

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/actions"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/config"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/models"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/testutil"
)

func testConfig(fake *testutil.Backend) *config.Config {
	return &config.Config{
		ListenAddr:       ":0",
		PublicURL:        "http://catalog.test",
		BackendURL:       fake.URL,
		DummyDataURL:     fake.URL + "/api/v1/dummy-controller",
		SessionSecret:    config.DefaultSessionSecret,
		SessionTTL:       time.Hour,
		SessionCookie:    "session",
		NotifySuccessTTL: time.Minute,
		NotifyErrorTTL:   time.Minute,
		DraftTTL:         time.Hour,
		LogLevel:         "info",
		LoginRatePerSec:  100,
		LoginBurst:       100,
		Environment:      "test",
	}
}

func newTestServer(t *testing.T) (*Server, *testutil.Backend) {
	t.Helper()
	fake := testutil.NewBackend(t)
	s, err := NewServer(testConfig(fake), nil)
	require.NoError(t, err)
	return s, fake
}

// sessionCookie issues a session cookie carrying token
func sessionCookie(t *testing.T, s *Server, token string) *http.Cookie {
	t.Helper()
	rec := httptest.NewRecorder()
	_, err := s.Sessions.SetCookie(rec, models.Session{Token: token, Email: testutil.Email})
	require.NoError(t, err)
	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func do(s *Server, method, target string, body url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(body.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)
	return w
}

func seedDevices(fake *testutil.Backend, n int) {
	brands := []string{"Dell", "HP", "Lenovo"}
	devices := make([]models.Device, 0, n)
	for i := 1; i <= n; i++ {
		devices = append(devices, models.Device{
			ID:           int64(i),
			Type:         "Laptop",
			BrandName:    brands[i%len(brands)],
			Model:        "Model " + string(rune('A'+i-1)),
			SerialNumber: "SN-" + string(rune('A'+i-1)),
		})
	}
	fake.SeedDevices(devices...)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(s, "GET", "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestStaticAssets(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(s, "GET", "/static/app.js", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "data-ttl")
}

func TestRequireSession(t *testing.T) {
	s, _ := newTestServer(t)

	t.Run("page redirects to login", func(t *testing.T) {
		w := do(s, "GET", "/devices", nil, nil)
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))
	})

	t.Run("api answers 401", func(t *testing.T) {
		w := do(s, "GET", "/api/views/devices", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "MISSING_SESSION")
	})

	t.Run("tampered cookie", func(t *testing.T) {
		c := sessionCookie(t, s, testutil.Token)
		c.Value += "x"
		w := do(s, "GET", "/", nil, c)
		assert.Equal(t, http.StatusSeeOther, w.Code)
	})
}

func TestLogin(t *testing.T) {
	s, fake := newTestServer(t)

	t.Run("form", func(t *testing.T) {
		w := do(s, "GET", "/login", nil, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `name="password"`)
	})

	t.Run("invalid email", func(t *testing.T) {
		w := do(s, "POST", "/login", url.Values{"email": {"nope"}, "password": {"x"}}, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, fake.RequestsTo("POST", "/auth/login"))
	})

	t.Run("wrong password", func(t *testing.T) {
		w := do(s, "POST", "/login", url.Values{"email": {testutil.Email}, "password": {"wrong"}}, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), testutil.MsgBadCredentials)
		assert.Contains(t, w.Body.String(), testutil.Email)
	})

	t.Run("success", func(t *testing.T) {
		w := do(s, "POST", "/login", url.Values{"email": {testutil.Email}, "password": {testutil.Password}}, nil)
		require.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))

		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		claims, err := s.Sessions.Parse(cookies[0].Value)
		require.NoError(t, err)
		assert.Equal(t, testutil.Token, claims.Token)

		validated := fake.RequestsTo("POST", "/auth/validate")
		require.Len(t, validated, 1)
		assert.Equal(t, "Bearer "+testutil.Token, validated[0].Auth)

		home := do(s, "GET", "/", nil, cookies[0])
		assert.Equal(t, http.StatusOK, home.Code)
		assert.Contains(t, home.Body.String(), "dummy")
	})

	t.Run("logged in user skips the form", func(t *testing.T) {
		w := do(s, "GET", "/login", nil, sessionCookie(t, s, testutil.Token))
		assert.Equal(t, http.StatusSeeOther, w.Code)
	})
}

func TestLogout(t *testing.T) {
	s, _ := newTestServer(t)
	w := do(s, "POST", "/logout", url.Values{}, sessionCookie(t, s, testutil.Token))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestDevicesPage(t *testing.T) {
	s, fake := newTestServer(t)
	seedDevices(fake, 12)
	c := sessionCookie(t, s, testutil.Token)

	w := do(s, "GET", "/devices", nil, c)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, 10, strings.Count(body, "/edit\">Bewerken"))
	assert.Contains(t, body, "12 resultaten")

	w = do(s, "GET", "/devices?page=2", nil, c)
	assert.Equal(t, 2, strings.Count(w.Body.String(), "/edit\">Bewerken"))

	w = do(s, "GET", "/devices?q=nothing-matches", nil, c)
	assert.Contains(t, w.Body.String(), "class=\"empty\"")
}

type viewPage[T any] struct {
	Rows        []T  `json:"rows"`
	Page        int  `json:"page"`
	TotalPages  int  `json:"total_pages"`
	Total       int  `json:"total"`
	RowsPerPage int  `json:"rows_per_page"`
	Empty       bool `json:"empty"`
}

func TestDevicesView(t *testing.T) {
	s, fake := newTestServer(t)
	seedDevices(fake, 12)
	c := sessionCookie(t, s, testutil.Token)

	tests := []struct {
		name      string
		query     string
		wantRows  int
		wantTotal int
		wantPage  int
		wantFirst string
	}{
		{name: "defaults", query: "", wantRows: 10, wantTotal: 12, wantPage: 1},
		{name: "second page", query: "?page=2", wantRows: 2, wantTotal: 12, wantPage: 2},
		{name: "page past the end is ignored", query: "?page=9", wantRows: 10, wantTotal: 12, wantPage: 1},
		{name: "rows option", query: "?rows=5", wantRows: 5, wantTotal: 12, wantPage: 1},
		{name: "filter", query: "?q=dell", wantRows: 4, wantTotal: 4, wantPage: 1},
		{name: "legacy search", query: "?search=lenovo", wantRows: 4, wantTotal: 4, wantPage: 1},
		{name: "sort desc", query: "?sort=model&dir=desc", wantRows: 10, wantTotal: 12, wantPage: 1, wantFirst: "Model L"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(s, "GET", "/api/views/devices"+tt.query, nil, c)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var page viewPage[models.Device]
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
			assert.Len(t, page.Rows, tt.wantRows)
			assert.Equal(t, tt.wantTotal, page.Total)
			assert.Equal(t, tt.wantPage, page.Page)
			if tt.wantFirst != "" {
				assert.Equal(t, tt.wantFirst, page.Rows[0].Model)
			}
		})
	}
}

func TestDevicesPage_BackendErrors(t *testing.T) {
	t.Run("unreachable data shows message", func(t *testing.T) {
		s, fake := newTestServer(t)
		fake.Fail("GET", "/devices", http.StatusInternalServerError, "kapot")
		w := do(s, "GET", "/devices", nil, sessionCookie(t, s, testutil.Token))
		assert.Equal(t, http.StatusBadGateway, w.Code)
		assert.Contains(t, w.Body.String(), "class=\"alert\"")
	})

	t.Run("expired backend token ends the session", func(t *testing.T) {
		s, fake := newTestServer(t)
		fake.RequireAuth = true
		w := do(s, "GET", "/devices", nil, sessionCookie(t, s, "stale-token"))
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))

		w = do(s, "GET", "/api/views/devices", nil, sessionCookie(t, s, "stale-token"))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "BACKEND_UNAUTHORIZED")
	})
}

func TestEditDevice(t *testing.T) {
	s, fake := newTestServer(t)
	seedDevices(fake, 3)
	c := sessionCookie(t, s, testutil.Token)

	t.Run("form is prefilled", func(t *testing.T) {
		w := do(s, "GET", "/devices/2/edit", nil, c)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `value="SN-B"`)
	})

	t.Run("unknown device", func(t *testing.T) {
		w := do(s, "GET", "/devices/99/edit", nil, c)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("save", func(t *testing.T) {
		form := url.Values{
			"Type":        {"Laptop"},
			"Merknaam":    {"Apple"},
			"Model":       {"MacBook"},
			"Serienummer": {"SN-B"},
			"specName":    {"RAM", ""},
			"specType":    {"number", "text"},
			"specValue":   {"16", ""},
		}
		w := do(s, "POST", "/devices/2", form, c)
		require.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/devices", w.Header().Get("Location"))

		puts := fake.RequestsTo("PUT", "/devices/2")
		require.Len(t, puts, 1)
		assert.Equal(t, "Apple", puts[0].Body["brandName"])

		list := do(s, "GET", "/devices", nil, c)
		assert.Contains(t, list.Body.String(), actions.MsgDeviceSaved)
	})

	t.Run("invalid spec value keeps the input", func(t *testing.T) {
		form := url.Values{
			"Merknaam":  {"Typed"},
			"specName":  {"RAM"},
			"specType":  {"number"},
			"specValue": {"veel"},
		}
		before := len(fake.RequestsTo("PUT", "/devices/2"))
		w := do(s, "POST", "/devices/2", form, c)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Contains(t, w.Body.String(), `value="Typed"`)
		assert.Contains(t, w.Body.String(), "Ongeldige waarde voor RAM")
		assert.Len(t, fake.RequestsTo("PUT", "/devices/2"), before)
	})
}

func TestDeleteDevice(t *testing.T) {
	s, fake := newTestServer(t)
	seedDevices(fake, 2)
	c := sessionCookie(t, s, testutil.Token)

	w := do(s, "POST", "/devices/1/delete", url.Values{}, c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `name="confirm" value="yes"`)
	assert.Empty(t, fake.RequestsTo("DELETE", "/devices/1"))

	before := do(s, "GET", "/devices", nil, c)
	assert.Equal(t, 2, strings.Count(before.Body.String(), "/edit\">Bewerken"))
	fetches := len(fake.RequestsTo("GET", "/devices"))

	w = do(s, "POST", "/devices/1/delete", url.Values{"confirm": {"yes"}}, c)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/devices", w.Header().Get("Location"))
	assert.Len(t, fake.Devices(), 1)
	assert.Len(t, fake.RequestsTo("GET", "/devices"), fetches, "the mutation itself loads no list")

	list := do(s, "GET", w.Header().Get("Location"), nil, c)
	assert.Contains(t, list.Body.String(), actions.MsgDeviceDeleted)
	assert.Equal(t, 1, strings.Count(list.Body.String(), "/edit\">Bewerken"))
	assert.NotContains(t, list.Body.String(), "/devices/1/edit")
	assert.Len(t, fake.RequestsTo("GET", "/devices"), fetches+1)
}

func TestDeviceLabel(t *testing.T) {
	s, fake := newTestServer(t)
	seedDevices(fake, 1)
	c := sessionCookie(t, s, testutil.Token)

	w := do(s, "GET", "/devices/1/label.png?size=128", nil, c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	w = do(s, "GET", "/devices/7/label.png", nil, c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNewDeviceDraft(t *testing.T) {
	s, fake := newTestServer(t)
	fake.SeedSpecs(map[string]models.DataType{"RAM": models.DataTypeNumber})
	c := sessionCookie(t, s, testutil.Token)

	w := do(s, "POST", "/devices/new", url.Values{
		"op":       {"update"},
		"Type":     {"Laptop"},
		"Merknaam": {"Dell"},
		"selected": {"RAM"},
	}, c)
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = do(s, "POST", "/devices/new", url.Values{"op": {"update"}, "selected": {"RAM"}, "spec:RAM": {"16"}}, c)
	require.Equal(t, http.StatusSeeOther, w.Code)

	page := do(s, "GET", "/devices/new", nil, c)
	require.Equal(t, http.StatusOK, page.Code)
	body := page.Body.String()
	assert.Contains(t, body, `value="Dell"`)
	assert.Contains(t, body, `name="spec:RAM" value="16"`)

	w = do(s, "POST", "/devices/new/specs", url.Values{"specName": {"RAM"}, "dataType": {"text"}}, c)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, do(s, "GET", "/devices/new", nil, c).Body.String(), "class=\"toast toast-red\"")

	w = do(s, "POST", "/devices/new/specs", url.Values{"specName": {"Kleur"}, "dataType": {"text"}}, c)
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = do(s, "POST", "/devices/new", url.Values{"op": {"submit"}, "selected": {"RAM"}, "Serienummer": {"SN-NEW"}}, c)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/devices", w.Header().Get("Location"))

	devices := fake.Devices()
	require.Len(t, devices, 1)
	assert.Equal(t, "Dell", devices[0].BrandName)
	assert.Equal(t, "SN-NEW", devices[0].SerialNumber)

	// a created device clears the form but keeps the local spec definitions
	body = do(s, "GET", "/devices/new", nil, c).Body.String()
	assert.NotContains(t, body, `value="SN-NEW"`)
	assert.Contains(t, body, `name="selected" value="Kleur" >`)
	assert.NotContains(t, body, `value="Kleur" checked`)

	w = do(s, "POST", "/devices/new/reset", url.Values{}, c)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Contains(t, do(s, "GET", "/devices/new", nil, c).Body.String(), `value="Kleur"`)
}

func TestNewDevice_DuplicateSerialKeepsDraft(t *testing.T) {
	s, fake := newTestServer(t)
	seedDevices(fake, 1)
	c := sessionCookie(t, s, testutil.Token)

	w := do(s, "POST", "/devices/new", url.Values{"op": {"submit"}, "Merknaam": {"HP"}, "Serienummer": {"SN-A"}}, c)
	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/devices/new", w.Header().Get("Location"))

	body := do(s, "GET", "/devices/new", nil, c).Body.String()
	assert.Contains(t, body, "Serienummer SN-A bestaat al")
	assert.Contains(t, body, `value="HP"`)
	assert.Len(t, fake.Devices(), 1)
}

func TestBorrowStatusActions(t *testing.T) {
	s, fake := newTestServer(t)
	fake.SeedStatuses(
		models.BorrowStatus{ID: 1, User: models.BorrowUser{Name: "Anna"}, Status: models.BorrowPending, Description: "demo"},
		models.BorrowStatus{ID: 2, User: models.BorrowUser{Name: "Bram"}, Status: models.BorrowPending},
		models.BorrowStatus{ID: 3, User: models.BorrowUser{Name: "Cas"}, Status: models.BorrowRejected},
	)
	c := sessionCookie(t, s, testutil.Token)

	t.Run("detail shows allowed actions", func(t *testing.T) {
		w := do(s, "GET", "/borrowedstatus/1", nil, c)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "/borrowedstatus/1/approve")
		assert.NotContains(t, w.Body.String(), "/borrowedstatus/1/delete")
	})

	t.Run("unknown request", func(t *testing.T) {
		w := do(s, "GET", "/borrowedstatus/42", nil, c)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("approve", func(t *testing.T) {
		w := do(s, "POST", "/borrowedstatus/1/approve", url.Values{}, c)
		require.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/borrowedstatus", w.Header().Get("Location"))
		assert.Equal(t, models.BorrowApproved, fake.Statuses()[0].Status)

		list := do(s, "GET", "/borrowedstatus", nil, c)
		assert.Contains(t, list.Body.String(), actions.MsgApproved)
	})

	t.Run("reject asks first", func(t *testing.T) {
		w := do(s, "POST", "/borrowedstatus/2/reject", url.Values{}, c)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `action="/borrowedstatus/2/reject"`)
		assert.Equal(t, models.BorrowPending, fake.Statuses()[1].Status)

		w = do(s, "POST", "/borrowedstatus/2/reject", url.Values{"confirm": {"yes"}}, c)
		require.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, models.BorrowRejected, fake.Statuses()[1].Status)
	})

	t.Run("delete of a rejected request", func(t *testing.T) {
		w := do(s, "POST", "/borrowedstatus/3/delete", url.Values{"confirm": {"yes"}}, c)
		require.Equal(t, http.StatusSeeOther, w.Code)
		assert.Len(t, fake.Statuses(), 2)
	})

	t.Run("unknown action", func(t *testing.T) {
		w := do(s, "POST", "/borrowedstatus/2/archive", url.Values{}, c)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestBorrowStatusesView(t *testing.T) {
	s, fake := newTestServer(t)
	fake.SeedStatuses(
		models.BorrowStatus{ID: 1, User: models.BorrowUser{Name: "Bram"}, Status: models.BorrowPending},
		models.BorrowStatus{ID: 2, User: models.BorrowUser{Name: "Anna"}, Status: models.BorrowApproved},
	)

	w := do(s, "GET", "/api/views/borrowedstatus", nil, sessionCookie(t, s, testutil.Token))
	require.Equal(t, http.StatusOK, w.Code)

	var page viewPage[models.BorrowStatus]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Rows, 2)
	assert.Equal(t, "Anna", page.Rows[0].User.Name)
}

func TestBorrowRequest(t *testing.T) {
	s, fake := newTestServer(t)
	seedDevices(fake, 2)
	fake.SeedUsers(models.Employee{ID: 1, Name: "Anna"})
	c := sessionCookie(t, s, testutil.Token)

	t.Run("form preselects device", func(t *testing.T) {
		w := do(s, "GET", "/borrowedrequest?device=2", nil, c)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `<option value="2" selected>`)
		assert.Contains(t, w.Body.String(), `<option value="Anna">`)
	})

	t.Run("empty description is refused", func(t *testing.T) {
		w := do(s, "POST", "/borrowedrequest", url.Values{"userName": {"Anna"}, "deviceId": {"2"}, "description": {"  "}}, c)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Empty(t, fake.RequestsTo("POST", "/borrowedstatus"))
	})

	t.Run("submit", func(t *testing.T) {
		w := do(s, "POST", "/borrowedrequest", url.Values{"userName": {"Anna"}, "deviceId": {"2"}, "description": {"Demo bij klant"}}, c)
		require.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/borrowedstatus", w.Header().Get("Location"))

		statuses := fake.Statuses()
		require.Len(t, statuses, 1)
		assert.Equal(t, "Anna", statuses[0].User.Name)
		assert.Equal(t, int64(2), statuses[0].Device.ID)
	})
}

func TestLoginRateLimit(t *testing.T) {
	fake := testutil.NewBackend(t)
	cfg := testConfig(fake)
	cfg.LoginRatePerSec = 0.001
	cfg.LoginBurst = 1
	s, err := NewServer(cfg, nil)
	require.NoError(t, err)

	creds := url.Values{"email": {testutil.Email}, "password": {"wrong"}}
	assert.Equal(t, http.StatusUnauthorized, do(s, "POST", "/login", creds, nil).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(s, "POST", "/login", creds, nil).Code)
}

func TestMetricsRoute(t *testing.T) {
	fake := testutil.NewBackend(t)
	cfg := testConfig(fake)
	cfg.EnableMetrics = true
	s, err := NewServer(cfg, nil)
	require.NoError(t, err)

	do(s, "GET", "/devices", nil, sessionCookie(t, s, testutil.Token))
	w := do(s, "GET", "/metrics", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `backend_requests_total{method="GET",status="200"} 1`)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}
