package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/models"
)

type countingObserver struct {
	mu    sync.Mutex
	calls []string
}

func (o *countingObserver) ObserveBackendRequest(method string, status int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, method+" "+http.StatusText(status))
}

func TestClient_BearerHeader(t *testing.T) {
	var got []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = append(got, r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/")
	ctx := context.Background()

	_, err := c.ListDevices(ctx, "")
	require.NoError(t, err)
	_, err = c.ForSession(models.Session{Token: "abc"}).ListDevices(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"", "Bearer abc"}, got)
	assert.Equal(t, srv.URL, c.BaseURL())
}

func TestClient_APIErrors(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantMessage string
		wantIs      error
	}{
		{
			name:        "message wins",
			status:      http.StatusConflict,
			body:        `{"message":"Serienummer bestaat al","error":"Conflict"}`,
			wantMessage: "Serienummer bestaat al",
		},
		{
			name:        "error field fallback",
			status:      http.StatusBadRequest,
			body:        `{"error":"bad payload"}`,
			wantMessage: "bad payload",
		},
		{
			name:        "status text fallback",
			status:      http.StatusInternalServerError,
			body:        `oops`,
			wantMessage: "Internal Server Error",
		},
		{
			name:        "unauthorized",
			status:      http.StatusUnauthorized,
			body:        `{"message":"Token verlopen"}`,
			wantMessage: "Token verlopen",
			wantIs:      ErrUnauthorized,
		},
		{
			name:        "forbidden",
			status:      http.StatusForbidden,
			body:        ``,
			wantMessage: "Forbidden",
			wantIs:      ErrUnauthorized,
		},
		{
			name:        "not found",
			status:      http.StatusNotFound,
			body:        `{"message":"Apparaat niet gevonden"}`,
			wantMessage: "Apparaat niet gevonden",
			wantIs:      ErrNotFound,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL).DeleteDevice(context.Background(), 1)
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantMessage, UserMessage(err))
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
			assert.NotErrorIs(t, err, ErrTransport)
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).ListBorrowStatuses(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, GenericErrorMessage, UserMessage(err))
}

func TestClient_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(srv.URL).ListDevices(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrTransport)
}

func TestClient_SendReturnsBackendMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"json message", `{"message":"Verzoek goedgekeurd"}`, "Verzoek goedgekeurd"},
		{"plain text", "Apparaat succesvol verwijderd\n", "Apparaat succesvol verwijderd"},
		{"empty body", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var path string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				path = r.Method + " " + r.URL.Path
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			msg, err := NewClient(srv.URL).ApproveBorrow(context.Background(), 12)
			require.NoError(t, err)
			assert.Equal(t, tt.want, msg)
			assert.Equal(t, "POST /borrowedstatus/approve/12", path)
		})
	}
}

func TestClient_SendTruncatesLongMessages(t *testing.T) {
	long := strings.Repeat("é", 150) + strings.Repeat("ü", 150)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(long))
	}))
	defer srv.Close()

	msg, err := NewClient(srv.URL).DeleteDevice(context.Background(), 4)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(msg))
	assert.Equal(t, 200, utf8.RuneCountInString(msg))
	assert.Equal(t, strings.Repeat("é", 150)+strings.Repeat("ü", 50), msg)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "kort", truncate("kort", 10))
	assert.Equal(t, "ëën", truncate("ëëntje", 3))
	assert.Equal(t, "", truncate("", 3))
}

func TestClient_Observer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	obs := &countingObserver{}
	c := NewClient(srv.URL, WithObserver(obs))
	ctx := context.Background()

	_, _ = c.ListDevices(ctx, "")
	_, _ = c.DeleteDevice(ctx, 3)

	assert.Equal(t, []string{"GET OK", "DELETE Not Found"}, obs.calls)
}

func TestClient_Device(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"type":"Laptop"},{"id":2,"type":"Monitor"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	d, err := c.Device(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Monitor", d.Type)

	_, err = c.Device(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClient_Login(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != PathLogin {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Login(context.Background(), models.LoginRequest{Email: "a@b.nl", Password: "x"})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
}

func TestDecodeSpecs(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []models.SpecDefinition
	}{
		{
			name: "name to type map",
			raw:  `{"RAM":"getal","CPU":"tekst"}`,
			want: []models.SpecDefinition{
				{SpecName: "CPU", DataType: models.DataTypeText},
				{SpecName: "RAM", DataType: models.DataTypeNumber},
			},
		},
		{
			name: "array of definitions",
			raw:  `[{"specName":"Touchscreen","dataType":"boolean"}]`,
			want: []models.SpecDefinition{
				{SpecName: "Touchscreen", DataType: models.DataTypeBoolean},
			},
		},
		{
			name: "empty",
			raw:  ``,
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeSpecs([]byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := DecodeSpecs([]byte(`"nope"`))
	assert.Error(t, err)
}

func TestDevicesPath(t *testing.T) {
	assert.Equal(t, "/devices", DevicesPath(""))
	assert.Equal(t, "/devices?search=dell+xps", DevicesPath("dell xps"))
}
