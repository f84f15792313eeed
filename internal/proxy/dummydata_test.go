package proxy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDummyData(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		upstream   http.HandlerFunc
		down       bool
		wantStatus int
		wantBody   string
		wantError  string
	}{
		{
			name:   "passes JSON through",
			method: http.MethodGet,
			upstream: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`[{"id":1,"name":"dummy"}]`))
			},
			wantStatus: http.StatusOK,
			wantBody:   `[{"id":1,"name":"dummy"}]`,
		},
		{
			name:       "rejects POST",
			method:     http.MethodPost,
			wantStatus: http.StatusMethodNotAllowed,
			wantError:  "Method not allowed",
		},
		{
			name:   "mirrors upstream status",
			method: http.MethodGet,
			upstream: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusServiceUnavailable)
			},
			wantStatus: http.StatusServiceUnavailable,
			wantError:  "Error fetching the REST API, received status code: 503",
		},
		{
			name:       "upstream down",
			method:     http.MethodGet,
			down:       true,
			wantStatus: http.StatusInternalServerError,
			wantError:  "Error fetching dummy data",
		},
		{
			name:   "non JSON body",
			method: http.MethodGet,
			upstream: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`<html>`))
			},
			wantStatus: http.StatusInternalServerError,
			wantError:  "Error fetching dummy data",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := tt.upstream
			if h == nil {
				h = func(w http.ResponseWriter, r *http.Request) {
					t.Error("upstream should not be called")
				}
			}
			upstream := httptest.NewServer(h)
			defer upstream.Close()
			if tt.down {
				upstream.Close()
			}

			p := NewDummyData(upstream.URL, nil, nil)
			req := httptest.NewRequest(tt.method, "/api/fetchdummydata", nil)
			w := httptest.NewRecorder()
			p.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
			if tt.wantError != "" {
				var body errorBody
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.Equal(t, tt.wantError, body.Error)
			}
		})
	}
}

func TestDummyData_Rows(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"name":"a","id":1},{"name":"b","id":2}]`))
	}))
	defer upstream.Close()

	cols, rows, err := NewDummyData(upstream.URL, upstream.Client(), nil).Rows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, cols)
	require.Len(t, rows, 2)
	assert.Equal(t, "b", rows[1]["name"])
}

func TestDummyData_FetchStatusError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer upstream.Close()

	_, err := NewDummyData(upstream.URL, nil, nil).Fetch(context.Background())
	var statusErr *UpstreamStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Status)
}
