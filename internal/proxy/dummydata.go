// Package proxy forwards the legacy dummy data endpoint to the browser.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"

	"go.uber.org/zap"
)

// DefaultDummyURL is the legacy dummy controller of the catalog backend
const DefaultDummyURL = "http://localhost:8080/api/v1/dummy-controller"

type errorBody struct {
	Error string `json:"error"`
}

// DummyData proxies GET requests to a fixed upstream URL
type DummyData struct {
	upstream string
	client   *http.Client
	logger   *zap.Logger
}

// NewDummyData creates the proxy handler
func NewDummyData(upstream string, client *http.Client, logger *zap.Logger) *DummyData {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DummyData{upstream: upstream, client: client, logger: logger}
}

// UpstreamStatusError is a non-200 answer of the upstream
type UpstreamStatusError struct {
	Status int
}

func (e *UpstreamStatusError) Error() string {
	return fmt.Sprintf("Error fetching the REST API, received status code: %d", e.Status)
}

// Fetch returns the upstream JSON document
func (p *DummyData) Fetch(ctx context.Context) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.upstream, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamStatusError{Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, errors.New("upstream body is not JSON")
	}
	return body, nil
}

// Rows decodes the upstream document as a list of flat records. The column
// order is taken from the first record's keys, sorted.
func (p *DummyData) Rows(ctx context.Context) ([]string, []map[string]any, error) {
	raw, err := p.Fetch(ctx)
	if err != nil {
		return nil, nil, err
	}
	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, nil, fmt.Errorf("decode dummy data: %w", err)
	}
	if len(rows) == 0 {
		return nil, rows, nil
	}
	cols := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols, rows, nil
}

func (p *DummyData) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
		return
	}

	body, err := p.Fetch(r.Context())
	var statusErr *UpstreamStatusError
	switch {
	case errors.As(err, &statusErr):
		p.logger.Info("dummy data upstream returned an error", zap.Int("status", statusErr.Status))
		writeJSON(w, statusErr.Status, errorBody{Error: statusErr.Error()})
		return
	case err != nil:
		p.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (p *DummyData) fail(w http.ResponseWriter, err error) {
	p.logger.Error("fetching dummy data failed", zap.String("url", p.upstream), zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Error fetching dummy data"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
