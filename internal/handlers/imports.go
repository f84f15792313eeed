package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/auth"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/backend"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/pkg/importer"
)

// RequestError is an upload the handler refused before importing anything
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

func badRequest(format string, args ...any) error {
	return &RequestError{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// ImportsHandler handles Excel import operations
type ImportsHandler struct {
	Client     *backend.Client
	MaxBytes   int64
	DefaultMap string
	Logger     *zap.Logger
}

// NewImportsHandler creates a new imports handler that creates devices
// through client with the mapping file at mapping
func NewImportsHandler(client *backend.Client, mapping string, logger *zap.Logger) *ImportsHandler {
	if mapping == "" {
		mapping = importer.DefaultMappingPath
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportsHandler{
		Client:     client,
		MaxBytes:   20 << 20, // 20 MB
		DefaultMap: mapping,
		Logger:     logger,
	}
}

// Import reads the multipart upload of r and imports it as the session of
// the request. Problems with the upload itself are returned as *RequestError.
func (h *ImportsHandler) Import(w http.ResponseWriter, r *http.Request) (importer.ImportSummary, error) {
	// Limit body size
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)

	// Require multipart
	if !strings.Contains(r.Header.Get("Content-Type"), "multipart/form-data") {
		return importer.ImportSummary{}, badRequest("content-type must be multipart/form-data")
	}

	if err := r.ParseMultipartForm(h.MaxBytes); err != nil {
		return importer.ImportSummary{}, badRequest("invalid multipart form: %v", err)
	}

	sess, ok := auth.SessionFromContext(r.Context())
	if !ok {
		return importer.ImportSummary{}, &RequestError{Status: http.StatusUnauthorized, Message: "session required"}
	}

	dryRun := r.FormValue("dry_run") == "true" || r.FormValue("dry_run") == "on"
	maxErrors := importer.DefaultMaxErrors
	if v := r.FormValue("max_errors"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return importer.ImportSummary{}, badRequest("max_errors must be a positive integer")
		}
		maxErrors = n
	}

	// File
	file, header, err := r.FormFile("file")
	if err != nil {
		return importer.ImportSummary{}, badRequest("file is required: %v", err)
	}
	defer file.Close()

	if !isXLSX(header) {
		return importer.ImportSummary{}, badRequest("only .xlsx files are accepted")
	}

	h.Logger.Info("importing devices",
		zap.String("file", header.Filename),
		zap.Bool("dry_run", dryRun),
		zap.String("user", sess.Email),
	)
	return importer.ImportExcel(r.Context(), h.Client.ForSession(sess), file, importer.ImportOptions{
		MappingPath: h.DefaultMap,
		DryRun:      dryRun,
		MaxErrors:   maxErrors,
	})
}

// UploadExcel handles Excel file uploads for device import and answers JSON
func (h *ImportsHandler) UploadExcel(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Import(w, r)

	var reqErr *RequestError
	switch {
	case errors.As(err, &reqErr):
		auth.SendError(w, reqErr.Message, "INVALID_UPLOAD", reqErr.Status)
		return
	case errors.Is(err, backend.ErrUnauthorized):
		auth.SendError(w, "Authentication required", "BACKEND_UNAUTHORIZED", http.StatusUnauthorized)
		return
	case err != nil:
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":   "IMPORT_FAILED",
			"details": err.Error(),
			"data":    sum, // might include partial
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": sum,
		"meta": map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	})
}

// isXLSX checks if the uploaded file is an Excel .xlsx file
func isXLSX(h *multipart.FileHeader) bool {
	return strings.HasSuffix(strings.ToLower(h.Filename), ".xlsx")
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
