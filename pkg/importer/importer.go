package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/tealeg/xlsx/v3"
	"gopkg.in/yaml.v3"

	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/backend"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/form"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/models"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/validation"
)

// DefaultMappingPath is the mapping used when ImportOptions names none
const DefaultMappingPath = "configs/mapping/devices.yaml"

// DefaultMaxErrors stops an import after this many failed rows
const DefaultMaxErrors = 50

// ErrTooManyErrors is returned when an import stopped early
var ErrTooManyErrors = errors.New("too many errors")

// DeviceCreator stores one device. The catalog backend client implements it.
type DeviceCreator interface {
	CreateDevice(ctx context.Context, payload any) (string, error)
}

// ImportOptions defines the configuration for Excel import operations
type ImportOptions struct {
	MappingPath string   // default "configs/mapping/devices.yaml"
	Mapping     *Mapping // used instead of MappingPath when set
	DryRun      bool
	MaxErrors   int // default 50
}

// RowError represents an error that occurred during row processing
type RowError struct {
	Sheet   string `json:"sheet"`
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// SheetSummary contains the import statistics for a single sheet
type SheetSummary struct {
	Name    string     `json:"name"`
	Created int        `json:"created"`
	Skipped int        `json:"skipped"`
	Errors  int        `json:"errors"`
	Samples []RowError `json:"error_samples,omitempty"`
}

// ImportSummary contains the overall import statistics
type ImportSummary struct {
	Created int            `json:"created"`
	Skipped int            `json:"skipped"`
	Errors  int            `json:"errors"`
	Sheets  []SheetSummary `json:"sheets"`
	DryRun  bool           `json:"dry_run"`
}

// ErrorSamples returns the row errors of all sheets
func (s ImportSummary) ErrorSamples() []RowError {
	var out []RowError
	for _, sh := range s.Sheets {
		out = append(out, sh.Samples...)
	}
	return out
}

// Mapping represents the YAML mapping configuration
type Mapping struct {
	Version  int                    `yaml:"version"`
	Defaults map[string]string      `yaml:"defaults"`
	Sheets   map[string]SheetConfig `yaml:"sheets"`
}

// SheetConfig maps the headers of one sheet onto the device form.
// Aliases is keyed by form field (Type, Merknaam, ...); the field name itself
// always matches too. Specs is keyed by header. Defaults override the
// mapping wide defaults.
type SheetConfig struct {
	Defaults map[string]string     `yaml:"defaults"`
	Aliases  map[string][]string   `yaml:"aliases"`
	Specs    map[string]SpecColumn `yaml:"specs"`
	Required []string              `yaml:"required"`
}

// SpecColumn turns a column into a specification
type SpecColumn struct {
	Spec     string `yaml:"spec"`
	DataType string `yaml:"data_type"`
}

// LoadMapping reads a mapping file
func LoadMapping(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}
	return ParseMapping(data)
}

// ParseMapping decodes and checks a YAML mapping
func ParseMapping(data []byte) (*Mapping, error) {
	var m Mapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode mapping: %w", err)
	}
	if len(m.Sheets) == 0 {
		return nil, errors.New("mapping defines no sheets")
	}
	for name, sc := range m.Sheets {
		for field := range sc.Aliases {
			if !isFormField(field) {
				return nil, fmt.Errorf("sheet %s: unknown field %q", name, field)
			}
		}
		for field := range sc.Defaults {
			if !isFormField(field) {
				return nil, fmt.Errorf("sheet %s: unknown default field %q", name, field)
			}
		}
		for _, field := range sc.Required {
			if !isFormField(field) {
				return nil, fmt.Errorf("sheet %s: unknown required field %q", name, field)
			}
		}
		for header, col := range sc.Specs {
			if strings.TrimSpace(col.Spec) == "" {
				return nil, fmt.Errorf("sheet %s: column %q has no spec name", name, header)
			}
			if _, err := models.ParseDataType(col.DataType); col.DataType != "" && err != nil {
				return nil, fmt.Errorf("sheet %s: column %q: %w", name, header, err)
			}
		}
	}
	for field := range m.Defaults {
		if !isFormField(field) {
			return nil, fmt.Errorf("defaults: unknown field %q", field)
		}
	}
	return &m, nil
}

func isFormField(name string) bool {
	for _, f := range form.FieldNames {
		if f == name {
			return true
		}
	}
	return false
}

// ImportExcel reads the workbook in r and creates a device for every data
// row of the mapped sheets. Rows are validated before anything is sent; a
// dry run validates only.
func ImportExcel(ctx context.Context, creator DeviceCreator, r io.Reader, opts ImportOptions) (ImportSummary, error) {
	summary := ImportSummary{
		DryRun: opts.DryRun,
		Sheets: []SheetSummary{},
	}

	if opts.MaxErrors == 0 {
		opts.MaxErrors = DefaultMaxErrors
	}

	mapping := opts.Mapping
	if mapping == nil {
		path := opts.MappingPath
		if path == "" {
			path = DefaultMappingPath
		}
		var err error
		if mapping, err = LoadMapping(path); err != nil {
			return summary, fmt.Errorf("failed to load mapping config: %w", err)
		}
	}

	// xlsx.OpenBinary needs the whole workbook in memory
	data, err := io.ReadAll(r)
	if err != nil {
		return summary, fmt.Errorf("failed to read Excel file: %w", err)
	}
	xlFile, err := xlsx.OpenBinary(data)
	if err != nil {
		return summary, fmt.Errorf("failed to open Excel file: %w", err)
	}

	imp := &sheetImporter{
		creator:  creator,
		validate: validation.New(),
		defaults: mapping.Defaults,
		dryRun:   opts.DryRun,
	}

	for _, sheet := range xlFile.Sheets {
		config, exists := mapping.Sheets[sheet.Name]
		if !exists {
			continue
		}

		sheetSummary, err := imp.process(ctx, sheet, config, opts.MaxErrors-summary.Errors)
		summary.Sheets = append(summary.Sheets, sheetSummary)
		summary.Created += sheetSummary.Created
		summary.Skipped += sheetSummary.Skipped
		summary.Errors += sheetSummary.Errors
		if err != nil {
			return summary, err
		}
	}

	return summary, nil
}

type sheetImporter struct {
	creator  DeviceCreator
	validate *validator.Validate
	defaults map[string]string
	dryRun   bool
}

type columns struct {
	fields map[int]string
	specs  map[int]SpecColumn
}

// process imports one sheet, stopping once more than budget rows failed
func (imp *sheetImporter) process(ctx context.Context, sheet *xlsx.Sheet, config SheetConfig, budget int) (SheetSummary, error) {
	summary := SheetSummary{Name: sheet.Name}
	fail := func(row int, msg string) {
		summary.Errors++
		summary.Samples = append(summary.Samples, RowError{Sheet: sheet.Name, Row: row, Message: msg})
	}

	var cols *columns
	err := sheet.ForEachRow(func(row *xlsx.Row) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		cells := readCells(row)
		rowNum := row.GetCoordinate() + 1

		if cols == nil {
			cols = headerColumns(cells, config)
			if len(cols.fields) == 0 && len(cols.specs) == 0 {
				fail(rowNum, "header row matches no mapped column")
				return errStopSheet
			}
			return nil
		}

		if len(cells) == 0 {
			summary.Skipped++
			return nil
		}

		f, err := imp.buildForm(cells, cols, config)
		if err == nil {
			err = f.Validate(imp.validate, false)
		}
		if err == nil && !imp.dryRun {
			_, err = imp.creator.CreateDevice(ctx, f.Payload())
		}
		if err != nil {
			fail(rowNum, rowMessage(err))
			if summary.Errors > budget {
				return fmt.Errorf("%w (%d), stopping import", ErrTooManyErrors, summary.Errors)
			}
			return nil
		}
		summary.Created++
		return nil
	})
	if errors.Is(err, errStopSheet) {
		err = nil
	}
	return summary, err
}

var errStopSheet = errors.New("stop sheet")

// readCells returns the trimmed non-empty cell values of row by column index
func readCells(row *xlsx.Row) map[int]string {
	out := make(map[int]string)
	_ = row.ForEachCell(func(c *xlsx.Cell) error {
		if v := strings.TrimSpace(c.String()); v != "" {
			x, _ := c.GetCoordinates()
			out[x] = v
		}
		return nil
	})
	return out
}

// headerColumns resolves the header row against the sheet configuration.
// Headers are matched case-insensitively.
func headerColumns(cells map[int]string, config SheetConfig) *columns {
	byHeader := make(map[string]string)
	for _, field := range form.FieldNames {
		byHeader[strings.ToUpper(field)] = field
	}
	for field, aliases := range config.Aliases {
		for _, alias := range aliases {
			byHeader[strings.ToUpper(strings.TrimSpace(alias))] = field
		}
	}
	specs := make(map[string]SpecColumn)
	for header, col := range config.Specs {
		specs[strings.ToUpper(strings.TrimSpace(header))] = col
	}

	cols := &columns{fields: make(map[int]string), specs: make(map[int]SpecColumn)}
	for idx, header := range cells {
		key := strings.ToUpper(header)
		if col, ok := specs[key]; ok {
			cols.specs[idx] = col
			continue
		}
		if field, ok := byHeader[key]; ok {
			cols.fields[idx] = field
		}
	}
	return cols
}

func (imp *sheetImporter) buildForm(cells map[int]string, cols *columns, config SheetConfig) (form.DeviceForm, error) {
	f := form.NewDeviceForm()
	for _, defaults := range []map[string]string{imp.defaults, config.Defaults} {
		for field, value := range defaults {
			if err := f.Set(field, value); err != nil {
				return f, err
			}
		}
	}
	for idx, field := range cols.fields {
		if v, ok := cells[idx]; ok {
			if err := f.Set(field, v); err != nil {
				return f, err
			}
		}
	}
	for idx, col := range cols.specs {
		v, ok := cells[idx]
		if !ok {
			continue
		}
		dt := models.DataTypeText
		if col.DataType != "" {
			dt, _ = models.ParseDataType(col.DataType)
		}
		f.Specs.Upsert(col.Spec, dt, normalizeValue(dt, v))
	}
	for _, field := range config.Required {
		if strings.TrimSpace(f.Get(field)) == "" {
			return f, fmt.Errorf("%s is verplicht", field)
		}
	}
	return f, nil
}

// normalizeValue rewrites spreadsheet booleans to true/false
func normalizeValue(dt models.DataType, v string) string {
	if dt != models.DataTypeBoolean {
		return v
	}
	switch strings.ToLower(v) {
	case "yes", "y", "ja", "j", "true", "1", "waar":
		return "true"
	case "no", "n", "nee", "false", "0", "onwaar":
		return "false"
	}
	return v
}

// rowMessage is the text recorded for a failed row: the backend's message
// for rejected devices, the editor's message for invalid values
func rowMessage(err error) string {
	var apiErr *backend.APIError
	var specErr *form.SpecValueError
	var fieldErrs validator.ValidationErrors
	switch {
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.As(err, &specErr), errors.As(err, &fieldErrs):
		return form.Message(err)
	}
	return err.Error()
}
