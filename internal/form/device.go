// Package form holds the state of the device editor between requests.
package form

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/models"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/validation"
)

var (
	ErrUnknownField = errors.New("unknown form field")
	ErrInvalidType  = errors.New("invalid device type")
)

// SpecValueError is a spec value that does not match its data type
type SpecValueError struct {
	Name     string
	DataType models.DataType
	Err      error
}

func (e *SpecValueError) Error() string {
	return fmt.Sprintf("spec %q: %v", e.Name, e.Err)
}

func (e *SpecValueError) Unwrap() error { return e.Err }

// Field names of the device form, in display order
var FieldNames = []string{
	"Type", "Merknaam", "Model", "Serienummer",
	"Factuurnummer", "LocatieNaam", "LocatieStad", "LocatieAdres",
}

// DeviceForm is the editable state of one device
type DeviceForm struct {
	Type          string `validate:"max=100"`
	Merknaam      string `validate:"max=100"`
	Model         string `validate:"max=100"`
	Serienummer   string `validate:"max=100"`
	Factuurnummer string `validate:"max=100"`
	LocatieNaam   string `validate:"max=100"`
	LocatieStad   string `validate:"max=100"`
	LocatieAdres  string `validate:"max=255"`
	Specs         SpecSet `validate:"-"`
}

// NewDeviceForm returns an empty form
func NewDeviceForm() DeviceForm {
	return DeviceForm{}
}

// FromDevice pre-populates a form with an existing device
func FromDevice(d models.Device) DeviceForm {
	return DeviceForm{
		Type:          d.Type,
		Merknaam:      d.BrandName,
		Model:         d.Model,
		Serienummer:   d.SerialNumber,
		Factuurnummer: d.InvoiceNumber,
		LocatieNaam:   d.LocationName,
		LocatieStad:   d.LocationCity,
		LocatieAdres:  d.LocationAddress,
		Specs:         NewSpecSet(d.Specs...),
	}
}

func (f *DeviceForm) field(name string) *string {
	switch name {
	case "Type":
		return &f.Type
	case "Merknaam":
		return &f.Merknaam
	case "Model":
		return &f.Model
	case "Serienummer":
		return &f.Serienummer
	case "Factuurnummer":
		return &f.Factuurnummer
	case "LocatieNaam":
		return &f.LocatieNaam
	case "LocatieStad":
		return &f.LocatieStad
	case "LocatieAdres":
		return &f.LocatieAdres
	}
	return nil
}

// Get returns the value of a scalar field
func (f DeviceForm) Get(name string) string {
	if p := f.field(name); p != nil {
		return *p
	}
	return ""
}

// Set changes a scalar field by its form name
func (f *DeviceForm) Set(name, value string) error {
	p := f.field(name)
	if p == nil {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	*p = value
	return nil
}

// Values returns the form keyed by its own field names
func (f DeviceForm) Values() map[string]any {
	out := make(map[string]any, len(FieldNames)+1)
	for _, n := range FieldNames {
		out[n] = f.Get(n)
	}
	out["specificaties"] = f.Specs.List()
	return out
}

// Payload returns the JSON body the backend expects for a create or update
func (f DeviceForm) Payload() map[string]any {
	return TranslateKeys(f.Values(), TranslationMap)
}

// Device converts the form into a device record
func (f DeviceForm) Device() models.Device {
	return models.Device{
		Type:            f.Type,
		BrandName:       f.Merknaam,
		Model:           f.Model,
		SerialNumber:    f.Serienummer,
		InvoiceNumber:   f.Factuurnummer,
		LocationName:    f.LocatieNaam,
		LocationCity:    f.LocatieStad,
		LocationAddress: f.LocatieAdres,
		Specs:           f.Specs.List(),
	}
}

// Clone returns a copy that shares no state with f
func (f DeviceForm) Clone() DeviceForm {
	cp := f
	cp.Specs = f.Specs.Clone()
	return cp
}

// Validate checks field lengths and spec values against their data types.
// With constrainType the device type must be one of models.DeviceTypes.
func (f DeviceForm) Validate(v *validator.Validate, constrainType bool) error {
	if err := v.Struct(f); err != nil {
		return err
	}
	if constrainType && !models.IsValidDeviceType(f.Type) {
		return ErrInvalidType
	}
	for _, sp := range f.Specs.List() {
		if err := sp.DataType.ValidateValue(sp.Value); err != nil {
			return &SpecValueError{Name: sp.SpecName, DataType: sp.DataType, Err: err}
		}
	}
	return nil
}

var dataTypeHints = map[models.DataType]string{
	models.DataTypeText:    "tekst",
	models.DataTypeBoolean: "true of false",
	models.DataTypeNumber:  "een getal",
	models.DataTypeDate:    "een datum (jjjj-mm-dd)",
	models.DataTypeTime:    "een tijd (uu:mm)",
}

// Message returns the user facing text for an editor error
func Message(err error) string {
	var specErr *SpecValueError
	switch {
	case errors.Is(err, ErrDuplicateSpec):
		return MsgDuplicateSpec
	case errors.Is(err, ErrEmptySpecName):
		return MsgEmptySpecName
	case errors.Is(err, ErrInvalidType):
		return "Kies een geldig apparaattype."
	case errors.As(err, &specErr):
		return fmt.Sprintf("Ongeldige waarde voor %s: verwacht %s.", specErr.Name, dataTypeHints[specErr.DataType])
	}
	return validation.Message(err)
}
