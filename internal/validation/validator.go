// Package validation configures the struct validator shared by the forms.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/models"
)

// New creates a validator with the catalog rules registered
func New() *validator.Validate {
	v := validator.New()
	if err := registerRules(v); err != nil {
		panic("register validation rules: " + err.Error())
	}
	return v
}

func registerRules(v *validator.Validate) error {
	if err := v.RegisterValidation("devicetype", isDeviceType); err != nil {
		return err
	}
	if err := v.RegisterValidation("datatype", isDataType); err != nil {
		return err
	}
	return nil
}

// isDeviceType - one of models.DeviceTypes
func isDeviceType(fl validator.FieldLevel) bool {
	return models.IsValidDeviceType(fl.Field().String())
}

// isDataType - a data type name or one of its Dutch aliases
func isDataType(fl validator.FieldLevel) bool {
	_, err := models.ParseDataType(fl.Field().String())
	return err == nil
}

// Message turns validation errors into a Dutch sentence for the user.
// Other errors are returned as their text.
func Message(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fieldMessage(fe))
	}
	return strings.Join(parts, " ")
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is verplicht.", fe.Field())
	case "email":
		return fmt.Sprintf("%s is geen geldig e-mailadres.", fe.Field())
	case "max":
		return fmt.Sprintf("%s mag maximaal %s tekens bevatten.", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s moet groter zijn dan %s.", fe.Field(), fe.Param())
	case "devicetype":
		return fmt.Sprintf("%s is geen bekend apparaattype.", fe.Field())
	case "datatype":
		return fmt.Sprintf("%s is geen bekend gegevenstype.", fe.Field())
	}
	return fmt.Sprintf("%s is ongeldig.", fe.Field())
}
