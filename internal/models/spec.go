package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DataType is the value type of a specification
type DataType string

const (
	DataTypeText    DataType = "text"
	DataTypeBoolean DataType = "boolean"
	DataTypeNumber  DataType = "number"
	DataTypeDate    DataType = "date"
	DataTypeTime    DataType = "time"
)

// DataTypes lists every supported data type in display order
var DataTypes = []DataType{DataTypeText, DataTypeBoolean, DataTypeNumber, DataTypeDate, DataTypeTime}

// aliases maps the labels used by the catalog backend and older forms
var dataTypeAliases = map[string]DataType{
	"text":    DataTypeText,
	"tekst":   DataTypeText,
	"string":  DataTypeText,
	"boolean": DataTypeBoolean,
	"bool":    DataTypeBoolean,
	"number":  DataTypeNumber,
	"getal":   DataTypeNumber,
	"int":     DataTypeNumber,
	"date":    DataTypeDate,
	"datum":   DataTypeDate,
	"time":    DataTypeTime,
	"tijd":    DataTypeTime,
}

// ParseDataType resolves a data type name or alias, case-insensitively
func ParseDataType(s string) (DataType, error) {
	if dt, ok := dataTypeAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return dt, nil
	}
	return "", fmt.Errorf("unknown data type %q", s)
}

// UnmarshalJSON normalizes aliases; unknown values decode as text.
func (dt *DataType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDataType(s)
	if err != nil {
		parsed = DataTypeText
	}
	*dt = parsed
	return nil
}

var (
	dateLayouts = []string{"2006-01-02", "02-01-2006"}
	timeLayouts = []string{"15:04", "15:04:05"}
)

// ValidateValue checks that value is a valid literal for the data type.
// Empty values are always accepted.
func (dt DataType) ValidateValue(value string) error {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	switch dt {
	case DataTypeBoolean:
		if _, err := strconv.ParseBool(v); err != nil {
			return fmt.Errorf("%q is not a boolean", value)
		}
	case DataTypeNumber:
		if _, err := strconv.ParseFloat(strings.Replace(v, ",", ".", 1), 64); err != nil {
			return fmt.Errorf("%q is not a number", value)
		}
	case DataTypeDate:
		if !parsesWithAny(v, dateLayouts) {
			return fmt.Errorf("%q is not a date", value)
		}
	case DataTypeTime:
		if !parsesWithAny(v, timeLayouts) {
			return fmt.Errorf("%q is not a time", value)
		}
	}
	return nil
}

func parsesWithAny(v string, layouts []string) bool {
	for _, l := range layouts {
		if _, err := time.Parse(l, v); err == nil {
			return true
		}
	}
	return false
}

// Specification is a user defined attribute attached to a device
type Specification struct {
	SpecName string   `json:"specName"`
	DataType DataType `json:"dataType"`
	Value    string   `json:"value"`
}

// SpecDefinition is a known specification name with its data type
type SpecDefinition struct {
	SpecName string   `json:"specName"`
	DataType DataType `json:"dataType"`
}
