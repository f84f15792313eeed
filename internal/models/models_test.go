package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDataType(t *testing.T) {
	tests := []struct {
		in      string
		want    DataType
		wantErr bool
	}{
		{"text", DataTypeText, false},
		{"Tekst", DataTypeText, false},
		{"getal", DataTypeNumber, false},
		{" datum ", DataTypeDate, false},
		{"tijd", DataTypeTime, false},
		{"BOOLEAN", DataTypeBoolean, false},
		{"colour", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDataType(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDataType_ValidateValue(t *testing.T) {
	tests := []struct {
		name    string
		dt      DataType
		value   string
		wantErr bool
	}{
		{"empty is always fine", DataTypeNumber, "", false},
		{"text accepts anything", DataTypeText, "16GB", false},
		{"number", DataTypeNumber, "16", false},
		{"number with comma", DataTypeNumber, "15,6", false},
		{"bad number", DataTypeNumber, "sixteen", true},
		{"boolean", DataTypeBoolean, "true", false},
		{"bad boolean", DataTypeBoolean, "ja", true},
		{"iso date", DataTypeDate, "2024-03-01", false},
		{"dutch date", DataTypeDate, "01-03-2024", false},
		{"bad date", DataTypeDate, "March 1st", true},
		{"time", DataTypeTime, "09:30", false},
		{"bad time", DataTypeTime, "25:99", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.dt.ValidateValue(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateValue(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
		})
	}
}

func TestDevice_UnmarshalNestedLocation(t *testing.T) {
	raw := `{"id":7,"type":"Laptop","brandName":"Apple","location":{"name":"HQ","city":"Groningen","address":"Ubbo Emmiusstraat 1"},
		"specs":[{"specName":"RAM","dataType":"getal","value":"16"}]}`

	var d Device
	require.NoError(t, json.Unmarshal([]byte(raw), &d))

	assert.Equal(t, int64(7), d.ID)
	assert.Equal(t, "HQ", d.LocationName)
	assert.Equal(t, "Groningen", d.LocationCity)
	assert.Equal(t, "Ubbo Emmiusstraat 1", d.LocationAddress)
	require.Len(t, d.Specs, 1)
	assert.Equal(t, DataTypeNumber, d.Specs[0].DataType)

	spec, ok := d.Spec("RAM")
	assert.True(t, ok)
	assert.Equal(t, "16", spec.Value)
}

func TestBorrowStatus_Unmarshal(t *testing.T) {
	raw := `[{"id":1,"user":{"name":"Anna","email":"anna@example.com"},"status":"Wachten op goedkeuring","borrowDate":"2024-05-03"},
		{"id":2,"status":"Afgewezen","borrowDate":"2024-05-04T10:00:00Z"}]`

	var statuses []BorrowStatus
	require.NoError(t, json.Unmarshal([]byte(raw), &statuses))
	require.Len(t, statuses, 2)

	assert.Equal(t, BorrowPending, statuses[0].Status)
	assert.Equal(t, "03-05-2024", statuses[0].BorrowDate.Display())
	assert.True(t, statuses[0].CanApprove())
	assert.True(t, statuses[0].CanReject())
	assert.False(t, statuses[0].CanDelete())

	assert.Equal(t, "Wachten op goedkeuring", statuses[0].Status.Label())

	assert.Equal(t, BorrowRejected, statuses[1].Status)
	assert.True(t, statuses[1].CanDelete())
	assert.False(t, statuses[1].CanApprove())
}

func TestDate_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "plain date", raw: `"2024-05-03"`, want: "03-05-2024"},
		{name: "epoch millis", raw: `1714732800000`, want: "03-05-2024"},
		{name: "null", raw: `null`, want: ""},
		{name: "empty string", raw: `""`, want: ""},
		{name: "boolean", raw: `true`, wantErr: true},
		{name: "garbage string", raw: `"gisteren"`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			err := json.Unmarshal([]byte(tt.raw), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.Display())
		})
	}
}

func TestBorrowStatus_UnmarshalEpochDate(t *testing.T) {
	var statuses []BorrowStatus
	require.NoError(t, json.Unmarshal([]byte(`[{"id":3,"status":"Pending","borrowDate":1714732800000}]`), &statuses))
	require.Len(t, statuses, 1)
	assert.Equal(t, time.Date(2024, 5, 3, 10, 40, 0, 0, time.UTC), statuses[0].BorrowDate.Time)
}

func TestIsValidDeviceType(t *testing.T) {
	assert.True(t, IsValidDeviceType("Laptop"))
	assert.False(t, IsValidDeviceType("laptop"))
	assert.False(t, IsValidDeviceType(""))
}
