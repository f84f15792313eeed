package models

import "encoding/json"

// Device is a piece of hardware in the catalog
type Device struct {
	ID              int64           `json:"id"`
	Type            string          `json:"type"`
	BrandName       string          `json:"brandName"`
	Model           string          `json:"model"`
	SerialNumber    string          `json:"serialNumber"`
	InvoiceNumber   string          `json:"invoiceNumber"`
	LocationName    string          `json:"locationName"`
	LocationCity    string          `json:"locationCity"`
	LocationAddress string          `json:"locationAddress"`
	Specs           []Specification `json:"specs"`
}

// Location is the nested location object some backend versions return
type Location struct {
	Name    string `json:"name"`
	City    string `json:"city"`
	Address string `json:"address"`
}

// UnmarshalJSON accepts both the flat location fields and a nested
// "location" object.
func (d *Device) UnmarshalJSON(data []byte) error {
	type plain Device
	aux := struct {
		*plain
		Location *Location `json:"location"`
	}{plain: (*plain)(d)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Location != nil {
		if d.LocationName == "" {
			d.LocationName = aux.Location.Name
		}
		if d.LocationCity == "" {
			d.LocationCity = aux.Location.City
		}
		if d.LocationAddress == "" {
			d.LocationAddress = aux.Location.Address
		}
	}
	return nil
}

// Spec returns the specification with the given name
func (d Device) Spec(name string) (Specification, bool) {
	for _, s := range d.Specs {
		if s.SpecName == name {
			return s, true
		}
	}
	return Specification{}, false
}

// Label is the short human readable name used in select boxes and labels
func (d Device) Label() string {
	return d.Type + " - " + d.BrandName + " - " + d.Model
}

// DeviceTypes are the values accepted by editors that constrain the type field
var DeviceTypes = []string{
	"Laptop",
	"Desktop",
	"Monitor",
	"Phone",
	"Tablet",
	"Printer",
	"Accessory",
	"Other",
}

// IsValidDeviceType checks if t is one of DeviceTypes
func IsValidDeviceType(t string) bool {
	for _, v := range DeviceTypes {
		if v == t {
			return true
		}
	}
	return false
}
