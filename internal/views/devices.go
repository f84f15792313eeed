// Package views defines the tables of the frontend: which fields a search
// looks at, which columns sort and how many rows fit on a page.
package views

import (
	"strings"

	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/listview"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/models"
)

// Placeholder texts of empty tables
const (
	DevicesEmptyText = "Geen rijen om weer te geven"
	BorrowEmptyText  = "Er zijn geen uitgeleende apparaten gevonden"
)

// Devices is the device catalog table
var Devices = listview.View[models.Device]{
	Name: "devices",
	SearchFields: []func(models.Device) []string{
		func(d models.Device) []string {
			return []string{
				d.Type, d.BrandName, d.Model, d.SerialNumber,
				d.InvoiceNumber, d.LocationName, d.LocationCity,
			}
		},
		func(d models.Device) []string {
			out := make([]string, 0, 2*len(d.Specs))
			for _, s := range d.Specs {
				out = append(out, s.SpecName, s.Value)
			}
			return out
		},
	},
	Columns: []listview.Column[models.Device]{
		{Key: "type", Label: "Type", Value: func(d models.Device) any { return d.Type }},
		{Key: "brandName", Label: "Merk", Value: func(d models.Device) any { return d.BrandName }},
		{Key: "model", Label: "Model", Value: func(d models.Device) any { return d.Model }},
		{Key: "serialNumber", Label: "Serienummer", Value: func(d models.Device) any { return d.SerialNumber }},
		{Key: "invoiceNumber", Label: "Factuurnummer", Value: func(d models.Device) any { return d.InvoiceNumber }},
		{Key: "locationName", Label: "Locatie", Value: func(d models.Device) any { return d.LocationName }},
		{Key: "locationCity", Label: "Stad", Value: func(d models.Device) any { return d.LocationCity }},
		{Key: "specs", Label: "Specificaties", Value: func(d models.Device) any { return SpecsSummary(d) }},
	},
	RowsOptions: []int{5, 10, 15},
	DefaultRows: 10,
	EmptyText:   DevicesEmptyText,
}

// SpecsSummary joins a device's specifications as "name: value" pairs
func SpecsSummary(d models.Device) string {
	parts := make([]string, 0, len(d.Specs))
	for _, s := range d.Specs {
		parts = append(parts, s.SpecName+": "+s.Value)
	}
	return strings.Join(parts, ", ")
}
