package views

import (
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/listview"
	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/models"
)

// BorrowStatuses is the table of borrow requests
var BorrowStatuses = listview.View[models.BorrowStatus]{
	Name: "borrowedstatus",
	SearchFields: []func(models.BorrowStatus) []string{
		func(b models.BorrowStatus) []string {
			return []string{
				b.User.Name,
				b.Device.Type,
				b.Device.BrandName,
				string(b.Status),
				b.Status.Label(),
				b.BorrowDate.Display(),
			}
		},
	},
	Columns: []listview.Column[models.BorrowStatus]{
		{Key: "user.name", Label: "Naam", Value: func(b models.BorrowStatus) any { return b.User.Name }},
		{Key: "device.type", Label: "Type", Value: func(b models.BorrowStatus) any { return b.Device.Type }},
		{Key: "device.brandName", Label: "Merk", Value: func(b models.BorrowStatus) any { return b.Device.BrandName }},
		{Key: "status", Label: "Status", Value: func(b models.BorrowStatus) any { return string(b.Status) }},
		{Key: "borrowDate", Label: "Datum", Value: func(b models.BorrowStatus) any { return b.BorrowDate.Time }},
	},
	RowsOptions: []int{5, 10, 15},
	DefaultRows: 5,
	DefaultSort: listview.Sort{Column: "user.name", Direction: listview.Ascending},
	EmptyText:   BorrowEmptyText,
}
