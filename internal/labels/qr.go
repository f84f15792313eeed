// Package labels renders the QR code stickers put on devices.
package labels

import (
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/MarkStreek/QuintorCatalogFrontEnd/internal/models"
)

// DefaultSize is the edge length of a label in pixels
const DefaultSize = 240

// Content is the text encoded in a device's label: a link to the device in
// the frontend followed by its identifying fields.
func Content(baseURL string, d models.Device) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s/devices/%d/edit\n", strings.TrimRight(baseURL, "/"), d.ID)
	b.WriteString(d.Label())
	if d.SerialNumber != "" {
		fmt.Fprintf(&b, "\nSN: %s", d.SerialNumber)
	}
	return b.String()
}

// PNG renders the label of d as a PNG image of size pixels
func PNG(baseURL string, d models.Device, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultSize
	}
	png, err := qrcode.Encode(Content(baseURL, d), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("encode label for device %d: %w", d.ID, err)
	}
	return png, nil
}
