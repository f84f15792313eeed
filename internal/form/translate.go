package form

// TranslationMap maps the form's field names to the keys the backend expects
var TranslationMap = map[string]string{
	"Type":          "type",
	"Merknaam":      "brandName",
	"Model":         "model",
	"Serienummer":   "serialNumber",
	"Factuurnummer": "invoiceNumber",
	"LocatieNaam":   "locationName",
	"LocatieStad":   "locationCity",
	"LocatieAdres":  "locationAddress",
	"specificaties": "specs",
}

// TranslateKeys returns a copy of obj with every key renamed through
// translation. Keys without a translation are kept as they are.
func TranslateKeys(obj map[string]any, translation map[string]string) map[string]any {
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		if t, ok := translation[k]; ok && t != "" {
			k = t
		}
		out[k] = v
	}
	return out
}
