package extract

import "strings"

// waybillMarkers are matched case-sensitively; any one of them is enough.
var waybillMarkers = []string{"Carta de Porte", "CPE", "CTG"}

// Classify decides which schema applies to raw OCR text.
func Classify(text string) DocumentType {
	for _, m := range waybillMarkers {
		if strings.Contains(text, m) {
			return Waybill
		}
	}
	return StandardInvoice
}
