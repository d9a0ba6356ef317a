package report

import (
	"strings"

	"facturaocr/pkg/extract"
)

// Separator closes the field listing.
var Separator = strings.Repeat("-", 40)

// Format renders the extracted fields followed by the verbatim OCR text:
//
//	=== DATOS EXTRAÍDOS (<type>) ===
//	<Field>: <value>
//
//	----------------------------------------
//	--- TEXTO COMPLETO ---
//	<raw text>
func Format(fields *extract.Fields, rawText string, docType extract.DocumentType) string {
	var b strings.Builder
	b.WriteString("=== DATOS EXTRAÍDOS (")
	b.WriteString(docType.String())
	b.WriteString(") ===\n")
	for _, kv := range fieldPairs(fields, docType) {
		b.WriteString(kv[0])
		b.WriteString(": ")
		b.WriteString(kv[1])
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(Separator)
	b.WriteString("\n--- TEXTO COMPLETO ---\n")
	b.WriteString(rawText)
	return b.String()
}

// fieldPairs lists the schema of docType, taking values from fields. A nil
// or mismatched record renders as sentinels so the layout stays complete.
func fieldPairs(fields *extract.Fields, docType extract.DocumentType) [][2]string {
	if fields != nil && fields.Type() == docType {
		return fields.Pairs()
	}
	return extract.NewFields(docType).Pairs()
}
