package report

import (
	"strings"
	"testing"

	"facturaocr/pkg/extract"
)

func TestFormatLayout(t *testing.T) {
	raw := "Neto Gravado: 123456\n30-12345678-9"
	f := extract.Extract(raw, extract.StandardInvoice)
	got := Format(f, raw, extract.StandardInvoice)
	want := "=== DATOS EXTRAÍDOS (Factura / Comprobante) ===\n" +
		"Fecha de Comprobante: No encontrado\n" +
		"Pto. de Venta: No encontrado\n" +
		"Nro. Comprobante: No encontrado\n" +
		"CUIT Remitente: 30123456789\n" +
		"CUIT Destinatario: No encontrado\n" +
		"Base Imponible: 123456\n" +
		"\n" +
		"----------------------------------------\n" +
		"--- TEXTO COMPLETO ---\n" +
		raw
	if got != want {
		t.Fatalf("unexpected report:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatWaybillHeader(t *testing.T) {
	raw := "CTG: 99887766"
	f := extract.Extract(raw, extract.Waybill)
	got := Format(f, raw, extract.Waybill)
	if !strings.HasPrefix(got, "=== DATOS EXTRAÍDOS (Carta de Porte Electrónica) ===\nFecha de Comprobante: No encontrado\nCTG: 99887766\n") {
		t.Fatalf("unexpected waybill header:\n%s", got)
	}
	if !strings.HasSuffix(got, "--- TEXTO COMPLETO ---\n"+raw) {
		t.Fatalf("raw text not appended verbatim:\n%s", got)
	}
	if strings.Count(got, "\n") != 1+len(extract.Schema(extract.Waybill))+3 {
		t.Fatalf("unexpected line count in:\n%s", got)
	}
}

func TestFormatIdempotent(t *testing.T) {
	raw := "FACTURA\n00042-12345678\n"
	f := extract.Extract(raw, extract.StandardInvoice)
	before := f.Pairs()
	a := Format(f, raw, extract.StandardInvoice)
	b := Format(f, raw, extract.StandardInvoice)
	if a != b {
		t.Fatalf("format not idempotent")
	}
	after := f.Pairs()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("fields mutated at %d: %v -> %v", i, before[i], after[i])
		}
	}
}

func TestFormatNilFields(t *testing.T) {
	got := Format(nil, "", extract.Waybill)
	if strings.Count(got, extract.NotFound) != len(extract.Schema(extract.Waybill)) {
		t.Fatalf("nil record should render sentinels:\n%s", got)
	}
}
