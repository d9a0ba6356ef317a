package extract

// NotFound marks a field whose rule cascade produced no match.
const NotFound = "No encontrado"

// DocumentType selects the field schema and ruleset.
type DocumentType int

const (
	StandardInvoice DocumentType = iota
	Waybill
)

// String returns the label printed in report headers.
func (d DocumentType) String() string {
	if d == Waybill {
		return "Carta de Porte Electrónica"
	}
	return "Factura / Comprobante"
}

// Field names, as they appear in reports.
const (
	FieldDate        = "Fecha de Comprobante"
	FieldCTG         = "CTG"
	FieldPointOfSale = "Pto. de Venta"
	FieldVoucher     = "Nro. Comprobante"
	FieldSender      = "CUIT Remitente"
	FieldRecipient   = "CUIT Destinatario"
	FieldDestination = "CUIT Destino"
	FieldTaxBase     = "Base Imponible"
	FieldTariff      = "Base Imponible / Tarifa"
)

var (
	invoiceSchema = []string{FieldDate, FieldPointOfSale, FieldVoucher, FieldSender, FieldRecipient, FieldTaxBase}
	waybillSchema = []string{FieldDate, FieldCTG, FieldPointOfSale, FieldVoucher, FieldSender, FieldRecipient, FieldDestination, FieldTariff}
)

// Schema returns the ordered field names for a document type.
func Schema(d DocumentType) []string {
	src := invoiceSchema
	if d == Waybill {
		src = waybillSchema
	}
	return append([]string(nil), src...)
}

// Fields is an ordered record holding every schema field of one document.
// Fields never lacks a schema key; unmatched ones hold NotFound.
type Fields struct {
	docType DocumentType
	keys    []string
	values  map[string]string
}

// NewFields returns a record with every field of d set to NotFound.
func NewFields(d DocumentType) *Fields {
	keys := Schema(d)
	values := make(map[string]string, len(keys))
	for _, k := range keys {
		values[k] = NotFound
	}
	return &Fields{docType: d, keys: keys, values: values}
}

// Type returns the document type the record was built for.
func (f *Fields) Type() DocumentType { return f.docType }

// Keys returns field names in schema order.
func (f *Fields) Keys() []string { return append([]string(nil), f.keys...) }

// Get returns the value of name, or NotFound for names outside the schema.
func (f *Fields) Get(name string) string {
	if v, ok := f.values[name]; ok {
		return v
	}
	return NotFound
}

// Found reports whether name holds an extracted value.
func (f *Fields) Found(name string) bool { return f.Get(name) != NotFound }

// set ignores names outside the schema and empty values so the key set and
// the sentinel rule cannot be broken.
func (f *Fields) set(name, value string) {
	if _, ok := f.values[name]; !ok || value == "" {
		return
	}
	f.values[name] = value
}

// Pairs returns name/value pairs in schema order.
func (f *Fields) Pairs() [][2]string {
	out := make([][2]string, 0, len(f.keys))
	for _, k := range f.keys {
		out = append(out, [2]string{k, f.values[k]})
	}
	return out
}

// Equal reports whether two records carry the same type, keys and values.
func (f *Fields) Equal(o *Fields) bool {
	if f == nil || o == nil {
		return f == o
	}
	if f.docType != o.docType || len(f.keys) != len(o.keys) {
		return false
	}
	for i, k := range f.keys {
		if o.keys[i] != k || o.values[k] != f.values[k] {
			return false
		}
	}
	return true
}
