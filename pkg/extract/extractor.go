package extract

// Extractor turns OCR text into a Fields record. It holds no per-call state,
// so one value can be shared by concurrent callers.
type Extractor struct {
	excludeGrossReceipts bool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithGrossReceiptsExcluded drops a tax ID from the sender/recipient
// candidates where it is labelled as the Ingresos Brutos registration.
func WithGrossReceiptsExcluded() Option {
	return func(e *Extractor) { e.excludeGrossReceipts = true }
}

// New returns an Extractor with the given options.
func New(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, fn := range opts {
		fn(e)
	}
	return e
}

var defaultExtractor = New()

// Extract applies the default ruleset for d to text.
func Extract(text string, d DocumentType) *Fields {
	return defaultExtractor.Extract(text, d)
}

// Extract resolves every schema field of d. Fields without a match keep
// NotFound; malformed input never fails.
func (e *Extractor) Extract(text string, d DocumentType) *Fields {
	f := NewFields(d)
	if d == Waybill {
		e.extractWaybill(text, f)
	} else {
		e.extractInvoice(text, f)
	}
	return f
}
