package extract

import "regexp"

const cuitExpr = `\d{2}-?\d{8}-?\d`

var (
	invoiceDate = cascade{
		pattern("labelled date", `(?:Fecha|Emisi[oó]n)(?:\s+de)?(?:\s+Emisi[oó]n)?[:\s]*(\d{2}[/-]\d{2}[/-]\d{4})`),
		pattern("first date", `(\d{2}[/-]\d{2}[/-]\d{4})`),
	}
	invoiceNumber      = pattern("pos-voucher", `(\d{4,5})-(\d{8})`)
	invoicePointOfSale = pattern("point of sale", `(?:Punto\s+de\s+Venta|P\.\s?V\.|P\.\s?Venta)[:\s]*(\d+)`)
	invoiceVoucher     = pattern("voucher", `(?:Comp\.?\s*Nro\.?|Comprobante\s*Nro\.?|Nro\.?\s*Comprobante)[:\s]*(\d+)`)
	invoiceTaxBase     = cascade{
		accept(pattern("neto", `(?:Neto\s+Gravado|Neto|Subtotal|Gravado).*?[:\$]?\s*([\d.,]+)`), isAmount),
		accept(pattern("total neto", `TOTAL\s+NETO.*?[:\$]?\s*([\d.,]+)`), isAmount),
	}

	cuitRE         = regexp.MustCompile(cuitExpr)
	grossReceiptRE = regexp.MustCompile(`(?i)(?:Ingresos\s+Brutos|Ing\.?\s*Brutos|IIBB)[:\s]*(` + cuitExpr + `|\d{9,11})`)
)

// isAmount rejects short numbers such as page counts posing as totals.
func isAmount(v string) bool { return len(onlyDigits(v)) > 4 }

func (e *Extractor) extractInvoice(text string, f *Fields) {
	if caps, ok := invoiceDate.resolve(text); ok {
		f.set(FieldDate, caps[0])
	}

	if caps, ok := invoiceNumber.Match(text); ok {
		f.set(FieldPointOfSale, trimZeros(caps[0]))
		f.set(FieldVoucher, caps[1])
	} else {
		if caps, ok := invoicePointOfSale.Match(text); ok {
			f.set(FieldPointOfSale, trimZeros(caps[0]))
		}
		if caps, ok := invoiceVoucher.Match(text); ok {
			f.set(FieldVoucher, caps[0])
		}
	}

	ids := e.taxIDs(text)
	if len(ids) >= 1 {
		f.set(FieldSender, ids[0])
	}
	if len(ids) >= 2 {
		f.set(FieldRecipient, ids[1])
	}

	if caps, ok := invoiceTaxBase.resolve(text); ok {
		f.set(FieldTaxBase, caps[0])
	}
}

// taxIDs returns every distinct CUIT in order of first appearance, hyphens
// removed. With excludeGrossReceipts the occurrence labelled as a gross
// receipts registration is skipped; the same number elsewhere still counts.
func (e *Extractor) taxIDs(text string) []string {
	skip := [2]int{-1, -1}
	if e.excludeGrossReceipts {
		if m := grossReceiptRE.FindStringSubmatchIndex(text); m != nil {
			skip = [2]int{m[2], m[3]}
		}
	}
	var out []string
	seen := map[string]struct{}{}
	for _, loc := range cuitRE.FindAllStringIndex(text, -1) {
		if loc[0] < skip[1] && skip[0] < loc[1] {
			continue
		}
		id := cuitDigits(text[loc[0]:loc[1]])
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
