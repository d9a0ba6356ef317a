package extract

var (
	waybillDate   = pattern("fecha", `Fecha:\s*(\d{2}/\d{2}/\d{4})`)
	waybillCTG    = pattern("ctg", `CTG:\s*(\d+)`)
	waybillNumber = cascade{
		pattern("labelled cpe", `(?:N[°º]\s*CPE|CPE)[:\s]*(\d{5})-(\d{8})`),
		pattern("bare cpe", `(\d{5})-(\d{8})`),
	}
	waybillSender      = pattern("titular", `(?:Titular\s+Carta\s+de\s+Porte|Remitente\s+Comercial\s+Productor)[:\s]*(`+cuitExpr+`)`)
	waybillRecipient   = pattern("destinatario", `Destinatario[:\s]*(`+cuitExpr+`)`)
	waybillDestination = pattern("destino", `Destino[:\s]*(`+cuitExpr+`)`)
	waybillTariff      = pattern("tarifa", `Tarifa:\s*(\d+)`)
)

func (e *Extractor) extractWaybill(text string, f *Fields) {
	if caps, ok := waybillDate.Match(text); ok {
		f.set(FieldDate, caps[0])
	}
	if caps, ok := waybillCTG.Match(text); ok {
		f.set(FieldCTG, caps[0])
	}
	if caps, ok := waybillNumber.resolve(text); ok {
		f.set(FieldPointOfSale, caps[0])
		f.set(FieldVoucher, caps[1])
	}
	for field, r := range map[string]Rule{
		FieldSender:      waybillSender,
		FieldRecipient:   waybillRecipient,
		FieldDestination: waybillDestination,
	} {
		if caps, ok := r.Match(text); ok {
			f.set(field, cuitDigits(caps[0]))
		}
	}
	if caps, ok := waybillTariff.Match(text); ok {
		f.set(FieldTariff, caps[0])
	}
}
