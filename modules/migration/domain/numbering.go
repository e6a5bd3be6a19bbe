package domain

import "fmt"

var numberPrefixes = map[Kind]string{
	KindEstimates:      "EST",
	KindInvoices:       "INV",
	KindPurchaseOrders: "PO",
	KindVendorQuotes:   "VQ",
	KindVendorInvoices: "VI",
}

// NumberPrefix returns the document number prefix of kind, or "" when kind is not numbered.
func (k Kind) NumberPrefix() string {
	return numberPrefixes[k]
}

// FormatDocumentNumber renders e.g. INV-2024-00042.
func FormatDocumentNumber(kind Kind, period int, seq int64) string {
	return fmt.Sprintf("%s-%04d-%05d", kind.NumberPrefix(), period, seq)
}
