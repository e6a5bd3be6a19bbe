package services

import (
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

const defaultCurrency = money.USD

// enumField is a tolerated field: unknown or missing values fall back to a default
// instead of failing the record.
type enumField struct {
	allowed  map[string]struct{}
	fallback string
}

func newEnum(fallback string, values ...string) enumField {
	allowed := make(map[string]struct{}, len(values))
	for _, v := range values {
		allowed[v] = struct{}{}
	}
	return enumField{allowed: allowed, fallback: fallback}
}

func (e enumField) normalize(raw string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	v = strings.NewReplacer(" ", "_", "-", "_").Replace(v)
	if _, ok := e.allowed[v]; ok {
		return v
	}
	return e.fallback
}

var (
	partyStatus         = newEnum("active", "active", "inactive")
	projectStatus       = newEnum("active", "planned", "active", "on_hold", "completed", "cancelled")
	taskStatus          = newEnum("todo", "todo", "in_progress", "blocked", "done")
	taskPriority        = newEnum("normal", "low", "normal", "high", "urgent")
	milestoneStatus     = newEnum("pending", "pending", "reached", "invoiced")
	estimateStatus      = newEnum("draft", "draft", "sent", "accepted", "rejected")
	invoiceStatus       = newEnum("draft", "draft", "issued", "paid", "void")
	purchaseOrderStatus = newEnum("draft", "draft", "ordered", "received", "closed", "cancelled")
	vendorQuoteStatus   = newEnum("received", "received", "accepted", "declined")
	vendorInvoiceStatus = newEnum("received", "received", "approved", "paid", "disputed")
	timeEntryStatus     = newEnum("submitted", "draft", "submitted", "approved")
	expenseCategory     = newEnum("other", "materials", "travel", "equipment", "subcontract", "other")
	expenseStatus       = newEnum("pending", "pending", "approved", "reimbursed", "rejected")
)

// normalizeCurrency upper-cases an ISO-4217 code and falls back to USD for anything unknown.
func normalizeCurrency(raw string) string {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" || money.GetCurrency(code) == nil {
		return defaultCurrency
	}
	return code
}

// roundMoney rounds an amount to the minor unit of its currency.
func roundMoney(v decimal.Decimal, currency string) decimal.Decimal {
	if c := money.GetCurrency(currency); c != nil {
		return v.Round(int32(c.Fraction))
	}
	return v.Round(2)
}
