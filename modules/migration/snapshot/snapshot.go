package snapshot

import (
	"github.com/iota-uz/legacy-import/modules/migration/domain"
)

// Snapshot holds one batch per kind. Kinds whose file was absent are empty batches.
type Snapshot struct {
	Customers      []Customer
	Vendors        []Vendor
	Projects       []Project
	Tasks          []Task
	Milestones     []Milestone
	Estimates      []Estimate
	Invoices       []Invoice
	PurchaseOrders []PurchaseOrder
	VendorQuotes   []VendorQuote
	VendorInvoices []VendorInvoice
	TimeEntries    []TimeEntry
	Expenses       []Expense

	// Files maps each loaded kind to the file it was read from.
	Files map[domain.Kind]string
}

// LegacyIDs returns the legacy ids of the batch for kind, in snapshot order.
func (s *Snapshot) LegacyIDs(kind domain.Kind) []string {
	switch kind {
	case domain.KindCustomers:
		return collect(s.Customers, func(r Customer) string { return r.LegacyID })
	case domain.KindVendors:
		return collect(s.Vendors, func(r Vendor) string { return r.LegacyID })
	case domain.KindProjects:
		return collect(s.Projects, func(r Project) string { return r.LegacyID })
	case domain.KindTasks:
		return collect(s.Tasks, func(r Task) string { return r.LegacyID })
	case domain.KindMilestones:
		return collect(s.Milestones, func(r Milestone) string { return r.LegacyID })
	case domain.KindEstimates:
		return collect(s.Estimates, func(r Estimate) string { return r.LegacyID })
	case domain.KindInvoices:
		return collect(s.Invoices, func(r Invoice) string { return r.LegacyID })
	case domain.KindPurchaseOrders:
		return collect(s.PurchaseOrders, func(r PurchaseOrder) string { return r.LegacyID })
	case domain.KindVendorQuotes:
		return collect(s.VendorQuotes, func(r VendorQuote) string { return r.LegacyID })
	case domain.KindVendorInvoices:
		return collect(s.VendorInvoices, func(r VendorInvoice) string { return r.LegacyID })
	case domain.KindTimeEntries:
		return collect(s.TimeEntries, func(r TimeEntry) string { return r.LegacyID })
	case domain.KindExpenses:
		return collect(s.Expenses, func(r Expense) string { return r.LegacyID })
	default:
		return nil
	}
}

// Codes returns the human-facing codes that must be unique within the batch for kind: party and
// project codes, and preferred numbers for documents. Kinds without codes return nil.
func (s *Snapshot) Codes(kind domain.Kind) []string {
	switch kind {
	case domain.KindCustomers:
		return collect(s.Customers, func(r Customer) string { return r.Code })
	case domain.KindVendors:
		return collect(s.Vendors, func(r Vendor) string { return r.Code })
	case domain.KindProjects:
		return collect(s.Projects, func(r Project) string { return r.Code })
	case domain.KindEstimates:
		return collect(s.Estimates, func(r Estimate) string { return r.PreferredNumber })
	case domain.KindInvoices:
		return collect(s.Invoices, func(r Invoice) string { return r.PreferredNumber })
	case domain.KindPurchaseOrders:
		return collect(s.PurchaseOrders, func(r PurchaseOrder) string { return r.PreferredNumber })
	case domain.KindVendorQuotes:
		return collect(s.VendorQuotes, func(r VendorQuote) string { return r.PreferredNumber })
	case domain.KindVendorInvoices:
		return collect(s.VendorInvoices, func(r VendorInvoice) string { return r.PreferredNumber })
	default:
		return nil
	}
}

// LineCounts returns, per legacy id, how many lines each document of kind carries.
func (s *Snapshot) LineCounts(kind domain.Kind) map[string]int {
	out := make(map[string]int)
	switch kind {
	case domain.KindEstimates:
		for _, r := range s.Estimates {
			out[r.LegacyID] = len(r.Lines)
		}
	case domain.KindInvoices:
		for _, r := range s.Invoices {
			out[r.LegacyID] = len(r.Lines)
		}
	case domain.KindPurchaseOrders:
		for _, r := range s.PurchaseOrders {
			out[r.LegacyID] = len(r.Lines)
		}
	case domain.KindVendorQuotes:
		for _, r := range s.VendorQuotes {
			out[r.LegacyID] = len(r.Lines)
		}
	case domain.KindVendorInvoices:
		for _, r := range s.VendorInvoices {
			out[r.LegacyID] = len(r.Lines)
		}
	}
	return out
}

func (s *Snapshot) Len(kind domain.Kind) int {
	return len(s.LegacyIDs(kind))
}

func collect[T any](rows []T, fn func(T) string) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = fn(r)
	}
	return out
}
