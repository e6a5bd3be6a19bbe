package domain

import (
	"fmt"
	"strings"
)

// Kind names an entity kind. Batch kinds double as snapshot file names and scope names.
type Kind string

const (
	KindCustomers      Kind = "customers"
	KindVendors        Kind = "vendors"
	KindProjects       Kind = "projects"
	KindTasks          Kind = "tasks"
	KindMilestones     Kind = "milestones"
	KindEstimates      Kind = "estimates"
	KindInvoices       Kind = "invoices"
	KindPurchaseOrders Kind = "purchase_orders"
	KindVendorQuotes   Kind = "vendor_quotes"
	KindVendorInvoices Kind = "vendor_invoices"
	KindTimeEntries    Kind = "time_entries"
	KindExpenses       Kind = "expenses"

	KindEstimateLines      Kind = "estimate_lines"
	KindInvoiceLines       Kind = "invoice_lines"
	KindPurchaseOrderLines Kind = "purchase_order_lines"
	KindVendorQuoteLines   Kind = "vendor_quote_lines"
	KindVendorInvoiceLines Kind = "vendor_invoice_lines"
	KindProjectRooms       Kind = "project_rooms"
)

// Order is the fixed processing order. Every kind appears after the kinds it references,
// except purchase order lines pointing at expenses, which are resolved through the planned set.
var Order = []Kind{
	KindCustomers,
	KindVendors,
	KindProjects,
	KindTasks,
	KindMilestones,
	KindEstimates,
	KindInvoices,
	KindPurchaseOrders,
	KindVendorQuotes,
	KindVendorInvoices,
	KindTimeEntries,
	KindExpenses,
}

var labels = map[Kind]string{
	KindCustomers:          "customer",
	KindVendors:            "vendor",
	KindProjects:           "project",
	KindTasks:              "task",
	KindMilestones:         "milestone",
	KindEstimates:          "estimate",
	KindInvoices:           "invoice",
	KindPurchaseOrders:     "purchase order",
	KindVendorQuotes:       "vendor quote",
	KindVendorInvoices:     "vendor invoice",
	KindTimeEntries:        "time entry",
	KindExpenses:           "expense",
	KindEstimateLines:      "estimate line",
	KindInvoiceLines:       "invoice line",
	KindPurchaseOrderLines: "purchase order line",
	KindVendorQuoteLines:   "vendor quote line",
	KindVendorInvoiceLines: "vendor invoice line",
	KindProjectRooms:       "project room",
}

var lineKinds = map[Kind]Kind{
	KindEstimates:      KindEstimateLines,
	KindInvoices:       KindInvoiceLines,
	KindPurchaseOrders: KindPurchaseOrderLines,
	KindVendorQuotes:   KindVendorQuoteLines,
	KindVendorInvoices: KindVendorInvoiceLines,
}

// Label is the singular human-readable name used in messages.
func (k Kind) Label() string {
	if l, ok := labels[k]; ok {
		return l
	}
	return string(k)
}

func (k Kind) String() string { return string(k) }

// IsBatch reports whether k is one of the snapshot batch kinds.
func (k Kind) IsBatch() bool {
	for _, o := range Order {
		if o == k {
			return true
		}
	}
	return false
}

// LineKind returns the child line kind owned by k, if any.
func (k Kind) LineKind() (Kind, bool) {
	lk, ok := lineKinds[k]
	return lk, ok
}

// ParseScope turns a comma separated allow-list into kinds in processing order.
// An empty allow-list selects every kind.
func ParseScope(raw string) ([]Kind, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return append([]Kind(nil), Order...), nil
	}
	wanted := make(map[Kind]bool)
	for _, part := range strings.Split(raw, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		k := Kind(name)
		if !k.IsBatch() {
			return nil, fmt.Errorf("unknown kind %q (expected one of %s)", name, joinKinds(Order))
		}
		wanted[k] = true
	}
	if len(wanted) == 0 {
		return nil, fmt.Errorf("empty scope")
	}
	out := make([]Kind, 0, len(wanted))
	for _, k := range Order {
		if wanted[k] {
			out = append(out, k)
		}
	}
	return out, nil
}

func joinKinds(kinds []Kind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, ",")
}
