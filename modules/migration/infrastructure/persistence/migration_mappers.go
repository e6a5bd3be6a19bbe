package persistence

import (
	"fmt"
	"strings"

	"github.com/iota-uz/legacy-import/modules/migration/domain"
)

// tableMapping binds a record kind to its table. columns excludes id and parent_id:
// the id is always $1 and the parent link is only written by SetParent.
type tableMapping struct {
	table   string
	columns []string
	values  func(domain.Record) []any
	parent  bool
}

func (m tableMapping) insertSQL() string {
	cols := append([]string{"id"}, m.columns...)
	params := make([]string, len(cols))
	for i := range cols {
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", m.table, strings.Join(cols, ", "), strings.Join(params, ", "))
}

// updateSQL overwrites every mapped column and revives a soft-deleted row.
func (m tableMapping) updateSQL() string {
	sets := make([]string, 0, len(m.columns)+2)
	for i, c := range m.columns {
		sets = append(sets, fmt.Sprintf("%s = $%d", c, i+2))
	}
	sets = append(sets, "updated_at = now()", "deleted_at = NULL")
	return fmt.Sprintf("UPDATE %s SET %s WHERE id = $1", m.table, strings.Join(sets, ", "))
}

func (m tableMapping) args(rec domain.Record) []any {
	return append([]any{pgUUID(rec.RecordID())}, m.values(rec)...)
}

var partyColumns = []string{"legacy_id", "code", "name", "email", "phone", "currency", "status", "external_source", "external_id"}

func partyValues(p domain.Party) []any {
	return []any{p.LegacyID, pgText(p.Code), p.Name, pgText(p.Email), pgText(p.Phone), p.Currency, p.Status, pgText(p.ExternalSource), pgText(p.ExternalID)}
}

func numberValues(n domain.DocumentNumber) []any {
	return []any{n.Value, pgSequence(n.Sequence)}
}

var tables = map[domain.Kind]tableMapping{
	domain.KindCustomers: {
		table:   "customers",
		columns: partyColumns,
		values: func(r domain.Record) []any {
			return partyValues(r.(*domain.Customer).Party)
		},
	},
	domain.KindVendors: {
		table:   "vendors",
		columns: append(append([]string(nil), partyColumns...), "tax_id"),
		values: func(r domain.Record) []any {
			v := r.(*domain.Vendor)
			return append(partyValues(v.Party), pgText(v.TaxID))
		},
	},
	domain.KindProjects: {
		table:   "projects",
		columns: []string{"legacy_id", "code", "name", "customer_id", "status", "start_date", "end_date", "budget", "currency"},
		values: func(r domain.Record) []any {
			p := r.(*domain.Project)
			return []any{p.LegacyID, pgText(p.Code), p.Name, pgNullUUID(p.CustomerID), p.Status, pgDate(p.StartDate), pgDate(p.EndDate), pgNumeric(p.Budget), p.Currency}
		},
		parent: true,
	},
	domain.KindTasks: {
		table:   "tasks",
		columns: []string{"legacy_id", "project_id", "name", "status", "priority", "start_date", "due_date", "estimated_hours", "percent_complete"},
		values: func(r domain.Record) []any {
			t := r.(*domain.Task)
			return []any{t.LegacyID, pgUUID(t.ProjectID), t.Name, t.Status, t.Priority, pgDate(t.StartDate), pgDate(t.DueDate), pgNumeric(t.EstimatedHours), pgFloatNumeric(t.PercentComplete)}
		},
		parent: true,
	},
	domain.KindMilestones: {
		table:   "milestones",
		columns: []string{"legacy_id", "project_id", "name", "amount", "due_date", "status"},
		values: func(r domain.Record) []any {
			m := r.(*domain.Milestone)
			return []any{m.LegacyID, pgUUID(m.ProjectID), m.Name, pgNumeric(m.Amount), pgDate(m.DueDate), m.Status}
		},
	},
	domain.KindEstimates: {
		table: "estimates",
		columns: []string{"legacy_id", "project_id", "number", "number_sequence", "issue_date", "valid_until", "currency",
			"discount_percent", "status", "subtotal", "tax_total", "total"},
		values: func(r domain.Record) []any {
			e := r.(*domain.Estimate)
			out := []any{e.LegacyID, pgUUID(e.ProjectID)}
			out = append(out, numberValues(e.Number)...)
			return append(out, pgDate(e.IssueDate), pgDate(e.ValidUntil), e.Currency, pgFloatNumeric(e.DiscountPercent),
				e.Status, pgNumeric(e.Subtotal), pgNumeric(e.TaxTotal), pgNumeric(e.Total))
		},
	},
	domain.KindInvoices: {
		table: "invoices",
		columns: []string{"legacy_id", "project_id", "estimate_id", "milestone_id", "number", "number_sequence", "issue_date",
			"due_date", "currency", "status", "subtotal", "tax_total", "total"},
		values: func(r domain.Record) []any {
			i := r.(*domain.Invoice)
			out := []any{i.LegacyID, pgUUID(i.ProjectID), pgNullUUID(i.EstimateID), pgNullUUID(i.MilestoneID)}
			out = append(out, numberValues(i.Number)...)
			return append(out, pgDate(i.IssueDate), pgDate(i.DueDate), i.Currency, i.Status,
				pgNumeric(i.Subtotal), pgNumeric(i.TaxTotal), pgNumeric(i.Total))
		},
	},
	domain.KindPurchaseOrders: {
		table:   "purchase_orders",
		columns: []string{"legacy_id", "project_id", "vendor_id", "number", "number_sequence", "order_date", "expected_date", "status", "total"},
		values: func(r domain.Record) []any {
			p := r.(*domain.PurchaseOrder)
			out := []any{p.LegacyID, pgUUID(p.ProjectID), pgUUID(p.VendorID)}
			out = append(out, numberValues(p.Number)...)
			return append(out, pgDate(p.OrderDate), pgDate(p.ExpectedDate), p.Status, pgNumeric(p.Total))
		},
	},
	domain.KindVendorQuotes: {
		table:   "vendor_quotes",
		columns: []string{"legacy_id", "project_id", "vendor_id", "number", "number_sequence", "quote_date", "valid_until", "status", "total"},
		values: func(r domain.Record) []any {
			q := r.(*domain.VendorQuote)
			out := []any{q.LegacyID, pgUUID(q.ProjectID), pgUUID(q.VendorID)}
			out = append(out, numberValues(q.Number)...)
			return append(out, pgDate(q.QuoteDate), pgDate(q.ValidUntil), q.Status, pgNumeric(q.Total))
		},
	},
	domain.KindVendorInvoices: {
		table: "vendor_invoices",
		columns: []string{"legacy_id", "project_id", "vendor_id", "purchase_order_id", "number", "number_sequence",
			"invoice_date", "due_date", "status", "total"},
		values: func(r domain.Record) []any {
			v := r.(*domain.VendorInvoice)
			out := []any{v.LegacyID, pgUUID(v.ProjectID), pgUUID(v.VendorID), pgNullUUID(v.PurchaseOrderID)}
			out = append(out, numberValues(v.Number)...)
			return append(out, pgDate(v.InvoiceDate), pgDate(v.DueDate), v.Status, pgNumeric(v.Total))
		},
	},
	domain.KindTimeEntries: {
		table:   "time_entries",
		columns: []string{"legacy_id", "project_id", "task_id", "work_date", "hours", "billable_rate", "amount", "billable", "description", "status"},
		values: func(r domain.Record) []any {
			t := r.(*domain.TimeEntry)
			return []any{t.LegacyID, pgUUID(t.ProjectID), pgNullUUID(t.TaskID), pgDate(t.WorkDate), pgNumeric(t.Hours),
				pgNumeric(t.BillableRate), pgNumeric(t.Amount), t.Billable, pgText(t.Description), t.Status}
		},
	},
	domain.KindExpenses: {
		table:   "expenses",
		columns: []string{"legacy_id", "project_id", "task_id", "vendor_id", "expense_date", "amount", "category", "billable", "description", "status"},
		values: func(r domain.Record) []any {
			e := r.(*domain.Expense)
			return []any{e.LegacyID, pgUUID(e.ProjectID), pgNullUUID(e.TaskID), pgNullUUID(e.VendorID), pgDate(e.ExpenseDate),
				pgNumeric(e.Amount), e.Category, e.Billable, pgText(e.Description), e.Status}
		},
	},
}

// lineMapping binds a line kind to its table. Sales lines carry unit_price and tax_percent,
// purchasing lines unit_cost; only purchase order lines link tasks and expenses.
type lineMapping struct {
	table        string
	parentColumn string
	sales        bool
	refs         bool
}

func (m lineMapping) columns() []string {
	cols := []string{"id", m.parentColumn, "position", "description", "quantity"}
	if m.sales {
		cols = append(cols, "unit_price", "tax_percent")
	} else {
		cols = append(cols, "unit_cost")
	}
	cols = append(cols, "line_total")
	if m.refs {
		cols = append(cols, "task_id", "expense_id")
	}
	return cols
}

func (m lineMapping) row(l *domain.DocumentLine) []any {
	row := []any{pgUUID(l.ID), pgUUID(l.ParentID), int32(l.Position), pgText(l.Description), pgNumeric(l.Quantity), pgNumeric(l.UnitPrice)}
	if m.sales {
		row = append(row, pgFloatNumeric(l.TaxPercent))
	}
	row = append(row, pgNumeric(l.LineTotal))
	if m.refs {
		row = append(row, pgNullUUID(l.TaskID), pgNullUUID(l.ExpenseID))
	}
	return row
}

var lineTables = map[domain.Kind]lineMapping{
	domain.KindEstimateLines:      {table: "estimate_lines", parentColumn: "estimate_id", sales: true},
	domain.KindInvoiceLines:       {table: "invoice_lines", parentColumn: "invoice_id", sales: true},
	domain.KindPurchaseOrderLines: {table: "purchase_order_lines", parentColumn: "purchase_order_id", refs: true},
	domain.KindVendorQuoteLines:   {table: "vendor_quote_lines", parentColumn: "vendor_quote_id"},
	domain.KindVendorInvoiceLines: {table: "vendor_invoice_lines", parentColumn: "vendor_invoice_id"},
}

func tableFor(kind domain.Kind) (tableMapping, error) {
	m, ok := tables[kind]
	if !ok {
		return tableMapping{}, fmt.Errorf("no table for kind %q", kind)
	}
	return m, nil
}

func lineTableFor(kind domain.Kind) (lineMapping, error) {
	m, ok := lineTables[kind]
	if !ok {
		return lineMapping{}, fmt.Errorf("no line table for kind %q", kind)
	}
	return m, nil
}
