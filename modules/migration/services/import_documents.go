package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/legacy-import/modules/migration/domain"
	"github.com/iota-uz/legacy-import/modules/migration/snapshot"
)

var hundred = decimal.NewFromInt(100)

type lineTotals struct {
	subtotal decimal.Decimal
	tax      decimal.Decimal
}

// salesLines builds estimate/invoice lines priced by UnitPrice with per-line tax.
func salesLines(chk *recordCheck, lineKind domain.Kind, parentLegacyID string, parentID uuid.UUID, rows []snapshot.Line, currency string) ([]*domain.DocumentLine, lineTotals) {
	lines := make([]*domain.DocumentLine, 0, len(rows))
	var totals lineTotals
	for i, r := range rows {
		pos := i + 1
		prefix := fmt.Sprintf("lines[%d]", pos)
		chk.nonNegative(prefix+".quantity", r.Quantity)
		chk.nonNegative(prefix+".unitPrice", r.UnitPrice)
		chk.percent(prefix+".taxPercent", r.TaxPercent)

		net := r.Quantity.Mul(r.UnitPrice)
		tax := net.Mul(decimal.NewFromFloat(r.TaxPercent)).Div(hundred)
		totals.subtotal = totals.subtotal.Add(net)
		totals.tax = totals.tax.Add(tax)

		lines = append(lines, &domain.DocumentLine{
			ID:          domain.LineID(lineKind, parentLegacyID, pos),
			LineKind:    lineKind,
			ParentID:    parentID,
			Position:    pos,
			Description: strings.TrimSpace(r.Description),
			Quantity:    r.Quantity,
			UnitPrice:   r.UnitPrice,
			TaxPercent:  r.TaxPercent,
			LineTotal:   roundMoney(net.Add(tax), currency),
		})
	}
	totals.subtotal = roundMoney(totals.subtotal, currency)
	totals.tax = roundMoney(totals.tax, currency)
	return lines, totals
}

// costLines builds purchasing lines priced by UnitCost. withRefs enables the task and expense links.
func (im *importer) costLines(ctx context.Context, chk *recordCheck, lineKind domain.Kind, parentLegacyID string, parentID uuid.UUID, rows []snapshot.Line, withRefs bool) ([]*domain.DocumentLine, decimal.Decimal, error) {
	lines := make([]*domain.DocumentLine, 0, len(rows))
	total := decimal.Zero
	for i, r := range rows {
		pos := i + 1
		prefix := fmt.Sprintf("lines[%d]", pos)
		chk.nonNegative(prefix+".quantity", r.Quantity)
		chk.nonNegative(prefix+".unitCost", r.UnitCost)

		line := &domain.DocumentLine{
			ID:          domain.LineID(lineKind, parentLegacyID, pos),
			LineKind:    lineKind,
			ParentID:    parentID,
			Position:    pos,
			Description: strings.TrimSpace(r.Description),
			Quantity:    r.Quantity,
			UnitPrice:   r.UnitCost,
			LineTotal:   roundMoney(r.Quantity.Mul(r.UnitCost), defaultCurrency),
		}
		if withRefs {
			var err error
			if line.TaskID, err = chk.ref(ctx, domain.KindTasks, r.TaskLegacyID); err != nil {
				return nil, decimal.Zero, err
			}
			if line.ExpenseID, err = chk.ref(ctx, domain.KindExpenses, r.ExpenseLegacyID); err != nil {
				return nil, decimal.Zero, err
			}
		}
		total = total.Add(line.LineTotal)
		lines = append(lines, line)
	}
	return lines, total, nil
}

func (im *importer) importEstimates(ctx context.Context, rows []snapshot.Estimate) error {
	_, err := runBatch(ctx, im, batchSpec[snapshot.Estimate]{
		kind:     domain.KindEstimates,
		legacyID: func(r snapshot.Estimate) string { return r.LegacyID },
		code:     func(r snapshot.Estimate) string { return r.PreferredNumber },
		build: func(ctx context.Context, chk *recordCheck, r snapshot.Estimate) (*upsertPlan, error) {
			issue := chk.date("issueDate", r.IssueDate)
			validUntil := chk.date("validUntil", r.ValidUntil)
			chk.dateOrder("issueDate", issue, "validUntil", validUntil)
			chk.percent("discountPercent", r.DiscountPercent)
			projectID, err := chk.requiredRef(ctx, domain.KindProjects, r.ProjectLegacyID)
			if err != nil {
				return nil, err
			}

			id := domain.DeriveID(domain.KindEstimates, r.LegacyID)
			currency := normalizeCurrency(r.Currency)
			lines, totals := salesLines(chk, domain.KindEstimateLines, r.LegacyID, id, r.Lines, currency)
			discount := roundMoney(totals.subtotal.Mul(decimal.NewFromFloat(r.DiscountPercent)).Div(hundred), currency)

			return &upsertPlan{
				record: &domain.Estimate{
					ID:              id,
					LegacyID:        r.LegacyID,
					ProjectID:       projectID,
					IssueDate:       issue,
					ValidUntil:      validUntil,
					Currency:        currency,
					DiscountPercent: r.DiscountPercent,
					Status:          estimateStatus.normalize(r.Status),
					Subtotal:        totals.subtotal,
					TaxTotal:        totals.tax,
					Total:           totals.subtotal.Sub(discount).Add(totals.tax),
				},
				lineKind: domain.KindEstimateLines,
				lines:    lines,
				number:   &numberRequest{preferred: r.PreferredNumber, asOf: issue},
			}, nil
		},
	}, rows)
	return err
}

func (im *importer) importInvoices(ctx context.Context, rows []snapshot.Invoice) error {
	_, err := runBatch(ctx, im, batchSpec[snapshot.Invoice]{
		kind:     domain.KindInvoices,
		legacyID: func(r snapshot.Invoice) string { return r.LegacyID },
		code:     func(r snapshot.Invoice) string { return r.PreferredNumber },
		build: func(ctx context.Context, chk *recordCheck, r snapshot.Invoice) (*upsertPlan, error) {
			issue := chk.date("issueDate", r.IssueDate)
			due := chk.date("dueDate", r.DueDate)
			chk.dateOrder("issueDate", issue, "dueDate", due)
			projectID, err := chk.requiredRef(ctx, domain.KindProjects, r.ProjectLegacyID)
			if err != nil {
				return nil, err
			}
			estimateID, err := chk.ref(ctx, domain.KindEstimates, r.EstimateLegacyID)
			if err != nil {
				return nil, err
			}
			milestoneID, err := chk.ref(ctx, domain.KindMilestones, r.MilestoneLegacyID)
			if err != nil {
				return nil, err
			}

			id := domain.DeriveID(domain.KindInvoices, r.LegacyID)
			currency := normalizeCurrency(r.Currency)
			lines, totals := salesLines(chk, domain.KindInvoiceLines, r.LegacyID, id, r.Lines, currency)

			return &upsertPlan{
				record: &domain.Invoice{
					ID:          id,
					LegacyID:    r.LegacyID,
					ProjectID:   projectID,
					EstimateID:  estimateID,
					MilestoneID: milestoneID,
					IssueDate:   issue,
					DueDate:     due,
					Currency:    currency,
					Status:      invoiceStatus.normalize(r.Status),
					Subtotal:    totals.subtotal,
					TaxTotal:    totals.tax,
					Total:       totals.subtotal.Add(totals.tax),
				},
				lineKind: domain.KindInvoiceLines,
				lines:    lines,
				number:   &numberRequest{preferred: r.PreferredNumber, asOf: issue},
			}, nil
		},
	}, rows)
	return err
}

func (im *importer) importPurchaseOrders(ctx context.Context, rows []snapshot.PurchaseOrder) error {
	_, err := runBatch(ctx, im, batchSpec[snapshot.PurchaseOrder]{
		kind:     domain.KindPurchaseOrders,
		legacyID: func(r snapshot.PurchaseOrder) string { return r.LegacyID },
		code:     func(r snapshot.PurchaseOrder) string { return r.PreferredNumber },
		build: func(ctx context.Context, chk *recordCheck, r snapshot.PurchaseOrder) (*upsertPlan, error) {
			ordered := chk.date("orderDate", r.OrderDate)
			expected := chk.date("expectedDate", r.ExpectedDate)
			chk.dateOrder("orderDate", ordered, "expectedDate", expected)
			projectID, err := chk.requiredRef(ctx, domain.KindProjects, r.ProjectLegacyID)
			if err != nil {
				return nil, err
			}
			vendorID, err := chk.requiredRef(ctx, domain.KindVendors, r.VendorLegacyID)
			if err != nil {
				return nil, err
			}

			id := domain.DeriveID(domain.KindPurchaseOrders, r.LegacyID)
			lines, total, err := im.costLines(ctx, chk, domain.KindPurchaseOrderLines, r.LegacyID, id, r.Lines, true)
			if err != nil {
				return nil, err
			}

			return &upsertPlan{
				record: &domain.PurchaseOrder{
					ID:           id,
					LegacyID:     r.LegacyID,
					ProjectID:    projectID,
					VendorID:     vendorID,
					OrderDate:    ordered,
					ExpectedDate: expected,
					Status:       purchaseOrderStatus.normalize(r.Status),
					Total:        total,
				},
				lineKind: domain.KindPurchaseOrderLines,
				lines:    lines,
				number:   &numberRequest{preferred: r.PreferredNumber, asOf: ordered},
			}, nil
		},
	}, rows)
	return err
}

func (im *importer) importVendorQuotes(ctx context.Context, rows []snapshot.VendorQuote) error {
	_, err := runBatch(ctx, im, batchSpec[snapshot.VendorQuote]{
		kind:     domain.KindVendorQuotes,
		legacyID: func(r snapshot.VendorQuote) string { return r.LegacyID },
		code:     func(r snapshot.VendorQuote) string { return r.PreferredNumber },
		build: func(ctx context.Context, chk *recordCheck, r snapshot.VendorQuote) (*upsertPlan, error) {
			quoted := chk.date("quoteDate", r.QuoteDate)
			validUntil := chk.date("validUntil", r.ValidUntil)
			chk.dateOrder("quoteDate", quoted, "validUntil", validUntil)
			projectID, err := chk.requiredRef(ctx, domain.KindProjects, r.ProjectLegacyID)
			if err != nil {
				return nil, err
			}
			vendorID, err := chk.requiredRef(ctx, domain.KindVendors, r.VendorLegacyID)
			if err != nil {
				return nil, err
			}

			id := domain.DeriveID(domain.KindVendorQuotes, r.LegacyID)
			lines, total, err := im.costLines(ctx, chk, domain.KindVendorQuoteLines, r.LegacyID, id, r.Lines, false)
			if err != nil {
				return nil, err
			}

			return &upsertPlan{
				record: &domain.VendorQuote{
					ID:         id,
					LegacyID:   r.LegacyID,
					ProjectID:  projectID,
					VendorID:   vendorID,
					QuoteDate:  quoted,
					ValidUntil: validUntil,
					Status:     vendorQuoteStatus.normalize(r.Status),
					Total:      total,
				},
				lineKind: domain.KindVendorQuoteLines,
				lines:    lines,
				number:   &numberRequest{preferred: r.PreferredNumber, asOf: quoted},
			}, nil
		},
	}, rows)
	return err
}

func (im *importer) importVendorInvoices(ctx context.Context, rows []snapshot.VendorInvoice) error {
	_, err := runBatch(ctx, im, batchSpec[snapshot.VendorInvoice]{
		kind:     domain.KindVendorInvoices,
		legacyID: func(r snapshot.VendorInvoice) string { return r.LegacyID },
		code:     func(r snapshot.VendorInvoice) string { return r.PreferredNumber },
		build: func(ctx context.Context, chk *recordCheck, r snapshot.VendorInvoice) (*upsertPlan, error) {
			invoiced := chk.date("invoiceDate", r.InvoiceDate)
			due := chk.date("dueDate", r.DueDate)
			chk.dateOrder("invoiceDate", invoiced, "dueDate", due)
			projectID, err := chk.requiredRef(ctx, domain.KindProjects, r.ProjectLegacyID)
			if err != nil {
				return nil, err
			}
			vendorID, err := chk.requiredRef(ctx, domain.KindVendors, r.VendorLegacyID)
			if err != nil {
				return nil, err
			}
			purchaseOrderID, err := chk.ref(ctx, domain.KindPurchaseOrders, r.PurchaseOrderLegacyID)
			if err != nil {
				return nil, err
			}

			id := domain.DeriveID(domain.KindVendorInvoices, r.LegacyID)
			lines, total, err := im.costLines(ctx, chk, domain.KindVendorInvoiceLines, r.LegacyID, id, r.Lines, false)
			if err != nil {
				return nil, err
			}

			return &upsertPlan{
				record: &domain.VendorInvoice{
					ID:              id,
					LegacyID:        r.LegacyID,
					ProjectID:       projectID,
					VendorID:        vendorID,
					PurchaseOrderID: purchaseOrderID,
					InvoiceDate:     invoiced,
					DueDate:         due,
					Status:          vendorInvoiceStatus.normalize(r.Status),
					Total:           total,
				},
				lineKind: domain.KindVendorInvoiceLines,
				lines:    lines,
				number:   &numberRequest{preferred: r.PreferredNumber, asOf: invoiced},
			}, nil
		},
	}, rows)
	return err
}
