package services

import (
	"context"
	"strings"

	"github.com/iota-uz/legacy-import/modules/migration/domain"
	"github.com/iota-uz/legacy-import/modules/migration/snapshot"
)

func (im *importer) importMilestones(ctx context.Context, rows []snapshot.Milestone) error {
	_, err := runBatch(ctx, im, batchSpec[snapshot.Milestone]{
		kind:     domain.KindMilestones,
		legacyID: func(r snapshot.Milestone) string { return r.LegacyID },
		build: func(ctx context.Context, chk *recordCheck, r snapshot.Milestone) (*upsertPlan, error) {
			due := chk.date("dueDate", r.DueDate)
			chk.nonNegative("amount", r.Amount)
			projectID, err := chk.requiredRef(ctx, domain.KindProjects, r.ProjectLegacyID)
			if err != nil {
				return nil, err
			}
			return &upsertPlan{
				record: &domain.Milestone{
					ID:        domain.DeriveID(domain.KindMilestones, r.LegacyID),
					LegacyID:  r.LegacyID,
					ProjectID: projectID,
					Name:      strings.TrimSpace(r.Name),
					Amount:    r.Amount,
					DueDate:   due,
					Status:    milestoneStatus.normalize(r.Status),
				},
			}, nil
		},
	}, rows)
	return err
}

func (im *importer) importTimeEntries(ctx context.Context, rows []snapshot.TimeEntry) error {
	_, err := runBatch(ctx, im, batchSpec[snapshot.TimeEntry]{
		kind:     domain.KindTimeEntries,
		legacyID: func(r snapshot.TimeEntry) string { return r.LegacyID },
		build: func(ctx context.Context, chk *recordCheck, r snapshot.TimeEntry) (*upsertPlan, error) {
			workDate := chk.date("workDate", r.WorkDate)
			chk.nonNegative("hours", r.Hours)
			chk.nonNegative("billableRate", r.BillableRate)
			projectID, err := chk.requiredRef(ctx, domain.KindProjects, r.ProjectLegacyID)
			if err != nil {
				return nil, err
			}
			taskID, err := chk.ref(ctx, domain.KindTasks, r.TaskLegacyID)
			if err != nil {
				return nil, err
			}
			return &upsertPlan{
				record: &domain.TimeEntry{
					ID:           domain.DeriveID(domain.KindTimeEntries, r.LegacyID),
					LegacyID:     r.LegacyID,
					ProjectID:    projectID,
					TaskID:       taskID,
					WorkDate:     workDate,
					Hours:        r.Hours,
					BillableRate: r.BillableRate,
					Amount:       roundMoney(r.Hours.Mul(r.BillableRate), defaultCurrency),
					Billable:     r.Billable,
					Description:  strings.TrimSpace(r.Description),
					Status:       timeEntryStatus.normalize(r.Status),
				},
			}, nil
		},
	}, rows)
	return err
}

func (im *importer) importExpenses(ctx context.Context, rows []snapshot.Expense) error {
	_, err := runBatch(ctx, im, batchSpec[snapshot.Expense]{
		kind:     domain.KindExpenses,
		legacyID: func(r snapshot.Expense) string { return r.LegacyID },
		build: func(ctx context.Context, chk *recordCheck, r snapshot.Expense) (*upsertPlan, error) {
			expenseDate := chk.date("expenseDate", r.ExpenseDate)
			chk.nonNegative("amount", r.Amount)
			projectID, err := chk.requiredRef(ctx, domain.KindProjects, r.ProjectLegacyID)
			if err != nil {
				return nil, err
			}
			taskID, err := chk.ref(ctx, domain.KindTasks, r.TaskLegacyID)
			if err != nil {
				return nil, err
			}
			vendorID, err := chk.ref(ctx, domain.KindVendors, r.VendorLegacyID)
			if err != nil {
				return nil, err
			}
			return &upsertPlan{
				record: &domain.Expense{
					ID:          domain.DeriveID(domain.KindExpenses, r.LegacyID),
					LegacyID:    r.LegacyID,
					ProjectID:   projectID,
					TaskID:      taskID,
					VendorID:    vendorID,
					ExpenseDate: expenseDate,
					Amount:      r.Amount,
					Category:    expenseCategory.normalize(r.Category),
					Billable:    r.Billable,
					Description: strings.TrimSpace(r.Description),
					Status:      expenseStatus.normalize(r.Status),
				},
			}, nil
		},
	}, rows)
	return err
}
