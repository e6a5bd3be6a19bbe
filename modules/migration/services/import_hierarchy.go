package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iota-uz/legacy-import/modules/migration/domain"
	"github.com/iota-uz/legacy-import/modules/migration/snapshot"
)

const msgSelfParent = "parent must not equal self"

// parentIndex maps every record of a batch to the parent it will carry once pass two runs.
type parentIndex map[uuid.UUID]*uuid.UUID

func newParentIndex[T any](kind domain.Kind, rows []T, legacyID, parent func(T) string) parentIndex {
	idx := make(parentIndex, len(rows))
	for _, r := range rows {
		var parentID *uuid.UUID
		if p := strings.TrimSpace(parent(r)); p != "" {
			id := domain.DeriveID(kind, p)
			parentID = &id
		}
		idx[domain.DeriveID(kind, legacyID(r))] = parentID
	}
	return idx
}

// formsCycle walks the ancestors of parentID, batch links first and stored links after, and
// reports whether the chain leads back to id or into any other loop.
func (im *importer) formsCycle(ctx context.Context, kind domain.Kind, idx parentIndex, id, parentID uuid.UUID) (bool, error) {
	seen := map[uuid.UUID]struct{}{id: {}}
	cur := &parentID
	for cur != nil {
		if _, ok := seen[*cur]; ok {
			return true, nil
		}
		seen[*cur] = struct{}{}
		if next, ok := idx[*cur]; ok {
			cur = next
			continue
		}
		next, err := im.repo.ParentID(ctx, kind, *cur)
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		cur = next
	}
	return false, nil
}

func (c *recordCheck) noCycle(ctx context.Context, im *importer, idx parentIndex, parentLegacyID string) error {
	id := domain.DeriveID(c.kind, c.legacyID)
	cycle, err := im.formsCycle(ctx, c.kind, idx, id, domain.DeriveID(c.kind, parentLegacyID))
	if err != nil {
		return err
	}
	if cycle {
		c.fail("parent chain through %s forms a cycle", parentLegacyID)
	}
	return nil
}

// importProjects runs in two passes: records first, then the parent links among them.
func (im *importer) importProjects(ctx context.Context, rows []snapshot.Project) error {
	parents := newParentIndex(domain.KindProjects, rows,
		func(r snapshot.Project) string { return r.LegacyID },
		func(r snapshot.Project) string { return r.ParentLegacyID },
	)

	done, err := runBatch(ctx, im, batchSpec[snapshot.Project]{
		kind:     domain.KindProjects,
		legacyID: func(r snapshot.Project) string { return r.LegacyID },
		code:     func(r snapshot.Project) string { return r.Code },
		build: func(ctx context.Context, chk *recordCheck, r snapshot.Project) (*upsertPlan, error) {
			return im.buildProject(ctx, chk, r, parents)
		},
	}, rows)
	if err != nil || !im.rc.Apply() {
		return err
	}

	for _, r := range rows {
		if !done[r.LegacyID] {
			continue
		}
		if r.ParentLegacyID == r.LegacyID {
			im.rc.addError(domain.KindProjects, r.LegacyID, ClassValidation, msgSelfParent)
			continue
		}
		im.linkParent(ctx, domain.KindProjects, r.LegacyID, r.ParentLegacyID)
	}
	return nil
}

func (im *importer) buildProject(ctx context.Context, chk *recordCheck, r snapshot.Project, parents parentIndex) (*upsertPlan, error) {
	start := chk.date("startDate", r.StartDate)
	end := chk.date("endDate", r.EndDate)
	chk.dateOrder("startDate", start, "endDate", end)
	chk.nonNegative("budget", r.Budget)

	customerID, err := chk.ref(ctx, domain.KindCustomers, r.CustomerLegacyID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(r.ParentLegacyID) != "" {
		if r.ParentLegacyID == r.LegacyID {
			chk.fail(msgSelfParent)
		} else {
			parentID, err := chk.ref(ctx, domain.KindProjects, r.ParentLegacyID)
			if err != nil {
				return nil, err
			}
			if parentID != nil {
				if err := chk.noCycle(ctx, im, parents, r.ParentLegacyID); err != nil {
					return nil, err
				}
			}
		}
	}

	id := domain.DeriveID(domain.KindProjects, r.LegacyID)
	currency := normalizeCurrency(r.Currency)
	name := strings.TrimSpace(r.Name)
	return &upsertPlan{
		record: &domain.Project{
			ID:         id,
			LegacyID:   r.LegacyID,
			Code:       strings.TrimSpace(r.Code),
			Name:       name,
			CustomerID: customerID,
			Status:     projectStatus.normalize(r.Status),
			StartDate:  start,
			EndDate:    end,
			Budget:     roundMoney(r.Budget, currency),
			Currency:   currency,
		},
		room: &domain.ProjectRoom{
			ID:        domain.ProjectRoomID(r.LegacyID),
			ProjectID: id,
			Name:      name,
		},
	}, nil
}

// importTasks mirrors importProjects and additionally keeps every parent inside the task's project.
func (im *importer) importTasks(ctx context.Context, rows []snapshot.Task) error {
	projectOf := make(map[string]string, len(rows))
	for _, r := range rows {
		projectOf[r.LegacyID] = r.ProjectLegacyID
	}
	parents := newParentIndex(domain.KindTasks, rows,
		func(r snapshot.Task) string { return r.LegacyID },
		func(r snapshot.Task) string { return r.ParentTaskLegacyID },
	)

	done, err := runBatch(ctx, im, batchSpec[snapshot.Task]{
		kind:     domain.KindTasks,
		legacyID: func(r snapshot.Task) string { return r.LegacyID },
		build: func(ctx context.Context, chk *recordCheck, r snapshot.Task) (*upsertPlan, error) {
			return im.buildTask(ctx, chk, r, projectOf, parents)
		},
	}, rows)
	if err != nil || !im.rc.Apply() {
		return err
	}

	for _, r := range rows {
		if !done[r.LegacyID] {
			continue
		}
		if r.ParentTaskLegacyID == r.LegacyID {
			im.rc.addError(domain.KindTasks, r.LegacyID, ClassValidation, msgSelfParent)
			continue
		}
		if r.ParentTaskLegacyID != "" {
			projectID := domain.DeriveID(domain.KindProjects, r.ProjectLegacyID)
			same, err := im.sameProject(ctx, r.ParentTaskLegacyID, projectID, projectOf)
			if err != nil {
				return err
			}
			if !same {
				im.rc.addError(domain.KindTasks, r.LegacyID, ClassValidation,
					"parent task belongs to a different project: %s", r.ParentTaskLegacyID)
				continue
			}
		}
		im.linkParent(ctx, domain.KindTasks, r.LegacyID, r.ParentTaskLegacyID)
	}
	return nil
}

func (im *importer) buildTask(ctx context.Context, chk *recordCheck, r snapshot.Task, projectOf map[string]string, parents parentIndex) (*upsertPlan, error) {
	start := chk.date("startDate", r.StartDate)
	due := chk.date("dueDate", r.DueDate)
	chk.dateOrder("startDate", start, "dueDate", due)
	chk.nonNegative("estimatedHours", r.EstimatedHours)
	chk.percent("percentComplete", r.PercentComplete)

	projectID, err := chk.requiredRef(ctx, domain.KindProjects, r.ProjectLegacyID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(r.ParentTaskLegacyID) != "" {
		if r.ParentTaskLegacyID == r.LegacyID {
			chk.fail(msgSelfParent)
		} else {
			parentID, err := chk.ref(ctx, domain.KindTasks, r.ParentTaskLegacyID)
			if err != nil {
				return nil, err
			}
			if parentID != nil && projectID != uuid.Nil {
				same, err := im.sameProject(ctx, r.ParentTaskLegacyID, projectID, projectOf)
				if err != nil {
					return nil, err
				}
				if !same {
					chk.fail("parent task belongs to a different project: %s", r.ParentTaskLegacyID)
				}
			}
			if parentID != nil {
				if err := chk.noCycle(ctx, im, parents, r.ParentTaskLegacyID); err != nil {
					return nil, err
				}
			}
		}
	}

	return &upsertPlan{
		record: &domain.Task{
			ID:              domain.DeriveID(domain.KindTasks, r.LegacyID),
			LegacyID:        r.LegacyID,
			ProjectID:       projectID,
			Name:            strings.TrimSpace(r.Name),
			Status:          taskStatus.normalize(r.Status),
			Priority:        taskPriority.normalize(r.Priority),
			StartDate:       start,
			DueDate:         due,
			EstimatedHours:  r.EstimatedHours,
			PercentComplete: r.PercentComplete,
		},
	}, nil
}

// sameProject checks the parent task's project, preferring the batch over the store.
func (im *importer) sameProject(ctx context.Context, parentLegacyID string, projectID uuid.UUID, projectOf map[string]string) (bool, error) {
	if p, ok := projectOf[parentLegacyID]; ok {
		return domain.DeriveID(domain.KindProjects, p) == projectID, nil
	}
	parentProject, err := im.repo.TaskProjectID(ctx, domain.DeriveID(domain.KindTasks, parentLegacyID))
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return parentProject == projectID, nil
}

// linkParent sets (or clears, for an empty parent) the hierarchy link of a written record.
func (im *importer) linkParent(ctx context.Context, kind domain.Kind, legacyID, parentLegacyID string) {
	var parentID *uuid.UUID
	if strings.TrimSpace(parentLegacyID) != "" {
		id := domain.DeriveID(kind, parentLegacyID)
		parentID = &id
	}
	if err := im.repo.SetParent(ctx, kind, domain.DeriveID(kind, legacyID), parentID); err != nil {
		im.rc.addError(kind, legacyID, ClassWrite, "set parent failed: %v", err)
	}
}
