package memstore

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/iota-uz/legacy-import/modules/migration/domain"
)

type ref struct {
	kind domain.Kind
	id   *uuid.UUID
}

func required(kind domain.Kind, id uuid.UUID) ref {
	return ref{kind: kind, id: &id}
}

func references(rec domain.Record) []ref {
	switch r := rec.(type) {
	case *domain.Project:
		return []ref{{domain.KindCustomers, r.CustomerID}}
	case *domain.Task:
		return []ref{required(domain.KindProjects, r.ProjectID)}
	case *domain.Milestone:
		return []ref{required(domain.KindProjects, r.ProjectID)}
	case *domain.Estimate:
		return []ref{required(domain.KindProjects, r.ProjectID)}
	case *domain.Invoice:
		return []ref{
			required(domain.KindProjects, r.ProjectID),
			{domain.KindEstimates, r.EstimateID},
			{domain.KindMilestones, r.MilestoneID},
		}
	case *domain.PurchaseOrder:
		return []ref{required(domain.KindProjects, r.ProjectID), required(domain.KindVendors, r.VendorID)}
	case *domain.VendorQuote:
		return []ref{required(domain.KindProjects, r.ProjectID), required(domain.KindVendors, r.VendorID)}
	case *domain.VendorInvoice:
		return []ref{
			required(domain.KindProjects, r.ProjectID),
			required(domain.KindVendors, r.VendorID),
			{domain.KindPurchaseOrders, r.PurchaseOrderID},
		}
	case *domain.TimeEntry:
		return []ref{required(domain.KindProjects, r.ProjectID), {domain.KindTasks, r.TaskID}}
	case *domain.Expense:
		return []ref{
			required(domain.KindProjects, r.ProjectID),
			{domain.KindTasks, r.TaskID},
			{domain.KindVendors, r.VendorID},
		}
	default:
		return nil
	}
}

func (s *Store) checkRefs(rec domain.Record) error {
	for _, r := range references(rec) {
		if r.id == nil {
			continue
		}
		if !s.has(r.kind, *r.id) {
			return fmt.Errorf("%s %s -> %s %s: %w", rec.Kind(), rec.RecordID(), r.kind.Label(), *r.id, ErrForeignKey)
		}
	}
	return nil
}

// keepHierarchy carries the stored parent link over an update; only SetParent changes it.
func keepHierarchy(existing, next domain.Record) {
	switch n := next.(type) {
	case *domain.Project:
		if e, ok := existing.(*domain.Project); ok {
			n.ParentID = copyID(e.ParentID)
		}
	case *domain.Task:
		if e, ok := existing.(*domain.Task); ok {
			n.ParentID = copyID(e.ParentID)
		}
	}
}

func copyID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneRecord(rec domain.Record) domain.Record {
	switch r := rec.(type) {
	case *domain.Customer:
		c := *r
		return &c
	case *domain.Vendor:
		c := *r
		return &c
	case *domain.Project:
		c := *r
		return &c
	case *domain.Task:
		c := *r
		return &c
	case *domain.Milestone:
		c := *r
		return &c
	case *domain.Estimate:
		c := *r
		return &c
	case *domain.Invoice:
		c := *r
		return &c
	case *domain.PurchaseOrder:
		c := *r
		return &c
	case *domain.VendorQuote:
		c := *r
		return &c
	case *domain.VendorInvoice:
		c := *r
		return &c
	case *domain.TimeEntry:
		c := *r
		return &c
	case *domain.Expense:
		c := *r
		return &c
	default:
		panic(fmt.Sprintf("memstore: unsupported record %T", rec))
	}
}
