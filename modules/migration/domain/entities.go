package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Record is anything the repository can create or update.
type Record interface {
	Kind() Kind
	RecordID() uuid.UUID
}

// Numbered is implemented by document kinds that carry a document number.
type Numbered interface {
	Record
	DocumentNumber() DocumentNumber
	SetDocumentNumber(DocumentNumber)
}

// DocumentNumber is the human-facing number of a document. Sequence is nil when the number
// came from the source system instead of the allocator.
type DocumentNumber struct {
	Value    string
	Sequence *int64
}

func (n DocumentNumber) IsZero() bool {
	return n.Value == "" && n.Sequence == nil
}

type Party struct {
	ID             uuid.UUID
	LegacyID       string
	Code           string
	Name           string
	Email          string
	Phone          string
	Currency       string
	Status         string
	ExternalSource string
	ExternalID     string
}

type Customer struct {
	Party
}

func (c *Customer) Kind() Kind          { return KindCustomers }
func (c *Customer) RecordID() uuid.UUID { return c.ID }

type Vendor struct {
	Party
	TaxID string
}

func (v *Vendor) Kind() Kind          { return KindVendors }
func (v *Vendor) RecordID() uuid.UUID { return v.ID }

type Project struct {
	ID         uuid.UUID
	LegacyID   string
	Code       string
	Name       string
	CustomerID *uuid.UUID
	ParentID   *uuid.UUID
	Status     string
	StartDate  *time.Time
	EndDate    *time.Time
	Budget     decimal.Decimal
	Currency   string
}

func (p *Project) Kind() Kind          { return KindProjects }
func (p *Project) RecordID() uuid.UUID { return p.ID }

type Task struct {
	ID              uuid.UUID
	LegacyID        string
	ProjectID       uuid.UUID
	ParentID        *uuid.UUID
	Name            string
	Status          string
	Priority        string
	StartDate       *time.Time
	DueDate         *time.Time
	EstimatedHours  decimal.Decimal
	PercentComplete float64
}

func (t *Task) Kind() Kind          { return KindTasks }
func (t *Task) RecordID() uuid.UUID { return t.ID }

type Milestone struct {
	ID        uuid.UUID
	LegacyID  string
	ProjectID uuid.UUID
	Name      string
	Amount    decimal.Decimal
	DueDate   *time.Time
	Status    string
}

func (m *Milestone) Kind() Kind          { return KindMilestones }
func (m *Milestone) RecordID() uuid.UUID { return m.ID }

type Estimate struct {
	ID              uuid.UUID
	LegacyID        string
	ProjectID       uuid.UUID
	Number          DocumentNumber
	IssueDate       *time.Time
	ValidUntil      *time.Time
	Currency        string
	DiscountPercent float64
	Status          string
	Subtotal        decimal.Decimal
	TaxTotal        decimal.Decimal
	Total           decimal.Decimal
}

func (e *Estimate) Kind() Kind                         { return KindEstimates }
func (e *Estimate) RecordID() uuid.UUID                { return e.ID }
func (e *Estimate) DocumentNumber() DocumentNumber     { return e.Number }
func (e *Estimate) SetDocumentNumber(n DocumentNumber) { e.Number = n }

type Invoice struct {
	ID          uuid.UUID
	LegacyID    string
	ProjectID   uuid.UUID
	EstimateID  *uuid.UUID
	MilestoneID *uuid.UUID
	Number      DocumentNumber
	IssueDate   *time.Time
	DueDate     *time.Time
	Currency    string
	Status      string
	Subtotal    decimal.Decimal
	TaxTotal    decimal.Decimal
	Total       decimal.Decimal
}

func (i *Invoice) Kind() Kind                         { return KindInvoices }
func (i *Invoice) RecordID() uuid.UUID                { return i.ID }
func (i *Invoice) DocumentNumber() DocumentNumber     { return i.Number }
func (i *Invoice) SetDocumentNumber(n DocumentNumber) { i.Number = n }

type PurchaseOrder struct {
	ID           uuid.UUID
	LegacyID     string
	ProjectID    uuid.UUID
	VendorID     uuid.UUID
	Number       DocumentNumber
	OrderDate    *time.Time
	ExpectedDate *time.Time
	Status       string
	Total        decimal.Decimal
}

func (p *PurchaseOrder) Kind() Kind                         { return KindPurchaseOrders }
func (p *PurchaseOrder) RecordID() uuid.UUID                { return p.ID }
func (p *PurchaseOrder) DocumentNumber() DocumentNumber     { return p.Number }
func (p *PurchaseOrder) SetDocumentNumber(n DocumentNumber) { p.Number = n }

type VendorQuote struct {
	ID         uuid.UUID
	LegacyID   string
	ProjectID  uuid.UUID
	VendorID   uuid.UUID
	Number     DocumentNumber
	QuoteDate  *time.Time
	ValidUntil *time.Time
	Status     string
	Total      decimal.Decimal
}

func (q *VendorQuote) Kind() Kind                         { return KindVendorQuotes }
func (q *VendorQuote) RecordID() uuid.UUID                { return q.ID }
func (q *VendorQuote) DocumentNumber() DocumentNumber     { return q.Number }
func (q *VendorQuote) SetDocumentNumber(n DocumentNumber) { q.Number = n }

type VendorInvoice struct {
	ID              uuid.UUID
	LegacyID        string
	ProjectID       uuid.UUID
	VendorID        uuid.UUID
	PurchaseOrderID *uuid.UUID
	Number          DocumentNumber
	InvoiceDate     *time.Time
	DueDate         *time.Time
	Status          string
	Total           decimal.Decimal
}

func (v *VendorInvoice) Kind() Kind                         { return KindVendorInvoices }
func (v *VendorInvoice) RecordID() uuid.UUID                { return v.ID }
func (v *VendorInvoice) DocumentNumber() DocumentNumber     { return v.Number }
func (v *VendorInvoice) SetDocumentNumber(n DocumentNumber) { v.Number = n }

type TimeEntry struct {
	ID           uuid.UUID
	LegacyID     string
	ProjectID    uuid.UUID
	TaskID       *uuid.UUID
	WorkDate     *time.Time
	Hours        decimal.Decimal
	BillableRate decimal.Decimal
	Amount       decimal.Decimal
	Billable     bool
	Description  string
	Status       string
}

func (t *TimeEntry) Kind() Kind          { return KindTimeEntries }
func (t *TimeEntry) RecordID() uuid.UUID { return t.ID }

type Expense struct {
	ID          uuid.UUID
	LegacyID    string
	ProjectID   uuid.UUID
	TaskID      *uuid.UUID
	VendorID    *uuid.UUID
	ExpenseDate *time.Time
	Amount      decimal.Decimal
	Category    string
	Billable    bool
	Description string
	Status      string
}

func (e *Expense) Kind() Kind          { return KindExpenses }
func (e *Expense) RecordID() uuid.UUID { return e.ID }

// DocumentLine is a child line of any document kind. UnitPrice holds the unit cost for
// purchasing documents; TaskID and ExpenseID are only used by purchase order lines.
type DocumentLine struct {
	ID          uuid.UUID
	LineKind    Kind
	ParentID    uuid.UUID
	Position    int
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	TaxPercent  float64
	LineTotal   decimal.Decimal
	TaskID      *uuid.UUID
	ExpenseID   *uuid.UUID
}

func (l *DocumentLine) Kind() Kind          { return l.LineKind }
func (l *DocumentLine) RecordID() uuid.UUID { return l.ID }

type ProjectRoom struct {
	ID        uuid.UUID
	ProjectID uuid.UUID
	Name      string
}

func (r *ProjectRoom) Kind() Kind          { return KindProjectRooms }
func (r *ProjectRoom) RecordID() uuid.UUID { return r.ID }
