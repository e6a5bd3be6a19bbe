package snapshot

import "github.com/shopspring/decimal"

// Party carries the fields shared by customers and vendors.
type Party struct {
	LegacyID       string `json:"legacyId" validate:"required,max=128"`
	Code           string `json:"code" validate:"max=64"`
	Name           string `json:"name" validate:"required,max=255"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Currency       string `json:"currency"`
	Status         string `json:"status"`
	ExternalSource string `json:"externalSource"`
	ExternalID     string `json:"externalId"`
}

type Customer struct {
	Party
}

type Vendor struct {
	Party
	TaxID string `json:"taxId"`
}

type Project struct {
	LegacyID         string          `json:"legacyId" validate:"required,max=128"`
	Code             string          `json:"code" validate:"max=64"`
	Name             string          `json:"name" validate:"required,max=255"`
	CustomerLegacyID string          `json:"customerLegacyId"`
	ParentLegacyID   string          `json:"parentLegacyId"`
	Status           string          `json:"status"`
	StartDate        string          `json:"startDate"`
	EndDate          string          `json:"endDate"`
	Budget           decimal.Decimal `json:"budget"`
	Currency         string          `json:"currency"`
}

type Task struct {
	LegacyID           string          `json:"legacyId" validate:"required,max=128"`
	ProjectLegacyID    string          `json:"projectLegacyId" validate:"required"`
	ParentTaskLegacyID string          `json:"parentTaskLegacyId"`
	Name               string          `json:"name" validate:"required,max=255"`
	Status             string          `json:"status"`
	Priority           string          `json:"priority"`
	StartDate          string          `json:"startDate"`
	DueDate            string          `json:"dueDate"`
	EstimatedHours     decimal.Decimal `json:"estimatedHours"`
	PercentComplete    float64         `json:"percentComplete"`
}

type Milestone struct {
	LegacyID        string          `json:"legacyId" validate:"required,max=128"`
	ProjectLegacyID string          `json:"projectLegacyId" validate:"required"`
	Name            string          `json:"name" validate:"required,max=255"`
	Amount          decimal.Decimal `json:"amount"`
	DueDate         string          `json:"dueDate"`
	Status          string          `json:"status"`
}

// Line is a document line. Sales documents use UnitPrice and TaxPercent; purchasing
// documents use UnitCost.
type Line struct {
	Description     string          `json:"description" validate:"max=1000"`
	Quantity        decimal.Decimal `json:"quantity"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
	UnitCost        decimal.Decimal `json:"unitCost"`
	TaxPercent      float64         `json:"taxPercent"`
	TaskLegacyID    string          `json:"taskLegacyId"`
	ExpenseLegacyID string          `json:"expenseLegacyId"`
}

type Estimate struct {
	LegacyID        string  `json:"legacyId" validate:"required,max=128"`
	ProjectLegacyID string  `json:"projectLegacyId" validate:"required"`
	PreferredNumber string  `json:"preferredNumber" validate:"max=64"`
	IssueDate       string  `json:"issueDate"`
	ValidUntil      string  `json:"validUntil"`
	Currency        string  `json:"currency"`
	DiscountPercent float64 `json:"discountPercent"`
	Status          string  `json:"status"`
	Lines           []Line  `json:"lines" validate:"dive"`
}

type Invoice struct {
	LegacyID          string `json:"legacyId" validate:"required,max=128"`
	ProjectLegacyID   string `json:"projectLegacyId" validate:"required"`
	EstimateLegacyID  string `json:"estimateLegacyId"`
	MilestoneLegacyID string `json:"milestoneLegacyId"`
	PreferredNumber   string `json:"preferredNumber" validate:"max=64"`
	IssueDate         string `json:"issueDate"`
	DueDate           string `json:"dueDate"`
	Currency          string `json:"currency"`
	Status            string `json:"status"`
	Lines             []Line `json:"lines" validate:"dive"`
}

type PurchaseOrder struct {
	LegacyID        string `json:"legacyId" validate:"required,max=128"`
	ProjectLegacyID string `json:"projectLegacyId" validate:"required"`
	VendorLegacyID  string `json:"vendorLegacyId" validate:"required"`
	PreferredNumber string `json:"preferredNumber" validate:"max=64"`
	OrderDate       string `json:"orderDate"`
	ExpectedDate    string `json:"expectedDate"`
	Status          string `json:"status"`
	Lines           []Line `json:"lines" validate:"dive"`
}

type VendorQuote struct {
	LegacyID        string `json:"legacyId" validate:"required,max=128"`
	ProjectLegacyID string `json:"projectLegacyId" validate:"required"`
	VendorLegacyID  string `json:"vendorLegacyId" validate:"required"`
	PreferredNumber string `json:"preferredNumber" validate:"max=64"`
	QuoteDate       string `json:"quoteDate"`
	ValidUntil      string `json:"validUntil"`
	Status          string `json:"status"`
	Lines           []Line `json:"lines" validate:"dive"`
}

type VendorInvoice struct {
	LegacyID              string `json:"legacyId" validate:"required,max=128"`
	ProjectLegacyID       string `json:"projectLegacyId" validate:"required"`
	VendorLegacyID        string `json:"vendorLegacyId" validate:"required"`
	PurchaseOrderLegacyID string `json:"purchaseOrderLegacyId"`
	PreferredNumber       string `json:"preferredNumber" validate:"max=64"`
	InvoiceDate           string `json:"invoiceDate"`
	DueDate               string `json:"dueDate"`
	Status                string `json:"status"`
	Lines                 []Line `json:"lines" validate:"dive"`
}

type TimeEntry struct {
	LegacyID        string          `json:"legacyId" validate:"required,max=128"`
	ProjectLegacyID string          `json:"projectLegacyId" validate:"required"`
	TaskLegacyID    string          `json:"taskLegacyId"`
	WorkDate        string          `json:"workDate"`
	Hours           decimal.Decimal `json:"hours"`
	BillableRate    decimal.Decimal `json:"billableRate"`
	Billable        bool            `json:"billable"`
	Description     string          `json:"description"`
	Status          string          `json:"status"`
}

type Expense struct {
	LegacyID        string          `json:"legacyId" validate:"required,max=128"`
	ProjectLegacyID string          `json:"projectLegacyId" validate:"required"`
	TaskLegacyID    string          `json:"taskLegacyId"`
	VendorLegacyID  string          `json:"vendorLegacyId"`
	ExpenseDate     string          `json:"expenseDate"`
	Amount          decimal.Decimal `json:"amount"`
	Category        string          `json:"category"`
	Billable        bool            `json:"billable"`
	Description     string          `json:"description"`
	Status          string          `json:"status"`
}
