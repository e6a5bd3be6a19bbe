package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iota-uz/utils/fs"
	"gopkg.in/yaml.v3"

	"github.com/iota-uz/legacy-import/modules/migration/domain"
)

var extensions = []string{".json", ".yaml", ".yml"}

// Load reads the batch of every kind in scope from dir. A kind without a file is an empty batch.
func Load(dir string, scope []domain.Kind) (*Snapshot, error) {
	s := &Snapshot{Files: make(map[domain.Kind]string)}
	for _, kind := range scope {
		path, ok := batchFile(dir, kind)
		if !ok {
			continue
		}
		var err error
		switch kind {
		case domain.KindCustomers:
			s.Customers, err = decodeBatch[Customer](path)
		case domain.KindVendors:
			s.Vendors, err = decodeBatch[Vendor](path)
		case domain.KindProjects:
			s.Projects, err = decodeBatch[Project](path)
		case domain.KindTasks:
			s.Tasks, err = decodeBatch[Task](path)
		case domain.KindMilestones:
			s.Milestones, err = decodeBatch[Milestone](path)
		case domain.KindEstimates:
			s.Estimates, err = decodeBatch[Estimate](path)
		case domain.KindInvoices:
			s.Invoices, err = decodeBatch[Invoice](path)
		case domain.KindPurchaseOrders:
			s.PurchaseOrders, err = decodeBatch[PurchaseOrder](path)
		case domain.KindVendorQuotes:
			s.VendorQuotes, err = decodeBatch[VendorQuote](path)
		case domain.KindVendorInvoices:
			s.VendorInvoices, err = decodeBatch[VendorInvoice](path)
		case domain.KindTimeEntries:
			s.TimeEntries, err = decodeBatch[TimeEntry](path)
		case domain.KindExpenses:
			s.Expenses, err = decodeBatch[Expense](path)
		default:
			return nil, fmt.Errorf("unsupported kind %q", kind)
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		s.Files[kind] = path
	}
	return s, nil
}

func batchFile(dir string, kind domain.Kind) (string, bool) {
	for _, ext := range extensions {
		path := filepath.Join(dir, string(kind)+ext)
		if fs.FileExists(path) {
			return path, true
		}
	}
	return "", false
}

func decodeBatch[T any](path string) ([]T, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if ext := filepath.Ext(path); ext == ".yaml" || ext == ".yml" {
		raw, err = yamlToJSON(raw)
		if err != nil {
			return nil, err
		}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// yamlToJSON re-encodes a YAML document as JSON so both formats share one set of field rules.
func yamlToJSON(raw []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, nil
	}
	return json.Marshal(doc)
}
