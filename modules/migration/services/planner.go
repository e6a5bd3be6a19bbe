package services

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/cases"

	"github.com/iota-uz/legacy-import/modules/migration/domain"
	"github.com/iota-uz/legacy-import/modules/migration/snapshot"
)

// PlannedSets holds, per in-scope kind, the target ids the run intends to write.
type PlannedSets map[domain.Kind]map[uuid.UUID]struct{}

func (p PlannedSets) Contains(kind domain.Kind, id uuid.UUID) bool {
	_, ok := p[kind][id]
	return ok
}

// IDs returns the planned ids of kind in snapshot order.
func (p PlannedSets) IDs(snap *snapshot.Snapshot, kind domain.Kind) []uuid.UUID {
	set, ok := p[kind]
	if !ok {
		return nil
	}
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, legacyID := range snap.LegacyIDs(kind) {
		id := domain.DeriveID(kind, legacyID)
		if _, planned := set[id]; !planned {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// Plan maps every legacy id of every in-scope batch to its target id before anything is written.
// Out-of-scope kinds contribute nothing, so references to them must already be persisted. A batch
// with a repeated legacy id or code is never written, so it plans nothing either.
func Plan(snap *snapshot.Snapshot, scope []domain.Kind) PlannedSets {
	planned := make(PlannedSets, len(scope))
	for _, kind := range scope {
		ids := make(map[uuid.UUID]struct{})
		legacyIDs := snap.LegacyIDs(kind)
		if !hasRepeatedKeys(legacyIDs, snap.Codes(kind)) {
			for _, legacyID := range legacyIDs {
				ids[domain.DeriveID(kind, legacyID)] = struct{}{}
			}
		}
		planned[kind] = ids
	}
	return planned
}

func hasRepeatedKeys(legacyIDs, codes []string) bool {
	seen := make(map[string]struct{}, len(legacyIDs))
	for _, legacyID := range legacyIDs {
		if strings.TrimSpace(legacyID) == "" {
			continue
		}
		if _, ok := seen[legacyID]; ok {
			return true
		}
		seen[legacyID] = struct{}{}
	}
	fold := cases.Fold()
	seen = make(map[string]struct{}, len(codes))
	for _, code := range codes {
		key, ok := codeKey(fold, code)
		if !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			return true
		}
		seen[key] = struct{}{}
	}
	return false
}

// codeKey folds a code for duplicate comparison. Blank codes are never duplicates.
func codeKey(fold cases.Caser, code string) (string, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", false
	}
	return fold.String(code), true
}
