package services

import (
	"context"
	"fmt"

	"github.com/iota-uz/legacy-import/modules/migration/domain"
	"github.com/iota-uz/legacy-import/modules/migration/snapshot"
)

// verify recounts what the run should have left in the store. Mismatches become integrity
// errors; store failures abort.
func verify(ctx context.Context, rc *RunContext, repo domain.Repository, snap *snapshot.Snapshot) error {
	for _, kind := range rc.Scope {
		ids := rc.planned.IDs(snap, kind)
		if len(ids) == 0 {
			continue
		}
		found, err := repo.CountExisting(ctx, kind, ids)
		if err != nil {
			return fmt.Errorf("count %s: %w", kind, err)
		}
		checkCount(rc, kind, "records", int64(len(ids)), found)

		if lineKind, ok := kind.LineKind(); ok {
			expected := 0
			for _, n := range snap.LineCounts(kind) {
				expected += n
			}
			found, err := repo.CountLines(ctx, lineKind, ids)
			if err != nil {
				return fmt.Errorf("count %s: %w", lineKind, err)
			}
			checkCount(rc, kind, string(lineKind), int64(expected), found)
		}

		if kind == domain.KindProjects {
			found, err := repo.CountProjectRooms(ctx, ids)
			if err != nil {
				return fmt.Errorf("count %s: %w", domain.KindProjectRooms, err)
			}
			checkCount(rc, kind, string(domain.KindProjectRooms), int64(len(ids)), found)
		}
	}
	return nil
}

func checkCount(rc *RunContext, kind domain.Kind, what string, expected, found int64) {
	if expected == found {
		return
	}
	rc.addError(kind, "", ClassIntegrity, "integrity: expected %d %s, found %d", expected, what, found)
}

