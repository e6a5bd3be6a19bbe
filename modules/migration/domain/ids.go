package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Namespace seeds every derived identifier. Changing it re-keys every imported row.
var Namespace = uuid.MustParse("8d4f3b2a-6c1e-4f7a-9b5d-2e0c8a1f6d3b")

// DeriveID maps a legacy identifier of the given kind to its stable target id (UUIDv5).
func DeriveID(kind Kind, legacyID string) uuid.UUID {
	return uuid.NewSHA1(Namespace, []byte(string(kind)+":"+legacyID))
}

// LineID derives the id of the line at position (1-based) owned by parentLegacyID.
func LineID(lineKind Kind, parentLegacyID string, position int) uuid.UUID {
	return DeriveID(lineKind, fmt.Sprintf("%s#%d", parentLegacyID, position))
}

func ProjectRoomID(projectLegacyID string) uuid.UUID {
	return DeriveID(KindProjectRooms, projectLegacyID)
}
