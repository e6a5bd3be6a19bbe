package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/iota-uz/legacy-import/modules/migration/domain"
)

func newIDCmd() *cobra.Command {
	var kind, legacyID string

	cmd := &cobra.Command{
		Use:   "id",
		Short: "Print the target id derived for a legacy record",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := deriveTargetID(kind, legacyID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "Entity kind, e.g. projects (required)")
	cmd.Flags().StringVar(&legacyID, "legacy-id", "", "Legacy identifier (required)")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("legacy-id")
	return cmd
}

func deriveTargetID(kind, legacyID string) (uuid.UUID, error) {
	k := domain.Kind(strings.ToLower(strings.TrimSpace(kind)))
	if !k.IsBatch() {
		return uuid.Nil, withCode(exitUsage, fmt.Errorf("unknown --kind %q", kind))
	}
	if strings.TrimSpace(legacyID) == "" {
		return uuid.Nil, withCode(exitUsage, fmt.Errorf("--legacy-id is required"))
	}
	return domain.DeriveID(k, legacyID), nil
}
