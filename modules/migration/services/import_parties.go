package services

import (
	"context"
	"strings"

	"github.com/iota-uz/legacy-import/modules/migration/domain"
	"github.com/iota-uz/legacy-import/modules/migration/snapshot"
)

func (im *importer) importCustomers(ctx context.Context, rows []snapshot.Customer) error {
	_, err := runBatch(ctx, im, batchSpec[snapshot.Customer]{
		kind:     domain.KindCustomers,
		legacyID: func(r snapshot.Customer) string { return r.LegacyID },
		code:     func(r snapshot.Customer) string { return r.Code },
		build: func(_ context.Context, _ *recordCheck, r snapshot.Customer) (*upsertPlan, error) {
			return &upsertPlan{
				record: &domain.Customer{Party: toParty(domain.KindCustomers, r.Party)},
			}, nil
		},
	}, rows)
	return err
}

func (im *importer) importVendors(ctx context.Context, rows []snapshot.Vendor) error {
	_, err := runBatch(ctx, im, batchSpec[snapshot.Vendor]{
		kind:     domain.KindVendors,
		legacyID: func(r snapshot.Vendor) string { return r.LegacyID },
		code:     func(r snapshot.Vendor) string { return r.Code },
		build: func(_ context.Context, _ *recordCheck, r snapshot.Vendor) (*upsertPlan, error) {
			return &upsertPlan{
				record: &domain.Vendor{
					Party: toParty(domain.KindVendors, r.Party),
					TaxID: strings.TrimSpace(r.TaxID),
				},
			}, nil
		},
	}, rows)
	return err
}

func toParty(kind domain.Kind, r snapshot.Party) domain.Party {
	return domain.Party{
		ID:             domain.DeriveID(kind, r.LegacyID),
		LegacyID:       r.LegacyID,
		Code:           strings.TrimSpace(r.Code),
		Name:           strings.TrimSpace(r.Name),
		Email:          strings.TrimSpace(r.Email),
		Phone:          strings.TrimSpace(r.Phone),
		Currency:       normalizeCurrency(r.Currency),
		Status:         partyStatus.normalize(r.Status),
		ExternalSource: strings.TrimSpace(r.ExternalSource),
		ExternalID:     strings.TrimSpace(r.ExternalID),
	}
}
