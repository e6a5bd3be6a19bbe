package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iota-uz/legacy-import/modules/migration/domain"
	"github.com/iota-uz/legacy-import/pkg/constants"
)

// recordCheck collects the validation errors of a single record.
type recordCheck struct {
	rc       *RunContext
	kind     domain.Kind
	legacyID string
	failed   bool
}

func newRecordCheck(rc *RunContext, kind domain.Kind, legacyID string) *recordCheck {
	return &recordCheck{rc: rc, kind: kind, legacyID: legacyID}
}

func (c *recordCheck) fail(format string, args ...any) {
	c.failed = true
	c.rc.addError(c.kind, c.legacyID, ClassValidation, format, args...)
}

func (c *recordCheck) ok() bool {
	return !c.failed
}

// structure runs the struct tag rules of a snapshot record.
func (c *recordCheck) structure(rec any) {
	err := constants.Validate.Struct(rec)
	if err == nil {
		return
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.fail("%v", err)
		return
	}
	for _, fe := range verrs {
		c.fail("%s: %s", fieldPath(fe), describeRule(fe))
	}
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describeRule(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be <= %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s", fe.Tag())
	}
}

// ref resolves an optional reference. An empty legacy id yields nil without error.
func (c *recordCheck) ref(ctx context.Context, refKind domain.Kind, refLegacyID string) (*uuid.UUID, error) {
	if strings.TrimSpace(refLegacyID) == "" {
		return nil, nil
	}
	id := domain.DeriveID(refKind, refLegacyID)
	found, err := c.rc.Exists(ctx, refKind, id)
	if err != nil {
		return nil, err
	}
	if !found {
		c.fail("%s not found: %s", refKind.Label(), refLegacyID)
		return nil, nil
	}
	return &id, nil
}

// requiredRef resolves a mandatory reference. Emptiness is reported by the struct rules.
func (c *recordCheck) requiredRef(ctx context.Context, refKind domain.Kind, refLegacyID string) (uuid.UUID, error) {
	id, err := c.ref(ctx, refKind, refLegacyID)
	if err != nil || id == nil {
		return uuid.Nil, err
	}
	return *id, nil
}

func (c *recordCheck) date(field, raw string) *time.Time {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	t, err := parseDate(raw)
	if err != nil {
		c.fail("%s: %v", field, err)
		return nil
	}
	return &t
}

func (c *recordCheck) dateOrder(startField string, start *time.Time, endField string, end *time.Time) {
	if start == nil || end == nil {
		return
	}
	if end.Before(*start) {
		c.fail("%s must not be before %s", endField, startField)
	}
}

func (c *recordCheck) nonNegative(field string, v decimal.Decimal) {
	if v.IsNegative() {
		c.fail("%s must be >= 0, got %s", field, v.String())
	}
}

func (c *recordCheck) percent(field string, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 || v > 100 {
		c.fail("%s must be within [0, 100], got %v", field, v)
	}
}

// parseDate accepts RFC3339 timestamps or plain dates and truncates to a UTC day.
func parseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return dateOnlyUTC(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date: %s", v)
}

func dateOnlyUTC(t time.Time) time.Time {
	u := t.UTC()
	y, m, d := u.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
