package schedule

import (
	"fmt"

	"chargehub/internal/models"
)

// ValidationError names the field that violated a cross-field rule.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("charging profile invalid: %s: %s", e.Field, e.Reason)
}

// ValidateProfile applies the cross-field rules a profile must satisfy before
// it may be persisted or dispatched. Pure and side-effect free.
func ValidateProfile(p models.ChargingProfile) error {
	if p.ValidFrom != nil && p.ValidTo != nil && !p.ValidTo.After(*p.ValidFrom) {
		return &ValidationError{Field: "validTo", Reason: "must be after validFrom"}
	}

	if p.StartSchedule != nil {
		if p.ValidFrom != nil && !p.StartSchedule.After(*p.ValidFrom) {
			return &ValidationError{Field: "startSchedule", Reason: "must be after validFrom"}
		}
		if p.ValidTo != nil && !p.StartSchedule.Before(*p.ValidTo) {
			return &ValidationError{Field: "startSchedule", Reason: "must be before validTo"}
		}
	}

	if p.Purpose == models.PurposeTxProfile {
		if p.ValidFrom != nil {
			return &ValidationError{Field: "validFrom", Reason: "must not be set for purpose TxProfile"}
		}
		if p.ValidTo != nil {
			return &ValidationError{Field: "validTo", Reason: "must not be set for purpose TxProfile"}
		}
	}

	return nil
}
