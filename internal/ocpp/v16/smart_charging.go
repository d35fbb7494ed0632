package v16

import "time"

// ChargingSchedulePeriod is one slice of a charging schedule on the wire.
type ChargingSchedulePeriod struct {
	StartPeriod  int     `json:"startPeriod"`
	Limit        float64 `json:"limit"`
	NumberPhases *int    `json:"numberPhases,omitempty"`
}

// ChargingSchedule as sent inside a charging profile.
type ChargingSchedule struct {
	Duration               *int                     `json:"duration,omitempty"`
	StartSchedule          *time.Time               `json:"startSchedule,omitempty"`
	ChargingRateUnit       string                   `json:"chargingRateUnit"`
	ChargingSchedulePeriod []ChargingSchedulePeriod `json:"chargingSchedulePeriod"`
	MinChargingRate        *float64                 `json:"minChargingRate,omitempty"`
}

// ChargingProfile is the OCPP 1.6 wire representation of a profile.
type ChargingProfile struct {
	ChargingProfileID      int              `json:"chargingProfileId"`
	TransactionID          *int             `json:"transactionId,omitempty"`
	StackLevel             int              `json:"stackLevel"`
	ChargingProfilePurpose string           `json:"chargingProfilePurpose"`
	ChargingProfileKind    string           `json:"chargingProfileKind"`
	RecurrencyKind         *string          `json:"recurrencyKind,omitempty"`
	ValidFrom              *time.Time       `json:"validFrom,omitempty"`
	ValidTo                *time.Time       `json:"validTo,omitempty"`
	ChargingSchedule       ChargingSchedule `json:"chargingSchedule"`
}

// SetChargingProfileRequest installs a profile on a connector.
type SetChargingProfileRequest struct {
	ConnectorID        int             `json:"connectorId"`
	CsChargingProfiles ChargingProfile `json:"csChargingProfiles"`
}

// SetChargingProfileResponse carries the device decision.
type SetChargingProfileResponse struct {
	Status string `json:"status"`
}

// ClearChargingProfileRequest removes matching profiles from a charge point.
type ClearChargingProfileRequest struct {
	ID                     *int    `json:"id,omitempty"`
	ConnectorID            *int    `json:"connectorId,omitempty"`
	ChargingProfilePurpose *string `json:"chargingProfilePurpose,omitempty"`
	StackLevel             *int    `json:"stackLevel,omitempty"`
}

// ClearChargingProfileResponse carries the device decision.
type ClearChargingProfileResponse struct {
	Status string `json:"status"`
}

// GetCompositeScheduleRequest asks for the effective schedule on a connector.
type GetCompositeScheduleRequest struct {
	ConnectorID      int     `json:"connectorId"`
	Duration         int     `json:"duration"`
	ChargingRateUnit *string `json:"chargingRateUnit,omitempty"`
}

// GetCompositeScheduleResponse carries the computed schedule, when accepted.
type GetCompositeScheduleResponse struct {
	Status           string            `json:"status"`
	ConnectorID      *int              `json:"connectorId,omitempty"`
	ScheduleStart    *time.Time        `json:"scheduleStart,omitempty"`
	ChargingSchedule *ChargingSchedule `json:"chargingSchedule,omitempty"`
}
