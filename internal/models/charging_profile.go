package models

import "time"

// ChargingProfilePurpose as defined by OCPP 1.6.
type ChargingProfilePurpose string

const (
	PurposeChargePointMax   ChargingProfilePurpose = "ChargePointMaxProfile"
	PurposeTxDefaultProfile ChargingProfilePurpose = "TxDefaultProfile"
	PurposeTxProfile        ChargingProfilePurpose = "TxProfile"
)

// ChargingProfileKind values.
type ChargingProfileKind string

const (
	KindAbsolute  ChargingProfileKind = "Absolute"
	KindRecurring ChargingProfileKind = "Recurring"
	KindRelative  ChargingProfileKind = "Relative"
)

// RecurrencyKind values, only meaningful for Recurring profiles.
type RecurrencyKind string

const (
	RecurrencyDaily  RecurrencyKind = "Daily"
	RecurrencyWeekly RecurrencyKind = "Weekly"
)

// ChargingRateUnit values.
type ChargingRateUnit string

const (
	RateUnitWatts   ChargingRateUnit = "W"
	RateUnitAmperes ChargingRateUnit = "A"
)

// ChargingProfile is the persisted profile record.
type ChargingProfile struct {
	ChargingProfilePk int
	Description       string
	Note              string
	StackLevel        int
	Purpose           ChargingProfilePurpose
	Kind              ChargingProfileKind
	RecurrencyKind    *RecurrencyKind
	ValidFrom         *time.Time
	ValidTo           *time.Time
	DurationInSeconds *int
	StartSchedule     *time.Time
	ChargingRateUnit  ChargingRateUnit
	MinChargingRate   *float64
}

// SchedulePeriod is one slice of a profile's schedule, offset from the
// schedule start. Owned by exactly one profile, ordered by start offset.
type SchedulePeriod struct {
	StartPeriodInSeconds int
	PowerLimit           float64
	NumberPhases         *int
}

// ChargingProfileDetails bundles a profile with its ordered periods.
type ChargingProfileDetails struct {
	Profile ChargingProfile
	Periods []SchedulePeriod
}

// ClearChargingProfileFilter selects which profiles a ClearChargingProfile
// command removes: either one concrete profile by its id, or all profiles
// matching the (connector, purpose, stack level) criteria.
type ClearChargingProfileFilter struct {
	ChargingProfilePk *int
	ConnectorID       *int
	Purpose           *ChargingProfilePurpose
	StackLevel        *int
}
