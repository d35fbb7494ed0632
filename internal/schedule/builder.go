package schedule

import (
	"time"

	"chargehub/internal/models"
	"chargehub/internal/ocpp/v16"
)

const defaultNumberPhases = 3

// BuildSetChargingProfileRequest translates a persisted profile and its
// ordered periods into the OCPP 1.6 wire request. Pure: the input record is
// never mutated. A TxProfile without an explicit start schedule means "start
// now", so the start is defaulted to the build instant; the caller can read
// the defaulted value from the returned request.
func BuildSetChargingProfileRequest(
	details models.ChargingProfileDetails,
	connectorID int,
	transactionID *int,
	now func() time.Time,
) v16.SetChargingProfileRequest {
	profile := details.Profile

	startSchedule := profile.StartSchedule
	if profile.Purpose == models.PurposeTxProfile && startSchedule == nil {
		start := now().UTC()
		startSchedule = &start
	}

	periods := make([]v16.ChargingSchedulePeriod, 0, len(details.Periods))
	for _, p := range details.Periods {
		phases := p.NumberPhases
		if phases == nil {
			n := defaultNumberPhases
			phases = &n
		}
		periods = append(periods, v16.ChargingSchedulePeriod{
			StartPeriod:  p.StartPeriodInSeconds,
			Limit:        p.PowerLimit,
			NumberPhases: phases,
		})
	}

	wireSchedule := v16.ChargingSchedule{
		Duration:               profile.DurationInSeconds,
		StartSchedule:          startSchedule,
		ChargingRateUnit:       string(profile.ChargingRateUnit),
		ChargingSchedulePeriod: periods,
		MinChargingRate:        profile.MinChargingRate,
	}

	var recurrency *string
	if profile.RecurrencyKind != nil {
		r := string(*profile.RecurrencyKind)
		recurrency = &r
	}

	wireProfile := v16.ChargingProfile{
		ChargingProfileID:      profile.ChargingProfilePk,
		TransactionID:          transactionID,
		StackLevel:             profile.StackLevel,
		ChargingProfilePurpose: string(profile.Purpose),
		ChargingProfileKind:    string(profile.Kind),
		RecurrencyKind:         recurrency,
		ValidFrom:              profile.ValidFrom,
		ValidTo:                profile.ValidTo,
		ChargingSchedule:       wireSchedule,
	}

	return v16.SetChargingProfileRequest{
		ConnectorID:        connectorID,
		CsChargingProfiles: wireProfile,
	}
}

// BuildClearChargingProfileRequest maps a clear filter onto the wire request.
func BuildClearChargingProfileRequest(filter models.ClearChargingProfileFilter) v16.ClearChargingProfileRequest {
	req := v16.ClearChargingProfileRequest{}
	if filter.ChargingProfilePk != nil {
		req.ID = filter.ChargingProfilePk
		return req
	}
	req.ConnectorID = filter.ConnectorID
	if filter.Purpose != nil {
		purpose := string(*filter.Purpose)
		req.ChargingProfilePurpose = &purpose
	}
	req.StackLevel = filter.StackLevel
	return req
}

// BuildGetCompositeScheduleRequest maps query parameters onto the wire request.
func BuildGetCompositeScheduleRequest(connectorID, durationSeconds int, rateUnit *models.ChargingRateUnit) v16.GetCompositeScheduleRequest {
	req := v16.GetCompositeScheduleRequest{
		ConnectorID: connectorID,
		Duration:    durationSeconds,
	}
	if rateUnit != nil {
		unit := string(*rateUnit)
		req.ChargingRateUnit = &unit
	}
	return req
}
