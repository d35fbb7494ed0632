package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chargehub/internal/models"
)

func fixedNow() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int { return &v }

func timePtr(t time.Time) *time.Time { return &t }

func TestBuildSetChargingProfileRequestMapsFields(t *testing.T) {
	start := time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)
	minRate := 4.4
	recurrency := models.RecurrencyDaily
	details := models.ChargingProfileDetails{
		Profile: models.ChargingProfile{
			ChargingProfilePk: 11,
			StackLevel:        2,
			Purpose:           models.PurposeTxDefaultProfile,
			Kind:              models.KindRecurring,
			RecurrencyKind:    &recurrency,
			DurationInSeconds: intPtr(3600),
			StartSchedule:     &start,
			ChargingRateUnit:  models.RateUnitWatts,
			MinChargingRate:   &minRate,
		},
		Periods: []models.SchedulePeriod{
			{StartPeriodInSeconds: 0, PowerLimit: 11000, NumberPhases: intPtr(1)},
			{StartPeriodInSeconds: 1800, PowerLimit: 7400},
		},
	}

	req := BuildSetChargingProfileRequest(details, 1, intPtr(99), fixedNow)

	assert.Equal(t, 1, req.ConnectorID)
	profile := req.CsChargingProfiles
	assert.Equal(t, 11, profile.ChargingProfileID)
	assert.Equal(t, 99, *profile.TransactionID)
	assert.Equal(t, 2, profile.StackLevel)
	assert.Equal(t, "TxDefaultProfile", profile.ChargingProfilePurpose)
	assert.Equal(t, "Recurring", profile.ChargingProfileKind)
	assert.Equal(t, "Daily", *profile.RecurrencyKind)

	sched := profile.ChargingSchedule
	assert.Equal(t, 3600, *sched.Duration)
	assert.Equal(t, start, *sched.StartSchedule)
	assert.Equal(t, "W", sched.ChargingRateUnit)
	assert.Equal(t, 4.4, *sched.MinChargingRate)

	require.Len(t, sched.ChargingSchedulePeriod, 2)
	assert.Equal(t, 0, sched.ChargingSchedulePeriod[0].StartPeriod)
	assert.Equal(t, 11000.0, sched.ChargingSchedulePeriod[0].Limit)
	assert.Equal(t, 1, *sched.ChargingSchedulePeriod[0].NumberPhases)
	assert.Equal(t, 1800, sched.ChargingSchedulePeriod[1].StartPeriod)
}

func TestBuildSetChargingProfileRequestDefaultsNumberPhases(t *testing.T) {
	details := models.ChargingProfileDetails{
		Profile: models.ChargingProfile{ChargingRateUnit: models.RateUnitAmperes},
		Periods: []models.SchedulePeriod{{StartPeriodInSeconds: 0, PowerLimit: 32}},
	}

	req := BuildSetChargingProfileRequest(details, 0, nil, fixedNow)

	require.Len(t, req.CsChargingProfiles.ChargingSchedule.ChargingSchedulePeriod, 1)
	assert.Equal(t, 3, *req.CsChargingProfiles.ChargingSchedule.ChargingSchedulePeriod[0].NumberPhases)
}

func TestBuildSetChargingProfileRequestDefaultsTxProfileStart(t *testing.T) {
	details := models.ChargingProfileDetails{
		Profile: models.ChargingProfile{
			Purpose:          models.PurposeTxProfile,
			ChargingRateUnit: models.RateUnitWatts,
		},
	}

	req := BuildSetChargingProfileRequest(details, 1, intPtr(7), fixedNow)

	require.NotNil(t, req.CsChargingProfiles.ChargingSchedule.StartSchedule)
	assert.Equal(t, fixedNow(), *req.CsChargingProfiles.ChargingSchedule.StartSchedule)
	// The stored record must stay untouched.
	assert.Nil(t, details.Profile.StartSchedule)
}

func TestBuildSetChargingProfileRequestKeepsNilStartForOtherPurposes(t *testing.T) {
	details := models.ChargingProfileDetails{
		Profile: models.ChargingProfile{
			Purpose:          models.PurposeChargePointMax,
			ChargingRateUnit: models.RateUnitWatts,
		},
	}

	req := BuildSetChargingProfileRequest(details, 0, nil, fixedNow)

	assert.Nil(t, req.CsChargingProfiles.ChargingSchedule.StartSchedule)
}

func TestBuildClearChargingProfileRequestPrefersProfileID(t *testing.T) {
	purpose := models.PurposeTxDefaultProfile
	filter := models.ClearChargingProfileFilter{
		ChargingProfilePk: intPtr(5),
		ConnectorID:       intPtr(2),
		Purpose:           &purpose,
		StackLevel:        intPtr(1),
	}

	req := BuildClearChargingProfileRequest(filter)

	require.NotNil(t, req.ID)
	assert.Equal(t, 5, *req.ID)
	// Criteria are ignored when a concrete profile id is given.
	assert.Nil(t, req.ConnectorID)
	assert.Nil(t, req.ChargingProfilePurpose)
	assert.Nil(t, req.StackLevel)
}

func TestBuildClearChargingProfileRequestByCriteria(t *testing.T) {
	purpose := models.PurposeChargePointMax
	filter := models.ClearChargingProfileFilter{
		ConnectorID: intPtr(0),
		Purpose:     &purpose,
		StackLevel:  intPtr(3),
	}

	req := BuildClearChargingProfileRequest(filter)

	assert.Nil(t, req.ID)
	assert.Equal(t, 0, *req.ConnectorID)
	assert.Equal(t, "ChargePointMaxProfile", *req.ChargingProfilePurpose)
	assert.Equal(t, 3, *req.StackLevel)
}

func TestBuildGetCompositeScheduleRequest(t *testing.T) {
	unit := models.RateUnitAmperes
	req := BuildGetCompositeScheduleRequest(2, 1800, &unit)

	assert.Equal(t, 2, req.ConnectorID)
	assert.Equal(t, 1800, req.Duration)
	assert.Equal(t, "A", *req.ChargingRateUnit)

	req = BuildGetCompositeScheduleRequest(0, 600, nil)
	assert.Nil(t, req.ChargingRateUnit)
}
