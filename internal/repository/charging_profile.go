package repository

import (
	"context"
	"database/sql"
	"errors"

	"chargehub/internal/models"
)

// ChargingProfileRepository manages charging profile persistence and the
// profile-to-connector assignment rows.
type ChargingProfileRepository struct {
	db *sql.DB
}

// NewChargingProfileRepository returns repository.
func NewChargingProfileRepository(db *sql.DB) *ChargingProfileRepository {
	return &ChargingProfileRepository{db: db}
}

// GetDetails loads a profile with its periods ordered by start offset.
func (r *ChargingProfileRepository) GetDetails(ctx context.Context, chargingProfilePk int) (models.ChargingProfileDetails, error) {
	const profileQuery = `
		SELECT charging_profile_pk, description, note, stack_level, purpose, kind,
		       recurrency_kind, valid_from, valid_to, duration_seconds, start_schedule,
		       charging_rate_unit, min_charging_rate
		FROM charging_profile
		WHERE charging_profile_pk = $1
	`
	var (
		p             models.ChargingProfile
		recurrency    sql.NullString
		validFrom     sql.NullTime
		validTo       sql.NullTime
		duration      sql.NullInt64
		startSchedule sql.NullTime
		minRate       sql.NullFloat64
	)
	err := r.db.QueryRowContext(ctx, profileQuery, chargingProfilePk).Scan(
		&p.ChargingProfilePk,
		&p.Description,
		&p.Note,
		&p.StackLevel,
		&p.Purpose,
		&p.Kind,
		&recurrency,
		&validFrom,
		&validTo,
		&duration,
		&startSchedule,
		&p.ChargingRateUnit,
		&minRate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ChargingProfileDetails{}, ErrNotFound
	}
	if err != nil {
		return models.ChargingProfileDetails{}, err
	}

	if recurrency.Valid {
		kind := models.RecurrencyKind(recurrency.String)
		p.RecurrencyKind = &kind
	}
	if validFrom.Valid {
		t := validFrom.Time
		p.ValidFrom = &t
	}
	if validTo.Valid {
		t := validTo.Time
		p.ValidTo = &t
	}
	if duration.Valid {
		d := int(duration.Int64)
		p.DurationInSeconds = &d
	}
	if startSchedule.Valid {
		t := startSchedule.Time
		p.StartSchedule = &t
	}
	if minRate.Valid {
		v := minRate.Float64
		p.MinChargingRate = &v
	}

	periods, err := r.getPeriods(ctx, chargingProfilePk)
	if err != nil {
		return models.ChargingProfileDetails{}, err
	}

	return models.ChargingProfileDetails{Profile: p, Periods: periods}, nil
}

func (r *ChargingProfileRepository) getPeriods(ctx context.Context, chargingProfilePk int) ([]models.SchedulePeriod, error) {
	const query = `
		SELECT start_period_seconds, power_limit, number_phases
		FROM charging_schedule_period
		WHERE charging_profile_pk = $1
		ORDER BY start_period_seconds
	`
	rows, err := r.db.QueryContext(ctx, query, chargingProfilePk)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var periods []models.SchedulePeriod
	for rows.Next() {
		var (
			p      models.SchedulePeriod
			phases sql.NullInt64
		)
		if err := rows.Scan(&p.StartPeriodInSeconds, &p.PowerLimit, &phases); err != nil {
			return nil, err
		}
		if phases.Valid {
			n := int(phases.Int64)
			p.NumberPhases = &n
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

// SetAssignment records that a charge box accepted a profile on a connector.
// Only the current assignment is kept, not a historical log.
func (r *ChargingProfileRepository) SetAssignment(ctx context.Context, chargingProfilePk int, chargeBoxID string, connectorID int) error {
	const query = `
		INSERT INTO charging_profile_assignment (charging_profile_pk, charge_box_id, connector_id, assigned_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (charging_profile_pk, charge_box_id, connector_id) DO UPDATE SET
			assigned_at = NOW()
	`
	_, err := r.db.ExecContext(ctx, query, chargingProfilePk, chargeBoxID, connectorID)
	return err
}

// ClearAssignments removes assignment rows matching the filter for one charge
// box, mirroring what the device itself just cleared.
func (r *ChargingProfileRepository) ClearAssignments(ctx context.Context, chargeBoxID string, filter models.ClearChargingProfileFilter) error {
	if filter.ChargingProfilePk != nil {
		const query = `
			DELETE FROM charging_profile_assignment
			WHERE charge_box_id = $1 AND charging_profile_pk = $2
		`
		_, err := r.db.ExecContext(ctx, query, chargeBoxID, *filter.ChargingProfilePk)
		return err
	}

	const query = `
		DELETE FROM charging_profile_assignment a
		USING charging_profile p
		WHERE a.charging_profile_pk = p.charging_profile_pk
		  AND a.charge_box_id = $1
		  AND ($2::int IS NULL OR a.connector_id = $2)
		  AND ($3::text IS NULL OR p.purpose = $3)
		  AND ($4::int IS NULL OR p.stack_level = $4)
	`
	var purpose sql.NullString
	if filter.Purpose != nil {
		purpose = sql.NullString{String: string(*filter.Purpose), Valid: true}
	}
	_, err := r.db.ExecContext(ctx, query, chargeBoxID, nullInt(filter.ConnectorID), purpose, nullInt(filter.StackLevel))
	return err
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
