package reconcile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"chargehub/internal/models"
)

// TransactionSource provides the transaction rows the reconciler works on.
type TransactionSource interface {
	GetTransaction(ctx context.Context, transactionPk int) (models.Transaction, error)
	// NextTransactionStart returns the start instant of the earliest
	// transaction on the same connector starting strictly after the given
	// instant, or nil when none exists.
	NextTransactionStart(ctx context.Context, chargeBoxID string, connectorID int, after time.Time) (*time.Time, error)
}

// MeterValueSource provides the two independent reading queries.
type MeterValueSource interface {
	// ByTransaction returns readings the device explicitly tagged with the
	// transaction id.
	ByTransaction(ctx context.Context, transactionPk int) ([]models.MeterValue, error)
	// ByConnectorWindow returns readings on the connector inside the window.
	ByConnectorWindow(ctx context.Context, chargeBoxID string, connectorID int, window Window) ([]models.MeterValue, error)
}

// Reconciler associates meter readings with the transaction they belong to.
type Reconciler struct {
	transactions TransactionSource
	meterValues  MeterValueSource
	logger       *zap.Logger
}

// NewReconciler builds a reconciler.
func NewReconciler(transactions TransactionSource, meterValues MeterValueSource, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		transactions: transactions,
		meterValues:  meterValues,
		logger:       logger,
	}
}

// TransactionDetails gathers the transaction and its meter readings. Readings
// are the union of those tagged with the transaction id and those falling
// inside the resolved time window, deduplicated. No single station behavior
// can be assumed: stations that tag readings give ground truth, the rest need
// the time-window fallback. With energyOnly set, readings are filtered to
// energy units. The result is ordered by measurand, not by timestamp; callers
// needing chronological order must re-sort.
func (r *Reconciler) TransactionDetails(ctx context.Context, transactionPk int, energyOnly bool) (models.TransactionDetails, error) {
	tx, err := r.transactions.GetTransaction(ctx, transactionPk)
	if err != nil {
		return models.TransactionDetails{}, err
	}

	var nextStart *time.Time
	if tx.StopTimestamp == nil {
		nextStart, err = r.transactions.NextTransactionStart(ctx, tx.ChargeBoxID, tx.ConnectorID, tx.StartTimestamp)
		if err != nil {
			return models.TransactionDetails{}, fmt.Errorf("lookahead for next transaction: %w", err)
		}
		if nextStart != nil {
			r.logger.Debug("bounding open transaction by successor",
				zap.Int("transaction_pk", transactionPk),
				zap.Time("next_start", *nextStart))
		}
	}

	window := ResolveWindow(tx, nextStart)

	tagged, err := r.meterValues.ByTransaction(ctx, transactionPk)
	if err != nil {
		return models.TransactionDetails{}, fmt.Errorf("readings by transaction: %w", err)
	}

	windowed, err := r.meterValues.ByConnectorWindow(ctx, tx.ChargeBoxID, tx.ConnectorID, window)
	if err != nil {
		return models.TransactionDetails{}, fmt.Errorf("readings by window: %w", err)
	}

	merged := mergeReadings(tagged, windowed)
	if energyOnly {
		merged = filterEnergy(merged)
	}
	sortByMeasurand(merged)

	return models.TransactionDetails{
		Transaction:          tx,
		MeterValues:          merged,
		NextTransactionStart: nextStart,
	}, nil
}

type readingKey struct {
	timestamp time.Time
	value     string
	context   string
	format    string
	measurand string
	location  string
	unit      string
	phase     string
}

func keyOf(v models.MeterValue) readingKey {
	return readingKey{
		timestamp: v.ValueTimestamp,
		value:     v.Value,
		context:   deref(v.ReadingContext),
		format:    deref(v.Format),
		measurand: deref(v.Measurand),
		location:  deref(v.Location),
		unit:      deref(v.Unit),
		phase:     deref(v.Phase),
	}
}

// mergeReadings unions the two result sets without double counting.
func mergeReadings(tagged, windowed []models.MeterValue) []models.MeterValue {
	seen := make(map[readingKey]struct{}, len(tagged)+len(windowed))
	out := make([]models.MeterValue, 0, len(tagged)+len(windowed))
	for _, set := range [][]models.MeterValue{tagged, windowed} {
		for _, v := range set {
			k := keyOf(v)
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

func filterEnergy(values []models.MeterValue) []models.MeterValue {
	out := values[:0]
	for _, v := range values {
		if IsEnergyValue(v.Unit) {
			out = append(out, v)
		}
	}
	return out
}

// sortByMeasurand groups same-kind readings together for tabular display.
// Kept for compatibility with existing consumers; it is deliberately not a
// chronological ordering.
func sortByMeasurand(values []models.MeterValue) {
	sort.SliceStable(values, func(i, j int) bool {
		return deref(values[i].Measurand) < deref(values[j].Measurand)
	})
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
