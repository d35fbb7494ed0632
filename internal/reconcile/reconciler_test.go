package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chargehub/internal/models"
)

type fakeTransactionSource struct {
	tx          models.Transaction
	txErr       error
	nextStart   *time.Time
	nextErr     error
	lookaheads  int
	lookedAfter time.Time
}

func (f *fakeTransactionSource) GetTransaction(_ context.Context, _ int) (models.Transaction, error) {
	return f.tx, f.txErr
}

func (f *fakeTransactionSource) NextTransactionStart(_ context.Context, _ string, _ int, after time.Time) (*time.Time, error) {
	f.lookaheads++
	f.lookedAfter = after
	return f.nextStart, f.nextErr
}

type fakeMeterValueSource struct {
	tagged     []models.MeterValue
	windowed   []models.MeterValue
	taggedErr  error
	windowErr  error
	lastWindow Window
}

func (f *fakeMeterValueSource) ByTransaction(_ context.Context, _ int) ([]models.MeterValue, error) {
	return f.tagged, f.taggedErr
}

func (f *fakeMeterValueSource) ByConnectorWindow(_ context.Context, _ string, _ int, window Window) ([]models.MeterValue, error) {
	f.lastWindow = window
	return f.windowed, f.windowErr
}

func reading(ts time.Time, value, measurand, unit string) models.MeterValue {
	v := models.MeterValue{ValueTimestamp: ts, Value: value}
	if measurand != "" {
		v.Measurand = strP(measurand)
	}
	if unit != "" {
		v.Unit = strP(unit)
	}
	return v
}

func TestTransactionDetailsClosedTransaction(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	stop := start.Add(time.Hour)

	transactions := &fakeTransactionSource{
		tx: models.Transaction{
			TransactionPk:  1,
			ChargeBoxID:    "CB-1",
			ConnectorID:    1,
			StartTimestamp: start,
			StopTimestamp:  &stop,
			StopValue:      strP("1200"),
		},
	}
	meterValues := &fakeMeterValueSource{
		windowed: []models.MeterValue{reading(start.Add(10*time.Minute), "100", "Energy.Active.Import.Register", "Wh")},
	}

	r := NewReconciler(transactions, meterValues, zap.NewNop())
	details, err := r.TransactionDetails(context.Background(), 1, false)
	require.NoError(t, err)

	// Closed transactions never need the successor lookahead.
	assert.Equal(t, 0, transactions.lookaheads)
	assert.Nil(t, details.NextTransactionStart)
	require.NotNil(t, meterValues.lastWindow.End)
	assert.Equal(t, stop, *meterValues.lastWindow.End)
	assert.Len(t, details.MeterValues, 1)
}

func TestTransactionDetailsZombieBoundedByNextStart(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	next := start.Add(2 * time.Hour)

	transactions := &fakeTransactionSource{
		tx: models.Transaction{
			TransactionPk:  2,
			ChargeBoxID:    "CB-1",
			ConnectorID:    1,
			StartTimestamp: start,
		},
		nextStart: &next,
	}
	meterValues := &fakeMeterValueSource{}

	r := NewReconciler(transactions, meterValues, zap.NewNop())
	details, err := r.TransactionDetails(context.Background(), 2, false)
	require.NoError(t, err)

	assert.Equal(t, 1, transactions.lookaheads)
	assert.Equal(t, start, transactions.lookedAfter)
	require.NotNil(t, meterValues.lastWindow.End)
	assert.Equal(t, next, *meterValues.lastWindow.End)
	require.NotNil(t, details.NextTransactionStart)
	assert.Equal(t, next, *details.NextTransactionStart)
}

func TestTransactionDetailsStopValueWithoutTimestampLooksAhead(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	next := start.Add(2 * time.Hour)

	transactions := &fakeTransactionSource{
		tx: models.Transaction{
			TransactionPk:  7,
			ChargeBoxID:    "CB-1",
			ConnectorID:    1,
			StartTimestamp: start,
			StopValue:      strP("1200"),
		},
		nextStart: &next,
	}
	meterValues := &fakeMeterValueSource{}

	r := NewReconciler(transactions, meterValues, zap.NewNop())
	_, err := r.TransactionDetails(context.Background(), 7, false)
	require.NoError(t, err)

	// A stop value alone cannot bound the window; the successor bound must.
	assert.Equal(t, 1, transactions.lookaheads)
	require.NotNil(t, meterValues.lastWindow.End)
	assert.Equal(t, next, *meterValues.lastWindow.End)
}

func TestTransactionDetailsRunningTransactionOpenEnded(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	transactions := &fakeTransactionSource{
		tx: models.Transaction{TransactionPk: 3, ChargeBoxID: "CB-1", ConnectorID: 1, StartTimestamp: start},
	}
	meterValues := &fakeMeterValueSource{}

	r := NewReconciler(transactions, meterValues, zap.NewNop())
	details, err := r.TransactionDetails(context.Background(), 3, false)
	require.NoError(t, err)

	assert.Nil(t, meterValues.lastWindow.End)
	assert.Nil(t, details.NextTransactionStart)
}

func TestTransactionDetailsMergesAndDeduplicates(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	shared := reading(start.Add(5*time.Minute), "50", "Energy.Active.Import.Register", "Wh")

	transactions := &fakeTransactionSource{
		tx: models.Transaction{TransactionPk: 4, ChargeBoxID: "CB-1", ConnectorID: 1, StartTimestamp: start},
	}
	meterValues := &fakeMeterValueSource{
		tagged:   []models.MeterValue{shared, reading(start.Add(10*time.Minute), "100", "Energy.Active.Import.Register", "Wh")},
		windowed: []models.MeterValue{shared, reading(start.Add(15*time.Minute), "12", "Current.Import", "A")},
	}

	r := NewReconciler(transactions, meterValues, zap.NewNop())
	details, err := r.TransactionDetails(context.Background(), 4, false)
	require.NoError(t, err)

	// The shared reading appears once; the union keeps the other two.
	assert.Len(t, details.MeterValues, 3)
}

func TestTransactionDetailsEnergyOnlyFiltersUnits(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	transactions := &fakeTransactionSource{
		tx: models.Transaction{TransactionPk: 5, ChargeBoxID: "CB-1", ConnectorID: 1, StartTimestamp: start},
	}
	meterValues := &fakeMeterValueSource{
		windowed: []models.MeterValue{
			reading(start, "100", "Energy.Active.Import.Register", "Wh"),
			reading(start, "0.1", "Energy.Active.Import.Register", "kWh"),
			reading(start, "230", "Voltage", "V"),
			reading(start, "16", "Current.Import", "A"),
			reading(start, "42", "", ""),
		},
	}

	r := NewReconciler(transactions, meterValues, zap.NewNop())
	details, err := r.TransactionDetails(context.Background(), 5, true)
	require.NoError(t, err)

	require.Len(t, details.MeterValues, 3)
	for _, v := range details.MeterValues {
		assert.True(t, IsEnergyValue(v.Unit))
	}
}

func TestTransactionDetailsOrderedByMeasurand(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	transactions := &fakeTransactionSource{
		tx: models.Transaction{TransactionPk: 6, ChargeBoxID: "CB-1", ConnectorID: 1, StartTimestamp: start},
	}
	meterValues := &fakeMeterValueSource{
		windowed: []models.MeterValue{
			reading(start.Add(time.Minute), "230", "Voltage", "V"),
			reading(start.Add(2*time.Minute), "100", "Energy.Active.Import.Register", "Wh"),
			reading(start, "231", "Voltage", "V"),
			reading(start.Add(3*time.Minute), "16", "Current.Import", "A"),
		},
	}

	r := NewReconciler(transactions, meterValues, zap.NewNop())
	details, err := r.TransactionDetails(context.Background(), 6, false)
	require.NoError(t, err)

	require.Len(t, details.MeterValues, 4)
	assert.Equal(t, "Current.Import", *details.MeterValues[0].Measurand)
	assert.Equal(t, "Energy.Active.Import.Register", *details.MeterValues[1].Measurand)
	// Same-measurand readings keep their relative order.
	assert.Equal(t, "230", details.MeterValues[2].Value)
	assert.Equal(t, "231", details.MeterValues[3].Value)
}

func TestTransactionDetailsPropagatesErrors(t *testing.T) {
	boom := errors.New("db down")

	r := NewReconciler(&fakeTransactionSource{txErr: boom}, &fakeMeterValueSource{}, zap.NewNop())
	_, err := r.TransactionDetails(context.Background(), 1, false)
	assert.ErrorIs(t, err, boom)

	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	openTx := models.Transaction{TransactionPk: 1, StartTimestamp: start}

	r = NewReconciler(&fakeTransactionSource{tx: openTx, nextErr: boom}, &fakeMeterValueSource{}, zap.NewNop())
	_, err = r.TransactionDetails(context.Background(), 1, false)
	assert.ErrorIs(t, err, boom)

	r = NewReconciler(&fakeTransactionSource{tx: openTx}, &fakeMeterValueSource{taggedErr: boom}, zap.NewNop())
	_, err = r.TransactionDetails(context.Background(), 1, false)
	assert.ErrorIs(t, err, boom)

	r = NewReconciler(&fakeTransactionSource{tx: openTx}, &fakeMeterValueSource{windowErr: boom}, zap.NewNop())
	_, err = r.TransactionDetails(context.Background(), 1, false)
	assert.ErrorIs(t, err, boom)
}
