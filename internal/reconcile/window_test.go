package reconcile

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chargehub/internal/models"
)

func strP(s string) *string { return &s }

func timeP(t time.Time) *time.Time { return &t }

func TestResolveWindowClosedTransaction(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	stop := start.Add(time.Hour)
	tx := models.Transaction{
		StartTimestamp: start,
		StopTimestamp:  &stop,
		StopValue:      strP("1200"),
	}

	// A stop event always wins over any successor.
	w := ResolveWindow(tx, timeP(start.Add(30*time.Minute)))
	assert.Equal(t, start, w.Start)
	require.NotNil(t, w.End)
	assert.Equal(t, stop, *w.End)
}

func TestResolveWindowZombieBoundedBySuccessor(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	next := start.Add(2 * time.Hour)
	tx := models.Transaction{StartTimestamp: start}

	w := ResolveWindow(tx, &next)
	require.NotNil(t, w.End)
	assert.Equal(t, next, *w.End)
}

func TestResolveWindowStopValueWithoutTimestampUsesSuccessor(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	next := start.Add(2 * time.Hour)
	tx := models.Transaction{
		StartTimestamp: start,
		StopValue:      strP("1200"),
	}

	// Without a stop timestamp there is nothing to bound the window with, so
	// the successor bound applies just like for a zombie.
	w := ResolveWindow(tx, &next)
	require.NotNil(t, w.End)
	assert.Equal(t, next, *w.End)

	assert.Nil(t, ResolveWindow(tx, nil).End)
}

func TestResolveWindowRunningTransactionStaysOpen(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	w := ResolveWindow(models.Transaction{StartTimestamp: start}, nil)
	assert.Equal(t, start, w.Start)
	assert.Nil(t, w.End)
}

func TestWindowContains(t *testing.T) {
	start := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)

	closed := Window{Start: start, End: &end}
	assert.True(t, closed.Contains(start))
	assert.True(t, closed.Contains(end))
	assert.True(t, closed.Contains(start.Add(30*time.Minute)))
	assert.False(t, closed.Contains(start.Add(-time.Second)))
	assert.False(t, closed.Contains(end.Add(time.Second)))

	open := Window{Start: start}
	assert.True(t, open.Contains(start.Add(1000*time.Hour)))
	assert.False(t, open.Contains(start.Add(-time.Second)))
}

func TestIsEnergyValue(t *testing.T) {
	assert.True(t, IsEnergyValue(nil))
	assert.True(t, IsEnergyValue(strP("")))
	assert.True(t, IsEnergyValue(strP("Wh")))
	assert.True(t, IsEnergyValue(strP("kWh")))
	assert.False(t, IsEnergyValue(strP("A")))
	assert.False(t, IsEnergyValue(strP("V")))
	assert.False(t, IsEnergyValue(strP("W")))
	assert.False(t, IsEnergyValue(strP("wh")))
}
