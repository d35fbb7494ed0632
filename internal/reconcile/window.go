package reconcile

import (
	"time"

	"chargehub/internal/models"
)

// Window bounds the meter readings attributable to a transaction. A nil End
// means the window is open-ended.
type Window struct {
	Start time.Time
	End   *time.Time
}

// Contains reports whether a timestamp falls inside the window (inclusive on
// both bounds).
func (w Window) Contains(ts time.Time) bool {
	if ts.Before(w.Start) {
		return false
	}
	if w.End != nil && ts.After(*w.End) {
		return false
	}
	return true
}

// ResolveWindow computes the time window bounding a transaction's readings.
// Closed transactions are bounded by their stop timestamp. Open transactions
// are bounded by the start of the next transaction on the same connector, if
// one exists: without that bound, readings of every later transaction on the
// connector would be misattributed to a zombie transaction whose stop event
// was lost. A genuinely still-running transaction stays open-ended. A stop
// value without a stop timestamp cannot bound the window, so such rows take
// the successor path too.
func ResolveWindow(tx models.Transaction, nextStart *time.Time) Window {
	if tx.StopTimestamp != nil {
		return Window{Start: tx.StartTimestamp, End: tx.StopTimestamp}
	}
	if nextStart != nil {
		end := *nextStart
		return Window{Start: tx.StartTimestamp, End: &end}
	}
	return Window{Start: tx.StartTimestamp}
}

// IsEnergyValue reports whether a reading's unit denotes energy. Readings
// without a unit pass, since many stations omit it for energy registers.
func IsEnergyValue(unit *string) bool {
	if unit == nil {
		return true
	}
	switch *unit {
	case "", "Wh", "kWh":
		return true
	default:
		return false
	}
}
