package services

import (
	"fmt"
	"time"
	_ "time/tzdata"

	"attendance/constants"
	apperrors "attendance/errors"
	"attendance/models"
)

// DailyRecordMerger folds check-in/check-out events into the daily record.
// It is pure apart from the injected clock used for UpdatedAt.
type DailyRecordMerger struct {
	loc *time.Location
	now func() time.Time
}

func NewDailyRecordMerger(loc *time.Location, now func() time.Time) *DailyRecordMerger {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &DailyRecordMerger{loc: loc, now: now}
}

func (m *DailyRecordMerger) Location() *time.Location {
	return m.loc
}

// SlotFor assigns the half-day slot from the local hour; 12:00 is afternoon.
func (m *DailyRecordMerger) SlotFor(ts time.Time) models.Slot {
	if ts.In(m.loc).Hour() < constants.NoonHour {
		return models.SlotMorning
	}
	return models.SlotAfternoon
}

// checkOutSlot follows SlotFor, except that a check-out at exactly 12:00:00
// closes an open morning when the afternoon has not started.
func (m *DailyRecordMerger) checkOutSlot(rec *models.AttendanceRecord, ts time.Time) models.Slot {
	slot := m.SlotFor(ts)
	local := ts.In(m.loc)
	atNoon := local.Hour() == constants.NoonHour && local.Minute() == 0 && local.Second() == 0 && local.Nanosecond() == 0
	if atNoon && rec.AfternoonCheckIn == nil && rec.MorningCheckIn != nil {
		return models.SlotMorning
	}
	return slot
}

// DateFor is the local civil date the event belongs to
func (m *DailyRecordMerger) DateFor(ts time.Time) string {
	return ts.In(m.loc).Format(constants.DateLayout)
}

// Merge applies event to existing (nil when no record exists yet) and
// returns a new record. existing is never modified. A duplicate check-in
// returns an unchanged copy without touching UpdatedAt.
func (m *DailyRecordMerger) Merge(id models.Identity, existing *models.AttendanceRecord, event models.Event) (*models.AttendanceRecord, error) {
	ts := event.Timestamp.In(m.loc)
	slot := m.SlotFor(ts)

	var merged *models.AttendanceRecord
	if existing != nil {
		merged = existing.Clone()
	} else {
		merged = models.NewAttendanceRecord(id)
	}

	switch event.Kind {
	case models.EventCheckIn:
		if merged.CheckIn(slot) != nil {
			// first check-in wins
			return merged, nil
		}
		merged.SetCheckIn(slot, ts)

	case models.EventCheckOut:
		slot = m.checkOutSlot(merged, ts)
		checkIn := merged.CheckIn(slot)
		if existing == nil || checkIn == nil {
			return nil, apperrors.NoMatchingCheckIn(slot.Label())
		}
		if ts.Before(*checkIn) {
			return nil, apperrors.NewAppError(apperrors.ErrCodeValidation,
				fmt.Sprintf("%s check-out precedes check-in", slot.Label()), apperrors.ErrInvalidInput)
		}
		// last check-out wins
		merged.SetCheckOut(slot, ts)

	default:
		return nil, apperrors.NewAppError(apperrors.ErrCodeValidation,
			fmt.Sprintf("unknown event kind %q", event.Kind), apperrors.ErrInvalidInput)
	}

	merged.TotalHours = TotalHours(merged)
	merged.UpdatedAt = m.now().In(m.loc)
	return merged, nil
}

// WorkedDuration sums the completed slots; open slots contribute zero.
func WorkedDuration(r *models.AttendanceRecord) (time.Duration, bool) {
	var total time.Duration
	complete := false
	for _, slot := range []models.Slot{models.SlotMorning, models.SlotAfternoon} {
		in, out := r.CheckIn(slot), r.CheckOut(slot)
		if in == nil || out == nil {
			continue
		}
		total += out.Sub(*in)
		complete = true
	}
	return total, complete
}

// TotalHours recomputes the derived total, nil until a slot is complete
func TotalHours(r *models.AttendanceRecord) *string {
	d, ok := WorkedDuration(r)
	if !ok {
		return nil
	}
	s := FormatHours(d)
	return &s
}

// FormatHours renders d as floor-truncated "Xh Ym"
func FormatHours(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := d / time.Hour
	minutes := (d % time.Hour) / time.Minute
	return fmt.Sprintf("%dh %dm", hours, minutes)
}
