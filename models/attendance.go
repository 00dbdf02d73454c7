package models

import (
	"fmt"
	"time"

	"attendance/constants"
)

type Slot string

const (
	SlotMorning   Slot = "morning"
	SlotAfternoon Slot = "afternoon"
)

// Label is the spreadsheet/user facing name of the slot
func (s Slot) Label() string {
	if s == SlotMorning {
		return "Morning"
	}
	return "Afternoon"
}

// Other returns the opposite half-day slot
func (s Slot) Other() Slot {
	if s == SlotMorning {
		return SlotAfternoon
	}
	return SlotMorning
}

type EventKind string

const (
	EventCheckIn  EventKind = "check-in"
	EventCheckOut EventKind = "check-out"
)

// Event is a partial attendance update submitted by a client
type Event struct {
	Kind      EventKind
	Timestamp time.Time
}

// Identity addresses exactly one attendance record.
type Identity struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Date      string `json:"date"`
}

// Key encodes the identity without ambiguity: every name part is length
// prefixed, so "a-b"+"c" and "a"+"b-c" never collide.
func (i Identity) Key() string {
	return fmt.Sprintf("%d:%s|%d:%s|%s", len(i.FirstName), i.FirstName, len(i.LastName), i.LastName, i.Date)
}

func (i Identity) String() string {
	return fmt.Sprintf("%s %s (%s)", i.FirstName, i.LastName, i.Date)
}

type AttendanceRecord struct {
	ID                uint       `json:"-" gorm:"primaryKey"`
	FirstName         string     `json:"firstName" gorm:"size:128;not null;uniqueIndex:idx_attendance_identity"`
	LastName          string     `json:"lastName" gorm:"size:128;not null;uniqueIndex:idx_attendance_identity"`
	Date              string     `json:"date" gorm:"size:10;not null;uniqueIndex:idx_attendance_identity"`
	MorningCheckIn    *time.Time `json:"morningCheckIn"`
	MorningCheckOut   *time.Time `json:"morningCheckOut"`
	AfternoonCheckIn  *time.Time `json:"afternoonCheckIn"`
	AfternoonCheckOut *time.Time `json:"afternoonCheckOut"`
	TotalHours        *string    `json:"totalHours" gorm:"size:32"`
	Version           int        `json:"version" gorm:"not null;default:0"`
	CreatedAt         time.Time  `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt         time.Time  `json:"updatedAt" gorm:"autoUpdateTime:false"` // stamped by the merger
}

func (AttendanceRecord) TableName() string {
	return "attendance"
}

func NewAttendanceRecord(id Identity) *AttendanceRecord {
	return &AttendanceRecord{
		FirstName: id.FirstName,
		LastName:  id.LastName,
		Date:      id.Date,
	}
}

func (r *AttendanceRecord) Identity() Identity {
	return Identity{FirstName: r.FirstName, LastName: r.LastName, Date: r.Date}
}

// Clone returns a deep copy; timestamps are copied, not shared.
func (r *AttendanceRecord) Clone() *AttendanceRecord {
	if r == nil {
		return nil
	}
	c := *r
	c.MorningCheckIn = copyTime(r.MorningCheckIn)
	c.MorningCheckOut = copyTime(r.MorningCheckOut)
	c.AfternoonCheckIn = copyTime(r.AfternoonCheckIn)
	c.AfternoonCheckOut = copyTime(r.AfternoonCheckOut)
	if r.TotalHours != nil {
		h := *r.TotalHours
		c.TotalHours = &h
	}
	return &c
}

func (r *AttendanceRecord) CheckIn(slot Slot) *time.Time {
	if slot == SlotMorning {
		return r.MorningCheckIn
	}
	return r.AfternoonCheckIn
}

func (r *AttendanceRecord) CheckOut(slot Slot) *time.Time {
	if slot == SlotMorning {
		return r.MorningCheckOut
	}
	return r.AfternoonCheckOut
}

func (r *AttendanceRecord) SetCheckIn(slot Slot, t time.Time) {
	if slot == SlotMorning {
		r.MorningCheckIn = &t
		return
	}
	r.AfternoonCheckIn = &t
}

func (r *AttendanceRecord) SetCheckOut(slot Slot, t time.Time) {
	if slot == SlotMorning {
		r.MorningCheckOut = &t
		return
	}
	r.AfternoonCheckOut = &t
}

// State derives the attendance state of the day and the slot it refers to.
// The slot is empty for NoRecord and DayComplete.
func (r *AttendanceRecord) State() (string, Slot) {
	if r == nil {
		return constants.StateNoRecord, ""
	}
	if r.MorningCheckOut != nil && r.AfternoonCheckOut != nil {
		return constants.StateDayComplete, ""
	}
	// afternoon first: it is the later of the two windows
	for _, slot := range []Slot{SlotAfternoon, SlotMorning} {
		if r.CheckIn(slot) != nil && r.CheckOut(slot) == nil {
			return constants.StateCheckedIn, slot
		}
	}
	for _, slot := range []Slot{SlotAfternoon, SlotMorning} {
		if r.CheckOut(slot) != nil {
			return constants.StateCheckedOut, slot
		}
	}
	return constants.StateNoRecord, ""
}

// SameAttendance compares the client-driven fields, ignoring bookkeeping
// columns such as ID, Version and UpdatedAt.
func (r *AttendanceRecord) SameAttendance(o *AttendanceRecord) bool {
	if r == nil || o == nil {
		return r == o
	}
	return r.Identity() == o.Identity() &&
		sameTime(r.MorningCheckIn, o.MorningCheckIn) &&
		sameTime(r.MorningCheckOut, o.MorningCheckOut) &&
		sameTime(r.AfternoonCheckIn, o.AfternoonCheckIn) &&
		sameTime(r.AfternoonCheckOut, o.AfternoonCheckOut)
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
