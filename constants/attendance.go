package constants

// Date layout of the record identity
const DateLayout = "2006-01-02"

const DefaultTimezone = "Asia/Phnom_Penh"

// Half-day boundary: hour < NoonHour is morning
const NoonHour = 12

// Attendance state of an identity for one day
const (
	StateNoRecord    = "NoRecord"
	StateCheckedIn   = "CheckedIn"
	StateCheckedOut  = "CheckedOut"
	StateDayComplete = "DayComplete"
)

// Geofence defaults (Ministry of Planning, Phnom Penh)
const (
	DefaultGeofenceLat             = 11.547639
	DefaultGeofenceLon             = 104.923083
	DefaultGeofenceRadiusMeters    = 300.0
	DefaultDegradedRadiusMeters    = 200.0
	DefaultAccuracyThresholdMeters = 100.0
	EarthRadiusMeters              = 6371000.0
)

// Spreadsheet mirror columns, in sheet order
const (
	ColumnFirstName         = "FirstName"
	ColumnLastName          = "LastName"
	ColumnDate              = "Date"
	ColumnMorningCheckIn    = "Morning Check-In"
	ColumnMorningCheckOut   = "Morning Check-Out"
	ColumnAfternoonCheckIn  = "Afternoon Check-In"
	ColumnAfternoonCheckOut = "Afternoon Check-Out"
	ColumnTotalHours        = "Total Hours"
)

var SheetColumns = []string{
	ColumnFirstName,
	ColumnLastName,
	ColumnDate,
	ColumnMorningCheckIn,
	ColumnMorningCheckOut,
	ColumnAfternoonCheckIn,
	ColumnAfternoonCheckOut,
	ColumnTotalHours,
}

// Cache key prefixes
const (
	CacheKeyAttendance = "attendance:last:"
)
