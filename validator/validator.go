package validator

import (
	"errors"
	"strings"
	"time"

	"attendance/constants"
	"attendance/dto"
	apperrors "attendance/errors"
	"attendance/models"
	"attendance/services"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

const msgMissingFields = "Missing required fields"

// accepted ISO-8601 layouts; timestamps without an offset are UTC
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

// RegisterBindings installs the custom binding tags on gin's validator.
func RegisterBindings() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("gin binding engine is not go-playground/validator")
	}
	return v.RegisterValidation("iso8601", func(fl validator.FieldLevel) bool {
		_, err := ParseTimestamp(fl.Field().String())
		return err == nil
	})
}

func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// BindingError converts a gin binding failure into an AppError
func BindingError(err error) *apperrors.AppError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperrors.NewAppError(apperrors.ErrCodeInvalidFormat, "Invalid request body", apperrors.ErrInvalidFormat)
	}
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			return apperrors.NewAppError(apperrors.ErrCodeRequiredField, msgMissingFields, apperrors.ErrMissingRequired)
		}
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "iso8601":
		return apperrors.NewAppError(apperrors.ErrCodeInvalidFormat, "Invalid "+fe.Field()+": expected an ISO-8601 timestamp", apperrors.ErrInvalidFormat)
	case "datetime":
		return apperrors.NewAppError(apperrors.ErrCodeInvalidFormat, "Invalid "+fe.Field()+": expected YYYY-MM-DD", apperrors.ErrInvalidFormat)
	default:
		return apperrors.NewAppError(apperrors.ErrCodeValidation, "Invalid "+fe.Field(), apperrors.ErrInvalidInput)
	}
}

func ValidateCheckIn(req *dto.CheckInRequest) (services.AttendanceCommand, error) {
	return attendanceCommand(req.FirstName, req.LastName, req.CheckInTime, req.Latitude, req.Longitude, req.Accuracy)
}

func ValidateCheckOut(req *dto.CheckOutRequest) (services.AttendanceCommand, error) {
	return attendanceCommand(req.FirstName, req.LastName, req.CheckOutTime, req.Latitude, req.Longitude, req.Accuracy)
}

func attendanceCommand(firstName, lastName, ts string, lat, lon, acc *float64) (services.AttendanceCommand, error) {
	firstName = strings.TrimSpace(firstName)
	lastName = strings.TrimSpace(lastName)
	if firstName == "" || lastName == "" || strings.TrimSpace(ts) == "" {
		return services.AttendanceCommand{}, apperrors.NewAppError(apperrors.ErrCodeRequiredField, msgMissingFields, apperrors.ErrMissingRequired)
	}

	t, err := ParseTimestamp(ts)
	if err != nil {
		return services.AttendanceCommand{}, apperrors.NewAppError(apperrors.ErrCodeInvalidFormat, "Invalid timestamp: expected ISO-8601", err)
	}

	cmd := services.AttendanceCommand{FirstName: firstName, LastName: lastName, Time: t}

	// coordinates are optional, but only as a pair
	if (lat == nil) != (lon == nil) {
		return services.AttendanceCommand{}, apperrors.NewAppError(apperrors.ErrCodeValidation, "latitude and longitude must be sent together", apperrors.ErrInvalidInput)
	}
	if lat != nil {
		obs := observation(*lat, *lon, acc)
		cmd.Position = &obs
	}
	return cmd, nil
}

func ValidateGeofence(req *dto.GeofenceRequest) (services.Observation, error) {
	if req.Latitude == nil || req.Longitude == nil {
		return services.Observation{}, apperrors.NewAppError(apperrors.ErrCodeRequiredField, msgMissingFields, apperrors.ErrMissingRequired)
	}
	return observation(*req.Latitude, *req.Longitude, req.Accuracy), nil
}

func observation(lat, lon float64, acc *float64) services.Observation {
	obs := services.Observation{Latitude: lat, Longitude: lon}
	if acc != nil {
		obs.AccuracyMeters = *acc
	}
	return obs
}

// ValidateStatusQuery builds the identity to look up; date defaults to today.
func ValidateStatusQuery(q *dto.StatusQuery, today string) (models.Identity, error) {
	id := models.Identity{
		FirstName: strings.TrimSpace(q.FirstName),
		LastName:  strings.TrimSpace(q.LastName),
		Date:      strings.TrimSpace(q.Date),
	}
	if id.FirstName == "" || id.LastName == "" {
		return models.Identity{}, apperrors.NewAppError(apperrors.ErrCodeRequiredField, msgMissingFields, apperrors.ErrMissingRequired)
	}
	if id.Date == "" {
		id.Date = today
	}
	if _, err := time.Parse(constants.DateLayout, id.Date); err != nil {
		return models.Identity{}, apperrors.NewAppError(apperrors.ErrCodeInvalidFormat, "Invalid date: expected YYYY-MM-DD", err)
	}
	return id, nil
}
