package dto

import (
	"time"

	"attendance/models"
)

type CheckInRequest struct {
	FirstName   string   `json:"firstName" binding:"required"`
	LastName    string   `json:"lastName" binding:"required"`
	CheckInTime string   `json:"checkInTime" binding:"required,iso8601"`
	Latitude    *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude   *float64 `json:"longitude" binding:"omitempty,longitude"`
	Accuracy    *float64 `json:"accuracy" binding:"omitempty,gte=0"`
}

type CheckOutRequest struct {
	FirstName    string   `json:"firstName" binding:"required"`
	LastName     string   `json:"lastName" binding:"required"`
	CheckOutTime string   `json:"checkOutTime" binding:"required,iso8601"`
	Latitude     *float64 `json:"latitude" binding:"omitempty,latitude"`
	Longitude    *float64 `json:"longitude" binding:"omitempty,longitude"`
	Accuracy     *float64 `json:"accuracy" binding:"omitempty,gte=0"`
}

type CheckInResponse struct {
	Message  string            `json:"message"`
	Slot     string            `json:"slot"`
	Geofence *GeofenceResponse `json:"geofence,omitempty"`
}

type CheckOutResponse struct {
	Message      string            `json:"message"`
	CheckOutTime string            `json:"checkOutTime"`
	TotalHours   string            `json:"totalHours"`
	Geofence     *GeofenceResponse `json:"geofence,omitempty"`
}

type GeofenceRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required,latitude"`
	Longitude *float64 `json:"longitude" binding:"required,longitude"`
	Accuracy  *float64 `json:"accuracy" binding:"omitempty,gte=0"`
}

type GeofenceResponse struct {
	WithinBounds    bool    `json:"withinBounds"`
	DistanceMeters  float64 `json:"distanceMeters"`
	EffectiveRadius float64 `json:"effectiveRadius"`
	AccuracyMeters  float64 `json:"accuracyMeters"`
	Degraded        bool    `json:"degraded"`
	Hint            string  `json:"hint,omitempty"`
}

type StatusQuery struct {
	FirstName string `form:"firstName" binding:"required"`
	LastName  string `form:"lastName" binding:"required"`
	Date      string `form:"date" binding:"omitempty,datetime=2006-01-02"`
}

type AttendanceStatusResponse struct {
	models.Identity
	State    string                   `json:"state"`
	Slot     string                   `json:"slot,omitempty"`
	Record   *models.AttendanceRecord `json:"record"`
	Stale    bool                     `json:"stale"`
	CachedAt *time.Time               `json:"cachedAt,omitempty"`
}
