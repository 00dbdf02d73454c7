package controllers

import (
	"fmt"
	"time"

	"attendance/dto"
	"attendance/models"
	"attendance/response"
	"attendance/services"
	"attendance/services/logger"
	"attendance/validator"

	"github.com/gin-gonic/gin"
)

const hintPoorAccuracy = "Try moving near a window for better accuracy"

type AttendanceController struct {
	service  services.AttendanceServiceInterface
	location *time.Location
	logger   logger.Logger
}

type AttendanceControllerOptions struct {
	Service  services.AttendanceServiceInterface
	Location *time.Location
	Logger   logger.Logger
}

func NewAttendanceController(opts AttendanceControllerOptions) *AttendanceController {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &AttendanceController{
		service:  opts.Service,
		location: opts.Location,
		logger:   opts.Logger,
	}
}

func (ac *AttendanceController) CheckIn(c *gin.Context) {
	var req dto.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, validator.BindingError(err))
		return
	}
	cmd, err := validator.ValidateCheckIn(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := ac.service.CheckIn(c.Request.Context(), cmd)
	if err != nil {
		response.Error(c, err)
		return
	}

	column := res.Slot.Label() + " Check-In"
	message := fmt.Sprintf("✅ %s recorded successfully!", column)
	if !res.Written {
		message = fmt.Sprintf("✅ %s already recorded", column)
	}
	response.Created(c, dto.CheckInResponse{
		Message:  message,
		Slot:     string(res.Slot),
		Geofence: geofenceResponse(res.Geofence),
	})
}

func (ac *AttendanceController) CheckOut(c *gin.Context) {
	var req dto.CheckOutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, validator.BindingError(err))
		return
	}
	cmd, err := validator.ValidateCheckOut(&req)
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := ac.service.CheckOut(c.Request.Context(), cmd)
	if err != nil {
		response.Error(c, err)
		return
	}

	totalHours := services.FormatHours(0)
	if res.Record.TotalHours != nil {
		totalHours = *res.Record.TotalHours
	}
	response.Created(c, dto.CheckOutResponse{
		Message:      "✅ Check-Out Successful!",
		CheckOutTime: cmd.Time.In(ac.location).Format(time.RFC3339),
		TotalHours:   totalHours,
		Geofence:     geofenceResponse(res.Geofence),
	})
}

// Status returns the authoritative record for reconciliation by clients
func (ac *AttendanceController) Status(c *gin.Context) {
	var q dto.StatusQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, validator.BindingError(err))
		return
	}
	id, err := validator.ValidateStatusQuery(&q, ac.service.Today())
	if err != nil {
		response.Error(c, err)
		return
	}

	st, err := ac.service.Status(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, statusResponse(id, st))
}

func (ac *AttendanceController) Geofence(c *gin.Context) {
	var req dto.GeofenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, validator.BindingError(err))
		return
	}
	obs, err := validator.ValidateGeofence(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	result := ac.service.EvaluateGeofence(obs)
	response.Success(c, geofenceResponse(&result))
}

func (ac *AttendanceController) SyncStatus(c *gin.Context) {
	response.Success(c, ac.service.SyncStatus())
}

func geofenceResponse(r *services.GeofenceResult) *dto.GeofenceResponse {
	if r == nil {
		return nil
	}
	resp := &dto.GeofenceResponse{
		WithinBounds:    r.WithinBounds,
		DistanceMeters:  r.DistanceMeters,
		EffectiveRadius: r.EffectiveRadius,
		AccuracyMeters:  r.AccuracyMeters,
		Degraded:        r.Degraded,
	}
	if r.Degraded {
		resp.Hint = hintPoorAccuracy
	}
	return resp
}

func statusResponse(id models.Identity, st *services.AttendanceStatus) dto.AttendanceStatusResponse {
	return dto.AttendanceStatusResponse{
		Identity: id,
		State:    st.State,
		Slot:     string(st.Slot),
		Record:   st.Record,
		Stale:    st.Stale,
		CachedAt: st.CachedAt,
	}
}
