package routes

import (
	"net/http"

	"attendance/controllers"
	"attendance/response"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine, attendanceController *controllers.AttendanceController) {
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "🚀 Attendance API is running...")
	})
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	attendance := router.Group("/attendance")
	attendance.POST("/check-in", attendanceController.CheckIn)
	attendance.POST("/check-out", attendanceController.CheckOut)
	attendance.GET("/status", attendanceController.Status)
	attendance.POST("/geofence", attendanceController.Geofence)
	attendance.GET("/sync", attendanceController.SyncStatus)

	router.NoRoute(response.NotFound)
}
