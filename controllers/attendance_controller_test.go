package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"attendance/dto"
	"attendance/models"
	"attendance/response"
	"attendance/services"
	"attendance/validator"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type countingQueue struct {
	mu sync.Mutex
	n  int
}

func (q *countingQueue) Enqueue(records ...*models.AttendanceRecord) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.n += len(records)
}

func (q *countingQueue) Status() services.SyncStatus {
	q.mu.Lock()
	defer q.mu.Unlock()
	return services.SyncStatus{Pending: q.n}
}

func phnomPenh(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Phnom_Penh")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	return loc
}

func newTestRouter(t *testing.T) (*gin.Engine, *countingQueue) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	if err := validator.RegisterBindings(); err != nil {
		t.Fatalf("RegisterBindings: %v", err)
	}

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, _ := db.DB()
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	store, err := services.NewGormAttendanceStore(services.AttendanceStoreOptions{DB: db, AutoMigrate: true})
	if err != nil {
		t.Fatalf("NewGormAttendanceStore: %v", err)
	}

	loc := phnomPenh(t)
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	queue := &countingQueue{}
	svc := services.NewAttendanceService(services.AttendanceServiceOptions{
		Store:  store,
		Merger: services.NewDailyRecordMerger(loc, func() time.Time { return now }),
		Queue:  queue,
	})
	ac := NewAttendanceController(AttendanceControllerOptions{Service: svc, Location: loc})

	r := gin.New()
	r.POST("/attendance/check-in", ac.CheckIn)
	r.POST("/attendance/check-out", ac.CheckOut)
	r.GET("/attendance/status", ac.Status)
	r.POST("/attendance/geofence", ac.Geofence)
	r.GET("/attendance/sync", ac.SyncStatus)
	return r, queue
}

func doJSON(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

func TestCheckInCheckOutFlow(t *testing.T) {
	r, queue := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/attendance/check-in",
		`{"firstName":"Sokha","lastName":"Chan","checkInTime":"2026-03-10T01:00:00.000Z"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("check-in status = %d, body %s", w.Code, w.Body.String())
	}
	var in dto.CheckInResponse
	decode(t, w, &in)
	if in.Message != "✅ Morning Check-In recorded successfully!" {
		t.Errorf("message = %q", in.Message)
	}

	w = doJSON(t, r, http.MethodPost, "/attendance/check-out",
		`{"firstName":"Sokha","lastName":"Chan","checkOutTime":"2026-03-10T05:00:00Z"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("check-out status = %d, body %s", w.Code, w.Body.String())
	}
	var out dto.CheckOutResponse
	decode(t, w, &out)
	if out.TotalHours != "4h 0m" {
		t.Errorf("totalHours = %q, want 4h 0m", out.TotalHours)
	}
	if out.CheckOutTime != "2026-03-10T12:00:00+07:00" {
		t.Errorf("checkOutTime = %q, want local time", out.CheckOutTime)
	}
	if queue.n != 2 {
		t.Errorf("enqueued %d, want 2", queue.n)
	}

	w = doJSON(t, r, http.MethodGet, "/attendance/status?firstName=Sokha&lastName=Chan&date=2026-03-10", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var st struct {
		Data dto.AttendanceStatusResponse `json:"data"`
	}
	decode(t, w, &st)
	if st.Data.State != "CheckedOut" || st.Data.Slot != "morning" || st.Data.Record == nil {
		t.Errorf("status = %+v", st.Data)
	}
}

func TestCheckInDuplicate(t *testing.T) {
	r, queue := newTestRouter(t)
	body := `{"firstName":"Sokha","lastName":"Chan","checkInTime":"2026-03-10T01:00:00Z"}`

	doJSON(t, r, http.MethodPost, "/attendance/check-in", body)
	w := doJSON(t, r, http.MethodPost, "/attendance/check-in", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("duplicate check-in status = %d", w.Code)
	}
	if queue.n != 1 {
		t.Errorf("enqueued %d, want 1", queue.n)
	}
}

func TestAttendanceErrors(t *testing.T) {
	tests := []struct {
		name   string
		setup  string
		path   string
		body   string
		status int
		error  string
	}{
		{
			name:   "check-in missing time",
			path:   "/attendance/check-in",
			body:   `{"firstName":"Sokha","lastName":"Chan"}`,
			status: http.StatusBadRequest,
			error:  "Missing required fields",
		},
		{
			name:   "check-in malformed time",
			path:   "/attendance/check-in",
			body:   `{"firstName":"Sokha","lastName":"Chan","checkInTime":"8am"}`,
			status: http.StatusBadRequest,
		},
		{
			name:   "check-in malformed json",
			path:   "/attendance/check-in",
			body:   `{"firstName":`,
			status: http.StatusBadRequest,
		},
		{
			name:   "check-out missing name",
			path:   "/attendance/check-out",
			body:   `{"lastName":"Chan","checkOutTime":"2026-03-10T05:00:00Z"}`,
			status: http.StatusBadRequest,
			error:  "Missing required fields",
		},
		{
			name:   "check-out without record",
			path:   "/attendance/check-out",
			body:   `{"firstName":"Sokha","lastName":"Chan","checkOutTime":"2026-03-10T05:00:00Z"}`,
			status: http.StatusNotFound,
			error:  "Check-in record not found",
		},
		{
			name:   "check-out without matching check-in",
			setup:  `{"firstName":"Sokha","lastName":"Chan","checkInTime":"2026-03-10T06:30:00Z"}`,
			path:   "/attendance/check-out",
			body:   `{"firstName":"Sokha","lastName":"Chan","checkOutTime":"2026-03-10T02:00:00Z"}`,
			status: http.StatusBadRequest,
			error:  "No valid Morning check-in found for check-out",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRouter(t)
			if tt.setup != "" {
				if w := doJSON(t, r, http.MethodPost, "/attendance/check-in", tt.setup); w.Code != http.StatusCreated {
					t.Fatalf("setup status = %d", w.Code)
				}
			}

			w := doJSON(t, r, http.MethodPost, tt.path, tt.body)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d, body %s", w.Code, tt.status, w.Body.String())
			}
			var body response.ErrorBody
			decode(t, w, &body)
			if body.Error == "" {
				t.Error("error body is empty")
			}
			if tt.error != "" && body.Error != tt.error {
				t.Errorf("error = %q, want %q", body.Error, tt.error)
			}
		})
	}
}

func TestGeofenceEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(t, r, http.MethodPost, "/attendance/geofence",
		`{"latitude":11.547639,"longitude":104.923083,"accuracy":150}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var got struct {
		Data dto.GeofenceResponse `json:"data"`
	}
	decode(t, w, &got)
	if !got.Data.WithinBounds || !got.Data.Degraded || got.Data.EffectiveRadius != 200 {
		t.Errorf("geofence = %+v", got.Data)
	}
	if got.Data.Hint == "" {
		t.Error("degraded accuracy should carry a hint")
	}

	w = doJSON(t, r, http.MethodPost, "/attendance/geofence", `{"latitude":11.5}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing longitude status = %d, want 400", w.Code)
	}
}

func TestStatusRequiresName(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/attendance/status?firstName=Sokha", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSyncStatusEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/attendance/sync", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var got struct {
		Data services.SyncStatus `json:"data"`
	}
	decode(t, w, &got)
	if got.Data.Pending != 0 {
		t.Errorf("pending = %d, want 0", got.Data.Pending)
	}
}
