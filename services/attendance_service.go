package services

import (
	"context"
	"time"

	apperrors "attendance/errors"
	"attendance/models"
	"attendance/services/logger"
	"attendance/services/notification"
)

// SyncQueue is the part of SheetSyncQueue the service depends on
type SyncQueue interface {
	Enqueue(records ...*models.AttendanceRecord)
	Status() SyncStatus
}

type AttendanceServiceInterface interface {
	CheckIn(ctx context.Context, cmd AttendanceCommand) (*AttendanceResult, error)
	CheckOut(ctx context.Context, cmd AttendanceCommand) (*AttendanceResult, error)
	Status(ctx context.Context, id models.Identity) (*AttendanceStatus, error)
	EvaluateGeofence(obs Observation) GeofenceResult
	SyncStatus() SyncStatus
	Today() string
	Purge(ctx context.Context) (int64, error)
}

// AttendanceCommand is a validated check-in or check-out request
type AttendanceCommand struct {
	FirstName string
	LastName  string
	Time      time.Time
	// Position is optional; nil skips the geofence
	Position *Observation
}

type AttendanceResult struct {
	Record   *models.AttendanceRecord
	Slot     models.Slot
	Written  bool
	Geofence *GeofenceResult
}

type AttendanceStatus struct {
	Record   *models.AttendanceRecord
	State    string
	Slot     models.Slot
	Stale    bool
	CachedAt *time.Time
}

type AttendanceService struct {
	store           AttendanceStore
	merger          *DailyRecordMerger
	queue           SyncQueue
	cache           RecordCache
	notifier        notification.Service
	geofence        GeofencePolicy
	enforceGeofence bool
	logger          logger.Logger
}

type AttendanceServiceOptions struct {
	Store           AttendanceStore
	Merger          *DailyRecordMerger
	Queue           SyncQueue
	Cache           RecordCache
	Notifier        notification.Service
	Geofence        GeofencePolicy
	EnforceGeofence bool
	Logger          logger.Logger
}

func NewAttendanceService(opts AttendanceServiceOptions) *AttendanceService {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Merger == nil {
		opts.Merger = NewDailyRecordMerger(nil, nil)
	}
	if opts.Cache == nil {
		opts.Cache = NopRecordCache{}
	}
	if opts.Notifier == nil {
		opts.Notifier = notification.NopService{}
	}
	if opts.Geofence.RadiusMeters == 0 {
		opts.Geofence = DefaultGeofencePolicy()
	}
	return &AttendanceService{
		store:           opts.Store,
		merger:          opts.Merger,
		queue:           opts.Queue,
		cache:           opts.Cache,
		notifier:        opts.Notifier,
		geofence:        opts.Geofence,
		enforceGeofence: opts.EnforceGeofence,
		logger:          opts.Logger,
	}
}

func (s *AttendanceService) CheckIn(ctx context.Context, cmd AttendanceCommand) (*AttendanceResult, error) {
	return s.apply(ctx, models.EventCheckIn, cmd)
}

// CheckOut closes the slot the time falls in. A day without any record is
// RecordNotFound; a record without a check-in for that slot is
// NoMatchingCheckIn.
func (s *AttendanceService) CheckOut(ctx context.Context, cmd AttendanceCommand) (*AttendanceResult, error) {
	return s.apply(ctx, models.EventCheckOut, cmd)
}

func (s *AttendanceService) apply(ctx context.Context, kind models.EventKind, cmd AttendanceCommand) (*AttendanceResult, error) {
	id := models.Identity{
		FirstName: cmd.FirstName,
		LastName:  cmd.LastName,
		Date:      s.merger.DateFor(cmd.Time),
	}
	log := s.logger.WithFields(logger.Fields{"first_name": id.FirstName, "last_name": id.LastName, "date": id.Date, "event": string(kind)})

	result := &AttendanceResult{}
	if cmd.Position != nil {
		geo := s.geofence.Evaluate(*cmd.Position)
		result.Geofence = &geo
		log.Info("📍 Geofence: %.1fm from center, radius %.0fm, accuracy %.0fm, within=%t",
			geo.DistanceMeters, geo.EffectiveRadius, geo.AccuracyMeters, geo.WithinBounds)
		if s.enforceGeofence && !geo.WithinBounds {
			return nil, apperrors.OutsideGeofence(geo.DistanceMeters, geo.EffectiveRadius)
		}
	}

	event := models.Event{Kind: kind, Timestamp: cmd.Time}
	rec, written, err := s.store.Upsert(ctx, id, func(existing *models.AttendanceRecord) (*models.AttendanceRecord, error) {
		if kind == models.EventCheckOut && existing == nil {
			return nil, apperrors.RecordNotFound()
		}
		if kind == models.EventCheckOut {
			result.Slot = s.merger.checkOutSlot(existing, cmd.Time)
		} else {
			result.Slot = s.merger.SlotFor(cmd.Time)
		}
		return s.merger.Merge(id, existing, event)
	})
	if err != nil {
		if apperrors.HTTPStatus(err) >= 500 {
			log.Error("❌ Error in %s: %v", kind, err)
		} else {
			log.Info("Rejected %s: %v", kind, err)
		}
		return nil, err
	}

	result.Record = rec
	result.Written = written
	if !written {
		log.Debug("%s %s already recorded, nothing to do", result.Slot.Label(), kind)
		return result, nil
	}

	log.Info("✅ %s %s recorded", result.Slot.Label(), kind)
	s.afterWrite(ctx, rec)
	return result, nil
}

// afterWrite fans a persisted record out to the cache, the live feed and the
// spreadsheet mirror. None of these can fail the request.
func (s *AttendanceService) afterWrite(ctx context.Context, rec *models.AttendanceRecord) {
	if err := s.cache.Put(ctx, rec); err != nil {
		s.logger.Warn("⚠️ Failed to cache attendance record %s: %v", rec.Identity(), err)
	}

	if msg, err := notification.NewMessageBuilder(rec).Build(); err != nil {
		s.logger.Warn("⚠️ Failed to build live feed message: %v", err)
	} else if err := s.notifier.SendMessage(msg); err != nil {
		s.logger.Warn("⚠️ Failed to broadcast attendance update: %v", err)
	}

	if s.queue != nil {
		s.queue.Enqueue(rec)
	}
}

// Status reads the authoritative record. When the store is unreachable the
// last cached value is returned and marked stale.
func (s *AttendanceService) Status(ctx context.Context, id models.Identity) (*AttendanceStatus, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		if !apperrors.HasCode(err, apperrors.ErrCodeStoreUnavailable) {
			return nil, err
		}
		cached, cacheErr := s.cache.Get(ctx, id)
		if cacheErr != nil {
			s.logger.Warn("⚠️ Attendance cache unavailable: %v", cacheErr)
		}
		if cached == nil || cached.Record == nil {
			return nil, err
		}
		s.logger.Warn("⚠️ Serving cached attendance for %s: %v", id, err)
		st := newAttendanceStatus(cached.Record)
		st.Stale = true
		at := cached.CachedAt
		st.CachedAt = &at
		return st, nil
	}
	return newAttendanceStatus(rec), nil
}

func newAttendanceStatus(rec *models.AttendanceRecord) *AttendanceStatus {
	state, slot := rec.State()
	return &AttendanceStatus{Record: rec, State: state, Slot: slot}
}

func (s *AttendanceService) EvaluateGeofence(obs Observation) GeofenceResult {
	return s.geofence.Evaluate(obs)
}

func (s *AttendanceService) SyncStatus() SyncStatus {
	if s.queue == nil {
		return SyncStatus{}
	}
	return s.queue.Status()
}

// Today is the current civil date in the organization timezone
func (s *AttendanceService) Today() string {
	return s.merger.DateFor(s.merger.now())
}

// Purge deletes every attendance record and the cached copies.
func (s *AttendanceService) Purge(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.cache.Clear(ctx); err != nil {
		s.logger.Warn("⚠️ Failed to clear attendance cache: %v", err)
	}
	return n, nil
}
