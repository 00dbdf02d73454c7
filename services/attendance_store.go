package services

import (
	"context"
	"errors"

	apperrors "attendance/errors"
	"attendance/models"
	"attendance/services/logger"

	"gorm.io/gorm"
)

const defaultStoreRetries = 3

// RecordMutator receives the current record (nil when absent) and returns
// the record to persist. Returning an error aborts without writing.
type RecordMutator func(existing *models.AttendanceRecord) (*models.AttendanceRecord, error)

// AttendanceStore owns the authoritative per-identity daily record.
type AttendanceStore interface {
	Get(ctx context.Context, id models.Identity) (*models.AttendanceRecord, error)
	// Upsert runs mutate against a consistent prior state and persists the
	// result. The bool reports whether anything was written.
	Upsert(ctx context.Context, id models.Identity, mutate RecordMutator) (*models.AttendanceRecord, bool, error)
	DeleteAll(ctx context.Context) (int64, error)
}

type GormAttendanceStore struct {
	db         *gorm.DB
	locks      *KeyedMutex
	logger     logger.Logger
	maxRetries int
}

type AttendanceStoreOptions struct {
	DB          *gorm.DB
	Logger      logger.Logger
	AutoMigrate bool
	MaxRetries  int
}

func NewGormAttendanceStore(opts AttendanceStoreOptions) (*GormAttendanceStore, error) {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = defaultStoreRetries
	}
	if opts.AutoMigrate {
		if err := opts.DB.AutoMigrate(&models.AttendanceRecord{}); err != nil {
			opts.Logger.Error("❌ Failed to migrate attendance table: %v", err)
			return nil, apperrors.StoreUnavailable(err)
		}
	}
	return &GormAttendanceStore{
		db:         opts.DB,
		locks:      NewKeyedMutex(),
		logger:     opts.Logger,
		maxRetries: opts.MaxRetries,
	}, nil
}

func (s *GormAttendanceStore) Get(ctx context.Context, id models.Identity) (*models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	err := s.db.WithContext(ctx).
		Where("first_name = ? AND last_name = ? AND date = ?", id.FirstName, id.LastName, id.Date).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.StoreUnavailable(err)
	}
	return &rec, nil
}

// Upsert serializes mutations per identity in-process and guards the write
// with a version compare-and-swap, so concurrent writers from other
// processes cause a re-read and re-merge instead of a lost update.
func (s *GormAttendanceStore) Upsert(ctx context.Context, id models.Identity, mutate RecordMutator) (*models.AttendanceRecord, bool, error) {
	unlock := s.locks.Lock(id.Key())
	defer unlock()

	log := s.logger.WithFields(logger.Fields{"first_name": id.FirstName, "last_name": id.LastName, "date": id.Date})

	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		existing, err := s.Get(ctx, id)
		if err != nil {
			return nil, false, err
		}

		merged, err := mutate(existing)
		if err != nil {
			return nil, false, err
		}
		if existing != nil && merged.SameAttendance(existing) {
			return existing, false, nil
		}

		var written bool
		if existing == nil {
			written, err = s.create(ctx, merged)
		} else {
			written, err = s.update(ctx, existing, merged)
		}
		if err != nil {
			return nil, false, err
		}
		if written {
			return merged, true, nil
		}

		log.Warn("Attendance record changed concurrently, retrying merge (attempt %d/%d)", attempt, s.maxRetries)
	}

	return nil, false, apperrors.StoreUnavailable(
		apperrors.NewAppError(apperrors.ErrCodeStoreConflict, "too many concurrent updates", apperrors.ErrVersionConflict))
}

func (s *GormAttendanceStore) create(ctx context.Context, rec *models.AttendanceRecord) (bool, error) {
	rec.ID = 0
	rec.Version = 1
	err := s.db.WithContext(ctx).Create(rec).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// created by another writer since our read
		return false, nil
	}
	if err != nil {
		return false, apperrors.StoreUnavailable(err)
	}
	return true, nil
}

func (s *GormAttendanceStore) update(ctx context.Context, existing, merged *models.AttendanceRecord) (bool, error) {
	merged.ID = existing.ID
	merged.Version = existing.Version + 1

	res := s.db.WithContext(ctx).
		Model(&models.AttendanceRecord{}).
		Where("id = ? AND version = ?", existing.ID, existing.Version).
		Updates(map[string]interface{}{
			"morning_check_in":    merged.MorningCheckIn,
			"morning_check_out":   merged.MorningCheckOut,
			"afternoon_check_in":  merged.AfternoonCheckIn,
			"afternoon_check_out": merged.AfternoonCheckOut,
			"total_hours":         merged.TotalHours,
			"version":             merged.Version,
			"updated_at":          merged.UpdatedAt,
		})
	if res.Error != nil {
		return false, apperrors.StoreUnavailable(res.Error)
	}
	return res.RowsAffected == 1, nil
}

// DeleteAll removes every attendance record. Administrative use only.
func (s *GormAttendanceStore) DeleteAll(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.AttendanceRecord{})
	if res.Error != nil {
		return 0, apperrors.StoreUnavailable(res.Error)
	}
	s.logger.Info("✅ Deleted %d attendance records", res.RowsAffected)
	return res.RowsAffected, nil
}
