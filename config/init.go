package config

import (
	"context"
	"errors"
	"fmt"

	"attendance/jobs"
	"attendance/middleware"
	"attendance/services"
	"attendance/services/logger"
	"attendance/services/notification"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/olahol/melody"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Components are the long lived dependencies shared by the commands
type Components struct {
	DB      *gorm.DB
	Redis   *redis.Client
	Store   *services.GormAttendanceStore
	Queue   *services.SheetSyncQueue
	Service *services.AttendanceService
	Melody  *melody.Melody
}

// InitApp creates the router with CORS and request middleware, and the
// scheduler for background jobs.
func InitApp(cfg *AppConfig, log logger.Logger) (*gin.Engine, *cron.Cron) {
	switch cfg.GinMode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.GinMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestIDMiddleware(), middleware.LoggerMiddleware(log))

	configCors := cors.DefaultConfig()
	configCors.AddAllowHeaders("Authorization", middleware.HeaderRequestID)
	configCors.AddExposeHeaders(middleware.HeaderRequestID)
	configCors.AllowCredentials = true
	configCors.AllowAllOrigins = false
	configCors.AllowOriginFunc = func(origin string) bool {
		return true
	}
	router.Use(cors.New(configCors))

	_ = router.SetTrustedProxies(nil)

	return router, cron.New()
}

// InitComponents connects the database, cache and spreadsheet and builds the
// attendance service. withSheets=false skips the spreadsheet mirror.
func InitComponents(ctx context.Context, cfg *AppConfig, log logger.Logger, withSheets bool) (*Components, error) {
	db, err := ConnectDB(cfg, log)
	if err != nil {
		return nil, err
	}

	store, err := services.NewGormAttendanceStore(services.AttendanceStoreOptions{
		DB:          db,
		Logger:      log,
		AutoMigrate: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize attendance store: %w", err)
	}

	var cache services.RecordCache = services.NopRecordCache{}
	rdb, err := ConnectRedis(ctx, cfg, log)
	if err != nil {
		// the cache only backs stale reads, run without it
		log.Error("❌ %v, attendance cache disabled", err)
	} else if rdb != nil {
		cache = services.NewRedisRecordCache(rdb, cfg.RedisCacheTTL, log)
	}

	var sink services.SheetSink = services.NopSheetSink{Logger: log}
	if withSheets {
		if sink, err = NewSheetSink(ctx, cfg, log); err != nil {
			_ = (&Components{DB: db, Redis: rdb}).Close()
			return nil, err
		}
	}

	queue := services.NewSheetSyncQueue(services.SheetSyncQueueOptions{
		Sink:          sink,
		Logger:        log,
		Location:      cfg.Location,
		BatchSize:     cfg.SheetBatchSize,
		BatchInterval: cfg.SheetBatchInterval,
	})

	m := melody.New()
	svc := services.NewAttendanceService(services.AttendanceServiceOptions{
		Store:           store,
		Merger:          services.NewDailyRecordMerger(cfg.Location, nil),
		Queue:           queue,
		Cache:           cache,
		Notifier:        notification.NewMelodyService(m),
		Geofence:        cfg.Geofence,
		EnforceGeofence: cfg.EnforceGeofence,
		Logger:          log,
	})

	log.Info("All components initialized successfully")
	return &Components{
		DB:      db,
		Redis:   rdb,
		Store:   store,
		Queue:   queue,
		Service: svc,
		Melody:  m,
	}, nil
}

// NewSheetSink connects to Google Sheets; without SPREADSHEET_ID the mirror
// is a no-op.
func NewSheetSink(ctx context.Context, cfg *AppConfig, log logger.Logger) (services.SheetSink, error) {
	if cfg.SpreadsheetID == "" {
		log.Warn("⚠️ SPREADSHEET_ID not set, spreadsheet mirror disabled")
		return services.NopSheetSink{Logger: log}, nil
	}
	sink, err := services.NewGoogleSheetSink(ctx, services.GoogleSheetSinkOptions{
		SpreadsheetID:   cfg.SpreadsheetID,
		SheetName:       cfg.SheetName,
		CredentialsFile: cfg.SheetsCredentials,
		Logger:          log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets: %w", err)
	}
	return sink, nil
}

// Close releases the database and cache connections.
func (c *Components) Close() error {
	var errs []error
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if sqlDB, err := c.DB.DB(); err == nil {
		errs = append(errs, sqlDB.Close())
	}
	if c.Melody != nil {
		errs = append(errs, c.Melody.Close())
	}
	return errors.Join(errs...)
}

func InitCronJobs(c *cron.Cron, queue jobs.SyncKicker, cfg *AppConfig, log logger.Logger) error {
	if err := jobs.InitCronJobs(c, queue, cfg.SyncRetrySchedule, log); err != nil {
		return fmt.Errorf("failed to initialize cron jobs: %v", err)
	}
	return nil
}

func InitWebSocket(router *gin.Engine, m *melody.Melody, log logger.Logger) {
	router.GET("/ws", func(c *gin.Context) {
		if err := m.HandleRequest(c.Writer, c.Request); err != nil {
			log.Warn("⚠️ WebSocket upgrade failed: %v", err)
		}
	})
	log.Info("WebSocket initialized successfully")
}
