package services

import (
	"context"
	"sync"
	"time"

	apperrors "attendance/errors"
	"attendance/models"
	"attendance/services/logger"
)

const (
	DefaultSheetBatchSize     = 10
	DefaultSheetBatchInterval = time.Second
	defaultSheetCallTimeout   = 30 * time.Second
)

// SheetRow is the spreadsheet projection of an attendance record. Empty
// strings stand for unset fields.
type SheetRow struct {
	FirstName         string
	LastName          string
	Date              string
	MorningCheckIn    string
	MorningCheckOut   string
	AfternoonCheckIn  string
	AfternoonCheckOut string
	TotalHours        string
}

func NewSheetRow(rec *models.AttendanceRecord, loc *time.Location) SheetRow {
	row := SheetRow{
		FirstName:         rec.FirstName,
		LastName:          rec.LastName,
		Date:              rec.Date,
		MorningCheckIn:    formatSheetTime(rec.MorningCheckIn, loc),
		MorningCheckOut:   formatSheetTime(rec.MorningCheckOut, loc),
		AfternoonCheckIn:  formatSheetTime(rec.AfternoonCheckIn, loc),
		AfternoonCheckOut: formatSheetTime(rec.AfternoonCheckOut, loc),
	}
	if rec.TotalHours != nil {
		row.TotalHours = *rec.TotalHours
	}
	return row
}

// Values returns the row in sheet column order
func (r SheetRow) Values() []string {
	return []string{
		r.FirstName,
		r.LastName,
		r.Date,
		r.MorningCheckIn,
		r.MorningCheckOut,
		r.AfternoonCheckIn,
		r.AfternoonCheckOut,
		r.TotalHours,
	}
}

// Matches reports whether a sheet row with the given key columns belongs to r
func (r SheetRow) Matches(firstName, lastName, date string) bool {
	return r.FirstName == firstName && r.LastName == lastName && r.Date == date
}

func formatSheetTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return ""
	}
	return t.In(loc).Format(time.RFC3339)
}

// SheetSink writes rows to the spreadsheet mirror. For each row an existing
// line matching (FirstName, LastName, Date) gets its non-empty cells
// overwritten; otherwise a new line is appended.
type SheetSink interface {
	UpsertRows(ctx context.Context, rows []SheetRow) error
}

// SyncStatus describes the mirror queue
type SyncStatus struct {
	Pending      int        `json:"pending"`
	Draining     bool       `json:"draining"`
	LastError    string     `json:"lastError,omitempty"`
	LastSyncedAt *time.Time `json:"lastSyncedAt,omitempty"`
}

// SheetSyncQueue mirrors records into the spreadsheet asynchronously. At
// most one drain runs at a time; it is the only writer to the sink.
type SheetSyncQueue struct {
	sink        SheetSink
	logger      logger.Logger
	loc         *time.Location
	batchSize   int
	interval    time.Duration
	callTimeout time.Duration

	mu           sync.Mutex
	pending      []SheetRow
	draining     bool
	done         chan struct{}
	closed       bool
	lastErr      error
	lastSyncedAt time.Time
}

type SheetSyncQueueOptions struct {
	Sink          SheetSink
	Logger        logger.Logger
	Location      *time.Location
	BatchSize     int
	BatchInterval time.Duration
	CallTimeout   time.Duration
}

func NewSheetSyncQueue(opts SheetSyncQueueOptions) *SheetSyncQueue {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultSheetBatchSize
	}
	if opts.BatchInterval <= 0 {
		opts.BatchInterval = DefaultSheetBatchInterval
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultSheetCallTimeout
	}
	return &SheetSyncQueue{
		sink:        opts.Sink,
		logger:      opts.Logger,
		loc:         opts.Location,
		batchSize:   opts.BatchSize,
		interval:    opts.BatchInterval,
		callTimeout: opts.CallTimeout,
	}
}

// Enqueue snapshots the records and starts a drain unless one is running.
// It never blocks on the sink.
func (q *SheetSyncQueue) Enqueue(records ...*models.AttendanceRecord) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		q.logger.Warn("⚠️ Sheet sync queue closed, dropping %d updates", len(records))
		return
	}
	for _, rec := range records {
		q.pending = append(q.pending, NewSheetRow(rec, q.loc))
	}
	q.startLocked()
}

// Kick starts a drain for entries left behind by a failed one.
func (q *SheetSyncQueue) Kick() bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed || len(q.pending) == 0 {
		return false
	}
	return q.startLocked()
}

func (q *SheetSyncQueue) startLocked() bool {
	if q.draining || len(q.pending) == 0 {
		return false
	}
	q.draining = true
	q.done = make(chan struct{})
	go q.drain(q.done)
	return true
}

func (q *SheetSyncQueue) drain(done chan struct{}) {
	defer close(done)

	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.draining = false
			q.mu.Unlock()
			q.logger.Info("✅ Google Sheets batch update completed")
			return
		}
		n := q.batchSize
		if n > len(q.pending) {
			n = len(q.pending)
		}
		batch := make([]SheetRow, n)
		copy(batch, q.pending[:n])
		q.pending = q.pending[n:]
		q.mu.Unlock()

		err := q.write(batch)

		q.mu.Lock()
		if err != nil {
			// keep the batch at the head so ordering survives the retry
			q.pending = append(batch, q.pending...)
			q.lastErr = err
		} else {
			q.lastErr = nil
			q.lastSyncedAt = time.Now()
		}
		remaining := len(q.pending)
		q.mu.Unlock()

		if err != nil {
			q.logger.Error("❌ Google Sheets batch update error, %d updates left queued: %v", remaining, apperrors.SyncSinkError(err))
		} else {
			q.logger.Info("✅ Processed batch of %d updates", n)
		}

		// spacing applies after every sink call, failed or not
		time.Sleep(q.interval)

		if err != nil {
			q.mu.Lock()
			q.draining = false
			q.mu.Unlock()
			return
		}
	}
}

func (q *SheetSyncQueue) write(batch []SheetRow) error {
	ctx, cancel := context.WithTimeout(context.Background(), q.callTimeout)
	defer cancel()
	return q.sink.UpsertRows(ctx, batch)
}

// Wait blocks until the running drain, if any, has finished.
func (q *SheetSyncQueue) Wait(ctx context.Context) error {
	q.mu.Lock()
	done := q.done
	q.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting updates and waits for the active drain. Whatever is
// still pending afterwards is lost, since the queue is in memory only.
func (q *SheetSyncQueue) Close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	err := q.Wait(ctx)

	if lost := q.Status().Pending; lost > 0 {
		q.logger.Error("❌ %d spreadsheet updates were not mirrored before shutdown", lost)
	}
	return err
}

func (q *SheetSyncQueue) Status() SyncStatus {
	q.mu.Lock()
	defer q.mu.Unlock()

	s := SyncStatus{Pending: len(q.pending), Draining: q.draining}
	if q.lastErr != nil {
		s.LastError = q.lastErr.Error()
	}
	if !q.lastSyncedAt.IsZero() {
		t := q.lastSyncedAt
		s.LastSyncedAt = &t
	}
	return s
}

// NopSheetSink is used when no spreadsheet is configured
type NopSheetSink struct {
	Logger logger.Logger
}

func (s NopSheetSink) UpsertRows(ctx context.Context, rows []SheetRow) error {
	if s.Logger != nil {
		s.Logger.Debug("Spreadsheet mirror disabled, skipping %d rows", len(rows))
	}
	return nil
}
