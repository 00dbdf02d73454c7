package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"attendance/models"
)

type fakeSheetSink struct {
	mu      sync.Mutex
	calls   [][]SheetRow
	times   []time.Time
	active  int
	overlap bool
	failN   int           // fail this many calls before succeeding
	block   chan struct{} // when set, the first call waits on it
}

func (f *fakeSheetSink) UpsertRows(ctx context.Context, rows []SheetRow) error {
	f.mu.Lock()
	f.active++
	if f.active > 1 {
		f.overlap = true
	}
	first := len(f.calls) == 0
	block := f.block
	f.mu.Unlock()

	if first && block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.active--
	f.times = append(f.times, time.Now())
	cp := make([]SheetRow, len(rows))
	copy(cp, rows)
	f.calls = append(f.calls, cp)
	if f.failN > 0 {
		f.failN--
		return errors.New("sheets unreachable")
	}
	return nil
}

func (f *fakeSheetSink) batchSizes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	sizes := make([]int, len(f.calls))
	for i, c := range f.calls {
		sizes[i] = len(c)
	}
	return sizes
}

func testRecords(n int) []*models.AttendanceRecord {
	recs := make([]*models.AttendanceRecord, n)
	for i := range recs {
		in := time.Date(2026, 3, 10, 1, i, 0, 0, time.UTC)
		recs[i] = &models.AttendanceRecord{
			FirstName:      fmt.Sprintf("Employee%02d", i),
			LastName:       "Test",
			Date:           "2026-03-10",
			MorningCheckIn: &in,
		}
	}
	return recs
}

func waitDrained(t *testing.T, q *SheetSyncQueue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := q.Wait(ctx); err != nil {
		t.Fatalf("Wait: %v", err)
	}
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSheetSyncQueueBatches(t *testing.T) {
	sink := &fakeSheetSink{}
	interval := 50 * time.Millisecond
	q := NewSheetSyncQueue(SheetSyncQueueOptions{Sink: sink, BatchInterval: interval})

	q.Enqueue(testRecords(25)...)
	waitDrained(t, q)

	if got := sink.batchSizes(); !equalInts(got, []int{10, 10, 5}) {
		t.Errorf("batch sizes = %v, want [10 10 5]", got)
	}
	for i := 1; i < len(sink.times); i++ {
		if gap := sink.times[i].Sub(sink.times[i-1]); gap < interval {
			t.Errorf("gap between call %d and %d = %v, want >= %v", i-1, i, gap, interval)
		}
	}
	if sink.overlap {
		t.Error("sink called concurrently")
	}

	st := q.Status()
	if st.Pending != 0 || st.Draining || st.LastSyncedAt == nil || st.LastError != "" {
		t.Errorf("Status = %+v", st)
	}
}

func TestSheetSyncQueuePreservesOrder(t *testing.T) {
	sink := &fakeSheetSink{}
	q := NewSheetSyncQueue(SheetSyncQueueOptions{Sink: sink, BatchInterval: time.Millisecond})

	recs := testRecords(23)
	q.Enqueue(recs...)
	waitDrained(t, q)

	var got []string
	for _, c := range sink.calls {
		for _, row := range c {
			got = append(got, row.FirstName)
		}
	}
	if len(got) != len(recs) {
		t.Fatalf("mirrored %d rows, want %d", len(got), len(recs))
	}
	for i, rec := range recs {
		if got[i] != rec.FirstName {
			t.Fatalf("row %d = %s, want %s", i, got[i], rec.FirstName)
		}
	}
}

func TestSheetSyncQueueSingleFlight(t *testing.T) {
	sink := &fakeSheetSink{block: make(chan struct{})}
	q := NewSheetSyncQueue(SheetSyncQueueOptions{Sink: sink, BatchInterval: time.Millisecond})

	recs := testRecords(25)
	q.Enqueue(recs[0])

	// wait for the first call to be in flight
	deadline := time.Now().Add(5 * time.Second)
	for {
		sink.mu.Lock()
		active := sink.active
		sink.mu.Unlock()
		if active == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("drain never reached the sink")
		}
		time.Sleep(time.Millisecond)
	}

	for _, rec := range recs[1:] {
		q.Enqueue(rec)
	}
	if st := q.Status(); !st.Draining || st.Pending != 24 {
		t.Errorf("Status while blocked = %+v, want draining with 24 pending", st)
	}

	close(sink.block)
	waitDrained(t, q)

	if got := sink.batchSizes(); !equalInts(got, []int{1, 10, 10, 4}) {
		t.Errorf("batch sizes = %v, want [1 10 10 4]", got)
	}
	if sink.overlap {
		t.Error("a second drain ran concurrently")
	}
}

func TestSheetSyncQueueFailureKeepsEntries(t *testing.T) {
	sink := &fakeSheetSink{failN: 1}
	q := NewSheetSyncQueue(SheetSyncQueueOptions{Sink: sink, BatchInterval: time.Millisecond})

	q.Enqueue(testRecords(15)...)
	waitDrained(t, q)

	st := q.Status()
	if st.Pending != 15 {
		t.Errorf("Pending after failure = %d, want 15", st.Pending)
	}
	if st.Draining {
		t.Error("drain still marked active after failure")
	}
	if st.LastError == "" {
		t.Error("LastError not recorded")
	}
	if got := sink.batchSizes(); !equalInts(got, []int{10}) {
		t.Errorf("batch sizes = %v, want a single aborted batch", got)
	}

	// the next enqueue retries everything still queued
	q.Enqueue(testRecords(1)...)
	waitDrained(t, q)

	if got := sink.batchSizes(); !equalInts(got, []int{10, 10, 6}) {
		t.Errorf("batch sizes = %v, want [10 10 6]", got)
	}
	if st := q.Status(); st.Pending != 0 || st.LastError != "" {
		t.Errorf("Status after retry = %+v", st)
	}
}

func TestSheetSyncQueueKick(t *testing.T) {
	sink := &fakeSheetSink{failN: 1}
	q := NewSheetSyncQueue(SheetSyncQueueOptions{Sink: sink, BatchInterval: time.Millisecond})

	if q.Kick() {
		t.Error("Kick started a drain on an empty queue")
	}

	q.Enqueue(testRecords(3)...)
	waitDrained(t, q)
	if q.Status().Pending != 3 {
		t.Fatalf("Pending = %d, want 3", q.Status().Pending)
	}

	if !q.Kick() {
		t.Fatal("Kick did not start a drain")
	}
	waitDrained(t, q)
	if q.Status().Pending != 0 {
		t.Errorf("Pending after Kick = %d, want 0", q.Status().Pending)
	}
}

func TestSheetSyncQueueSnapshotsRecords(t *testing.T) {
	sink := &fakeSheetSink{block: make(chan struct{})}
	q := NewSheetSyncQueue(SheetSyncQueueOptions{Sink: sink, BatchInterval: time.Millisecond})

	recs := testRecords(2)
	q.Enqueue(recs...)
	recs[1].FirstName = "Changed"
	close(sink.block)
	waitDrained(t, q)

	if got := sink.calls[0][1].FirstName; got != "Employee01" {
		t.Errorf("mirrored FirstName = %q, want snapshot value Employee01", got)
	}
}

func TestSheetSyncQueueClose(t *testing.T) {
	sink := &fakeSheetSink{}
	q := NewSheetSyncQueue(SheetSyncQueueOptions{Sink: sink, BatchInterval: time.Millisecond})

	q.Enqueue(testRecords(12)...)
	if err := q.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := sink.batchSizes(); !equalInts(got, []int{10, 2}) {
		t.Errorf("batch sizes = %v, want [10 2]", got)
	}

	q.Enqueue(testRecords(1)...)
	if st := q.Status(); st.Pending != 0 || st.Draining {
		t.Errorf("closed queue accepted work: %+v", st)
	}
}

func TestNewSheetRow(t *testing.T) {
	loc := phnomPenh(t)
	in := time.Date(2026, 3, 10, 1, 0, 0, 0, time.UTC)
	out := time.Date(2026, 3, 10, 5, 0, 0, 0, time.UTC)
	total := "4h 0m"
	rec := &models.AttendanceRecord{
		FirstName:       "Sokha",
		LastName:        "Chan",
		Date:            "2026-03-10",
		MorningCheckIn:  &in,
		MorningCheckOut: &out,
		TotalHours:      &total,
	}

	row := NewSheetRow(rec, loc)
	want := []string{"Sokha", "Chan", "2026-03-10", "2026-03-10T08:00:00+07:00", "2026-03-10T12:00:00+07:00", "", "", "4h 0m"}
	got := row.Values()
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("column %d = %q, want %q", i, got[i], want[i])
		}
	}
	if !row.Matches("Sokha", "Chan", "2026-03-10") || row.Matches("sokha", "Chan", "2026-03-10") {
		t.Error("Matches must use exact equality on the key columns")
	}
}

func TestDefaultSheetSyncSettings(t *testing.T) {
	q := NewSheetSyncQueue(SheetSyncQueueOptions{Sink: &fakeSheetSink{}})
	if q.batchSize != 10 {
		t.Errorf("batchSize = %d, want 10", q.batchSize)
	}
	if q.interval != time.Second {
		t.Errorf("interval = %v, want 1s", q.interval)
	}
}
