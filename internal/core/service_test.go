package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

// scriptDB routes count and data queries to scripted results.
type scriptDB struct {
	mu       sync.Mutex
	count    int64
	data     *TabularResult
	countErr error
	dataErr  error
	calls    []string
}

func (d *scriptDB) Query(_ context.Context, sql string, _ ...any) (*TabularResult, error) {
	d.mu.Lock()
	d.calls = append(d.calls, sql)
	d.mu.Unlock()

	if strings.Contains(sql, "count(1)") {
		if d.countErr != nil {
			return nil, d.countErr
		}
		return &TabularResult{Columns: []string{"count"}, Rows: [][]any{{d.count}}}, nil
	}
	if d.dataErr != nil {
		return nil, d.dataErr
	}
	return d.data, nil
}

func previewResult(rows int) *TabularResult {
	r := &TabularResult{Columns: []string{"storefront_eid", "keyword"}}
	for i := 0; i < rows; i++ {
		r.Rows = append(r.Rows, []any{int64(i + 1), fmt.Sprintf("kw-%d", i)})
	}
	return r
}

// gateDB parks the first data query until released so tests can observe a
// session mid-flight.
type gateDB struct {
	inner   scriptDB
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (d *gateDB) Query(ctx context.Context, sql string, args ...any) (*TabularResult, error) {
	if !strings.Contains(sql, "count(1)") {
		d.once.Do(func() { close(d.started) })
		<-d.release
	}
	return d.inner.Query(ctx, sql, args...)
}

func newTestService(t *testing.T, db Database) *Service {
	t.Helper()
	registerTestCatalog(t)

	resolver := fakeResolver{
		"performance_report": {
			KindCount: "SELECT count(1) FROM t WHERE id IN @storefront_ids AND ws = @workspace_id AND d BETWEEN @start_date AND @end_date",
			KindData:  "SELECT storefront_eid, keyword FROM t WHERE id IN @storefront_ids AND ws = @workspace_id AND d BETWEEN @start_date AND @end_date",
		},
	}
	exec := NewExecutor(db, newFakeCache(), resolver, time.Hour, 0)
	return NewService(exec, NewSessionStore(time.Hour))
}

func submitValid(t *testing.T, svc *Service) (SessionView, string) {
	t.Helper()
	created := svc.CreateSession()

	view, validation, err := svc.Submit(context.Background(), created.ID, "performance_report", validInputs())
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if !validation.Valid() {
		t.Fatalf("Submit() validation errors = %v", validation.Messages())
	}
	return view, created.ID
}

func TestSubmit_LoadsPreview(t *testing.T) {
	db := &scriptDB{count: 120, data: previewResult(120)}
	svc := newTestService(t, db)

	view, _ := submitValid(t, svc)

	if view.Stage != StageLoaded {
		t.Fatalf("stage = %s, want %s (note: %v)", view.Stage, StageLoaded, view.Note)
	}
	if view.EstimatedRows != 120 {
		t.Errorf("estimated rows = %d, want 120", view.EstimatedRows)
	}
	if view.Preview == nil || len(view.Preview.Rows) != 120 {
		t.Fatalf("preview missing or wrong size")
	}
	if view.Summary == nil {
		t.Fatal("summary missing on loaded session")
	}
	if view.Summary.Storefronts != 2 {
		t.Errorf("summary storefronts = %d, want 2", view.Summary.Storefronts)
	}
	if view.Summary.DateSpanDays != 30 {
		t.Errorf("summary span = %d, want 30", view.Summary.DateSpanDays)
	}
}

func TestSubmit_PreviewQueryLimited(t *testing.T) {
	db := &scriptDB{count: 1200, data: previewResult(500)}
	svc := newTestService(t, db)

	submitValid(t, svc)

	var previewSQL string
	for _, sql := range db.calls {
		if !strings.Contains(sql, "count(1)") {
			previewSQL = sql
		}
	}
	if !strings.HasSuffix(previewSQL, fmt.Sprintf("LIMIT %d", PreviewRowLimit)) {
		t.Errorf("preview sql = %q, want LIMIT %d suffix", previewSQL, PreviewRowLimit)
	}
}

func TestSubmit_ZeroRowsWarns(t *testing.T) {
	db := &scriptDB{count: 0}
	svc := newTestService(t, db)

	view, _ := submitValid(t, svc)

	if view.Stage != StageInitial {
		t.Fatalf("stage = %s, want %s", view.Stage, StageInitial)
	}
	if view.Note == nil || view.Note.Kind != "warning" {
		t.Fatalf("note = %v, want warning", view.Note)
	}
	if len(view.Inputs) == 0 {
		t.Error("inputs dropped on zero-row warning")
	}
}

func TestSubmit_OverCeilingBlocks(t *testing.T) {
	db := &scriptDB{count: 75000}
	svc := newTestService(t, db)

	view, _ := submitValid(t, svc)

	if view.Stage != StageBlocked {
		t.Fatalf("stage = %s, want %s", view.Stage, StageBlocked)
	}
	if view.Note == nil || !strings.Contains(view.Note.Text, "75000") {
		t.Errorf("note = %v, want row count in message", view.Note)
	}
	if len(view.Inputs) == 0 {
		t.Error("inputs dropped on blocked session")
	}

	// Preview must not have been queried
	for _, sql := range db.calls {
		if !strings.Contains(sql, "count(1)") {
			t.Errorf("data query issued on blocked submission: %q", sql)
		}
	}
}

func TestSubmit_ExactCeilingAllowed(t *testing.T) {
	db := &scriptDB{count: MaxExportRows, data: previewResult(500)}
	svc := newTestService(t, db)

	view, _ := submitValid(t, svc)
	if view.Stage != StageLoaded {
		t.Errorf("stage = %s, want %s for count == ceiling", view.Stage, StageLoaded)
	}
}

func TestSubmit_EmptyPreviewAnomaly(t *testing.T) {
	db := &scriptDB{count: 50, data: previewResult(0)}
	svc := newTestService(t, db)

	view, _ := submitValid(t, svc)

	if view.Stage != StageInitial {
		t.Fatalf("stage = %s, want %s", view.Stage, StageInitial)
	}
	if view.Note == nil || view.Note.Kind != "warning" {
		t.Errorf("note = %v, want warning", view.Note)
	}
}

func TestSubmit_ValidationFailureLeavesSessionUntouched(t *testing.T) {
	db := &scriptDB{count: 10, data: previewResult(10)}
	svc := newTestService(t, db)
	created := svc.CreateSession()

	inputs := validInputs()
	inputs["workspace_id"] = "abc"

	view, validation, err := svc.Submit(context.Background(), created.ID, "performance_report", inputs)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if validation.Valid() {
		t.Fatal("expected validation errors")
	}
	if view.Stage != StageInitial {
		t.Errorf("stage = %s, want unchanged %s", view.Stage, StageInitial)
	}
	if len(db.calls) != 0 {
		t.Errorf("queries issued despite validation failure: %v", db.calls)
	}
}

func TestSubmit_WrongStageRejected(t *testing.T) {
	db := &scriptDB{count: 10, data: previewResult(10)}
	svc := newTestService(t, db)

	_, id := submitValid(t, svc)

	_, _, err := svc.Submit(context.Background(), id, "performance_report", validInputs())
	if !errors.Is(err, ErrInvalidStage) {
		t.Errorf("error = %v, want ErrInvalidStage", err)
	}
}

func TestSubmit_UnknownSession(t *testing.T) {
	svc := newTestService(t, &scriptDB{})

	_, _, err := svc.Submit(context.Background(), "missing", "performance_report", validInputs())
	if !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("error = %v, want ErrSessionNotFound", err)
	}
}

func TestSubmit_DatabaseErrorReturnsToInitial(t *testing.T) {
	db := &scriptDB{countErr: fmt.Errorf("%w: dial refused", ErrDatabaseUnavailable)}
	svc := newTestService(t, db)

	view, _ := submitValid(t, svc)

	if view.Stage != StageInitial {
		t.Fatalf("stage = %s, want %s", view.Stage, StageInitial)
	}
	if view.Note == nil || view.Note.Kind != "error" {
		t.Fatalf("note = %v, want error note", view.Note)
	}
	if len(view.Inputs) == 0 {
		t.Error("inputs dropped after database failure")
	}
}

func TestExportFull_ProducesDownload(t *testing.T) {
	db := &scriptDB{count: 120, data: previewResult(120)}
	svc := newTestService(t, db)

	_, id := submitValid(t, svc)

	view, err := svc.ExportFull(context.Background(), id)
	if err != nil {
		t.Fatalf("ExportFull() error = %v", err)
	}
	if view.Stage != StageDownloadReady {
		t.Fatalf("stage = %s, want %s", view.Stage, StageDownloadReady)
	}

	wantName := fmt.Sprintf("performance_report_data_%s.csv", time.Now().Format("20060102"))
	if view.DownloadName != wantName {
		t.Errorf("download name = %q, want %q", view.DownloadName, wantName)
	}

	download, err := svc.Download(id)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	if !strings.HasPrefix(string(download.Data), "\xEF\xBB\xBF") {
		t.Error("download missing UTF-8 BOM")
	}
	if !strings.Contains(string(download.Data), "storefront_eid,keyword") {
		t.Error("download missing CSV header")
	}
}

func TestExportFull_WrongStage(t *testing.T) {
	svc := newTestService(t, &scriptDB{})
	created := svc.CreateSession()

	_, err := svc.ExportFull(context.Background(), created.ID)
	if !errors.Is(err, ErrInvalidStage) {
		t.Errorf("error = %v, want ErrInvalidStage", err)
	}
}

func TestDownload_NotReady(t *testing.T) {
	svc := newTestService(t, &scriptDB{})
	created := svc.CreateSession()

	_, err := svc.Download(created.ID)
	if !errors.Is(err, ErrInvalidStage) {
		t.Errorf("error = %v, want ErrInvalidStage", err)
	}
}

func TestReset_KeepsInputsClearsDerivedState(t *testing.T) {
	db := &scriptDB{count: 120, data: previewResult(120)}
	svc := newTestService(t, db)

	_, id := submitValid(t, svc)

	view, err := svc.Reset(id)
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if view.Stage != StageInitial {
		t.Errorf("stage = %s, want %s", view.Stage, StageInitial)
	}
	if len(view.Inputs) == 0 {
		t.Error("inputs dropped on reset")
	}
	if view.Preview != nil || view.Summary != nil || view.DownloadName != "" {
		t.Error("derived state survived reset")
	}
	if view.EstimatedRows != 0 {
		t.Errorf("estimated rows = %d, want 0", view.EstimatedRows)
	}
}

func TestReset_FromBlocked(t *testing.T) {
	db := &scriptDB{count: 75000}
	svc := newTestService(t, db)

	_, id := submitValid(t, svc)

	view, err := svc.Reset(id)
	if err != nil {
		t.Fatalf("Reset() error = %v", err)
	}
	if view.Stage != StageInitial {
		t.Errorf("stage = %s, want %s", view.Stage, StageInitial)
	}

	// A fresh submission with narrower inputs must be accepted again. The
	// narrowed date range also gives the count query a new cache key; the
	// blocked estimate stays cached under the old one.
	db.count = 120
	db.data = previewResult(120)
	inputs := validInputs()
	inputs["end_date"] = "2024-01-15"
	next, validation, err := svc.Submit(context.Background(), id, "performance_report", inputs)
	if err != nil || !validation.Valid() {
		t.Fatalf("resubmit after reset failed: err=%v validation=%v", err, validation.Messages())
	}
	if next.Stage != StageLoaded {
		t.Errorf("stage = %s, want %s", next.Stage, StageLoaded)
	}
}

func TestReset_RejectedWhileSubmissionInFlight(t *testing.T) {
	db := &gateDB{
		inner:   scriptDB{count: 120, data: previewResult(120)},
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	svc := newTestService(t, db)
	created := svc.CreateSession()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, _, err := svc.Submit(context.Background(), created.ID, "performance_report", validInputs()); err != nil {
			t.Errorf("Submit() error = %v", err)
		}
	}()

	<-db.started
	if _, err := svc.Reset(created.ID); !errors.Is(err, ErrSessionBusy) {
		t.Errorf("Reset() during submission error = %v, want ErrSessionBusy", err)
	}

	close(db.release)
	<-done

	// The refused reset must not have disturbed the submission
	view, err := svc.GetSession(created.ID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if view.Stage != StageLoaded {
		t.Fatalf("stage = %s, want %s after submission completes", view.Stage, StageLoaded)
	}

	// Once settled, reset works again
	after, err := svc.Reset(created.ID)
	if err != nil {
		t.Fatalf("Reset() after completion error = %v", err)
	}
	if after.Stage != StageInitial || after.Preview != nil {
		t.Errorf("stage = %s, preview = %v, want a cleared session", after.Stage, after.Preview)
	}
}

func TestReset_UnchangedResubmitServesCachedEstimate(t *testing.T) {
	db := &scriptDB{count: 75000}
	svc := newTestService(t, db)

	_, id := submitValid(t, svc)
	if _, err := svc.Reset(id); err != nil {
		t.Fatalf("Reset() error = %v", err)
	}

	// Identical inputs reuse the cached count until its TTL lapses, so the
	// session blocks again without touching the warehouse.
	db.count = 120
	view, validation, err := svc.Submit(context.Background(), id, "performance_report", validInputs())
	if err != nil || !validation.Valid() {
		t.Fatalf("resubmit after reset failed: err=%v validation=%v", err, validation.Messages())
	}
	if view.Stage != StageBlocked {
		t.Errorf("stage = %s, want %s", view.Stage, StageBlocked)
	}
	if len(db.calls) != 1 {
		t.Errorf("warehouse queries = %d, want 1 (second estimate served from cache)", len(db.calls))
	}
}

func TestListSources(t *testing.T) {
	svc := newTestService(t, &scriptDB{})

	sources := svc.ListSources()
	if len(sources) != 2 {
		t.Fatalf("sources = %d, want 2", len(sources))
	}
	// Sorted by key
	if sources[0].Key != "performance_report" || sources[1].Key != "workspace_report" {
		t.Errorf("order = %s, %s", sources[0].Key, sources[1].Key)
	}
}

func TestDescribeSource(t *testing.T) {
	svc := newTestService(t, &scriptDB{})

	defs, err := svc.DescribeSource("performance_report")
	if err != nil {
		t.Fatalf("DescribeSource() error = %v", err)
	}
	if len(defs) != 4 {
		t.Errorf("fields = %d, want 4", len(defs))
	}

	if _, err := svc.DescribeSource("nope"); !errors.Is(err, ErrUnknownSource) {
		t.Errorf("error = %v, want ErrUnknownSource", err)
	}
}
