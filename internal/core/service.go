package core

// service.go drives the export workflow state machine:
//
//	initial --submit--> checking_size --> {initial | blocked | loading_preview}
//	loading_preview --auto--> loaded
//	loaded --export--> exporting_full --auto--> download_ready
//	any stage --reset--> initial
//
// The count, preview, and full queries always execute in that order for a
// given submission; the full export is never issued without a prior
// successful size check in the same session lifetime. Database failures are
// caught here and mapped to user-facing notes; nothing below the service
// throws raw errors to the UI boundary.

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Service coordinates validation, parameter building, gated query execution,
// and session state for all live export sessions.
type Service struct {
	exec     *Executor
	sessions *SessionStore
}

// NewService creates the orchestrator.
func NewService(exec *Executor, sessions *SessionStore) *Service {
	return &Service{
		exec:     exec,
		sessions: sessions,
	}
}

// ListSources returns the data source catalog for UI listings.
func (s *Service) ListSources() []DataSource {
	return Sources()
}

// DescribeSource returns the field definitions a client needs to render the
// input form for one data source.
func (s *Service) DescribeSource(key string) ([]FieldDef, error) {
	defs, ok := SourceFields(key)
	if !ok {
		return nil, configErr(ErrUnknownSource, "%s", key)
	}
	return defs, nil
}

// CreateSession starts a fresh export session in the initial stage.
func (s *Service) CreateSession() SessionView {
	return s.sessions.Create().snapshot()
}

// GetSession returns a snapshot of a live session.
func (s *Service) GetSession(id string) (SessionView, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return SessionView{}, ErrSessionNotFound
	}
	return sess.snapshot(), nil
}

// Reset returns a session to the initial stage from any settled stage,
// discarding derived state. While a submission or export is in flight the
// reset is rejected with ErrSessionBusy; allowing it would let the running
// query finish and repopulate the session the user just cleared.
func (s *Service) Reset(id string) (SessionView, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return SessionView{}, ErrSessionNotFound
	}
	if err := sess.reset(); err != nil {
		return sess.snapshot(), err
	}
	return sess.snapshot(), nil
}

// Download returns the prepared CSV payload of a download_ready session.
func (s *Service) Download(id string) (*Download, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, ErrSessionNotFound
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.stage != StageDownloadReady || sess.download == nil {
		return nil, fmt.Errorf("%w: download requires stage %s, session is %s",
			ErrInvalidStage, StageDownloadReady, sess.stage)
	}
	return sess.download, nil
}

// Submit validates the inputs and, when they pass, runs the size check and
// the preview query. The returned validation result is non-empty when the
// inputs were rejected; in that case the session does not change stage and
// no query is issued.
func (s *Service) Submit(ctx context.Context, id, sourceKey string, inputs InputSet) (SessionView, ValidationResult, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return SessionView{}, ValidationResult{}, ErrSessionNotFound
	}

	validation := ValidateInputs(sourceKey, inputs)
	if !validation.Valid() {
		return sess.snapshot(), validation, nil
	}

	if err := s.begin(sess, sourceKey, inputs); err != nil {
		return sess.snapshot(), ValidationResult{}, err
	}
	defer s.finish(sess)

	s.checkSize(ctx, sess, sourceKey)

	return sess.snapshot(), ValidationResult{}, nil
}

// begin claims the session for one submission. Only an initial-stage,
// non-busy session may accept a new submission.
func (s *Service) begin(sess *ExportSession, sourceKey string, inputs InputSet) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.busy {
		return ErrSessionBusy
	}
	if sess.stage != StageInitial {
		return fmt.Errorf("%w: submit requires stage %s, session is %s",
			ErrInvalidStage, StageInitial, sess.stage)
	}

	sess.busy = true
	sess.stage = StageCheckingSize
	sess.sourceKey = sourceKey
	sess.inputs = inputs
	sess.note = nil
	sess.preview = nil
	sess.download = nil
	sess.touch()
	return nil
}

func (s *Service) finish(sess *ExportSession) {
	sess.mu.Lock()
	sess.busy = false
	sess.touch()
	sess.mu.Unlock()
}

// checkSize builds parameters, estimates the result size, and applies the
// gating thresholds: 0 rows warns, above MaxExportRows blocks, anything in
// between proceeds to the preview.
func (s *Service) checkSize(ctx context.Context, sess *ExportSession, sourceKey string) {
	logger := slog.With("session", sess.ID, "source", sourceKey)

	params, err := BuildParams(sourceKey, sess.inputs)
	if err != nil {
		logger.Error("parameter build failed", "error", err)
		s.fail(sess, err)
		return
	}

	sess.mu.Lock()
	sess.params = params
	sess.mu.Unlock()

	count, err := s.exec.Count(ctx, sourceKey, params)
	if err != nil {
		logger.Error("size check failed", "error", err)
		s.fail(sess, err)
		return
	}

	sess.mu.Lock()
	sess.estimatedRows = count
	switch {
	case count == 0:
		sess.stage = StageInitial
		sess.note = &Note{Kind: "warning", Text: "No data found for the selected criteria."}
		sess.mu.Unlock()
		return
	case count > MaxExportRows:
		sess.stage = StageBlocked
		sess.note = &Note{Kind: "error", Text: fmt.Sprintf(
			"Export blocked: dataset contains %d rows; the maximum allowed is %d. Reduce the date range, select fewer storefronts, or add filters.",
			count, MaxExportRows)}
		sess.mu.Unlock()
		logger.Info("export blocked", "rows", count)
		return
	default:
		sess.stage = StageLoadingPreview
		sess.mu.Unlock()
	}

	s.loadPreview(ctx, sess, sourceKey, params, logger)
}

// loadPreview fetches the first PreviewRowLimit rows. An empty preview after
// a non-zero count estimate is inconsistent; it is logged as an anomaly and
// treated as no data.
func (s *Service) loadPreview(ctx context.Context, sess *ExportSession, sourceKey string, params ParamMap, logger *slog.Logger) {
	start := time.Now()
	preview, err := s.exec.Execute(ctx, KindData, sourceKey, params, PreviewRowLimit)
	elapsed := time.Since(start)

	if err != nil {
		logger.Error("preview query failed", "error", err)
		s.fail(sess, err)
		return
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.previewDuration = elapsed

	if len(preview.Rows) == 0 {
		logger.Warn("empty preview despite non-zero count estimate",
			"estimated_rows", sess.estimatedRows)
		sess.stage = StageInitial
		sess.note = &Note{Kind: "warning", Text: "No data found for the selected criteria."}
		return
	}

	sess.preview = preview
	sess.stage = StageLoaded
	logger.Info("preview loaded",
		"rows", len(preview.Rows),
		"columns", len(preview.Columns),
		"duration_ms", elapsed.Milliseconds(),
	)
}

// ExportFull runs the unlimited data query and prepares the CSV download.
// The cached count estimate is re-checked against the ceiling first, in case
// of stale or tampered session state.
func (s *Service) ExportFull(ctx context.Context, id string) (SessionView, error) {
	sess, ok := s.sessions.Get(id)
	if !ok {
		return SessionView{}, ErrSessionNotFound
	}

	sess.mu.Lock()
	if sess.busy {
		sess.mu.Unlock()
		return sess.snapshot(), ErrSessionBusy
	}
	if sess.stage != StageLoaded {
		stage := sess.stage
		sess.mu.Unlock()
		return sess.snapshot(), fmt.Errorf("%w: export requires stage %s, session is %s",
			ErrInvalidStage, StageLoaded, stage)
	}
	if sess.estimatedRows > MaxExportRows {
		sess.stage = StageBlocked
		sess.note = &Note{Kind: "error", Text: fmt.Sprintf(
			"Export blocked: dataset contains %d rows; the maximum allowed is %d.",
			sess.estimatedRows, MaxExportRows)}
		sess.mu.Unlock()
		return sess.snapshot(), nil
	}
	sess.busy = true
	sess.stage = StageExportingFull
	sourceKey := sess.sourceKey
	params := sess.params
	sess.mu.Unlock()
	defer s.finish(sess)

	logger := slog.With("session", sess.ID, "source", sourceKey)

	full, err := s.exec.Execute(ctx, KindData, sourceKey, params, 0)
	if err != nil {
		logger.Error("full export query failed", "error", err)
		s.fail(sess, err)
		return sess.snapshot(), nil
	}

	payload, err := SerializeCSV(full)
	if err != nil {
		logger.Error("csv serialization failed", "error", err)
		s.fail(sess, err)
		return sess.snapshot(), nil
	}

	fileName := fmt.Sprintf("%s_data_%s.csv", sourceKey, time.Now().Format("20060102"))

	sess.mu.Lock()
	sess.download = &Download{FileName: fileName, Data: payload}
	sess.stage = StageDownloadReady
	sess.mu.Unlock()

	logger.Info("full export ready", "rows", len(full.Rows), "bytes", len(payload), "file", fileName)
	return sess.snapshot(), nil
}

// fail returns the session to the initial stage with a user-facing note.
// Entered inputs are preserved so resubmission does not require re-typing.
func (s *Service) fail(sess *ExportSession, err error) {
	msg := MapError(err)

	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.stage = StageInitial
	sess.note = &Note{Kind: "error", Text: msg.Message}
	sess.params = nil
	sess.preview = nil
	sess.download = nil
}
