package core

// session.go holds the per-user export session: the state machine's current
// stage plus everything accumulated on the way to a download. Sessions are
// owned by exactly one interactive client; the engine rejects a submission
// while another is in flight for the same session.

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Stage is the current node in the export workflow for one session.
type Stage string

const (
	StageInitial        Stage = "initial"
	StageCheckingSize   Stage = "checking_size"
	StageLoadingPreview Stage = "loading_preview"
	StageLoaded         Stage = "loaded"
	StageExportingFull  Stage = "exporting_full"
	StageDownloadReady  Stage = "download_ready"
	StageBlocked        Stage = "blocked"
)

// Note is a short user-facing message attached to a session.
type Note struct {
	Kind string `json:"kind"` // "info", "warning", or "error"
	Text string `json:"text"`
}

// Download is a prepared CSV payload with its generated filename.
type Download struct {
	FileName string
	Data     []byte
}

// ExportSession is the mutable record for one export workflow. All access
// goes through the session store and the service; fields are guarded by mu.
type ExportSession struct {
	ID string

	mu              sync.Mutex
	stage           Stage
	sourceKey       string
	inputs          InputSet
	params          ParamMap
	estimatedRows   int64
	preview         *TabularResult
	download        *Download
	note            *Note
	previewDuration time.Duration
	busy            bool
	createdAt       time.Time
	updatedAt       time.Time
}

// Summary carries the metrics the UI shows alongside a loaded preview.
type Summary struct {
	EstimatedRows  int64   `json:"estimated_rows"`
	Columns        int     `json:"columns"`
	DateSpanDays   int     `json:"date_span_days"`
	Storefronts    int     `json:"storefronts"`
	PreviewSeconds float64 `json:"preview_seconds"`
}

// SessionView is an immutable snapshot of a session for rendering.
type SessionView struct {
	ID            string         `json:"id"`
	Stage         Stage          `json:"stage"`
	Source        string         `json:"source,omitempty"`
	Inputs        InputSet       `json:"inputs,omitempty"`
	EstimatedRows int64          `json:"estimated_rows"`
	Note          *Note          `json:"note,omitempty"`
	Summary       *Summary       `json:"summary,omitempty"`
	Preview       *TabularResult `json:"preview,omitempty"`
	DownloadName  string         `json:"download_name,omitempty"`
}

// snapshot builds a view under the session lock.
func (s *ExportSession) snapshot() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	view := SessionView{
		ID:            s.ID,
		Stage:         s.stage,
		Source:        s.sourceKey,
		EstimatedRows: s.estimatedRows,
		Note:          s.note,
		Preview:       s.preview,
	}

	if len(s.inputs) > 0 {
		view.Inputs = make(InputSet, len(s.inputs))
		for k, v := range s.inputs {
			view.Inputs[k] = v
		}
	}

	if s.stage == StageLoaded || s.stage == StageDownloadReady {
		view.Summary = s.buildSummaryLocked()
	}
	if s.download != nil {
		view.DownloadName = s.download.FileName
	}

	return view
}

func (s *ExportSession) buildSummaryLocked() *Summary {
	sum := &Summary{
		EstimatedRows:  s.estimatedRows,
		PreviewSeconds: s.previewDuration.Seconds(),
	}
	if s.preview != nil {
		sum.Columns = len(s.preview.Columns)
	}
	if ids, ok := s.params["storefront_ids"].([]int); ok {
		sum.Storefronts = len(ids)
	}

	start, okStart := s.params["start_date"].(string)
	end, okEnd := s.params["end_date"].(string)
	if okStart && okEnd {
		if st, err := time.Parse(dateLayout, start); err == nil {
			if en, err := time.Parse(dateLayout, end); err == nil {
				sum.DateSpanDays = int(en.Sub(st).Hours()/24) + 1
			}
		}
	}

	return sum
}

// reset returns the session to the initial stage. Entered inputs and the
// selected source are kept so the user can narrow and resubmit without
// re-typing; everything derived is discarded. A busy session is not reset:
// the in-flight submission or export would land its result on top of the
// cleared state afterwards.
func (s *ExportSession) reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.busy {
		return ErrSessionBusy
	}

	s.stage = StageInitial
	s.params = nil
	s.estimatedRows = 0
	s.preview = nil
	s.download = nil
	s.note = nil
	s.previewDuration = 0
	s.updatedAt = time.Now()
	return nil
}

func (s *ExportSession) touch() {
	s.updatedAt = time.Now()
}

// SessionStore tracks live export sessions in memory and expires idle ones.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*ExportSession
	ttl      time.Duration
}

// NewSessionStore creates a store whose sessions expire after ttl of
// inactivity.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*ExportSession),
		ttl:      ttl,
	}
}

// Create registers a new session in the initial stage.
func (st *SessionStore) Create() *ExportSession {
	now := time.Now()
	sess := &ExportSession{
		ID:        uuid.NewString(),
		stage:     StageInitial,
		createdAt: now,
		updatedAt: now,
	}

	st.mu.Lock()
	st.sessions[sess.ID] = sess
	st.mu.Unlock()

	return sess
}

// Get returns a live session by ID.
func (st *SessionStore) Get(id string) (*ExportSession, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	sess, ok := st.sessions[id]
	return sess, ok
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Sweep removes sessions idle beyond the store TTL and returns how many were
// dropped. A busy session is never swept.
func (st *SessionStore) Sweep() int {
	cutoff := time.Now().Add(-st.ttl)

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, sess := range st.sessions {
		sess.mu.Lock()
		expired := !sess.busy && sess.updatedAt.Before(cutoff)
		sess.mu.Unlock()
		if expired {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}

// StartSweeper runs Sweep on the given interval until ctx is cancelled.
func (st *SessionStore) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			st.Sweep()
		}
	}
}
