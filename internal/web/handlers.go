package web

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/adsight/exporter/internal/core"
	"github.com/adsight/exporter/internal/logging"
)

// handleHealth responds to liveness probes.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListSources returns the data source catalog.
func (s *Server) handleListSources(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"sources": s.service.ListSources(),
	})
}

// fieldView is the JSON shape of one input field for form rendering.
type fieldView struct {
	Name      string   `json:"name"`
	Label     string   `json:"label"`
	Kind      string   `json:"kind"`
	Required  bool     `json:"required"`
	Numeric   bool     `json:"numeric,omitempty"`
	Multi     bool     `json:"multi,omitempty"`
	MaxValues int      `json:"max_values,omitempty"`
	Options   []string `json:"options,omitempty"`
	Default   string   `json:"default,omitempty"`
	Help      string   `json:"help,omitempty"`
}

// handleSourceFields returns the field definitions of one data source.
func (s *Server) handleSourceFields(w http.ResponseWriter, r *http.Request) {
	sourceKey := chi.URLParam(r, "sourceKey")

	defs, err := s.service.DescribeSource(sourceKey)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	fields := make([]fieldView, 0, len(defs))
	for _, def := range defs {
		fields = append(fields, fieldView{
			Name:      def.Name,
			Label:     def.Label,
			Kind:      kindName(def.Kind),
			Required:  def.Required,
			Numeric:   def.Numeric,
			Multi:     def.MultiValue,
			MaxValues: def.MaxValues,
			Options:   def.Options,
			Default:   def.Default,
			Help:      def.Help,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"source": sourceKey,
		"fields": fields,
	})
}

func kindName(k core.FieldKind) string {
	switch k {
	case core.FieldSelect:
		return "select"
	case core.FieldDateRange:
		return "date_range"
	default:
		return "text"
	}
}

// handleCreateSession starts a new export session.
func (s *Server) handleCreateSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusCreated, s.service.CreateSession())
}

// handleGetSession returns the current state of a session.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.GetSession(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// submitRequest is the body of a submission: the data source plus the raw
// user-entered inputs keyed by field name.
type submitRequest struct {
	Source string        `json:"source"`
	Inputs core.InputSet `json:"inputs"`
}

// submitResponse pairs the resulting session view with any validation
// failures. ValidationErrors is present only when the inputs were rejected.
type submitResponse struct {
	Session          core.SessionView       `json:"session"`
	ValidationErrors []core.ValidationError `json:"validation_errors,omitempty"`
}

// handleSubmit validates inputs and, if they pass, runs the size check and
// preview. Validation failures are a 400 with per-field messages; a blocked
// or warned session is a normal 200 whose stage tells the story.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	logging.FromContext(r.Context()).Info("export submitted",
		"session", sessionID,
		"source", req.Source,
	)

	view, validation, err := s.service.Submit(r.Context(), sessionID, req.Source, req.Inputs)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if !validation.Valid() {
		writeJSON(w, http.StatusBadRequest, submitResponse{
			Session:          view,
			ValidationErrors: validation.Errors,
		})
		return
	}

	writeJSON(w, http.StatusOK, submitResponse{Session: view})
}

// handleExport runs the full export for a loaded session.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.ExportFull(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleReset returns a session to the initial stage.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	view, err := s.service.Reset(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// handleDownload streams the prepared CSV file.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	download, err := s.service.Download(chi.URLParam(r, "sessionID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+download.FileName+`"`)
	w.WriteHeader(http.StatusOK)
	w.Write(download.Data)
}
