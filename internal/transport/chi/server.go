// Package chi exposes the ingestion pipeline over HTTP so a workflow
// engine can trigger runs remotely.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lattixlab/calcdock/internal/domain"
	"github.com/lattixlab/calcdock/internal/domain/location"
	healthuc "github.com/lattixlab/calcdock/internal/usecase/health"
	ingestuc "github.com/lattixlab/calcdock/internal/usecase/ingest"
	"github.com/lattixlab/calcdock/internal/usecase/offload"
)

// Defaults are the run parameters applied when a request leaves them unset.
type Defaults struct {
	ParseDOS     bool
	ParseBands   bool
	BuildIndices bool
	Indices      []string
}

// Server handles ingestion trigger requests.
type Server struct {
	ingest   *ingestuc.Service
	health   *healthuc.Service
	defaults Defaults
	logger   *zap.Logger
}

// NewServer creates the HTTP server.
func NewServer(ingest *ingestuc.Service, health *healthuc.Service, defaults Defaults, logger *zap.Logger) *Server {
	return &Server{ingest: ingest, health: health, defaults: defaults, logger: logger}
}

// Routes mounts the API on the given router.
func (s *Server) Routes(r chi.Router) {
	r.Post("/v1/ingest", s.handleIngest)
	r.Get("/healthz", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
}

// ingestRequest is the trigger payload. The location selector is spread
// over mutually exclusive fields so the variant is decided here, at the
// call boundary, once.
type ingestRequest struct {
	CalcDir          string            `json:"calc_dir,omitempty"`
	CalcLocName      string            `json:"calc_loc_name,omitempty"`
	MostRecent       bool              `json:"most_recent,omitempty"`
	History          []location.Record `json:"history,omitempty"`
	AdditionalFields map[string]any    `json:"additional_fields,omitempty"`
	ParseDOS         *bool             `json:"parse_dos,omitempty"`
	ParseBands       *bool             `json:"parse_bandstructure,omitempty"`
	BuildIndices     *bool             `json:"build_indices,omitempty"`
	Indices          []string          `json:"indices,omitempty"`
}

type ingestResponse struct {
	CalcDir        string `json:"calc_dir"`
	TaskID         string `json:"task_id,omitempty"`
	AssignedID     string `json:"assigned_id,omitempty"`
	Success        bool   `json:"success"`
	DefuseChildren bool   `json:"defuse_children"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "invalid request body")
		return
	}
	if req.CalcDir != "" && req.CalcLocName != "" {
		writeError(w, http.StatusBadRequest, "bad_request", "calc_dir and calc_loc_name are mutually exclusive")
		return
	}

	report, err := s.ingest.Run(r.Context(), s.toRunRequest(req))
	if err != nil {
		s.writeRunError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{
		CalcDir:        report.CalcDir,
		TaskID:         report.TaskID,
		AssignedID:     report.AssignedID,
		Success:        report.Success,
		DefuseChildren: report.DefuseChildren,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	status := http.StatusOK
	if report.Status != healthuc.Healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{
		"status": report.Status,
		"checks": report.Checks,
	})
}

func (s *Server) toRunRequest(req ingestRequest) ingestuc.Request {
	var src location.Source
	switch {
	case req.CalcDir != "":
		src = location.Explicit{Path: req.CalcDir}
	case req.CalcLocName != "":
		src = location.ByName{Name: req.CalcLocName}
	case req.MostRecent:
		src = location.MostRecent{}
	default:
		src = location.Default{}
	}

	var fields []offload.Field
	if boolOr(req.ParseDOS, s.defaults.ParseDOS) {
		fields = append(fields, offload.DOS)
	}
	if boolOr(req.ParseBands, s.defaults.ParseBands) {
		fields = append(fields, offload.BandStructure)
	}

	indices := req.Indices
	if indices == nil {
		indices = s.defaults.Indices
	}

	return ingestuc.Request{
		Source:           src,
		History:          req.History,
		AdditionalFields: req.AdditionalFields,
		Offload:          fields,
		BuildIndices:     boolOr(req.BuildIndices, s.defaults.BuildIndices),
		Indices:          indices,
	}
}

// runErrorMappings order matters: first match wins.
var runErrorMappings = []struct {
	sentinel error
	status   int
	code     string
}{
	{domain.ErrLocationNotFound, http.StatusUnprocessableEntity, "location_not_found"},
	{domain.ErrNoLocationHistory, http.StatusUnprocessableEntity, "no_location_history"},
	{domain.ErrAssimilationFailed, http.StatusUnprocessableEntity, "assimilation_failed"},
	{domain.ErrSerializationFailed, http.StatusInternalServerError, "serialization_failed"},
	{domain.ErrMalformedStoreConfig, http.StatusInternalServerError, "malformed_store_config"},
	{domain.ErrBlobStoreUnavailable, http.StatusServiceUnavailable, "blob_store_unavailable"},
	{domain.ErrDocumentStoreUnavailable, http.StatusServiceUnavailable, "document_store_unavailable"},
	{domain.ErrLocalWriteFailed, http.StatusInternalServerError, "local_write_failed"},
}

func (s *Server) writeRunError(w http.ResponseWriter, err error) {
	for _, m := range runErrorMappings {
		if errors.Is(err, m.sentinel) {
			writeError(w, m.status, m.code, err.Error())
			return
		}
	}
	s.logger.Error("unhandled run error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func boolOr(v *bool, fallback bool) bool {
	if v != nil {
		return *v
	}
	return fallback
}
