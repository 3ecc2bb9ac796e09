package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/nao1215/pagebinder/internal/config"
	"github.com/nao1215/pagebinder/internal/crawler"
	"github.com/nao1215/pagebinder/internal/model"
	"github.com/nao1215/pagebinder/internal/pipeline"
)

// Reply messages.
const (
	MsgMissingFields     = "URL and SSA are required"
	MsgUnsupportedDomain = "Unsupported domain"
	MsgInvalidURL        = "Invalid URL"
	MsgInvalidJSON       = "Invalid JSON body"
	MsgBusy              = "Server is busy, try again later"
	MsgAccepted          = "Webpage is being processed. Scraping might take a while"
	MsgJobNotFound       = "Job not found"

	maxRequestBody = 1 << 20
	defaultListMax = 50
)

// Submitter queues jobs. pipeline.Dispatcher implements it.
type Submitter interface {
	Submit(ctx context.Context, job *model.Job) error
}

// JobReader looks up jobs. database.JobDB and pipeline.MemoryStore implement it.
type JobReader interface {
	GetJob(ctx context.Context, id string) (*model.Job, error)
}

// JobLister lists recent jobs. It is optional; GET /jobs answers 404 without it.
type JobLister interface {
	ListJobs(ctx context.Context, limit int) ([]*model.Job, error)
}

// DestinationResolver maps a domain to its upload destination. config.File implements it.
type DestinationResolver interface {
	Destination(domain string) (config.Destination, error)
}

// ScrapeRequest is the body of POST /scrape.
type ScrapeRequest struct {
	URL        string     `json:"url"`
	SSA        string     `json:"ssa"`
	SiteID     flexString `json:"site_id,omitempty"`
	DomainName string     `json:"domain_name,omitempty"`
}

// ScrapeResponse is the 202 reply to POST /scrape.
type ScrapeResponse struct {
	Message string `json:"message"`
	JobID   string `json:"job_id"`
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// Server exposes the HTTP API.
type Server struct {
	jobs         Submitter
	reader       JobReader
	destinations DestinationResolver
	logger       *slog.Logger
	mux          *http.ServeMux
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer wires handlers onto an HTTP mux.
func NewServer(jobs Submitter, reader JobReader, destinations DestinationResolver, opts ...Option) *Server {
	s := &Server{
		jobs:         jobs,
		reader:       reader,
		destinations: destinations,
		logger:       slog.Default(),
		mux:          http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

// ServeHTTP satisfies the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("POST /scrape", s.handleScrape)
	s.mux.HandleFunc("GET /jobs", s.handleListJobs)
	s.mux.HandleFunc("GET /jobs/{id}", s.handleGetJob)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleScrape(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, MsgInvalidJSON)
		return
	}

	req.URL = strings.TrimSpace(req.URL)
	req.SSA = strings.TrimSpace(req.SSA)
	if req.URL == "" || req.SSA == "" {
		writeError(w, http.StatusBadRequest, MsgMissingFields)
		return
	}

	target, err := crawler.Normalize("", req.URL)
	if err != nil {
		writeError(w, http.StatusBadRequest, MsgInvalidURL)
		return
	}

	domain := strings.TrimSpace(req.DomainName)
	if domain == "" {
		domain = target.Hostname()
	}
	if _, err := s.destinations.Destination(domain); err != nil {
		s.logger.Info("scrape rejected", "domain", domain, "error", err)
		writeError(w, http.StatusBadRequest, MsgUnsupportedDomain)
		return
	}

	job := model.NewJob(target, req.SSA, string(req.SiteID), domain)
	if err := s.jobs.Submit(r.Context(), job); err != nil {
		if errors.Is(err, pipeline.ErrQueueFull) || errors.Is(err, pipeline.ErrDispatcherClosed) {
			writeError(w, http.StatusServiceUnavailable, MsgBusy)
			return
		}
		s.logger.Error("job submission failed", "job", job.ID, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusAccepted, ScrapeResponse{Message: MsgAccepted, JobID: job.ID})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.reader.GetJob(r.Context(), r.PathValue("id"))
	if err != nil {
		s.logger.Error("job lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if job == nil {
		writeError(w, http.StatusNotFound, MsgJobNotFound)
		return
	}
	writeJSON(w, http.StatusOK, newJobView(job))
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	lister, ok := s.reader.(JobLister)
	if !ok {
		http.NotFound(w, r)
		return
	}
	limit := defaultListMax
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	jobs, err := lister.ListJobs(r.Context(), limit)
	if err != nil {
		s.logger.Error("job listing failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	views := make([]jobView, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, newJobView(job))
	}
	writeJSON(w, http.StatusOK, views)
}

// omit is never set. A field of this type shadows the embedded job field of
// the same JSON name and drops it from the encoding.
type omit *struct{}

// jobView is the API form of a job. The correlation token and the local
// artifact path stay on the server.
type jobView struct {
	*model.Job
	CorrelationToken omit `json:"ssa,omitempty"`
	CompactPath      omit `json:"compact_path,omitempty"`
}

func newJobView(job *model.Job) jobView {
	return jobView{Job: job}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
