package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/mvnfetch/pkg/errors"
	"github.com/matzehuels/mvnfetch/pkg/history"
	mvnio "github.com/matzehuels/mvnfetch/pkg/io"
	"github.com/matzehuels/mvnfetch/pkg/pipeline"
	"github.com/matzehuels/mvnfetch/pkg/repository"
	"github.com/matzehuels/mvnfetch/pkg/resolve"
)

// maxRequestBody bounds POST /v1/resolve bodies.
const maxRequestBody = 1 << 20

// ResolveRequest is the body of POST /v1/resolve.
type ResolveRequest struct {
	pipeline.Request
	Repositories []repository.Config `json:"repositories,omitempty"`
}

// ResolveResponse is the body of a successful POST /v1/resolve.
type ResolveResponse struct {
	RunID    string `json:"run_id"`
	CacheHit bool   `json:"cache_hit"`
	mvnio.Report
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
	RunID string    `json:"run_id,omitempty"`
}

// ErrorBody describes one failure.
type ErrorBody struct {
	Code       errors.Code `json:"code"`
	Message    string      `json:"message"`
	Coordinate string      `json:"coordinate,omitempty"`
	Failures   []ErrorBody `json:"failures,omitempty"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, "", errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, "", err)
		return
	}

	runner := s.runner
	if len(req.Repositories) > 0 {
		cfg := s.opts.Pipeline
		cfg.Repositories = req.Repositories
		var err error
		if runner, err = pipeline.NewRunner(cfg); err != nil {
			writeError(w, "", err)
			return
		}
	}

	repos := runner.Client.Repositories()
	urls := make([]string, len(repos))
	for i, c := range repos {
		urls[i] = c.URL
	}
	policy, _ := resolve.ParsePolicy(string(req.Policy))
	run := history.NewRun(req.Roots, urls, req.Excludes, string(policy))

	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RequestTimeout)
	defer cancel()

	res, err := runner.Resolve(ctx, req.Request)
	run.Duration = time.Since(run.StartedAt)
	if err != nil {
		run.Error = err.Error()
		run.ErrorCode = string(codeOf(err))
		s.save(run)
		s.logger.Warn("resolution failed", "run", run.ID, "roots", req.Roots, "err", errors.UserMessage(err))
		writeError(w, run.ID, err)
		return
	}

	run.Artifacts = make([]string, len(res.Resolution.Order))
	for i, c := range res.Resolution.Order {
		run.Artifacts[i] = c.String()
	}
	run.Diagnostics = res.Resolution.Diagnostics
	s.save(run)

	writeJSON(w, http.StatusOK, ResolveResponse{
		RunID:    run.ID,
		CacheHit: res.CacheHit,
		Report:   mvnio.NewReport(req.Roots, res.Resolution, res.Files),
	})
}

// save records a run independently of the request context, so a client
// that hangs up still leaves a history entry.
func (s *Server) save(run *history.Run) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.history.Save(ctx, run); err != nil {
		s.logger.Error("save run", "run", run.ID, "err", err)
	}
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, "", errors.New(errors.ErrCodeInvalidInput, "invalid limit %q", v))
			return
		}
		limit = n
	}

	runs, err := s.history.List(r.Context(), limit)
	if err != nil {
		writeError(w, "", err)
		return
	}
	if runs == nil {
		runs = []*history.Run{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !history.ValidID(id) {
		writeError(w, "", errors.New(errors.ErrCodeRunNotFound, "run %s not found", id))
		return
	}
	run, err := s.history.Get(r.Context(), id)
	if err != nil {
		writeError(w, "", err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func codeOf(err error) errors.Code {
	if code := errors.GetCode(err); code != "" {
		return code
	}
	return errors.ErrCodeInternal
}

// statusFor maps error codes to HTTP status codes.
func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidConfig, errors.ErrCodeMalformedCoordinate,
		errors.ErrCodeInvalidVersionRange, errors.ErrCodeUnsupportedRepoURL:
		return http.StatusBadRequest
	case errors.ErrCodeRunNotFound, errors.ErrCodeNotFound:
		return http.StatusNotFound
	case errors.ErrCodeMissingDependency, errors.ErrCodeNoMatchingVersion, errors.ErrCodeInvalidDescriptor,
		errors.ErrCodeParentChainTooDeep:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeNetwork, errors.ErrCodeUnauthorized, errors.ErrCodeChecksumMismatch,
		errors.ErrCodeChecksumUnavailable, errors.ErrCodePartialResolution:
		return http.StatusBadGateway
	case errors.ErrCodeCancelled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(err error) ErrorBody {
	body := ErrorBody{
		Code:       codeOf(err),
		Message:    errors.UserMessage(err),
		Coordinate: errors.CoordinateOf(err),
	}
	var partial *errors.PartialResolutionError
	if stderrors.As(err, &partial) {
		body.Message = partial.Error()
		for _, f := range partial.Failures {
			fb := errorBody(f.Err)
			fb.Coordinate = f.Coordinate
			body.Failures = append(body.Failures, fb)
		}
	}
	return body
}

func writeError(w http.ResponseWriter, runID string, err error) {
	body := errorBody(err)
	writeJSON(w, statusFor(body.Code), ErrorResponse{Error: body, RunID: runID})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
