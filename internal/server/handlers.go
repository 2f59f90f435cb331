package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	apperrors "github.com/agbru/shorsim/internal/errors"
	"github.com/agbru/shorsim/internal/service"
	"github.com/agbru/shorsim/internal/transform"
	"github.com/agbru/shorsim/pkg/models"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	s.writeJSONResponse(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().Unix(),
		Uptime:    uptime(s.started),
	})
}

func (s *Server) handleEngines(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	def := s.cfg.Engine
	if def == "" {
		def = transform.DefaultEngine
	}
	s.writeJSONResponse(w, http.StatusOK, EnginesResponse{Engines: s.service.Engines(), Default: def})
}

// handleFactor serves GET /factor?n=&engine=&seed=&tries=&attempts=.
//
// Rejected numbers answer 422 and exhausted budgets 200, both with a
// models.ErrorReport; a run cut by the request timeout answers 504.
func (s *Server) handleFactor(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	req, withAttempts, err := s.parseFactorParams(r)
	if err != nil {
		s.writeParseError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeouts.RequestTimeout)
	defer cancel()
	resp, err := s.service.Factorize(ctx, req)
	if err != nil {
		s.writeFactorError(w, req.N, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, models.NewFactorReport(resp.Result, resp.Seed, withAttempts))
}

// handlePeriods serves GET /periods?n=&limit=.
func (s *Server) handlePeriods(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	q := r.URL.Query()
	n, err := s.parseN(q.Get("n"))
	if err != nil {
		s.writeParseError(w, err)
		return
	}
	limit, err := parseOptionalInt(q.Get("limit"), "limit", 1, s.securityConfig.MaxExploreLimit)
	if err != nil {
		s.writeParseError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeouts.RequestTimeout)
	defer cancel()
	bases, err := s.service.Explore(ctx, n, limit)
	if err != nil {
		s.writeFactorError(w, n, err)
		return
	}
	s.writeJSONResponse(w, http.StatusOK, models.PeriodsReport{N: n, Bases: bases})
}

func (s *Server) parseFactorParams(r *http.Request) (service.Request, bool, error) {
	q := r.URL.Query()
	n, err := s.parseN(q.Get("n"))
	if err != nil {
		return service.Request{}, false, err
	}
	req := service.Request{N: n, Engine: q.Get("engine")}

	if v := q.Get("seed"); v != "" {
		if req.Seed, err = strconv.ParseUint(v, 10, 64); err != nil {
			return req, false, ParseError{Message: "Invalid 'seed' parameter: must be an unsigned integer", StatusCode: http.StatusBadRequest}
		}
	}
	if req.MaxTries, err = parseOptionalInt(q.Get("tries"), "tries", 1, 0); err != nil {
		return req, false, err
	}
	withAttempts := false
	if v := q.Get("attempts"); v != "" {
		if withAttempts, err = strconv.ParseBool(v); err != nil {
			return req, false, ParseError{Message: "Invalid 'attempts' parameter: must be a boolean", StatusCode: http.StatusBadRequest}
		}
	}
	return req, withAttempts, nil
}

func (s *Server) parseN(v string) (int, error) {
	if v == "" {
		return 0, ParseError{Message: "Missing 'n' parameter", StatusCode: http.StatusBadRequest}
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, ParseError{Message: "Invalid 'n' parameter: must be a non-negative integer", StatusCode: http.StatusBadRequest}
	}
	if max := s.securityConfig.MaxNValue; max > 0 && n > max {
		return 0, ParseError{
			Message:    fmt.Sprintf("Value of 'n' exceeds maximum allowed (%d). This limit prevents resource exhaustion.", max),
			StatusCode: http.StatusBadRequest,
		}
	}
	return n, nil
}

// parseOptionalInt parses an optional integer in [lo, hi]; hi <= 0 means
// unbounded and an empty value yields 0.
func parseOptionalInt(v, name string, lo, hi int) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < lo || (hi > 0 && n > hi) {
		msg := fmt.Sprintf("Invalid '%s' parameter: must be an integer >= %d", name, lo)
		if hi > 0 {
			msg = fmt.Sprintf("Invalid '%s' parameter: must be an integer in [%d, %d]", name, lo, hi)
		}
		return 0, ParseError{Message: msg, StatusCode: http.StatusBadRequest}
	}
	return n, nil
}

func (s *Server) writeParseError(w http.ResponseWriter, err error) {
	var parseErr ParseError
	if errors.As(err, &parseErr) {
		s.writeErrorResponse(w, parseErr.StatusCode, parseErr.Message)
		return
	}
	s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
}

func (s *Server) writeFactorError(w http.ResponseWriter, n int, err error) {
	status := http.StatusInternalServerError
	kind := "error"
	switch {
	case errors.Is(err, service.ErrMaxValueExceeded), errors.Is(err, service.ErrMaxTriesExceeded),
		errors.Is(err, transform.ErrUnknownEngine):
		s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	case errors.Is(err, apperrors.ErrInvalidInput):
		status, kind = http.StatusUnprocessableEntity, "invalid_input"
	case errors.Is(err, apperrors.ErrExhausted):
		status, kind = http.StatusOK, "exhausted"
	case errors.Is(err, context.DeadlineExceeded):
		status, kind = http.StatusGatewayTimeout, "timeout"
	case errors.Is(err, context.Canceled):
		status, kind = http.StatusServiceUnavailable, "canceled"
	default:
		s.logger.Error("request failed", err)
	}
	s.writeJSONResponse(w, status, models.NewErrorReport(n, kind, err))
}

func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encoding JSON response", err)
	}
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	s.writeJSONResponse(w, statusCode, ErrorResponse{Error: http.StatusText(statusCode), Message: message})
}
