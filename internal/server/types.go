package server

import "time"

// ErrorResponse is the body of requests rejected before reaching the
// simulator.
type ErrorResponse struct {
	// Error is the HTTP status text.
	Error string `json:"error"`
	// Message says what was wrong with the request.
	Message string `json:"message,omitempty"`
}

// EnginesResponse lists the transform engines.
type EnginesResponse struct {
	Engines []string `json:"engines"`
	Default string   `json:"default"`
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp int64  `json:"timestamp"`
	Uptime    string `json:"uptime"`
}

// ParseError is a query parameter problem with the status to answer.
type ParseError struct {
	Message    string
	StatusCode int
}

func (e ParseError) Error() string { return e.Message }

func uptime(since time.Time) string {
	return time.Since(since).Round(time.Second).String()
}
