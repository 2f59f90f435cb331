// Package models defines the JSON documents emitted by the CLI (-json) and
// the HTTP API.
package models

import (
	"errors"
	"time"

	"github.com/agbru/shorsim/internal/lab"
	"github.com/agbru/shorsim/internal/shor"
)

// FactorReport is the outcome of one factorisation.
type FactorReport struct {
	RunID          string          `json:"run_id"`
	N              int             `json:"n"`
	Factor         int             `json:"factor"`
	Cofactor       int             `json:"cofactor"`
	Base           int             `json:"base"`
	Period         int             `json:"period"`
	PeriodVerified bool            `json:"period_verified"`
	Measured       int             `json:"measured"`
	Fraction       string          `json:"fraction"`
	Q              int             `json:"q"`
	Qubits         int             `json:"qubits"`
	Engine         string          `json:"engine"`
	Seed           uint64          `json:"seed"`
	Tries          int             `json:"tries"`
	DurationMS     float64         `json:"duration_ms"`
	Attempts       []AttemptRecord `json:"attempts,omitempty"`
}

// AttemptRecord is one attempt of a run.
type AttemptRecord struct {
	Number   int    `json:"number"`
	Base     int    `json:"base"`
	Stage    string `json:"stage"`
	Outcome  string `json:"outcome"`
	Reason   string `json:"reason"`
	Value    int    `json:"value"`
	Measured int    `json:"measured"`
	Fraction string `json:"fraction,omitempty"`
	Factor   int    `json:"factor,omitempty"`
	// ActiveStates is how many input states the transform did not skip.
	ActiveStates int     `json:"active_states"`
	DurationMS   float64 `json:"duration_ms"`
}

// ErrorReport describes a failed request or run.
type ErrorReport struct {
	N       int            `json:"n,omitempty"`
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Tries   int            `json:"tries,omitempty"`
	Reasons map[string]int `json:"reasons,omitempty"`
}

// PeriodsReport lists bases with working periods.
type PeriodsReport struct {
	N     int               `json:"n"`
	Bases []lab.WorkingBase `json:"bases"`
}

func millis(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}

// NewAttemptRecord flattens a shor.Attempt.
func NewAttemptRecord(a shor.Attempt) AttemptRecord {
	rec := AttemptRecord{
		Number:       a.Number,
		Base:         a.Base,
		Stage:        a.Stage.String(),
		Outcome:      a.Outcome.String(),
		Reason:       a.Reason.String(),
		Value:        a.Value,
		Measured:     a.M,
		Factor:       a.Factor,
		ActiveStates: a.Transform.Active,
		DurationMS:   millis(a.Duration),
	}
	if a.Fraction.Den != 0 {
		rec.Fraction = a.Fraction.String()
	}
	return rec
}

// NewFactorReport builds the report of a successful run. Attempts are
// included only when withAttempts is set.
func NewFactorReport(res shor.Result, seed uint64, withAttempts bool) FactorReport {
	report := FactorReport{
		RunID:          res.RunID,
		N:              res.Layout.N,
		Factor:         res.Factor,
		Cofactor:       res.Cofactor,
		Base:           res.Base,
		Period:         res.Period,
		PeriodVerified: res.PeriodVerified,
		Measured:       res.Measured,
		Fraction:       res.Fraction.String(),
		Q:              res.Layout.Q,
		Qubits:         res.Layout.FirstQubits + res.Layout.SecondQubits,
		Engine:         res.Engine,
		Seed:           seed,
		Tries:          res.Tries,
		DurationMS:     millis(res.Duration),
	}
	if withAttempts {
		report.Attempts = make([]AttemptRecord, len(res.Attempts))
		for i, a := range res.Attempts {
			report.Attempts[i] = NewAttemptRecord(a)
		}
	}
	return report
}

// NewErrorReport describes err for n. Exhausted runs carry their failure
// tally.
func NewErrorReport(n int, kind string, err error) ErrorReport {
	report := ErrorReport{N: n, Error: kind, Message: err.Error()}
	var exhausted *shor.ExhaustedError
	if errors.As(err, &exhausted) {
		report.Tries = exhausted.Tries
		report.Reasons = make(map[string]int)
		for reason, count := range exhausted.ReasonCounts() {
			report.Reasons[reason.String()] = count
		}
	}
	return report
}
