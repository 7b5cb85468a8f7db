package health

import (
	"context"
	"fmt"
	"time"

	"github.com/hodei/pipelines/pkg/types"
)

// CheckType identifies a probe mechanism
type CheckType string

const (
	CheckTypeHTTP CheckType = "http"
	CheckTypeTCP  CheckType = "tcp"
	CheckTypeExec CheckType = "exec"
)

// DefaultRetries is the consecutive failure threshold when a probe does not
// set one.
const DefaultRetries = 3

// Result is the outcome of a single probe
type Result struct {
	Healthy   bool
	Message   string
	CheckedAt time.Time
	Duration  time.Duration
}

// Checker performs one kind of probe against a target
type Checker interface {
	Check(ctx context.Context) Result
	Type() CheckType
}

// FromProbe builds a checker from a pool template probe
func FromProbe(p *types.Probe) (Checker, error) {
	var c Checker
	switch CheckType(p.Type) {
	case CheckTypeHTTP:
		hc := NewHTTPChecker(p.Endpoint)
		if p.Timeout > 0 {
			hc.Client.Timeout = p.Timeout
		}
		c = hc
	case CheckTypeTCP:
		tc := NewTCPChecker(p.Endpoint)
		if p.Timeout > 0 {
			tc.Timeout = p.Timeout
		}
		c = tc
	case CheckTypeExec:
		ec := NewExecChecker(p.Command)
		if p.Timeout > 0 {
			ec.Timeout = p.Timeout
		}
		c = ec
	default:
		return nil, fmt.Errorf("unknown probe type %q", p.Type)
	}
	return c, nil
}

// Status accumulates probe results and flips healthy/unhealthy on
// consecutive-failure thresholds.
type Status struct {
	ConsecutiveFailures  int
	ConsecutiveSuccesses int
	LastCheck            time.Time
	LastResult           Result
	Healthy              bool
}

// NewStatus starts healthy until a probe proves otherwise
func NewStatus() *Status {
	return &Status{Healthy: true}
}

// Update folds in a probe result. A target goes unhealthy only after
// retries consecutive failures; a single success restores it.
func (s *Status) Update(result Result, retries int) {
	if retries <= 0 {
		retries = DefaultRetries
	}
	s.LastCheck = result.CheckedAt
	s.LastResult = result

	if result.Healthy {
		s.ConsecutiveSuccesses++
		s.ConsecutiveFailures = 0
		s.Healthy = true
		return
	}

	s.ConsecutiveFailures++
	s.ConsecutiveSuccesses = 0
	if s.ConsecutiveFailures >= retries {
		s.Healthy = false
	}
}
