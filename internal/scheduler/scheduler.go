// Package scheduler debounces interactive configuration edits so the price
// calculator runs once per burst of changes instead of once per keystroke.
// It is a small state machine: Idle until a change arrives, Pending while
// the debounce timer runs, Computing while the calculator executes. A change
// arriving in Pending or Computing supersedes the in-flight request; the
// superseded result is dropped, never surfaced.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ovenhouse/backend-pizzeria/internal/pricing"
)

// State is the scheduler's current phase.
type State int32

const (
	StateIdle State = iota
	StatePending
	StateComputing
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePending:
		return "pending"
	case StateComputing:
		return "computing"
	default:
		return "unknown"
	}
}

// DefaultDebounce is used when the caller does not configure one.
const DefaultDebounce = 150 * time.Millisecond

// ComputeFunc produces a breakdown for a configuration. The scheduler treats
// it as pure: it may be allowed to finish after being superseded.
type ComputeFunc func(ctx context.Context, cfg pricing.Configuration) (pricing.Breakdown, error)

// Result is one delivered outcome. Memoized results reuse the breakdown of
// the last completed computation without invoking the compute function.
type Result struct {
	Seq         uint64
	Fingerprint string
	Breakdown   pricing.Breakdown
	Err         error
	Memoized    bool
}

// Scheduler mediates between a stream of configuration updates and the
// calculator. Safe for concurrent use.
type Scheduler struct {
	compute  ComputeFunc
	onResult func(Result)
	debounce time.Duration
	logger   zerolog.Logger

	mu         sync.Mutex
	state      State
	seq        uint64
	timer      *time.Timer
	pendingCfg pricing.Configuration

	lastFingerprint string
	lastBreakdown   pricing.Breakdown
	hasLast         bool
}

// New constructs a scheduler. onResult receives every delivered result, in
// delivery order; superseded computations never reach it.
func New(compute ComputeFunc, debounce time.Duration, onResult func(Result), logger zerolog.Logger) (*Scheduler, error) {
	if compute == nil {
		return nil, errors.New("scheduler: compute function is required")
	}
	if onResult == nil {
		return nil, errors.New("scheduler: result callback is required")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Scheduler{
		compute:  compute,
		onResult: onResult,
		debounce: debounce,
		logger:   logger,
		state:    StateIdle,
	}, nil
}

// Update feeds one configuration change into the machine.
//
// If the fingerprint matches the last completed computation the cached
// breakdown is delivered synchronously and any in-flight work is superseded;
// the debounce path is skipped entirely. Otherwise the pending timer is
// cancelled and restarted, so only the last change of a rapid burst computes.
func (s *Scheduler) Update(ctx context.Context, cfg pricing.Configuration) {
	fingerprint := pricing.Fingerprint(cfg)

	s.mu.Lock()
	if s.hasLast && fingerprint == s.lastFingerprint {
		// Memoization path. Bumping seq drops whatever is in flight.
		s.seq++
		s.stopTimerLocked()
		s.state = StateIdle
		result := Result{
			Seq:         s.seq,
			Fingerprint: fingerprint,
			Breakdown:   s.lastBreakdown,
			Memoized:    true,
		}
		s.mu.Unlock()
		updatesTotal.WithLabelValues(pathMemoized).Inc()
		s.onResult(result)
		return
	}

	s.seq++
	seq := s.seq
	s.pendingCfg = cfg
	s.state = StatePending
	s.stopTimerLocked()
	s.timer = time.AfterFunc(s.debounce, func() { s.fire(ctx, seq) })
	s.mu.Unlock()
	updatesTotal.WithLabelValues(pathDebounced).Inc()
}

// State reports the current phase.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Stop cancels any pending timer. An already running computation finishes
// but its result is dropped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.stopTimerLocked()
	s.state = StateIdle
}

func (s *Scheduler) fire(ctx context.Context, seq uint64) {
	s.mu.Lock()
	if seq != s.seq {
		// Superseded while pending; a newer timer is running.
		s.mu.Unlock()
		return
	}
	cfg := s.pendingCfg
	s.state = StateComputing
	s.mu.Unlock()

	breakdown, err := s.compute(ctx, cfg)

	s.mu.Lock()
	if seq != s.seq {
		// A newer update arrived while computing. The computation was
		// allowed to finish, the result is discarded.
		s.mu.Unlock()
		resultsTotal.WithLabelValues(outcomeSuperseded).Inc()
		s.logger.Debug().Uint64("seq", seq).Msg("scheduler_result_dropped")
		return
	}
	fingerprint := pricing.Fingerprint(cfg)
	if err != nil {
		s.state = StateIdle
		s.mu.Unlock()
		resultsTotal.WithLabelValues(outcomeError).Inc()
		s.onResult(Result{Seq: seq, Fingerprint: fingerprint, Err: err})
		return
	}
	s.lastFingerprint = fingerprint
	s.lastBreakdown = breakdown
	s.hasLast = true
	s.state = StateIdle
	s.mu.Unlock()
	resultsTotal.WithLabelValues(outcomeDelivered).Inc()
	s.onResult(Result{Seq: seq, Fingerprint: fingerprint, Breakdown: breakdown})
}

func (s *Scheduler) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
