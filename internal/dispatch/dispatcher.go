// Package dispatch selects an AI provider for each request and fails over to the next one
// when a provider keeps reporting rate limits.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-bot/internal/ai"
	"github.com/spigell/job-bot/internal/logger"
	"github.com/spigell/job-bot/internal/utils"
)

// Auto asks the dispatcher to follow registry priority.
const Auto = "auto"

// DefaultRetryPause is the wait before the single same-provider retry.
const DefaultRetryPause = 3 * time.Second

var (
	// ErrNoProvidersAvailable is returned when every configured provider is cooling down
	// or has been exhausted during the call.
	ErrNoProvidersAvailable = errors.New("all configured providers are rate limited; wait a moment and try again")
	// ErrUnknownProvider is returned for a preferred provider that is not in the registry.
	ErrUnknownProvider = errors.New("unknown provider")

	errCandidateExhausted = errors.New("candidate exhausted")
)

var wait = utils.WaitFor

// Request is one operation to dispatch.
type Request struct {
	Operation  string
	Completion ai.CompletionRequest
}

// Result is the raw model output and the provider that produced it.
type Result struct {
	Text     string
	Provider Provider
	// Requested is the provider that would have served the call without fallback.
	Requested string
	Attempts  int
}

// Switched reports whether a fallback provider served the call.
func (r *Result) Switched() bool {
	return r.Requested != "" && r.Provider.ID != r.Requested
}

type Options struct {
	RetryPause time.Duration
	Metrics    *Metrics
	Now        func() time.Time
}

type Dispatcher struct {
	registry *Registry
	factory  Factory
	pause    time.Duration
	metrics  *Metrics
	now      func() time.Time
	logger   *zap.Logger
}

func New(registry *Registry, factory Factory, opts Options, log *zap.Logger) *Dispatcher {
	pause := opts.RetryPause
	if pause < 0 {
		pause = 0
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Dispatcher{
		registry: registry,
		factory:  factory,
		pause:    pause,
		metrics:  opts.Metrics,
		now:      now,
		logger:   logger.WithFields(log),
	}
}

func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Available returns the providers that have a credential in s, in priority order.
func (d *Dispatcher) Available(s *Session) []Provider {
	creds := s.Credentials()
	available := make([]Provider, 0, len(d.registry.providers))
	for _, p := range d.registry.providers {
		if creds.Get(p.ID) != "" {
			available = append(available, p)
		}
	}
	return available
}

// Invoke runs req against the preferred provider, falling back through the registry on rate
// limits. Non-rate-limit errors are returned immediately.
func (d *Dispatcher) Invoke(ctx context.Context, s *Session, preferred string, req Request) (*Result, error) {
	s.call.Lock()
	defer s.call.Unlock()

	log := logger.WithOperation(d.logger, req.Operation, s.ID)

	released, creds, cooling := s.snapshot(d.now())
	for _, id := range released {
		log.Info("provider cooldown expired", zap.String(logger.FieldProvider, id))
	}

	order, requested, err := d.attemptOrder(creds, cooling, preferred)
	if err != nil {
		return nil, err
	}

	attempts := 0
	for _, p := range order {
		text, n, err := d.attempt(ctx, s, p, creds.Get(p.ID), req, log)
		attempts += n
		if err == nil {
			return &Result{Text: text, Provider: p, Requested: requested, Attempts: attempts}, nil
		}
		if errors.Is(err, errCandidateExhausted) {
			continue
		}
		return nil, err
	}

	d.metrics.observeExhausted()
	log.Warn("no provider available", zap.Int("attempts", attempts), zap.Strings("cooling_down", s.coolingIDs()))

	return nil, ErrNoProvidersAvailable
}

// attemptOrder puts the preferred provider first, then every other usable provider in registry
// order. Providers without a credential or still cooling down are left out.
func (d *Dispatcher) attemptOrder(creds Credentials, cooling map[string]struct{}, preferred string) ([]Provider, string, error) {
	preferred = strings.TrimSpace(strings.ToLower(preferred))
	if preferred == Auto {
		preferred = ""
	}

	if preferred != "" {
		if _, ok := d.registry.Lookup(preferred); !ok {
			return nil, "", fmt.Errorf("%w: %s", ErrUnknownProvider, preferred)
		}
	}

	usable := func(p Provider) bool {
		_, cold := cooling[p.ID]
		return creds.Get(p.ID) != "" && !cold
	}

	order := make([]Provider, 0, len(d.registry.providers))
	if preferred != "" {
		if p, _ := d.registry.Lookup(preferred); usable(p) {
			order = append(order, p)
		}
	}
	for _, p := range d.registry.providers {
		if p.ID == preferred || !usable(p) {
			continue
		}
		order = append(order, p)
	}

	requested := preferred
	if requested == "" && len(order) > 0 {
		requested = order[0].ID
	}

	return order, requested, nil
}

type candidateState int

const (
	stateUntried candidateState = iota
	stateRetryPending
	stateExhausted
	stateAborted
)

type failureKind int

const (
	failureRateLimit failureKind = iota
	failureFatal
)

// transition is the per-candidate retry policy: one retry after a rate limit, then give up on
// the candidate. Fatal failures abort the whole call.
func transition(state candidateState, kind failureKind) candidateState {
	if kind == failureFatal {
		return stateAborted
	}
	switch state {
	case stateUntried:
		return stateRetryPending
	default:
		return stateExhausted
	}
}

// attempt drives one candidate through the retry policy. It returns errCandidateExhausted when
// the candidate should be skipped in favour of the next one.
func (d *Dispatcher) attempt(ctx context.Context, s *Session, p Provider, key string, req Request, log *zap.Logger) (string, int, error) {
	log = logger.WithCommonFields(log, p.ID, p.Model)

	completer, err := d.factory(ctx, p, key)
	if err != nil {
		return "", 0, fmt.Errorf("%s: %w", p.Label, err)
	}

	state := stateUntried
	calls := 0
	for {
		start := d.now()
		text, err := completer.Complete(ctx, req.Completion)
		elapsed := d.now().Sub(start)
		calls++

		if err == nil {
			d.metrics.observeAttempt(p.ID, req.Operation, outcomeSuccess, elapsed)
			log.Info("provider call succeeded", zap.Int("call", calls), zap.Duration("elapsed", elapsed))
			return text, calls, nil
		}

		kind := failureFatal
		outcome := outcomeError
		if ai.IsRateLimit(err) {
			kind = failureRateLimit
			outcome = outcomeRateLimited
		}
		d.metrics.observeAttempt(p.ID, req.Operation, outcome, elapsed)

		state = transition(state, kind)
		switch state {
		case stateAborted:
			log.Warn("provider call failed", zap.Error(err))
			return "", calls, fmt.Errorf("%s: %w", p.Label, err)
		case stateRetryPending:
			log.Info("provider rate limited, retrying once", zap.Duration("pause", d.pause), zap.Error(err))
			if werr := wait(ctx, d.pause); werr != nil {
				return "", calls, werr
			}
		case stateExhausted:
			d.recordCooldown(s, p, err, log)
			return "", calls, errCandidateExhausted
		}
	}
}

func (d *Dispatcher) recordCooldown(s *Session, p Provider, cause error, log *zap.Logger) {
	cooldown := p.CooldownDuration()
	until := s.markLimited(p.ID, d.now().Add(cooldown))
	d.metrics.observeCooldown(p.ID)

	reason := fmt.Sprintf("rate limited (reset in %s)", cooldown)
	if ai.IsModelUnavailable(cause) {
		reason = "model unavailable"
	}

	log.Warn("provider cooling down, trying next provider",
		zap.String("reason", reason),
		zap.Time("until", until),
		zap.Error(cause),
	)
}
