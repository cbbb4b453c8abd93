package propagation

import (
	"context"
	"fmt"
	"time"

	"github.com/transipdev/transip-acme-go/pkg/apierr"
	"github.com/transipdev/transip-acme-go/pkg/logging"
)

const (
	// MaxRetries bounds the number of polling attempts: at WaitSeconds
	// apart, this is roughly one hour of total wall-clock budget.
	MaxRetries = 720
	// WaitSeconds separates consecutive polling attempts.
	WaitSeconds = 5 * time.Second
	// initialSettle is a short grace period before the first attempt, to
	// give the provider's own infrastructure a moment to pick up the
	// just-inserted record.
	initialSettle = 1 * time.Second
)

// authority is the polling surface a Controller needs from one
// authoritative name server. *AuthoritativeResolver satisfies it; tests
// substitute fakes to avoid standing up real DNS servers.
type authority interface {
	HasSingleAcme(ctx context.Context, zone, expected string) (bool, error)
}

// AttemptObserver receives one notification per polling attempt; callers
// that don't care about per-attempt telemetry may pass nil.
type AttemptObserver interface {
	ObservePropagationAttempt()
	ObservePropagationDuration(elapsed time.Duration)
}

// Controller drives bounded-retry polling across every authoritative name
// server for a zone until all agree on the expected TXT content, or the
// retry budget is exhausted.
type Controller struct {
	discover func(ctx context.Context, zone string) ([]authority, error)
	log      *logging.Logger
	instr    AttemptObserver
	sleep    func(context.Context, time.Duration) error
}

type noopAttemptObserver struct{}

func (noopAttemptObserver) ObservePropagationAttempt()               {}
func (noopAttemptObserver) ObservePropagationDuration(time.Duration) {}

// NewController builds a Controller that discovers authorities for a zone
// through recursive. log and instr may be nil.
func NewController(recursive *RecursiveResolver, log *logging.Logger, instr AttemptObserver) *Controller {
	if log == nil {
		log = logging.NewDefault()
	}
	if instr == nil {
		instr = noopAttemptObserver{}
	}
	return &Controller{
		discover: func(ctx context.Context, zone string) ([]authority, error) {
			resolvers, err := recursive.AuthoritativeResolvers(ctx, zone)
			if err != nil {
				return nil, err
			}
			authorities := make([]authority, len(resolvers))
			for i, r := range resolvers {
				authorities[i] = r
			}
			return authorities, nil
		},
		log:   log,
		instr: instr,
		sleep: ctxSleep,
	}
}

func ctxSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every authoritative name server for zone reports the
// expected TXT content at `_acme-challenge.<zone>`, the retry budget
// (MaxRetries attempts, WaitSeconds apart) is exhausted, or ctx is
// cancelled.
//
// A MultipleAcme or Resolve failure from any authority is fatal and
// returned immediately — no amount of waiting fixes either. A `false`
// result from an authority is transient and simply continues polling.
func (c *Controller) Wait(ctx context.Context, zone, expected string) error {
	start := time.Now()
	defer func() { c.instr.ObservePropagationDuration(time.Since(start)) }()

	authorities, err := c.discover(ctx, zone)
	if err != nil {
		return err
	}
	if len(authorities) == 0 {
		return apierr.New(apierr.Resolve, "zone "+zone+" has no authoritative name servers")
	}

	if err := c.sleep(ctx, initialSettle); err != nil {
		return err
	}

	for attempt := 1; attempt <= MaxRetries; attempt++ {
		c.instr.ObservePropagationAttempt()

		allAgree, err := c.pollOnce(ctx, authorities, zone, expected)
		if err != nil {
			return err
		}
		if allAgree {
			c.log.Info("propagation complete", "zone", zone, "attempt", attempt)
			return nil
		}

		c.log.Info("propagation not yet complete", "zone", zone, "attempt", attempt)
		if attempt == MaxRetries {
			break
		}
		if err := c.sleep(ctx, WaitSeconds); err != nil {
			return err
		}
	}

	return apierr.New(apierr.AcmeTimeout, fmt.Sprintf("propagation did not complete within %d attempts", MaxRetries))
}

// pollOnce queries every authority serially, in NS-lookup order, and
// returns true only if every one agrees.
func (c *Controller) pollOnce(ctx context.Context, authorities []authority, zone, expected string) (bool, error) {
	for _, a := range authorities {
		ok, err := a.HasSingleAcme(ctx, zone, expected)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}
