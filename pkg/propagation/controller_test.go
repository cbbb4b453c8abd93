package propagation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/transipdev/transip-acme-go/pkg/apierr"
)

// fakeAuthority replays a fixed sequence of results, one per call; the
// final entry repeats once the sequence is exhausted.
type fakeAuthority struct {
	results []fakeResult
	calls   int
}

type fakeResult struct {
	ok  bool
	err error
}

func (f *fakeAuthority) HasSingleAcme(ctx context.Context, zone, expected string) (bool, error) {
	idx := f.calls
	if idx >= len(f.results) {
		idx = len(f.results) - 1
	}
	f.calls++
	r := f.results[idx]
	return r.ok, r.err
}

func newController(t *testing.T, discover func(ctx context.Context, zone string) ([]authority, error)) *Controller {
	t.Helper()
	c := NewController(nil, nil, nil)
	c.discover = discover
	c.sleep = func(context.Context, time.Duration) error { return nil } // instant in tests
	return c
}

// TestWaitSucceedsWhenAllAuthoritiesAgreeImmediately covers scenario S4:
// three stub authorities all agree on the first attempt.
func TestWaitSucceedsWhenAllAuthoritiesAgreeImmediately(t *testing.T) {
	a1 := &fakeAuthority{results: []fakeResult{{ok: true}}}
	a2 := &fakeAuthority{results: []fakeResult{{ok: true}}}
	a3 := &fakeAuthority{results: []fakeResult{{ok: true}}}

	c := newController(t, func(ctx context.Context, zone string) ([]authority, error) {
		return []authority{a1, a2, a3}, nil
	})

	err := c.Wait(context.Background(), "example.com.", "expected-value")
	require.NoError(t, err)
	assert.Equal(t, 1, a1.calls)
	assert.Equal(t, 1, a2.calls)
	assert.Equal(t, 1, a3.calls)
}

// TestWaitSucceedsAfterTransientNotYetPropagated covers scenario S5: two
// authorities report "not yet" for a few attempts, then agree.
func TestWaitSucceedsAfterTransientNotYetPropagated(t *testing.T) {
	a1 := &fakeAuthority{results: []fakeResult{{ok: false}, {ok: false}, {ok: true}}}
	a2 := &fakeAuthority{results: []fakeResult{{ok: false}, {ok: false}, {ok: true}}}

	c := newController(t, func(ctx context.Context, zone string) ([]authority, error) {
		return []authority{a1, a2}, nil
	})

	// pollOnce stops at the first authority that says "not yet", so a2 is
	// only queried from the third attempt on, when a1 starts agreeing.
	err := c.Wait(context.Background(), "example.com.", "expected-value")
	require.NoError(t, err)
	assert.Equal(t, 5, a1.calls)
	assert.Equal(t, 3, a2.calls)
}

// TestWaitFailsFastOnMultipleAcme covers scenario S6: a fatal error from
// any authority aborts immediately, without exhausting the retry budget.
func TestWaitFailsFastOnMultipleAcme(t *testing.T) {
	fatal := apierr.New(apierr.MultipleAcme, "more than one _acme-challenge TXT record present")
	a1 := &fakeAuthority{results: []fakeResult{{ok: false, err: fatal}}}

	c := newController(t, func(ctx context.Context, zone string) ([]authority, error) {
		return []authority{a1}, nil
	})

	err := c.Wait(context.Background(), "example.com.", "expected-value")
	require.Error(t, err)
	assert.ErrorIs(t, err, apierr.New(apierr.MultipleAcme, ""))
	assert.Equal(t, 1, a1.calls)
}

// TestWaitFailsFastOnResolveError mirrors TestWaitFailsFastOnMultipleAcme
// for the other fatal Kind: a resolver failure never turns into a retry.
func TestWaitFailsFastOnResolveError(t *testing.T) {
	fatal := apierr.New(apierr.Resolve, "authority unreachable")
	a1 := &fakeAuthority{results: []fakeResult{{ok: false, err: fatal}}}

	c := newController(t, func(ctx context.Context, zone string) ([]authority, error) {
		return []authority{a1}, nil
	})

	err := c.Wait(context.Background(), "example.com.", "expected-value")
	require.Error(t, err)
	assert.ErrorIs(t, err, apierr.New(apierr.Resolve, ""))
	assert.Equal(t, 1, a1.calls)
}

// TestWaitReturnsAcmeTimeoutAfterMaxRetries covers invariant 8: exactly
// MaxRetries attempts are made before AcmeTimeout is returned.
func TestWaitReturnsAcmeTimeoutAfterMaxRetries(t *testing.T) {
	a1 := &fakeAuthority{results: []fakeResult{{ok: false}}}

	c := newController(t, func(ctx context.Context, zone string) ([]authority, error) {
		return []authority{a1}, nil
	})

	err := c.Wait(context.Background(), "example.com.", "expected-value")
	require.Error(t, err)
	assert.ErrorIs(t, err, apierr.New(apierr.AcmeTimeout, ""))
	assert.Equal(t, MaxRetries, a1.calls)
}

func TestWaitReturnsResolveErrorWhenNoAuthoritiesFound(t *testing.T) {
	c := newController(t, func(ctx context.Context, zone string) ([]authority, error) {
		return nil, nil
	})

	err := c.Wait(context.Background(), "example.com.", "expected-value")
	require.Error(t, err)
	assert.ErrorIs(t, err, apierr.New(apierr.Resolve, ""))
}

func TestWaitPropagatesDiscoveryError(t *testing.T) {
	discoverErr := apierr.New(apierr.Resolve, "NS lookup failed")
	c := newController(t, func(ctx context.Context, zone string) ([]authority, error) {
		return nil, discoverErr
	})

	err := c.Wait(context.Background(), "example.com.", "expected-value")
	require.ErrorIs(t, err, discoverErr)
}

func TestWaitAbortsOnContextCancellation(t *testing.T) {
	a1 := &fakeAuthority{results: []fakeResult{{ok: false}}}
	c := newController(t, func(ctx context.Context, zone string) ([]authority, error) {
		return []authority{a1}, nil
	})
	c.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Wait(ctx, "example.com.", "expected-value")
	require.Error(t, err)
}
