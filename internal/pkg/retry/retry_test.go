package retry

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kiosk404/pixelmind/pkg/errorx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(maxRetries uint) Policy {
	return Policy{MaxRetries: maxRetries, BaseDelay: time.Millisecond, Multiplier: 2}
}

func rateLimited() error {
	return errorx.New(errorx.KindRetryable, "generate", "wait longer between generations")
}

func TestDo(t *testing.T) {
	t.Run("returns first success without retrying", func(t *testing.T) {
		var calls int
		v, err := Do(context.Background(), fastPolicy(3), func(context.Context) (string, error) {
			calls++
			return "ok", nil
		})
		require.NoError(t, err)
		assert.Equal(t, "ok", v)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries k times then succeeds", func(t *testing.T) {
		for _, k := range []int{1, 2, 3} {
			var calls int
			v, err := Do(context.Background(), fastPolicy(3), func(context.Context) (int, error) {
				calls++
				if calls <= k {
					return 0, rateLimited()
				}
				return 42, nil
			})
			require.NoError(t, err)
			assert.Equal(t, 42, v)
			assert.Equal(t, k+1, calls)
		}
	})

	t.Run("exhausts retries and returns last error unchanged", func(t *testing.T) {
		var (
			calls int
			errs  []error
		)
		_, err := Do(context.Background(), fastPolicy(2), func(context.Context) (int, error) {
			calls++
			e := rateLimited()
			errs = append(errs, e)
			return 0, e
		})
		require.Error(t, err)
		assert.Equal(t, 3, calls)
		assert.Same(t, errs[len(errs)-1], err)
	})

	t.Run("terminal error is not retried", func(t *testing.T) {
		terminal := errors.New("invalid api key")
		var calls int
		_, err := Do(context.Background(), fastPolicy(5), func(context.Context) (int, error) {
			calls++
			return 0, terminal
		})
		assert.Same(t, terminal, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("local error is not retried", func(t *testing.T) {
		local := errorx.Local("save image", errors.New("read-only fs"), "")
		var calls int
		_, err := Do(context.Background(), fastPolicy(5), func(context.Context) (int, error) {
			calls++
			return 0, local
		})
		assert.Same(t, local, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("zero retries means exactly one attempt", func(t *testing.T) {
		var calls int
		_, err := Do(context.Background(), fastPolicy(0), func(context.Context) (int, error) {
			calls++
			return 0, rateLimited()
		})
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("notify reports growing delays", func(t *testing.T) {
		p := fastPolicy(3)
		var delays []time.Duration
		var attempts []uint
		p.Notify = func(_ error, attempt uint, next time.Duration) {
			attempts = append(attempts, attempt)
			delays = append(delays, next)
		}
		_, _ = Do(context.Background(), p, func(context.Context) (int, error) {
			return 0, rateLimited()
		})
		assert.Equal(t, []uint{0, 1, 2}, attempts)
		assert.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond}, delays)
	})

	t.Run("context cancellation stops waiting", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		p := Policy{MaxRetries: 5, BaseDelay: time.Hour, Multiplier: 2}
		var calls int32
		done := make(chan error, 1)
		go func() {
			_, err := Do(ctx, p, func(context.Context) (int, error) {
				atomic.AddInt32(&calls, 1)
				return 0, rateLimited()
			})
			done <- err
		}()
		require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, time.Millisecond)
		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Fatal("Do did not return after cancel")
		}
	})

	t.Run("concurrent calls are independent", func(t *testing.T) {
		p := fastPolicy(1)
		errc := make(chan error, 2)
		go func() {
			_, err := Do(context.Background(), p, func(context.Context) (int, error) { return 1, nil })
			errc <- err
		}()
		go func() {
			_, err := Do(context.Background(), p, func(context.Context) (int, error) { return 0, rateLimited() })
			errc <- err
		}()
		var failed int
		for range 2 {
			if err := <-errc; err != nil {
				failed++
			}
		}
		assert.Equal(t, 1, failed)
	})
}

func TestPolicy(t *testing.T) {
	t.Run("delay grows monotonically", func(t *testing.T) {
		p := Policy{BaseDelay: 100 * time.Millisecond, Multiplier: 1.5}
		prev := time.Duration(0)
		for n := uint(0); n < 6; n++ {
			d := p.Delay(n)
			assert.Greater(t, d, prev)
			prev = d
		}
		assert.Equal(t, 100*time.Millisecond, p.Delay(0))
		assert.Equal(t, 150*time.Millisecond, p.Delay(1))
	})

	t.Run("delay respects cap", func(t *testing.T) {
		p := Policy{BaseDelay: time.Second, Multiplier: 2, MaxDelay: 3 * time.Second}
		assert.Equal(t, 3*time.Second, p.Delay(5))
	})

	t.Run("validate", func(t *testing.T) {
		assert.NoError(t, DefaultPolicy().Validate())
		assert.Error(t, Policy{BaseDelay: 0, Multiplier: 2}.Validate())
		assert.Error(t, Policy{BaseDelay: time.Second, Multiplier: 3}.Validate())
		assert.Error(t, Policy{BaseDelay: time.Second, Multiplier: 1.2}.Validate())
	})
}
