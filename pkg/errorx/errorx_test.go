package errorx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

type statusErr struct{ code int }

func (e statusErr) Error() string   { return fmt.Sprintf("status %d", e.code) }
func (e statusErr) StatusCode() int { return e.code }

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindTerminal},
		{"plain error", errors.New("boom"), KindTerminal},
		{"typed retryable", New(KindRetryable, "rotate", "slow down"), KindRetryable},
		{"typed local", Local("save image", errors.New("disk full"), ""), KindLocal},
		{"wrapped typed", fmt.Errorf("call: %w", New(KindRetryable, "inpaint", "x")), KindRetryable},
		{"status carrier 429", statusErr{http.StatusTooManyRequests}, KindRetryable},
		{"status carrier 500", statusErr{http.StatusInternalServerError}, KindTerminal},
		{"message fallback", errors.New("Please wait longer between generations"), KindRetryable},
		{"message rate limit", errors.New("Rate limit exceeded"), KindRetryable},
		{"typed terminal wins over message", New(KindTerminal, "x", "rate limit"), KindTerminal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestFromStatus(t *testing.T) {
	t.Run("429 is retryable", func(t *testing.T) {
		e := FromStatus("generate", http.StatusTooManyRequests, "")
		assert.Equal(t, KindRetryable, e.Kind)
		assert.Equal(t, http.StatusTooManyRequests, e.StatusCode)
		assert.NotEmpty(t, e.Message)
	})

	t.Run("401 is terminal with default message", func(t *testing.T) {
		e := FromStatus("balance", http.StatusUnauthorized, "")
		assert.Equal(t, KindTerminal, e.Kind)
		assert.Contains(t, e.Message, "authentication")
	})

	t.Run("422 keeps detail verbatim", func(t *testing.T) {
		e := FromStatus("rotate", http.StatusUnprocessableEntity, "image_size too large")
		assert.Equal(t, KindTerminal, e.Kind)
		assert.Equal(t, "image_size too large", e.Error())
	})

	t.Run("rate limit prose on other status is retryable", func(t *testing.T) {
		e := FromStatus("generate", http.StatusBadRequest, "You need to wait longer between generations")
		assert.Equal(t, KindRetryable, e.Kind)
	})
}

func TestErrorIs(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(KindRetryable, "rotate", "slow"))
	assert.True(t, errors.Is(err, &Error{Kind: KindRetryable}))
	assert.False(t, errors.Is(err, &Error{Kind: KindTerminal}))
}

func TestWrap(t *testing.T) {
	cause := errors.New("no such file")
	e := Wrap(KindLocal, "read image", cause, "read input image")
	assert.Equal(t, "read input image: no such file", e.Error())
	assert.ErrorIs(t, e, cause)
	assert.Nil(t, Wrap(KindLocal, "x", nil, "msg"))
}
