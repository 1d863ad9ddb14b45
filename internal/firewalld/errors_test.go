package firewalld

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIsMatchesByKind(t *testing.T) {
	e1 := wrapError(KindInvalidRange, "port 70000 out of range", nil)
	e2 := newError(KindInvalidRange, "from > to")

	assert.True(t, errors.Is(e1, ErrInvalidRange))
	assert.True(t, errors.Is(e2, ErrInvalidRange))
	assert.False(t, errors.Is(e1, ErrInvalidPrefix))
}

func TestErrorUnwrapExposesCause(t *testing.T) {
	cause := fmt.Errorf("boom")
	wrapped := wrapError(KindExternalFailure, "firewall-cmd failed", cause)

	assert.Equal(t, cause, errors.Unwrap(wrapped))
	assert.ErrorIs(t, wrapped, cause)
}

func TestErrorStringIncludesKindAndMessage(t *testing.T) {
	e := newError(KindNotFound, "service ssh-3 absent")
	assert.Contains(t, e.Error(), "NotFound")
	assert.Contains(t, e.Error(), "service ssh-3 absent")
}

func TestKindStringCoversEveryValue(t *testing.T) {
	kinds := []Kind{
		KindInvalidArgument, KindInvalidRange, KindInvalidPrefix, KindInvalidFormat,
		KindNotFound, KindConflict, KindExternalFailure, KindAssertion,
	}
	seen := map[string]bool{}
	for _, k := range kinds {
		s := k.String()
		assert.NotEqual(t, "Unknown", s)
		assert.False(t, seen[s], "duplicate Kind string %q", s)
		seen[s] = true
	}
}
