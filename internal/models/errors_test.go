package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	t.Run("classifies domain errors", func(t *testing.T) {
		assert.Equal(t, KindNotFound, KindOf(NotFoundf("album %d not found", 7)))
		assert.Equal(t, KindInvalidArgument, KindOf(InvalidArgumentf("bad sort")))
		assert.Equal(t, KindIOFailure, KindOf(IOFailure("write file", errors.New("disk full"))))
		assert.Equal(t, KindInternal, KindOf(Internal("query", errors.New("boom"))))
	})

	t.Run("unclassified errors fall back to internal", func(t *testing.T) {
		assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	})

	t.Run("sees through wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("context: %w", NotFoundf("photo gone"))
		assert.Equal(t, KindNotFound, KindOf(wrapped))
	})
}

func TestError_Error(t *testing.T) {
	t.Run("includes the cause when present", func(t *testing.T) {
		err := IOFailure("copy file", errors.New("permission denied"))
		assert.Equal(t, "copy file: permission denied", err.Error())
	})

	t.Run("message only without a cause", func(t *testing.T) {
		err := InvalidArgumentf("unknown sort criteria %q", "bySize")
		assert.Equal(t, `unknown sort criteria "bySize"`, err.Error())
	})
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Internal("operation failed", cause)
	assert.ErrorIs(t, err, cause)
}
