package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	base := errors.New("boom")

	assert.Equal(t, KindStore, KindOf(NewError(KindStore, "insert event", base)))
	assert.Equal(t, KindMatch, KindOf(fmt.Errorf("outer: %w", NewError(KindMatch, "upsert", base))))
	assert.Equal(t, KindUnknown, KindOf(base))
	assert.Equal(t, KindUnknown, KindOf(nil))
}

func TestError_Unwrap(t *testing.T) {
	err := NewError(KindStore, "insert event", fmt.Errorf("%w: us2020abcd", ErrDuplicateEvent))
	assert.ErrorIs(t, err, ErrDuplicateEvent)
	assert.Equal(t, "store error: insert event: event already recorded: us2020abcd", err.Error())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "validation", KindValidation.String())
	assert.Equal(t, "configuration", KindConfiguration.String())
	assert.Equal(t, "connection", KindConnection.String())
	assert.Equal(t, "unknown", Kind(99).String())
}
