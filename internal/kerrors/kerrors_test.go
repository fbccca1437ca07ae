package kerrors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrappingPreservesSentinel(t *testing.T) {
	wrapped := Lookup("prepare_export_item", "home", ErrNotFound)
	assert.True(t, IsNotFound(wrapped))
	assert.Equal(t, KindLookup, KindOf(wrapped))
	assert.Contains(t, wrapped.Error(), "home")
}

func TestRemoteDoesNotCarryItemContext(t *testing.T) {
	wrapped := Remote("load_environment_data", errors.New("boom"))
	assert.Equal(t, KindRemote, KindOf(wrapped))
	assert.Equal(t, "load_environment_data: boom", wrapped.Error())
}

func TestTransformIncludesElement(t *testing.T) {
	wrapped := Transform("elements.Export", "home", "hero_image", errors.New("unresolved"))
	assert.Contains(t, wrapped.Error(), "hero_image")
	assert.Contains(t, wrapped.Error(), "home")
	assert.Equal(t, KindTransform, KindOf(wrapped))
}

func TestSentinelClassifiers(t *testing.T) {
	assert.True(t, IsRateLimited(Remote("x", ErrRateLimited)))
	assert.True(t, IsTransient(Remote("x", ErrTransient)))
	assert.True(t, IsBadPublish(Remote("x", ErrBadPublish)))
	assert.False(t, IsBadPublish(Remote("x", errors.New("other"))))
}

func TestKindOfUnclassifiedError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}
