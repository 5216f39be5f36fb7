package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sanad/internal/core/domain"
)

func TestEvictionOrder_UploadOrder(t *testing.T) {
	order, err := newEvictionOrder(3)
	require.NoError(t, err)

	order.track("a")
	order.track("b")
	order.track("c")

	id, reason, ok := order.victim()
	require.True(t, ok)
	assert.Equal(t, "a", id)
	assert.Equal(t, domain.EvictionUploadOrder, reason)
	assert.Equal(t, 3, order.len())
}

func TestEvictionOrder_HitRefreshesRecency(t *testing.T) {
	order, err := newEvictionOrder(3)
	require.NoError(t, err)

	order.track("a")
	order.track("b")
	order.hit("a")

	id, reason, ok := order.victim()
	require.True(t, ok)
	assert.Equal(t, "b", id, "a was hit after b was uploaded")
	assert.Equal(t, domain.EvictionUploadOrder, reason)

	order.forget("b")
	id, reason, ok = order.victim()
	require.True(t, ok)
	assert.Equal(t, "a", id)
	assert.Equal(t, domain.EvictionLeastRecentlyUsed, reason)
}

func TestEvictionOrder_HitUnknownIgnored(t *testing.T) {
	order, err := newEvictionOrder(2)
	require.NoError(t, err)

	order.hit("ghost")

	assert.Equal(t, 0, order.len())
	_, _, ok := order.victim()
	assert.False(t, ok)
}

func TestEvictionOrder_SpareSlot(t *testing.T) {
	order, err := newEvictionOrder(1)
	require.NoError(t, err)

	order.track("a")
	order.track("b")

	assert.Equal(t, 2, order.len(), "the caller evicts, not the order")
}

func TestEvictionOrder_InvalidSize(t *testing.T) {
	_, err := newEvictionOrder(-1)
	assert.Error(t, err)
}
