package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignite/shopify-repricer/internal/domain"
)

func TestExtractVariantRefs(t *testing.T) {
	t.Run("inventory level update", func(t *testing.T) {
		refs, err := extractVariantRefs(domain.InventoryChangeEvent{
			Topic:   domain.TopicInventoryLevelUpdate,
			Payload: []byte(`{"inventory_item_id":42,"available":8,"updated_at":"2026-03-01T10:00:00Z"}`),
		})
		require.NoError(t, err)
		require.Len(t, refs, 1)
		assert.Equal(t, "42", refs[0].InventoryItemID)
		assert.Empty(t, refs[0].VariantID)
		assert.Equal(t, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), refs[0].UpdatedAt)
	})

	t.Run("inventory item update", func(t *testing.T) {
		refs, err := extractVariantRefs(domain.InventoryChangeEvent{
			Topic:   domain.TopicInventoryItemUpdate,
			Payload: []byte(`{"id":77}`),
		})
		require.NoError(t, err)
		require.Len(t, refs, 1)
		assert.Equal(t, "77", refs[0].InventoryItemID)
		assert.True(t, refs[0].UpdatedAt.IsZero())
	})

	t.Run("product update yields every variant", func(t *testing.T) {
		refs, err := extractVariantRefs(domain.InventoryChangeEvent{
			Topic:   domain.TopicProductUpdate,
			Payload: []byte(`{"id":1,"variants":[{"id":11},{"id":12}]}`),
		})
		require.NoError(t, err)
		require.Len(t, refs, 2)
		assert.Equal(t, "11", refs[0].VariantID)
		assert.Equal(t, "12", refs[1].VariantID)
	})

	t.Run("unsupported topic", func(t *testing.T) {
		_, err := extractVariantRefs(domain.InventoryChangeEvent{
			Topic:   domain.WebhookTopic("orders/create"),
			Payload: []byte(`{}`),
		})
		assert.ErrorIs(t, err, ErrUnsupportedTopic)
	})

	t.Run("unusable payload", func(t *testing.T) {
		_, err := extractVariantRefs(domain.InventoryChangeEvent{
			Topic:   domain.TopicInventoryLevelUpdate,
			Payload: []byte(`{"available":8}`),
		})
		assert.ErrorIs(t, err, ErrNoVariant)

		_, err = extractVariantRefs(domain.InventoryChangeEvent{
			Topic:   domain.TopicProductUpdate,
			Payload: []byte(`not json`),
		})
		assert.ErrorIs(t, err, ErrNoVariant)
	})

	t.Run("malformed timestamp is tolerated", func(t *testing.T) {
		refs, err := extractVariantRefs(domain.InventoryChangeEvent{
			Topic:   domain.TopicInventoryLevelUpdate,
			Payload: []byte(`{"inventory_item_id":42,"updated_at":"yesterday"}`),
		})
		require.NoError(t, err)
		assert.True(t, refs[0].UpdatedAt.IsZero())
	})
}
