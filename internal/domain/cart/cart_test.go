package cart

import (
	"testing"

	"github.com/farmtohome/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCart(t *testing.T) *Cart {
	t.Helper()
	c, err := NewCart(uuid.New())
	require.NoError(t, err)
	return c
}

func TestNewCart(t *testing.T) {
	c := newTestCart(t)
	assert.True(t, c.IsEmpty())
	assert.Equal(t, 0, c.TotalQuantity())

	_, err := NewCart(uuid.Nil)
	assert.Error(t, err)
}

func TestCart_AddItem(t *testing.T) {
	c := newTestCart(t)
	productID := uuid.New()

	require.NoError(t, c.AddItem(productID, "Tomatoes", valueobject.RupeesFromString("40"), 2))
	require.Len(t, c.Items, 1)
	assert.Equal(t, c.ID, c.Items[0].CartID)
	assert.Equal(t, 2, c.Items[0].Quantity)

	// Same product merges and refreshes the price snapshot
	require.NoError(t, c.AddItem(productID, "Tomatoes", valueobject.RupeesFromString("45"), 3))
	require.Len(t, c.Items, 1)
	assert.Equal(t, 5, c.Items[0].Quantity)
	assert.True(t, c.Items[0].UnitPrice.Equals(valueobject.RupeesFromString("45")))

	require.NoError(t, c.AddItem(uuid.New(), "Spinach", valueobject.RupeesFromString("30"), 1))
	assert.Len(t, c.Items, 2)
	assert.Equal(t, 6, c.TotalQuantity())
}

func TestCart_AddItem_Validation(t *testing.T) {
	c := newTestCart(t)

	assert.Error(t, c.AddItem(uuid.Nil, "Tomatoes", valueobject.RupeesFromString("40"), 1))
	assert.Error(t, c.AddItem(uuid.New(), "Tomatoes", valueobject.RupeesFromString("40"), 0))
	assert.Error(t, c.AddItem(uuid.New(), "Tomatoes", valueobject.RupeesFromString("40"), -2))
}

func TestCart_UpdateItemQuantity(t *testing.T) {
	c := newTestCart(t)
	productID := uuid.New()
	require.NoError(t, c.AddItem(productID, "Tomatoes", valueobject.RupeesFromString("40"), 2))

	require.NoError(t, c.UpdateItemQuantity(productID, 7))
	assert.Equal(t, 7, c.FindItem(productID).Quantity)

	// Zero removes the line
	require.NoError(t, c.UpdateItemQuantity(productID, 0))
	assert.True(t, c.IsEmpty())

	assert.Error(t, c.UpdateItemQuantity(uuid.New(), 1))
}

func TestCart_RemoveItemAndClear(t *testing.T) {
	c := newTestCart(t)
	first := uuid.New()
	require.NoError(t, c.AddItem(first, "Tomatoes", valueobject.RupeesFromString("40"), 2))
	require.NoError(t, c.AddItem(uuid.New(), "Spinach", valueobject.RupeesFromString("30"), 1))

	require.NoError(t, c.RemoveItem(first))
	assert.Len(t, c.Items, 1)
	assert.Nil(t, c.FindItem(first))

	c.Clear()
	assert.True(t, c.IsEmpty())
}

func TestCart_DisplaySubtotal(t *testing.T) {
	c := newTestCart(t)
	require.NoError(t, c.AddItem(uuid.New(), "Tomatoes", valueobject.RupeesFromString("40"), 5))
	require.NoError(t, c.AddItem(uuid.New(), "Paneer", valueobject.RupeesFromString("25"), 2))

	subtotal, err := c.DisplaySubtotal()
	require.NoError(t, err)
	assert.True(t, subtotal.Equals(valueobject.RupeesFromString("250")))
}
