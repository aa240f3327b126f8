package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVariantKey(t *testing.T) {
	assert.Equal(t, "blue-large-matte", VariantKey([]string{"matte", "large", "blue"}))
	assert.Equal(t, VariantKey([]string{"b", "a"}), VariantKey([]string{"a", "b"}))
	assert.Equal(t, "a", VariantKey([]string{" ", "a", ""}))
	assert.Equal(t, "", VariantKey(nil))
}

func TestItemKey(t *testing.T) {
	assert.Equal(t, "a-b", Item{ProductID: "p", OptionIDs: []string{"b", "a"}}.Key())
	assert.Equal(t, "p", Item{ProductID: "p"}.Key())
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()

	_, ok := c.Get("x")
	assert.False(t, ok)

	c.Set("x", 1500)
	c.Set("x", 1600)

	p, ok := c.Get("x")
	require.True(t, ok)
	assert.Equal(t, int64(1600), p)
	assert.Equal(t, 1, c.Len())
}

func TestParseItems(t *testing.T) {
	items, err := ParseItems([]byte(`
items:
  - product_id: poster
    option_ids: [size-a3, paper-matte]
  - product_id: mug
`))
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "paper-matte-size-a3", items[0].Key())
	assert.Equal(t, "mug", items[1].Key())

	_, err = ParseItems([]byte("items:\n  - option_ids: []\n"))
	assert.Error(t, err)
}
