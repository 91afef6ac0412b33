package inventory

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	tests := []struct {
		name  string
		items []string
		want  int
	}{
		{"empty", nil, 0},
		{"book and key", []string{"古籍", "符文钥匙"}, 300},
		{"unknown item contributes nothing", []string{"古籍", "石头"}, 100},
		{"duplicates count once", []string{"金币", "金币"}, 500},
		{"scroll without image still scores", []string{"远古卷轴"}, 1500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := New(tt.items...)
			if got := inv.Score(); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScore_MatchesPointsOfHeldItems(t *testing.T) {
	inv := New()
	expected := 0
	for item := range itemPoints {
		inv.Add(item)
		expected += Points(item)
		require.Equal(t, expected, inv.Score())
	}
}

func TestAdd_IdempotentAndMonotonic(t *testing.T) {
	inv := New()
	assert.True(t, inv.Add("古籍"))
	assert.False(t, inv.Add("古籍"), "re-adding is a no-op")
	assert.True(t, inv.Add("符文钥匙"))

	seen := inv.Items()
	for _, item := range []string{"通行证", "古籍", "金币"} {
		before := inv.Len()
		inv.Add(item)
		assert.GreaterOrEqual(t, inv.Len(), before)
		for _, held := range seen {
			assert.True(t, inv.Has(held), "previously held %s was lost", held)
		}
		seen = inv.Items()
	}
	assert.Equal(t, []string{"古籍", "符文钥匙", "通行证", "金币"}, inv.Items())
}

func TestItems_ReturnsCopy(t *testing.T) {
	inv := New("古籍")
	items := inv.Items()
	items[0] = "changed"
	assert.True(t, inv.Has("古籍"))
	assert.Equal(t, []string{"古籍"}, inv.Items())
}

func TestImage(t *testing.T) {
	assert.Equal(t, "book.png", Image("古籍"))
	assert.Equal(t, "artifact.png", Image("神秘法器"))
	assert.Equal(t, FallbackImage, Image("远古卷轴"))
	assert.Equal(t, FallbackImage, Image("nothing"))
}

func TestNilInventory(t *testing.T) {
	var inv *Inventory
	assert.False(t, inv.Has("古籍"))
	assert.Equal(t, 0, inv.Len())
	assert.Equal(t, 0, inv.Score())
	assert.Empty(t, inv.Items())
}

func TestJSON(t *testing.T) {
	inv := New("古籍", "符文钥匙")
	data, err := json.Marshal(inv)
	require.NoError(t, err)
	assert.JSONEq(t, `["古籍","符文钥匙"]`, string(data))

	var decoded Inventory
	require.NoError(t, json.Unmarshal([]byte(`["金币","金币","宝石"]`), &decoded))
	assert.Equal(t, []string{"金币", "宝石"}, decoded.Items())
}

func TestJSON_EmptyIsArray(t *testing.T) {
	data, err := json.Marshal(New())
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))

	var decoded Inventory
	require.NoError(t, json.Unmarshal([]byte(`[]`), &decoded))
	assert.NotNil(t, decoded.Items())
	assert.Empty(t, decoded.Items())
}
