package storefront

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindMatchingCartLine_Priority(t *testing.T) {
	now := time.Now()
	byID := NewSelection("sel-1", "other", "", []ChosenAddon{{AddonID: "a", Name: "Engraving", Price: dec("4")}}, now)
	byVariant := NewSelection("sel-2", "1", "101", []ChosenAddon{{AddonID: "b", Name: "Gift Wrap", Price: dec("5")}}, now)
	byProduct := NewSelection("sel-3", "1", "", []ChosenAddon{{AddonID: "c", Name: "Card", Price: dec("2")}}, now)
	byHandle := NewSelection("sel-4", "blue-mug", "", []ChosenAddon{{AddonID: "d", Name: "Box", Price: dec("1")}}, now)
	all := []*Selection{byProduct, byVariant, byID, byHandle}

	tests := []struct {
		name   string
		line   CartLine
		want   *Selection
		method MatchMethod
	}{
		{
			name: "selection id property wins",
			line: CartLine{ProductID: "1", VariantID: "101", Properties: map[string]string{PropertySelectionID: "sel-1"}},
			want: byID, method: MatchSelectionID,
		},
		{
			name: "variant before product",
			line: CartLine{ProductID: "1", VariantID: "101"},
			want: byVariant, method: MatchVariant,
		},
		{
			name: "product when variant differs",
			line: CartLine{ProductID: "1", VariantID: "102"},
			want: byProduct, method: MatchProduct,
		},
		{
			name: "handle recorded as product id",
			line: CartLine{ProductID: "77", VariantID: "770", Handle: "blue-mug"},
			want: byHandle, method: MatchProduct,
		},
		{
			name: "unknown selection id falls through",
			line: CartLine{ProductID: "77", Handle: "blue-mug", Properties: map[string]string{PropertySelectionID: "gone"}},
			want: byHandle, method: MatchProduct,
		},
		{
			name: "nothing in common",
			line: CartLine{ProductID: "55", VariantID: "550", Title: "Teapot"},
			want: nil, method: MatchNone,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, method, err := FindMatchingCartLine(tt.line, all)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.method, method)
		})
	}
}

func TestFindMatchingCartLine_Fuzzy(t *testing.T) {
	now := time.Now()
	sel := NewSelection("sel-1", "mug-handle", "", []ChosenAddon{
		{AddonID: "a", Name: "Gift Wrap", Price: dec("5.00")},
		{AddonID: "b", Name: "Size", Value: "Large", Price: dec("2.50")},
	}, now)
	// tokens: gift wrap, 5.00, size, large, 2.50

	t.Run("above threshold", func(t *testing.T) {
		line := CartLine{ProductID: "1", Title: "Mug - Large", Properties: map[string]string{"_addons": "Gift Wrap (+5.00), Size: Large (+2.50)"}}
		got, method, err := FindMatchingCartLine(line, []*Selection{sel})
		require.NoError(t, err)
		assert.Equal(t, sel, got)
		assert.Equal(t, MatchFuzzy, method)
	})

	t.Run("case insensitive, 4 of 5 tokens", func(t *testing.T) {
		line := CartLine{ProductID: "1", Title: "MUG - LARGE with GIFT WRAP size 5.00"}
		got, _, err := FindMatchingCartLine(line, []*Selection{sel})
		require.NoError(t, err)
		assert.Equal(t, sel, got)
	})

	t.Run("below threshold", func(t *testing.T) {
		line := CartLine{ProductID: "1", Title: "Mug - Large gift wrap"}
		got, method, err := FindMatchingCartLine(line, []*Selection{sel})
		require.NoError(t, err)
		assert.Nil(t, got)
		assert.Equal(t, MatchNone, method)
	})

	t.Run("tie is ambiguous", func(t *testing.T) {
		twin := NewSelection("sel-2", "other-handle", "", []ChosenAddon{
			{AddonID: "a", Name: "Gift Wrap", Price: dec("5.00")},
		}, now)
		solo := NewSelection("sel-3", "third-handle", "", []ChosenAddon{
			{AddonID: "a", Name: "Gift Wrap", Price: dec("5.00")},
		}, now)
		line := CartLine{ProductID: "1", Title: "Mug", Properties: map[string]string{"_addons": "Gift Wrap (+5.00)"}}
		got, _, err := FindMatchingCartLine(line, []*Selection{twin, solo})
		assert.ErrorIs(t, err, ErrMatchAmbiguous)
		assert.Nil(t, got)
	})

	t.Run("best ratio wins", func(t *testing.T) {
		partial := NewSelection("sel-2", "other-handle", "", []ChosenAddon{
			{AddonID: "a", Name: "Gift Wrap", Price: dec("5.00")},
			{AddonID: "b", Name: "Card", Price: dec("1.00")},
			{AddonID: "c", Name: "Ribbon", Price: dec("0.50")},
		}, now)
		exact := NewSelection("sel-3", "third-handle", "", []ChosenAddon{
			{AddonID: "a", Name: "Gift Wrap", Price: dec("5.00")},
		}, now)
		line := CartLine{ProductID: "1", Title: "Mug gift wrap 5.00 card 1.00 ribbon"}
		got, _, err := FindMatchingCartLine(line, []*Selection{partial, exact})
		require.NoError(t, err)
		assert.Equal(t, exact, got)
	})

	t.Run("selection without add-ons never fuzzy matches", func(t *testing.T) {
		empty := NewSelection("sel-4", "x", "", nil, now)
		got, _, err := FindMatchingCartLine(CartLine{ProductID: "1", Title: "anything"}, []*Selection{empty})
		require.NoError(t, err)
		assert.Nil(t, got)
	})
}
