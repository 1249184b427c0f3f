package domain

import (
	"encoding/json/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(f float64) *float64 { return &f }

func TestProductRecord_HasAllPrices(t *testing.T) {
	tests := []struct {
		name     string
		record   ProductRecord
		expected bool
	}{
		{
			name: "all three tiers present",
			record: ProductRecord{
				NormalPrice:   floatPtr(3799.0),
				InternetPrice: floatPtr(1499.0),
				RipleyPrice:   floatPtr(1299.0),
			},
			expected: true,
		},
		{
			name: "missing card price",
			record: ProductRecord{
				NormalPrice:   floatPtr(3799.0),
				InternetPrice: floatPtr(1499.0),
			},
			expected: false,
		},
		{
			name:     "no prices at all",
			record:   ProductRecord{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.record.HasAllPrices())
		})
	}
}

func TestAttributedProduct_ConfidenceBands(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		successful bool
		partial    bool
	}{
		{"full confidence", 1.0, true, false},
		{"at successful boundary", 0.9, true, false},
		{"just below successful", 0.85, false, true},
		{"at partial boundary", 0.5, false, true},
		{"below partial", 0.45, false, false},
		{"zero", 0.0, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := AttributedProduct{Confidence: tt.confidence}
			assert.Equal(t, tt.successful, p.IsSuccessful())
			assert.Equal(t, tt.partial, p.IsPartial())
		})
	}
}

func TestVariantAttributes_JSONShape(t *testing.T) {
	// Absent size and color must serialize as explicit nulls while
	// empty accessory and feature lists stay arrays.
	attrs := VariantAttributes{
		Accessories: []string{},
		Features:    []string{},
	}

	data, err := json.Marshal(attrs)
	require.NoError(t, err)

	assert.JSONEq(t, `{"size":null,"color":null,"accessories":[],"features":[]}`, string(data))
}

func TestPriceRange_IsEmpty(t *testing.T) {
	empty := PriceRange{}
	assert.True(t, empty.IsEmpty())

	withNormal := PriceRange{MinNormalPrice: floatPtr(899.0)}
	assert.False(t, withNormal.IsEmpty())

	data, err := json.Marshal(empty)
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data), "empty range should omit every tier")
}
