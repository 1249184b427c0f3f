package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractModel(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		brand        string
		productType  string
		baseCategory string
		expected     string
	}{
		{
			name:         "single word model",
			text:         "COLCHON ROSEN REST",
			brand:        "ROSEN",
			productType:  "COLCHON",
			baseCategory: "COLCHON",
			expected:     "REST",
		},
		{
			name:         "two word model",
			text:         "COLCHON ROSEN ROYAL CROWN",
			brand:        "ROSEN",
			productType:  "COLCHON",
			baseCategory: "COLCHON",
			expected:     "ROYAL CROWN",
		},
		{
			name:         "model capped at three words",
			text:         "COLCHON ROSEN POCKET STAR PREMIUM DELUXE",
			brand:        "ROSEN",
			productType:  "COLCHON",
			baseCategory: "COLCHON",
			expected:     "POCKET STAR PREMIUM",
		},
		{
			name:         "color ends the model",
			text:         "SOFA ROSEN MILANO GRIS OSCURO",
			brand:        "ROSEN",
			productType:  "SOFA",
			baseCategory: "SOFA",
			expected:     "MILANO",
		},
		{
			name:         "leading color is skipped",
			text:         "SOFA ROSEN GRIS MILANO",
			brand:        "ROSEN",
			productType:  "SOFA",
			baseCategory: "SOFA",
			expected:     "MILANO",
		},
		{
			name:         "type and category words removed separately",
			text:         "DORMITORIO AMERICANO RIZZOLI VESUBIO",
			brand:        "RIZZOLI",
			productType:  "DORMITORIO AMERICANO",
			baseCategory: "BOX TARIMA",
			expected:     "VESUBIO",
		},
		{
			name:         "accented brand word filtered even when not removed",
			text:         "CAMA DIVAN FORLÍ PRATO",
			brand:        "FORLI",
			productType:  "CAMA DIVAN",
			baseCategory: "DIVAN",
			expected:     "PRATO",
		},
		{
			name:         "digits and short words ignored",
			text:         "COLCHON ROSEN 140 X BALTICO",
			brand:        "ROSEN",
			productType:  "COLCHON",
			baseCategory: "COLCHON",
			expected:     "BALTICO",
		},
		{
			name:         "nothing meaningful left",
			text:         "COLCHON ROSEN",
			brand:        "ROSEN",
			productType:  "COLCHON",
			baseCategory: "COLCHON",
			expected:     "",
		},
		{
			name:         "no brand known",
			text:         "VELADOR NUVOLA",
			brand:        "",
			productType:  "VELADOR",
			baseCategory: "VELADOR",
			expected:     "NUVOLA",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractModel(tt.text, tt.brand, tt.productType, tt.baseCategory)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExtractColor(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		brand     string
		baseModel string
		expected  string
	}{
		{
			name:      "single color",
			text:      "SOFA ROSEN MILANO GRIS",
			brand:     "ROSEN",
			baseModel: "MILANO",
			expected:  "GRIS",
		},
		{
			name:      "two word color",
			text:      "SOFA ROSEN MILANO GRIS PLATA",
			brand:     "ROSEN",
			baseModel: "MILANO",
			expected:  "GRIS PLATA",
		},
		{
			name:      "capped at two words",
			text:      "SOFA ROSEN MILANO ISSEY GRAFITO NIEBLA",
			brand:     "ROSEN",
			baseModel: "MILANO",
			expected:  "ISSEY GRAFITO",
		},
		{
			name:      "no color left",
			text:      "COLCHON ROSEN REST",
			brand:     "ROSEN",
			baseModel: "REST",
			expected:  "",
		},
		{
			name:      "stop words never become colors",
			text:      "CAMA CON CAJONES ROSEN CONCEPT",
			brand:     "ROSEN",
			baseModel: "CONCEPT",
			expected:  "",
		},
		{
			name:      "accented brand leftovers filtered",
			text:      "CAMA EUROPEA PARAÍSO ROMA BEIGE",
			brand:     "PARAISO",
			baseModel: "ROMA",
			expected:  "BEIGE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := extractColor(tt.text, tt.brand, tt.baseModel)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestIsLikelyColor(t *testing.T) {
	assert.True(t, isLikelyColor("GRIS"))
	assert.True(t, isLikelyColor("MARRÓN"), "accented spelling should match")
	assert.True(t, isLikelyColor("ISSEY"), "brand fabric names count as colors")
	assert.False(t, isLikelyColor("MILANO"))
	assert.False(t, isLikelyColor(""))
}

func TestRemoveTerm(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		term     string
		expected string
	}{
		{"middle of text", "COLCHON ROSEN REST", "ROSEN", "COLCHON  REST"},
		{"start of text", "ROSEN REST", "ROSEN", " REST"},
		{"end of text", "COLCHON ROSEN", "ROSEN", "COLCHON "},
		{"no partial word removal", "PRESTIGE REST", "REST", "PRESTIGE "},
		{"accented term at word end", "VELADOR BAMBÚ GRIS", "BAMBÚ", "VELADOR  GRIS"},
		{"consecutive occurrences", "CON X CON Y", "CON", " X  Y"},
		{"term absent", "COLCHON ROSEN", "SERTA", "COLCHON ROSEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, removeTerm(tt.text, tt.term))
		})
	}
}
