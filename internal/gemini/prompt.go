package gemini

import (
	"encoding/json/jsontext"
	"encoding/json/v2"
	"fmt"
)

// extractionPrompt instructs the model to classify product titles into
// the attribute schema. The response MIME type is pinned to JSON, so
// the model answers with the bare array and no markdown fences.
const extractionPrompt = `You are a product classification expert for furniture and bedding products from Ripley Peru.

Analyze these product titles and extract structured attributes.

RULES:
1. Brand: Company name (RIZZOLI, ROSEN, PARAÍSO, etc.)
2. Product Type: Full category name (DORMITORIO AMERICANO, CAMA DIVÁN, COLCHÓN, DORMITORIO BOXET, DORMITORIO EUROPEO, CAMA EUROPEA, CAMA AMERICANA, DORMITORIO DIVÁN)
3. Base Model: Collection name shared across variants (VESUBIO, ROYAL CLOUD, REST, TEMPO, etc.)
   - Do NOT include size, color, or accessories in base model
   - Example: "DORMITORIO AMERICANO RIZZOLI VESUBIO 2 PLAZAS" → base_model = "VESUBIO"
4. Variant Attributes:
   - size: 1.5 PLAZAS, 2 PLAZAS, QUEEN, KING (exact text from title)
   - color: GRIS, AZUL, CHOCOLATE, ISSEY, GRAFITO, CHAMPAGNE, NIEBLA, etc.
   - accessories: Items after "+" or "CON" (CAJONES, VELADOR, ALMOHADAS, PROTECTOR, CABECERA)
   - features: Special attributes (BIPANEL, etc.)

IMPORTANT:
- Accessories and size are NOT part of base model
- If color is not explicitly mentioned, set to null
- Extract ALL accessories as separate list items
- Confidence score: 1.0 if certain, 0.5-0.9 if ambiguous, <0.5 if unclear

Products:
%s

Return ONLY valid JSON array (no markdown, no explanation):
[
  {
    "original_title": "...",
    "brand": "BRAND",
    "product_type": "FULL TYPE",
    "base_model": "MODEL",
    "variant_attributes": {
      "size": "..." or null,
      "color": "..." or null,
      "accessories": ["...", "..."],
      "features": ["..."]
    },
    "confidence": 0.95
  }
]
`

// buildPrompt renders the extraction prompt for a batch of titles.
func buildPrompt(titles []string) (string, error) {
	productsJSON, err := json.Marshal(titles, jsontext.WithIndent("  "))
	if err != nil {
		return "", fmt.Errorf("marshal titles: %w", err)
	}
	return fmt.Sprintf(extractionPrompt, productsJSON), nil
}
