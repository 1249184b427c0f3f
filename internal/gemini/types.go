package gemini

import (
	"math"
	"strings"

	"github.com/GadCoder/Ripley-Scrapper/internal/domain"
	"github.com/GadCoder/Ripley-Scrapper/internal/extractor"
)

// generateRequest is the request body of the generateContent endpoint.
type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type content struct {
	Parts []part `json:"parts"`
	Role  string `json:"role,omitempty"`
}

type part struct {
	Text string `json:"text"`
}

// generationConfig pins the sampling parameters so the same titles
// classify the same way across runs.
type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	TopP             float64 `json:"topP"`
	MaxOutputTokens  int     `json:"maxOutputTokens"`
	ResponseMIMEType string  `json:"responseMimeType"`
}

type generateResponse struct {
	Candidates []candidate `json:"candidates"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason"`
}

// text concatenates the text parts of the first candidate. Safety
// blocks and empty candidates come back as an empty string.
func (r *generateResponse) text() string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var out strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		out.WriteString(p.Text)
	}
	return out.String()
}

// extractionRecord is one element of the JSON array the model returns,
// mirroring the schema spelled out in the prompt.
type extractionRecord struct {
	OriginalTitle     string                   `json:"original_title"`
	Brand             string                   `json:"brand"`
	ProductType       string                   `json:"product_type"`
	BaseModel         string                   `json:"base_model"`
	VariantAttributes domain.VariantAttributes `json:"variant_attributes"`
	Confidence        float64                  `json:"confidence"`
}

// toAttributes normalizes a model record into extraction attributes.
// Empty fields become UNKNOWN. The prompt does not ask for a base
// category, so this path always leaves it UNKNOWN.
func (r *extractionRecord) toAttributes() domain.ExtractedAttributes {
	attrs := domain.ExtractedAttributes{
		Brand:             orUnknown(r.Brand),
		ProductType:       orUnknown(r.ProductType),
		BaseCategory:      extractor.Unknown,
		BaseModel:         orUnknown(r.BaseModel),
		VariantAttributes: r.VariantAttributes,
		Confidence:        clampConfidence(r.Confidence),
	}
	if attrs.VariantAttributes.Accessories == nil {
		attrs.VariantAttributes.Accessories = []string{}
	}
	if attrs.VariantAttributes.Features == nil {
		attrs.VariantAttributes.Features = []string{}
	}
	return attrs
}

func orUnknown(s string) string {
	if s == "" {
		return extractor.Unknown
	}
	return s
}

// clampConfidence bounds a model-reported score to [0, 1] and rounds it
// to two decimals like the rule-based extractor.
func clampConfidence(c float64) float64 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return math.Round(c*100) / 100
}
