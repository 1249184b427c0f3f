package hierarchy

import (
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/GadCoder/Ripley-Scrapper/internal/domain"
)

// maxPriceVariancePct is the spread between a model's cheapest and
// most expensive variant, as a percentage of the cheapest, above which
// the model likely mixes unrelated products.
const maxPriceVariancePct = 200

// ValidationIssue flags one systemic problem found in a built tree.
type ValidationIssue struct {
	Severity string `json:"severity"`
	Type     string `json:"type"`
	Count    int    `json:"count"`
	Message  string `json:"message"`
}

// ModelRef points at one model node inside the tree.
type ModelRef struct {
	Brand   string `json:"brand"`
	Type    string `json:"type"`
	Model   string `json:"model"`
	ModelID string `json:"model_id"`
}

// VarianceModel is a model whose internet price spread exceeds the
// variance limit.
type VarianceModel struct {
	ModelRef

	VariancePct int `json:"variance_pct"`
}

// ValidationResult reports grouping quality for a built hierarchy. The
// model lists are capped at ten entries each; the issue counts carry
// the full totals.
type ValidationResult struct {
	ValidationPassed    bool              `json:"validation_passed"`
	Issues              []ValidationIssue `json:"issues"`
	SingleVariantModels []ModelRef        `json:"single_variant_models"`
	HighVarianceModels  []VarianceModel   `json:"high_variance_models"`
}

// Validator checks a built hierarchy for grouping defects worth a
// second look before the output is trusted.
type Validator struct {
	logger *slog.Logger
}

func NewValidator(logger *slog.Logger) *Validator {
	return &Validator{logger: logger}
}

// Validate walks the tree and flags suspicious models: a model with a
// single variant may belong to a sibling group under another spelling,
// and a model whose internet prices spread more than 200% apart likely
// groups unrelated products under one name.
func (v *Validator) Validate(h *domain.Hierarchy) *ValidationResult {
	singles := findSingleVariantModels(h)
	variance := findHighPriceVariance(h)

	issues := make([]ValidationIssue, 0, 2)
	if len(singles) > 0 {
		issues = append(issues, ValidationIssue{
			Severity: "warning",
			Type:     "single_variant_model",
			Count:    len(singles),
			Message:  fmt.Sprintf("Found %d models with only 1 variant", len(singles)),
		})
	}
	if len(variance) > 0 {
		issues = append(issues, ValidationIssue{
			Severity: "warning",
			Type:     "high_price_variance",
			Count:    len(variance),
			Message:  fmt.Sprintf("Found %d models with >200%% price variance", len(variance)),
		})
	}

	v.logger.Info("validation finished",
		"issues", len(issues),
		"single_variant", len(singles),
		"high_variance", len(variance))

	passed := true
	for _, issue := range issues {
		if issue.Severity == "error" {
			passed = false
			break
		}
	}

	return &ValidationResult{
		ValidationPassed:    passed,
		Issues:              issues,
		SingleVariantModels: singles[:min(10, len(singles))],
		HighVarianceModels:  variance[:min(10, len(variance))],
	}
}

func findSingleVariantModels(h *domain.Hierarchy) []ModelRef {
	refs := make([]ModelRef, 0)

	for _, brand := range h.Brands {
		for _, ptype := range brand.ProductTypes {
			for _, model := range ptype.Models {
				if model.VariantCount == 1 {
					refs = append(refs, ModelRef{
						Brand:   brand.BrandName,
						Type:    ptype.TypeName,
						Model:   model.BaseModel,
						ModelID: model.ModelID,
					})
				}
			}
		}
	}

	return refs
}

func findHighPriceVariance(h *domain.Hierarchy) []VarianceModel {
	found := make([]VarianceModel, 0)

	for _, brand := range h.Brands {
		for _, ptype := range brand.ProductTypes {
			for _, model := range ptype.Models {
				lo := model.PriceRange.MinInternetPrice
				hi := model.PriceRange.MaxInternetPrice
				if lo == nil || hi == nil || *lo <= 0 {
					continue
				}

				pct := (*hi - *lo) / *lo * 100
				if pct > maxPriceVariancePct {
					found = append(found, VarianceModel{
						ModelRef: ModelRef{
							Brand:   brand.BrandName,
							Type:    ptype.TypeName,
							Model:   model.BaseModel,
							ModelID: model.ModelID,
						},
						VariancePct: int(math.Round(pct)),
					})
				}
			}
		}
	}

	return found
}

// Report renders the result as the text block printed at the end of a
// grouping run.
func (r *ValidationResult) Report() string {
	divider := strings.Repeat("=", 60)

	lines := []string{divider, "VALIDATION REPORT", divider, ""}

	if r.ValidationPassed {
		lines = append(lines, "✓ Validation PASSED (no critical errors)")
	} else {
		lines = append(lines, "✗ Validation FAILED (critical errors found)")
	}

	lines = append(lines, "", fmt.Sprintf("Total issues: %d", len(r.Issues)), "")

	for _, issue := range r.Issues {
		symbol := "⚠️"
		if issue.Severity != "warning" {
			symbol = "❌"
		}
		lines = append(lines, symbol+" "+issue.Message)
	}

	lines = append(lines, "", divider)

	return strings.Join(lines, "\n")
}
