package extractor

import (
	"math"

	"github.com/GadCoder/Ripley-Scrapper/internal/domain"
)

// ComputeStats classifies a batch of extraction results by confidence
// band. The success rate is the successful share as a percentage with
// one decimal.
func ComputeStats(products []domain.AttributedProduct) domain.ExtractionStats {
	stats := domain.ExtractionStats{TotalProcessed: len(products)}

	for i := range products {
		switch {
		case products[i].IsSuccessful():
			stats.SuccessfulExtractions++
		case products[i].IsPartial():
			stats.PartialExtractions++
		default:
			stats.FailedExtractions++
		}
	}

	if stats.TotalProcessed > 0 {
		rate := float64(stats.SuccessfulExtractions) / float64(stats.TotalProcessed) * 100
		stats.SuccessRate = math.Round(rate*10) / 10
	}

	return stats
}
