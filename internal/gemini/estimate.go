package gemini

import "math"

// Gemini Flash pricing and sizing assumptions for cost estimates.
const (
	inputTokensPerTitle   = 50
	outputTokensPerRecord = 150
	costPerMillionInput   = 0.075
	costPerMillionOutput  = 0.30
	secondsPerBatch       = 6 // 4.5s delay + ~1.5s API call

	// blendedCostPerMillion prices actual usage, where the input and
	// output shares are not tracked separately.
	blendedCostPerMillion = 0.1
)

// CostEstimate projects the API usage of classifying a product set.
type CostEstimate struct {
	Products     int     `json:"num_products"`
	Batches      int     `json:"num_batches"`
	InputTokens  int     `json:"estimated_input_tokens"`
	OutputTokens int     `json:"estimated_output_tokens"`
	TotalTokens  int     `json:"estimated_total_tokens"`
	CostUSD      float64 `json:"estimated_cost_usd"`
	TimeSeconds  int     `json:"estimated_time_seconds"`
	TimeMinutes  float64 `json:"estimated_time_minutes"`
}

// EstimateCost projects the cost and duration of a run. It needs no
// client or API key, so a dry run can price a dataset before any
// credentials are exported.
func EstimateCost(products, batchSize int) CostEstimate {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	batches := (products + batchSize - 1) / batchSize

	inputTokens := batches * batchSize * inputTokensPerTitle
	outputTokens := batches * batchSize * outputTokensPerRecord

	cost := float64(inputTokens)/1_000_000*costPerMillionInput +
		float64(outputTokens)/1_000_000*costPerMillionOutput

	seconds := batches * secondsPerBatch

	return CostEstimate{
		Products:     products,
		Batches:      batches,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalTokens:  inputTokens + outputTokens,
		CostUSD:      round4(cost),
		TimeSeconds:  seconds,
		TimeMinutes:  math.Round(float64(seconds)/60*10) / 10,
	}
}

// round4 rounds to four decimals for dollar amounts.
func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
