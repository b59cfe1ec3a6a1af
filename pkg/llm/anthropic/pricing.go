package anthropic

import (
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// ModelPricing holds the per-token pricing for different operations
type ModelPricing struct {
	Input              float64
	Output             float64
	PromptCachingWrite float64
	PromptCachingRead  float64
	ContextWindow      int
}

// ModelPricingMap maps model names to their pricing information
var ModelPricingMap = map[string]ModelPricing{
	string(anthropic.ModelClaudeSonnet4_0): {
		Input:              0.000003,   // $3.00 per million tokens
		Output:             0.000015,   // $15.00 per million tokens
		PromptCachingWrite: 0.00000375, // $3.75 per million tokens
		PromptCachingRead:  0.0000003,  // $0.30 per million tokens
		ContextWindow:      200_000,
	},
	string(anthropic.ModelClaudeOpus4_0): {
		Input:              0.000015,   // $15.00 per million tokens
		Output:             0.000075,   // $75.00 per million tokens
		PromptCachingWrite: 0.00001875, // $18.75 per million tokens
		PromptCachingRead:  0.0000015,  // $1.50 per million tokens
		ContextWindow:      200_000,
	},
	string(anthropic.ModelClaude3_7SonnetLatest): {
		Input:              0.000003,
		Output:             0.000015,
		PromptCachingWrite: 0.00000375,
		PromptCachingRead:  0.0000003,
		ContextWindow:      200_000,
	},
	string(anthropic.ModelClaude3_5HaikuLatest): {
		Input:              0.0000008,  // $0.80 per million tokens
		Output:             0.000004,   // $4.00 per million tokens
		PromptCachingWrite: 0.000001,   // $1.00 per million tokens
		PromptCachingRead:  0.00000008, // $0.08 per million tokens
		ContextWindow:      200_000,
	},
	string(anthropic.ModelClaude3_5SonnetLatest): {
		Input:              0.000003,
		Output:             0.000015,
		PromptCachingWrite: 0.00000375,
		PromptCachingRead:  0.0000003,
		ContextWindow:      200_000,
	},
}

// getModelPricing returns the pricing information for a given model,
// falling back to model-family matches and finally Sonnet pricing.
func getModelPricing(model string) ModelPricing {
	if pricing, ok := ModelPricingMap[model]; ok {
		return pricing
	}

	lowerModel := strings.ToLower(model)
	switch {
	case strings.Contains(lowerModel, "opus"):
		return ModelPricingMap[string(anthropic.ModelClaudeOpus4_0)]
	case strings.Contains(lowerModel, "haiku"):
		return ModelPricingMap[string(anthropic.ModelClaude3_5HaikuLatest)]
	case strings.Contains(lowerModel, "claude-3-7-sonnet"):
		return ModelPricingMap[string(anthropic.ModelClaude3_7SonnetLatest)]
	case strings.Contains(lowerModel, "claude-3-5-sonnet"):
		return ModelPricingMap[string(anthropic.ModelClaude3_5SonnetLatest)]
	}

	return ModelPricingMap[string(anthropic.ModelClaudeSonnet4_0)]
}
