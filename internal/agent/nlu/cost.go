package nlu

import (
	"github.com/cloudwego/eino/schema"
)

// pricing is USD per 1M text tokens.
type pricing struct {
	InputPerM  float64
	OutputPerM float64
}

var modelPricing = map[string]pricing{
	"gemini-2.5-flash":      {InputPerM: 0.30, OutputPerM: 2.50},
	"gemini-2.5-flash-lite": {InputPerM: 0.10, OutputPerM: 0.40},
}

// usageCost converts token usage to USD. Unknown models cost zero.
func usageCost(modelName string, usage *schema.TokenUsage) float64 {
	if usage == nil {
		return 0
	}
	p := modelPricing[modelName]
	return p.InputPerM*float64(usage.PromptTokens)/1_000_000.0 +
		p.OutputPerM*float64(usage.CompletionTokens)/1_000_000.0
}
