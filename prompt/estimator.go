package prompt

import (
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// tokensPerWord approximates how many model tokens one whitespace-separated
// word expands to.
const tokensPerWord = 1.3

// TokenEstimator estimates how many tokens a piece of prompt text will
// consume in the generation model.
type TokenEstimator interface {
	Estimate(text string) int
}

// HeuristicEstimator approximates token counts from word counts. It needs no
// model information and works for any provider.
type HeuristicEstimator struct{}

var _ TokenEstimator = HeuristicEstimator{}

func (HeuristicEstimator) Estimate(text string) int {
	return int(float64(len(strings.Fields(text))) * tokensPerWord)
}

// ModelEstimator counts tokens with the tokenizer of a specific model.
// Unknown model names fall back to a generic encoding.
type ModelEstimator struct {
	Model string
}

var _ TokenEstimator = ModelEstimator{}

func (e ModelEstimator) Estimate(text string) int {
	return llms.CountTokens(e.Model, text)
}
