package types

import "github.com/m-mizutani/goerr/v2"

// Confidence is the model's self-reported certainty for a recommendation, in [0, 1]
type Confidence float64

// Validate checks if the Confidence is within [0, 1]
func (c Confidence) Validate() error {
	if c < 0 || c > 1 {
		return goerr.New("confidence must be between 0 and 1", goerr.V("confidence", float64(c)))
	}
	return nil
}

// Float64 returns the raw value
func (c Confidence) Float64() float64 {
	return float64(c)
}
