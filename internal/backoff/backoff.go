// Package backoff provides the default IntervalFunction: a monotone
// function of attempt count used to compute the next RunAt after a
// failed attempt. The formula and jitter are lifted, unchanged, from the
// teacher's internal/storage/postgres.calculateBackoff so the engine can
// inject it instead of baking it into the storage layer.
package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Exponential returns an IntervalFunction computing
// base * 2^(attempts-1), with that term capped at one hour before +/-25%
// uniform jitter is applied (so a capped result lies between 45 and 75
// minutes), and a one-second floor.
func Exponential(base time.Duration) func(attempts int) time.Duration {
	baseSeconds := base.Seconds()
	return func(attempts int) time.Duration {
		exponent := attempts - 1
		if exponent < 0 {
			exponent = 0
		}
		if exponent > 20 {
			exponent = 20
		}

		exponential := baseSeconds * math.Pow(2, float64(exponent))
		if exponential > 3600 {
			exponential = 3600
		}

		jitterPercent := (rand.Float64() * 0.5) - 0.25
		value := exponential + exponential*jitterPercent
		if value < 1 {
			value = 1
		}

		return time.Duration(value * float64(time.Second))
	}
}
