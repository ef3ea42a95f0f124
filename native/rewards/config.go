package rewards

import "errors"

// Config controls the eligibility window and winner selection.
type Config struct {
	// IntervalSeconds is the minimum gap between reward rounds.
	IntervalSeconds uint64
	// Threshold is the minimum net score a post needs to enter the pool.
	Threshold int64
	// WinnerHistory bounds the recent-winners ring; the oldest entry is
	// evicted first.
	WinnerHistory int
	// NumWords is the number of random words requested per round. Winner
	// selection consumes the first word.
	NumWords uint32
}

// DefaultConfig returns the parameters used when none are configured.
func DefaultConfig() Config {
	return Config{
		IntervalSeconds: 86400,
		Threshold:       5,
		WinnerHistory:   16,
		NumWords:        1,
	}
}

// Validate ensures the configuration values fall within acceptable bounds.
func (c Config) Validate() error {
	if c.IntervalSeconds == 0 {
		return errors.New("rewards: interval must be positive")
	}
	if c.WinnerHistory <= 0 {
		return errors.New("rewards: winner history bound must be positive")
	}
	if c.NumWords == 0 {
		return errors.New("rewards: at least one random word is required")
	}
	return nil
}
