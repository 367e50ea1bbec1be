package session

import "time"

// RetryDelay returns the delay before reconnect attempt n (1-based). With the
// default multiplier of 1 every attempt waits InitialDelay; a larger
// multiplier grows the delay per attempt up to MaxDelay.
func RetryDelay(cfg BackoffConfig, n int) time.Duration {
	if cfg.InitialDelay <= 0 {
		return 0
	}
	delay := cfg.InitialDelay
	for i := 1; i < n && cfg.Multiplier > 1; i++ {
		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if cfg.MaxDelay > 0 && delay >= cfg.MaxDelay {
			break
		}
	}
	if cfg.MaxDelay > 0 && delay > cfg.MaxDelay {
		delay = cfg.MaxDelay
	}
	return delay
}
