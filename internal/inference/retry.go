package inference

// RetryStrategy decides how long to wait before the next attempt.
type RetryStrategy interface {
	NextBackoff(attempt int) int64 // ms, negative stops
}

// ExponentialBackoff doubles BaseDelayMs per attempt, capped at MaxDelayMs.
type ExponentialBackoff struct {
	MaxRetries  int
	BaseDelayMs int64
	MaxDelayMs  int64
}

// NextBackoff returns the delay before retry number attempt (0-based), or -1
// once MaxRetries retries have been made.
func (s *ExponentialBackoff) NextBackoff(attempt int) int64 {
	if s.MaxRetries <= 0 || attempt >= s.MaxRetries {
		return -1
	}
	backoff := s.BaseDelayMs * (1 << attempt)
	maxDelay := s.MaxDelayMs
	if maxDelay <= 0 {
		maxDelay = 30000
	}
	if backoff > maxDelay {
		backoff = maxDelay
	}
	return backoff
}
