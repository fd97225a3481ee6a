package rating

// Option applies a configuration option to the Engine.
type Option func(*Engine)

// WithBaseline sets the initial rating assigned on first appearance.
func WithBaseline(baseline float64) Option {
	return func(e *Engine) {
		if baseline > 0 {
			e.baseline = baseline
		}
	}
}

// WithKFactor sets the Elo K constant.
func WithKFactor(k float64) Option {
	return func(e *Engine) {
		if k > 0 {
			e.kFactor = k
		}
	}
}

// WithKShrinkDivisor enables experience-based K shrink:
// Keff = K / (1 + matches/divisor). Zero disables shrink.
func WithKShrinkDivisor(d float64) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.kShrinkDivisor = d
		}
	}
}

// WithFormWindow bounds the rolling serve/return window.
func WithFormWindow(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.formWindow = n
		}
	}
}

// WithRecentWindow bounds the rolling match-result window used for the
// last-N win rate.
func WithRecentWindow(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.recentWindow = n
		}
	}
}

// WithH2HCap bounds retained meetings per opponent pair.
func WithH2HCap(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.h2hCap = n
		}
	}
}

// WithTourAverages sets the reference hold/break rates used for opponent
// adjustment of serve/return samples.
func WithTourAverages(hold, brk float64) Option {
	return func(e *Engine) {
		if hold > 0 && hold < 1 && brk > 0 && brk < 1 {
			e.tourHold = hold
			e.tourBreak = brk
		}
	}
}

// WithSink attaches a sink that receives post-update ratings, e.g. the
// rankings repository. A nil sink is ignored.
func WithSink(sink Sink) Option {
	return func(e *Engine) {
		if sink != nil {
			e.sink = sink
		}
	}
}
