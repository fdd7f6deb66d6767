package matcher

import "time"

// DefaultRuleTimeout bounds how long a single signature may run against a
// single chunk before it is recorded as timed out, matching the teacher's
// matcher.Options default (5 * time.Second, chosen to match regexp2's own
// MatchTimeout default of 5s).
const DefaultRuleTimeout = 5 * time.Second

// Options configures matcher construction.
type Options struct {
	// RuleTimeout is the default per-signature CPU budget; Signature.TimeoutMS
	// overrides it per-pattern when nonzero.
	RuleTimeout time.Duration

	// MatchAll switches MatchContext.ProcessChunk's short-circuit behavior:
	// false stops at the first match in a file, true scans until every
	// signature has either matched or timed out.
	MatchAll bool
}

// DefaultOptions returns production defaults.
func DefaultOptions() Options {
	return Options{RuleTimeout: DefaultRuleTimeout, MatchAll: false}
}
