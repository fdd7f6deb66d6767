// Package matcher implements signature evaluation against file content
// chunks: CompiledMatcher holds the immutable, validated signature set and
// prefilter shared read-only across a scan; JitScratch and MatchContext hold
// the per-worker and per-file mutable state respectively.
package matcher

import (
	"fmt"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/Spl0itable/wordfence-cli/pkg/types"
)

// CompiledMatcher is built once per scan and shared read-only across all
// workers. It owns nothing that can be mutated concurrently.
type CompiledMatcher struct {
	signatures     []*types.Signature
	defaultTimeout time.Duration
	matchAll       bool
	prefilter      *prefilter
}

// New validates that every signature compiles (catching pattern errors
// before any worker starts, matching the teacher's pre-compile-everything
// approach) and builds the shared prefilter.
func New(sigset *types.SignatureSet, opts Options) (*CompiledMatcher, error) {
	signatures := sigset.Signatures()
	if len(signatures) == 0 {
		return nil, fmt.Errorf("matcher: signature set is empty")
	}

	for _, sig := range signatures {
		if _, err := compileSignature(sig, opts.RuleTimeout); err != nil {
			return nil, err
		}
	}

	return &CompiledMatcher{
		signatures:     signatures,
		defaultTimeout: opts.RuleTimeout,
		matchAll:       opts.MatchAll,
		prefilter:      newPrefilter(signatures),
	}, nil
}

// NewScratch compiles one independent regexp2.Regexp per signature for
// exclusive use by a single worker goroutine for its lifetime.
func (m *CompiledMatcher) NewScratch() (*JitScratch, error) {
	regexes := make(map[int64]*regexp2.Regexp, len(m.signatures))
	for _, sig := range m.signatures {
		re, err := compileSignature(sig, m.defaultTimeout)
		if err != nil {
			return nil, err
		}
		regexes[sig.ID] = re
	}
	return &JitScratch{regexes: regexes}, nil
}

// NewContext allocates fresh per-file match/timeout tracking.
func (m *CompiledMatcher) NewContext() *MatchContext {
	return &MatchContext{
		owner:    m,
		matches:  make(map[int64]string),
		timeouts: make(map[int64]struct{}),
		total:    len(m.signatures),
	}
}
