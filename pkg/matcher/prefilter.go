package matcher

import (
	"github.com/cloudflare/ahocorasick"

	"github.com/Spl0itable/wordfence-cli/pkg/types"
)

// prefilter uses Aho-Corasick multi-pattern literal matching to shortlist
// which signatures are worth evaluating against a chunk, ported from the
// teacher's pkg/prefilter package. It never changes which signatures
// eventually match or time out: a signature with keywords is simply
// skipped this chunk when none of its keywords occur in it.
type prefilter struct {
	automaton     *ahocorasick.Matcher
	keywords      []string
	keywordSigs   map[string][]*types.Signature
	noKeywordSigs []*types.Signature
}

func newPrefilter(signatures []*types.Signature) *prefilter {
	pf := &prefilter{keywordSigs: make(map[string][]*types.Signature)}

	seen := make(map[string]bool)
	for _, sig := range signatures {
		if len(sig.Keywords) == 0 {
			pf.noKeywordSigs = append(pf.noKeywordSigs, sig)
			continue
		}
		for _, kw := range sig.Keywords {
			if !seen[kw] {
				seen[kw] = true
				pf.keywords = append(pf.keywords, kw)
			}
			pf.keywordSigs[kw] = append(pf.keywordSigs[kw], sig)
		}
	}

	if len(pf.keywords) > 0 {
		pf.automaton = ahocorasick.NewStringMatcher(pf.keywords)
	}

	return pf
}

// candidates returns the signatures worth evaluating against chunk: every
// signature without keywords, plus every signature whose keyword was found
// in chunk.
func (pf *prefilter) candidates(chunk []byte) []*types.Signature {
	result := make([]*types.Signature, 0, len(pf.noKeywordSigs))
	result = append(result, pf.noKeywordSigs...)

	if pf.automaton == nil {
		return result
	}

	seen := make(map[int64]bool, len(result))
	for _, sig := range result {
		seen[sig.ID] = true
	}

	for _, hit := range pf.automaton.Match(chunk) {
		keyword := pf.keywords[hit]
		for _, sig := range pf.keywordSigs[keyword] {
			if !seen[sig.ID] {
				seen[sig.ID] = true
				result = append(result, sig)
			}
		}
	}

	return result
}
