package matcher

import (
	"strings"
	"unicode/utf8"
)

// MatchContext accumulates per-file matching state across the chunks of a
// single file. It is not safe for concurrent use; one MatchContext belongs
// to exactly one worker for the lifetime of one file.
type MatchContext struct {
	owner    *CompiledMatcher
	matches  map[int64]string
	timeouts map[int64]struct{}
	total    int
}

// Matches returns the signature id -> excerpt map accumulated so far.
func (c *MatchContext) Matches() map[int64]string {
	return c.matches
}

// Timeouts returns the set of signature ids that overran their CPU budget.
func (c *MatchContext) Timeouts() map[int64]struct{} {
	return c.timeouts
}

// ProcessChunk evaluates every signature not yet resolved (matched or timed
// out) against chunk, using scratch's independently-compiled regexes.
// Anchored signatures are only evaluated when first is true. It returns true
// when no further chunks need to be scanned: in match_all mode that means
// every signature has resolved; otherwise it means a match has been found,
// and the first match ends evaluation so at most one is recorded per file.
func (c *MatchContext) ProcessChunk(chunk []byte, first bool, scratch *JitScratch) bool {
	content := string(chunk)

	for _, sig := range c.owner.prefilter.candidates(chunk) {
		if _, done := c.matches[sig.ID]; done {
			continue
		}
		if _, done := c.timeouts[sig.ID]; done {
			continue
		}
		if sig.Anchored && !first {
			continue
		}

		re := scratch.regexes[sig.ID]
		m, err := re.FindStringMatch(content)
		if err != nil {
			// regexp2 reports CPU-budget overruns as an error from
			// FindStringMatch; any other compile-time-impossible error is
			// treated the same way, since the signature cannot be
			// distinguished from a timeout at this point.
			c.timeouts[sig.ID] = struct{}{}
			continue
		}
		if m == nil {
			continue
		}

		// m.Index and m.Length count runes of content, not bytes; walk
		// chunk to find the byte offsets of the match.
		start, end := len(chunk), len(chunk)
		for off, i := 0, 0; off < len(chunk); i++ {
			if i == m.Index {
				start = off
			}
			if i == m.Index+m.Length {
				end = off
				break
			}
			_, size := utf8.DecodeRune(chunk[off:])
			off += size
		}
		c.matches[sig.ID] = lossyUTF8(chunk[start:end])
		if !c.owner.matchAll {
			return true
		}
	}

	if c.owner.matchAll {
		return len(c.matches)+len(c.timeouts) == c.total
	}
	return len(c.matches) > 0
}

// lossyUTF8 decodes b as UTF-8 with lossy replacement of invalid sequences,
// matching spec.md §4.C's "excerpt is the matching substring decoded as
// UTF-8 with lossy replacement" (the Go analogue of Rust's
// String::from_utf8_lossy, which the original implementation relies on
// implicitly). Go's strings/bytes packages have no such helper and no
// library in the example corpus provides one either, so this one small
// routine is a deliberate stdlib fallback instead of a third-party
// dependency.
func lossyUTF8(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size <= 1 {
			sb.WriteRune(utf8.RuneError)
			b = b[1:]
			continue
		}
		sb.WriteRune(r)
		b = b[size:]
	}
	return sb.String()
}
