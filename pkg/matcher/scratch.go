package matcher

import (
	"fmt"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/Spl0itable/wordfence-cli/pkg/types"
)

// JitScratch holds one independently-compiled regexp2.Regexp per signature.
// regexp2.Regexp is documented by its own maintainers (and by the teacher's
// PortableRegexpMatcher) as unsafe for concurrent matching, so instead of
// sharing one compiled set across workers, CompiledMatcher hands each worker
// its own JitScratch: the Go analogue of cloning a Hyperscan scratch space
// per goroutine.
type JitScratch struct {
	regexes map[int64]*regexp2.Regexp
}

func compileSignature(sig *types.Signature, defaultTimeout time.Duration) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(sig.Pattern, regexp2.RE2|regexp2.Multiline)
	if err != nil {
		re, err = regexp2.Compile(sig.Pattern, regexp2.None)
		if err != nil {
			return nil, fmt.Errorf("matcher: compile signature %d: %w", sig.ID, err)
		}
	}
	timeout := defaultTimeout
	if sig.TimeoutMS > 0 {
		timeout = time.Duration(sig.TimeoutMS) * time.Millisecond
	}
	re.MatchTimeout = timeout
	return re, nil
}
