// Package filter implements FileFilter: an ordered predicate chain over
// filesystem paths, built from include/exclude options the way the
// teacher's pkg/rule.Filter builds an include/exclude chain over rule ids.
package filter

import (
	"path/filepath"
	"regexp"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// PathPredicate reports whether a rule applies to path.
type PathPredicate func(path string) bool

type rule struct {
	predicate PathPredicate
	allow     bool
}

// FileFilter is an ordered sequence of (predicate, allow|deny) rules.
// Rules are evaluated in insertion order; the last matching rule wins. If
// no rule matches, the default is deny when at least one include rule was
// ever added, and allow otherwise. Safe for concurrent Filter calls once
// construction (Add) has finished.
type FileFilter struct {
	rules       []rule
	hasIncludes bool
}

// New creates an empty FileFilter. With no rules added, Filter allows
// everything.
func New() *FileFilter {
	return &FileFilter{}
}

// Add appends a rule. allow=true marks it an include rule (and changes the
// no-match default to deny); allow=false marks it an exclude rule.
func (f *FileFilter) Add(predicate PathPredicate, allow bool) {
	f.rules = append(f.rules, rule{predicate: predicate, allow: allow})
	if allow {
		f.hasIncludes = true
	}
}

// Filter evaluates path against the rule chain and returns whether it
// passes. Filtering the same path twice yields the same decision (the
// filter has no mutable state after construction).
func (f *FileFilter) Filter(path string) bool {
	matched := false
	decision := false
	for _, r := range f.rules {
		if r.predicate(path) {
			matched = true
			decision = r.allow
		}
	}
	if matched {
		return decision
	}
	return !f.hasIncludes
}

// Options configures the default FileFilter construction used by the
// scanner façade. It mirrors the include/exclude/images knobs of spec.md
// §4.A.
type Options struct {
	IncludeFiles        []string // exact basenames to allow
	IncludeFilesPattern []string // regex patterns (matched against the full path) to allow
	ExcludeFiles        []string // exact basenames to deny
	ExcludeFilesPattern []string // regex patterns to deny

	// Images additionally allows common image extensions; only meaningful
	// when no include option has been set (it extends the built-in
	// PHP/HTML/JS default, it does not replace an explicit include list).
	Images bool

	// GitignorePath, if set, compiles the named .gitignore-style file and
	// adds its patterns as a deny rule after the include rules, so it takes
	// precedence over them.
	GitignorePath string
}

var defaultExtensions = []string{".php", ".phtml", ".php3", ".php4", ".php5", ".php7", ".phar", ".html", ".htm", ".js"}
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".ico", ".svg"}

func basenameIn(names []string) PathPredicate {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return func(path string) bool {
		_, ok := set[filepath.Base(path)]
		return ok
	}
}

func patternAny(patterns []string) (PathPredicate, error) {
	regexes := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		regexes = append(regexes, re)
	}
	return func(path string) bool {
		for _, re := range regexes {
			if re.MatchString(path) {
				return true
			}
		}
		return false
	}, nil
}

func extensionIn(extensions []string) PathPredicate {
	set := make(map[string]struct{}, len(extensions))
	for _, e := range extensions {
		set[strings.ToLower(e)] = struct{}{}
	}
	return func(path string) bool {
		_, ok := set[strings.ToLower(filepath.Ext(path))]
		return ok
	}
}

// NewFromOptions creates a FileFilter from Options. Since the last matching
// rule wins, insertion order decides precedence: includes (explicit or
// default, plus the images addendum) are added first, then the gitignore
// denies and the excludes, so a deny rule overrides any include rule that
// also matches the path.
func NewFromOptions(opts Options) (*FileFilter, error) {
	f := New()
	var denies []PathPredicate

	if opts.GitignorePath != "" {
		ignore, err := gitignore.CompileIgnoreFile(opts.GitignorePath)
		if err != nil {
			return nil, err
		}
		denies = append(denies, func(path string) bool { return ignore.MatchesPath(path) })
	}

	if len(opts.ExcludeFiles) > 0 {
		denies = append(denies, basenameIn(opts.ExcludeFiles))
	}
	if len(opts.ExcludeFilesPattern) > 0 {
		pred, err := patternAny(opts.ExcludeFilesPattern)
		if err != nil {
			return nil, err
		}
		denies = append(denies, pred)
	}

	hasExplicitInclude := len(opts.IncludeFiles) > 0 || len(opts.IncludeFilesPattern) > 0

	if len(opts.IncludeFiles) > 0 {
		f.Add(basenameIn(opts.IncludeFiles), true)
	}
	if len(opts.IncludeFilesPattern) > 0 {
		pred, err := patternAny(opts.IncludeFilesPattern)
		if err != nil {
			return nil, err
		}
		f.Add(pred, true)
	}

	if !hasExplicitInclude {
		f.Add(extensionIn(defaultExtensions), true)
		if opts.Images {
			f.Add(extensionIn(imageExtensions), true)
		}
	}

	for _, pred := range denies {
		f.Add(pred, false)
	}

	return f, nil
}
