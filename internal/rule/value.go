package rule

import (
	"regexp"
	"strings"
)

// Kind classifies a desired attribute value once, at snapshot load time.
type Kind int

const (
	// Unset means the field was absent: preserve the live value.
	Unset Kind = iota
	// Ignore means the field held the ignore tag: never evaluate it.
	Ignore
	// Literal means the field holds a concrete value to enforce.
	Literal
	// Pattern means the field holds a wildcard: verify-only, never a
	// source for writes.
	Pattern
)

func (k Kind) String() string {
	switch k {
	case Unset:
		return "unset"
	case Ignore:
		return "ignore"
	case Literal:
		return "literal"
	case Pattern:
		return "pattern"
	}
	return "unknown"
}

// Value is a desired attribute value with its resolved kind. Resolution
// happens exactly once; comparisons never re-detect sentinels.
type Value struct {
	Kind Kind
	Text string
	re   *regexp.Regexp
}

// Resolve classifies a raw desired-state string. Only `*` is special
// inside patterns; it matches any run of characters, including none and
// including path separators.
func Resolve(s string) Value {
	switch {
	case s == "":
		return Value{Kind: Unset}
	case s == IgnoreTag:
		return Value{Kind: Ignore, Text: s}
	case strings.Contains(s, "*"):
		return Value{Kind: Pattern, Text: s, re: compileGlob(s)}
	default:
		return Value{Kind: Literal, Text: s}
	}
}

// Match reports whether a live value satisfies this desired value.
// Unset and Ignore match anything; Literal requires exact equality;
// Pattern applies the glob.
func (v Value) Match(live string) bool {
	switch v.Kind {
	case Unset, Ignore:
		return true
	case Pattern:
		return v.re.MatchString(live)
	default:
		return v.Text == live
	}
}

// compileGlob turns a `*` glob into an anchored regexp. Everything except
// `*` is matched literally, so Windows paths with backslashes survive.
func compileGlob(glob string) *regexp.Regexp {
	parts := strings.Split(glob, "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	return regexp.MustCompile("^" + strings.Join(parts, ".*") + "$")
}
