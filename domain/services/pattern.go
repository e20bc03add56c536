package services

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern is an ordered set of regular expressions that mark the end of a response
type Pattern struct {
	exprs []*regexp.Regexp
}

// CompilePattern compiles every non-empty expression in order
func CompilePattern(exprs ...string) (Pattern, error) {
	var p Pattern
	for _, expr := range exprs {
		if expr == "" {
			continue
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return Pattern{}, fmt.Errorf("invalid pattern %q: %w", expr, err)
		}
		p.exprs = append(p.exprs, re)
	}
	return p, nil
}

// MustPattern is CompilePattern for expressions known at build time
func MustPattern(exprs ...string) Pattern {
	p, err := CompilePattern(exprs...)
	if err != nil {
		panic(err)
	}
	return p
}

// Or returns a pattern matching p or other; p's alternatives keep their indexes
func (p Pattern) Or(other Pattern) Pattern {
	out := Pattern{exprs: make([]*regexp.Regexp, 0, len(p.exprs)+len(other.exprs))}
	out.exprs = append(out.exprs, p.exprs...)
	out.exprs = append(out.exprs, other.exprs...)
	return out
}

// Match returns the index of the first alternative found in text, or -1
func (p Pattern) Match(text string) int {
	for i, re := range p.exprs {
		if re.MatchString(text) {
			return i
		}
	}
	return -1
}

// Len is the number of alternatives
func (p Pattern) Len() int {
	return len(p.exprs)
}

// Empty reports whether the pattern can never match
func (p Pattern) Empty() bool {
	return len(p.exprs) == 0
}

func (p Pattern) String() string {
	parts := make([]string, len(p.exprs))
	for i, re := range p.exprs {
		parts[i] = re.String()
	}
	return strings.Join(parts, " | ")
}
