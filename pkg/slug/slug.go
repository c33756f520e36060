// Package slug derives URL-safe identifiers from titles.
package slug

import (
	"strconv"
	"strings"
	"sync/atomic"
	"time"
	"unicode"
)

const separator = '-'

// Base lowercases s, collapses every run of non-alphanumeric characters into a single
// separator and trims separators from both ends. It may return "".
func Base(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	pending := false
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pending && b.Len() > 0 {
				b.WriteRune(separator)
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}

// Generator appends a strictly increasing millisecond suffix to slug bases.
// Two calls never return the same suffix, even within the same millisecond.
type Generator struct {
	last atomic.Int64
	now  func() time.Time
}

// NewGenerator returns a Generator reading the wall clock.
func NewGenerator() *Generator {
	return &Generator{now: time.Now}
}

// Next returns the next suffix: the current unix millisecond, or last+1 when the clock has not advanced.
func (g *Generator) Next() int64 {
	for {
		prev := g.last.Load()
		next := g.now().UnixMilli()
		if next <= prev {
			next = prev + 1
		}
		if g.last.CompareAndSwap(prev, next) {
			return next
		}
	}
}

// Make returns base(title) + "-" + suffix. An empty base yields "event-<suffix>".
func (g *Generator) Make(title string) string {
	base := Base(title)
	if base == "" {
		base = "event"
	}
	return base + string(separator) + strconv.FormatInt(g.Next(), 10)
}
