package timeutil

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// ReasonMaxLen is the clamp applied to DecisionRecord.Reason and similar
// free-text fields (Scenario SICKNESS payload reason, apply-failure reason)
const ReasonMaxLen = 280

// reasonChain folds fullwidth forms to ASCII and applies NFKC, without the
// detector's case-fold/leet-fold steps, which would mangle free text meant
// to be read back to a scheduler
var reasonChain = transform.Chain(norm.NFKC, width.Fold)

// SanitizeReason cleans a caller-supplied free-text field for storage:
// control characters are stripped, fullwidth/compatibility forms are
// folded, whitespace runs collapse to single spaces, and the result is
// clamped to ReasonMaxLen runes. Adapted from normalize.Sanitize for
// scheduling's free-text fields rather than detector input
func SanitizeReason(s string) string {
	if s == "" {
		return s
	}
	s = stripControls(s)
	s = strings.ToValidUTF8(s, "")
	ns, _, err := transform.String(reasonChain, s)
	if err == nil {
		s = ns
	}
	s = collapseSpaces(s)
	return clampRunes(s, ReasonMaxLen)
}

// stripControls removes NUL, ASCII controls other than \n \r \t, DEL, and
// C1 controls (U+0080-U+009F), and drops invalid UTF-8 bytes
func stripControls(s string) string {
	n := len(s)
	i := 0
	for i < n {
		b := s[i]
		if b < 0x20 {
			if b == '\n' || b == '\r' || b == '\t' {
				i++
				continue
			}
			break
		}
		if b == 0x7F {
			break
		}
		if b < 0x80 {
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			break
		}
		if r >= 0x80 && r <= 0x9F {
			break
		}
		i += size
	}
	if i == n {
		return s
	}

	var b strings.Builder
	b.Grow(n)
	b.WriteString(s[:i])
	for i < n {
		c := s[i]
		if c < 0x20 {
			if c == '\n' || c == '\r' || c == '\t' {
				b.WriteByte(c)
			}
			i++
			continue
		}
		if c == 0x7F {
			i++
			continue
		}
		if c < 0x80 {
			b.WriteByte(c)
			i++
			continue
		}
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			i++
			continue
		}
		if r >= 0x80 && r <= 0x9F {
			i += size
			continue
		}
		b.WriteString(s[i : i+size])
		i += size
	}
	return b.String()
}

// collapseSpaces converts whitespace runs to a single space and trims edges
func collapseSpaces(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inWS := false
	flush := func() {
		if inWS {
			b.WriteByte(' ')
			inWS = false
		}
	}
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			inWS = true
			continue
		}
		flush()
		b.WriteRune(r)
	}
	flush()
	return strings.TrimSpace(b.String())
}

// clampRunes truncates s to at most max runes, leaving partial multi-byte
// sequences untouched
func clampRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == max {
			return s[:i]
		}
		count++
	}
	return s
}
