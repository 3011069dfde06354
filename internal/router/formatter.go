package router

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// DomainKeywords must survive formatting whenever the raw reply contains them.
var DomainKeywords = []string{"kamar", "room", "keluhan", "pembayaran", "tersedia", "available"}

const minWordRatio = 0.9

var (
	blanksRe   = regexp.MustCompile(`[ \t]+`)
	numberedRe = regexp.MustCompile(`^(\d{1,3})[.)]\s+(\S.*)$`)
	emptyRunRe = regexp.MustCompile(`\n{3,}`)
)

// Format normalizes whitespace and list markers. Format(Format(s)) == Format(s).
// When the normalized text loses a domain keyword or too many words, the raw
// text is returned unchanged.
func Format(raw string) string {
	out := normalize(raw)
	if !retains(raw, out) {
		return raw
	}
	return out
}

func normalize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		line = strings.TrimSpace(blanksRe.ReplaceAllString(line, " "))
		lines[i] = formatLine(line)
	}

	s = strings.Join(lines, "\n")
	s = emptyRunRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

func formatLine(line string) string {
	if rest, ok := strings.CutPrefix(line, "•"); ok {
		rest = strings.TrimSpace(rest)
		if rest == "" {
			return "•"
		}
		return "• " + rest
	}

	if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") {
		r, _ := utf8.DecodeRuneInString(line[1:])
		if unicode.IsSpace(r) {
			if rest := strings.TrimSpace(line[1:]); rest != "" {
				return "• " + rest
			}
		}
		return line
	}

	if m := numberedRe.FindStringSubmatch(line); m != nil {
		return m[1] + ". " + m[2]
	}
	return line
}

// retains checks keyword presence and word count of formatted against raw.
func retains(raw, formatted string) bool {
	lr, lf := strings.ToLower(raw), strings.ToLower(formatted)
	for _, k := range DomainKeywords {
		if strings.Contains(lr, k) && !strings.Contains(lf, k) {
			return false
		}
	}

	rawWords := len(strings.Fields(raw))
	if rawWords == 0 {
		return true
	}
	return float64(len(strings.Fields(formatted))) >= minWordRatio*float64(rawWords)
}
