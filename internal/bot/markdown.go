package bot

import (
	"strings"
	"unicode/utf8"
)

// Taken from https://core.telegram.org/bots/api#markdownv2-style.
const mdV2SpecialChars = `\._[](){}#|!+-=*~>` + "`"

//nolint:gochecknoglobals // Lookup table meant to be immutable.
var mdV2Lookup = func() [256]bool {
	var m [256]bool
	for i := range len(mdV2SpecialChars) {
		m[mdV2SpecialChars[i]] = true
	}
	return m
}()

func escapeMarkdownV2(input string) string {
	charsToEscape := 0

	for i := range len(input) {
		if mdV2Lookup[input[i]] {
			charsToEscape++
		}
	}

	if charsToEscape == 0 {
		return input
	}

	var b strings.Builder
	b.Grow(len(input) + charsToEscape)

	for i := range len(input) {
		c := input[i]
		if mdV2Lookup[c] {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}

	return b.String()
}

// splitMessage breaks escaped text into non-blank chunks of at most limit
// bytes, preferring line then word boundaries and never splitting an escape pair.
func splitMessage(text string, limit int) []string {
	var (
		chunks []string
		cur    strings.Builder
	)

	// Telegram rejects messages with blank text.
	add := func(chunk string) {
		if strings.TrimSpace(chunk) != "" {
			chunks = append(chunks, chunk)
		}
	}

	flush := func() {
		if cur.Len() > 0 {
			add(cur.String())
			cur.Reset()
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if cur.Len() > 0 && cur.Len()+1+len(line) <= limit {
			cur.WriteByte('\n')
			cur.WriteString(line)
			continue
		}

		flush()

		for len(line) > limit {
			cut := cutIndex(line, limit)
			add(line[:cut])
			line = line[cut:]
		}

		cur.WriteString(line)
	}

	flush()

	return chunks
}

func cutIndex(s string, limit int) int {
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	if i := strings.LastIndexByte(s[:cut], ' '); i > 0 {
		return i + 1
	}

	backslashes := 0
	for i := cut - 1; i >= 0 && s[i] == '\\'; i-- {
		backslashes++
	}
	if backslashes%2 == 1 {
		cut--
	}

	if cut <= 0 {
		return limit
	}

	return cut
}
