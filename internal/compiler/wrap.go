package compiler

import (
	"strings"
	"unicode/utf8"
)

// wrap breaks text into lines of at most width runes. Words are split on
// whitespace; a word longer than width is broken hard.
func wrap(text string, width int) []string {
	var lines []string
	var cur strings.Builder
	curLen := 0
	for _, word := range strings.Fields(text) {
		n := utf8.RuneCountInString(word)
		if curLen > 0 && curLen+1+n <= width {
			cur.WriteByte(' ')
			cur.WriteString(word)
			curLen += 1 + n
			continue
		}
		if curLen > 0 {
			lines = append(lines, cur.String())
			cur.Reset()
			curLen = 0
		}
		for n > width {
			head, tail := splitRunes(word, width)
			lines = append(lines, head)
			word, n = tail, n-width
		}
		cur.WriteString(word)
		curLen = n
	}
	if curLen > 0 {
		lines = append(lines, cur.String())
	}
	return lines
}

// breakLine splits a verbatim line into chunks of at most width runes,
// keeping its whitespace.
func breakLine(line string, width int) []string {
	line = strings.TrimRight(line, " \t")
	if line == "" {
		return []string{""}
	}
	var out []string
	for utf8.RuneCountInString(line) > width {
		head, tail := splitRunes(line, width)
		out = append(out, head)
		line = tail
	}
	return append(out, line)
}

func splitRunes(s string, n int) (string, string) {
	i := 0
	for range n {
		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}
	return s[:i], s[i:]
}
