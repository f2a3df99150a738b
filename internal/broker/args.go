package broker

import "strings"

func isQuote(c byte) bool {
	return c == '"' || c == '\'' || c == '`'
}

// splitArg returns the first argument of s and everything after its
// separator. A comma always separates; a space separates only when
// spaceSeparates is set. Quoted sections are never split. Both parts are
// trimmed.
func splitArg(s string, spaceSeparates bool) (first, rest string) {
	s = strings.TrimSpace(s)

	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case isQuote(c):
			quote = c
		case c == ',' || (spaceSeparates && c == ' '):
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+1:])
		}
	}
	return s, ""
}

// commandName returns the lowercased command keyword of cmd.
func commandName(cmd string) string {
	name, _ := splitArg(cmd, true)
	return strings.ToLower(name)
}

// commandArgs returns everything after the command keyword, case kept.
func commandArgs(cmd string) string {
	_, rest := splitArg(cmd, true)
	return rest
}

// enumPosition returns the 1-based position of the first label in the
// comma-separated list matching payload case-insensitively. Scanning stops at
// the first empty label; when nothing matches the result is one past the last
// label scanned.
func enumPosition(labels, payload string) int {
	i := 1
	part, rest := splitArg(labels, false)
	for part != "" {
		if strings.EqualFold(part, payload) {
			break
		}
		i++
		part, rest = splitArg(rest, false)
	}
	return i
}

// wrapWithQuotes quotes s with the first quote character it does not
// already contain. Already-quoted strings are returned unchanged.
func wrapWithQuotes(s string) string {
	if len(s) >= 2 && isQuote(s[0]) && s[len(s)-1] == s[0] {
		return s
	}
	for _, q := range []string{`"`, `'`, "`"} {
		if !strings.Contains(s, q) {
			return q + s + q
		}
	}
	return `"` + s + `"`
}
