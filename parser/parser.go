// Package parser scans SQL text for portable parameter placeholders.
//
// Two placeholder forms are recognized: named parameters (:name) and
// positional parameters (?). Everything else is copied through unchanged,
// including placeholder-looking text inside string literals, quoted
// identifiers, dollar-quoted strings and comments.
package parser

import "strings"

// Visitor is called once per placeholder, in left-to-right order. The
// returned text replaces the placeholder in the output.
type Visitor interface {
	// Named receives the identifier after the colon, without the colon.
	Named(name string) string
	// Positional receives the 1-based position of the '?' among all
	// positional placeholders in the statement.
	Positional(index int) string
}

// Parse walks sql, invokes visitor for every placeholder found and returns
// the text with each placeholder replaced by the visitor's result. SQL with
// no placeholders comes back byte-identical.
func Parse(sql string, visitor Visitor) string {
	var out strings.Builder
	out.Grow(len(sql) + 16)
	positional := 0
	i, n := 0, len(sql)
	for i < n {
		switch c := sql[i]; c {
		case '\'':
			j := skipSingleQuoted(sql, i, hasEscapePrefix(sql, i))
			out.WriteString(sql[i:j])
			i = j
		case '"':
			j := skipDoubleQuoted(sql, i)
			out.WriteString(sql[i:j])
			i = j
		case '-':
			if i+1 < n && sql[i+1] == '-' {
				j := skipLineComment(sql, i)
				out.WriteString(sql[i:j])
				i = j
			} else {
				out.WriteByte(c)
				i++
			}
		case '/':
			if i+1 < n && sql[i+1] == '*' {
				j := skipBlockComment(sql, i)
				out.WriteString(sql[i:j])
				i = j
			} else {
				out.WriteByte(c)
				i++
			}
		case '$':
			if j, ok := skipDollarQuoted(sql, i); ok {
				out.WriteString(sql[i:j])
				i = j
			} else {
				out.WriteByte(c)
				i++
			}
		case ':':
			if i+1 < n && sql[i+1] == ':' {
				// type cast, not a placeholder
				out.WriteString("::")
				i += 2
			} else if i+1 < n && isNameStart(sql[i+1]) {
				j := i + 1
				for j < n && isNameChar(sql[j]) {
					j++
				}
				out.WriteString(visitor.Named(sql[i+1 : j]))
				i = j
			} else {
				out.WriteByte(c)
				i++
			}
		case '?':
			positional++
			out.WriteString(visitor.Positional(positional))
			i++
		default:
			out.WriteByte(c)
			i++
		}
	}
	return out.String()
}

// hasEscapePrefix reports whether the quote at position i opens an escape
// string (E'...'), in which case backslash escapes are active inside it.
func hasEscapePrefix(sql string, i int) bool {
	if i == 0 {
		return false
	}
	if sql[i-1] != 'e' && sql[i-1] != 'E' {
		return false
	}
	return i < 2 || !isNameChar(sql[i-2])
}

func skipSingleQuoted(sql string, start int, escapes bool) int {
	i, n := start+1, len(sql)
	for i < n {
		switch {
		case escapes && sql[i] == '\\':
			i += 2
		case sql[i] == '\'':
			if i+1 < n && sql[i+1] == '\'' {
				i += 2
				continue
			}
			return i + 1
		default:
			i++
		}
	}
	return n
}

func skipDoubleQuoted(sql string, start int) int {
	i, n := start+1, len(sql)
	for i < n {
		if sql[i] == '"' {
			if i+1 < n && sql[i+1] == '"' {
				i += 2
				continue
			}
			return i + 1
		}
		i++
	}
	return n
}

func skipLineComment(sql string, start int) int {
	i, n := start+2, len(sql)
	for i < n && sql[i] != '\n' {
		i++
	}
	return i
}

// skipBlockComment honors nesting, as the server does.
func skipBlockComment(sql string, start int) int {
	depth := 1
	i, n := start+2, len(sql)
	for i < n && depth > 0 {
		if i+1 < n && sql[i] == '/' && sql[i+1] == '*' {
			depth++
			i += 2
			continue
		}
		if i+1 < n && sql[i] == '*' && sql[i+1] == '/' {
			depth--
			i += 2
			continue
		}
		i++
	}
	return i
}

// skipDollarQuoted matches $tag$ ... $tag$ (tag may be empty). A dollar sign
// followed by anything else, such as a native $1 marker, is not a quote.
func skipDollarQuoted(sql string, start int) (int, bool) {
	i, n := start+1, len(sql)
	if i < n && isNameStart(sql[i]) {
		for i < n && isNameChar(sql[i]) {
			i++
		}
	}
	if i >= n || sql[i] != '$' {
		return 0, false
	}
	tag := sql[start : i+1]
	rest := sql[i+1:]
	end := strings.Index(rest, tag)
	if end == -1 {
		return n, true
	}
	return i + 1 + end + len(tag), true
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}
