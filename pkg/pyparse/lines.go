package pyparse

import "strings"

// splitLines mirrors Rust's str::lines(): splits on "\n", strips a trailing
// "\r" from each line, and never yields a trailing empty element for a
// source that ends in a newline. An empty source yields zero lines.
func splitLines(source string) []string {
	if source == "" {
		return nil
	}
	hadTrailingNewline := strings.HasSuffix(source, "\n")
	parts := strings.Split(source, "\n")
	if hadTrailingNewline {
		parts = parts[:len(parts)-1]
	}
	for i, p := range parts {
		parts[i] = strings.TrimSuffix(p, "\r")
	}
	return parts
}

// joinLines returns the 1-indexed, inclusive span lines[start..end] joined
// by "\n", clamped to the slice's bounds.
func joinLines(lines []string, start, end int) string {
	if start < 1 {
		start = 1
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start > end {
		return ""
	}
	return strings.Join(lines[start-1:end], "\n")
}

// indentOf returns the number of leading space/tab characters on a line.
func indentOf(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

func isBlankOrComment(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed == "" || strings.HasPrefix(trimmed, "#")
}

func isDecoratorLine(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " \t"), "@")
}

// stripTrailingComment returns line with any unquoted trailing "#...''
// comment removed, tracking single- and double-quoted string state with
// backslash-escape awareness. It does not track triple-quoted strings:
// signature and compound-statement header lines essentially never embed
// one, and this matches the simplification the distilled spec's own
// algorithm makes for the same reason.
func stripTrailingComment(line string) string {
	b := []byte(line)
	inSingle, inDouble := false, false
	i := 0
	for i < len(b) {
		ch := b[i]
		if (inSingle || inDouble) && ch == '\\' {
			i += 2
			continue
		}
		switch {
		case ch == '\'' && !inDouble:
			inSingle = !inSingle
		case ch == '"' && !inSingle:
			inDouble = !inDouble
		case ch == '#' && !inSingle && !inDouble:
			return strings.TrimRight(string(b[:i]), " \t")
		}
		i++
	}
	return line
}

// endsWithColon reports whether the comment-stripped, right-trimmed code
// on the given 1-indexed line ends with ':'. This is how a statement is
// recognized as a compound header awaiting a body, regardless of which
// keyword (if any) introduces it.
func endsWithColon(lines []string, lineIdx int) bool {
	if lineIdx < 1 || lineIdx > len(lines) {
		return false
	}
	code := stripTrailingComment(strings.TrimRight(lines[lineIdx-1], " \t\r"))
	code = strings.TrimRight(code, " \t")
	return strings.HasSuffix(code, ":")
}

func parseName(rest string) string {
	i := 0
	for i < len(rest) {
		ch := rest[i]
		if ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			i++
			continue
		}
		break
	}
	return rest[:i]
}

// classifyHeader identifies a def/async def/class header and its name.
// Everything else (if/for/while/with/try/elif/else/except/finally, async
// for/with, or a simple statement) is stmtOther — its compound-or-simple
// nature is decided later purely by endsWithColon, not by keyword.
func classifyHeader(line string) (stmtKind, string) {
	trimmed := strings.TrimLeft(line, " \t")
	switch {
	case strings.HasPrefix(trimmed, "async def "):
		return stmtAsyncFunctionDef, parseName(trimmed[len("async def "):])
	case strings.HasPrefix(trimmed, "def "):
		return stmtFunctionDef, parseName(trimmed[len("def "):])
	case strings.HasPrefix(trimmed, "class "):
		return stmtClassDef, parseName(trimmed[len("class "):])
	case trimmed == "class" || strings.HasPrefix(trimmed, "class:") || strings.HasPrefix(trimmed, "class("):
		return stmtClassDef, parseName(strings.TrimPrefix(trimmed, "class"))
	default:
		return stmtOther, ""
	}
}

func hasPrefixAt(b []byte, i int, s string) bool {
	if i+len(s) > len(b) {
		return false
	}
	return string(b[i:i+len(s)]) == s
}
