package pyparse

import (
	"strings"

	engerrors "github.com/PaulM5406/pytest-diff/pkg/common/errors"
)

type stringMode int

const (
	strNone stringMode = iota
	strSingle
	strDouble
	strTripleSingle
	strTripleDouble
)

// scanLogicalExtent finds the last physical line (1-indexed) of the
// logical statement beginning at `start`, tracking paren/bracket/brace
// depth and string-literal state (single, double, and triple quoted, with
// backslash escapes) across physical lines, and honoring an explicit
// trailing backslash as a line continuation. A logical line ends at the
// first line where, outside any string, all three bracket depths return
// to zero and the line doesn't end in a continuation backslash.
func scanLogicalExtent(lines []string, start int) (int, error) {
	parenDepth, bracketDepth, braceDepth := 0, 0, 0
	mode := strNone
	n := len(lines)

	for idx := start; idx <= n; idx++ {
		b := []byte(lines[idx-1])
		i := 0
		for i < len(b) {
			switch mode {
			case strTripleSingle:
				switch {
				case hasPrefixAt(b, i, "\\"):
					i += 2
				case hasPrefixAt(b, i, "'''"):
					mode = strNone
					i += 3
				default:
					i++
				}
				continue
			case strTripleDouble:
				switch {
				case hasPrefixAt(b, i, "\\"):
					i += 2
				case hasPrefixAt(b, i, `"""`):
					mode = strNone
					i += 3
				default:
					i++
				}
				continue
			case strSingle:
				switch {
				case hasPrefixAt(b, i, "\\"):
					i += 2
				case b[i] == '\'':
					mode = strNone
					i++
				default:
					i++
				}
				continue
			case strDouble:
				switch {
				case hasPrefixAt(b, i, "\\"):
					i += 2
				case b[i] == '"':
					mode = strNone
					i++
				default:
					i++
				}
				continue
			}

			switch {
			case hasPrefixAt(b, i, "'''"):
				mode = strTripleSingle
				i += 3
			case hasPrefixAt(b, i, `"""`):
				mode = strTripleDouble
				i += 3
			case b[i] == '\'':
				mode = strSingle
				i++
			case b[i] == '"':
				mode = strDouble
				i++
			case b[i] == '#':
				i = len(b)
			case b[i] == '(':
				parenDepth++
				i++
			case b[i] == ')':
				if parenDepth > 0 {
					parenDepth--
				}
				i++
			case b[i] == '[':
				bracketDepth++
				i++
			case b[i] == ']':
				if bracketDepth > 0 {
					bracketDepth--
				}
				i++
			case b[i] == '{':
				braceDepth++
				i++
			case b[i] == '}':
				if braceDepth > 0 {
					braceDepth--
				}
				i++
			default:
				i++
			}
		}

		if mode == strNone && parenDepth == 0 && bracketDepth == 0 && braceDepth == 0 {
			code := stripTrailingComment(strings.TrimRight(lines[idx-1], " \t\r"))
			if strings.HasSuffix(code, "\\") {
				continue
			}
			return idx, nil
		}
	}

	return 0, engerrors.Parse("", nil, "unterminated statement starting at line %d", start)
}
