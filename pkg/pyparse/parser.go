package pyparse

import (
	"github.com/PaulM5406/pytest-diff/pkg/checksum"
	engerrors "github.com/PaulM5406/pytest-diff/pkg/common/errors"
	"github.com/PaulM5406/pytest-diff/pkg/types"
)

type stmtKind int

const (
	stmtOther stmtKind = iota
	stmtFunctionDef
	stmtAsyncFunctionDef
	stmtClassDef
)

// stmtNode is one parsed statement, at any nesting depth. declStart
// includes any decorator lines; headerStart is the line of the keyword
// itself (def/class/async def, or the first line of any other
// statement); headerEnd is the last line of the header/signature (the
// line whose code ends in ':', for a compound statement); end is the
// last line of the whole statement including its body. children holds
// nested statements for any compound statement, not only def/class —
// this is what lets block extraction descend into if/for/while/with/try
// bodies looking for nested definitions.
type stmtNode struct {
	kind        stmtKind
	name        string
	declStart   int
	headerStart int
	headerEnd   int
	end         int
	children    []*stmtNode
}

// ParseModule extracts every Block in source: the whole-module block
// first (whose checksum is computed over a skeleton with callable and
// class bodies folded to their signatures), followed by one Block per
// class, function, and async function, in the order they're
// encountered by a depth-first walk of the source.
func ParseModule(source string) ([]types.Block, error) {
	lines := splitLines(source)
	n := len(lines)

	top, _, err := parseBlockAt(lines, 1, n, 0)
	if err != nil {
		return nil, err
	}

	endLine := n
	if endLine < 1 {
		endLine = 1
	}

	blocks := make([]types.Block, 0, len(top)+1)
	blocks = append(blocks, types.Block{
		Name:          types.ModuleBlockName,
		BlockType:     types.BlockModule,
		StartLine:     1,
		BodyStartLine: 1,
		EndLine:       endLine,
		Checksum:      checksum.Of(moduleSkeleton(lines, top)),
	})

	appendBlocks(&blocks, lines, top)
	return blocks, nil
}

// parseBlockAt parses the run of statements starting at `start` that sit
// at one consistent indentation level no shallower than `floor`, the
// indentation of the construct (if any) that opened this block. It
// stops at the first line dedented below that level, or at EOF, and
// returns the index of the first unconsumed line.
func parseBlockAt(lines []string, start, n, floor int) ([]*stmtNode, int, error) {
	i := start
	var nodes []*stmtNode
	established := -1

	for i <= n {
		if isBlankOrComment(lines[i-1]) {
			i++
			continue
		}
		cur := indentOf(lines[i-1])
		if cur < floor {
			break
		}
		if established == -1 {
			established = cur
		} else if cur < established {
			break
		}

		node, next, err := parseOneStatement(lines, i, n, established)
		if err != nil {
			return nil, 0, err
		}
		nodes = append(nodes, node)
		i = next
	}

	return nodes, i, nil
}

// parseOneStatement parses a single statement (its decorators, header,
// and body if any) starting at line i, which is known to sit at the
// given indentation.
func parseOneStatement(lines []string, i, n, indent int) (*stmtNode, int, error) {
	declStart := i
	for i <= n && isDecoratorLine(lines[i-1]) {
		i++
		for i <= n && isBlankOrComment(lines[i-1]) {
			i++
		}
	}
	if i > n {
		return nil, 0, engerrors.Parse("", nil, "decorator at line %d not followed by a statement", declStart)
	}

	headerStart := i
	kind, name := classifyHeader(lines[i-1])

	end, err := scanLogicalExtent(lines, i)
	if err != nil {
		return nil, 0, err
	}

	node := &stmtNode{
		kind:        kind,
		name:        name,
		declStart:   declStart,
		headerStart: headerStart,
		headerEnd:   end,
	}

	if !endsWithColon(lines, end) {
		node.end = end
		return node, end + 1, nil
	}

	childIndent := indentOf(lines[headerStart-1]) + 1
	children, next, err := parseBlockAt(lines, end+1, n, childIndent)
	if err != nil {
		return nil, 0, err
	}
	node.children = children
	if len(children) > 0 {
		node.end = children[len(children)-1].end
	} else {
		node.end = end
	}
	return node, next, nil
}

// appendBlocks walks the statement tree depth-first, emitting a Block
// for every class, function, and async function (at any nesting depth)
// and recursing into every statement's children regardless of its kind,
// so nested definitions inside if/for/while/with/try bodies are found.
func appendBlocks(blocks *[]types.Block, lines []string, nodes []*stmtNode) {
	for _, s := range nodes {
		switch s.kind {
		case stmtFunctionDef, stmtAsyncFunctionDef, stmtClassDef:
			blockType := types.BlockFunction
			bodyStart := s.headerEnd + 1
			switch s.kind {
			case stmtAsyncFunctionDef:
				blockType = types.BlockAsyncFunction
			case stmtClassDef:
				blockType = types.BlockClass
				bodyStart = s.headerStart
			}
			if bodyStart > s.end {
				bodyStart = s.end
			}
			*blocks = append(*blocks, types.Block{
				Name:          s.name,
				BlockType:     blockType,
				StartLine:     s.declStart,
				BodyStartLine: bodyStart,
				EndLine:       s.end,
				Checksum:      checksum.Of(joinLines(lines, s.declStart, s.end)),
			})
		}
		appendBlocks(blocks, lines, s.children)
	}
}

// moduleSkeleton reconstructs the module's top-level statements with
// every class, function, and async function body replaced by its
// signature lines only (decorators through the header's terminating
// colon). Every other top-level statement — including an if/for/while
// block, body and any definitions nested inside it — is included in
// full. Only top-level statements are special-cased this way; a nested
// def inside a top-level if-block is not reduced, matching the original
// implementation this was ported from.
func moduleSkeleton(lines []string, top []*stmtNode) string {
	parts := make([]string, 0, len(top))
	for _, s := range top {
		switch s.kind {
		case stmtFunctionDef, stmtAsyncFunctionDef, stmtClassDef:
			parts = append(parts, joinLines(lines, s.declStart, s.headerEnd))
		default:
			parts = append(parts, joinLines(lines, s.declStart, s.end))
		}
	}
	skeleton := ""
	for idx, p := range parts {
		if idx > 0 {
			skeleton += "\n"
		}
		skeleton += p
	}
	return skeleton
}
