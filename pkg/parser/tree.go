package parser

import (
	"regexp"
	"slices"
	"strings"
)

// BlockID addresses a block inside a Tree.
type BlockID int

const (
	// Root is the file-scope block of every tree.
	Root BlockID = 0
	// NoBlock is the parent of the root.
	NoBlock BlockID = -1
)

// Block is one brace-delimited scope: the statement before its opening brace,
// the statements it directly contains, and its nested blocks.
type Block struct {
	Leading    string
	Statements []string
	Children   []BlockID
	Parent     BlockID
}

// Tree is an arena of blocks. Parent and child links are indices into the
// arena, so the tree holds no pointer cycles. A Tree is never modified after
// Build returns.
type Tree struct {
	blocks []Block
}

// structural splits normalized text into statement pieces. Empty pieces are
// kept so that the n-th piece always belongs to the n-th structural character.
var structural = regexp.MustCompile(`[;{}]`)

// Build scans normalized, line-break-free text and returns its block tree.
// Unbalanced closing braces never ascend past the root.
func Build(text string) *Tree {
	pieces := structural.Split(text, -1)
	t := &Tree{
		blocks: []Block{{Leading: strings.TrimSpace(pieces[0]), Parent: NoBlock}},
	}

	stack := []BlockID{Root}
	cursor := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c != ';' && c != '{' && c != '}' {
			continue
		}
		var piece string
		if cursor < len(pieces) {
			piece = pieces[cursor]
			cursor++
		}
		stack = t.step(stack, c, strings.TrimSpace(piece))
	}
	return t
}

// step applies one structural character to the tree and returns the new
// block stack.
func (t *Tree) step(stack []BlockID, c byte, statement string) []BlockID {
	current := stack[len(stack)-1]
	switch c {
	case '{':
		child := BlockID(len(t.blocks))
		t.blocks = append(t.blocks, Block{Leading: statement, Parent: current})
		t.blocks[current].Children = append(t.blocks[current].Children, child)
		return append(stack, child)
	case '}':
		t.addStatement(current, statement)
		if len(stack) > 1 {
			return stack[:len(stack)-1]
		}
		return stack
	default:
		t.addStatement(current, statement)
		return stack
	}
}

func (t *Tree) addStatement(id BlockID, statement string) {
	if statement == "" {
		return
	}
	t.blocks[id].Statements = append(t.blocks[id].Statements, statement)
}

// Len returns the number of blocks, root included.
func (t *Tree) Len() int {
	return len(t.blocks)
}

// Block returns a copy of the block with the given id.
func (t *Tree) Block(id BlockID) Block {
	b := t.blocks[id]
	b.Statements = slices.Clone(b.Statements)
	b.Children = slices.Clone(b.Children)
	return b
}

// Leading returns the statement preceding the block's opening brace.
func (t *Tree) Leading(id BlockID) string {
	return t.blocks[id].Leading
}

// Statements returns the statements directly contained in the block.
func (t *Tree) Statements(id BlockID) []string {
	return slices.Clone(t.blocks[id].Statements)
}

// Children returns the ids of the block's nested blocks in document order.
func (t *Tree) Children(id BlockID) []BlockID {
	return slices.Clone(t.blocks[id].Children)
}

// Parent returns the enclosing block, or NoBlock for the root.
func (t *Tree) Parent(id BlockID) BlockID {
	return t.blocks[id].Parent
}

// Depth returns the number of ancestors of a block.
func (t *Tree) Depth(id BlockID) int {
	depth := 0
	for p := t.blocks[id].Parent; p != NoBlock; p = t.blocks[p].Parent {
		depth++
	}
	return depth
}

// Walk visits blocks in pre-order. Returning false from fn skips the block's
// subtree.
func (t *Tree) Walk(fn func(id BlockID, depth int) bool) {
	t.walk(Root, 0, fn)
}

func (t *Tree) walk(id BlockID, depth int, fn func(BlockID, int) bool) {
	if !fn(id, depth) {
		return
	}
	for _, child := range t.blocks[id].Children {
		t.walk(child, depth+1, fn)
	}
}

// NumStatements counts the statements in the subtree rooted at id.
func (t *Tree) NumStatements(id BlockID) int {
	n := len(t.blocks[id].Statements)
	for _, child := range t.blocks[id].Children {
		n += t.NumStatements(child)
	}
	return n
}
