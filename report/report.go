// Package report provides the hierarchical document model that review
// output is assembled into. A document is an append-only tree of nodes;
// rendering is a pure depth-first traversal, so the same tree always
// renders to the same text.
package report

import (
	"strings"
)

// Kind identifies how a node is rendered.
type Kind int

const (
	// KindHeader renders its label between two full-width '=' rules.
	KindHeader Kind = iota
	// KindSection renders a blank line and its label, then its children.
	KindSection
	// KindBox renders its children between two full-width '-' rules.
	KindBox
	// KindLine renders its label verbatim followed by a newline.
	KindLine
)

// Tags applied to diff lines so downstream consumers can highlight them.
const (
	TagAddition = "add"
	TagRemoval  = "del"
)

// ruleWidth is the width of the '=' and '-' separator rules.
const ruleWidth = 80

// Node is one element of the report tree. Children are rendered in
// insertion order and are never reordered or removed once appended.
type Node struct {
	Kind     Kind
	Label    string
	Tag      string
	Children []*Node
}

// Document is the root of a report tree. The root is a Header node; every
// builder method appends below it. A Document is built once per request
// and discarded after rendering.
type Document struct {
	root *Node
}

// NewDocument creates a document whose root header carries the given title.
func NewDocument(title string) *Document {
	return &Document{root: &Node{Kind: KindHeader, Label: title}}
}

// Root returns the root node so callers can append directly beneath it.
func (d *Document) Root() *Node {
	return d.root
}

// AddHeader appends a header node below the root.
func (d *Document) AddHeader(text string) *Node {
	return d.root.AddHeader(text)
}

// AddSection appends a section node below the root.
func (d *Document) AddSection(label string) *Node {
	return d.root.AddSection(label)
}

// AddBoxContent appends a box node below the root.
func (d *Document) AddBoxContent(text string) *Node {
	return d.root.AddBoxContent(text)
}

// AddDiffContent appends a diff box below the root.
func (d *Document) AddDiffContent(patch string) *Node {
	return d.root.AddDiffContent(patch)
}

// AddLine appends a plain line below the root.
func (d *Document) AddLine(text string) *Node {
	return d.root.AddLine(text)
}

// Render produces the final text. It does not mutate the tree, so calling
// it repeatedly yields identical output.
func (d *Document) Render() string {
	var b strings.Builder
	renderNode(&b, d.root)
	return b.String()
}

// AddHeader appends a header child and returns it.
func (n *Node) AddHeader(text string) *Node {
	return n.append(&Node{Kind: KindHeader, Label: text})
}

// AddSection appends a section child and returns it so further content can
// be nested under it.
func (n *Node) AddSection(label string) *Node {
	return n.append(&Node{Kind: KindSection, Label: label})
}

// AddBoxContent appends a box child holding one line node per line of text.
func (n *Node) AddBoxContent(text string) *Node {
	box := &Node{Kind: KindBox}
	for _, line := range splitLines(text) {
		box.Children = append(box.Children, &Node{Kind: KindLine, Label: line})
	}
	return n.append(box)
}

// AddDiffContent appends a box of diff lines, tagging additions and
// removals by their leading '+'/'-' so downstream renderers can highlight
// them. Hunk headers and context lines carry no tag.
func (n *Node) AddDiffContent(patch string) *Node {
	box := &Node{Kind: KindBox}
	for _, line := range splitLines(patch) {
		child := &Node{Kind: KindLine, Label: line}
		switch {
		case strings.HasPrefix(line, "+"):
			child.Tag = TagAddition
		case strings.HasPrefix(line, "-"):
			child.Tag = TagRemoval
		}
		box.Children = append(box.Children, child)
	}
	return n.append(box)
}

// AddLine appends a single line child and returns it.
func (n *Node) AddLine(text string) *Node {
	return n.append(&Node{Kind: KindLine, Label: text})
}

func (n *Node) append(child *Node) *Node {
	n.Children = append(n.Children, child)
	return child
}

func renderNode(b *strings.Builder, n *Node) {
	switch n.Kind {
	case KindHeader:
		writeRule(b, '=')
		b.WriteString(n.Label)
		b.WriteByte('\n')
		writeRule(b, '=')
		renderChildren(b, n)
	case KindSection:
		b.WriteByte('\n')
		b.WriteString(n.Label)
		b.WriteByte('\n')
		renderChildren(b, n)
	case KindBox:
		writeRule(b, '-')
		renderChildren(b, n)
		writeRule(b, '-')
	case KindLine:
		b.WriteString(n.Label)
		b.WriteByte('\n')
	}
}

func renderChildren(b *strings.Builder, n *Node) {
	for _, child := range n.Children {
		renderNode(b, child)
	}
}

func writeRule(b *strings.Builder, ch byte) {
	for i := 0; i < ruleWidth; i++ {
		b.WriteByte(ch)
	}
	b.WriteByte('\n')
}

// splitLines splits text into lines without keeping a trailing empty line
// caused by a final newline.
func splitLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}
