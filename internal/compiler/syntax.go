package compiler

// NodeKind identifies a parsed line construct.
type NodeKind int

const (
	NodeHeading NodeKind = iota
	NodePara
	NodeInclude
	NodeLines
	NodeMeta
	NodeImage
	NodeStep
	NodeLabel
	NodePageBreak
	NodeIf
)

// String returns the directive or construct name.
func (k NodeKind) String() string {
	switch k {
	case NodeHeading:
		return "heading"
	case NodePara:
		return "paragraph"
	case NodeInclude:
		return "include"
	case NodeLines:
		return "lines"
	case NodeMeta:
		return "meta"
	case NodeImage:
		return "image"
	case NodeStep:
		return "step"
	case NodeLabel:
		return "label"
	case NodePageBreak:
		return "pagebreak"
	case NodeIf:
		return "if"
	default:
		return "unknown"
	}
}

// Node is one parsed construct of a source file.
//
// Which fields are meaningful depends on Kind:
//   - Heading: Level, Inline, Label
//   - Para: Inline
//   - Include, Lines, Meta, Image: Arg (the quoted path)
//   - Step, Label: Arg (the counter or label name)
//   - If: Cond, Then, Else
type Node struct {
	Kind   NodeKind
	Line   int // 1-based line of the construct's first line
	Level  int
	Inline Inline
	Label  string
	Arg    string
	Cond   *Expr
	Then   []Node
	Else   []Node
}

// SegmentKind identifies a piece of inline text.
type SegmentKind int

const (
	// SegText is literal text.
	SegText SegmentKind = iota
	// SegVar is a {name} placeholder resolved from meta variables.
	SegVar
	// SegExpr is a {= expr} placeholder evaluated with CEL.
	SegExpr
	// SegToday is the {today} placeholder.
	SegToday
	// SegRef is an @label reference to the page a label lands on.
	SegRef
	// SegPage is the {page} placeholder.
	SegPage
	// SegPages is the {pages} placeholder.
	SegPages
	// SegCounter is a {counter:name} placeholder (running value).
	SegCounter
	// SegFinal is a {final:name} placeholder (value at the end of the document).
	SegFinal
)

// Segment is one piece of inline text. Text holds the literal text, the
// variable name, the label or the counter name depending on Kind.
type Segment struct {
	Kind SegmentKind
	Text string
	Expr *Expr
	Col  int // 1-based column in the source line
}

// Inline is a sequence of segments forming one logical line of text.
type Inline []Segment

// Static reports whether the inline contains only literal text.
func (in Inline) Static() bool {
	for _, s := range in {
		if s.Kind != SegText {
			return false
		}
	}
	return true
}

// PlainText concatenates the literal segments, skipping placeholders.
func (in Inline) PlainText() string {
	var out []byte
	for _, s := range in {
		if s.Kind == SegText {
			out = append(out, s.Text...)
		}
	}
	return string(out)
}
