package compiler

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"github.com/roach88/folio/internal/vfs"
)

// BlockKind identifies a resolved layout block.
type BlockKind int

const (
	BlockHeading BlockKind = iota
	BlockPara
	BlockLine
	BlockImage
	BlockStep
	BlockLabel
	BlockPageBreak
)

// Block is one unit of resolved content. Inline holds only literal text
// and the segments that depend on layout.
type Block struct {
	Kind   BlockKind
	Level  int
	Number string
	Inline Inline
	Name   string
	Span   Span
}

// Content is the result of resolving a document. It does not depend on
// introspection, so it is computed once per build.
type Content struct {
	Main    vfs.ID
	Title   string
	Blocks  []Block
	Labels  map[string]Span
	Sources []vfs.ID
	Files   []vfs.ID
}

// Evaluate resolves the main source of w and everything it pulls in.
//
// The returned error is a Diagnostics value listing every hard error found.
func Evaluate(ctx context.Context, w World) (*Content, error) {
	main := w.Main()
	e := &evaluator{
		ctx:     ctx,
		w:       w,
		today:   w.Today(),
		vars:    map[string]any{},
		content: &Content{Main: main, Labels: map[string]Span{}},
		sources: map[vfs.ID]bool{},
		files:   map[vfs.ID]bool{},
	}

	src, err := w.Source(ctx, main)
	if err != nil {
		return nil, Diagnostics{Errorf(Span{Path: main.Path}, "failed to load main source: %v", err)}
	}
	e.source(src)

	for _, ref := range e.refs {
		if _, ok := e.content.Labels[ref.name]; !ok {
			e.diags = append(e.diags, Errorf(ref.span, "label <%s> does not exist", ref.name).
				WithHint("define it with #label "+ref.name+" or a heading suffix <"+ref.name+">"))
		}
	}

	if e.diags.HasErrors() {
		return nil, e.diags
	}
	return e.content, nil
}

type labelRef struct {
	name string
	span Span
}

type evaluator struct {
	ctx     context.Context
	w       World
	today   time.Time
	vars    map[string]any
	content *Content
	diags   Diagnostics

	stack   []vfs.ID
	sources map[vfs.ID]bool
	files   map[vfs.ID]bool
	numbers [MaxHeadingLevel]int
	refs    []labelRef
}

func (e *evaluator) errorf(span Span, format string, args ...any) {
	e.diags = append(e.diags, Errorf(span, format, args...))
}

func (e *evaluator) source(src *Source) {
	id := src.ID()
	if !e.sources[id] {
		e.sources[id] = true
		e.content.Sources = append(e.content.Sources, id)
	}
	if src.Diagnostics().HasErrors() {
		e.diags = append(e.diags, src.Diagnostics()...)
		return
	}
	e.stack = append(e.stack, id)
	defer func() { e.stack = e.stack[:len(e.stack)-1] }()
	e.nodes(src, src.Nodes())
}

func (e *evaluator) nodes(src *Source, nodes []Node) {
	for i := range nodes {
		e.node(src, &nodes[i])
	}
}

func (e *evaluator) node(src *Source, n *Node) {
	span := Span{Path: src.ID().Path, Line: n.Line}
	switch n.Kind {
	case NodeHeading:
		e.numbers[n.Level-1]++
		for i := n.Level; i < len(e.numbers); i++ {
			e.numbers[i] = 0
		}
		parts := make([]string, n.Level)
		for i := range parts {
			parts[i] = strconv.Itoa(e.numbers[i])
		}
		in := e.inline(span, n.Inline)
		if n.Level == 1 && e.content.Title == "" {
			e.content.Title = strings.TrimSpace(in.PlainText())
		}
		if n.Label != "" {
			e.define(n.Label, span)
		}
		e.emit(Block{Kind: BlockHeading, Level: n.Level, Number: strings.Join(parts, "."), Inline: in, Name: n.Label, Span: span})

	case NodePara:
		e.emit(Block{Kind: BlockPara, Inline: e.inline(span, n.Inline), Span: span})

	case NodeInclude:
		target := src.ID().Resolve(n.Arg)
		if i := slices.Index(e.stack, target); i >= 0 {
			chain := make([]string, 0, len(e.stack)-i+1)
			for _, id := range e.stack[i:] {
				chain = append(chain, id.String())
			}
			chain = append(chain, target.String())
			e.diags = append(e.diags, Errorf(span, "cyclic include of %s", target).
				WithHint("include chain: "+strings.Join(chain, " -> ")))
			return
		}
		inc, err := e.w.Source(e.ctx, target)
		if err != nil {
			e.errorf(span, "failed to include %s: %v", target, err)
			return
		}
		e.source(inc)

	case NodeLines:
		target := src.ID().Resolve(n.Arg)
		data, ok := e.file(span, target)
		if !ok {
			return
		}
		if !utf8.Valid(data) {
			e.errorf(span, "%v", &vfs.FileError{Kind: vfs.KindInvalidUTF8, Path: target.Path})
			return
		}
		text := strings.ReplaceAll(norm.NFC.String(string(data)), "\r\n", "\n")
		text = strings.TrimSuffix(text, "\n")
		if text == "" {
			return
		}
		for _, line := range strings.Split(text, "\n") {
			e.emit(Block{Kind: BlockLine, Inline: Inline{{Kind: SegText, Text: line}}, Span: span})
		}

	case NodeMeta:
		target := src.ID().Resolve(n.Arg)
		data, ok := e.file(span, target)
		if !ok {
			return
		}
		var meta map[string]any
		if err := yaml.Unmarshal(data, &meta); err != nil {
			e.errorf(span, "invalid meta file %s: %v", target, err)
			return
		}
		maps.Copy(e.vars, meta)

	case NodeImage:
		target := src.ID().Resolve(n.Arg)
		data, ok := e.file(span, target)
		if !ok {
			return
		}
		text := fmt.Sprintf("[image %s, %d bytes]", target.Path, len(data))
		e.emit(Block{Kind: BlockImage, Inline: Inline{{Kind: SegText, Text: text}}, Span: span})

	case NodeStep:
		e.emit(Block{Kind: BlockStep, Name: n.Arg, Span: span})

	case NodeLabel:
		e.define(n.Arg, span)
		e.emit(Block{Kind: BlockLabel, Name: n.Arg, Span: span})

	case NodePageBreak:
		e.emit(Block{Kind: BlockPageBreak, Span: span})

	case NodeIf:
		ok, err := n.Cond.EvalBool(e.vars)
		if err != nil {
			e.errorf(span, "condition %q: %v", n.Cond.Source, err)
			return
		}
		if ok {
			e.nodes(src, n.Then)
		} else {
			e.nodes(src, n.Else)
		}
	}
}

func (e *evaluator) emit(b Block) {
	e.content.Blocks = append(e.content.Blocks, b)
}

func (e *evaluator) file(span Span, id vfs.ID) ([]byte, bool) {
	if !e.files[id] {
		e.files[id] = true
		e.content.Files = append(e.content.Files, id)
	}
	data, err := e.w.File(e.ctx, id)
	if err != nil {
		if vfs.KindOf(err) == vfs.KindIo {
			// Already reads "failed to read <path>: ...".
			e.errorf(span, "%v", err)
		} else {
			e.errorf(span, "failed to read %s: %v", id, err)
		}
		return nil, false
	}
	return data, true
}

func (e *evaluator) define(name string, span Span) {
	if prev, ok := e.content.Labels[name]; ok {
		e.diags = append(e.diags, Errorf(span, "label <%s> is defined more than once", name).
			WithHint("previous definition at "+prev.String()))
		return
	}
	e.content.Labels[name] = span
}

// inline resolves the static placeholders of in.
func (e *evaluator) inline(span Span, in Inline) Inline {
	var out Inline
	for _, seg := range in {
		at := span
		at.Col = seg.Col
		switch seg.Kind {
		case SegText:
			out = appendText(out, seg.Text, seg.Col)
		case SegVar:
			v, ok := lookupVar(e.vars, seg.Text)
			if !ok {
				e.errorf(at, "unknown variable {%s}", seg.Text)
				continue
			}
			out = appendText(out, formatValue(v), seg.Col)
		case SegExpr:
			v, err := seg.Expr.Eval(e.vars)
			if err != nil {
				e.errorf(at, "expression %q: %v", seg.Text, err)
				continue
			}
			out = appendText(out, formatValue(v), seg.Col)
		case SegToday:
			out = appendText(out, e.today.Format(time.DateOnly), seg.Col)
		case SegRef:
			e.refs = append(e.refs, labelRef{name: seg.Text, span: at})
			out = append(out, seg)
		default:
			out = append(out, seg)
		}
	}
	return out
}

func lookupVar(vars map[string]any, path string) (any, bool) {
	var cur any = vars
	for part := range strings.SplitSeq(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}
