package compiler

import (
	"context"
	"strconv"
	"strings"

	"github.com/roach88/folio/internal/ir"
)

const (
	// DefaultWidth is the default line width in runes.
	DefaultWidth = 72

	// DefaultLinesPerPage is the default page height in lines.
	DefaultLinesPerPage = 40

	// unknown is rendered for introspected values not known yet.
	unknown = "??"
)

// LayoutOptions configures the typesetter. Zero fields take defaults.
type LayoutOptions struct {
	Width        int
	LinesPerPage int
}

func (o LayoutOptions) withDefaults() LayoutOptions {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.LinesPerPage <= 0 {
		o.LinesPerPage = DefaultLinesPerPage
	}
	return o
}

// Pass is the outcome of one layout pass.
type Pass struct {
	Document      *ir.Document
	Introspection *Introspection
	Constraint    *Constraint
}

// Typesetter lays resolved content out into fixed-size text pages.
type Typesetter struct {
	opts LayoutOptions
}

// NewTypesetter creates a typesetter.
func NewTypesetter(opts LayoutOptions) *Typesetter {
	return &Typesetter{opts: opts.withDefaults()}
}

// Options returns the effective options.
func (t *Typesetter) Options() LayoutOptions {
	return t.opts
}

// Layout runs one pass over content. Introspected values ({pages},
// {final:n}, @label) are read from state and recorded in the pass's
// constraint.
func (t *Typesetter) Layout(ctx context.Context, content *Content, state *Introspection) (*Pass, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l := &layout{
		opts:     t.opts,
		state:    state,
		c:        &Constraint{},
		labels:   map[string]int{},
		counters: map[string]int{},
	}
	for i := range content.Blocks {
		l.block(&content.Blocks[i])
	}
	l.finish()

	doc := &ir.Document{Title: content.Title}
	for i, lines := range l.pages {
		doc.Pages = append(doc.Pages, ir.Page{Number: i + 1, Lines: lines})
	}
	return &Pass{
		Document:      doc,
		Introspection: NewIntrospection(len(l.pages), l.labels, l.counters),
		Constraint:    l.c,
	}, nil
}

type layout struct {
	opts  LayoutOptions
	state *Introspection
	c     *Constraint

	pages    [][]string
	cur      []string
	labels   map[string]int
	counters map[string]int
}

// page returns the page the next non-blank line will land on.
func (l *layout) page() int {
	if len(l.cur) >= l.opts.LinesPerPage {
		return len(l.pages) + 2
	}
	return len(l.pages) + 1
}

func (l *layout) line(s string) {
	if len(l.cur) >= l.opts.LinesPerPage {
		l.breakPage()
	}
	if s == "" && len(l.cur) == 0 {
		return
	}
	l.cur = append(l.cur, s)
}

func (l *layout) breakPage() {
	for len(l.cur) > 0 && l.cur[len(l.cur)-1] == "" {
		l.cur = l.cur[:len(l.cur)-1]
	}
	if len(l.cur) == 0 {
		return
	}
	l.pages = append(l.pages, l.cur)
	l.cur = nil
}

func (l *layout) finish() {
	l.breakPage()
	if len(l.pages) == 0 {
		l.pages = [][]string{{}}
	}
}

func (l *layout) block(b *Block) {
	switch b.Kind {
	case BlockHeading:
		text := b.Number + " " + l.render(b.Inline)
		if b.Name != "" {
			l.labels[b.Name] = l.page()
		}
		for _, s := range wrap(text, l.opts.Width) {
			l.line(s)
		}
		l.line("")
	case BlockPara, BlockImage:
		for _, s := range wrap(l.render(b.Inline), l.opts.Width) {
			l.line(s)
		}
		l.line("")
	case BlockLine:
		for _, s := range breakLine(l.render(b.Inline), l.opts.Width) {
			l.line(s)
		}
	case BlockStep:
		l.counters[b.Name]++
	case BlockLabel:
		l.labels[b.Name] = l.page()
	case BlockPageBreak:
		l.breakPage()
	}
}

func (l *layout) render(in Inline) string {
	var sb strings.Builder
	for _, seg := range in {
		switch seg.Kind {
		case SegText:
			sb.WriteString(seg.Text)
		case SegPage:
			sb.WriteString(strconv.Itoa(l.page()))
		case SegPages:
			sb.WriteString(known(l.c.Pages(l.state)))
		case SegRef:
			sb.WriteString(known(l.c.Label(l.state, seg.Text)))
		case SegCounter:
			sb.WriteString(strconv.Itoa(l.counters[seg.Text]))
		case SegFinal:
			sb.WriteString(known(l.c.Counter(l.state, seg.Text)))
		}
	}
	return sb.String()
}

func known(v int, ok bool) string {
	if !ok {
		return unknown
	}
	return strconv.Itoa(v)
}
