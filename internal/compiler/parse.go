package compiler

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/roach88/folio/internal/vfs"
)

// MaxHeadingLevel is the deepest heading the parser accepts.
const MaxHeadingLevel = 6

// Parse parses text into nodes. It never fails; problems are reported as
// diagnostics alongside whatever could be parsed.
func Parse(path vfs.VirtualPath, text string) ([]Node, Diagnostics) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	p := &parser{path: path, lines: strings.Split(text, "\n")}
	var nodes []Node
	for {
		more, term := p.block()
		nodes = append(nodes, more...)
		if term == "" {
			return nodes, p.diags
		}
		// Stray terminator: report it and keep going.
		p.errorf(p.pos, 1, "#%s without #if", term)
	}
}

type parser struct {
	path  vfs.VirtualPath
	lines []string
	pos   int // 1-based number of the line last consumed
	diags Diagnostics

	para     Inline
	paraLine int
}

func (p *parser) errorf(line, col int, format string, args ...any) {
	p.diags = append(p.diags, Errorf(Span{Path: p.path, Line: line, Col: col}, format, args...))
}

// block parses lines until EOF or an #else/#end directive, which is
// returned as the terminator ("" at EOF).
func (p *parser) block() ([]Node, string) {
	var nodes []Node
	flush := func() {
		if len(p.para) > 0 {
			nodes = append(nodes, Node{Kind: NodePara, Line: p.paraLine, Inline: p.para})
			p.para = nil
		}
	}

	for p.pos < len(p.lines) {
		p.pos++
		line := p.pos
		raw := p.lines[line-1]
		trimmed := strings.TrimSpace(raw)
		indent := strings.Index(raw, trimmed) + 1

		switch {
		case trimmed == "":
			flush()
		case strings.HasPrefix(trimmed, "//"):
			// comment
		case strings.HasPrefix(trimmed, `\#`), strings.HasPrefix(trimmed, `\=`), strings.HasPrefix(trimmed, `\/`):
			p.text(line, indent+1, trimmed[1:])
		case trimmed[0] == '=':
			flush()
			if n, ok := p.heading(line, indent, trimmed); ok {
				nodes = append(nodes, n)
			}
		case trimmed[0] == '#':
			flush()
			name, arg, _ := strings.Cut(trimmed[1:], " ")
			arg = strings.TrimSpace(arg)
			switch name {
			case "else", "end":
				return nodes, name
			case "if":
				if n, ok := p.conditional(line, arg); ok {
					nodes = append(nodes, n)
				}
			default:
				if n, ok := p.directive(line, name, arg); ok {
					nodes = append(nodes, n)
				}
			}
		default:
			p.text(line, indent, trimmed)
		}
	}
	flush()
	return nodes, ""
}

// text appends one line to the current paragraph.
func (p *parser) text(line, col int, s string) {
	in := p.inline(line, col, s)
	if len(p.para) == 0 {
		p.paraLine = line
		p.para = in
		return
	}
	p.para = appendText(p.para, " ", 0)
	for _, seg := range in {
		if seg.Kind == SegText {
			p.para = appendText(p.para, seg.Text, seg.Col)
		} else {
			p.para = append(p.para, seg)
		}
	}
}

func (p *parser) heading(line, col int, s string) (Node, bool) {
	level := 0
	for level < len(s) && s[level] == '=' {
		level++
	}
	rest := s[level:]
	if rest != "" && rest[0] != ' ' {
		// "==x" is plain text, not a heading.
		p.text(line, col, s)
		return Node{}, false
	}
	if level > MaxHeadingLevel {
		p.errorf(line, col, "heading level %d exceeds maximum of %d", level, MaxHeadingLevel)
		return Node{}, false
	}
	rest = strings.TrimSpace(rest)
	var label string
	if strings.HasSuffix(rest, ">") {
		if i := strings.LastIndex(rest, "<"); i >= 0 {
			candidate := rest[i+1 : len(rest)-1]
			if isIdent(candidate) {
				label = candidate
				rest = strings.TrimSpace(rest[:i])
			}
		}
	}
	if rest == "" {
		p.errorf(line, col, "empty heading")
		return Node{}, false
	}
	textCol := col + strings.Index(s, rest)
	return Node{Kind: NodeHeading, Line: line, Level: level, Inline: p.inline(line, textCol, rest), Label: label}, true
}

func (p *parser) directive(line int, name, arg string) (Node, bool) {
	switch name {
	case "include", "lines", "meta", "image":
		path, err := strconv.Unquote(arg)
		if err != nil || !strings.HasPrefix(arg, `"`) {
			p.errorf(line, 1, "#%s expects a quoted path", name)
			return Node{}, false
		}
		if strings.TrimSpace(path) == "" {
			p.errorf(line, 1, "#%s path is empty", name)
			return Node{}, false
		}
		kinds := map[string]NodeKind{"include": NodeInclude, "lines": NodeLines, "meta": NodeMeta, "image": NodeImage}
		return Node{Kind: kinds[name], Line: line, Arg: path}, true
	case "step", "label":
		if !isIdent(arg) {
			p.errorf(line, 1, "#%s expects a name, got %q", name, arg)
			return Node{}, false
		}
		kind := NodeStep
		if name == "label" {
			kind = NodeLabel
		}
		return Node{Kind: kind, Line: line, Arg: arg}, true
	case "pagebreak":
		if arg != "" {
			p.errorf(line, 1, "#pagebreak takes no argument")
			return Node{}, false
		}
		return Node{Kind: NodePageBreak, Line: line}, true
	default:
		p.errorf(line, 1, "unknown directive #%s", name)
		return Node{}, false
	}
}

func (p *parser) conditional(line int, arg string) (Node, bool) {
	n := Node{Kind: NodeIf, Line: line}
	valid := true
	if arg == "" {
		p.errorf(line, 1, "#if expects a condition")
		valid = false
	} else if expr, err := CompileExpr(arg); err != nil {
		p.errorf(line, 1, "invalid condition: %v", err)
		valid = false
	} else {
		n.Cond = expr
	}

	var term string
	n.Then, term = p.block()
	if term == "else" {
		n.Else, term = p.block()
	}
	if term != "end" {
		p.errorf(line, 1, "unclosed #if")
		valid = false
	}
	return n, valid
}

// inline splits one line of text into segments. col is the 1-based column
// of s[0].
func (p *parser) inline(line, col int, s string) Inline {
	var out Inline
	var buf strings.Builder
	bufCol := col
	emit := func() {
		if buf.Len() > 0 {
			out = appendText(out, buf.String(), bufCol)
			buf.Reset()
		}
	}

	prev := rune(-1)
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		at := col + utf8.RuneCountInString(s[:i])
		if buf.Len() == 0 {
			bufCol = at
		}
		switch {
		case r == '\\' && i+1 < len(s) && strings.ContainsRune(`{}@\`, rune(s[i+1])):
			buf.WriteByte(s[i+1])
			i += 2
			prev = rune(s[i-1])
			continue
		case r == '{':
			end := strings.IndexByte(s[i:], '}')
			if end < 0 {
				p.errorf(line, at, "unclosed placeholder")
				buf.WriteString(s[i:])
				i = len(s)
				continue
			}
			emit()
			if seg, ok := p.placeholder(line, at, s[i+1:i+end]); ok {
				out = append(out, seg)
			}
			i += end + 1
			prev = '}'
			continue
		case r == '@' && !isAlnum(prev):
			j := i + 1
			for j < len(s) && isIdentByte(s[j]) {
				j++
			}
			for j > i+1 && s[j-1] == '-' {
				j--
			}
			if j > i+1 && isIdentStart(s[i+1]) {
				emit()
				out = append(out, Segment{Kind: SegRef, Text: s[i+1 : j], Col: at})
				prev = rune(s[j-1])
				i = j
				continue
			}
		}
		buf.WriteRune(r)
		prev = r
		i += size
	}
	emit()
	return out
}

func (p *parser) placeholder(line, col int, body string) (Segment, bool) {
	body = strings.TrimSpace(body)
	seg := Segment{Col: col}
	switch {
	case strings.HasPrefix(body, "="):
		src := strings.TrimSpace(body[1:])
		expr, err := CompileExpr(src)
		if err != nil {
			p.errorf(line, col, "invalid expression: %v", err)
			return seg, false
		}
		seg.Kind, seg.Text, seg.Expr = SegExpr, src, expr
	case body == "page":
		seg.Kind = SegPage
	case body == "pages":
		seg.Kind = SegPages
	case body == "today":
		seg.Kind = SegToday
	case strings.HasPrefix(body, "counter:"), strings.HasPrefix(body, "final:"):
		kind, name, _ := strings.Cut(body, ":")
		if !isIdent(name) {
			p.errorf(line, col, "invalid counter name %q", name)
			return seg, false
		}
		seg.Kind, seg.Text = SegCounter, name
		if kind == "final" {
			seg.Kind = SegFinal
		}
	case isVarPath(body):
		seg.Kind, seg.Text = SegVar, body
	default:
		p.errorf(line, col, "invalid placeholder {%s}", body)
		return seg, false
	}
	return seg, true
}

// appendText adds literal text, merging with a trailing text segment.
func appendText(in Inline, s string, col int) Inline {
	if n := len(in); n > 0 && in[n-1].Kind == SegText {
		in[n-1].Text += s
		return in
	}
	return append(in, Segment{Kind: SegText, Text: s, Col: col})
}

func isIdentStart(b byte) bool {
	return b == '_' || ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

func isIdentByte(b byte) bool {
	return isIdentStart(b) || ('0' <= b && b <= '9') || b == '-'
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

// isIdent reports whether s is a name: a letter or underscore followed by
// letters, digits, underscores or dashes.
func isIdent(s string) bool {
	if s == "" || !isIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !isIdentByte(s[i]) {
			return false
		}
	}
	return true
}

func isVarPath(s string) bool {
	for part := range strings.SplitSeq(s, ".") {
		if !isIdent(part) {
			return false
		}
	}
	return true
}
