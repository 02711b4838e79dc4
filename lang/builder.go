package lang

import (
	"context"
	"log/slog"
	"maps"
	"strings"

	"github.com/ardnew/typeline/lang/lexer"
	"github.com/ardnew/typeline/lang/token"
)

// builder holds the state shared by every block of one compilation.
type builder struct {
	opts  options
	depth int
}

// block assembles the nodes of one content block from its token stream.
type block struct {
	b      *builder
	lex    *lexer.Lexer
	scope  *Scope
	attrs  map[string]any // paragraph settings for the rest of the block
	peeked *token.Token
	nodes  []*Node // closed block-level nodes
	para   []*Node // inline nodes of the open paragraph
	run    strings.Builder
	mark   *breakMark // output of the last break marker, if nothing followed it
	space  bool       // whitespace is pending before the next inline content
}

// breakMark locates the inline output of a break marker in the open
// paragraph. Nothing has been added after it while para and run still have
// the recorded lengths.
type breakMark struct {
	start int // len(para) before the marker
	end   int // len(para) after the marker
	run   int // run.Len() after the marker
}

// trailing reports whether the marker output is still the last content of
// the open paragraph.
func (m *breakMark) trailing(bl *block) bool {
	return m != nil && len(bl.para) == m.end && bl.run.Len() == m.run
}

// enter increments the nesting depth, failing once it exceeds the limit.
// The returned function restores the previous depth.
func (b *builder) enter(pos token.Position) (func(), error) {
	if b.depth >= b.opts.maxDepth {
		return nil, ErrMaxDepthExceeded.WithPosition(pos).
			With(slog.Int("max_depth", b.opts.maxDepth))
	}

	b.depth++

	return func() { b.depth-- }, nil
}

// build compiles src in scope and returns the block-level nodes together with
// the scope in effect at the end of src.
func (b *builder) build(
	ctx context.Context,
	src string,
	at token.Position,
	scope *Scope,
) ([]*Node, *Scope, error) {
	leave, err := b.enter(at)
	if err != nil {
		return nil, nil, err
	}
	defer leave()

	bl := &block{
		b: b,
		lex: lexer.New(src,
			lexer.WithPosition(at),
			lexer.WithLogger(b.opts.logger),
		),
		scope: scope,
	}

	err = bl.loop(ctx)
	if err != nil {
		return nil, nil, err
	}

	return bl.nodes, bl.scope, nil
}

// content compiles a bracketed content block in a fresh block frame of scope.
func (b *builder) content(
	ctx context.Context,
	src string,
	at token.Position,
	scope *Scope,
) ([]*Node, error) {
	nodes, _, err := b.build(ctx, src, at, scope.Enter())

	return nodes, err
}

// invoke calls fn with the arguments in call.
func (b *builder) invoke(ctx context.Context, fn *Value, call *Call) (*Value, error) {
	leave, err := b.enter(call.Pos)
	if err != nil {
		return nil, err
	}
	defer leave()

	b.opts.logger.TraceContext(ctx, "call",
		slog.String("name", call.Name),
		slog.String("kind", fn.Kind.String()),
		slog.Int("args", len(call.Args)),
		slog.Int("depth", b.depth),
	)

	switch fn.Kind {
	case PrimitiveValue:
		return fn.Primitive(ctx, call)

	case ClosureValue:
		c := fn.Closure

		scope, err := c.enter(call)
		if err != nil {
			return nil, err
		}

		if !c.Markup {
			return b.eval(ctx, c.Body, c.BodyPos, scope)
		}

		nodes, _, err := b.build(ctx, c.Body, c.BodyPos, scope)
		if err != nil {
			return nil, err
		}

		return NewContent(nodes...), nil

	default:
		return nil, ErrNotCallable.WithPosition(call.Pos).
			With(slog.String("name", call.Name))
	}
}

// ---------------------------------------------------------------------------
// Token stream
// ---------------------------------------------------------------------------

func (bl *block) next() token.Token {
	if bl.peeked != nil {
		tok := *bl.peeked
		bl.peeked = nil

		return tok
	}

	return bl.lex.Next()
}

func (bl *block) peek() token.Token {
	if bl.peeked == nil {
		tok := bl.lex.Next()
		bl.peeked = &tok
	}

	return *bl.peeked
}

func (bl *block) loop(ctx context.Context) error {
	for {
		tok := bl.next()

		var err error

		switch tok.Kind {
		case token.EOF:
			bl.closeParagraph(ctx)

			return nil

		case token.Word:
			bl.text(tok.Text)

		case token.Close:
			// A stray bracket outside any block is literal text.
			bl.text(tok.Text)

		case token.Space:
			bl.space = bl.started()

		case token.Escape:
			bl.escape(tok.Text)

		case token.Parbreak:
			bl.closeParagraph(ctx)

		case token.Break:
			err = bl.lineBreak(ctx, tok.Pos)

		case token.Hash:
			err = bl.code(ctx, tok.Pos)
		}

		if err != nil {
			return err
		}
	}
}

// ---------------------------------------------------------------------------
// Paragraph assembly
// ---------------------------------------------------------------------------

// started reports whether the open paragraph has any content.
func (bl *block) started() bool {
	return len(bl.para) > 0 || bl.run.Len() > 0
}

// text appends s to the current text run.
func (bl *block) text(s string) {
	if s == "" {
		return
	}

	if bl.space {
		bl.run.WriteByte(' ')
		bl.space = false
	}

	bl.run.WriteString(s)
}

// escape ends the current text run and starts a new one with the literal
// rune r.
func (bl *block) escape(r string) {
	if bl.space {
		bl.run.WriteByte(' ')
		bl.space = false
	}

	bl.flush()
	bl.run.WriteString(r)
}

func (bl *block) flush() {
	if bl.run.Len() == 0 {
		return
	}

	bl.para = append(bl.para, Text(bl.run.String()))
	bl.run.Reset()
}

// inline appends nodes to the open paragraph.
func (bl *block) inline(nodes ...*Node) {
	if len(nodes) == 0 {
		return
	}

	if bl.space {
		bl.run.WriteByte(' ')
		bl.space = false
	}

	bl.flush()
	bl.para = append(bl.para, nodes...)
}

// closeParagraph emits the open paragraph unless it is empty. Pending
// whitespace is discarded.
func (bl *block) closeParagraph(ctx context.Context) {
	if bl.mark.trailing(bl) {
		bl.b.opts.logger.TraceContext(ctx, "break trimmed",
			slog.Int("nodes", bl.mark.end-bl.mark.start),
		)

		bl.para = bl.para[:bl.mark.start]
		bl.run.Reset()
	}

	bl.mark = nil

	bl.flush()
	bl.space = false

	if len(bl.para) == 0 {
		return
	}

	p := &Node{Kind: ParagraphNode, Children: bl.para}
	if len(bl.attrs) > 0 {
		p.Attrs = maps.Clone(bl.attrs)
	}

	bl.b.opts.logger.TraceContext(ctx, "paragraph",
		slog.Int("children", len(bl.para)),
		slog.Int("index", len(bl.nodes)),
	)

	bl.nodes = append(bl.nodes, p)
	bl.para = nil
}

// blockNode closes the open paragraph and places n at block level. An empty
// paragraph only closes; its settings apply to the rest of the block.
func (bl *block) blockNode(ctx context.Context, n *Node) {
	bl.closeParagraph(ctx)

	if n.Kind == ParagraphNode {
		if len(n.Children) == 0 {
			if len(n.Attrs) > 0 {
				if bl.attrs == nil {
					bl.attrs = make(map[string]any, len(n.Attrs))
				}

				maps.Copy(bl.attrs, n.Attrs)
			}

			return
		}

		n = n.withAttrs(bl.attrs)
	}

	bl.nodes = append(bl.nodes, n)
}

// insert places the result of a call or a referenced value at the cursor.
func (bl *block) insert(ctx context.Context, v *Value) {
	if v == nil {
		return
	}

	switch v.Kind {
	case ContentValue:
		for _, n := range inline(v.Content) {
			if n.IsBlock() {
				bl.blockNode(ctx, n)
			} else {
				bl.inline(n)
			}
		}

	case DataValue:
		bl.text(v.Text())
	}
}

// lineBreak handles a break marker. The marker is dropped when nothing
// follows it in the block or paragraph; otherwise it calls whatever
// linebreak is bound to in the current scope. Its output is removed again
// if the paragraph closes before any other content is added.
func (bl *block) lineBreak(ctx context.Context, pos token.Position) error {
	if k := bl.peek().Kind; k == token.Parbreak || k == token.EOF {
		bl.b.opts.logger.TraceContext(ctx, "break suppressed",
			slog.String("pos", pos.String()),
			slog.String("before", k.String()),
		)

		return nil
	}

	bl.space = false
	bl.flush()

	start, closed := len(bl.para), len(bl.nodes)

	err := bl.reference(ctx, &Call{Name: NameLinebreak, Pos: pos}, false)
	if err != nil {
		return err
	}

	if len(bl.nodes) == closed && (len(bl.para) > start || bl.run.Len() > 0) {
		bl.mark = &breakMark{start: start, end: len(bl.para), run: bl.run.Len()}
	}

	return nil
}

// ---------------------------------------------------------------------------
// Code
// ---------------------------------------------------------------------------

// code handles the construct following a '#'.
func (bl *block) code(ctx context.Context, at token.Position) error {
	lx := bl.lex

	if lx.Accept('(') {
		src, pos, err := lx.Expr("")
		if err != nil {
			return syntaxError(err)
		}

		if !lx.Accept(')') {
			return ErrParse.WithPosition(lx.Position()).
				With(slog.String("expected", ")"))
		}

		v, err := bl.b.eval(ctx, src, pos, bl.scope)
		if err != nil {
			return err
		}

		bl.insert(ctx, v)

		return nil
	}

	name, ok := lx.Ident()
	if !ok {
		return ErrParse.WithPosition(lx.Position()).
			With(slog.String("expected", "identifier"))
	}

	if name == "let" && isInlineSpace(lx.Peek()) {
		return bl.let(ctx, at)
	}

	call, hasArgs, err := bl.arguments(ctx, name, at)
	if err != nil {
		return err
	}

	return bl.reference(ctx, call, hasArgs)
}

// reference resolves call.Name and inserts the result of calling it, or the
// bound value itself if it is not a function.
func (bl *block) reference(ctx context.Context, call *Call, hasArgs bool) error {
	v, err := bl.scope.Resolve(call.Name, call.Pos)
	if err != nil {
		return err
	}

	if !v.Callable() {
		if hasArgs {
			return ErrNotCallable.WithPosition(call.Pos).With(
				slog.String("name", call.Name),
				slog.String("kind", v.Kind.String()),
			)
		}

		bl.insert(ctx, v)

		return nil
	}

	res, err := bl.b.invoke(ctx, v, call)
	if err != nil {
		return err
	}

	bl.insert(ctx, res)

	return nil
}

// arguments parses an optional parenthesized argument list followed by any
// number of trailing content blocks. Content is compiled in the caller's
// scope.
func (bl *block) arguments(
	ctx context.Context,
	name string,
	at token.Position,
) (*Call, bool, error) {
	lx := bl.lex
	call := &Call{Name: name, Pos: at}
	hasArgs := false

	if lx.Accept('(') {
		hasArgs = true

		for {
			lx.SkipSpace()

			if lx.Accept(')') {
				break
			}

			err := bl.argument(ctx, call)
			if err != nil {
				return nil, false, err
			}

			lx.SkipSpace()

			if lx.Accept(',') {
				continue
			}

			if !lx.Accept(')') {
				return nil, false, ErrParse.WithPosition(lx.Position()).
					With(slog.String("expected", ", or )"))
			}

			break
		}
	}

	for lx.Peek() == '[' {
		hasArgs = true

		src, pos, err := lx.Block()
		if err != nil {
			return nil, false, syntaxError(err)
		}

		nodes, err := bl.b.content(ctx, src, pos, bl.scope)
		if err != nil {
			return nil, false, err
		}

		call.Args = append(call.Args, NewContent(nodes...))
	}

	return call, hasArgs, nil
}

// argument parses one entry of an argument list: a content block, a named
// argument "key: expr", or an expression.
func (bl *block) argument(ctx context.Context, call *Call) error {
	lx := bl.lex

	if lx.Peek() == '[' {
		src, pos, err := lx.Block()
		if err != nil {
			return syntaxError(err)
		}

		nodes, err := bl.b.content(ctx, src, pos, bl.scope)
		if err != nil {
			return err
		}

		call.Args = append(call.Args, NewContent(nodes...))

		return nil
	}

	src, pos, err := lx.Expr(",")
	if err != nil {
		return syntaxError(err)
	}

	if src == "" {
		return ErrParse.WithPosition(pos).
			With(slog.String("expected", "argument"))
	}

	key, value, named := splitNamed(src)
	if named {
		v, err := bl.value(ctx, value, pos)
		if err != nil {
			return err
		}

		if call.Named == nil {
			call.Named = make(map[string]*Value)
		}

		call.Named[key] = v

		return nil
	}

	v, err := bl.value(ctx, src, pos)
	if err != nil {
		return err
	}

	call.Args = append(call.Args, v)

	return nil
}

// value evaluates an argument expression. A bare name passes its bound
// value through unchanged so content and functions keep their structure.
func (bl *block) value(ctx context.Context, src string, pos token.Position) (*Value, error) {
	if lexer.IsIdent(src) {
		if b, ok := bl.scope.Lookup(src); ok {
			return b.Value, nil
		}
	}

	return bl.b.eval(ctx, src, pos, bl.scope)
}

// let handles "let name = value" and "let name(params) = body".
func (bl *block) let(ctx context.Context, at token.Position) error {
	lx := bl.lex

	lx.SkipInlineSpace()

	namePos := lx.Position()

	name, ok := lx.Ident()
	if !ok {
		return ErrParse.WithPosition(namePos).
			With(slog.String("expected", "name after let"))
	}

	var (
		params []string
		isFunc bool
	)

	if lx.Accept('(') {
		isFunc = true

		var err error

		params, err = bl.params()
		if err != nil {
			return err
		}
	}

	lx.SkipInlineSpace()

	if !lx.Accept('=') {
		return ErrParse.WithPosition(lx.Position()).With(
			slog.String("expected", "="),
			slog.String("name", name),
		)
	}

	lx.SkipInlineSpace()

	// The value is computed in the scope that precedes the binding, and a
	// function captures that same scope.
	var (
		v   *Value
		err error
	)

	if lx.Peek() == '[' {
		v, err = bl.letBlock(ctx, name, params, isFunc)
	} else {
		v, err = bl.letExpr(ctx, name, params, isFunc)
	}

	if err != nil {
		return err
	}

	bl.scope = bl.scope.Define(name, v, namePos)

	bl.b.opts.logger.TraceContext(ctx, "let",
		slog.String("name", name),
		slog.String("kind", v.Kind.String()),
		slog.Int("params", len(params)),
		slog.Int("scope_depth", bl.scope.Depth()),
		slog.String("pos", at.String()),
	)

	return nil
}

func (bl *block) letBlock(
	ctx context.Context,
	name string,
	params []string,
	isFunc bool,
) (*Value, error) {
	src, pos, err := bl.lex.Block()
	if err != nil {
		return nil, syntaxError(err)
	}

	if isFunc {
		return bl.closure(name, params, src, pos, true), nil
	}

	nodes, err := bl.b.content(ctx, src, pos, bl.scope)
	if err != nil {
		return nil, err
	}

	return NewContent(nodes...), nil
}

func (bl *block) letExpr(
	ctx context.Context,
	name string,
	params []string,
	isFunc bool,
) (*Value, error) {
	lx := bl.lex

	src, pos, err := lx.Expr(";\n")
	if err != nil {
		return nil, syntaxError(err)
	}

	if src == "" {
		return nil, ErrParse.WithPosition(pos).With(
			slog.String("expected", "value"),
			slog.String("name", name),
		)
	}

	lx.Accept(';')

	if isFunc {
		return bl.closure(name, params, src, pos, false), nil
	}

	return bl.value(ctx, src, pos)
}

func (bl *block) closure(
	name string,
	params []string,
	body string,
	pos token.Position,
	markup bool,
) *Value {
	return &Value{
		Kind: ClosureValue,
		Name: name,
		Closure: &Closure{
			Name:     name,
			Params:   params,
			Body:     body,
			BodyPos:  pos,
			Markup:   markup,
			Captured: bl.scope,
		},
	}
}

// params parses a parameter list after its opening parenthesis.
func (bl *block) params() ([]string, error) {
	lx := bl.lex

	var params []string

	for {
		lx.SkipSpace()

		if lx.Accept(')') {
			return params, nil
		}

		pos := lx.Position()

		p, ok := lx.Ident()
		if !ok {
			return nil, ErrParse.WithPosition(pos).
				With(slog.String("expected", "parameter name"))
		}

		for _, q := range params {
			if q == p {
				return nil, ErrParse.WithPosition(pos).With(
					slog.String("reason", "duplicate parameter"),
					slog.String("name", p),
				)
			}
		}

		params = append(params, p)

		lx.SkipSpace()

		if lx.Accept(',') {
			continue
		}

		if !lx.Accept(')') {
			return nil, ErrParse.WithPosition(lx.Position()).
				With(slog.String("expected", ", or )"))
		}

		return params, nil
	}
}

// splitNamed splits "key: expr" into its parts. The key must be an
// identifier, which rules out ternaries, maps and slices.
func splitNamed(src string) (key, value string, ok bool) {
	i := strings.IndexByte(src, ':')
	if i < 0 {
		return "", "", false
	}

	key = strings.TrimSpace(src[:i])
	value = strings.TrimSpace(src[i+1:])

	if !lexer.IsIdent(key) || value == "" || strings.HasPrefix(value, ":") {
		return "", "", false
	}

	return key, value, true
}

func isInlineSpace(r rune) bool {
	return r == ' ' || r == '\t'
}
