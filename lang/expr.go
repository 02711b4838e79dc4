package lang

import (
	"context"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/parser"
	"github.com/expr-lang/expr/vm"

	"github.com/ardnew/typeline/lang/token"
	"github.com/ardnew/typeline/log"
)

// hyphenPatcher reconstructs hyphenated identifiers from BinaryNode("-")
// subtraction chains created by expr-lang's parser.
//
// Names bound with let may contain hyphens (e.g. "word-spacing"), but
// expr-lang parses them as subtraction. The patcher rewrites a subtraction of
// two identifiers into a single identifier when the combined name is bound in
// scope. Walks are post-order, so longer chains are rebuilt left to right.
type hyphenPatcher struct {
	scope  *Scope
	logger log.Logger
}

// Visit implements ast.Visitor for hyphenPatcher.
func (p *hyphenPatcher) Visit(node *ast.Node) {
	bin, ok := (*node).(*ast.BinaryNode)
	if !ok || bin.Operator != "-" {
		return
	}

	left, ok := bin.Left.(*ast.IdentifierNode)
	if !ok {
		return
	}

	right, ok := bin.Right.(*ast.IdentifierNode)
	if !ok {
		return
	}

	combined := left.Value + "-" + right.Value
	if _, bound := p.scope.Lookup(combined); !bound {
		return
	}

	p.logger.Trace("patch hyphenated identifier",
		slog.String("name", combined))

	ast.Patch(node, &ast.IdentifierNode{Value: combined})
}

// freeNames collects the identifiers of an expression, split into operands
// and names used only as call targets.
type freeNames struct {
	operands map[string]bool
	callees  map[string]bool
	declared map[string]bool
	callee   map[*ast.IdentifierNode]bool
	idents   []*ast.IdentifierNode
}

// Visit implements ast.Visitor for freeNames.
func (f *freeNames) Visit(node *ast.Node) {
	switch n := (*node).(type) {
	case *ast.IdentifierNode:
		f.idents = append(f.idents, n)

	case *ast.CallNode:
		if id, ok := n.Callee.(*ast.IdentifierNode); ok {
			f.callee[id] = true
		}

	case *ast.VariableDeclaratorNode:
		f.declared[n.Name] = true
	}
}

func (f *freeNames) split() {
	for _, id := range f.idents {
		if f.declared[id.Value] {
			continue
		}

		if f.callee[id] {
			f.callees[id.Value] = true
		} else {
			f.operands[id.Value] = true
		}
	}
}

func collectNames(node *ast.Node) *freeNames {
	f := &freeNames{
		operands: make(map[string]bool),
		callees:  make(map[string]bool),
		declared: make(map[string]bool),
		callee:   make(map[*ast.IdentifierNode]bool),
	}

	ast.Walk(node, f)
	f.split()

	return f
}

// eval compiles and runs the expression src with its free names resolved in
// scope. Operands must be bound; call targets that are bound to functions
// in scope are callable from the expression, and any others are left to
// expr-lang's builtins.
func (b *builder) eval(
	ctx context.Context,
	src string,
	pos token.Position,
	scope *Scope,
) (*Value, error) {
	patcher := &hyphenPatcher{scope: scope, logger: b.opts.logger}

	tree, err := parser.Parse(src)
	if err != nil {
		return nil, ErrExprCompile.WithPosition(pos).Wrap(err).
			With(slog.String("source", src))
	}

	ast.Walk(&tree.Node, patcher)

	names := collectNames(&tree.Node)
	env := make(map[string]any, len(names.operands)+len(names.callees))

	for name := range names.operands {
		v, err := scope.Resolve(name, pos)
		if err != nil {
			return nil, err
		}

		if v.Callable() {
			return nil, ErrArgType.WithPosition(pos).With(
				slog.String("name", name),
				slog.String("want", "value"),
				slog.String("got", v.Kind.String()),
			)
		}

		env[name] = v.Interface()
	}

	for name := range names.callees {
		bnd, ok := scope.Lookup(name)
		if !ok || !bnd.Value.Callable() {
			continue
		}

		env[name] = b.exprFunc(ctx, bnd.Value, name, pos)
	}

	b.opts.logger.TraceContext(ctx, "compile expression",
		slog.String("source", src),
		slog.Int("env_size", len(env)),
	)

	program, err := expr.Compile(src, expr.Env(env), expr.Patch(patcher))
	if err != nil {
		return nil, ErrExprCompile.WithPosition(pos).Wrap(err).
			With(slog.String("source", src))
	}

	result, err := vm.Run(program, env)
	if err != nil {
		return nil, ErrExprEvaluate.WithPosition(pos).Wrap(err).
			With(slog.String("source", src))
	}

	return NewData(result), nil
}

// exprFunc adapts a function value for calls from expr-lang.
func (b *builder) exprFunc(
	ctx context.Context,
	fn *Value,
	name string,
	pos token.Position,
) func(args ...any) (any, error) {
	return func(args ...any) (any, error) {
		call := &Call{Name: name, Pos: pos, Args: make([]*Value, len(args))}

		for i, a := range args {
			call.Args[i] = NewData(a)
		}

		v, err := b.invoke(ctx, fn, call)
		if err != nil {
			return nil, err
		}

		return v.Interface(), nil
	}
}
