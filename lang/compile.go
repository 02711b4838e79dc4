package lang

import (
	"context"
	"io"
	"log/slog"

	"github.com/klauspost/readahead"
	"golang.org/x/text/unicode/norm"

	"github.com/ardnew/typeline/lang/token"
)

// Compile compiles src into a [Document].
//
// Identical sources compiled with the default library and no [WithScope]
// share one cached, immutable Document. See [ClearCache].
func Compile(ctx context.Context, src string, opts ...Option) (*Document, error) {
	o := makeOptions(opts...)

	o.logger.TraceContext(ctx, "compile start",
		slog.Int("source_length", len(src)),
		slog.Bool("normalize", o.normalize),
		slog.Int("max_depth", o.maxDepth),
	)

	if o.cacheable() {
		return compileCached(ctx, src, o)
	}

	return compile(ctx, src, o)
}

// CompileReader reads all of r and compiles it.
func CompileReader(ctx context.Context, r io.Reader, opts ...Option) (*Document, error) {
	// Wrap reader with async read-ahead so reads overlap with buffering.
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)
	if err != nil {
		return nil, ErrReadInput.Wrap(err).
			With(slog.String("source", "reader"))
	}

	return Compile(ctx, string(data), opts...)
}

// Normalize returns src in the form the compiler tokenizes when
// normalization is enabled. Error positions refer to this form.
func Normalize(src string) string { return norm.NFC.String(src) }

// compile is the uncached compilation of one source.
func compile(ctx context.Context, src string, o options) (*Document, error) {
	err := ctx.Err()
	if err != nil {
		return nil, err
	}

	if o.normalize {
		src = Normalize(src)
	}

	scope := o.scope
	if scope == nil {
		scope = o.library.Scope()
	}

	b := &builder{opts: o}

	nodes, final, err := b.build(ctx, src, token.Start, scope.Enter())
	if err != nil {
		o.logger.TraceContext(ctx, "compile failed", slog.Any("error", err))

		return nil, err
	}

	o.logger.TraceContext(ctx, "compile complete",
		slog.Int("nodes", len(nodes)),
		slog.Int("scope_depth", final.Depth()),
	)

	return &Document{Nodes: nodes, Scope: final}, nil
}
