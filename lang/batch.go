package lang

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/ardnew/typeline/pkg"
)

// Source is one named input of [CompileAll].
type Source struct {
	Name string
	Text string
}

// CompileAll compiles independent sources concurrently, at most [WithJobs]
// at a time. Each source gets its own root scope.
//
// The returned slice is parallel to sources; entries for sources that
// failed are nil. The error, if any, is a [pkg.Errors] holding one failure
// per source, each prefixed with the source name.
func CompileAll(
	ctx context.Context,
	sources []Source,
	opts ...Option,
) ([]*Document, error) {
	o := makeOptions(opts...)

	docs := make([]*Document, len(sources))
	errs := make([]error, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.jobs)

	o.logger.TraceContext(ctx, "batch start",
		slog.Int("sources", len(sources)),
		slog.Int("jobs", o.jobs),
	)

	for i, src := range sources {
		g.Go(func() error {
			doc, err := Compile(gctx, src.Text, opts...)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", src.Name, err)

				return nil
			}

			docs[i] = doc

			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		return docs, err
	}

	var agg pkg.Errors

	for _, err := range errs {
		agg.Add(err)
	}

	o.logger.TraceContext(ctx, "batch complete",
		slog.Int("sources", len(sources)),
		slog.Int("failed", len(agg)),
	)

	return docs, agg.Err()
}
