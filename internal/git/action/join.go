package action

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Join runs fa and fb concurrently. It succeeds only if both do; the first
// failure cancels the other function's context and is returned alone. When
// the caller's ctx is cancelled the result is ctx.Err(). No partial result is
// ever returned.
func Join[A, B any](ctx context.Context, fa func(context.Context) (A, error), fb func(context.Context) (B, error)) (A, B, error) {
	var (
		a A
		b B
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := fa(gctx)
		if err != nil {
			return err
		}
		a = v
		return nil
	})
	g.Go(func() error {
		v, err := fb(gctx)
		if err != nil {
			return err
		}
		b = v
		return nil
	})
	if err := g.Wait(); err != nil {
		var (
			zeroA A
			zeroB B
		)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zeroA, zeroB, ctxErr
		}
		return zeroA, zeroB, err
	}
	return a, b, nil
}
