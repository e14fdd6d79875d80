package engine

import (
	"context"
	"io"
)

type writerKey struct{}

// WithWriter attaches the render output sink to ctx.
func WithWriter(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, writerKey{}, w)
}

// WriterFrom returns the sink set by WithWriter, or io.Discard.
func WriterFrom(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(writerKey{}).(io.Writer); ok && w != nil {
		return w
	}
	return io.Discard
}
