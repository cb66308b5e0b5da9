// Package core defines the three stage capabilities every ratepipe pipeline
// is composed of. Each capability has exactly one operation; concrete
// implementations are chosen at construction time.
package core

import (
	"context"
)

// ConnectorType represents the type of connector
type ConnectorType string

const (
	ConnectorTypeSource      ConnectorType = "source"
	ConnectorTypeDestination ConnectorType = "destination"
)

// Extractor produces a dataset from an external source.
type Extractor[T any] interface {
	Extract(ctx context.Context) ([]T, error)
}

// Transformer maps one dataset to another.
type Transformer[In, Out any] interface {
	Transform(ctx context.Context, records []In) ([]Out, error)
}

// Loader persists a dataset to a sink.
type Loader[T any] interface {
	Load(ctx context.Context, records []T) error
}

// Closer is implemented by connectors holding resources such as database
// handles or connection pools.
type Closer interface {
	Close() error
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc[T any] func(ctx context.Context) ([]T, error)

// Extract calls f(ctx).
func (f ExtractorFunc[T]) Extract(ctx context.Context) ([]T, error) {
	return f(ctx)
}

// TransformerFunc adapts a function to Transformer.
type TransformerFunc[In, Out any] func(ctx context.Context, records []In) ([]Out, error)

// Transform calls f(ctx, records).
func (f TransformerFunc[In, Out]) Transform(ctx context.Context, records []In) ([]Out, error) {
	return f(ctx, records)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc[T any] func(ctx context.Context, records []T) error

// Load calls f(ctx, records).
func (f LoaderFunc[T]) Load(ctx context.Context, records []T) error {
	return f(ctx, records)
}

// Passthrough returns a Transformer that hands its input on unchanged.
func Passthrough[T any]() Transformer[T, T] {
	return TransformerFunc[T, T](func(_ context.Context, records []T) ([]T, error) {
		return records, nil
	})
}

// CloseAll closes every value that implements Closer and returns the first
// error encountered.
func CloseAll(values ...any) error {
	var first error
	for _, v := range values {
		c, ok := v.(Closer)
		if !ok {
			continue
		}
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
