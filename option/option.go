// Package option holds the functional option type shared by the prober, pingers, resolver and printers.
package option

// Option mutates a T while it is being constructed.
type Option[T any] func(*T)

// Apply runs every option against v in order, so later options win.
func Apply[T any](v *T, opts ...Option[T]) {
	for _, opt := range opts {
		opt(v)
	}
}
