package repository

// Option applies a configuration option to Build.
type Option func(*builder)

// WithIDColumn forces the identifier column instead of detecting it by name.
func WithIDColumn(name string) Option {
	return func(b *builder) {
		if name != "" {
			b.idColumn = name
		}
	}
}
