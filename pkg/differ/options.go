package differ

// Option is a functional option for configuring a Differ.
type Option func(*differ)

// WithIgnoredFields sets fields to ignore during comparison. Patterns such
// as "extra_fields.*" are accepted.
func WithIgnoredFields(fields ...string) Option {
	return func(d *differ) {
		d.ignoreFields = append(d.ignoreFields, fields...)
	}
}

// WithStrictText compares text fields verbatim instead of after
// normalization.
func WithStrictText(enabled bool) Option {
	return func(d *differ) {
		d.strictText = enabled
	}
}
