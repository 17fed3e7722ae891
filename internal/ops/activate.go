package ops

// Activate makes path the active project for the duration of fn,
// delegating directly to the Runtime's scoped acquisition (spec §4.9,
// §9). A nil Runtime is a configuration error the caller should not
// hit in practice, so it panics rather than silently no-op-ing.
func (d *Dispatcher) Activate(path string, fn func() error) error {
	return d.RT.Activate(path, fn)
}
