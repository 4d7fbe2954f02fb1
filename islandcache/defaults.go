package islandcache

func coalesce[T comparable](v, d T) T {
	var zero T
	if v == zero {
		return d
	}
	return v
}
