package geo

// Fix is an optional Point. The zero value is an absent fix, which is how a
// location timeout or permission denial reaches the resolvers.
type Fix struct {
	point Point
	ok    bool
}

// Some wraps a sampled point.
func Some(p Point) Fix {
	return Fix{point: p, ok: true}
}

// None is the absent fix.
func None() Fix {
	return Fix{}
}

// Get returns the point and whether one was sampled.
func (f Fix) Get() (Point, bool) {
	return f.point, f.ok
}

// Present reports whether the fix carries a point.
func (f Fix) Present() bool {
	return f.ok
}
