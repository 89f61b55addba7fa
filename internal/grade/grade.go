// Package grade implements the total ordering used to schedule spooled jobs:
// digits outrank letters, uppercase outranks lowercase, and within a class
// ASCII order applies. Conveniently this is exactly byte order, so grade
// comparison never needs a lookup table.
package grade

// Default is substituted for any grade that fails Legal.
const Default byte = 'N'

// Legal reports whether b is one of the 62 characters uuship accepts as a
// grade: '0'-'9', 'A'-'Z', 'a'-'z'.
func Legal(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

// Normalize returns b if it is a legal grade, and Default otherwise. Illegal
// grades are never accepted silently as-is (spec.md §3 invariant).
func Normalize(b byte) byte {
	if Legal(b) {
		return b
	}
	return Default
}

// Less reports whether a is strictly higher priority than b. Because the
// class order (digits, then upper, then lower) matches ASCII order, this is
// plain byte comparison.
func Less(a, b byte) bool {
	return a < b
}

// Admits reports whether a job of grade g should be picked up by an executor
// configured with a minimum grade of bgrade. A bgrade of 'd' admits every
// digit, every uppercase letter, and lowercase 'a' through 'd' — i.e. every
// grade at least as urgent as bgrade in the total order.
func Admits(bgrade, g byte) bool {
	return g <= bgrade
}
