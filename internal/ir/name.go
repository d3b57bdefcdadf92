package ir

// CanonicalName returns the registry key for a user-supplied name.
// Only ASCII letters are folded, so "Example" and "EXAMPLE" collide while
// non-ASCII bytes are kept as given.
func CanonicalName(name string) string {
	b := []byte(name)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
