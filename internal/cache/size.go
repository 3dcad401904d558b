package cache

// SizeOf returns the number of bytes needed to encode s.
//
// Multi-byte characters count their full UTF-8 length, so SizeOf("❤️") is 6.
func SizeOf(s string) int {
	return len(s)
}
