package common

// WipeByteArray overwrites the contents of b with zeros. Use it for
// passwords and key material once they are no longer needed.
//
// If the slice is nil, the function does nothing.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
