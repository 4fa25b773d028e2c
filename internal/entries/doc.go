// Package entries keeps the ordered collection of protected TOTP seeds and
// persists it as one JSON document that is rewritten atomically after every
// mutation.
//
// The package never decrypts anything: each Entry carries its own ciphertext
// and salt, and callers pass them to the encryption manager.
package entries
