// Package cli provides the interactive totpkeeper terminal client.
//
// On start the user either sets a master password (first run) or unlocks the
// existing store; the REPL then lists entries, prints current codes, adds,
// renames and removes entries, exports otpauth QR codes and can follow codes
// live while reloading the store when another process rewrites it.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
