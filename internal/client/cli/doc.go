// Package cli is the todoboard command-line client.
//
// Commands talk to two places: the external platform's storage, directly,
// for todo titles and items, and the todoboard server for groups, the board
// and RPC forwarding. Both use the session kept by the session package.
//
// The "shell" command starts a REPL that keeps the title and item lists in
// memory and updates them after each mutation.
package cli
