// Package state keeps per-chat conversation state and routes text input to the
// handler registered for the chat's current state. Storage is pluggable: an
// in-process map or Redis.
package state
