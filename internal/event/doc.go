// Package event provides a synchronous topic-based publish/subscribe bus
// for undo manager lifecycle notifications.
//
// Topics use dot-notation ("undo.checkpoint", "group.opened") and
// subscription patterns support wildcards:
//
//   - "*" matches exactly one segment
//   - "**" matches zero or more segments
//
// Delivery is synchronous on the publisher's goroutine, in subscription
// order, with panic recovery per handler. The undo engine is defined as
// single-threaded, so the bus deliberately offers no async dispatch;
// subscribers that need it can hand off to their own goroutines.
package event
