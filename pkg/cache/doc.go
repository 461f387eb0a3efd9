// Package cache keeps the user service's volatile login state in Redis:
// session-to-user bindings, logged-in flags and short-lived email
// verification codes.
package cache
