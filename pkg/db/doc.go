// Package db holds the MySQL tables behind the user and message services:
// user profiles, chat session membership and the persisted message history.
package db
