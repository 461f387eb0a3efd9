// Package balancer keeps client-side connection pools for the downstream
// services a process calls. A ServiceChannel tracks the live instances of
// one service and always hands out the connection with the fewest requests
// in flight; a Manager owns one channel per declared service and feeds them
// from discovery events, ignoring services the process never declared
// interest in.
//
// Callers that report completion hold the channel and the picked connection
// together:
//
//	ch := manager.Pool("file_service")
//	conn := ch.Pick()
//	defer ch.Complete(conn)
package balancer
