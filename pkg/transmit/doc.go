// Package transmit implements the message fan-out service. It is the write
// entry point of the messaging pipeline: a gateway submits the raw payload,
// the server stamps the canonical envelope (fresh message id, unix-second
// timestamp, resolved sender profile), publishes it to the broker for
// asynchronous persistence, and answers with the envelope plus the list of
// session members to push it to.
//
// Delivery to the broker is the persistence boundary: a publish confirm
// means the storage service will eventually write the message, while a
// failed publish fails the request. There is no deduplication; retried
// requests mint new message ids.
package transmit
