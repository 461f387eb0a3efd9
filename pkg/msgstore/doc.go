// Package msgstore implements the message storage service: the broker
// consumer that persists transmitted envelopes and the read side that serves
// history, recent and in-session search queries.
//
// Text bodies are written twice, to the search index first and then to the
// relational row; a failed row insert deletes the index document again so
// the two stores never disagree about which messages exist. Binary payloads
// go to the file service and only their ids land in the row. Reads reverse
// the split: rows come out of MySQL or the index, then blobs and sender
// profiles are batch-resolved over the fabric before envelopes are returned.
//
// Persistence failures leave the delivery unacknowledged so the broker
// redelivers it; only envelopes that can never persist are dropped.
package msgstore
