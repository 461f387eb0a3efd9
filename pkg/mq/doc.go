// Package mq carries chat messages between the transmit tier and the
// storage tier over RabbitMQ. Exchanges are direct and durable, deliveries
// are persistent, and consumers acknowledge manually so an unprocessed
// message survives a storage-side crash.
package mq
