// Package coord wires services into the etcd-backed service fabric.
//
// A Registry holds one lease and publishes "<service>/<instance>" keys that
// disappear when the process stops renewing. A Discovery mirrors a service
// prefix into callbacks: the current snapshot first, then watch events, with
// automatic resync when the watch falls behind the store's compaction
// horizon.
package coord
