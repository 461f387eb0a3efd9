// Package file implements the blob storage service. Uploads are assigned
// opaque hex ids and written atomically under a single storage root;
// downloads return the raw bytes by id. Multi-file operations are
// all-or-nothing: a single missing blob fails the whole call with no
// partial results.
package file
