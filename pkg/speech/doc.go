// Package speech implements the voice recognition service. It fronts an
// HTTP transcription sidecar that reads audio from the local filesystem:
// each request body is spooled to a scratch .wav file, handed to the
// sidecar by path, and cleaned up once the text comes back. Files from
// failed transcriptions are left in place.
package speech
