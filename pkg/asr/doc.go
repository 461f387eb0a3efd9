// Package asr transcribes speech messages through the recognition sidecar.
package asr
