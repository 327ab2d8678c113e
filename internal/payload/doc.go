// Package payload builds the datagram bodies sent by each worker.
//
// Every worker owns its own generator (see [NewRand]) and calls [Generate]
// once at startup; the resulting buffer is reused for every send in that
// worker's loop. Nothing in this package holds shared mutable state.
package payload
