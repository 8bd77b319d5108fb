// Package adapter turns a receiver's native capture format into the
// has.Epoch values the decoder consumes. Each adapter is responsible only
// for producing epochs; it never touches decoder state.
package adapter

import "github.com/dborio/gohas/pkg/has"

// Adapter streams successive epochs from a receiver capture until it is
// exhausted, at which point Next returns io.EOF.
type Adapter interface {
	Next() (has.Epoch, error)
}
