/*
Package has decodes Galileo High Accuracy Service (HAS) correction
messages carried over the E6-B signal's C/NAV channel.

# Pipeline

A receiver delivers, per epoch, a set of 16-word CNAV page blocks
(Epoch.Pages). NewPage splits
each block into its routing key (message type, id, size) and a 53-byte
page body. A Decoder accumulates pages per key in a Message assembler
until the assembler has every page it needs, at which point Message.Decode
recovers the original MT1 payload via Reed-Solomon erasure decoding over
GF(2^8).

InterpretMT1Header then reads the recovered payload's header to find which
correction blocks follow, and the component described in corrections.go
parses orbit, clock, code-bias and phase-bias records out of the
remaining bitstream against the decoder's retained satellite/signal
masks.

# Concurrency

Decoder is single-threaded and synchronous: ProcessEpoch runs an epoch to
completion before the next is accepted. Parallelism is obtained by
running independent Decoder instances over sharded input, not by sharing
one Decoder across goroutines.
*/
package has
