// Package bus provides the frame transport to sensors on a shared SPI bus.
package bus

// Every exchange on the bus is a fixed 8-byte full-duplex frame bracketed
// by the chip-select line of one port. The last byte of a frame is a CRC-8
// over the first seven bytes. The transport stamps outgoing frames and
// verifies incoming ones; it never retries, recovery is left to the port
// state machine.
