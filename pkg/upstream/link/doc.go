// Package link carries reports over a byte stream (usually a serial
// port) using a small sequenced packet protocol.
//
// A packet is encoded as
//
//	SEQ CODE|LEN<<4 [LEN] DATA...
//
// where SEQ is in 1..0xef, bit 7 of CODE marks an unsolicited packet
// and lengths 7 and above are sent in an extra byte. The peers
// synchronize with SYNC-REQ (0xff) / SYNC-ACK (0xfe) followed by the
// sender's next sequence number.
package link
