// Package mlx implements the MLX90363 request/reply codec and the
// authenticated EEPROM write sequence.
//
// The sensor answers every request during the following exchange, so the
// reply decoded from an exchange belongs to the request sent before it.
package mlx
