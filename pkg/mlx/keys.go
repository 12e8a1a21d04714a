package mlx

// eepromKeys authorizes writes, indexed by (addr & 0x3e) >> 1.
var eepromKeys = [32]uint16{
	17485, 31053, 57190, 57724, 7899, 53543, 26763, 12528,
	38105, 51302, 16209, 24847, 13134, 52339, 14530, 18350,
	55636, 64477, 40905, 45498, 24411, 36677, 4213, 48843,
	6368, 5907, 31384, 63325, 3562, 19816, 6995, 3147,
}

// Key returns the write key of an EEPROM address.
func Key(addr uint8) uint16 {
	return eepromKeys[(addr&0x3e)>>1]
}

// SolveChallenge computes the answer to a write challenge.
func SolveChallenge(challenge uint16) uint16 {
	return challenge ^ 0x1234
}
