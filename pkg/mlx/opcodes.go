package mlx

// Marker is the 2-bit frame marker.
type Marker byte

// Markers.
const (
	MarkerAlpha     Marker = 0
	MarkerAlphaBeta Marker = 1
	MarkerXYZ       Marker = 2
	MarkerIrregular Marker = 3
)

// Opcode is the 6-bit frame opcode.
type Opcode byte

// Opcodes of regular and irregular messages.
const (
	OpGet1               Opcode = 0x13
	OpGet2               Opcode = 0x14
	OpGet3               Opcode = 0x15
	OpGet3Ready          Opcode = 0x2d
	OpMemoryRead         Opcode = 0x01
	OpMemoryReadAnswer   Opcode = 0x02
	OpEEWrite            Opcode = 0x03
	OpEEWriteChallenge   Opcode = 0x04
	OpEEChallengeAns     Opcode = 0x05
	OpEEReadAnswer       Opcode = 0x28
	OpEEReadChallenge    Opcode = 0x0f
	OpEEWriteStatus      Opcode = 0x0e
	OpNopChallenge       Opcode = 0x10
	OpNopAnswer          Opcode = 0x11
	OpDiagnosticDetails  Opcode = 0x16
	OpDiagnosticsAnswer  Opcode = 0x17
	OpOscCounterStart    Opcode = 0x18
	OpOscCounterStartAck Opcode = 0x19
	OpOscCounterStop     Opcode = 0x1a
	OpOscCounterStopAck  Opcode = 0x1b
	OpReboot             Opcode = 0x2f
	OpStandby            Opcode = 0x31
	OpStandbyAck         Opcode = 0x32
	OpErrorFrame         Opcode = 0x3d
	OpNothingToTransmit  Opcode = 0x3e
	OpReadyMessage       Opcode = 0x2c
)

// Memory addresses of the user parameters.
const (
	AddrID  uint16 = 0x1018
	AddrMin uint16 = 0x103a
	AddrMax uint16 = 0x103c
)

// EEPROM words are mapped into memory at EEPROMBase.
const EEPROMBase uint16 = 0x1000
