// Package soundcheck converts loudness gain values into the legacy iTunes
// SoundCheck (iTunNORM) tag encoding.
package soundcheck

import (
	"fmt"
	"math"
	"strings"
)

// scMax is the largest value the fixed-point encoding can carry.
const scMax = 65534

// Encode converts a gain in decibels into the iTunNORM tag string.
//
// The gain is mapped to a linear milliwatt-referenced value via
// 10^(-gain/10), scaled by 1000, rounded, and clamped to [0, 65534]. Gains
// above roughly +30 dB would otherwise scale below zero-adjacent magnitudes;
// the lower clamp keeps the encoding total instead of emitting a sign bit
// into the hex field. The tag carries ten 8-digit uppercase hex fields:
// fields 1, 2, 9, and 10 hold the value (left/right channel, repeated) and
// fields 3 through 8 are zero.
func Encode(gainDB float64) string {
	linear := math.Pow(10, -gainDB/10)

	value := int64(math.Round(linear * 1000))
	if value > scMax {
		value = scMax
	}
	if value < 0 {
		value = 0
	}

	hex := fmt.Sprintf("%08X", value)
	zero := "00000000"

	fields := []string{hex, hex, zero, zero, zero, zero, zero, zero, hex, hex}
	return strings.Join(fields, " ")
}
