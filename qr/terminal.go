package qr

import "strings"

// HalfBlocks renders a module matrix as text, two module rows per line, for
// display in a terminal with a dark background.
func HalfBlocks(bits [][]bool) string {
	at := func(y, x int) bool {
		if y < 0 || y >= len(bits) || x >= len(bits[y]) {
			return false
		}
		return bits[y][x]
	}

	width := 0
	if len(bits) > 0 {
		width = len(bits[0])
	}

	var b strings.Builder
	for y := 0; y < len(bits); y += 2 {
		for x := 0; x < width; x++ {
			top, bottom := at(y, x), at(y+1, x)
			// Light modules are drawn so the code scans on dark terminals.
			switch {
			case top && bottom:
				b.WriteRune(' ')
			case top:
				b.WriteRune('▄')
			case bottom:
				b.WriteRune('▀')
			default:
				b.WriteRune('█')
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}
