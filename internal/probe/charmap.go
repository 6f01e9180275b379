package probe

// charmap decodes the Generation III international character encoding.
// Indices with no entry decode to nothing (including 0xFF, the string
// terminator).
var charmap = map[byte]rune{
	0x00: 'À', 0x01: 'Á', 0x02: 'Â', 0x03: 'Ç', 0x04: 'È', 0x05: 'É',
	0x06: 'Ê', 0x07: 'Ë', 0x08: 'Ì', 0x0A: 'Î', 0x0B: 'Ï', 0x0C: 'Ò',
	0x0D: 'Ó', 0x0E: 'Ô', 0x10: 'Œ', 0x11: 'Ù', 0x12: 'Ú', 0x13: 'Û',
	0x14: 'Ñ', 0x15: 'ß', 0x16: 'à', 0x17: 'á', 0x18: 'ç', 0x19: 'è',
	0x1A: 'é', 0x1B: 'ê', 0x1C: 'ë', 0x1D: 'ì', 0x20: 'î', 0x21: 'ï',
	0x22: 'ò', 0x23: 'ó', 0x24: 'ô', 0x25: 'œ', 0x26: 'ù', 0x27: 'ú',
	0x28: 'û', 0x29: 'ñ', 0x2A: 'º', 0x2B: 'ª', 0x2D: '&', 0x2E: '+',
	0x35: '=', 0x36: ';', 0x46: '¿', 0x47: '¡', 0x4D: 'Í', 0x4E: '%',
	0x4F: '(', 0x50: ')',
	0xA1: '0', 0xA2: '1', 0xA3: '2', 0xA4: '3', 0xA5: '4', 0xA6: '5',
	0xA7: '6', 0xA8: '7', 0xA9: '8', 0xAA: '9', 0xAB: '!', 0xAC: '?',
	0xAD: '.', 0xAE: '-', 0xB5: '♂', 0xB6: '♀', 0xB7: '$', 0xB8: ',',
	0xB9: '×', 0xBA: '/',
	0xEF: '►', 0xF0: ':', 0xF1: 'Ä', 0xF2: 'Ö', 0xF3: 'Ü', 0xF4: 'ä',
	0xF5: 'ö', 0xF6: 'ü',
}

func init() {
	for i := 0; i < 26; i++ {
		charmap[0xBB+byte(i)] = rune('A' + i)
		charmap[0xD5+byte(i)] = rune('a' + i)
	}
}

// decodeChar returns the decoded rune for b, or false if b is the string
// terminator (0xFF) or otherwise unmapped.
func decodeChar(b byte) (rune, bool) {
	if b == 0xFF {
		return 0, false
	}
	r, ok := charmap[b]
	return r, ok
}

// decodeString decodes a Gen III encoded byte slice, stopping at the 0xFF
// terminator or the end of the slice, skipping any unmapped byte.
func decodeString(raw []byte) string {
	out := make([]rune, 0, len(raw))
	for _, b := range raw {
		if b == 0xFF {
			break
		}
		if r, ok := decodeChar(b); ok {
			out = append(out, r)
		}
	}
	return string(out)
}
