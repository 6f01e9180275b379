package probe

import "encoding/binary"

// substructureOrder[pid%24] gives the slot index (within the four 12-byte
// substructures of a decrypted party block) of each of Growth, Attacks,
// EVs, Misc, in that order. Copied as slot-index rows, matching the GAEM
// permutation table used by every Gen III save layout.
var substructureOrder = [24][4]uint8{
	{0, 1, 2, 3}, {0, 1, 3, 2}, {0, 2, 1, 3}, {0, 3, 1, 2},
	{0, 2, 3, 1}, {0, 3, 2, 1}, {1, 0, 2, 3}, {1, 0, 3, 2},
	{2, 0, 1, 3}, {3, 0, 1, 2}, {2, 0, 3, 1}, {3, 0, 2, 1},
	{1, 2, 0, 3}, {1, 3, 0, 2}, {2, 1, 0, 3}, {3, 1, 0, 2},
	{2, 3, 0, 1}, {3, 2, 0, 1}, {1, 2, 3, 0}, {1, 3, 2, 0},
	{2, 1, 3, 0}, {3, 1, 2, 0}, {2, 3, 1, 0}, {3, 2, 1, 0},
}

// decryptBlock decrypts the 48-byte encrypted substructure region. The key
// is pid XOR otID, XORed into each of the region's twelve little-endian
// 32-bit words (three per 12-byte substructure).
func decryptBlock(encrypted [48]byte, pid, otID uint32) [48]byte {
	key := pid ^ otID
	var out [48]byte
	for i := 0; i < 48; i += 4 {
		word := binary.LittleEndian.Uint32(encrypted[i : i+4])
		binary.LittleEndian.PutUint32(out[i:i+4], word^key)
	}
	return out
}

// substructure extracts one 12-byte substructure by slot index (0-3).
func substructure(decrypted [48]byte, slot uint8) []byte {
	start := int(slot) * 12
	return decrypted[start : start+12]
}

func growthSlot(pid uint32) uint8 {
	return substructureOrder[pid%24][0]
}

func attacksSlot(pid uint32) uint8 {
	return substructureOrder[pid%24][1]
}
