package probe

import "context"

// offsets within the 100-byte party pokemon struct's unencrypted section.
const (
	offPID       = 0x00
	offOTID      = 0x04
	offNickname  = 0x08
	offEncrypted = 0x20
	offStatus    = 0x50
	offLevel     = 0x54
	offCurrentHP = 0x56
	offMaxHP     = 0x58
)

const nicknameLen = 10

// Pokemon is one decrypted, de-obfuscated party slot.
type Pokemon struct {
	Species   uint16    `json:"species"`
	Nickname  string    `json:"nickname"`
	Level     uint8     `json:"level"`
	CurrentHP uint16    `json:"current_hp"`
	MaxHP     uint16    `json:"max_hp"`
	Status    uint32    `json:"status"`
	Moves     [4]uint16 `json:"moves"`
}

func (p Pokemon) sane() bool {
	return p.Level != 0 && p.Level <= 100 && p.CurrentHP <= p.MaxHP
}

func readU32(ctx context.Context, mem memReader, addr uint32) (uint32, error) {
	var v uint32
	for i := uint32(0); i < 4; i++ {
		b, err := mem.ReadU8(ctx, addr+i)
		if err != nil {
			return 0, err
		}
		v |= uint32(b) << (8 * i)
	}
	return v, nil
}

func readU16(ctx context.Context, mem memReader, addr uint32) (uint16, error) {
	lo, err := mem.ReadU8(ctx, addr)
	if err != nil {
		return 0, err
	}
	hi, err := mem.ReadU8(ctx, addr+1)
	if err != nil {
		return 0, err
	}
	return uint16(lo) | uint16(hi)<<8, nil
}

func readBytes(ctx context.Context, mem memReader, addr uint32, n int) ([]byte, error) {
	buf := make([]byte, n)
	for i := range buf {
		b, err := mem.ReadU8(ctx, addr+uint32(i))
		if err != nil {
			return nil, err
		}
		buf[i] = b
	}
	return buf, nil
}

// readPartyEntry reads and decrypts one party slot at base. Returns
// (Pokemon{}, false, nil) for an empty slot (pid == 0 && otID == 0).
func readPartyEntry(ctx context.Context, mem memReader, base uint32) (Pokemon, bool, error) {
	pid, err := readU32(ctx, mem, base+offPID)
	if err != nil {
		return Pokemon{}, false, err
	}
	otID, err := readU32(ctx, mem, base+offOTID)
	if err != nil {
		return Pokemon{}, false, err
	}
	if pid == 0 && otID == 0 {
		return Pokemon{}, false, nil
	}

	nickRaw, err := readBytes(ctx, mem, base+offNickname, nicknameLen)
	if err != nil {
		return Pokemon{}, false, err
	}

	status, err := readU32(ctx, mem, base+offStatus)
	if err != nil {
		return Pokemon{}, false, err
	}
	level, err := mem.ReadU8(ctx, base+offLevel)
	if err != nil {
		return Pokemon{}, false, err
	}
	currentHP, err := readU16(ctx, mem, base+offCurrentHP)
	if err != nil {
		return Pokemon{}, false, err
	}
	maxHP, err := readU16(ctx, mem, base+offMaxHP)
	if err != nil {
		return Pokemon{}, false, err
	}

	encRaw, err := readBytes(ctx, mem, base+offEncrypted, 48)
	if err != nil {
		return Pokemon{}, false, err
	}
	var encrypted [48]byte
	copy(encrypted[:], encRaw)
	decrypted := decryptBlock(encrypted, pid, otID)

	growth := substructure(decrypted, growthSlot(pid))
	species := uint16(growth[0]) | uint16(growth[1])<<8

	attacks := substructure(decrypted, attacksSlot(pid))
	var moves [4]uint16
	for i := 0; i < 4; i++ {
		off := i * 2
		moves[i] = uint16(attacks[off]) | uint16(attacks[off+1])<<8
	}

	p := Pokemon{
		Species:   species,
		Nickname:  decodeString(nickRaw),
		Level:     level,
		CurrentHP: currentHP,
		MaxHP:     maxHP,
		Status:    status,
		Moves:     moves,
	}
	return p, true, nil
}

// ReadParty reads up to six party slots for g, skipping empty slots and any
// slot that fails the sanity clamp (level 0 or >100, or hp > max hp —
// combinations that can't occur in-game and indicate a read against a save
// block the game hasn't populated yet).
func ReadParty(ctx context.Context, mem memReader, g Game) ([]Pokemon, error) {
	countAddr, partyAddr := partyAddrs(g)
	if partyAddr == 0 {
		return nil, nil
	}

	count, err := readU32(ctx, mem, countAddr)
	if err != nil {
		return nil, err
	}
	if count > partySize {
		count = partySize
	}

	party := make([]Pokemon, 0, count)
	for i := uint32(0); i < count; i++ {
		base := partyAddr + i*partyEntryBytes
		p, ok, err := readPartyEntry(ctx, mem, base)
		if err != nil {
			return nil, err
		}
		if !ok || !p.sane() {
			continue
		}
		party = append(party, p)
	}
	return party, nil
}
