package page

import (
	"GroveDB/types"
)

// ─────────────────────────────────────────────────────────────────────────────
// Cell operations
// ─────────────────────────────────────────────────────────────────────────────

// AvailableSpace returns the bytes left for one more cell plus nothing else.
// It is conservative: bytes behind tombstoned slots do not count until the
// next Defragment makes them contiguous again.
func (p *Page) AvailableSpace() int {
	used := len(p.Slots) * SlotEntrySize
	free := int(p.FreeSpaceOffset) - PageHeaderSize - used
	if free < 0 {
		return 0
	}
	return free
}

// CanFit reports whether a cell of dataSize bytes plus its slot entry fits.
func (p *Page) CanFit(dataSize int) bool {
	return p.AvailableSpace() >= dataSize+SlotEntrySize
}

// InsertCell appends the cell and its slot entry, returning the new slot
// index. Fails with ErrPageFull when the cell plus one slot entry does not
// fit.
func (p *Page) InsertCell(data []byte) (int, error) {
	return p.insertCell(data, len(p.Slots))
}

// InsertCellAt inserts the cell with its slot entry at directory position
// pos, shifting later entries up by one. The B+tree uses it to keep leaf and
// interior slots in key order.
func (p *Page) InsertCellAt(data []byte, pos int) (int, error) {
	if pos < 0 || pos > len(p.Slots) {
		return 0, types.NewInvalidSlotIndex(pos, len(p.Slots))
	}
	return p.insertCell(data, pos)
}

func (p *Page) insertCell(data []byte, pos int) (int, error) {
	if len(data) == 0 {
		return 0, types.NewSerializationError("cell data must not be empty")
	}
	if !p.CanFit(len(data)) {
		return 0, types.NewPageFull(p.ID)
	}
	if p.Data == nil {
		// Metadata-only frames cannot take cells; the buffer pool upgrades
		// before any mutation reaches here.
		return 0, types.NewCorruptedPage(p.ID, "insert into page without body")
	}

	newOffset := p.FreeSpaceOffset - uint16(len(data))
	copy(p.Data[newOffset:], data)

	entry := SlotEntry{Offset: newOffset, Length: uint16(len(data))}
	p.Slots = append(p.Slots, SlotEntry{})
	copy(p.Slots[pos+1:], p.Slots[pos:])
	p.Slots[pos] = entry

	p.FreeSpaceOffset = newOffset
	p.IsDirty = true
	return pos, nil
}

// GetCell returns the exact bytes previously inserted at slotIndex, or
// ok=false when the index is out of range or tombstoned. The returned slice
// aliases the page body; callers must not hold it across a mutation.
func (p *Page) GetCell(slotIndex int) ([]byte, bool) {
	if slotIndex < 0 || slotIndex >= len(p.Slots) {
		return nil, false
	}
	s := p.Slots[slotIndex]
	if s.IsTombstone() || p.Data == nil {
		return nil, false
	}
	return p.Data[s.Offset : int(s.Offset)+int(s.Length)], true
}

// DeleteCell voids the slot in place (append-and-void policy: the entry is
// never reused, surviving slots keep their indices). Storage is not
// compacted; call Defragment once enough deletions have degraded
// AvailableSpace.
func (p *Page) DeleteCell(slotIndex int) error {
	if slotIndex < 0 || slotIndex >= len(p.Slots) {
		return types.NewInvalidSlotIndex(slotIndex, len(p.Slots))
	}
	p.Slots[slotIndex] = SlotEntry{}
	p.IsDirty = true
	return nil
}

// Defragment rewrites all live cells contiguously against the usable body
// end, drops tombstoned directory entries and recomputes every slot offset.
// Live cells keep their relative slot order; slot indices change when
// tombstones are dropped.
func (p *Page) Defragment() {
	if p.Data == nil {
		return
	}
	usable := UsableBodySize(p.ID)

	type liveCell struct {
		entry SlotEntry
		data  []byte
	}
	live := make([]liveCell, 0, len(p.Slots))
	for _, s := range p.Slots {
		if s.IsTombstone() {
			continue
		}
		data := make([]byte, s.Length)
		copy(data, p.Data[s.Offset:int(s.Offset)+int(s.Length)])
		live = append(live, liveCell{entry: s, data: data})
	}

	// Zero the whole cell region, then lay cells back down. Placing in
	// reverse slot order keeps physical order aligned with slot order.
	for i := PageHeaderSize; i < usable; i++ {
		p.Data[i] = 0
	}
	cursor := uint16(usable)
	slots := make([]SlotEntry, len(live))
	for i := len(live) - 1; i >= 0; i-- {
		cursor -= uint16(len(live[i].data))
		copy(p.Data[cursor:], live[i].data)
		slots[i] = SlotEntry{Offset: cursor, Length: uint16(len(live[i].data))}
	}

	p.Slots = slots
	p.FreeSpaceOffset = cursor
	if len(live) == 0 {
		p.FreeSpaceOffset = uint16(usable)
	}
	p.IsDirty = true
}

// Reset empties the page (splits rebuild halves through this). Type and
// identity stay; slots, cells and leaf links are cleared.
func (p *Page) Reset() {
	p.Slots = nil
	p.FreeSpaceOffset = uint16(UsableBodySize(p.ID))
	p.NextLeafPageID = types.NonePageID
	p.ParentPageID = types.NonePageID
	if p.Data == nil {
		p.Data = make([]byte, PageSize)
	}
	for i := PageHeaderSize; i < len(p.Data); i++ {
		p.Data[i] = 0
	}
	p.IsDirty = true
}
