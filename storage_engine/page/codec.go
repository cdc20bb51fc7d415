package page

import (
	"encoding/binary"
	"fmt"

	"GroveDB/types"
)

/*
Page codec: Encode and Decode are exact inverses for every valid page
(round-trip law). DecodeMetadata parses only the header and slot directory —
enough to read NextLeafPageID, slot offsets/lengths and cell counts without
materializing cell bytes. MetadataSize tells the disk manager how many bytes
a metadata read needs once the fixed header is in hand.
*/

const (
	offPageID          = 0
	offPageType        = 8
	offParentPageID    = 9
	offNextLeafPageID  = 17
	offCellCount       = 25
	offFreeSpaceOffset = 27
)

// Encode serializes the page into a fresh PageSize buffer.
func (p *Page) Encode() []byte {
	buf := make([]byte, PageSize)
	binary.LittleEndian.PutUint64(buf[offPageID:], p.ID)
	buf[offPageType] = byte(p.Type)
	binary.LittleEndian.PutUint64(buf[offParentPageID:], p.ParentPageID)
	binary.LittleEndian.PutUint64(buf[offNextLeafPageID:], p.NextLeafPageID)
	binary.LittleEndian.PutUint16(buf[offCellCount:], uint16(len(p.Slots)))
	binary.LittleEndian.PutUint16(buf[offFreeSpaceOffset:], p.FreeSpaceOffset)

	cursor := PageHeaderSize
	for _, s := range p.Slots {
		binary.LittleEndian.PutUint16(buf[cursor:], s.Offset)
		binary.LittleEndian.PutUint16(buf[cursor+2:], s.Length)
		cursor += SlotEntrySize
	}

	// Cell bytes sit between FreeSpaceOffset and the usable body end; the
	// page-1 reserved tail beyond UsableBodySize stays zero.
	usable := UsableBodySize(p.ID)
	if p.Data != nil {
		copy(buf[p.FreeSpaceOffset:usable], p.Data[p.FreeSpaceOffset:usable])
	}
	return buf
}

// Decode parses a full PageSize buffer into a Page with materialized cell
// bytes.
func Decode(buf []byte) (*Page, error) {
	if len(buf) != PageSize {
		return nil, types.NewSerializationError(
			fmt.Sprintf("page buffer is %d bytes, want %d", len(buf), PageSize))
	}
	p, err := decodeHeaderAndSlots(buf)
	if err != nil {
		return nil, err
	}
	p.Data = make([]byte, PageSize)
	copy(p.Data, buf)
	return p, nil
}

// DecodeMetadata parses the header plus slot directory from a prefix of the
// page (at least MetadataSize(buf) bytes). The result has no cell bytes;
// Page.Data is nil until the frame is upgraded.
func DecodeMetadata(buf []byte) (*Page, error) {
	if len(buf) < PageHeaderSize {
		return nil, types.NewSerializationError("metadata buffer shorter than page header")
	}
	return decodeHeaderAndSlots(buf)
}

// MetadataSize returns how many leading bytes of a page hold its header and
// slot directory, given at least the fixed header.
func MetadataSize(header []byte) (int, error) {
	if len(header) < PageHeaderSize {
		return 0, types.NewSerializationError("header buffer shorter than page header")
	}
	cellCount := int(binary.LittleEndian.Uint16(header[offCellCount:]))
	return PageHeaderSize + cellCount*SlotEntrySize, nil
}

func decodeHeaderAndSlots(buf []byte) (*Page, error) {
	id := binary.LittleEndian.Uint64(buf[offPageID:])
	pageType, err := types.PageTypeFromByte(buf[offPageType])
	if err != nil {
		return nil, types.NewCorruptedPage(id, fmt.Sprintf("invalid page type byte %d", buf[offPageType]))
	}
	cellCount := int(binary.LittleEndian.Uint16(buf[offCellCount:]))
	freeSpaceOffset := binary.LittleEndian.Uint16(buf[offFreeSpaceOffset:])

	usable := UsableBodySize(id)
	if int(freeSpaceOffset) > usable {
		return nil, types.NewCorruptedPage(id,
			fmt.Sprintf("free space offset %d beyond usable body %d", freeSpaceOffset, usable))
	}
	slotEnd := PageHeaderSize + cellCount*SlotEntrySize
	if int(freeSpaceOffset) < slotEnd {
		return nil, types.NewCorruptedPage(id, "slot directory overlaps cell storage")
	}
	if slotEnd > len(buf) {
		return nil, types.NewCorruptedPage(id, "slot directory extends beyond buffer")
	}

	slots := make([]SlotEntry, 0, cellCount)
	cursor := PageHeaderSize
	for i := 0; i < cellCount; i++ {
		s := SlotEntry{
			Offset: binary.LittleEndian.Uint16(buf[cursor:]),
			Length: binary.LittleEndian.Uint16(buf[cursor+2:]),
		}
		if !s.IsTombstone() {
			if int(s.Offset) < int(freeSpaceOffset) || int(s.Offset)+int(s.Length) > usable {
				return nil, types.NewCorruptedPage(id,
					fmt.Sprintf("slot %d [%d,%d) outside cell region", i, s.Offset, int(s.Offset)+int(s.Length)))
			}
		}
		slots = append(slots, s)
		cursor += SlotEntrySize
	}

	return &Page{
		ID:              id,
		Type:            pageType,
		ParentPageID:    binary.LittleEndian.Uint64(buf[offParentPageID:]),
		NextLeafPageID:  binary.LittleEndian.Uint64(buf[offNextLeafPageID:]),
		Slots:           slots,
		FreeSpaceOffset: freeSpaceOffset,
	}, nil
}

// PopulateBody upgrades a metadata-only page in place with the full page
// image read from disk. It never produces a second decoded copy; in-progress
// slot mutations on the frame are preserved.
func (p *Page) PopulateBody(buf []byte) error {
	if len(buf) != PageSize {
		return types.NewSerializationError(
			fmt.Sprintf("page buffer is %d bytes, want %d", len(buf), PageSize))
	}
	if p.Data != nil {
		return nil
	}
	p.Data = make([]byte, PageSize)
	copy(p.Data, buf)
	return nil
}
