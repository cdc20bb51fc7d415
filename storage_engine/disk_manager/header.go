package diskmanager

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"GroveDB/storage_engine/page"
	"GroveDB/types"
)

/*
File preamble: a fixed 100-byte header at the very start of the database
file, preceding page 1's usable body. Multi-byte header fields are big-endian
(the page bodies themselves are little-endian; the split matches the header's
SQLite ancestry).

	Offset  Size  Field
	──────────────────────────────────────────────
	0       16    magic "GROVE DB v0.1\0\0\0"
	16      2     page size (4096)
	18      1     file format write version
	19      1     file format read version
	20      1     reserved bytes per page
	21      1     max embedded payload fraction
	22      1     min embedded payload fraction
	23      1     leaf payload fraction
	24      4     file change counter
	28      4     database size in pages
	32      4     free-list head page (0 = empty)
	36      4     free-list page count
	40      4     schema cookie
	44      4     schema format number
	48      4     default page cache size
	52      4     largest root b-tree page
	56      4     text encoding (1 = UTF-8)
	60      4     user version
	64      4     incremental-vacuum mode
	68      4     application id
	72      20    reserved, zero
	92      4     version-valid-for counter
	96      4     engine version number
*/

// Magic identifies a GroveDB database file.
var Magic = [16]byte{'G', 'R', 'O', 'V', 'E', ' ', 'D', 'B', ' ', 'v', '0', '.', '1', 0, 0, 0}

const (
	// FormatVersion is written into both format fields of new files.
	FormatVersion = 1
	// MaxSupportedFormat is the newest format this engine reads or writes.
	MaxSupportedFormat = 2

	engineVersionNumber = 1000
)

// FileHeader is the decoded preamble.
type FileHeader struct {
	Magic                      [16]byte
	PageSize                   uint16
	FileFormatWriteVersion     uint8
	FileFormatReadVersion      uint8
	ReservedSpace              uint8
	MaxEmbeddedPayloadFraction uint8
	MinEmbeddedPayloadFraction uint8
	LeafPayloadFraction        uint8
	FileChangeCounter          uint32
	DatabaseSizePages          uint32
	FreelistHeadPage           uint32
	FreelistPageCount          uint32
	SchemaCookie               uint32
	SchemaFormatNumber         uint32
	DefaultPageCacheSize       uint32
	LargestRootBTreePage       uint32
	TextEncoding               uint32
	UserVersion                uint32
	IncrementalVacuumMode      uint32
	ApplicationID              uint32
	VersionValidFor            uint32
	EngineVersionNumber        uint32
}

// NewFileHeader returns the header written into a freshly created database.
func NewFileHeader() FileHeader {
	return FileHeader{
		Magic:                      Magic,
		PageSize:                   page.PageSize,
		FileFormatWriteVersion:     FormatVersion,
		FileFormatReadVersion:      FormatVersion,
		MaxEmbeddedPayloadFraction: 64,
		MinEmbeddedPayloadFraction: 32,
		LeafPayloadFraction:        32,
		FileChangeCounter:          1,
		DatabaseSizePages:          1,
		SchemaCookie:               1,
		SchemaFormatNumber:         4,
		LargestRootBTreePage:       1,
		TextEncoding:               1,
		VersionValidFor:            1,
		EngineVersionNumber:        engineVersionNumber,
	}
}

// Encode serializes the header into exactly PreambleSize bytes.
func (h *FileHeader) Encode() []byte {
	buf := make([]byte, page.PreambleSize)
	copy(buf[0:16], h.Magic[:])
	binary.BigEndian.PutUint16(buf[16:], h.PageSize)
	buf[18] = h.FileFormatWriteVersion
	buf[19] = h.FileFormatReadVersion
	buf[20] = h.ReservedSpace
	buf[21] = h.MaxEmbeddedPayloadFraction
	buf[22] = h.MinEmbeddedPayloadFraction
	buf[23] = h.LeafPayloadFraction
	binary.BigEndian.PutUint32(buf[24:], h.FileChangeCounter)
	binary.BigEndian.PutUint32(buf[28:], h.DatabaseSizePages)
	binary.BigEndian.PutUint32(buf[32:], h.FreelistHeadPage)
	binary.BigEndian.PutUint32(buf[36:], h.FreelistPageCount)
	binary.BigEndian.PutUint32(buf[40:], h.SchemaCookie)
	binary.BigEndian.PutUint32(buf[44:], h.SchemaFormatNumber)
	binary.BigEndian.PutUint32(buf[48:], h.DefaultPageCacheSize)
	binary.BigEndian.PutUint32(buf[52:], h.LargestRootBTreePage)
	binary.BigEndian.PutUint32(buf[56:], h.TextEncoding)
	binary.BigEndian.PutUint32(buf[60:], h.UserVersion)
	binary.BigEndian.PutUint32(buf[64:], h.IncrementalVacuumMode)
	binary.BigEndian.PutUint32(buf[68:], h.ApplicationID)
	binary.BigEndian.PutUint32(buf[92:], h.VersionValidFor)
	binary.BigEndian.PutUint32(buf[96:], h.EngineVersionNumber)
	return buf
}

// DecodeFileHeader parses and validates a preamble. A newer format version
// than this engine understands yields ErrUnsupportedFormat; anything
// malformed yields ErrCorruptedDatabase.
func DecodeFileHeader(buf []byte) (FileHeader, error) {
	var h FileHeader
	if len(buf) < page.PreambleSize {
		return h, types.NewCorruptedDatabase("file header too short")
	}
	copy(h.Magic[:], buf[0:16])
	if !bytes.Equal(h.Magic[:], Magic[:]) {
		return h, types.NewCorruptedDatabase("bad magic")
	}
	h.PageSize = binary.BigEndian.Uint16(buf[16:])
	if h.PageSize != page.PageSize {
		return h, types.NewCorruptedDatabase(fmt.Sprintf("unsupported page size %d", h.PageSize))
	}
	h.FileFormatWriteVersion = buf[18]
	h.FileFormatReadVersion = buf[19]
	if h.FileFormatWriteVersion > MaxSupportedFormat || h.FileFormatReadVersion > MaxSupportedFormat {
		return h, types.NewUnsupportedFormat(h.FileFormatWriteVersion)
	}
	h.ReservedSpace = buf[20]
	h.MaxEmbeddedPayloadFraction = buf[21]
	h.MinEmbeddedPayloadFraction = buf[22]
	h.LeafPayloadFraction = buf[23]
	h.FileChangeCounter = binary.BigEndian.Uint32(buf[24:])
	h.DatabaseSizePages = binary.BigEndian.Uint32(buf[28:])
	h.FreelistHeadPage = binary.BigEndian.Uint32(buf[32:])
	h.FreelistPageCount = binary.BigEndian.Uint32(buf[36:])
	h.SchemaCookie = binary.BigEndian.Uint32(buf[40:])
	h.SchemaFormatNumber = binary.BigEndian.Uint32(buf[44:])
	h.DefaultPageCacheSize = binary.BigEndian.Uint32(buf[48:])
	h.LargestRootBTreePage = binary.BigEndian.Uint32(buf[52:])
	h.TextEncoding = binary.BigEndian.Uint32(buf[56:])
	h.UserVersion = binary.BigEndian.Uint32(buf[60:])
	h.IncrementalVacuumMode = binary.BigEndian.Uint32(buf[64:])
	h.ApplicationID = binary.BigEndian.Uint32(buf[68:])
	h.VersionValidFor = binary.BigEndian.Uint32(buf[92:])
	h.EngineVersionNumber = binary.BigEndian.Uint32(buf[96:])
	return h, nil
}
