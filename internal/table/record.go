package table

import (
	"encoding/binary"

	"urchindb/internal/layout"
)

// Record is a record's fixed-size header: next_off (chain/freelist link),
// the length of the stored key, and the length of the stored value. Key and
// value bytes themselves live immediately after the header on disk and are
// read separately via ReadKey/ReadData.
type Record struct {
	NextOff uint32
	KeyLen  uint32
	DataLen uint32
}

// Capacity is the record's payload capacity, used to decide whether a
// freelist entry is large enough for a new insert and whether an in-place
// update fits. Per spec.md §9 open question 1, this is computed from the
// record's *current* KeyLen+DataLen, not the size of the slot as originally
// allocated — an in-place update that shrinks DataLen permanently lowers the
// value this returns, even though the physical slot on disk is unchanged.
func (r Record) Capacity() uint32 {
	return r.KeyLen + r.DataLen
}

// encodeHeader writes next_off, key_len, data_len as three little-endian
// uint32s, matching table_write_rec's buf layout.
func encodeHeader(r Record) [layout.RecordHeaderSize]byte {
	var buf [layout.RecordHeaderSize]byte
	binary.LittleEndian.PutUint32(buf[0:], r.NextOff)
	binary.LittleEndian.PutUint32(buf[4:], r.KeyLen)
	binary.LittleEndian.PutUint32(buf[8:], r.DataLen)
	return buf
}

func decodeHeader(buf []byte) Record {
	return Record{
		NextOff: binary.LittleEndian.Uint32(buf[0:]),
		KeyLen:  binary.LittleEndian.Uint32(buf[4:]),
		DataLen: binary.LittleEndian.Uint32(buf[8:]),
	}
}
