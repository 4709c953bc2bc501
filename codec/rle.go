package codec

import "encoding/binary"

// CompressRLE serializes pixel changes as fixed 8-byte records:
// a big-endian 32-bit pixel offset, a one-byte run count and three RGB bytes.
// There is no framing or record count; the stream ends at the buffer's end.
func CompressRLE(changes []PixelChange) []byte {
	if len(changes) == 0 {
		return nil
	}

	out := make([]byte, 0, len(changes)*RLERecordSize)
	var record [RLERecordSize]byte
	for _, change := range changes {
		binary.BigEndian.PutUint32(record[0:4], change.Offset)
		record[4] = change.Count
		record[5] = change.R
		record[6] = change.G
		record[7] = change.B
		out = append(out, record[:]...)
	}
	return out
}

// DecompressRLE parses whole 8-byte records from data in file order.
// Trailing bytes shorter than one record are discarded. Offsets are not
// validated here; ApplyChanges clamps out-of-range runs on paint.
func DecompressRLE(data []byte) []PixelChange {
	if len(data) < RLERecordSize {
		return nil
	}

	changes := make([]PixelChange, 0, len(data)/RLERecordSize)
	for i := 0; i+RLERecordSize <= len(data); i += RLERecordSize {
		changes = append(changes, PixelChange{
			Offset: binary.BigEndian.Uint32(data[i : i+4]),
			Count:  data[i+4],
			R:      data[i+5],
			G:      data[i+6],
			B:      data[i+7],
		})
	}
	return changes
}
