package codec

import "encoding/binary"

// PacketHeader is the fixed datagram header. All fields travel big-endian.
type PacketHeader struct {
	FrameID      uint32
	PacketID     uint32
	TotalPackets uint32
	Width        uint32
	Height       uint32
	DataSize     uint32
}

// CreateNetworkPacket builds one datagram: the 24-byte big-endian header
// followed by the payload.
func CreateNetworkPacket(data []byte, frameID, packetID, totalPackets, width, height uint32) []byte {
	packet := make([]byte, PacketHeaderSize+len(data))
	binary.BigEndian.PutUint32(packet[0:4], frameID)
	binary.BigEndian.PutUint32(packet[4:8], packetID)
	binary.BigEndian.PutUint32(packet[8:12], totalPackets)
	binary.BigEndian.PutUint32(packet[12:16], width)
	binary.BigEndian.PutUint32(packet[16:20], height)
	binary.BigEndian.PutUint32(packet[20:24], uint32(len(data)))
	copy(packet[PacketHeaderSize:], data)
	return packet
}

// ParseNetworkPacket validates and decodes one datagram. It rejects packets
// shorter than the header and packets whose buffer does not cover the
// declared payload size. The returned payload aliases into packet.
func ParseNetworkPacket(packet []byte) (PacketHeader, []byte, bool) {
	if len(packet) < PacketHeaderSize {
		return PacketHeader{}, nil, false
	}

	header := PacketHeader{
		FrameID:      binary.BigEndian.Uint32(packet[0:4]),
		PacketID:     binary.BigEndian.Uint32(packet[4:8]),
		TotalPackets: binary.BigEndian.Uint32(packet[8:12]),
		Width:        binary.BigEndian.Uint32(packet[12:16]),
		Height:       binary.BigEndian.Uint32(packet[16:20]),
		DataSize:     binary.BigEndian.Uint32(packet[20:24]),
	}

	if uint32(len(packet)-PacketHeaderSize) < header.DataSize {
		return PacketHeader{}, nil, false
	}

	return header, packet[PacketHeaderSize : PacketHeaderSize+int(header.DataSize)], true
}

// FragmentFrame splits an encoded frame into datagrams of at most
// MaxPayloadSize payload bytes each. All fragments carry the same frameID,
// dimensions and total count; packetID numbers them from zero. A payload at
// or below the limit yields a single packet.
func FragmentFrame(data []byte, frameID, width, height uint32) [][]byte {
	if len(data) <= MaxPayloadSize {
		return [][]byte{CreateNetworkPacket(data, frameID, 0, 1, width, height)}
	}

	totalPackets := uint32((len(data) + MaxPayloadSize - 1) / MaxPayloadSize)
	packets := make([][]byte, 0, totalPackets)
	for packetID := uint32(0); packetID < totalPackets; packetID++ {
		offset := int(packetID) * MaxPayloadSize
		end := offset + MaxPayloadSize
		if end > len(data) {
			end = len(data)
		}
		packets = append(packets, CreateNetworkPacket(data[offset:end], frameID, packetID, totalPackets, width, height))
	}
	return packets
}
