// Copyright © 2026 Vexel contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: protocol/frame.go
// Summary: Framed socket transport wrapping draw batches and control messages.
// Usage: Host bridge and core process exchange frames over a local socket.
// Notes: Framing is explicit little-endian; only the DrawBatch payload itself
//        is native-endian (see decoder.go).

package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
	"math"
)

const (
	magic      uint32 = 0x56584c01 // "VXL\x01"
	headerSize        = 24
)

// Version is the protocol version implemented by this package.
const Version uint8 = 1

// Flag bits for the header Flags byte.
const (
	FlagChecksum uint8 = 0x01
)

// MessageType enumerates the frames exchanged between the editor core and
// the rendering client.
type MessageType uint8

const (
	MsgHello MessageType = iota
	MsgWelcome
	MsgSetGridSize
	MsgSetFont
	MsgDrawBatch
	MsgFontChanged
	MsgPing
	MsgPong
	MsgBye
)

// Header is the fixed preamble of every frame.
type Header struct {
	Version    uint8
	Type       MessageType
	Flags      uint8
	Reserved   uint8
	Sequence   uint64
	PayloadLen uint32
	Checksum   uint32
}

var (
	ErrInvalidMagic     = errors.New("protocol: invalid magic")
	ErrUnsupportedVer   = errors.New("protocol: unsupported version")
	ErrShortPayload     = errors.New("protocol: payload shorter than declared length")
	ErrChecksumMismatch = errors.New("protocol: checksum mismatch")
	errPayloadShort     = errors.New("protocol: payload too short")
	errStringTooLong    = errors.New("protocol: string exceeds 64KB limit")
)

// WriteMessage serialises the header and payload to w. The payload slice is
// written as-is; callers retain ownership of the buffer.
func WriteMessage(w io.Writer, hdr Header, payload []byte) error {
	hdr.PayloadLen = uint32(len(payload))

	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(buf[0:], magic)
	buf[4] = hdr.Version
	buf[5] = byte(hdr.Type)
	buf[6] = hdr.Flags
	buf[7] = hdr.Reserved
	binary.LittleEndian.PutUint64(buf[8:16], hdr.Sequence)
	binary.LittleEndian.PutUint32(buf[16:20], hdr.PayloadLen)

	checksum := hdr.Checksum
	if hdr.Flags&FlagChecksum != 0 {
		crc := crc32.NewIEEE()
		_, _ = crc.Write(buf[4:20])
		if len(payload) > 0 {
			_, _ = crc.Write(payload)
		}
		checksum = crc.Sum32()
	}
	binary.LittleEndian.PutUint32(buf[20:24], checksum)

	if _, err := w.Write(buf); err != nil {
		return err
	}
	if len(payload) == 0 {
		return nil
	}
	_, err := w.Write(payload)
	return err
}

// ReadMessage reads one frame from r. The returned payload is a freshly
// allocated slice sized to the declared payload length.
func ReadMessage(r io.Reader) (Header, []byte, error) {
	var hdr Header
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return hdr, nil, err
	}

	if binary.LittleEndian.Uint32(buf[0:4]) != magic {
		return hdr, nil, ErrInvalidMagic
	}

	hdr.Version = buf[4]
	hdr.Type = MessageType(buf[5])
	hdr.Flags = buf[6]
	hdr.Reserved = buf[7]
	hdr.Sequence = binary.LittleEndian.Uint64(buf[8:16])
	hdr.PayloadLen = binary.LittleEndian.Uint32(buf[16:20])
	hdr.Checksum = binary.LittleEndian.Uint32(buf[20:24])

	if hdr.Version != Version {
		return hdr, nil, ErrUnsupportedVer
	}

	payload := make([]byte, hdr.PayloadLen)
	if hdr.PayloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return hdr, nil, ErrShortPayload
			}
			return hdr, nil, err
		}
	}

	if hdr.Flags&FlagChecksum != 0 {
		crc := crc32.NewIEEE()
		_, _ = crc.Write(buf[4:20])
		if len(payload) > 0 {
			_, _ = crc.Write(payload)
		}
		if crc.Sum32() != hdr.Checksum {
			return hdr, nil, ErrChecksumMismatch
		}
	}

	return hdr, payload, nil
}

// Hello initiates the handshake from the core process.
type Hello struct {
	CoreName     string
	Capabilities uint32
}

// Welcome acknowledges the handshake from the rendering client.
type Welcome struct {
	ClientName string
}

// SetGridSize requests a new logical grid extent. The view remembers the
// size immediately but defers the surface resize to the next batch.
type SetGridSize struct {
	Rows    uint16
	Columns uint16
}

// SetFont selects the active font and cell shaping parameters.
type SetFont struct {
	Name       string
	Size       float64
	WidthScale float64
	Linespace  int16
	Antialias  bool
}

// FontChanged notifies the core that the user picked a different font.
type FontChanged struct {
	Name string
	Size float64
}

func encodeString(buf *bytes.Buffer, value string) error {
	if len(value) > 0xFFFF {
		return errStringTooLong
	}
	if err := binary.Write(buf, binary.LittleEndian, uint16(len(value))); err != nil {
		return err
	}
	if len(value) > 0 {
		if _, err := buf.WriteString(value); err != nil {
			return err
		}
	}
	return nil
}

func decodeString(b []byte) (string, []byte, error) {
	if len(b) < 2 {
		return "", nil, errPayloadShort
	}
	length := binary.LittleEndian.Uint16(b[:2])
	b = b[2:]
	if uint16(len(b)) < length {
		return "", nil, errPayloadShort
	}
	return string(b[:length]), b[length:], nil
}

func EncodeHello(h Hello) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 8+len(h.CoreName)))
	if err := encodeString(buf, h.CoreName); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, h.Capabilities); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeHello(b []byte) (Hello, error) {
	var h Hello
	name, rest, err := decodeString(b)
	if err != nil {
		return h, err
	}
	if len(rest) < 4 {
		return h, errPayloadShort
	}
	h.CoreName = name
	h.Capabilities = binary.LittleEndian.Uint32(rest[:4])
	return h, nil
}

func EncodeWelcome(w Welcome) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 2+len(w.ClientName)))
	if err := encodeString(buf, w.ClientName); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeWelcome(b []byte) (Welcome, error) {
	var w Welcome
	name, _, err := decodeString(b)
	if err != nil {
		return w, err
	}
	w.ClientName = name
	return w, nil
}

func EncodeSetGridSize(s SetGridSize) ([]byte, error) {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint16(buf[0:2], s.Rows)
	binary.LittleEndian.PutUint16(buf[2:4], s.Columns)
	return buf, nil
}

func DecodeSetGridSize(b []byte) (SetGridSize, error) {
	var s SetGridSize
	if len(b) < 4 {
		return s, errPayloadShort
	}
	s.Rows = binary.LittleEndian.Uint16(b[0:2])
	s.Columns = binary.LittleEndian.Uint16(b[2:4])
	return s, nil
}

func EncodeSetFont(f SetFont) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 24+len(f.Name)))
	if err := encodeString(buf, f.Name); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, math.Float64bits(f.Size)); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, math.Float64bits(f.WidthScale)); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, f.Linespace); err != nil {
		return nil, err
	}
	if f.Antialias {
		buf.WriteByte(1)
	} else {
		buf.WriteByte(0)
	}
	return buf.Bytes(), nil
}

func DecodeSetFont(b []byte) (SetFont, error) {
	var f SetFont
	name, rest, err := decodeString(b)
	if err != nil {
		return f, err
	}
	if len(rest) < 19 {
		return f, errPayloadShort
	}
	f.Name = name
	f.Size = math.Float64frombits(binary.LittleEndian.Uint64(rest[0:8]))
	f.WidthScale = math.Float64frombits(binary.LittleEndian.Uint64(rest[8:16]))
	f.Linespace = int16(binary.LittleEndian.Uint16(rest[16:18]))
	f.Antialias = rest[18] != 0
	return f, nil
}

func EncodeFontChanged(f FontChanged) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 10+len(f.Name)))
	if err := encodeString(buf, f.Name); err != nil {
		return nil, err
	}
	if err := binary.Write(buf, binary.LittleEndian, math.Float64bits(f.Size)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func DecodeFontChanged(b []byte) (FontChanged, error) {
	var f FontChanged
	name, rest, err := decodeString(b)
	if err != nil {
		return f, err
	}
	if len(rest) < 8 {
		return f, errPayloadShort
	}
	f.Name = name
	f.Size = math.Float64frombits(binary.LittleEndian.Uint64(rest[:8]))
	return f, nil
}
