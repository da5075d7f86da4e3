package wire

import "encoding/binary"

// Serializer writes fixed-offset little-endian fields into a pre-sized
// buffer, advancing an internal cursor. Mirrors the Put-method idiom used
// throughout the retrieved message codecs.
type Serializer struct {
	buf []byte
	off int
}

func NewSerializer(buf []byte) *Serializer {
	return &Serializer{buf: buf}
}

func (s *Serializer) PutType(t MessageType) {
	binary.LittleEndian.PutUint64(s.buf[s.off:s.off+8], uint64(t))
	s.off += 8
}

func (s *Serializer) PutI64(v int64) {
	binary.LittleEndian.PutUint64(s.buf[s.off:s.off+8], uint64(v))
	s.off += 8
}

func (s *Serializer) PutU64(v uint64) {
	binary.LittleEndian.PutUint64(s.buf[s.off:s.off+8], v)
	s.off += 8
}

func (s *Serializer) PutU8(v uint8) {
	s.buf[s.off] = v
	s.off++
}

// Bytes returns the buffer as is. It does not check that every byte was
// written; bytes the caller never wrote stay zero. Writing past the end
// of the buffer panics (via slice bounds) inside the Put methods.
func (s *Serializer) Bytes() []byte {
	return s.buf
}

// Deserializer is the mirror of Serializer for decoding.
type Deserializer struct {
	buf []byte
	off int
}

func NewDeserializer(buf []byte) *Deserializer {
	return &Deserializer{buf: buf}
}

func (d *Deserializer) GetI64() int64 {
	v := binary.LittleEndian.Uint64(d.buf[d.off : d.off+8])
	d.off += 8
	return int64(v)
}

func (d *Deserializer) GetU64() uint64 {
	v := binary.LittleEndian.Uint64(d.buf[d.off : d.off+8])
	d.off += 8
	return v
}

func (d *Deserializer) GetU8() uint8 {
	v := d.buf[d.off]
	d.off++
	return v
}

func (d *Deserializer) SkipI64() {
	d.off += 8
}
