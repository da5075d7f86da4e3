package wire

import (
	"encoding/binary"
	"fmt"
	"io"
)

// ReadFrame reads one length-prefixed frame: an 8-byte little-endian
// length followed by exactly that many payload bytes. It enforces
// MaxFrameLength before allocating a buffer, then the [MinLength,
// MaxLength] legal range from the framing rules. Returns io.EOF only
// when the connection closes cleanly between frames; any partial read
// is reported as ErrFraming.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [8]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("%w: reading length prefix: %v", ErrFraming, err)
	}

	length := binary.LittleEndian.Uint64(lenBuf[:])
	if length > MaxFrameLength {
		return nil, ErrFrameTooLarge
	}
	if length < MinLength || length > MaxLength {
		return nil, fmt.Errorf("%w: length %d outside [%d,%d]", ErrFraming, length, MinLength, MaxLength)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("%w: reading payload: %v", ErrFraming, err)
	}

	return payload, nil
}

// WriteFrame writes the length prefix followed by the payload in a
// single Write where possible, preserving per-connection ordering when
// the caller serializes calls to WriteFrame.
func WriteFrame(w io.Writer, payload []byte) error {
	buf := make([]byte, 8+len(payload))
	binary.LittleEndian.PutUint64(buf[:8], uint64(len(payload)))
	copy(buf[8:], payload)

	_, err := w.Write(buf)
	return err
}

// ReadMessage reads one frame and decodes it.
func ReadMessage(r io.Reader) (Message, error) {
	payload, err := ReadFrame(r)
	if err != nil {
		return nil, err
	}
	return Decode(payload)
}

// WriteMessage encodes and writes one message as a frame.
func WriteMessage(w io.Writer, m Message) error {
	return WriteFrame(w, m.Encode())
}
