package decode

import (
	"bufio"
	"io"
)

// source is a forward, non-seekable octet stream with a one-byte
// lookahead (curByte) and a monotonically increasing offset (curOffset)
// used only for diagnostics. It mirrors the Wasm_parser lookahead model
// this decoder is grounded on: priming reads the first byte, and every
// consumption advances the offset by one and refills the lookahead.
//
// sectionEnd, when non-negative, bounds the current section's payload:
// parse_byte refuses to cross it, even if the underlying stream has
// more data, turning a truncated section payload into an immediate
// framing error instead of silently borrowing bytes from whatever
// follows.
type source struct {
	r          *bufio.Reader
	curByte    byte
	curOffset  int
	eof        bool
	sectionEnd int // -1 when unbounded
}

func newSource(r io.Reader) *source {
	s := &source{r: bufio.NewReader(r), sectionEnd: -1}
	s.prime()
	return s
}

func (s *source) prime() {
	b, err := s.r.ReadByte()
	if err != nil {
		s.eof = true
		return
	}
	s.curByte = b
}

// atEOF reports whether the lookahead is exhausted, either because the
// underlying stream ended or because a bounded section's end offset
// was reached.
func (s *source) atEOF() bool {
	if s.eof {
		return true
	}
	if s.sectionEnd >= 0 && s.curOffset >= s.sectionEnd {
		return true
	}
	return false
}

// parseByte returns the current lookahead byte and advances.
func (s *source) parseByte() (byte, error) {
	if s.atEOF() {
		return 0, newError(KindFraming, s.curOffset, "unexpected end of file")
	}
	b := s.curByte
	s.curOffset++
	s.prime()
	return b, nil
}

// matchByte consumes one byte and requires it to equal expected.
func (s *source) matchByte(expected byte) error {
	offset := s.curOffset
	b, err := s.parseByte()
	if err != nil {
		return err
	}
	if b != expected {
		return newError(KindFraming, offset, "expected byte 0x%02x, found 0x%02x instead", expected, b)
	}
	return nil
}

// maybeMatchByte consumes and returns true only if the lookahead equals
// probe; it never fails.
func (s *source) maybeMatchByte(probe byte) bool {
	if s.atEOF() || s.curByte != probe {
		return false
	}
	_, _ = s.parseByte()
	return true
}

// skipBytes advances count bytes without returning them.
func (s *source) skipBytes(count uint32) error {
	for i := uint32(0); i < count; i++ {
		if _, err := s.parseByte(); err != nil {
			return err
		}
	}
	return nil
}

// enterSection bounds subsequent reads to size bytes from the current
// offset and returns a restore function that must be called after the
// section parser returns (success or failure) to pop the bound and
// verify the exact number of bytes were consumed.
func (s *source) enterSection(size uint32) (startOffset int, exit func() error) {
	start := s.curOffset
	prevEnd := s.sectionEnd
	newEnd := start + int(size)
	if prevEnd >= 0 && newEnd > prevEnd {
		newEnd = prevEnd
	}
	s.sectionEnd = newEnd
	return start, func() error {
		actual := s.curOffset - start
		s.sectionEnd = prevEnd
		if actual != int(size) {
			return newError(KindFraming, start,
				"declared size %d doesn't match actual size %d (ends at offset %d)", size, actual, s.curOffset)
		}
		return nil
	}
}
