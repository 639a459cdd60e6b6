package decode

import "math"

// parseName reads a u32 length followed by that many raw bytes, as a
// string. No UTF-8 validation is performed (SPEC_FULL.md §9).
func (s *source) parseName() (string, error) {
	n, err := s.parseU32()
	if err != nil {
		return "", err
	}
	if n == math.MaxUint32 {
		return "", newError(KindEncoding, s.curOffset, "name length overflows loop bound")
	}
	buf := make([]byte, n)
	for i := range buf {
		b, err := s.parseByte()
		if err != nil {
			return "", err
		}
		buf[i] = b
	}
	return string(buf), nil
}

// parseVec reads a u32 element count and then invokes element that many
// times, in order, returning the collected results. This is the single
// polymorphic reader every vector-shaped production in the grammar is
// built from.
func parseVec[T any](s *source, element func(i uint32) (T, error)) ([]T, error) {
	n, err := s.parseU32()
	if err != nil {
		return nil, err
	}
	if n == math.MaxUint32 {
		return nil, newError(KindEncoding, s.curOffset, "vector count overflows loop bound")
	}
	result := make([]T, 0, n)
	for i := uint32(0); i < n; i++ {
		v, err := element(i)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}
