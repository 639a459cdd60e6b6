package decode

import "github.com/patvarilly/wasmtoolbox/ast"

const (
	nameSubModule       = 0
	nameSubFunctions    = 1
	nameSubLocals       = 2
	nameSubGlobals      = 7
	nameSubDataSegments = 9
)

func (s *source) parseNameMap() (map[uint32]string, error) {
	result := map[uint32]string{}
	_, err := parseVec(s, func(uint32) (struct{}, error) {
		idx, err := s.parseU32()
		if err != nil {
			return struct{}{}, err
		}
		name, err := s.parseName()
		if err != nil {
			return struct{}{}, err
		}
		result[idx] = name
		return struct{}{}, nil
	})
	return result, err
}

func (s *source) parseIndirectNameMap() (map[uint32]map[uint32]string, error) {
	result := map[uint32]map[uint32]string{}
	_, err := parseVec(s, func(uint32) (struct{}, error) {
		idx, err := s.parseU32()
		if err != nil {
			return struct{}{}, err
		}
		inner, err := s.parseNameMap()
		if err != nil {
			return struct{}{}, err
		}
		result[idx] = inner
		return struct{}{}, nil
	})
	return result, err
}

// parseCustomSec parses one custom section, dispatching on its name. The
// "name" section (and its extended subsections) and "sourceMappingURL"
// are recognized specially; anything else is skipped to the section end.
func (s *source) parseCustomSec(module *ast.Module, logf func(format string, args ...any)) error {
	_, err := parseSection(s, secCustom, func() (struct{}, error) {
		name, err := s.parseName()
		if err != nil {
			return struct{}{}, err
		}
		sectionSize := s.sectionEnd

		switch name {
		case "name":
			if module.Names == nil {
				module.Names = ast.NewNameTable()
			}
			for !s.atEOF() && s.curOffset < sectionSize {
				subOffset := s.curOffset
				subID := s.curByte
				switch subID {
				case nameSubModule:
					if err := s.matchByte(nameSubModule); err != nil {
						return struct{}{}, err
					}
					if _, err := s.parseU32(); err != nil { // subsection size
						return struct{}{}, err
					}
					n, err := s.parseName()
					if err != nil {
						return struct{}{}, err
					}
					module.Name = &n
				case nameSubFunctions:
					if err := s.matchByte(nameSubFunctions); err != nil {
						return struct{}{}, err
					}
					if _, err := s.parseU32(); err != nil {
						return struct{}{}, err
					}
					m, err := s.parseNameMap()
					if err != nil {
						return struct{}{}, err
					}
					module.Names.Functions = m
				case nameSubLocals:
					if err := s.matchByte(nameSubLocals); err != nil {
						return struct{}{}, err
					}
					if _, err := s.parseU32(); err != nil {
						return struct{}{}, err
					}
					m, err := s.parseIndirectNameMap()
					if err != nil {
						return struct{}{}, err
					}
					module.Names.Locals = m
				case nameSubGlobals:
					if err := s.matchByte(nameSubGlobals); err != nil {
						return struct{}{}, err
					}
					if _, err := s.parseU32(); err != nil {
						return struct{}{}, err
					}
					m, err := s.parseNameMap()
					if err != nil {
						return struct{}{}, err
					}
					module.Names.Globals = m
				case nameSubDataSegments:
					if err := s.matchByte(nameSubDataSegments); err != nil {
						return struct{}{}, err
					}
					if _, err := s.parseU32(); err != nil {
						return struct{}{}, err
					}
					m, err := s.parseNameMap()
					if err != nil {
						return struct{}{}, err
					}
					module.Names.DataSegments = m
				default:
					if err := s.matchByte(subID); err != nil {
						return struct{}{}, err
					}
					subSize, err := s.parseU32()
					if err != nil {
						return struct{}{}, err
					}
					if logf != nil {
						logf("unrecognized name subsection id %d at offset %d, skipping %d bytes", subID, subOffset, subSize)
					}
					if err := s.skipBytes(subSize); err != nil {
						return struct{}{}, err
					}
				}
			}
		case "sourceMappingURL":
			if _, err := s.parseName(); err != nil {
				return struct{}{}, err
			}
			if s.curOffset < sectionSize {
				if err := s.skipBytes(uint32(sectionSize - s.curOffset)); err != nil {
					return struct{}{}, err
				}
			}
		default:
			if s.curOffset < sectionSize {
				if err := s.skipBytes(uint32(sectionSize - s.curOffset)); err != nil {
					return struct{}{}, err
				}
			}
		}
		return struct{}{}, nil
	})
	return err
}
