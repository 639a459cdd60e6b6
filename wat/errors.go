package wat

import "fmt"

// Error is the wat package's structured diagnostic, mirroring
// decode.Error's shape (SPEC_FULL.md §10.2): every failure it reports
// (empty identifier, disallowed idchar) is of the lexical kind, so the
// kind isn't worth threading as a field -- the type itself says it.
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("lexical error: %s", e.Message)
}

func newLexicalError(format string, args ...any) error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}
