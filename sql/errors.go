package sql

import "fmt"

// SyntaxError reports a grammar rejection at a specific source offset,
// along with what the parser expected there (§7).
type SyntaxError struct {
	Offset   int
	Line     int
	Column   int
	Message  string
	Expected string
}

func (e *SyntaxError) Error() string {
	if e.Expected != "" {
		return fmt.Sprintf("syntax error at line %d, column %d: %s (expected %s)", e.Line, e.Column, e.Message, e.Expected)
	}
	return fmt.Sprintf("syntax error at line %d, column %d: %s", e.Line, e.Column, e.Message)
}
