// Package sql implements the lexer, parser, and AST for the restricted
// SELECT grammar this tool translates into awk (§4.1). It has no knowledge
// of a schema or of awk generation; those are the plan and cg packages.
package sql

// Parse lexes and parses query text into a Query, or returns a *SyntaxError.
func Parse(source string) (*Query, error) {
	return NewParser(source).Parse()
}
