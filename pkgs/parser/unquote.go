package parser

import "strconv"

// unquote decodes a lexed STR_LIT token's raw text (including surrounding
// double quotes) into its string value. Escape validity was only checked
// shallowly by the lexer (a backslash blindly consumes the next byte), so
// strconv.Unquote is what actually rejects an invalid escape sequence.
func unquote(raw string) (string, error) {
	return strconv.Unquote(raw)
}
