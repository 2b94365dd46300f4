package lexer

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/aledsdavies/rocket/pkgs/token"
)

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestBasicTokens(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []token.Kind
	}{
		{"let decl", `let x = 1;`, []token.Kind{token.LET, token.IDENTIFIER, token.EQUALS, token.INT_LIT, token.SEMICOLON, token.EOF}},
		{"fn decl", `fn add(a, b) { return a; }`, []token.Kind{
			token.FN, token.IDENTIFIER, token.LPAREN, token.IDENTIFIER, token.COMMA, token.IDENTIFIER, token.RPAREN,
			token.LBRACE, token.RETURN, token.IDENTIFIER, token.SEMICOLON, token.RBRACE, token.EOF,
		}},
		{"attr access", `x.len`, []token.Kind{token.IDENTIFIER, token.ATTR_ACCESS, token.EOF}},
		{"float literal", `3.14`, []token.Kind{token.FLOAT_LIT, token.EOF}},
		{"leading dot float", `.5`, []token.Kind{token.FLOAT_LIT, token.EOF}},
		{"list literal", `[1, 2, 3]`, []token.Kind{
			token.LBRACKET, token.INT_LIT, token.COMMA, token.INT_LIT, token.COMMA, token.INT_LIT, token.RBRACKET, token.EOF,
		}},
		{"dict literal", `{"a": 1}`, []token.Kind{
			token.LBRACE, token.STR_LIT, token.COLON, token.INT_LIT, token.RBRACE, token.EOF,
		}},
		{"line comment", "x // trailing\ny", []token.Kind{token.IDENTIFIER, token.IDENTIFIER, token.EOF}},
		{"multiline comment", "x /* skip\nthis */ y", []token.Kind{token.IDENTIFIER, token.IDENTIFIER, token.EOF}},
		{"bool and null", `true false null`, []token.Kind{token.BOOL_LIT, token.BOOL_LIT, token.NULL_LIT, token.EOF}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Lex(tt.input)
			if err != nil {
				t.Fatalf("Lex(%q) returned error: %v", tt.input, err)
			}
			if diff := cmp.Diff(tt.want, kinds(toks)); diff != "" {
				t.Errorf("Lex(%q) kinds mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestStringLiteralEscapes(t *testing.T) {
	toks, err := Lex(`"hello \"world\""`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(toks) != 2 || toks[0].Kind != token.STR_LIT {
		t.Fatalf("expected a single STR_LIT token, got %v", toks)
	}
	want := `"hello \"world\""`
	if toks[0].Text != want {
		t.Errorf("Text = %q, want %q", toks[0].Text, want)
	}
}

func TestUnclosedStringIsSyntaxError(t *testing.T) {
	_, err := Lex(`"unterminated`)
	var se *SyntaxError
	if err == nil {
		t.Fatal("expected an error")
	}
	if !asSyntaxError(err, &se) {
		t.Fatalf("expected *SyntaxError, got %T: %v", err, err)
	}
	if se.Line != 1 || se.Col != 1 {
		t.Errorf("position = %d:%d, want 1:1", se.Line, se.Col)
	}
}

func TestUnclosedMultilineCommentIsSyntaxError(t *testing.T) {
	_, err := Lex("/* never closed")
	if err == nil {
		t.Fatal("expected an error")
	}
}

func TestUnexpectedCharacterReportsPosition(t *testing.T) {
	_, err := Lex("let x = 1;\n@")
	var se *SyntaxError
	if !asSyntaxError(err, &se) {
		t.Fatalf("expected *SyntaxError, got %T: %v", err, err)
	}
	if se.Line != 2 || se.Col != 1 {
		t.Errorf("position = %d:%d, want 2:1", se.Line, se.Col)
	}
}

func TestLineAndColumnTracking(t *testing.T) {
	toks, err := Lex("let x =\n  1;")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// "1" is on line 2, column 3.
	var intTok token.Token
	for _, tok := range toks {
		if tok.Kind == token.INT_LIT {
			intTok = tok
		}
	}
	if intTok.Line != 2 || intTok.Col != 3 {
		t.Errorf("int literal position = %d:%d, want 2:3", intTok.Line, intTok.Col)
	}
}

func asSyntaxError(err error, target **SyntaxError) bool {
	se, ok := err.(*SyntaxError)
	if ok {
		*target = se
	}
	return ok
}
