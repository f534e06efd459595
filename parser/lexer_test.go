package parser

import "testing"

func tokenKinds(t *testing.T, source string) []TokenKind {
	t.Helper()
	toks, err := NewLexer(source).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize error: %v", err)
	}
	kinds := make([]TokenKind, len(toks))
	for i, tok := range toks {
		kinds[i] = tok.Kind
	}
	return kinds
}

func TestLexerOperators(t *testing.T) {
	kinds := tokenKinds(t, "-> == != <= >= && || << >> += -= *= /= %=")
	want := []TokenKind{
		TokenArrow, TokenEqualEqual, TokenBangEqual, TokenLessEqual, TokenGreaterEqual,
		TokenAmpAmp, TokenPipePipe, TokenLessLess, TokenGreaterGreater,
		TokenPlusEqual, TokenMinusEqual, TokenStarEqual, TokenSlashEqual, TokenPercentEqual,
		TokenEOF,
	}
	if len(kinds) != len(want) {
		t.Fatalf("expected %d tokens, got %d (%v)", len(want), len(kinds), kinds)
	}
	for i, w := range want {
		if kinds[i] != w {
			t.Errorf("token %d: expected %v, got %v", i, w, kinds[i])
		}
	}
}

func TestLexerComments(t *testing.T) {
	src := `// a line comment
1 /* a block
comment */ 2`
	kinds := tokenKinds(t, src)
	want := []TokenKind{TokenIntLiteral, TokenIntLiteral, TokenEOF}
	if len(kinds) != len(want) {
		t.Fatalf("expected %v, got %v", want, kinds)
	}
}

func TestLexerNumericSuffixes(t *testing.T) {
	toks, err := NewLexer("1u32 2.0f32 3f64").Tokenize()
	if err != nil {
		t.Fatalf("Tokenize error: %v", err)
	}
	if len(toks) != 4 { // 3 literals + EOF
		t.Fatalf("expected 4 tokens, got %d (%+v)", len(toks), toks)
	}
	if toks[0].Kind != TokenIntLiteral || toks[0].Lexeme != "1u32" {
		t.Errorf("unexpected first token: %+v", toks[0])
	}
	if toks[1].Kind != TokenFloatLiteral || toks[1].Lexeme != "2.0f32" {
		t.Errorf("unexpected second token: %+v", toks[1])
	}
	// No '.' or exponent: the lexeme stays an IntLiteral and the parser's
	// intLiteral turns the f64 suffix into a LitF64.
	if toks[2].Kind != TokenIntLiteral || toks[2].Lexeme != "3f64" {
		t.Errorf("unexpected third token: %+v", toks[2])
	}
}

func TestLexerStringLiteral(t *testing.T) {
	toks, err := NewLexer(`"hello world"`).Tokenize()
	if err != nil {
		t.Fatalf("Tokenize error: %v", err)
	}
	if len(toks) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(toks))
	}
	if toks[0].Kind != TokenStringLiteral || toks[0].Lexeme != "hello world" {
		t.Errorf("unexpected string token: %+v", toks[0])
	}
}

func TestLexerUnterminatedString(t *testing.T) {
	_, err := NewLexer(`"hello`).Tokenize()
	if err == nil {
		t.Fatal("expected an unterminated string literal error")
	}
}

func TestLexerKeywords(t *testing.T) {
	kinds := tokenKinds(t, "module import as external struct alias const option fn let var if else while for in return discard true false")
	want := []TokenKind{
		TokenModule, TokenImport, TokenAs, TokenExternal, TokenStruct, TokenAlias,
		TokenConst, TokenOption, TokenFn, TokenLet, TokenVar, TokenIf, TokenElse,
		TokenWhile, TokenFor, TokenIn, TokenReturn, TokenDiscard, TokenBoolLiteral, TokenBoolLiteral,
		TokenEOF,
	}
	if len(kinds) != len(want) {
		t.Fatalf("expected %d tokens, got %d (%v)", len(want), len(kinds), kinds)
	}
	for i, w := range want {
		if kinds[i] != w {
			t.Errorf("token %d: expected %v, got %v", i, w, kinds[i])
		}
	}
}

func TestLexerUnexpectedCharacter(t *testing.T) {
	_, err := NewLexer("@").Tokenize()
	if err == nil {
		t.Fatal("expected an unexpected-character error")
	}
}
