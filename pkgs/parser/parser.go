// Package parser implements a recursive-descent parser with one-token
// lookahead over the token stream produced by pkgs/lexer.
package parser

import (
	"fmt"
	"strconv"

	"github.com/aledsdavies/rocket/pkgs/ast"
	"github.com/aledsdavies/rocket/pkgs/lexer"
	"github.com/aledsdavies/rocket/pkgs/token"
)

// SyntaxError is a parse failure carrying the 1-based line/column of the
// offending token.
type SyntaxError struct {
	Line, Col int
	Msg       string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%d:%d: %s", e.Line, e.Col, e.Msg)
}

// Parser consumes a token sequence and produces an *ast.Root. Position is
// the only state carried across parses of the same Parser value; callers
// should construct a fresh Parser (or call Parse/ParseTokens) per source
// file.
type Parser struct {
	toks      []token.Token
	pos       int
	loopDepth int
	inFnDecl  bool
}

// Parse lexes and parses src in one step.
func Parse(src string) (*ast.Root, error) {
	toks, err := lexer.Lex(src)
	if err != nil {
		return nil, err
	}
	return ParseTokens(toks)
}

// ParseTokens parses a pre-lexed token sequence (must end in an EOF
// token, as produced by lexer.Lex).
func ParseTokens(toks []token.Token) (root *ast.Root, err error) {
	p := &Parser{toks: toks}
	defer func() {
		if r := recover(); r != nil {
			if se, ok := r.(*SyntaxError); ok {
				err = se
				return
			}
			panic(r)
		}
	}()
	root = p.parseProgram()
	return root, nil
}

// Program = { FnDefinition | Stmt }
func (p *Parser) parseProgram() *ast.Root {
	root := &ast.Root{}
	for !p.isDone() {
		if p.lookahead(token.FN) {
			root.Items = append(root.Items, p.parseFnDefinition())
		} else {
			root.Items = append(root.Items, p.parseStmt())
		}
	}
	return root
}

// FnDefinition = "fn" IDENTIFIER "(" [ IDENTIFIER { "," IDENTIFIER } ] ")" Block
func (p *Parser) parseFnDefinition() *ast.FnDefinition {
	tok := p.expect(token.FN)
	name := p.expect(token.IDENTIFIER).Text
	p.expect(token.LPAREN)

	var params []string
	for !p.accept(token.RPAREN) {
		if len(params) > 0 {
			p.expect(token.COMMA)
		}
		params = append(params, p.expect(token.IDENTIFIER).Text)
	}

	prevInFn := p.inFnDecl
	p.inFnDecl = true
	body := p.parseBlock()
	p.inFnDecl = prevInFn

	return &ast.FnDefinition{Node: pos(tok), Name: name, Params: params, Body: body}
}

// Block = "{" { Stmt } "}"
func (p *Parser) parseBlock() *ast.Block {
	tok := p.expect(token.LBRACE)
	var stmts []ast.Stmt
	for !p.accept(token.RBRACE) {
		stmts = append(stmts, p.parseStmt())
	}
	return &ast.Block{Node: pos(tok), Stmts: stmts}
}

// Stmt = { ";" } ( ForLoop | IfStmt | VarDecl | TryStmt | WhileStmt
//                | "break" ";" | "continue" ";" | ReturnStmt | Expr ";" )
func (p *Parser) parseStmt() ast.Stmt {
	for p.accept(token.SEMICOLON) {
	}

	switch p.peek().Kind {
	case token.FOR:
		return p.parseForLoop()
	case token.IF:
		return p.parseIfStmt()
	case token.LET:
		return p.parseVarDecl()
	case token.TRY:
		return p.parseTryStmt()
	case token.WHILE:
		return p.parseWhileStmt()
	case token.BREAK:
		return p.parseBreakStmt()
	case token.CONTINUE:
		return p.parseContinueStmt()
	case token.RETURN:
		return p.parseReturnStmt()
	default:
		return p.parseExprStmt()
	}
}

// VarDecl = "let" IDENTIFIER "=" Expr ";"
func (p *Parser) parseVarDecl() *ast.VarDecl {
	tok := p.expect(token.LET)
	name := p.expect(token.IDENTIFIER).Text
	p.expect(token.EQUALS)
	expr := p.parseExpr()
	p.expect(token.SEMICOLON)
	return &ast.VarDecl{Node: pos(tok), Name: name, Expr: expr}
}

// IfStmt = "if" "(" Expr ")" Block [ "else" ( IfStmt | Block ) ]
func (p *Parser) parseIfStmt() *ast.If {
	tok := p.expect(token.IF)
	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	then := p.parseBlock()

	var elseBranch ast.Stmt
	if p.accept(token.ELSE) {
		if p.lookahead(token.IF) {
			elseBranch = p.parseIfStmt()
		} else {
			elseBranch = p.parseBlock()
		}
	}
	return &ast.If{Node: pos(tok), Cond: cond, Then: then, Else: elseBranch}
}

// WhileStmt = "while" "(" Expr ")" Block
func (p *Parser) parseWhileStmt() *ast.While {
	tok := p.expect(token.WHILE)
	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)

	p.loopDepth++
	body := p.parseBlock()
	p.loopDepth--
	return &ast.While{Node: pos(tok), Cond: cond, Body: body}
}

// ForLoop = CStyleFor | ForEach, disambiguated by a 3-token lookahead
// ("let" IDENTIFIER "in") with save/restore of parser position.
func (p *Parser) parseForLoop() ast.Stmt {
	p.expect(token.FOR)
	tok := p.expect(token.LPAREN)

	mark := p.pos
	isForEach := p.accept(token.LET) && p.accept(token.IDENTIFIER) && p.accept(token.IN)
	p.pos = mark

	if isForEach {
		return p.parseForEach(tok)
	}
	return p.parseCStyleFor(tok)
}

// ForEach = "for" "(" "let" IDENTIFIER "in" Expr ")" Block
func (p *Parser) parseForEach(tok token.Token) *ast.ForEach {
	p.expect(token.LET)
	binding := p.expect(token.IDENTIFIER).Text
	p.expect(token.IN)
	iterable := p.parseExpr()
	p.expect(token.RPAREN)

	p.loopDepth++
	body := p.parseBlock()
	p.loopDepth--

	return &ast.ForEach{Node: pos(tok), Binding: binding, Iterable: iterable, Body: body}
}

// CStyleFor = "for" "(" ForInit ForCond ForPost ")" Block, lowered into a
// block containing the (optional) init statement followed by a while
// loop. See rewriteContinues for why a plain "append POST to the loop
// body" lowering is insufficient.
func (p *Parser) parseCStyleFor(tok token.Token) *ast.Block {
	initStmt := p.parseForInit()
	cond := p.parseForCond()
	post := p.parseForPost()
	p.expect(token.RPAREN)

	p.loopDepth++
	body := p.parseBlock()
	p.loopDepth--

	if post != nil {
		if n := len(body.Stmts); n == 0 || !isContinue(body.Stmts[n-1]) {
			body.Stmts = append(body.Stmts, &ast.Continue{Node: ast.Node{Line: -1, Col: -1}})
		}
		body = p.rewriteContinues(body, post)
	}

	whileStmt := &ast.While{Node: pos(tok), Cond: cond, Body: body}
	stmts := make([]ast.Stmt, 0, 2)
	if initStmt != nil {
		stmts = append(stmts, initStmt)
	}
	stmts = append(stmts, whileStmt)
	return &ast.Block{Node: pos(tok), Stmts: stmts}
}

// ForInit = VarDecl | Expr ";" | ";"
func (p *Parser) parseForInit() ast.Stmt {
	if p.accept(token.SEMICOLON) {
		return nil
	}
	if p.lookahead(token.LET) {
		return p.parseVarDecl()
	}
	return p.parseExprStmt()
}

// ForCond = [ Expr ] ";"
func (p *Parser) parseForCond() ast.Expr {
	if p.lookahead(token.SEMICOLON) {
		tok := p.next()
		return &ast.BoolLit{Node: pos(tok), Val: true}
	}
	expr := p.parseExprStmt()
	return expr.(ast.Expr)
}

// ForPost = [ Expr ]
func (p *Parser) parseForPost() ast.Expr {
	if p.lookahead(token.RPAREN) {
		return nil
	}
	return p.parseExpr()
}

func isContinue(s ast.Stmt) bool {
	_, ok := s.(*ast.Continue)
	return ok
}

// rewriteContinues descends into blocks, if-branches, and try/catch
// bodies (but not into nested loops) rewriting every "continue" into
// "{ post; continue; }" so POST still runs on a short-circuited
// iteration.
func (p *Parser) rewriteContinues(s ast.Stmt, post ast.Expr) *ast.Block {
	return p.rewriteContinueStmt(s, post).(*ast.Block)
}

func (p *Parser) rewriteContinueStmt(s ast.Stmt, post ast.Expr) ast.Stmt {
	switch n := s.(type) {
	case *ast.Block:
		stmts := make([]ast.Stmt, len(n.Stmts))
		for i, c := range n.Stmts {
			stmts[i] = p.rewriteContinueStmt(c, post)
		}
		return &ast.Block{Node: n.Node, Stmts: stmts}
	case *ast.If:
		var elseBranch ast.Stmt
		if n.Else != nil {
			elseBranch = p.rewriteContinueStmt(n.Else, post)
		}
		return &ast.If{Node: n.Node, Cond: n.Cond, Then: p.rewriteContinueStmt(n.Then, post).(*ast.Block), Else: elseBranch}
	case *ast.Try:
		return &ast.Try{
			Node:       n.Node,
			TryBody:    p.rewriteContinueStmt(n.TryBody, post).(*ast.Block),
			CatchBody:  p.rewriteContinueStmt(n.CatchBody, post).(*ast.Block),
			ErrBinding: n.ErrBinding,
		}
	case *ast.Continue:
		return &ast.Block{Node: n.Node, Stmts: []ast.Stmt{post, n}}
	default:
		// Nested loops (While, ForEach, and already-lowered CStyleFor
		// blocks) are left untouched: their own continues are scoped to
		// themselves, not to this loop's POST.
		return s
	}
}

// TryStmt = "try" Block "catch" [ "(" IDENTIFIER ")" ] Block
func (p *Parser) parseTryStmt() *ast.Try {
	tok := p.expect(token.TRY)
	tryBody := p.parseBlock()
	p.expect(token.CATCH)

	var errBinding string
	if p.accept(token.LPAREN) {
		errBinding = p.expect(token.IDENTIFIER).Text
		p.expect(token.RPAREN)
	}
	catchBody := p.parseBlock()
	return &ast.Try{Node: pos(tok), TryBody: tryBody, CatchBody: catchBody, ErrBinding: errBinding}
}

// BreakStmt = "break" ";"
func (p *Parser) parseBreakStmt() *ast.Break {
	tok := p.expect(token.BREAK)
	if p.loopDepth == 0 {
		p.fail(tok, "unexpected break outside of loop body")
	}
	p.expect(token.SEMICOLON)
	return &ast.Break{Node: pos(tok)}
}

// ContinueStmt = "continue" ";"
func (p *Parser) parseContinueStmt() *ast.Continue {
	tok := p.expect(token.CONTINUE)
	if p.loopDepth == 0 {
		p.fail(tok, "unexpected continue outside of loop body")
	}
	p.expect(token.SEMICOLON)
	return &ast.Continue{Node: pos(tok)}
}

// ReturnStmt = "return" [ Expr ] ";"
func (p *Parser) parseReturnStmt() *ast.Return {
	tok := p.expect(token.RETURN)
	if !p.inFnDecl {
		p.fail(tok, "unexpected return outside of function declaration")
	}
	if p.accept(token.SEMICOLON) {
		return &ast.Return{Node: pos(tok)}
	}
	expr := p.parseExpr()
	p.expect(token.SEMICOLON)
	return &ast.Return{Node: pos(tok), Expr: expr}
}

// Expr ";" in statement position.
func (p *Parser) parseExprStmt() ast.Stmt {
	expr := p.parseExpr()
	p.expect(token.SEMICOLON)
	return expr
}

// Expr = Atom { Suffix }
func (p *Parser) parseExpr() ast.Expr {
	atom := p.parseAtom()
	return p.parseSuffixes(atom)
}

func (p *Parser) parseAtom() ast.Expr {
	tok := p.next()
	switch tok.Kind {
	case token.BOOL_LIT:
		return &ast.BoolLit{Node: pos(tok), Val: tok.Text == "true"}
	case token.FLOAT_LIT:
		v, err := strconv.ParseFloat(tok.Text, 64)
		if err != nil {
			p.fail(tok, "invalid float literal")
		}
		return &ast.FloatLit{Node: pos(tok), Val: v}
	case token.INT_LIT:
		v, err := strconv.ParseInt(tok.Text, 10, 64)
		if err != nil {
			p.fail(tok, "invalid integer literal")
		}
		return &ast.IntLit{Node: pos(tok), Val: v}
	case token.STR_LIT:
		v, err := unquote(tok.Text)
		if err != nil {
			p.fail(tok, "invalid string literal")
		}
		return &ast.StrLit{Node: pos(tok), Val: v}
	case token.NULL_LIT:
		return &ast.NullLit{Node: pos(tok)}
	case token.LPAREN:
		expr := p.parseExpr()
		p.expect(token.RPAREN)
		return expr
	case token.LBRACKET:
		p.backup()
		return p.parseListLit()
	case token.LBRACE:
		p.backup()
		return p.parseDictLit()
	case token.IDENTIFIER:
		if p.lookahead(token.EQUALS) {
			p.expect(token.EQUALS)
			val := p.parseExpr()
			return &ast.Assignment{Node: pos(tok), Name: tok.Text, Expr: val}
		}
		return &ast.Access{Node: pos(tok), Name: tok.Text}
	default:
		p.fail(tok, fmt.Sprintf("unexpected token %s at start of expression", tok.Kind))
		panic("unreachable")
	}
}

// parseSuffixes consumes a left-associative chain of call, attribute, and
// index suffixes following an atom.
func (p *Parser) parseSuffixes(expr ast.Expr) ast.Expr {
	for {
		switch p.peek().Kind {
		case token.LPAREN:
			expr = p.parseCallSuffix(expr)
		case token.ATTR_ACCESS:
			expr = p.parseAttrSuffix(expr)
		case token.LBRACKET:
			expr = p.parseItemSuffix(expr)
		default:
			return expr
		}
	}
}

// Suffix = "(" [ Expr { "," Expr } ] ")"
func (p *Parser) parseCallSuffix(callee ast.Expr) ast.Expr {
	line, col := callee.(interface{ Pos() (int, int) }).Pos()
	p.expect(token.LPAREN)
	var args []ast.Expr
	for !p.accept(token.RPAREN) {
		if len(args) > 0 {
			p.expect(token.COMMA)
		}
		args = append(args, p.parseExpr())
	}
	return &ast.Call{Node: ast.Node{Line: line, Col: col}, Callee: callee, Args: args}
}

// Suffix = ATTR_ACCESS [ "=" Expr ]
func (p *Parser) parseAttrSuffix(obj ast.Expr) ast.Expr {
	tok := p.expect(token.ATTR_ACCESS)
	name := tok.Text[1:] // strip leading "."
	if p.accept(token.EQUALS) {
		val := p.parseExpr()
		return &ast.AttrAssign{Node: pos(tok), Obj: obj, Name: name, Expr: val}
	}
	return &ast.AttrAccess{Node: pos(tok), Obj: obj, Name: name}
}

// Suffix = "[" Expr "]" [ "=" Expr ]
func (p *Parser) parseItemSuffix(obj ast.Expr) ast.Expr {
	tok := p.expect(token.LBRACKET)
	key := p.parseExpr()
	p.expect(token.RBRACKET)
	if p.accept(token.EQUALS) {
		val := p.parseExpr()
		return &ast.ItemAssign{Node: pos(tok), Obj: obj, Key: key, Expr: val}
	}
	return &ast.ItemAccess{Node: pos(tok), Obj: obj, Key: key}
}

// ListLit = "[" [ Expr { "," Expr } ] "]"
func (p *Parser) parseListLit() *ast.ListLit {
	tok := p.expect(token.LBRACKET)
	var elems []ast.Expr
	for !p.accept(token.RBRACKET) {
		if len(elems) > 0 {
			p.expect(token.COMMA)
		}
		elems = append(elems, p.parseExpr())
	}
	return &ast.ListLit{Node: pos(tok), Elems: elems}
}

// DictLit = "{" [ Expr ":" Expr { "," Expr ":" Expr } ] "}"
func (p *Parser) parseDictLit() *ast.DictLit {
	tok := p.expect(token.LBRACE)
	var entries []ast.DictEntry
	for !p.accept(token.RBRACE) {
		if len(entries) > 0 {
			p.expect(token.COMMA)
		}
		key := p.parseExpr()
		p.expect(token.COLON)
		val := p.parseExpr()
		entries = append(entries, ast.DictEntry{Key: key, Val: val})
	}
	return &ast.DictLit{Node: pos(tok), Entries: entries}
}

// ---- token cursor helpers ----

func pos(tok token.Token) ast.Node { return ast.Node{Line: tok.Line, Col: tok.Col} }

func (p *Parser) peek() token.Token {
	return p.toks[p.pos]
}

func (p *Parser) next() token.Token {
	tok := p.toks[p.pos]
	p.pos++
	return tok
}

func (p *Parser) backup() {
	p.pos--
}

func (p *Parser) isDone() bool {
	return p.toks[p.pos].Kind == token.EOF
}

func (p *Parser) lookahead(kinds ...token.Kind) bool {
	for _, k := range kinds {
		if p.peek().Kind == k {
			return true
		}
	}
	return false
}

func (p *Parser) accept(kind token.Kind) bool {
	if p.peek().Kind == kind {
		p.pos++
		return true
	}
	return false
}

func (p *Parser) expect(kind token.Kind) token.Token {
	tok := p.next()
	if tok.Kind != kind {
		p.fail(tok, fmt.Sprintf("unexpected token %s; expected %s", tok.Kind, kind))
	}
	return tok
}

func (p *Parser) fail(tok token.Token, msg string) {
	panic(&SyntaxError{Line: tok.Line, Col: tok.Col, Msg: msg})
}
