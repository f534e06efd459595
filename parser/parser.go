package parser

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shadelang/slc/ast"
)

// Parser parses SL tokens into an *ast.Module.
type Parser struct {
	tokens  []Token
	current int
	source  string

	module *ast.Module

	structNames map[string]ast.StructHandle
	aliasNames  map[string]ast.AliasHandle
}

// Parse lexes and parses source into a raw, unresolved *ast.Module.
// The returned module has Sanitized == false; callers run it through
// sanitize.Sanitize before handing it to a back end.
func Parse(name, source string) (*ast.Module, error) {
	lex := NewLexer(source)
	tokens, err := lex.Tokenize()
	if err != nil {
		if pe, ok := err.(*ParseError); ok {
			pe.Source = source
		}
		return nil, err
	}
	p := NewParser(tokens, source)
	return p.Parse(name)
}

// NewParser creates a parser over an already-lexed token stream.
func NewParser(tokens []Token, source string) *Parser {
	return &Parser{
		tokens:      tokens,
		source:      source,
		structNames: make(map[string]ast.StructHandle),
		aliasNames:  make(map[string]ast.AliasHandle),
	}
}

// Parse consumes the full token stream and returns the module it
// describes.
func (p *Parser) Parse(name string) (*ast.Module, error) {
	p.module = ast.NewModule(name)
	p.prepassDeclarations()

	attrs, err := p.parseAttributes()
	if err != nil {
		return nil, p.annotate(err)
	}
	if a, ok := findAttr(attrs, "nzsl_version"); ok && len(a.Args) > 0 {
		p.module.LanguageVersion = unquote(a.Args[0].Lexeme)
	}
	if !p.expect(TokenModule) {
		return nil, p.annotate(p.errorf("expected 'module' directive"))
	}
	if !p.expect(TokenSemicolon) {
		return nil, p.annotate(p.errorf("expected ';' after module directive"))
	}

	for !p.isAtEnd() {
		if err := p.parseTopLevel(); err != nil {
			return nil, p.annotate(err)
		}
	}
	return p.module, nil
}

// prepassDeclarations scans the token stream once, registering every
// struct/alias declaration's handle by encounter order so that a type
// reference may resolve to a handle regardless of where in the file it
// is declared relative to its use.
func (p *Parser) prepassDeclarations() {
	for i := 0; i < len(p.tokens)-1; i++ {
		switch p.tokens[i].Kind {
		case TokenStruct:
			if p.tokens[i+1].Kind == TokenIdent {
				name := p.tokens[i+1].Lexeme
				p.structNames[name] = ast.StructHandle(len(p.module.Structs))
				p.module.Structs = append(p.module.Structs, ast.StructDesc{Name: name})
			}
		case TokenAlias:
			if p.tokens[i+1].Kind == TokenIdent {
				name := p.tokens[i+1].Lexeme
				p.aliasNames[name] = ast.AliasHandle(len(p.module.Aliases))
				p.module.Aliases = append(p.module.Aliases, ast.AliasDesc{Name: name})
			}
		}
	}
}

// --- attributes ---

// Attribute is one `name(args...)` entry inside a `[...]` bracket group.
type Attribute struct {
	Name string
	Args []Token
	Span ast.Span
}

func findAttr(attrs []Attribute, name string) (Attribute, bool) {
	for _, a := range attrs {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

func unquote(lexeme string) string { return lexeme }

// parseAttributes parses zero or more consecutive `[...]` bracket
// groups, each holding one or more comma-separated attribute entries.
func (p *Parser) parseAttributes() ([]Attribute, error) {
	var attrs []Attribute
	for p.check(TokenLeftBracket) {
		p.advance()
		for {
			if p.check(TokenRightBracket) {
				break
			}
			nameTok := p.peek()
			if !p.expect(TokenIdent) {
				return nil, p.errorf("expected attribute name")
			}
			attr := Attribute{Name: nameTok.Lexeme, Span: spanOf(nameTok)}
			if p.match(TokenLeftParen) {
				for !p.check(TokenRightParen) && !p.isAtEnd() {
					attr.Args = append(attr.Args, p.advance())
					if !p.match(TokenComma) {
						break
					}
				}
				if !p.expect(TokenRightParen) {
					return nil, p.errorf("expected ')' closing attribute arguments")
				}
			}
			attrs = append(attrs, attr)
			if !p.match(TokenComma) {
				break
			}
		}
		if !p.expect(TokenRightBracket) {
			return nil, p.errorf("expected ']' closing attribute list")
		}
	}
	return attrs, nil
}

func spanOf(t Token) ast.Span {
	return ast.Span{Line: uint32(t.Line), Column: uint32(t.Column), Offset: uint32(t.Offset), Length: uint32(len(t.Lexeme))}
}

// --- top-level declarations ---

func (p *Parser) parseTopLevel() error {
	attrs, err := p.parseAttributes()
	if err != nil {
		return err
	}
	switch {
	case p.check(TokenImport):
		return p.parseImport()
	case p.check(TokenExternal):
		return p.parseExternalBlock(attrs)
	case p.check(TokenStruct):
		return p.parseStructDecl(attrs)
	case p.check(TokenAlias):
		return p.parseAliasDecl()
	case p.check(TokenConst):
		stmt, err := p.parseConstDecl()
		if err != nil {
			return err
		}
		p.module.Body = append(p.module.Body, stmt)
		return nil
	case p.check(TokenOption):
		stmt, err := p.parseOptionDecl()
		if err != nil {
			return err
		}
		p.module.Body = append(p.module.Body, stmt)
		return nil
	case p.check(TokenFn):
		return p.parseFunctionDecl(attrs)
	default:
		return p.errorf("unexpected token %s at module scope", p.peek().Kind)
	}
}

func (p *Parser) parseImport() error {
	start := p.peek()
	p.advance()
	if !p.check(TokenStringLiteral) {
		return p.errorf("expected module path string after 'import'")
	}
	modName := p.advance().Lexeme
	alias := modName
	if p.match(TokenAs) {
		if !p.check(TokenIdent) {
			return p.errorf("expected alias identifier after 'as'")
		}
		alias = p.advance().Lexeme
	}
	if !p.expect(TokenSemicolon) {
		return p.errorf("expected ';' after import")
	}
	p.module.Body = append(p.module.Body, &ast.Import{
		StmtBase:   ast.StmtBase{Span: spanOf(start)},
		Alias:      alias,
		ModuleName: modName,
	})
	return nil
}

func (p *Parser) parseStructDecl(attrs []Attribute) error {
	start := p.peek()
	if !p.expect(TokenStruct) {
		return p.errorf("expected 'struct'")
	}
	nameTok := p.peek()
	if !p.expect(TokenIdent) {
		return p.errorf("expected struct name")
	}
	handle, ok := p.structNames[nameTok.Lexeme]
	if !ok {
		return p.errorf("internal error: struct %s missing from prepass table", nameTok.Lexeme)
	}
	if !p.expect(TokenLeftBrace) {
		return p.errorf("expected '{' after struct name")
	}
	var members []ast.StructMember
	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		memberAttrs, err := p.parseAttributes()
		if err != nil {
			return err
		}
		memberStart := p.peek()
		memberNameTok := p.peek()
		if !p.expect(TokenIdent) {
			return p.errorf("expected struct member name")
		}
		if !p.expect(TokenColon) {
			return p.errorf("expected ':' after struct member name")
		}
		memberType, err := p.parseType()
		if err != nil {
			return err
		}
		tag, _ := attrStringArg(memberAttrs, "tag")
		members = append(members, ast.StructMember{
			Name: memberNameTok.Lexeme,
			Type: memberType,
			Tag:  tag,
			Span: spanOf(memberStart),
		})
		if !p.match(TokenComma) {
			break
		}
	}
	if !p.expect(TokenRightBrace) {
		return p.errorf("expected '}' closing struct body")
	}
	tag, _ := attrStringArg(attrs, "tag")
	_ = tag // struct-level tags have no home in ast.StructDesc; dropped
	sd := &p.module.Structs[handle]
	sd.Name = nameTok.Lexeme
	sd.Members = members
	sd.Span = spanOf(start)
	p.module.Body = append(p.module.Body, &ast.DeclareStruct{
		StmtBase:    ast.StmtBase{Span: spanOf(start)},
		StructIndex: handle,
	})
	return nil
}

func (p *Parser) parseAliasDecl() error {
	start := p.peek()
	p.advance()
	nameTok := p.peek()
	if !p.expect(TokenIdent) {
		return p.errorf("expected alias name")
	}
	handle, ok := p.aliasNames[nameTok.Lexeme]
	if !ok {
		return p.errorf("internal error: alias %s missing from prepass table", nameTok.Lexeme)
	}
	if !p.expect(TokenEqual) {
		return p.errorf("expected '=' after alias name")
	}
	target, err := p.parseType()
	if err != nil {
		return err
	}
	if !p.expect(TokenSemicolon) {
		return p.errorf("expected ';' after alias declaration")
	}
	ad := &p.module.Aliases[handle]
	ad.Name = nameTok.Lexeme
	ad.Target = target
	ad.Span = spanOf(start)
	p.module.Body = append(p.module.Body, &ast.DeclareAlias{
		StmtBase:   ast.StmtBase{Span: spanOf(start)},
		AliasIndex: handle,
	})
	return nil
}

func (p *Parser) parseConstDecl() (ast.Statement, error) {
	start := p.peek()
	p.advance()
	nameTok := p.peek()
	if !p.expect(TokenIdent) {
		return nil, p.errorf("expected const name")
	}
	var declType *ast.Type
	if p.match(TokenColon) {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		declType = &t
	}
	if !p.expect(TokenEqual) {
		return nil, p.errorf("expected '=' in const declaration")
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if !p.expect(TokenSemicolon) {
		return nil, p.errorf("expected ';' after const declaration")
	}
	return &ast.DeclareConst{
		StmtBase: ast.StmtBase{Span: spanOf(start)},
		Name:     nameTok.Lexeme,
		Type:     declType,
		Value:    value,
	}, nil
}

func (p *Parser) parseOptionDecl() (ast.Statement, error) {
	start := p.peek()
	p.advance()
	nameTok := p.peek()
	if !p.expect(TokenIdent) {
		return nil, p.errorf("expected option name")
	}
	if !p.expect(TokenColon) {
		return nil, p.errorf("expected ':' after option name")
	}
	optType, err := p.parseType()
	if err != nil {
		return nil, err
	}
	var def ast.Expr
	if p.match(TokenEqual) {
		def, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if !p.expect(TokenSemicolon) {
		return nil, p.errorf("expected ';' after option declaration")
	}
	return &ast.DeclareOption{
		StmtBase: ast.StmtBase{Span: spanOf(start)},
		Name:     nameTok.Lexeme,
		Type:     optType,
		Default:  def,
	}, nil
}

// --- external blocks ---

func (p *Parser) parseExternalBlock(attrs []Attribute) error {
	start := p.peek()
	p.advance()
	if !p.expect(TokenLeftBrace) {
		return p.errorf("expected '{' after 'external'")
	}
	block := ast.ExternalBlock{Span: spanOf(start)}
	if tag, ok := attrStringArg(attrs, "tag"); ok {
		block.Tag = tag
	}
	if ab, ok := findAttr(attrs, "auto_binding"); ok {
		block.AutoBinding = ast.AutoBindingOn
		if len(ab.Args) > 0 && ab.Args[0].Lexeme == "false" {
			block.AutoBinding = ast.AutoBindingOff
		}
	}

	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		bindingAttrs, err := p.parseAttributes()
		if err != nil {
			return err
		}
		bindStart := p.peek()
		nameTok := p.peek()
		if !p.expect(TokenIdent) {
			return p.errorf("expected external binding name")
		}
		if !p.expect(TokenColon) {
			return p.errorf("expected ':' after external binding name")
		}
		bindType, err := p.parseType()
		if err != nil {
			return err
		}
		eb := ast.ExternalBinding{Name: nameTok.Lexeme, Type: bindType, Span: spanOf(bindStart)}
		if tag, ok := attrStringArg(bindingAttrs, "tag"); ok {
			eb.Tag = tag
		}
		if setAttr, ok := findAttr(bindingAttrs, "set"); ok && len(setAttr.Args) > 0 {
			v, err := strconv.ParseUint(setAttr.Args[0].Lexeme, 10, 32)
			if err != nil {
				return p.errorf("invalid set() value: %v", err)
			}
			set := uint32(v)
			eb.Set = &set
		}
		if bindAttr, ok := findAttr(bindingAttrs, "binding"); ok && len(bindAttr.Args) > 0 {
			v, err := strconv.ParseUint(bindAttr.Args[0].Lexeme, 10, 32)
			if err != nil {
				return p.errorf("invalid binding() value: %v", err)
			}
			b := uint32(v)
			eb.Binding = &b
		}
		block.Bindings = append(block.Bindings, eb)
		if !p.match(TokenComma) {
			break
		}
	}
	if !p.expect(TokenRightBrace) {
		return p.errorf("expected '}' closing external block")
	}

	blockIdx := len(p.module.Externals)
	p.module.Externals = append(p.module.Externals, block)
	p.module.Body = append(p.module.Body, &ast.DeclareExternal{
		StmtBase:   ast.StmtBase{Span: spanOf(start)},
		BlockIndex: blockIdx,
	})
	return nil
}

func attrStringArg(attrs []Attribute, name string) (string, bool) {
	a, ok := findAttr(attrs, name)
	if !ok || len(a.Args) == 0 {
		return "", false
	}
	return unquote(a.Args[0].Lexeme), true
}

// --- functions ---

func (p *Parser) parseFunctionDecl(attrs []Attribute) error {
	start := p.peek()
	p.advance()
	nameTok := p.peek()
	if !p.expect(TokenIdent) {
		return p.errorf("expected function name")
	}
	if !p.expect(TokenLeftParen) {
		return p.errorf("expected '(' after function name")
	}
	var params []ast.Param
	for !p.check(TokenRightParen) && !p.isAtEnd() {
		paramAttrs, err := p.parseAttributes()
		if err != nil {
			return err
		}
		pStart := p.peek()
		pName := p.peek()
		if !p.expect(TokenIdent) {
			return p.errorf("expected parameter name")
		}
		if !p.expect(TokenColon) {
			return p.errorf("expected ':' after parameter name")
		}
		pType, err := p.parseType()
		if err != nil {
			return err
		}
		binding := parseBindingAttrs(paramAttrs)
		params = append(params, ast.Param{Name: pName.Lexeme, Type: pType, Binding: binding, Span: spanOf(pStart)})
		if !p.match(TokenComma) {
			break
		}
	}
	if !p.expect(TokenRightParen) {
		return p.errorf("expected ')' closing parameter list")
	}

	var result *ast.Result
	if p.match(TokenArrow) {
		resultAttrs, err := p.parseAttributes()
		if err != nil {
			return err
		}
		resultType, err := p.parseType()
		if err != nil {
			return err
		}
		result = &ast.Result{Type: resultType, Binding: parseBindingAttrs(resultAttrs)}
	}

	body, err := p.parseBlock()
	if err != nil {
		return err
	}

	fn := ast.FunctionDesc{
		Name:   nameTok.Lexeme,
		Params: params,
		Result: result,
		Body:   body,
		Span:   spanOf(start),
	}
	if entry, ok := findAttr(attrs, "entry"); ok && len(entry.Args) > 0 {
		fn.Stage = parseStage(entry.Args[0].Lexeme)
	}
	if wg, ok := findAttr(attrs, "workgroup"); ok {
		for i, a := range wg.Args {
			if i >= 3 {
				break
			}
			v, _ := strconv.ParseUint(a.Lexeme, 10, 32)
			fn.Workgroup[i] = uint32(v)
		}
	}

	funcIdx := len(p.module.Functions)
	p.module.Functions = append(p.module.Functions, fn)
	p.module.Body = append(p.module.Body, &ast.DeclareFunction{
		StmtBase:      ast.StmtBase{Span: spanOf(start)},
		FunctionIndex: funcIdx,
	})
	return nil
}

func parseStage(name string) ast.ShaderStage {
	switch name {
	case "vert", "vertex":
		return ast.StageVertex
	case "frag", "fragment":
		return ast.StageFragment
	case "geom", "geometry":
		return ast.StageGeometry
	case "compute":
		return ast.StageCompute
	default:
		return ast.StageNone
	}
}

// parseBindingAttrs resolves [builtin(name)] / [location(n)] attribute
// decorations into an ast.Binding. There is no surface syntax to ground
// this on in the available fixtures; the bracket-attribute convention
// used everywhere else in the grammar is applied here too.
func parseBindingAttrs(attrs []Attribute) ast.Binding {
	if b, ok := findAttr(attrs, "builtin"); ok && len(b.Args) > 0 {
		if v, ok := builtinNames[b.Args[0].Lexeme]; ok {
			return ast.BuiltinBinding{Builtin: v}
		}
	}
	if l, ok := findAttr(attrs, "location"); ok && len(l.Args) > 0 {
		loc, _ := strconv.ParseUint(l.Args[0].Lexeme, 10, 32)
		interp := ast.InterpolationPerspective
		if i, ok := findAttr(attrs, "interpolate"); ok && len(i.Args) > 0 {
			switch i.Args[0].Lexeme {
			case "linear":
				interp = ast.InterpolationLinear
			case "flat":
				interp = ast.InterpolationFlat
			}
		}
		return ast.LocationBinding{Location: uint32(loc), Interpolation: interp}
	}
	return nil
}

var builtinNames = map[string]ast.BuiltinValue{
	"position":             ast.BuiltinPosition,
	"frag_coord":           ast.BuiltinFragCoord,
	"vertex_index":         ast.BuiltinVertexIndex,
	"instance_index":       ast.BuiltinInstanceIndex,
	"front_facing":         ast.BuiltinFrontFacing,
	"frag_depth":           ast.BuiltinFragDepth,
	"local_invocation_id":  ast.BuiltinLocalInvocationID,
	"global_invocation_id": ast.BuiltinGlobalInvocationID,
	"workgroup_id":         ast.BuiltinWorkgroupID,
	"num_workgroups":       ast.BuiltinNumWorkgroups,
	"base_instance":        ast.BuiltinBaseInstance,
	"base_vertex":          ast.BuiltinBaseVertex,
	"draw_index":           ast.BuiltinDrawIndex,
}

// --- statements ---

func (p *Parser) parseBlock() ([]ast.Statement, error) {
	if !p.expect(TokenLeftBrace) {
		return nil, p.errorf("expected '{'")
	}
	var stmts []ast.Statement
	for !p.check(TokenRightBrace) && !p.isAtEnd() {
		s, err := p.parseStatement()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
	}
	if !p.expect(TokenRightBrace) {
		return nil, p.errorf("expected '}' closing block")
	}
	return stmts, nil
}

func (p *Parser) parseStatement() (ast.Statement, error) {
	switch {
	case p.check(TokenLeftBrace):
		start := p.peek()
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return &ast.Scoped{StmtBase: ast.StmtBase{Span: spanOf(start)}, Body: body}, nil
	case p.check(TokenLet), p.check(TokenVar):
		return p.parseLocalDecl()
	case p.check(TokenConst):
		return p.parseConstDecl()
	case p.check(TokenIf):
		return p.parseIf()
	case p.check(TokenWhile):
		return p.parseWhile()
	case p.check(TokenFor):
		return p.parseFor()
	case p.check(TokenReturn):
		return p.parseReturn()
	case p.check(TokenDiscard):
		start := p.peek()
		p.advance()
		if !p.expect(TokenSemicolon) {
			return nil, p.errorf("expected ';' after discard")
		}
		return &ast.Discard{StmtBase: ast.StmtBase{Span: spanOf(start)}}, nil
	case p.check(TokenSemicolon):
		start := p.peek()
		p.advance()
		return &ast.NoOp{StmtBase: ast.StmtBase{Span: spanOf(start)}}, nil
	default:
		return p.parseExpressionStatement()
	}
}

func (p *Parser) parseLocalDecl() (ast.Statement, error) {
	start := p.peek()
	mutable := p.check(TokenVar)
	p.advance()
	nameTok := p.peek()
	if !p.expect(TokenIdent) {
		return nil, p.errorf("expected variable name")
	}
	var declType *ast.Type
	if p.match(TokenColon) {
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		declType = &t
	}
	var init ast.Expr
	if p.match(TokenEqual) {
		var err error
		init, err = p.parseExpression()
		if err != nil {
			return nil, err
		}
	}
	if !p.expect(TokenSemicolon) {
		return nil, p.errorf("expected ';' after variable declaration")
	}
	return &ast.DeclareVariable{
		StmtBase: ast.StmtBase{Span: spanOf(start)},
		Name:     nameTok.Lexeme,
		Type:     declType,
		Init:     init,
		Mutable:  mutable,
	}, nil
}

func (p *Parser) parseIf() (ast.Statement, error) {
	start := p.peek()
	p.advance()
	var conds []ast.BranchCond
	for {
		cond, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		body, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		conds = append(conds, ast.BranchCond{Condition: cond, Body: body})
		if !p.match(TokenElse) {
			break
		}
		if p.match(TokenIf) {
			continue
		}
		elseBody, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		return &ast.Branch{StmtBase: ast.StmtBase{Span: spanOf(start)}, Conditions: conds, Else: elseBody}, nil
	}
	return &ast.Branch{StmtBase: ast.StmtBase{Span: spanOf(start)}, Conditions: conds}, nil
}

func (p *Parser) parseWhile() (ast.Statement, error) {
	start := p.peek()
	p.advance()
	cond, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}
	return &ast.While{StmtBase: ast.StmtBase{Span: spanOf(start)}, Condition: cond, Body: body}, nil
}

// parseFor desugars `for i in a -> b { body }` into a Scoped block
// holding an init DeclareVariable followed by a While whose body ends
// with the counter increment.
func (p *Parser) parseFor() (ast.Statement, error) {
	start := p.peek()
	p.advance()
	nameTok := p.peek()
	if !p.expect(TokenIdent) {
		return nil, p.errorf("expected loop variable name")
	}
	if !p.expect(TokenIn) {
		return nil, p.errorf("expected 'in' in for loop")
	}
	from, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if !p.expect(TokenArrow) {
		return nil, p.errorf("expected '->' in for loop range")
	}
	to, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	i32 := ast.Primitive(ast.I32)
	decl := &ast.DeclareVariable{
		StmtBase: ast.StmtBase{Span: spanOf(start)},
		Name:     nameTok.Lexeme,
		Type:     &i32,
		Init:     from,
		Mutable:  true,
	}
	counter := &ast.AccessIdentifier{Identifiers: []string{nameTok.Lexeme}}
	cond := &ast.Binary{Op: ast.BinLess, Left: counter, Right: to}
	one := &ast.ConstantValue{Value: ast.LitI32(1)}
	incr := &ast.Assign{
		Op:    ast.AssignAdd,
		Left:  &ast.AccessIdentifier{Identifiers: []string{nameTok.Lexeme}},
		Right: one,
	}
	loopBody := append(append([]ast.Statement{}, body...), &ast.Expression{Expr: incr})
	loop := &ast.While{StmtBase: ast.StmtBase{Span: spanOf(start)}, Condition: cond, Body: loopBody}
	return &ast.Scoped{StmtBase: ast.StmtBase{Span: spanOf(start)}, Body: []ast.Statement{decl, loop}}, nil
}

func (p *Parser) parseReturn() (ast.Statement, error) {
	start := p.peek()
	p.advance()
	if p.match(TokenSemicolon) {
		return &ast.Return{StmtBase: ast.StmtBase{Span: spanOf(start)}}, nil
	}
	value, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if !p.expect(TokenSemicolon) {
		return nil, p.errorf("expected ';' after return value")
	}
	return &ast.Return{StmtBase: ast.StmtBase{Span: spanOf(start)}, Value: value}, nil
}

func (p *Parser) parseExpressionStatement() (ast.Statement, error) {
	start := p.peek()
	expr, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if op, ok := assignOpOf(p.peek().Kind); ok {
		p.advance()
		rhs, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		expr = &ast.Assign{Op: op, Left: expr, Right: rhs}
	}
	if !p.expect(TokenSemicolon) {
		return nil, p.errorf("expected ';' after expression statement")
	}
	return &ast.Expression{StmtBase: ast.StmtBase{Span: spanOf(start)}, Expr: expr}, nil
}

func assignOpOf(k TokenKind) (ast.AssignOp, bool) {
	switch k {
	case TokenEqual:
		return ast.AssignSimple, true
	case TokenPlusEqual:
		return ast.AssignAdd, true
	case TokenMinusEqual:
		return ast.AssignSubtract, true
	case TokenStarEqual:
		return ast.AssignMultiply, true
	case TokenSlashEqual:
		return ast.AssignDivide, true
	case TokenPercentEqual:
		return ast.AssignModulo, true
	default:
		return 0, false
	}
}

// --- expressions ---

func (p *Parser) parseExpression() (ast.Expr, error) { return p.parseLogicalOr() }

func (p *Parser) parseLogicalOr() (ast.Expr, error) {
	return p.parseBinaryLevel(p.parseLogicalAnd, map[TokenKind]ast.BinaryOp{TokenPipePipe: ast.BinLogicalOr})
}

func (p *Parser) parseLogicalAnd() (ast.Expr, error) {
	return p.parseBinaryLevel(p.parseBitOr, map[TokenKind]ast.BinaryOp{TokenAmpAmp: ast.BinLogicalAnd})
}

func (p *Parser) parseBitOr() (ast.Expr, error) {
	return p.parseBinaryLevel(p.parseBitXor, map[TokenKind]ast.BinaryOp{TokenPipe: ast.BinBitOr})
}

func (p *Parser) parseBitXor() (ast.Expr, error) {
	return p.parseBinaryLevel(p.parseBitAnd, map[TokenKind]ast.BinaryOp{TokenCaret: ast.BinBitXor})
}

func (p *Parser) parseBitAnd() (ast.Expr, error) {
	return p.parseBinaryLevel(p.parseEquality, map[TokenKind]ast.BinaryOp{TokenAmpersand: ast.BinBitAnd})
}

func (p *Parser) parseEquality() (ast.Expr, error) {
	return p.parseBinaryLevel(p.parseComparison, map[TokenKind]ast.BinaryOp{
		TokenEqualEqual: ast.BinEqual,
		TokenBangEqual:  ast.BinNotEqual,
	})
}

func (p *Parser) parseComparison() (ast.Expr, error) {
	return p.parseBinaryLevel(p.parseShift, map[TokenKind]ast.BinaryOp{
		TokenLess:         ast.BinLess,
		TokenLessEqual:    ast.BinLessEqual,
		TokenGreater:      ast.BinGreater,
		TokenGreaterEqual: ast.BinGreaterEqual,
	})
}

func (p *Parser) parseShift() (ast.Expr, error) {
	return p.parseBinaryLevel(p.parseAdditive, map[TokenKind]ast.BinaryOp{
		TokenLessLess:       ast.BinShiftLeft,
		TokenGreaterGreater: ast.BinShiftRight,
	})
}

func (p *Parser) parseAdditive() (ast.Expr, error) {
	return p.parseBinaryLevel(p.parseMultiplicative, map[TokenKind]ast.BinaryOp{
		TokenPlus:  ast.BinAdd,
		TokenMinus: ast.BinSubtract,
	})
}

func (p *Parser) parseMultiplicative() (ast.Expr, error) {
	return p.parseBinaryLevel(p.parseUnary, map[TokenKind]ast.BinaryOp{
		TokenStar:    ast.BinMultiply,
		TokenSlash:   ast.BinDivide,
		TokenPercent: ast.BinModulo,
	})
}

func (p *Parser) parseBinaryLevel(next func() (ast.Expr, error), ops map[TokenKind]ast.BinaryOp) (ast.Expr, error) {
	left, err := next()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := ops[p.peek().Kind]
		if !ok {
			return left, nil
		}
		p.advance()
		right, err := next()
		if err != nil {
			return nil, err
		}
		left = &ast.Binary{Op: op, Left: left, Right: right}
	}
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	start := p.peek()
	switch start.Kind {
	case TokenMinus:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{ExprBase: ast.ExprBase{Span: spanOf(start)}, Op: ast.UnaryNegate, Operand: operand}, nil
	case TokenBang:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{ExprBase: ast.ExprBase{Span: spanOf(start)}, Op: ast.UnaryNot, Operand: operand}, nil
	case TokenTilde:
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.Unary{ExprBase: ast.ExprBase{Span: spanOf(start)}, Op: ast.UnaryBitNot, Operand: operand}, nil
	default:
		return p.parsePostfix()
	}
}

func (p *Parser) parsePostfix() (ast.Expr, error) {
	expr, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.match(TokenLeftParen):
			var args []ast.Expr
			for !p.check(TokenRightParen) && !p.isAtEnd() {
				arg, err := p.parseExpression()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if !p.match(TokenComma) {
					break
				}
			}
			if !p.expect(TokenRightParen) {
				return nil, p.errorf("expected ')' closing call arguments")
			}
			expr = &ast.CallFunction{Target: expr, Args: args}
		case p.match(TokenLeftBracket):
			idx, err := p.parseExpression()
			if err != nil {
				return nil, err
			}
			if !p.expect(TokenRightBracket) {
				return nil, p.errorf("expected ']' closing index expression")
			}
			expr = &ast.AccessIndex{Base: expr, Index: idx}
		case p.match(TokenDot):
			if !p.check(TokenIdent) {
				return nil, p.errorf("expected member name after '.'")
			}
			member := p.advance().Lexeme
			if chain, ok := expr.(*ast.AccessIdentifier); ok && chain.Base == nil {
				chain.Identifiers = append(chain.Identifiers, member)
			} else {
				expr = &ast.AccessIdentifier{Base: expr, Identifiers: []string{member}}
			}
		default:
			return expr, nil
		}
	}
}

func (p *Parser) parsePrimary() (ast.Expr, error) {
	tok := p.peek()
	switch tok.Kind {
	case TokenIntLiteral:
		p.advance()
		return p.intLiteral(tok)
	case TokenFloatLiteral:
		p.advance()
		return p.floatLiteral(tok)
	case TokenBoolLiteral:
		p.advance()
		v := &ast.ConstantValue{ExprBase: ast.ExprBase{Span: spanOf(tok)}, Value: ast.LitBool(tok.Lexeme == "true")}
		return v, nil
	case TokenIdent:
		p.advance()
		return &ast.AccessIdentifier{ExprBase: ast.ExprBase{Span: spanOf(tok)}, Identifiers: []string{tok.Lexeme}}, nil
	case TokenLeftParen:
		p.advance()
		inner, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if !p.expect(TokenRightParen) {
			return nil, p.errorf("expected ')' closing parenthesized expression")
		}
		return inner, nil
	default:
		return nil, p.errorf("unexpected token %s in expression", tok.Kind)
	}
}

// constructor calls (vec3(1, 2, 3), SomeStruct(a, b)) are ordinary
// CallFunction nodes at parse time: the callee is a bare-name
// AccessIdentifier, and scopeResolver.RewriteCallFunction turns it into
// a Cast once the scope table distinguishes a type name from a
// function name.

func (p *Parser) intLiteral(tok Token) (ast.Expr, error) {
	trimmed, suffix := trimNumericSuffix(tok.Lexeme)
	span := spanOf(tok)
	switch suffix {
	case "f32":
		v, err := strconv.ParseFloat(trimmed, 32)
		if err != nil {
			return nil, p.errorf("invalid float literal %q", tok.Lexeme)
		}
		return &ast.ConstantValue{ExprBase: ast.ExprBase{Span: span}, Value: ast.LitF32(float32(v))}, nil
	case "f64":
		v, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, p.errorf("invalid float literal %q", tok.Lexeme)
		}
		return &ast.ConstantValue{ExprBase: ast.ExprBase{Span: span}, Value: ast.LitF64(v)}, nil
	case "u32":
		v, err := strconv.ParseUint(trimmed, 10, 32)
		if err != nil {
			return nil, p.errorf("invalid integer literal %q", tok.Lexeme)
		}
		return &ast.ConstantValue{ExprBase: ast.ExprBase{Span: span}, Value: ast.LitU32(uint32(v))}, nil
	default:
		v, err := strconv.ParseInt(trimmed, 10, 32)
		if err != nil {
			return nil, p.errorf("invalid integer literal %q", tok.Lexeme)
		}
		return &ast.ConstantValue{ExprBase: ast.ExprBase{Span: span}, Value: ast.LitI32(int32(v))}, nil
	}
}

func (p *Parser) floatLiteral(tok Token) (ast.Expr, error) {
	trimmed, suffix := trimNumericSuffix(tok.Lexeme)
	span := spanOf(tok)
	if suffix == "f64" {
		v, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, p.errorf("invalid float literal %q", tok.Lexeme)
		}
		return &ast.ConstantValue{ExprBase: ast.ExprBase{Span: span}, Value: ast.LitF64(v)}, nil
	}
	v, err := strconv.ParseFloat(trimmed, 32)
	if err != nil {
		return nil, p.errorf("invalid float literal %q", tok.Lexeme)
	}
	return &ast.ConstantValue{ExprBase: ast.ExprBase{Span: span}, Value: ast.LitF32(float32(v))}, nil
}

// --- types ---

var scalarNames = map[string]ast.ScalarKind{
	"bool": ast.Bool,
	"f32":  ast.F32,
	"f64":  ast.F64,
	"i32":  ast.I32,
	"u32":  ast.U32,
}

var samplerDimNames = map[string]ast.SamplerDim{
	"sampler1D":          ast.Sampler1D,
	"sampler2D":          ast.Sampler2D,
	"sampler3D":          ast.Sampler3D,
	"sampler_cube":       ast.SamplerCube,
	"sampler2D_array":    ast.Sampler2DArray,
	"sampler_cube_array": ast.SamplerCubeArray,
}

func (p *Parser) parseType() (ast.Type, error) {
	tok := p.peek()
	if !p.expect(TokenIdent) {
		return ast.Type{}, p.errorf("expected a type name")
	}
	name := tok.Lexeme

	if scalar, ok := scalarNames[name]; ok {
		return ast.Primitive(scalar), nil
	}
	if dim, ok := samplerDimNames[name]; ok {
		if !p.expect(TokenLeftBracket) {
			return ast.Type{}, p.errorf("expected '[' after sampler type")
		}
		comp, err := p.parseScalarArg()
		if err != nil {
			return ast.Type{}, err
		}
		if !p.expect(TokenRightBracket) {
			return ast.Type{}, p.errorf("expected ']' closing sampler type")
		}
		return ast.Sampler(dim, comp), nil
	}

	switch {
	case strings.HasPrefix(name, "vec") && len(name) == 4:
		n, err := vectorLen(name[3])
		if err != nil {
			return ast.Type{}, err
		}
		if !p.expect(TokenLeftBracket) {
			return ast.Type{}, p.errorf("expected '[' after vector type")
		}
		comp, err := p.parseScalarArg()
		if err != nil {
			return ast.Type{}, err
		}
		if !p.expect(TokenRightBracket) {
			return ast.Type{}, p.errorf("expected ']' closing vector type")
		}
		return ast.Vector(n, comp), nil

	case strings.HasPrefix(name, "mat") && len(name) >= 4:
		cols, rows, err := matrixDims(name[3:])
		if err != nil {
			return ast.Type{}, err
		}
		if !p.expect(TokenLeftBracket) {
			return ast.Type{}, p.errorf("expected '[' after matrix type")
		}
		comp, err := p.parseScalarArg()
		if err != nil {
			return ast.Type{}, err
		}
		if !p.expect(TokenRightBracket) {
			return ast.Type{}, p.errorf("expected ']' closing matrix type")
		}
		return ast.Matrix(cols, rows, comp), nil

	case name == "array":
		if !p.expect(TokenLeftBracket) {
			return ast.Type{}, p.errorf("expected '[' after 'array'")
		}
		elem, err := p.parseType()
		if err != nil {
			return ast.Type{}, err
		}
		var length uint32
		runtime := true
		if p.match(TokenComma) {
			lenTok := p.peek()
			if !p.expect(TokenIntLiteral) {
				return ast.Type{}, p.errorf("expected array length")
			}
			v, err := strconv.ParseUint(lenTok.Lexeme, 10, 32)
			if err != nil {
				return ast.Type{}, p.errorf("invalid array length %q", lenTok.Lexeme)
			}
			length = uint32(v)
			runtime = false
		}
		if !p.expect(TokenRightBracket) {
			return ast.Type{}, p.errorf("expected ']' closing array type")
		}
		if runtime {
			return ast.RuntimeArray(elem), nil
		}
		return ast.FixedArray(elem, length), nil

	case name == "uniform":
		h, err := p.parseStructArg()
		if err != nil {
			return ast.Type{}, err
		}
		return ast.Uniform(h), nil

	case name == "storage":
		if !p.expect(TokenLeftBracket) {
			return ast.Type{}, p.errorf("expected '[' after 'storage'")
		}
		structTok := p.peek()
		if !p.expect(TokenIdent) {
			return ast.Type{}, p.errorf("expected struct name in storage type")
		}
		h, ok := p.structNames[structTok.Lexeme]
		if !ok {
			return ast.Type{}, p.errorf("unknown struct %s", structTok.Lexeme)
		}
		access := ast.AccessRead
		if p.match(TokenComma) {
			accessTok := p.peek()
			if !p.expect(TokenIdent) {
				return ast.Type{}, p.errorf("expected access mode in storage type")
			}
			switch accessTok.Lexeme {
			case "read":
				access = ast.AccessRead
			case "write":
				access = ast.AccessWrite
			case "read_write":
				access = ast.AccessReadWrite
			default:
				return ast.Type{}, p.errorf("unknown storage access mode %q", accessTok.Lexeme)
			}
		}
		if !p.expect(TokenRightBracket) {
			return ast.Type{}, p.errorf("expected ']' closing storage type")
		}
		return ast.Storage(h, access), nil

	case name == "push_constant":
		h, err := p.parseStructArg()
		if err != nil {
			return ast.Type{}, err
		}
		return ast.PushConstant(h), nil

	default:
		if h, ok := p.structNames[name]; ok {
			return ast.StructRef(h), nil
		}
		if h, ok := p.aliasNames[name]; ok {
			return ast.AliasRef(h), nil
		}
		return ast.Type{}, p.errorf("unknown type %q", name)
	}
}

// parseStructArg parses `[ StructName ]`, the shape shared by uniform
// and push_constant type references.
func (p *Parser) parseStructArg() (ast.StructHandle, error) {
	if !p.expect(TokenLeftBracket) {
		return 0, p.errorf("expected '['")
	}
	structTok := p.peek()
	if !p.expect(TokenIdent) {
		return 0, p.errorf("expected struct name")
	}
	h, ok := p.structNames[structTok.Lexeme]
	if !ok {
		return 0, p.errorf("unknown struct %s", structTok.Lexeme)
	}
	if !p.expect(TokenRightBracket) {
		return 0, p.errorf("expected ']'")
	}
	return h, nil
}

func (p *Parser) parseScalarArg() (ast.ScalarKind, error) {
	tok := p.peek()
	if !p.expect(TokenIdent) {
		return 0, p.errorf("expected a scalar type name")
	}
	k, ok := scalarNames[tok.Lexeme]
	if !ok {
		return 0, p.errorf("unknown scalar type %q", tok.Lexeme)
	}
	return k, nil
}

func vectorLen(digit byte) (ast.VectorLen, error) {
	switch digit {
	case '2':
		return 2, nil
	case '3':
		return 3, nil
	case '4':
		return 4, nil
	default:
		return 0, fmt.Errorf("invalid vector length %q", string(digit))
	}
}

// matrixDims parses the dimension suffix of a matrix type name, either
// "N" (square) or "CxR".
func matrixDims(suffix string) (cols, rows ast.VectorLen, err error) {
	if i := strings.IndexByte(suffix, 'x'); i >= 0 {
		c, err := vectorLen(suffix[0])
		if err != nil {
			return 0, 0, err
		}
		r, err := vectorLen(suffix[i+1])
		if err != nil {
			return 0, 0, err
		}
		return c, r, nil
	}
	if len(suffix) != 1 {
		return 0, 0, fmt.Errorf("invalid matrix dimension suffix %q", suffix)
	}
	n, err := vectorLen(suffix[0])
	if err != nil {
		return 0, 0, err
	}
	return n, n, nil
}

// --- token-stream helpers ---

func (p *Parser) isAtEnd() bool { return p.peek().Kind == TokenEOF }

func (p *Parser) peek() Token {
	if p.current >= len(p.tokens) {
		return Token{Kind: TokenEOF}
	}
	return p.tokens[p.current]
}

func (p *Parser) advance() Token {
	tok := p.peek()
	if !p.isAtEnd() {
		p.current++
	}
	return tok
}

func (p *Parser) check(kind TokenKind) bool { return p.peek().Kind == kind }

func (p *Parser) match(kind TokenKind) bool {
	if !p.check(kind) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) expect(kind TokenKind) bool {
	if !p.check(kind) {
		return false
	}
	p.advance()
	return true
}

func (p *Parser) errorf(format string, args ...any) error {
	return fmt.Errorf(format, args...)
}

// annotate wraps a plain error with the current token's position,
// producing a *ParseError carrying source context.
func (p *Parser) annotate(err error) error {
	if err == nil {
		return nil
	}
	if pe, ok := err.(*ParseError); ok {
		return pe
	}
	tok := p.peek()
	return &ParseError{Message: err.Error(), Line: tok.Line, Column: tok.Column, Source: p.source}
}
