package jack

import (
	"fmt"
	"io"

	"its-hmny.dev/nand2tetris/pkg/utils"
)

// ----------------------------------------------------------------------------
// Jack Parser

// Parser is a recursive-descent parser over a Jack token stream with a single token of
// lookahead, enough to disambiguate every 'term' alternative once the leading identifier
// has been consumed (bare name vs. array access vs. local/external subroutine call).
//
// Unlike the Asm and VM front ends this one does not lean on a parser-combinator grammar:
// Jack's 'term' production has to look at the token that follows the first identifier
// before it is clear which alternative applies, which goparsec's combinators do not make
// convenient to express without backtracking. A hand-written descent mirrors how
// the reference front end is itself structured and keeps each production a small function.
type Parser struct {
	reader io.Reader

	tokens []Token
	pos    int
}

// Initializes and returns to the caller a brand new 'Parser' struct.
// Requires the argument io.Reader 'r' to be valid and usable.
func NewParser(r io.Reader) Parser {
	return Parser{reader: r}
}

// Parser entrypoint: reads the full source, tokenizes it, then descends the grammar
// starting from the 'class' production (the only top-level construct the language allows).
func (p *Parser) Parse() (Class, error) {
	content, err := io.ReadAll(p.reader)
	if err != nil {
		return Class{}, fmt.Errorf("cannot read from 'io.Reader': %s", err)
	}

	tokens, err := NewTokenizer(string(content)).Tokens()
	if err != nil {
		return Class{}, fmt.Errorf("error tokenizing source: %w", err)
	}

	p.tokens = tokens
	p.pos = 0

	class, err := p.parseClass()
	if err != nil {
		return Class{}, fmt.Errorf("error parsing class: %w", err)
	}
	if p.pos != len(p.tokens) {
		return Class{}, fmt.Errorf("unexpected trailing content after class body, at token %d", p.pos)
	}

	return class, nil
}

// ----------------------------------------------------------------------------
// Token stream helpers

func (p *Parser) current() (Token, error) {
	if p.pos >= len(p.tokens) {
		return Token{}, fmt.Errorf("unexpected end of input")
	}
	return p.tokens[p.pos], nil
}

func (p *Parser) peekAt(offset int) (Token, bool) {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return Token{}, false
	}
	return p.tokens[idx], true
}

func (p *Parser) advance() (Token, error) {
	tok, err := p.current()
	if err != nil {
		return Token{}, err
	}
	p.pos++
	return tok, nil
}

// expectKeyword consumes the current token iff it is a Keyword matching one of 'values'.
func (p *Parser) expectKeyword(values ...string) (string, error) {
	tok, err := p.current()
	if err != nil {
		return "", err
	}
	if tok.Kind != Keyword {
		return "", fmt.Errorf("expected keyword %v, got %s %q", values, tok.Kind, tok.Value)
	}
	for _, v := range values {
		if tok.Value == v {
			p.pos++
			return tok.Value, nil
		}
	}
	return "", fmt.Errorf("expected keyword %v, got keyword %q", values, tok.Value)
}

// expectSymbol consumes the current token iff it is a symbol matching 'value'.
func (p *Parser) expectSymbol(value string) error {
	tok, err := p.current()
	if err != nil {
		return err
	}
	if tok.Kind != SymbolToken || tok.Value != value {
		return fmt.Errorf("expected symbol %q, got %s %q", value, tok.Kind, tok.Value)
	}
	p.pos++
	return nil
}

func (p *Parser) expectIdentifier() (string, error) {
	tok, err := p.current()
	if err != nil {
		return "", err
	}
	if tok.Kind != Identifier {
		return "", fmt.Errorf("expected identifier, got %s %q", tok.Kind, tok.Value)
	}
	p.pos++
	return tok.Value, nil
}

func (p *Parser) atSymbol(value string) bool {
	tok, ok := p.peekAt(0)
	return ok && tok.Kind == SymbolToken && tok.Value == value
}

func (p *Parser) atKeyword(values ...string) bool {
	tok, ok := p.peekAt(0)
	if !ok || tok.Kind != Keyword {
		return false
	}
	for _, v := range values {
		if tok.Value == v {
			return true
		}
	}
	return false
}

// ----------------------------------------------------------------------------
// Grammar: class, classVarDec, subroutineDec

func (p *Parser) parseClass() (Class, error) {
	if _, err := p.expectKeyword("class"); err != nil {
		return Class{}, err
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return Class{}, fmt.Errorf("expected class name: %w", err)
	}
	if err := p.expectSymbol("{"); err != nil {
		return Class{}, err
	}

	class := Class{
		Name:        name,
		Fields:      utils.NewOrderedMap[string, Variable](),
		Subroutines: utils.NewOrderedMap[string, Subroutine](),
	}

	for p.atKeyword("static", "field") {
		vars, err := p.parseClassVarDec()
		if err != nil {
			return Class{}, fmt.Errorf("error parsing class variable declaration: %w", err)
		}
		for _, v := range vars {
			class.Fields.Set(v.Name, v)
		}
	}

	for p.atKeyword("constructor", "function", "method") {
		sub, err := p.parseSubroutineDec(name)
		if err != nil {
			return Class{}, fmt.Errorf("error parsing subroutine declaration: %w", err)
		}
		class.Subroutines.Set(sub.Name, sub)
	}

	if err := p.expectSymbol("}"); err != nil {
		return Class{}, err
	}

	return class, nil
}

func (p *Parser) parseClassVarDec() ([]Variable, error) {
	kind, err := p.expectKeyword("static", "field")
	if err != nil {
		return nil, err
	}
	varType := Static
	if kind == "field" {
		varType = Field
	}

	dataType, className, err := p.parseType()
	if err != nil {
		return nil, err
	}

	names, err := p.parseVarNameList()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol(";"); err != nil {
		return nil, err
	}

	vars := make([]Variable, len(names))
	for i, name := range names {
		vars[i] = Variable{Name: name, Type: varType, DataType: dataType, ClassName: className}
	}
	return vars, nil
}

// parseType consumes a primitive type keyword or a class-name identifier.
func (p *Parser) parseType() (DataType, string, error) {
	tok, err := p.current()
	if err != nil {
		return "", "", err
	}

	switch {
	case tok.Kind == Keyword && tok.Value == "int":
		p.pos++
		return Int, "", nil
	case tok.Kind == Keyword && tok.Value == "char":
		p.pos++
		return Char, "", nil
	case tok.Kind == Keyword && tok.Value == "boolean":
		p.pos++
		return Bool, "", nil
	case tok.Kind == Identifier:
		p.pos++
		return Object, tok.Value, nil
	default:
		return "", "", fmt.Errorf("expected a type (int/char/boolean/class name), got %s %q", tok.Kind, tok.Value)
	}
}

func (p *Parser) parseVarNameList() ([]string, error) {
	first, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}
	names := []string{first}

	for p.atSymbol(",") {
		p.pos++
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}

	return names, nil
}

func (p *Parser) parseSubroutineDec(className string) (Subroutine, error) {
	kindWord, err := p.expectKeyword("constructor", "function", "method")
	if err != nil {
		return Subroutine{}, err
	}

	var subType SubroutineType
	switch kindWord {
	case "constructor":
		subType = Constructor
	case "function":
		subType = Function
	case "method":
		subType = Method
	}

	var returnType DataType
	if p.atKeyword("void") {
		p.pos++
		returnType = Void
	} else {
		returnType, _, err = p.parseType()
		if err != nil {
			return Subroutine{}, fmt.Errorf("expected return type: %w", err)
		}
	}

	name, err := p.expectIdentifier()
	if err != nil {
		return Subroutine{}, fmt.Errorf("expected subroutine name: %w", err)
	}

	if err := p.expectSymbol("("); err != nil {
		return Subroutine{}, err
	}
	params, err := p.parseParameterList()
	if err != nil {
		return Subroutine{}, fmt.Errorf("error parsing parameter list: %w", err)
	}
	if err := p.expectSymbol(")"); err != nil {
		return Subroutine{}, err
	}

	if err := p.expectSymbol("{"); err != nil {
		return Subroutine{}, err
	}

	locals := []Variable{}
	for p.atKeyword("var") {
		vars, err := p.parseVarDec()
		if err != nil {
			return Subroutine{}, fmt.Errorf("error parsing local variable declaration: %w", err)
		}
		locals = append(locals, vars...)
	}

	statements, err := p.parseStatements()
	if err != nil {
		return Subroutine{}, fmt.Errorf("error parsing subroutine body: %w", err)
	}

	if err := p.expectSymbol("}"); err != nil {
		return Subroutine{}, err
	}

	// Local 'var' declarations are modeled as VarStmt at the front of the body, the same
	// construct the lowerer already uses to register a local in the active scope.
	body := make([]Statement, 0, len(locals)+len(statements))
	if len(locals) > 0 {
		body = append(body, VarStmt{Vars: locals})
	}
	body = append(body, statements...)

	return Subroutine{Name: name, Type: subType, Return: returnType, Arguments: params, Statements: body}, nil
}

func (p *Parser) parseParameterList() ([]Variable, error) {
	params := []Variable{}

	if p.atSymbol(")") {
		return params, nil
	}

	for {
		dataType, className, err := p.parseType()
		if err != nil {
			return nil, err
		}
		name, err := p.expectIdentifier()
		if err != nil {
			return nil, fmt.Errorf("expected parameter name: %w", err)
		}
		params = append(params, Variable{Name: name, Type: Parameter, DataType: dataType, ClassName: className})

		if !p.atSymbol(",") {
			break
		}
		p.pos++
	}

	return params, nil
}

func (p *Parser) parseVarDec() ([]Variable, error) {
	if _, err := p.expectKeyword("var"); err != nil {
		return nil, err
	}
	dataType, className, err := p.parseType()
	if err != nil {
		return nil, err
	}
	names, err := p.parseVarNameList()
	if err != nil {
		return nil, err
	}
	if err := p.expectSymbol(";"); err != nil {
		return nil, err
	}

	vars := make([]Variable, len(names))
	for i, name := range names {
		vars[i] = Variable{Name: name, Type: Local, DataType: dataType, ClassName: className}
	}
	return vars, nil
}

// ----------------------------------------------------------------------------
// Grammar: statements

func (p *Parser) parseStatements() ([]Statement, error) {
	statements := []Statement{}

	for {
		switch {
		case p.atKeyword("let"):
			stmt, err := p.parseLetStatement()
			if err != nil {
				return nil, err
			}
			statements = append(statements, stmt)
		case p.atKeyword("if"):
			stmt, err := p.parseIfStatement()
			if err != nil {
				return nil, err
			}
			statements = append(statements, stmt)
		case p.atKeyword("while"):
			stmt, err := p.parseWhileStatement()
			if err != nil {
				return nil, err
			}
			statements = append(statements, stmt)
		case p.atKeyword("do"):
			stmt, err := p.parseDoStatement()
			if err != nil {
				return nil, err
			}
			statements = append(statements, stmt)
		case p.atKeyword("return"):
			stmt, err := p.parseReturnStatement()
			if err != nil {
				return nil, err
			}
			statements = append(statements, stmt)
		default:
			return statements, nil
		}
	}
}

func (p *Parser) parseLetStatement() (Statement, error) {
	if _, err := p.expectKeyword("let"); err != nil {
		return nil, err
	}
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, fmt.Errorf("expected variable name: %w", err)
	}

	var lhs Expression = VarExpr{Var: name}
	if p.atSymbol("[") {
		p.pos++
		index, err := p.parseExpression()
		if err != nil {
			return nil, fmt.Errorf("error parsing array index expression: %w", err)
		}
		if err := p.expectSymbol("]"); err != nil {
			return nil, err
		}
		lhs = ArrayExpr{Var: name, Index: index}
	}

	if err := p.expectSymbol("="); err != nil {
		return nil, err
	}
	rhs, err := p.parseExpression()
	if err != nil {
		return nil, fmt.Errorf("error parsing right-hand side expression: %w", err)
	}
	if err := p.expectSymbol(";"); err != nil {
		return nil, err
	}

	return LetStmt{Lhs: lhs, Rhs: rhs}, nil
}

func (p *Parser) parseIfStatement() (Statement, error) {
	if _, err := p.expectKeyword("if"); err != nil {
		return nil, err
	}
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	condition, err := p.parseExpression()
	if err != nil {
		return nil, fmt.Errorf("error parsing if condition: %w", err)
	}
	if err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	if err := p.expectSymbol("{"); err != nil {
		return nil, err
	}
	thenBlock, err := p.parseStatements()
	if err != nil {
		return nil, fmt.Errorf("error parsing 'then' block: %w", err)
	}
	if err := p.expectSymbol("}"); err != nil {
		return nil, err
	}

	var elseBlock []Statement
	if p.atKeyword("else") {
		p.pos++
		if err := p.expectSymbol("{"); err != nil {
			return nil, err
		}
		elseBlock, err = p.parseStatements()
		if err != nil {
			return nil, fmt.Errorf("error parsing 'else' block: %w", err)
		}
		if err := p.expectSymbol("}"); err != nil {
			return nil, err
		}
	}

	return IfStmt{Condition: condition, ThenBlock: thenBlock, ElseBlock: elseBlock}, nil
}

func (p *Parser) parseWhileStatement() (Statement, error) {
	if _, err := p.expectKeyword("while"); err != nil {
		return nil, err
	}
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}
	condition, err := p.parseExpression()
	if err != nil {
		return nil, fmt.Errorf("error parsing while condition: %w", err)
	}
	if err := p.expectSymbol(")"); err != nil {
		return nil, err
	}
	if err := p.expectSymbol("{"); err != nil {
		return nil, err
	}
	block, err := p.parseStatements()
	if err != nil {
		return nil, fmt.Errorf("error parsing while body: %w", err)
	}
	if err := p.expectSymbol("}"); err != nil {
		return nil, err
	}

	return WhileStmt{Condition: condition, Block: block}, nil
}

func (p *Parser) parseDoStatement() (Statement, error) {
	if _, err := p.expectKeyword("do"); err != nil {
		return nil, err
	}
	call, err := p.parseSubroutineCall()
	if err != nil {
		return nil, fmt.Errorf("error parsing subroutine call: %w", err)
	}
	if err := p.expectSymbol(";"); err != nil {
		return nil, err
	}
	return DoStmt{FuncCall: call}, nil
}

func (p *Parser) parseReturnStatement() (Statement, error) {
	if _, err := p.expectKeyword("return"); err != nil {
		return nil, err
	}
	if p.atSymbol(";") {
		p.pos++
		return ReturnStmt{}, nil
	}

	expr, err := p.parseExpression()
	if err != nil {
		return nil, fmt.Errorf("error parsing return expression: %w", err)
	}
	if err := p.expectSymbol(";"); err != nil {
		return nil, err
	}
	return ReturnStmt{Expr: expr}, nil
}

// ----------------------------------------------------------------------------
// Grammar: expressions

var binaryOps = map[string]ExprType{
	"+": Plus, "-": Minus, "*": Multiply, "/": Divide,
	"&": BoolAnd, "|": BoolOr, "<": LessThan, ">": GreatThan, "=": Equal,
}

func (p *Parser) parseExpression() (Expression, error) {
	lhs, err := p.parseTerm()
	if err != nil {
		return nil, err
	}

	for {
		tok, ok := p.peekAt(0)
		if !ok || tok.Kind != SymbolToken {
			break
		}
		opType, isOp := binaryOps[tok.Value]
		if !isOp {
			break
		}
		p.pos++

		rhs, err := p.parseTerm()
		if err != nil {
			return nil, fmt.Errorf("error parsing right-hand operand of '%s': %w", tok.Value, err)
		}
		lhs = BinaryExpr{Type: opType, Lhs: lhs, Rhs: rhs}
	}

	return lhs, nil
}

func (p *Parser) parseExpressionList() ([]Expression, error) {
	exprs := []Expression{}

	if p.atSymbol(")") {
		return exprs, nil
	}

	for {
		expr, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)

		if !p.atSymbol(",") {
			break
		}
		p.pos++
	}

	return exprs, nil
}

func (p *Parser) parseTerm() (Expression, error) {
	tok, err := p.current()
	if err != nil {
		return nil, err
	}

	switch {
	case tok.Kind == IntegerConstant:
		p.pos++
		return LiteralExpr{Type: Int, Value: tok.Value}, nil

	case tok.Kind == StringConstant:
		p.pos++
		return LiteralExpr{Type: String, Value: tok.Value}, nil

	case tok.Kind == Keyword && (tok.Value == "true" || tok.Value == "false"):
		p.pos++
		return LiteralExpr{Type: Bool, Value: tok.Value}, nil

	case tok.Kind == Keyword && tok.Value == "null":
		p.pos++
		return LiteralExpr{Type: Null, Value: tok.Value}, nil

	case tok.Kind == Keyword && tok.Value == "this":
		p.pos++
		return VarExpr{Var: "this"}, nil

	case tok.Kind == SymbolToken && tok.Value == "(":
		p.pos++
		inner, err := p.parseExpression()
		if err != nil {
			return nil, fmt.Errorf("error parsing parenthesized expression: %w", err)
		}
		if err := p.expectSymbol(")"); err != nil {
			return nil, err
		}
		return inner, nil

	case tok.Kind == SymbolToken && (tok.Value == "-" || tok.Value == "~"):
		p.pos++
		operand, err := p.parseTerm()
		if err != nil {
			return nil, fmt.Errorf("error parsing unary operand: %w", err)
		}
		unaryType := Minus
		if tok.Value == "~" {
			unaryType = BoolNot
		}
		return UnaryExpr{Type: unaryType, Rhs: operand}, nil

	case tok.Kind == Identifier:
		return p.parseIdentifierTerm()

	default:
		return nil, fmt.Errorf("unexpected token in term position: %s %q", tok.Kind, tok.Value)
	}
}

// parseIdentifierTerm disambiguates the 3 term alternatives that start with an identifier:
// array access ('name[expr]'), a subroutine call ('name(...)' or 'name.other(...)'), or a
// bare variable reference. A single token of extra lookahead (beyond the identifier itself)
// resolves which one applies.
func (p *Parser) parseIdentifierTerm() (Expression, error) {
	name, err := p.expectIdentifier()
	if err != nil {
		return nil, err
	}

	if p.atSymbol("[") {
		p.pos++
		index, err := p.parseExpression()
		if err != nil {
			return nil, fmt.Errorf("error parsing array index expression: %w", err)
		}
		if err := p.expectSymbol("]"); err != nil {
			return nil, err
		}
		return ArrayExpr{Var: name, Index: index}, nil
	}

	if p.atSymbol("(") || p.atSymbol(".") {
		p.pos--
		return p.parseSubroutineCall()
	}

	return VarExpr{Var: name}, nil
}

// parseSubroutineCall handles both 'subroutineCall' alternatives: a local call
// ('funcName(args)') and an external one ('obj.funcName(args)' / 'Class.funcName(args)').
func (p *Parser) parseSubroutineCall() (FuncCallExpr, error) {
	first, err := p.expectIdentifier()
	if err != nil {
		return FuncCallExpr{}, err
	}

	var call FuncCallExpr
	if p.atSymbol(".") {
		p.pos++
		method, err := p.expectIdentifier()
		if err != nil {
			return FuncCallExpr{}, fmt.Errorf("expected subroutine name after '.': %w", err)
		}
		call = FuncCallExpr{IsExtCall: true, Var: first, FuncName: method}
	} else {
		call = FuncCallExpr{IsExtCall: false, FuncName: first}
	}

	if err := p.expectSymbol("("); err != nil {
		return FuncCallExpr{}, err
	}
	args, err := p.parseExpressionList()
	if err != nil {
		return FuncCallExpr{}, fmt.Errorf("error parsing argument list: %w", err)
	}
	if err := p.expectSymbol(")"); err != nil {
		return FuncCallExpr{}, err
	}

	call.Arguments = args
	return call, nil
}
