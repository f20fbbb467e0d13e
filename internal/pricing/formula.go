package pricing

import (
	"errors"
	"fmt"
	"math"
	"strconv"
)

// Variables the formula grammar may reference.
const (
	VarWidth     = "width"
	VarHeight    = "height"
	VarLength    = "length"
	VarArea      = "area"
	VarQuantity  = "quantity"
	VarBasePrice = "basePrice"
)

var formulaVocabulary = map[string]bool{
	VarWidth:     true,
	VarHeight:    true,
	VarLength:    true,
	VarArea:      true,
	VarQuantity:  true,
	VarBasePrice: true,
}

// maxFormulaDepth bounds parenthesis and unary nesting.
const maxFormulaDepth = 64

var (
	ErrUndefinedVariable = errors.New("undefined variable")
	ErrDivisionByZero    = errors.New("division by zero")
	ErrNonFinite         = errors.New("non-finite result")
	ErrSyntax            = errors.New("syntax error")
)

// EvaluationError describes why a formula could not be evaluated.
type EvaluationError struct {
	Formula string
	Err     error
	Detail  string
}

func (e *EvaluationError) Error() string {
	switch {
	case e.Detail == "":
		return e.Err.Error()
	case e.Err == ErrUndefinedVariable:
		return e.Err.Error() + " " + e.Detail
	}
	return e.Err.Error() + ": " + e.Detail
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// Evaluate computes a formula over the bound variables.
//
// The grammar is closed: numeric literals, the names width, height, length, area,
// quantity and basePrice, the binary operators + - * /, unary minus and plus, and
// parentheses. Anything else fails to parse.
func Evaluate(formula string, variables map[string]float64) (float64, error) {
	expr, err := ParseFormula(formula)
	if err != nil {
		return 0, err
	}
	return expr.Eval(variables)
}

// Expr is a parsed formula.
type Expr struct {
	src  string
	root node
}

// Variables lists the names the formula references, in first-use order.
func (e *Expr) Variables() []string {
	var names []string
	seen := map[string]bool{}
	var walk func(n node)
	walk = func(n node) {
		switch x := n.(type) {
		case varNode:
			if !seen[x.name] {
				seen[x.name] = true
				names = append(names, x.name)
			}
		case unaryNode:
			walk(x.operand)
		case binaryNode:
			walk(x.left)
			walk(x.right)
		}
	}
	walk(e.root)
	return names
}

// Eval evaluates the parsed formula.
func (e *Expr) Eval(variables map[string]float64) (float64, error) {
	result, err := e.root.eval(variables)
	if err != nil {
		var evalErr *EvaluationError
		if errors.As(err, &evalErr) {
			evalErr.Formula = e.src
		}
		return 0, err
	}
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, &EvaluationError{Formula: e.src, Err: ErrNonFinite}
	}
	return result, nil
}

type node interface {
	eval(vars map[string]float64) (float64, error)
}

type numberNode struct{ value float64 }

type varNode struct{ name string }

type unaryNode struct {
	op      byte
	operand node
}

type binaryNode struct {
	op          byte
	left, right node
}

func (n numberNode) eval(map[string]float64) (float64, error) { return n.value, nil }

func (n varNode) eval(vars map[string]float64) (float64, error) {
	v, ok := vars[n.name]
	if !ok {
		return 0, &EvaluationError{Err: ErrUndefinedVariable, Detail: strconv.Quote(n.name)}
	}
	return v, nil
}

func (n unaryNode) eval(vars map[string]float64) (float64, error) {
	v, err := n.operand.eval(vars)
	if err != nil {
		return 0, err
	}
	if n.op == '-' {
		return -v, nil
	}
	return v, nil
}

func (n binaryNode) eval(vars map[string]float64) (float64, error) {
	l, err := n.left.eval(vars)
	if err != nil {
		return 0, err
	}
	r, err := n.right.eval(vars)
	if err != nil {
		return 0, err
	}

	switch n.op {
	case '+':
		return l + r, nil
	case '-':
		return l - r, nil
	case '*':
		return l * r, nil
	default:
		if r == 0 {
			return 0, &EvaluationError{Err: ErrDivisionByZero}
		}
		return l / r, nil
	}
}

// ParseFormula parses a formula into an evaluable expression.
func ParseFormula(formula string) (*Expr, error) {
	tokens, err := tokenize(formula)
	if err != nil {
		return nil, &EvaluationError{Formula: formula, Err: ErrSyntax, Detail: err.Error()}
	}

	p := &parser{tokens: tokens}
	root, err := p.parseExpr(0)
	if err != nil {
		var evalErr *EvaluationError
		if errors.As(err, &evalErr) {
			evalErr.Formula = formula
			return nil, evalErr
		}
		return nil, &EvaluationError{Formula: formula, Err: ErrSyntax, Detail: err.Error()}
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, &EvaluationError{Formula: formula, Err: ErrSyntax, Detail: fmt.Sprintf("unexpected %s at offset %d", tok, tok.pos)}
	}

	return &Expr{src: formula, root: root}, nil
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokOp
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of formula"
	}
	return strconv.Quote(t.text)
}

func tokenize(src string) ([]token, error) {
	var tokens []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '+' || c == '-' || c == '*' || c == '/':
			tokens = append(tokens, token{kind: tokOp, text: string(c), pos: i})
			i++
		case c == '(':
			tokens = append(tokens, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			tokens = append(tokens, token{kind: tokRParen, text: ")", pos: i})
			i++
		case isDigit(c) || c == '.':
			start := i
			for i < len(src) && (isDigit(src[i]) || src[i] == '.') {
				i++
			}
			text := src[start:i]
			n, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q at offset %d", text, start)
			}
			tokens = append(tokens, token{kind: tokNumber, text: text, num: n, pos: start})
		case isLetter(c):
			start := i
			for i < len(src) && (isLetter(src[i]) || isDigit(src[i])) {
				i++
			}
			tokens = append(tokens, token{kind: tokIdent, text: src[start:i], pos: start})
		default:
			return nil, fmt.Errorf("unexpected character %q at offset %d", c, i)
		}
	}
	tokens = append(tokens, token{kind: tokEOF, pos: len(src)})
	return tokens, nil
}

func isDigit(c byte) bool  { return c >= '0' && c <= '9' }
func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' }

type parser struct {
	tokens []token
	pos    int
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	tok := p.tokens[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

// expr := term (('+' | '-') term)*
func (p *parser) parseExpr(depth int) (node, error) {
	left, err := p.parseTerm(depth)
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokOp || (tok.text != "+" && tok.text != "-") {
			return left, nil
		}
		p.next()
		right, err := p.parseTerm(depth)
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: tok.text[0], left: left, right: right}
	}
}

// term := factor (('*' | '/') factor)*
func (p *parser) parseTerm(depth int) (node, error) {
	left, err := p.parseFactor(depth)
	if err != nil {
		return nil, err
	}
	for {
		tok := p.peek()
		if tok.kind != tokOp || (tok.text != "*" && tok.text != "/") {
			return left, nil
		}
		p.next()
		right, err := p.parseFactor(depth)
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: tok.text[0], left: left, right: right}
	}
}

// factor := ('+' | '-') factor | number | name | '(' expr ')'
func (p *parser) parseFactor(depth int) (node, error) {
	if depth > maxFormulaDepth {
		return nil, fmt.Errorf("formula nested deeper than %d", maxFormulaDepth)
	}

	tok := p.next()
	switch tok.kind {
	case tokNumber:
		return numberNode{value: tok.num}, nil
	case tokIdent:
		if !formulaVocabulary[tok.text] {
			return nil, &EvaluationError{Err: ErrUndefinedVariable, Detail: strconv.Quote(tok.text)}
		}
		return varNode{name: tok.text}, nil
	case tokOp:
		if tok.text == "-" || tok.text == "+" {
			operand, err := p.parseFactor(depth + 1)
			if err != nil {
				return nil, err
			}
			return unaryNode{op: tok.text[0], operand: operand}, nil
		}
	case tokLParen:
		inner, err := p.parseExpr(depth + 1)
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, fmt.Errorf("expected \")\" at offset %d, got %s", closing.pos, closing)
		}
		return inner, nil
	}
	return nil, fmt.Errorf("unexpected %s at offset %d", tok, tok.pos)
}
