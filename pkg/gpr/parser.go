package gpr

import "fmt"

// Operator precedence: OR is the loosest binder, AND binds tighter, so
// "a and b or c" parses as "(a and b) or c".
const (
	lowest = iota
	precOr
	precAnd
)

func precedence(t TokenType) int {
	switch t {
	case OR:
		return precOr
	case AND:
		return precAnd
	}
	return lowest
}

type parser struct {
	l *Lexer

	curToken  Token
	peekToken Token

	errors []string
}

func newParser(l *Lexer) *parser {
	p := &parser{l: l}
	// Read two tokens so curToken and peekToken are both set.
	p.nextToken()
	p.nextToken()
	return p
}

func (p *parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

// parseRule parses a whole rule string. Malformed rules do not fail: the
// parser recovers with the best-effort tree it built so far and records what
// went wrong. Stray tokens after a complete expression are skipped.
func (p *parser) parseRule() Expr {
	expr := p.parseExpression(lowest)
	for p.curToken.Type != EOF {
		if p.curToken.Type == RPAREN || p.curToken.Type == ILLEGAL {
			p.errorf("unexpected %q at offset %d", p.curToken.Literal, p.curToken.Position)
			p.nextToken()
			continue
		}
		// A second expression with no joining operator; historic behavior
		// is to keep only the first one.
		p.errorf("trailing input starting at offset %d", p.curToken.Position)
		break
	}
	return expr
}

func (p *parser) parseExpression(minPrec int) Expr {
	left := p.parsePrimary()

	for {
		prec := precedence(p.curToken.Type)
		if prec <= minPrec {
			return left
		}
		op := p.curToken.Type
		p.nextToken()

		right := p.parseExpression(prec)
		switch {
		case left == nil:
			// "or b" — dangling leading operator, keep the right side.
			left = right
		case right == nil:
			// "a and" — dangling trailing operator, keep the left side.
			p.errorf("dangling operator")
		default:
			left = &Binary{Op: op, Left: left, Right: right}
		}
	}
}

func (p *parser) parsePrimary() Expr {
	switch p.curToken.Type {
	case IDENT:
		ident := &Ident{Name: p.curToken.Literal}
		p.nextToken()
		return ident
	case LPAREN:
		p.nextToken()
		expr := p.parseExpression(lowest)
		if p.curToken.Type == RPAREN {
			p.nextToken()
		} else {
			p.errorf("unbalanced parenthesis")
		}
		return expr
	case ILLEGAL:
		p.errorf("illegal token %q at offset %d", p.curToken.Literal, p.curToken.Position)
		p.nextToken()
		return p.parsePrimary()
	default:
		return nil
	}
}

func (p *parser) errorf(format string, args ...interface{}) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}
