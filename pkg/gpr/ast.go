package gpr

import "fmt"

// Expr is a node in a parsed gene-reaction rule.
type Expr interface {
	String() string
}

// Ident is a bare gene identifier.
type Ident struct {
	Name string
}

func (i *Ident) String() string { return i.Name }

// Binary is an AND/OR combination of two sub-rules. AND binds tighter than OR.
type Binary struct {
	Op    TokenType
	Left  Expr
	Right Expr
}

func (b *Binary) String() string {
	op := "and"
	if b.Op == OR {
		op = "or"
	}
	return fmt.Sprintf("(%s %s %s)", b.Left, op, b.Right)
}
