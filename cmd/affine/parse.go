package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/wasmlir/wasmlir/ir"
)

// parsedExpr is an expression together with the input space it mentions.
type parsedExpr struct {
	expr ir.AffineExpr
	dims int
	syms int
}

// parseExpr builds an affine expression from a textual form like
// "d0 + s0 * 2" or "(d0 + d1) floordiv 4". Supported operators, loosest to
// tightest binding: + and -, then *, mod, floordiv, ceildiv.
func parseExpr(ctx *ir.Context, input string) (parsedExpr, error) {
	p := &parser{ctx: ctx, tokens: tokenize(input), maxDim: -1, maxSym: -1}
	expr, err := p.sum()
	if err != nil {
		return parsedExpr{}, err
	}
	if p.peek() != "" {
		return parsedExpr{}, fmt.Errorf("unexpected %q", p.peek())
	}
	return parsedExpr{expr: expr, dims: p.maxDim + 1, syms: p.maxSym + 1}, nil
}

func tokenize(input string) []string {
	for _, op := range []string{"+", "-", "*", "(", ")"} {
		input = strings.ReplaceAll(input, op, " "+op+" ")
	}
	return strings.Fields(input)
}

type parser struct {
	ctx    *ir.Context
	tokens []string
	pos    int
	maxDim int
	maxSym int
}

func (p *parser) peek() string {
	if p.pos >= len(p.tokens) {
		return ""
	}
	return p.tokens[p.pos]
}

func (p *parser) next() string {
	t := p.peek()
	p.pos++
	return t
}

func (p *parser) sum() (ir.AffineExpr, error) {
	lhs, err := p.product()
	if err != nil {
		return ir.AffineExpr{}, err
	}
	for {
		switch p.peek() {
		case "+":
			p.next()
			rhs, err := p.product()
			if err != nil {
				return ir.AffineExpr{}, err
			}
			lhs = lhs.Add(rhs)
		case "-":
			p.next()
			rhs, err := p.product()
			if err != nil {
				return ir.AffineExpr{}, err
			}
			lhs = lhs.Add(rhs.Mul(ir.NewConstant(p.ctx, -1)))
		default:
			return lhs, nil
		}
	}
}

func (p *parser) product() (ir.AffineExpr, error) {
	lhs, err := p.atom()
	if err != nil {
		return ir.AffineExpr{}, err
	}
	for {
		var combine func(ir.AffineExpr, ir.AffineExpr) ir.AffineExpr
		switch p.peek() {
		case "*":
			combine = ir.AffineExpr.Mul
		case "mod":
			combine = ir.AffineExpr.Mod
		case "floordiv":
			combine = ir.AffineExpr.FloorDiv
		case "ceildiv":
			combine = ir.AffineExpr.CeilDiv
		default:
			return lhs, nil
		}
		p.next()
		rhs, err := p.atom()
		if err != nil {
			return ir.AffineExpr{}, err
		}
		lhs = combine(lhs, rhs)
	}
}

func (p *parser) atom() (ir.AffineExpr, error) {
	tok := p.next()
	switch {
	case tok == "":
		return ir.AffineExpr{}, fmt.Errorf("unexpected end of expression")
	case tok == "(":
		expr, err := p.sum()
		if err != nil {
			return ir.AffineExpr{}, err
		}
		if p.next() != ")" {
			return ir.AffineExpr{}, fmt.Errorf("missing closing parenthesis")
		}
		return expr, nil
	case tok == "-":
		expr, err := p.atom()
		if err != nil {
			return ir.AffineExpr{}, err
		}
		if expr.IsConstant() {
			return ir.NewConstant(p.ctx, -expr.ConstantValue()), nil
		}
		return expr.Mul(ir.NewConstant(p.ctx, -1)), nil
	case strings.HasPrefix(tok, "d"):
		pos, err := strconv.Atoi(tok[1:])
		if err != nil || pos < 0 {
			return ir.AffineExpr{}, fmt.Errorf("bad dimension %q", tok)
		}
		if pos > p.maxDim {
			p.maxDim = pos
		}
		return ir.NewDimension(p.ctx, pos), nil
	case strings.HasPrefix(tok, "s"):
		pos, err := strconv.Atoi(tok[1:])
		if err != nil || pos < 0 {
			return ir.AffineExpr{}, fmt.Errorf("bad symbol %q", tok)
		}
		if pos > p.maxSym {
			p.maxSym = pos
		}
		return ir.NewSymbol(p.ctx, pos), nil
	default:
		value, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return ir.AffineExpr{}, fmt.Errorf("bad token %q", tok)
		}
		return ir.NewConstant(p.ctx, value), nil
	}
}
