package formula

// Grammar:
//
//	expr   = term { ("+" | "-") term }
//	term   = unary { ("*" | "/") unary }
//	unary  = ("+" | "-") unary | primary
//	primary = number | name | "(" expr ")"

type node interface {
	eval(vars map[string]float64) (float64, error)
}

type numberNode struct{ value float64 }

type varNode struct{ name string }

type unaryNode struct {
	neg     bool
	operand node
}

type binaryNode struct {
	op          tokenKind
	left, right node
}

type parser struct {
	toks []token
	pos  int
	vars []string
	seen map[string]bool
}

func parse(src string) (node, []string, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, nil, err
	}
	p := &parser{toks: toks, seen: make(map[string]bool)}
	n, err := p.expr()
	if err != nil {
		return nil, nil, err
	}
	if tok := p.peek(); tok.kind != tokEOF {
		return nil, nil, syntaxErrorf(tok.pos, "unexpected %s", tok.kind)
	}
	return n, p.vars, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if tok.kind != tokEOF {
		p.pos++
	}
	return tok
}

func (p *parser) expr() (node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek().kind
		if op != tokPlus && op != tokMinus {
			return left, nil
		}
		p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
}

func (p *parser) term() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for {
		op := p.peek().kind
		if op != tokStar && op != tokSlash {
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = binaryNode{op: op, left: left, right: right}
	}
}

func (p *parser) unary() (node, error) {
	switch p.peek().kind {
	case tokPlus:
		p.next()
		return p.unary()
	case tokMinus:
		p.next()
		operand, err := p.unary()
		if err != nil {
			return nil, err
		}
		return unaryNode{neg: true, operand: operand}, nil
	}
	return p.primary()
}

func (p *parser) primary() (node, error) {
	tok := p.next()
	switch tok.kind {
	case tokNumber:
		return numberNode{value: tok.num}, nil
	case tokIdent:
		if !p.seen[tok.text] {
			p.seen[tok.text] = true
			p.vars = append(p.vars, tok.text)
		}
		return varNode{name: tok.text}, nil
	case tokLParen:
		inner, err := p.expr()
		if err != nil {
			return nil, err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return nil, syntaxErrorf(closing.pos, "expected ')', found %s", closing.kind)
		}
		return inner, nil
	}
	return nil, syntaxErrorf(tok.pos, "unexpected %s", tok.kind)
}
