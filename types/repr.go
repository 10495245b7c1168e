package types

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseRepr parses a type representation as produced by Repr back into a
// type.  Cached binary units store the types of their exported symbols as
// repr strings; this is the decoder for them.
func ParseRepr(s string) (Type, error) {
	p := &reprParser{src: strings.TrimSpace(s)}

	t, err := p.parseType()
	if err != nil {
		return nil, err
	}

	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("trailing input in type repr `%s`", s)
	}

	return t, nil
}

type reprParser struct {
	src string
	pos int
}

func (p *reprParser) skipSpace() {
	for p.pos < len(p.src) && p.src[p.pos] == ' ' {
		p.pos++
	}
}

func (p *reprParser) peek() byte {
	if p.pos < len(p.src) {
		return p.src[p.pos]
	}

	return 0
}

// word consumes a run of identifier characters.
func (p *reprParser) word() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == ' ' || c == '[' || c == ']' || c == '(' || c == ')' ||
			c == ':' || c == ',' || c == '&' {
			break
		}
		p.pos++
	}

	return p.src[start:p.pos]
}

// expect consumes the given literal prefix.
func (p *reprParser) expect(lit string) error {
	p.skipSpace()
	if !strings.HasPrefix(p.src[p.pos:], lit) {
		return fmt.Errorf("expected `%s` at offset %d in type repr `%s`", lit, p.pos, p.src)
	}

	p.pos += len(lit)
	return nil
}

// storage consumes an optional storage class keyword.
func (p *reprParser) storage() Storage {
	p.skipSpace()
	rest := p.src[p.pos:]

	switch {
	case strings.HasPrefix(rest, "mut "):
		p.pos += 4
		return Mut
	case strings.HasPrefix(rest, "stash "):
		p.pos += 6
		return Stash
	default:
		return Auto
	}
}

func (p *reprParser) parseInt() (int, error) {
	p.skipSpace()
	start := p.pos
	if p.peek() == '-' {
		p.pos++
	}
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}

	return strconv.Atoi(p.src[start:p.pos])
}

func (p *reprParser) parseType() (Type, error) {
	p.skipSpace()

	switch p.peek() {
	case '&':
		p.pos++
		storage := p.storage()
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}

		return RefType{Elem: elem, Storage: storage}, nil

	case '[':
		p.pos++
		storage := p.storage()
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}

		p.skipSpace()
		if p.peek() == ':' {
			p.pos++
			lo, err := p.parseInt()
			if err != nil {
				return nil, err
			}
			if err := p.expect("to"); err != nil {
				return nil, err
			}
			hi, err := p.parseInt()
			if err != nil {
				return nil, err
			}
			if err := p.expect("]"); err != nil {
				return nil, err
			}

			return ArrayType{Elem: elem, Storage: storage, Lo: lo, Hi: hi}, nil
		}

		if err := p.expect("]"); err != nil {
			return nil, err
		}

		return SliceType{Elem: elem, Storage: storage}, nil
	}

	word := p.word()
	switch word {
	case "void":
		return VoidType{}, nil
	case "isr":
		return FuncType{Return: VoidType{}, IsISR: true}, nil
	case "fun":
		if err := p.expect("("); err != nil {
			return nil, err
		}

		var params []Type
		p.skipSpace()
		if p.peek() != ')' {
			for {
				param, err := p.parseType()
				if err != nil {
					return nil, err
				}
				params = append(params, param)

				p.skipSpace()
				if p.peek() != ',' {
					break
				}
				p.pos++
			}
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}

		ret := Type(VoidType{})
		p.skipSpace()
		if strings.HasPrefix(p.src[p.pos:], "->") {
			p.pos += 2
			var err error
			ret, err = p.parseType()
			if err != nil {
				return nil, err
			}
		}

		return FuncType{Params: params, Return: ret}, nil
	}

	if pt, ok := Primitives[word]; ok {
		return pt, nil
	}

	return nil, fmt.Errorf("unknown type `%s` in type repr", word)
}
