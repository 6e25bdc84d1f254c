/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go/service/simpledb"
)

const itemNameField = "itemName()"

// selectStmt is a parsed select expression:
//
//	select <output> from <domain> [where <predicate>] [limit <n>]
type selectStmt struct {
	// output is nil for "*"; an empty slice selects itemName() only.
	output []string
	all    bool
	domain string
	where  predicate
	limit  int
}

func (s *selectStmt) project(it attributes) []*simpledb.Attribute {
	if s.all {
		return toAttributes(it, nil)
	}
	if len(s.output) == 0 {
		return nil
	}
	return toAttributes(it, s.output)
}

// predicate is evaluated per item. A multi-valued attribute matches when any
// of its values does.
type predicate interface {
	eval(name string, it attributes) bool
}

type andPred struct{ left, right predicate }

func (p andPred) eval(n string, it attributes) bool { return p.left.eval(n, it) && p.right.eval(n, it) }

type orPred struct{ left, right predicate }

func (p orPred) eval(n string, it attributes) bool { return p.left.eval(n, it) || p.right.eval(n, it) }

type notPred struct{ inner predicate }

func (p notPred) eval(n string, it attributes) bool { return !p.inner.eval(n, it) }

type comparePred struct {
	field  string
	op     string
	values []string
	like   *regexp.Regexp
}

func (p comparePred) eval(name string, it attributes) bool {
	var values []string
	if p.field == itemNameField {
		values = []string{name}
	} else {
		values = it[p.field]
	}

	switch p.op {
	case "is null":
		return len(values) == 0
	case "is not null":
		return len(values) > 0
	}
	for _, v := range values {
		if p.test(v) {
			return true
		}
	}
	return false
}

func (p comparePred) test(v string) bool {
	switch p.op {
	case "=":
		return v == p.values[0]
	case "!=":
		return v != p.values[0]
	case "<":
		return v < p.values[0]
	case "<=":
		return v <= p.values[0]
	case ">":
		return v > p.values[0]
	case ">=":
		return v >= p.values[0]
	case "like":
		return p.like.MatchString(v)
	case "not like":
		return !p.like.MatchString(v)
	case "in":
		return containsString(p.values, v)
	case "between":
		return v >= p.values[0] && v <= p.values[1]
	}
	return false
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokName
	tokString
	tokOp
)

type token struct {
	kind tokenKind
	text string
}

func (t token) is(word string) bool {
	return t.kind == tokIdent && strings.EqualFold(t.text, word)
}

func tokenize(s string) ([]token, error) {
	var toks []token
	for i := 0; i < len(s); {
		ch := s[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n':
			i++
		case ch == '\'' || ch == '"' || ch == '`':
			text, n, err := quoted(s[i:], ch)
			if err != nil {
				return nil, err
			}
			kind := tokString
			if ch == '`' {
				kind = tokName
			}
			toks = append(toks, token{kind: kind, text: text})
			i += n
		case strings.ContainsRune("(),", rune(ch)):
			toks = append(toks, token{kind: tokOp, text: string(ch)})
			i++
		case strings.ContainsRune("=!<>", rune(ch)):
			j := i + 1
			if j < len(s) && (s[j] == '=' || (ch == '<' && s[j] == '>')) {
				j++
			}
			op := s[i:j]
			if op == "<>" {
				op = "!="
			}
			if op == "!" {
				return nil, fmt.Errorf("unexpected '!' at %d", i)
			}
			toks = append(toks, token{kind: tokOp, text: op})
			i = j
		case ch == '*':
			toks = append(toks, token{kind: tokOp, text: "*"})
			i++
		default:
			j := i
			for j < len(s) && (isWordChar(s[j])) {
				j++
			}
			if j == i {
				return nil, fmt.Errorf("unexpected %q at %d", ch, i)
			}
			toks = append(toks, token{kind: tokIdent, text: s[i:j]})
			i = j
		}
	}
	return append(toks, token{kind: tokEOF}), nil
}

// quoted reads a literal delimited by q; a doubled delimiter is an escaped one.
func quoted(s string, q byte) (string, int, error) {
	var b strings.Builder
	for i := 1; i < len(s); i++ {
		if s[i] != q {
			b.WriteByte(s[i])
			continue
		}
		if i+1 < len(s) && s[i+1] == q {
			b.WriteByte(q)
			i++
			continue
		}
		return b.String(), i + 1, nil
	}
	return "", 0, fmt.Errorf("unterminated literal")
}

func isWordChar(ch byte) bool {
	return ch == '_' || ch == '.' || ch == '-' || ch == '#' ||
		ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9'
}

type parser struct {
	toks []token
	pos  int
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) expectWord(word string) error {
	if t := p.next(); !t.is(word) {
		return fmt.Errorf("expected %s, got %q", word, t.text)
	}
	return nil
}

func (p *parser) expectOp(op string) error {
	if t := p.next(); t.kind != tokOp || t.text != op {
		return fmt.Errorf("expected %q, got %q", op, t.text)
	}
	return nil
}

func parseSelect(expr string) (*selectStmt, error) {
	toks, err := tokenize(expr)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	if err := p.expectWord("select"); err != nil {
		return nil, err
	}

	stmt := &selectStmt{}
	if t := p.peek(); t.kind == tokOp && t.text == "*" {
		p.next()
		stmt.all = true
	} else {
		stmt.output = []string{}
		for {
			field, err := p.field()
			if err != nil {
				return nil, err
			}
			if field != itemNameField {
				stmt.output = append(stmt.output, field)
			}
			if t := p.peek(); t.kind != tokOp || t.text != "," {
				break
			}
			p.next()
		}
	}

	if err := p.expectWord("from"); err != nil {
		return nil, err
	}
	if stmt.domain, err = p.name(); err != nil {
		return nil, err
	}
	if p.peek().is("where") {
		p.next()
		if stmt.where, err = p.or(); err != nil {
			return nil, err
		}
	}
	if p.peek().is("limit") {
		p.next()
		if stmt.limit, err = strconv.Atoi(p.next().text); err != nil {
			return nil, fmt.Errorf("invalid limit: %w", err)
		}
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %q", t.text)
	}
	return stmt, nil
}

func (p *parser) name() (string, error) {
	t := p.next()
	if t.kind != tokIdent && t.kind != tokName {
		return "", fmt.Errorf("expected a name, got %q", t.text)
	}
	return t.text, nil
}

// field reads an attribute name or itemName().
func (p *parser) field() (string, error) {
	if t := p.peek(); t.is("itemName") {
		p.next()
		if err := p.expectOp("("); err != nil {
			return "", err
		}
		if err := p.expectOp(")"); err != nil {
			return "", err
		}
		return itemNameField, nil
	}
	return p.name()
}

func (p *parser) or() (predicate, error) {
	left, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.peek().is("or") {
		p.next()
		right, err := p.and()
		if err != nil {
			return nil, err
		}
		left = orPred{left, right}
	}
	return left, nil
}

func (p *parser) and() (predicate, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.peek().is("and") {
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = andPred{left, right}
	}
	return left, nil
}

func (p *parser) unary() (predicate, error) {
	if p.peek().is("not") {
		p.next()
		inner, err := p.unary()
		if err != nil {
			return nil, err
		}
		return notPred{inner}, nil
	}
	if t := p.peek(); t.kind == tokOp && t.text == "(" {
		p.next()
		inner, err := p.or()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return inner, nil
	}
	return p.comparison()
}

var comparisonOps = map[string]bool{"=": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

func (p *parser) comparison() (predicate, error) {
	field, err := p.field()
	if err != nil {
		return nil, err
	}
	c := comparePred{field: field}

	t := p.next()
	switch {
	case t.kind == tokOp && comparisonOps[t.text]:
		c.op = t.text
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		c.values = []string{v}
	case t.is("is"):
		c.op = "is null"
		if p.peek().is("not") {
			p.next()
			c.op = "is not null"
		}
		if err := p.expectWord("null"); err != nil {
			return nil, err
		}
	case t.is("like"), t.is("not"):
		c.op = "like"
		if t.is("not") {
			if err := p.expectWord("like"); err != nil {
				return nil, err
			}
			c.op = "not like"
		}
		v, err := p.value()
		if err != nil {
			return nil, err
		}
		c.like = likePattern(v)
	case t.is("in"):
		c.op = "in"
		if err := p.expectOp("("); err != nil {
			return nil, err
		}
		for {
			v, err := p.value()
			if err != nil {
				return nil, err
			}
			c.values = append(c.values, v)
			if nt := p.next(); nt.kind == tokOp && nt.text == ")" {
				break
			} else if nt.kind != tokOp || nt.text != "," {
				return nil, fmt.Errorf("expected ',' or ')', got %q", nt.text)
			}
		}
	case t.is("between"):
		c.op = "between"
		lo, err := p.value()
		if err != nil {
			return nil, err
		}
		if err := p.expectWord("and"); err != nil {
			return nil, err
		}
		hi, err := p.value()
		if err != nil {
			return nil, err
		}
		c.values = []string{lo, hi}
	default:
		return nil, fmt.Errorf("unexpected %q after %s", t.text, field)
	}
	return c, nil
}

// value reads a quoted literal. Bare words are accepted as literals too.
func (p *parser) value() (string, error) {
	t := p.next()
	if t.kind != tokString && t.kind != tokIdent {
		return "", fmt.Errorf("expected a value, got %q", t.text)
	}
	return t.text, nil
}

// likePattern turns a LIKE operand into an anchored regexp; % matches any run.
func likePattern(s string) *regexp.Regexp {
	parts := strings.Split(s, "%")
	for i, part := range parts {
		parts[i] = regexp.QuoteMeta(part)
	}
	return regexp.MustCompile("^" + strings.Join(parts, ".*") + "$")
}
