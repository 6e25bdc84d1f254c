/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sdb

import (
	"fmt"
	"strings"

	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/storagemodels"
)

// wordOperators are rewritten into SimpleDB select syntax.
var wordOperators = map[string]string{
	"eq":  "=",
	"ne":  "!=",
	"neq": "!=",
	"gte": ">=",
	"ge":  ">=",
	"lte": "<=",
	"le":  "<=",
	"gt":  ">",
	"lt":  "<",
}

// TranslateFilter converts a filter into the predicate of a select statement.
// Only string filters are accepted. Bound :params are inlined as quoted,
// encoded literals since select has no bind parameters.
func TranslateFilter(filter any, params map[string]any, server *storagemodels.ServerFilters) (string, error) {
	var user string
	switch f := filter.(type) {
	case nil:
	case string:
		var err error
		if user, err = normalize(f, params); err != nil {
			return "", err
		}
	default:
		return "", apperrors.NewBadRequestError("filter of type %T is not supported by this provider", filter)
	}

	if server.Empty() {
		return user, nil
	}
	clauses := make([]string, 0, len(server.Clauses))
	for _, c := range server.Clauses {
		clause, err := clausePredicate(c)
		if err != nil {
			return "", err
		}
		clauses = append(clauses, clause)
	}
	join := " and "
	if server.Or() {
		join = " or "
	}
	serverPred := "(" + strings.Join(clauses, join) + ")"
	if user == "" {
		return serverPred, nil
	}
	return "(" + user + ") and " + serverPred, nil
}

func normalize(filter string, params map[string]any) (string, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return "", nil
	}
	if err := checkBalanced(filter); err != nil {
		return "", err
	}

	s := rewriteOutsideQuotes(filter, func(s string, i int) (string, int, bool) {
		switch {
		case strings.HasPrefix(s[i:], "||"):
			return " or ", 2, true
		case strings.HasPrefix(s[i:], "&&"):
			return " and ", 2, true
		case strings.HasPrefix(s[i:], "<>"):
			return "!=", 2, true
		}
		if w := wordAt(s, i); w != "" {
			if repl, ok := wordOperators[strings.ToLower(w)]; ok {
				return repl, len(w), true
			}
		}
		return "", 0, false
	})

	var paramErr error
	s = rewriteOutsideQuotes(s, func(s string, i int) (string, int, bool) {
		for _, op := range []string{"!=", "="} {
			if !strings.HasPrefix(s[i:], op) {
				continue
			}
			if i > 0 && strings.ContainsRune("<>!", rune(s[i-1])) {
				return "", 0, false
			}
			j := i + len(op)
			for j < len(s) && s[j] == ' ' {
				j++
			}
			if w := wordAt(s, j); strings.EqualFold(w, "null") {
				if op == "!=" {
					return "is not null", j + len(w) - i, true
				}
				return "is null", j + len(w) - i, true
			}
			return "", 0, false
		}

		if s[i] == ':' && (i == 0 || isBoundary(s[i-1])) {
			j := i + 1
			for j < len(s) && isIdentChar(s[j]) {
				j++
			}
			if j == i+1 {
				return "", 0, false
			}
			v, ok := params[s[i:j]]
			if !ok {
				v, ok = params[s[i+1:j]]
			}
			if !ok {
				paramErr = apperrors.NewBadRequestError("filter parameter %s is not bound", s[i:j])
				return "", 0, false
			}
			lit, err := literal(v)
			if err != nil {
				paramErr = err
				return "", 0, false
			}
			return lit, j - i, true
		}
		return "", 0, false
	})
	if paramErr != nil {
		return "", paramErr
	}
	// collapse runs of spaces left by the rewrites
	s = rewriteOutsideQuotes(s, func(s string, i int) (string, int, bool) {
		if s[i] == ' ' && i+1 < len(s) && s[i+1] == ' ' {
			return "", 1, true
		}
		return "", 0, false
	})
	return strings.TrimSpace(s), nil
}

// clausePredicate renders one server filter clause.
func clausePredicate(c storagemodels.FilterClause) (string, error) {
	if c.Name == "" {
		return "", apperrors.NewBadRequestError("server filter clause without a field name")
	}
	name := quoteName(c.Name)
	op := strings.TrimSpace(c.Operator)
	if repl, ok := wordOperators[strings.ToLower(op)]; ok {
		op = repl
	}

	switch strings.ToLower(op) {
	case "=", "!=", ">", "<", ">=", "<=":
		if c.Value == nil {
			if op == "=" {
				return name + " is null", nil
			}
			if op == "!=" {
				return name + " is not null", nil
			}
			return "", apperrors.NewBadRequestError("server filter %q %s needs a value", c.Name, op)
		}
		lit, err := literal(c.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", name, op, lit), nil
	case "like", "not like":
		lit, err := literal(c.Value)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%s %s %s", name, strings.ToLower(op), lit), nil
	case "in", "between":
		values, ok := c.Value.([]any)
		if !ok || len(values) == 0 {
			return "", apperrors.NewBadRequestError("server filter %q %s needs a list value", c.Name, op)
		}
		lits := make([]string, 0, len(values))
		for _, v := range values {
			lit, err := literal(v)
			if err != nil {
				return "", err
			}
			lits = append(lits, lit)
		}
		if strings.EqualFold(op, "between") {
			if len(lits) != 2 {
				return "", apperrors.NewBadRequestError("BETWEEN requires exactly two values")
			}
			return fmt.Sprintf("%s between %s and %s", name, lits[0], lits[1]), nil
		}
		return fmt.Sprintf("%s in (%s)", name, strings.Join(lits, ", ")), nil
	}
	return "", apperrors.NewBadRequestError("server filter operator %q is not supported", c.Operator)
}

// literal encodes v and quotes it for a select expression.
func literal(v any) (string, error) {
	s, err := EncodeValue(v)
	if err != nil {
		return "", err
	}
	return quoteValue(s), nil
}

func quoteValue(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteName(s string) string {
	if s == "itemName()" {
		return s
	}
	return "`" + strings.ReplaceAll(s, "`", "``") + "`"
}

// rewriteOutsideQuotes copies s, letting fn replace text that starts outside
// quoted literals and names. fn returns the replacement and how many bytes it consumed.
func rewriteOutsideQuotes(s string, fn func(s string, i int) (string, int, bool)) string {
	var b strings.Builder
	var quote byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			b.WriteByte(ch)
			if ch == quote {
				quote = 0
			}
			continue
		}
		if ch == '\'' || ch == '"' || ch == '`' {
			quote = ch
			b.WriteByte(ch)
			continue
		}
		if repl, n, ok := fn(s, i); ok {
			b.WriteString(repl)
			i += n - 1
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}

func checkBalanced(s string) error {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"', '`':
			quote = ch
		case '(':
			depth++
		case ')':
			if depth--; depth < 0 {
				return apperrors.NewBadRequestError("unbalanced parentheses in filter %q", s)
			}
		}
	}
	if quote != 0 {
		return apperrors.NewBadRequestError("unterminated quote in filter %q", s)
	}
	if depth != 0 {
		return apperrors.NewBadRequestError("unbalanced parentheses in filter %q", s)
	}
	return nil
}

// wordAt returns the identifier starting at s[i], or "" when s[i] does not start one.
func wordAt(s string, i int) string {
	if i >= len(s) || !isIdentChar(s[i]) || (i > 0 && isIdentChar(s[i-1])) {
		return ""
	}
	j := i
	for j < len(s) && isIdentChar(s[j]) {
		j++
	}
	return s[i:j]
}

func isIdentChar(ch byte) bool {
	return ch == '_' || ch >= 'a' && ch <= 'z' || ch >= 'A' && ch <= 'Z' || ch >= '0' && ch <= '9'
}

func isBoundary(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '(' || ch == ',' || ch == '=' || ch == '<' || ch == '>'
}
