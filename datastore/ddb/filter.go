/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	apperrors "github.com/suparena/cloudadapter/errors"
	"github.com/suparena/cloudadapter/storagemodels"
)

// Filter is a translated ScanFilter.
type Filter struct {
	// Conditions are ANDed together.
	Conditions map[string]types.Condition
	// Split holds alternatives produced by OR-combined server filters.
	// Each alternative already contains Conditions; an item matches when any alternative matches.
	Split []map[string]types.Condition
}

// Alternatives returns the condition sets to scan with, one scan per entry.
func (f *Filter) Alternatives() []map[string]types.Condition {
	if f == nil {
		return []map[string]types.Condition{nil}
	}
	if len(f.Split) > 0 {
		return f.Split
	}
	return []map[string]types.Condition{f.Conditions}
}

// operatorToken is one entry of the operator scan order.
type operatorToken struct {
	token string
	op    types.ComparisonOperator
}

// LIKE is not a provider operator; it is resolved into CONTAINS, BEGINS_WITH or EQ.
const opLike types.ComparisonOperator = "LIKE"

// operatorPriority is scanned in order so a compound token is never split by a
// shorter operator it contains.
var operatorPriority = []operatorToken{
	{"!=", types.ComparisonOperatorNe},
	{">=", types.ComparisonOperatorGe},
	{"<=", types.ComparisonOperatorLe},
	{"=", types.ComparisonOperatorEq},
	{">", types.ComparisonOperatorGt},
	{"<", types.ComparisonOperatorLt},
	{" IN ", types.ComparisonOperatorIn},
	{" BETWEEN ", types.ComparisonOperatorBetween},
	{" BEGINS_WITH ", types.ComparisonOperatorBeginsWith},
	{" CONTAINS ", types.ComparisonOperatorContains},
	{" NOT_CONTAINS ", types.ComparisonOperatorNotContains},
	{" LIKE ", opLike},
}

// wordOperators are replaced by their symbolic token before scanning.
var wordOperators = []struct {
	words []string
	token string
}{
	{[]string{"is not"}, "!="},
	{[]string{"is"}, "="},
	{[]string{"eq"}, "="},
	{[]string{"ne", "neq"}, "!="},
	{[]string{"gte", "ge"}, ">="},
	{[]string{"lte", "le"}, "<="},
	{[]string{"gt"}, ">"},
	{[]string{"lt"}, "<"},
	{[]string{"in"}, "IN"},
	{[]string{"between"}, "BETWEEN"},
	{[]string{"begins_with", "starts_with"}, "BEGINS_WITH"},
	{[]string{"not_contains"}, "NOT_CONTAINS"},
	{[]string{"contains"}, "CONTAINS"},
	{[]string{"like"}, "LIKE"},
	{[]string{"ends_with"}, "ENDS_WITH"},
}

// TranslateFilter converts a filter into a DynamoDB ScanFilter.
// A map[string]types.Condition is passed through unchanged; a string is parsed
// as the comparison DSL. Only AND joins are supported for string filters.
func TranslateFilter(filter any, params map[string]any, server *storagemodels.ServerFilters) (*Filter, error) {
	conds := map[string]types.Condition{}

	switch f := filter.(type) {
	case nil:
	case map[string]types.Condition:
		for k, v := range f {
			conds[k] = v
		}
	case string:
		parsed, err := parseFilterString(f, params)
		if err != nil {
			return nil, err
		}
		conds = parsed
	default:
		return nil, apperrors.NewBadRequestError("filter of type %T is not supported", filter)
	}

	out := &Filter{Conditions: conds}
	if server.Empty() {
		return out, nil
	}

	if server.Or() {
		for _, clause := range server.Clauses {
			alt := make(map[string]types.Condition, len(conds)+1)
			for k, v := range conds {
				alt[k] = v
			}
			cond, err := clauseCondition(clause)
			if err != nil {
				return nil, err
			}
			if err := mergeCondition(alt, clause.Name, cond); err != nil {
				return nil, err
			}
			out.Split = append(out.Split, alt)
		}
		return out, nil
	}

	for _, clause := range server.Clauses {
		cond, err := clauseCondition(clause)
		if err != nil {
			return nil, err
		}
		if err := mergeCondition(conds, clause.Name, cond); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func parseFilterString(filter string, params map[string]any) (map[string]types.Condition, error) {
	conds := map[string]types.Condition{}
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return conds, nil
	}

	conjuncts, err := splitConjuncts(filter)
	if err != nil {
		return nil, err
	}

	for _, c := range conjuncts {
		if inner, ok := stripParens(c); ok {
			nested, err := parseFilterString(inner, params)
			if err != nil {
				return nil, err
			}
			for name, cond := range nested {
				if err := mergeCondition(conds, name, cond); err != nil {
					return nil, err
				}
			}
			continue
		}

		name, cond, err := parseCondition(c, params)
		if err != nil {
			return nil, err
		}
		if err := mergeCondition(conds, name, cond); err != nil {
			return nil, err
		}
	}
	return conds, nil
}

// splitConjuncts splits s on top-level AND joins. The AND of "x BETWEEN a AND b"
// stays inside its conjunct. OR and NOR joins are rejected.
func splitConjuncts(s string) ([]string, error) {
	var parts []string
	start := 0
	depth := 0
	var quote byte
	pendingBetween := false

	for i := 0; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			if ch == '\\' {
				i++
			} else if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"', '`':
			quote = ch
			continue
		case '(':
			depth++
			continue
		case ')':
			depth--
			if depth < 0 {
				return nil, apperrors.NewBadRequestError("unbalanced parentheses in filter %q", s)
			}
			continue
		}
		if depth > 0 {
			continue
		}

		switch {
		case strings.HasPrefix(s[i:], "||"), wordAt(s, i, "or"), wordAt(s, i, "nor"):
			return nil, apperrors.NewBadRequestError("OR and NOR joins are not supported by this provider's filter: %q", s)
		case strings.HasPrefix(s[i:], "&&"):
			parts = append(parts, s[start:i])
			start = i + 2
			i++
		case wordAt(s, i, "between"):
			pendingBetween = true
			i += len("between") - 1
		case wordAt(s, i, "and"):
			if pendingBetween {
				pendingBetween = false
				i += len("and") - 1
				continue
			}
			parts = append(parts, s[start:i])
			start = i + len("and")
			i = start - 1
		}
	}
	if quote != 0 {
		return nil, apperrors.NewBadRequestError("unterminated quote in filter %q", s)
	}
	if depth != 0 {
		return nil, apperrors.NewBadRequestError("unbalanced parentheses in filter %q", s)
	}
	parts = append(parts, s[start:])

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, apperrors.NewBadRequestError("empty condition in filter %q", s)
		}
		out = append(out, p)
	}
	return out, nil
}

// parseCondition translates one "name op value" comparison.
func parseCondition(c string, params map[string]any) (string, types.Condition, error) {
	if wordAt(c, 0, "not") || strings.HasPrefix(c, "!") {
		return "", types.Condition{}, apperrors.NewBadRequestError("NOT is not supported by this provider's filter: %q", c)
	}

	normalized := normalizeOperators(c)
	if indexOutsideQuotes(normalized, " ENDS_WITH ") >= 0 {
		return "", types.Condition{}, apperrors.NewBadRequestError("ends-with matching is not supported by this provider's filter: %q", c)
	}
	if wordAt(normalized, operatorPosition(normalized), "not") {
		return "", types.Condition{}, apperrors.NewBadRequestError("NOT is not supported by this provider's filter: %q", c)
	}

	for _, ot := range operatorPriority {
		idx := indexOutsideQuotes(normalized, ot.token)
		if idx < 0 {
			continue
		}
		name := unquoteName(strings.TrimSpace(normalized[:idx]))
		value := strings.TrimSpace(normalized[idx+len(ot.token):])
		if name == "" {
			return "", types.Condition{}, apperrors.NewBadRequestError("missing field name in filter condition %q", c)
		}
		if value == "" {
			return "", types.Condition{}, apperrors.NewBadRequestError("missing value in filter condition %q", c)
		}

		cond, err := buildCondition(ot.op, value, params)
		if err != nil {
			return "", types.Condition{}, err
		}
		return name, cond, nil
	}
	return "", types.Condition{}, apperrors.NewBadRequestError("no supported operator found in filter condition %q", c)
}

func buildCondition(op types.ComparisonOperator, value string, params map[string]any) (types.Condition, error) {
	switch op {
	case types.ComparisonOperatorEq, types.ComparisonOperatorNe:
		if strings.EqualFold(value, "null") {
			if op == types.ComparisonOperatorEq {
				return types.Condition{ComparisonOperator: types.ComparisonOperatorNull}, nil
			}
			return types.Condition{ComparisonOperator: types.ComparisonOperatorNotNull}, nil
		}
	case types.ComparisonOperatorIn:
		values, err := listValues(value, params)
		if err != nil {
			return types.Condition{}, err
		}
		return types.Condition{ComparisonOperator: op, AttributeValueList: values}, nil
	case types.ComparisonOperatorBetween:
		bounds, err := betweenValues(value, params)
		if err != nil {
			return types.Condition{}, err
		}
		return types.Condition{ComparisonOperator: op, AttributeValueList: bounds}, nil
	case opLike:
		av, err := literalValue(value, params)
		if err != nil {
			return types.Condition{}, err
		}
		s, ok := av.(*types.AttributeValueMemberS)
		if !ok {
			return types.Condition{}, apperrors.NewBadRequestError("LIKE requires a string pattern, got %q", value)
		}
		return likeCondition(s.Value)
	}

	av, err := literalValue(value, params)
	if err != nil {
		return types.Condition{}, err
	}
	return types.Condition{ComparisonOperator: op, AttributeValueList: []types.AttributeValue{av}}, nil
}

// likeCondition maps %-wildcards onto the provider's string operators.
func likeCondition(pattern string) (types.Condition, error) {
	leading := strings.HasPrefix(pattern, "%")
	trailing := len(pattern) > 1 && strings.HasSuffix(pattern, "%")
	inner := strings.TrimSuffix(strings.TrimPrefix(pattern, "%"), "%")

	switch {
	case leading && trailing:
		return types.Condition{
			ComparisonOperator: types.ComparisonOperatorContains,
			AttributeValueList: []types.AttributeValue{&types.AttributeValueMemberS{Value: inner}},
		}, nil
	case trailing:
		return types.Condition{
			ComparisonOperator: types.ComparisonOperatorBeginsWith,
			AttributeValueList: []types.AttributeValue{&types.AttributeValueMemberS{Value: inner}},
		}, nil
	case leading:
		return types.Condition{}, apperrors.NewBadRequestError("ends-with matching is not supported by this provider's filter: %q", pattern)
	default:
		return types.Condition{
			ComparisonOperator: types.ComparisonOperatorEq,
			AttributeValueList: []types.AttributeValue{&types.AttributeValueMemberS{Value: pattern}},
		}, nil
	}
}

func listValues(value string, params map[string]any) ([]types.AttributeValue, error) {
	if strings.HasPrefix(value, ":") {
		v, err := lookupParam(value, params)
		if err != nil {
			return nil, err
		}
		return paramList(v)
	}

	inner, ok := stripParens(value)
	if !ok {
		return nil, apperrors.NewBadRequestError("IN requires a parenthesized list, got %q", value)
	}
	items := splitOutsideQuotes(inner, ',')
	out := make([]types.AttributeValue, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		av, err := literalValue(item, params)
		if err != nil {
			return nil, err
		}
		out = append(out, av)
	}
	if len(out) == 0 {
		return nil, apperrors.NewBadRequestError("IN requires at least one value")
	}
	return out, nil
}

func betweenValues(value string, params map[string]any) ([]types.AttributeValue, error) {
	idx := wordIndexOutsideQuotes(value, "and")
	if idx < 0 {
		return nil, apperrors.NewBadRequestError("BETWEEN requires two values joined by AND, got %q", value)
	}
	lo, err := literalValue(strings.TrimSpace(value[:idx]), params)
	if err != nil {
		return nil, err
	}
	hi, err := literalValue(strings.TrimSpace(value[idx+len("and"):]), params)
	if err != nil {
		return nil, err
	}
	return []types.AttributeValue{lo, hi}, nil
}

// literalValue types a right-hand value: quoted ⇒ S, numeric ⇒ N, true/false ⇒ N 1/0,
// :name ⇒ the bound parameter, anything else ⇒ S.
func literalValue(raw string, params map[string]any) (types.AttributeValue, error) {
	if strings.HasPrefix(raw, ":") {
		v, err := lookupParam(raw, params)
		if err != nil {
			return nil, err
		}
		return paramValue(v)
	}
	if s, ok := unquote(raw); ok {
		return &types.AttributeValueMemberS{Value: s}, nil
	}
	switch strings.ToLower(raw) {
	case "true":
		return &types.AttributeValueMemberN{Value: "1"}, nil
	case "false":
		return &types.AttributeValueMemberN{Value: "0"}, nil
	}
	if _, err := strconv.ParseFloat(raw, 64); err == nil {
		return &types.AttributeValueMemberN{Value: raw}, nil
	}
	return &types.AttributeValueMemberS{Value: raw}, nil
}

func lookupParam(name string, params map[string]any) (any, error) {
	if v, ok := params[name]; ok {
		return v, nil
	}
	if v, ok := params[strings.TrimPrefix(name, ":")]; ok {
		return v, nil
	}
	return nil, apperrors.NewBadRequestError("filter parameter %s is not bound", name)
}

// paramValue types a Go value bound to a placeholder or given in a server clause.
func paramValue(v any) (types.AttributeValue, error) {
	switch tv := v.(type) {
	case string:
		return &types.AttributeValueMemberS{Value: tv}, nil
	case bool:
		if tv {
			return &types.AttributeValueMemberN{Value: "1"}, nil
		}
		return &types.AttributeValueMemberN{Value: "0"}, nil
	case []byte:
		return &types.AttributeValueMemberB{Value: tv}, nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return &types.AttributeValueMemberN{Value: fmt.Sprint(tv)}, nil
	case float32:
		return &types.AttributeValueMemberN{Value: strconv.FormatFloat(float64(tv), 'f', -1, 32)}, nil
	case float64:
		return &types.AttributeValueMemberN{Value: strconv.FormatFloat(tv, 'f', -1, 64)}, nil
	case nil:
		return nil, apperrors.NewBadRequestError("null parameter values must be written as '= null'")
	default:
		return nil, apperrors.NewBadRequestError("filter parameter of type %T is not supported", v)
	}
}

func paramList(v any) ([]types.AttributeValue, error) {
	var items []any
	switch tv := v.(type) {
	case []any:
		items = tv
	case []string:
		for _, s := range tv {
			items = append(items, s)
		}
	case []int:
		for _, n := range tv {
			items = append(items, n)
		}
	case []float64:
		for _, n := range tv {
			items = append(items, n)
		}
	default:
		items = []any{v}
	}

	out := make([]types.AttributeValue, 0, len(items))
	for _, item := range items {
		av, err := paramValue(item)
		if err != nil {
			return nil, err
		}
		out = append(out, av)
	}
	if len(out) == 0 {
		return nil, apperrors.NewBadRequestError("IN requires at least one value")
	}
	return out, nil
}

// clauseCondition converts a server filter clause.
func clauseCondition(clause storagemodels.FilterClause) (types.Condition, error) {
	if clause.Name == "" {
		return types.Condition{}, apperrors.NewBadRequestError("server filter clause without a field name")
	}
	token := normalizeOperators(" " + strings.TrimSpace(clause.Operator) + " ")

	var op types.ComparisonOperator
	for _, ot := range operatorPriority {
		if strings.TrimSpace(token) == strings.TrimSpace(ot.token) {
			op = ot.op
			break
		}
	}
	if op == "" {
		return types.Condition{}, apperrors.NewBadRequestError("server filter operator %q is not supported", clause.Operator)
	}

	switch op {
	case types.ComparisonOperatorEq, types.ComparisonOperatorNe:
		if clause.Value == nil {
			if op == types.ComparisonOperatorEq {
				return types.Condition{ComparisonOperator: types.ComparisonOperatorNull}, nil
			}
			return types.Condition{ComparisonOperator: types.ComparisonOperatorNotNull}, nil
		}
	case types.ComparisonOperatorIn, types.ComparisonOperatorBetween:
		values, err := paramList(clause.Value)
		if err != nil {
			return types.Condition{}, err
		}
		if op == types.ComparisonOperatorBetween && len(values) != 2 {
			return types.Condition{}, apperrors.NewBadRequestError("BETWEEN requires exactly two values")
		}
		return types.Condition{ComparisonOperator: op, AttributeValueList: values}, nil
	case opLike:
		s, ok := clause.Value.(string)
		if !ok {
			return types.Condition{}, apperrors.NewBadRequestError("LIKE requires a string pattern")
		}
		return likeCondition(s)
	}

	av, err := paramValue(clause.Value)
	if err != nil {
		return types.Condition{}, err
	}
	return types.Condition{ComparisonOperator: op, AttributeValueList: []types.AttributeValue{av}}, nil
}

// mergeCondition adds cond for name. A ScanFilter holds one condition per attribute.
func mergeCondition(dst map[string]types.Condition, name string, cond types.Condition) error {
	if _, exists := dst[name]; exists {
		return apperrors.NewBadRequestError("field %q is constrained more than once; this provider's filter allows one condition per field", name)
	}
	dst[name] = cond
	return nil
}

// normalizeOperators replaces a verbose comparison word in operator position
// with its symbolic or upper-case token, padded with spaces. Words in value
// position are left alone.
func normalizeOperators(s string) string {
	i := operatorPosition(s)
	if strings.HasPrefix(s[i:], "<>") {
		return s[:i] + " != " + s[i+2:]
	}
	for _, wo := range wordOperators {
		for _, w := range wo.words {
			if wordAt(s, i, w) {
				return s[:i] + " " + wo.token + " " + s[i+len(w):]
			}
		}
	}
	return s
}

// operatorPosition returns the index just past the field name of condition s
// and the blanks that follow it.
func operatorPosition(s string) int {
	i := 0
	for i < len(s) && isBoundary(s[i]) {
		i++
	}
	if i < len(s) && (s[i] == '\'' || s[i] == '"' || s[i] == '`') {
		quote := s[i]
		i++
		for i < len(s) && s[i] != quote {
			i++
		}
		if i < len(s) {
			i++
		}
	} else {
		for i < len(s) && !isBoundary(s[i]) && !strings.ContainsRune("!=<>", rune(s[i])) {
			i++
		}
	}
	for i < len(s) && isBoundary(s[i]) {
		i++
	}
	return i
}

// indexOutsideQuotes returns the first index of token that is not quoted, or -1.
func indexOutsideQuotes(s, token string) int {
	var quote byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			if ch == quote {
				quote = 0
			}
			continue
		}
		if strings.HasPrefix(s[i:], token) {
			return i
		}
		if ch == '\'' || ch == '"' || ch == '`' {
			quote = ch
		}
	}
	return -1
}

// wordIndexOutsideQuotes returns the index of the first standalone, unquoted word, or -1.
func wordIndexOutsideQuotes(s, word string) int {
	var quote byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			if ch == quote {
				quote = 0
			}
			continue
		}
		if ch == '\'' || ch == '"' || ch == '`' {
			quote = ch
			continue
		}
		if wordAt(s, i, word) {
			return i
		}
	}
	return -1
}

func splitOutsideQuotes(s string, sep byte) []string {
	var parts []string
	var quote byte
	start := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if quote != 0 {
			if ch == quote {
				quote = 0
			}
			continue
		}
		switch ch {
		case '\'', '"':
			quote = ch
		case sep:
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	return append(parts, s[start:])
}

// wordAt reports whether word starts at s[i] as a standalone, case-insensitive word.
func wordAt(s string, i int, word string) bool {
	end := i + len(word)
	if end > len(s) || !strings.EqualFold(s[i:end], word) {
		return false
	}
	if i > 0 && !isBoundary(s[i-1]) {
		return false
	}
	return end == len(s) || isBoundary(s[end])
}

func isBoundary(ch byte) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' || ch == '(' || ch == ')'
}

// stripParens removes one pair of parentheses wrapping the whole of s.
func stripParens(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return "", false
	}
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
		case '\'', '"':
			quote = ch
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 && i != len(s)-1 {
				return "", false
			}
		}
	}
	return s[1 : len(s)-1], true
}

func unquote(s string) (string, bool) {
	if len(s) < 2 {
		return "", false
	}
	q := s[0]
	if (q != '\'' && q != '"') || s[len(s)-1] != q {
		return "", false
	}
	inner := s[1 : len(s)-1]
	return strings.ReplaceAll(inner, string([]byte{q, q}), string(q)), true
}

func unquoteName(s string) string {
	if len(s) >= 2 && s[0] == '`' && s[len(s)-1] == '`' {
		return s[1 : len(s)-1]
	}
	if u, ok := unquote(s); ok {
		return u
	}
	return s
}
