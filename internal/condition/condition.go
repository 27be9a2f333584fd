// Package condition implements the small comparison language used in
// step preconditions and transition conditions, plus the template
// placeholder substitution applied to step parameters.
//
// The grammar is deliberately tiny: one `<left> <op> <right>` comparison
// per expression, no boolean connectives, no general scripting. Operands
// resolve to quoted literals, numeric literals, a handful of keywords,
// or dot-notation paths into the execution data.
package condition

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mlind/stepflow/pkg/api"
)

// operand kinds, in resolution order.
const (
	kindString = iota // quoted literal or string data value
	kindNumber        // numeric literal or numeric data value
	kindBool
	kindNull  // the null keyword or a nil data value
	kindEmpty // the empty keyword: matches null, "" and zero-length containers
)

type operand struct {
	kind int
	str  string
	num  float64
	b    bool
	raw  any // original data value for emptiness checks
}

type token struct {
	text   string
	quoted bool
}

// Evaluate resolves a condition expression against the data map. It
// never panics; malformed expressions return an *api.EvaluationError.
//
// Expressions without an operator are treated as a boolean literal
// (true/1/yes, false/0/no) or, failing that, as a dot-path lookup
// coerced to boolean.
func Evaluate(expr string, data map[string]any) (bool, error) {
	trimmed := strings.TrimSpace(expr)
	if trimmed == "" {
		return false, evalErr(expr, "expression is empty")
	}

	tokens, err := tokenize(expr, trimmed)
	if err != nil {
		return false, err
	}

	opIdx, op := findOperator(tokens)
	if opIdx < 0 {
		return evaluateBare(expr, tokens, data)
	}

	rightStart := opIdx + 1
	if op == "is not" {
		rightStart = opIdx + 2
	}
	if opIdx == 0 {
		return false, evalErr(expr, "missing left operand")
	}
	if rightStart >= len(tokens) {
		return false, evalErr(expr, "missing right operand")
	}
	if opIdx > 1 || len(tokens) > rightStart+1 {
		return false, evalErr(expr, "operands must be single values")
	}

	left := resolve(tokens[opIdx-1], data)
	right := resolve(tokens[rightStart], data)

	switch op {
	case "=":
		return looseEqual(left, right), nil
	case "!=":
		return !looseEqual(left, right), nil
	case "is":
		return strictEqual(left, right), nil
	case "is not":
		return !strictEqual(left, right), nil
	case ">", "<", ">=", "<=":
		return compareOrdered(expr, op, left, right)
	default:
		return false, evalErr(expr, "unsupported operator "+op)
	}
}

// EvaluateAll reports whether every expression holds. An empty slice is
// vacuously true; the first malformed expression aborts with its error.
func EvaluateAll(exprs []string, data map[string]any) (bool, error) {
	for _, expr := range exprs {
		ok, err := Evaluate(expr, data)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

// tokenize splits on whitespace, keeping quoted runs (single or double)
// together as one token.
func tokenize(expr, trimmed string) ([]token, error) {
	var tokens []token
	var cur strings.Builder
	var quote byte
	quoted := false

	flush := func() {
		if cur.Len() > 0 || quoted {
			tokens = append(tokens, token{text: cur.String(), quoted: quoted})
			cur.Reset()
			quoted = false
		}
	}

	for i := 0; i < len(trimmed); i++ {
		c := trimmed[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			} else {
				cur.WriteByte(c)
			}
		case c == '"' || c == '\'':
			if cur.Len() > 0 {
				return nil, evalErr(expr, "quote in the middle of a token")
			}
			quote = c
			quoted = true
		case c == ' ' || c == '\t':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	if quote != 0 {
		return nil, evalErr(expr, "unterminated quote")
	}
	flush()
	return tokens, nil
}

// findOperator locates the first unquoted operator token. "is" followed
// by "not" is the single operator "is not".
func findOperator(tokens []token) (int, string) {
	for i, t := range tokens {
		if t.quoted {
			continue
		}
		switch t.text {
		case "=", "!=", ">", "<", ">=", "<=":
			return i, t.text
		case "is":
			if i+1 < len(tokens) && !tokens[i+1].quoted && tokens[i+1].text == "not" {
				return i, "is not"
			}
			return i, "is"
		}
	}
	return -1, ""
}

// evaluateBare handles operator-free expressions.
func evaluateBare(expr string, tokens []token, data map[string]any) (bool, error) {
	if len(tokens) != 1 {
		return false, evalErr(expr, "no operator found")
	}
	t := tokens[0]
	if !t.quoted {
		switch strings.ToLower(t.text) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
	}
	v, ok := Lookup(data, t.text)
	if !ok {
		return false, nil
	}
	return truthy(v), nil
}

// resolve turns a token into a typed operand: quoted literal, numeric
// literal, keyword, then dot-path lookup. A bareword whose path lookup
// misses falls back to a string literal, so `tier = premium` compares
// against the word "premium" rather than null.
func resolve(t token, data map[string]any) operand {
	if t.quoted {
		return operand{kind: kindString, str: t.text, raw: t.text}
	}
	if n, err := strconv.ParseFloat(t.text, 64); err == nil {
		return operand{kind: kindNumber, num: n, raw: n}
	}
	switch strings.ToLower(t.text) {
	case "true", "yes":
		return operand{kind: kindBool, b: true, raw: true}
	case "false", "no":
		return operand{kind: kindBool, b: false, raw: false}
	case "null":
		return operand{kind: kindNull}
	case "empty":
		return operand{kind: kindEmpty}
	}
	v, ok := Lookup(data, t.text)
	if !ok {
		return operand{kind: kindString, str: t.text, raw: t.text}
	}
	return fromValue(v)
}

// fromValue classifies a data value reached through a path.
func fromValue(v any) operand {
	switch tv := v.(type) {
	case nil:
		return operand{kind: kindNull}
	case string:
		return operand{kind: kindString, str: tv, raw: tv}
	case bool:
		return operand{kind: kindBool, b: tv, raw: tv}
	case int:
		return operand{kind: kindNumber, num: float64(tv), raw: tv}
	case int32:
		return operand{kind: kindNumber, num: float64(tv), raw: tv}
	case int64:
		return operand{kind: kindNumber, num: float64(tv), raw: tv}
	case float32:
		return operand{kind: kindNumber, num: float64(tv), raw: tv}
	case float64:
		return operand{kind: kindNumber, num: tv, raw: tv}
	default:
		return operand{kind: kindString, str: fmt.Sprint(tv), raw: tv}
	}
}

// looseEqual is the `=` / `!=` comparison: numeric strings compare as
// numbers, booleans accept their textual forms, otherwise string-wise.
func looseEqual(a, b operand) bool {
	if a.kind == kindEmpty || b.kind == kindEmpty {
		other := a
		if a.kind == kindEmpty {
			other = b
		}
		return isEmpty(other)
	}
	if a.kind == kindNull || b.kind == kindNull {
		return a.kind == kindNull && b.kind == kindNull
	}

	an, aNum := asNumber(a)
	bn, bNum := asNumber(b)
	if aNum && bNum {
		return an == bn
	}

	if a.kind == kindBool || b.kind == kindBool {
		ab, aOK := asBool(a)
		bb, bOK := asBool(b)
		return aOK && bOK && ab == bb
	}

	return stringify(a) == stringify(b)
}

// strictEqual is the `is` / `is not` comparison: kind and value must
// both match, no coercion.
func strictEqual(a, b operand) bool {
	if a.kind == kindEmpty || b.kind == kindEmpty {
		other := a
		if a.kind == kindEmpty {
			other = b
		}
		return isEmpty(other)
	}
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case kindNull:
		return true
	case kindNumber:
		return a.num == b.num
	case kindBool:
		return a.b == b.b
	default:
		return a.str == b.str
	}
}

func compareOrdered(expr, op string, a, b operand) (bool, error) {
	an, aNum := asNumber(a)
	bn, bNum := asNumber(b)

	var cmp int
	switch {
	case aNum && bNum:
		switch {
		case an < bn:
			cmp = -1
		case an > bn:
			cmp = 1
		}
	case a.kind == kindString && b.kind == kindString:
		cmp = strings.Compare(a.str, b.str)
	default:
		return false, evalErr(expr, "operands are not ordering-comparable")
	}

	switch op {
	case ">":
		return cmp > 0, nil
	case "<":
		return cmp < 0, nil
	case ">=":
		return cmp >= 0, nil
	default:
		return cmp <= 0, nil
	}
}

// asNumber coerces numbers and numeric strings.
func asNumber(o operand) (float64, bool) {
	switch o.kind {
	case kindNumber:
		return o.num, true
	case kindString:
		n, err := strconv.ParseFloat(strings.TrimSpace(o.str), 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// asBool coerces booleans and their loose textual forms.
func asBool(o operand) (bool, bool) {
	switch o.kind {
	case kindBool:
		return o.b, true
	case kindString:
		switch strings.ToLower(o.str) {
		case "true", "1", "yes":
			return true, true
		case "false", "0", "no":
			return false, true
		}
	case kindNumber:
		return o.num != 0, true
	}
	return false, false
}

func stringify(o operand) string {
	switch o.kind {
	case kindNumber:
		return strconv.FormatFloat(o.num, 'f', -1, 64)
	case kindBool:
		return strconv.FormatBool(o.b)
	default:
		return o.str
	}
}

func isEmpty(o operand) bool {
	switch rv := o.raw.(type) {
	case map[string]any:
		return len(rv) == 0
	case []any:
		return len(rv) == 0
	}
	switch o.kind {
	case kindNull, kindEmpty:
		return true
	case kindString:
		return o.str == ""
	}
	return false
}

func truthy(v any) bool {
	switch tv := v.(type) {
	case nil:
		return false
	case bool:
		return tv
	case string:
		b, ok := asBool(operand{kind: kindString, str: tv})
		if ok {
			return b
		}
		return tv != ""
	case int, int32, int64, float32, float64:
		n, _ := asNumber(fromValue(tv))
		return n != 0
	case map[string]any:
		return len(tv) > 0
	case []any:
		return len(tv) > 0
	default:
		return true
	}
}

// Lookup resolves a dot-notation path against nested data. Map segments
// descend map[string]any; numeric segments index []any values.
func Lookup(data map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	var cur any = data
	for _, seg := range strings.Split(path, ".") {
		if seg == "" {
			return nil, false
		}
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[seg]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

func evalErr(expr, reason string) error {
	return &api.EvaluationError{Expression: expr, Reason: reason}
}
