package memengine

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// selectStatement is a parsed WQL data query. A nil property list means
// SELECT *.
type selectStatement struct {
	properties []string
	class      string
	where      *vm.Program
}

// parseSelect parses the WQL subset the engine speaks:
//
//	SELECT <* | prop[, prop...]> FROM <Class> [WHERE <expression>]
//
// The WHERE expression is compiled once; it is evaluated against each
// instance with the instance's properties as the environment.
func parseSelect(query string) (*selectStatement, error) {
	tok, rest := nextToken(query)
	if !strings.EqualFold(tok, "select") {
		return nil, fmt.Errorf("expected SELECT, got %q", tok)
	}

	var propTokens []string
	for {
		tok, rest = nextToken(rest)
		if tok == "" {
			return nil, fmt.Errorf("missing FROM clause")
		}
		if strings.EqualFold(tok, "from") {
			break
		}
		propTokens = append(propTokens, tok)
	}
	properties, err := splitProperties(strings.Join(propTokens, " "))
	if err != nil {
		return nil, err
	}

	class, rest := nextToken(rest)
	if class == "" {
		return nil, fmt.Errorf("missing class name after FROM")
	}

	st := &selectStatement{properties: properties, class: class}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return st, nil
	}

	tok, whereText := nextToken(rest)
	if !strings.EqualFold(tok, "where") {
		return nil, fmt.Errorf("unexpected token %q after class name", tok)
	}
	whereText = strings.TrimSpace(whereText)
	if whereText == "" {
		return nil, fmt.Errorf("empty WHERE clause")
	}
	program, err := expr.Compile(normalizeWhere(whereText))
	if err != nil {
		return nil, fmt.Errorf("WHERE clause: %w", err)
	}
	st.where = program
	return st, nil
}

// matches evaluates the WHERE clause against one instance record.
func (st *selectStatement) matches(rec *record) (bool, error) {
	if st.where == nil {
		return true, nil
	}
	env := make(map[string]any, len(rec.elems))
	for _, el := range rec.elems {
		env[el.name] = el.value
	}
	out, err := expr.Run(st.where, env)
	if err != nil {
		return false, fmt.Errorf("WHERE clause: %w", err)
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("WHERE clause is not a boolean predicate")
	}
	return b, nil
}

// nextToken splits off the next whitespace-delimited token.
func nextToken(s string) (string, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	if i := strings.IndexAny(s, " \t\r\n"); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

// splitProperties parses a SELECT property list. "*" selects every property
// and must stand alone.
func splitProperties(list string) ([]string, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, fmt.Errorf("missing property list")
	}
	if list == "*" {
		return nil, nil
	}
	parts := strings.Split(list, ",")
	props := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			return nil, fmt.Errorf("malformed property list %q", list)
		}
		if p == "*" {
			return nil, fmt.Errorf("* cannot be combined with named properties")
		}
		props = append(props, p)
	}
	return props, nil
}

// normalizeWhere rewrites WQL comparison and logical syntax into the
// expression syntax the evaluator accepts: `=` becomes `==`, `<>` becomes
// `!=`, and the keywords AND/OR/NOT/TRUE/FALSE/NULL lose their case
// sensitivity. Quoted literals pass through untouched.
func normalizeWhere(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 8)

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
		switch {
		case ch == '\'' || ch == '"':
			quote = ch
			b.WriteByte(ch)
		case ch == '<' && i+1 < len(s) && s[i+1] == '>':
			b.WriteString("!=")
			i++
		case ch == '=' && i+1 < len(s) && s[i+1] == '=':
			b.WriteString("==")
			i++
		case ch == '=':
			prev := byte(0)
			if i > 0 {
				prev = s[i-1]
			}
			if prev == '<' || prev == '>' || prev == '!' {
				b.WriteByte('=')
			} else {
				b.WriteString("==")
			}
		case isWordByte(ch):
			j := i
			for j < len(s) && isWordByte(s[j]) {
				j++
			}
			b.WriteString(normalizeWord(s[i:j]))
			i = j - 1
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

func normalizeWord(w string) string {
	switch strings.ToLower(w) {
	case "and":
		return "and"
	case "or":
		return "or"
	case "not":
		return "not"
	case "true":
		return "true"
	case "false":
		return "false"
	case "null":
		return "nil"
	default:
		return w
	}
}

func isWordByte(ch byte) bool {
	return ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}
