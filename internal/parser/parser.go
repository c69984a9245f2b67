// Package parser converts a single CREATE TABLE / CREATE VIEW statement
// into the canonical schema model. It is a deliberately small,
// best-effort grammar: enough to describe column and constraint
// structure across the warehouse dialects we compare, with unrecognized
// trailing clauses (DISTKEY, SORTKEY, ENCODE, PARTITIONED BY, ...)
// skipped rather than rejected.
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/schemadrift/schemadrift/internal/normalize"
	"github.com/schemadrift/schemadrift/internal/schema"
)

// ParseError is a recoverable failure for one statement. The batch
// never fails because of it; callers record it and continue.
type ParseError struct {
	Object string // qualified name if it could be extracted
	Reason string
}

func (e *ParseError) Error() string {
	if e.Object != "" {
		return fmt.Sprintf("parse %s: %s", e.Object, e.Reason)
	}
	return "parse statement: " + e.Reason
}

var headerRe = regexp.MustCompile(`(?is)^\s*CREATE\s+(?:OR\s+REPLACE\s+)?(TABLE|VIEW)\s+(?:IF\s+NOT\s+EXISTS\s+)?`)

// Parse converts one CREATE TABLE / CREATE VIEW statement into a
// TableDefinition. The dialect selects the type-synonym table applied
// to every column.
func Parse(stmt string, dialect normalize.Dialect) (*schema.TableDefinition, error) {
	m := headerRe.FindStringSubmatch(stmt)
	if m == nil {
		return nil, &ParseError{Reason: "not a CREATE TABLE or CREATE VIEW statement"}
	}
	kind := schema.KindTable
	if strings.EqualFold(m[1], "VIEW") {
		kind = schema.KindView
	}

	toks := tokenize(stmt[len(m[0]):])
	name, rest := takeQualifiedName(toks)
	if name == "" {
		return nil, &ParseError{Reason: "missing object name"}
	}

	def := &schema.TableDefinition{Name: name, Kind: kind}

	if kind == schema.KindView {
		// A view's structure is whatever its query discloses; only
		// presence participates in diffing, so the body is not parsed.
		return def, nil
	}

	body := ""
	for _, tok := range rest {
		if isGroup(tok) {
			body = tok[1 : len(tok)-1]
			break
		}
		if strings.EqualFold(tok, "AS") {
			// CREATE TABLE ... AS SELECT: no declared column list.
			return def, nil
		}
	}
	if body == "" {
		return nil, &ParseError{Object: name, Reason: "missing column list"}
	}

	for _, fragment := range splitTopLevel(body) {
		ftoks := tokenize(fragment)
		if len(ftoks) == 0 {
			continue
		}
		if isConstraintStart(ftoks) {
			cons, err := parseConstraint(ftoks)
			if err != nil {
				return nil, &ParseError{Object: name, Reason: err.Error()}
			}
			def.Constraints = append(def.Constraints, cons)
			continue
		}

		col, inline, err := parseColumn(ftoks, dialect)
		if err != nil {
			return nil, &ParseError{Object: name, Reason: err.Error()}
		}
		if def.Column(col.Name) != nil {
			return nil, &ParseError{Object: name, Reason: fmt.Sprintf("column %s declared twice", col.Name)}
		}
		def.Columns = append(def.Columns, col)
		def.Constraints = append(def.Constraints, inline...)
	}

	// PRIMARY KEY membership implies NOT NULL, whether the key was
	// declared inline or at table level. Live catalogs report these
	// columns as non-nullable, so the parsed side must agree.
	for _, cons := range def.Constraints {
		if cons.Kind != schema.PrimaryKey {
			continue
		}
		for _, colName := range cons.Columns {
			if col := def.Column(colName); col != nil {
				col.Nullable = false
			}
		}
	}

	return def, nil
}

// ObjectName extracts the qualified object name from a statement
// without parsing its body, for labeling statements whose body later
// fails to parse. Returns "" when even the name cannot be found.
func ObjectName(stmt string) string {
	m := headerRe.FindStringSubmatch(stmt)
	if m == nil {
		return ""
	}
	name, _ := takeQualifiedName(tokenize(stmt[len(m[0]):]))
	return name
}

// takeQualifiedName consumes leading tokens forming the (possibly
// quoted, possibly schema-qualified) object name and returns the
// uppercased canonical form plus the remaining tokens.
func takeQualifiedName(toks []string) (string, []string) {
	var parts []string
	i := 0
	for ; i < len(toks); i++ {
		tok := toks[i]
		if isGroup(tok) || strings.EqualFold(tok, "AS") {
			break
		}
		if !isNamePart(tok) {
			break
		}
		parts = append(parts, tok)
	}
	if len(parts) == 0 {
		return "", toks
	}
	return canonicalName(strings.Join(parts, "")), toks[i:]
}

// isNamePart accepts identifier tokens, quoted identifiers, and the
// dots joining them. Anything else ends the name.
func isNamePart(tok string) bool {
	if tok == "" || tok == "," {
		return false
	}
	if tok[0] == '"' || tok[0] == '.' {
		return true
	}
	switch strings.ToUpper(tok) {
	case "AS", "SELECT", "WITH":
		return false
	}
	return true
}

// canonicalName strips identifier quoting segment by segment and
// uppercases the result.
func canonicalName(raw string) string {
	var segments []string
	var cur strings.Builder
	inQuotes := false
	for i := 0; i < len(raw); i++ {
		switch ch := raw[i]; {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == '.' && !inQuotes:
			segments = append(segments, cur.String())
			cur.Reset()
		default:
			cur.WriteByte(ch)
		}
	}
	segments = append(segments, cur.String())
	for i, s := range segments {
		segments[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	return strings.Join(segments, ".")
}

func isConstraintStart(toks []string) bool {
	switch strings.ToUpper(toks[0]) {
	case "CONSTRAINT", "FOREIGN":
		return true
	case "PRIMARY", "UNIQUE":
		// PRIMARY KEY (...) / UNIQUE (...) at the start of a fragment is
		// a table-level constraint; as a column name it would be
		// followed by a type token, not a parenthesized list.
		return len(toks) > 1 && (isGroup(toks[1]) || strings.EqualFold(toks[1], "KEY"))
	}
	return false
}

// parseConstraint handles CONSTRAINT <name> ... and the bare
// PRIMARY KEY / UNIQUE / FOREIGN KEY forms.
func parseConstraint(toks []string) (schema.Constraint, error) {
	if strings.EqualFold(toks[0], "CONSTRAINT") {
		if len(toks) < 3 {
			return schema.Constraint{}, fmt.Errorf("incomplete constraint clause")
		}
		toks = toks[2:] // drop CONSTRAINT <name>; names are not structural
	}

	kw := strings.ToUpper(toks[0])
	switch kw {
	case "PRIMARY", "UNIQUE", "FOREIGN":
	default:
		return schema.Constraint{}, fmt.Errorf("unsupported constraint %q", toks[0])
	}

	// Skip the KEY keyword in PRIMARY KEY / FOREIGN KEY.
	i := 1
	if i < len(toks) && strings.EqualFold(toks[i], "KEY") {
		i++
	}
	if i >= len(toks) || !isGroup(toks[i]) {
		return schema.Constraint{}, fmt.Errorf("constraint missing column list")
	}
	cols := splitIdentList(toks[i])
	if len(cols) == 0 {
		return schema.Constraint{}, fmt.Errorf("constraint has empty column list")
	}
	i++

	switch kw {
	case "PRIMARY":
		return normalize.Constraint(schema.PrimaryKey, cols, nil), nil
	case "UNIQUE":
		return normalize.Constraint(schema.Unique, cols, nil), nil
	}

	// FOREIGN KEY (...) REFERENCES target (...)
	for i < len(toks) && !strings.EqualFold(toks[i], "REFERENCES") {
		i++
	}
	if i >= len(toks)-1 {
		return schema.Constraint{}, fmt.Errorf("foreign key missing REFERENCES clause")
	}
	ref, err := parseReference(toks[i+1:])
	if err != nil {
		return schema.Constraint{}, err
	}
	return normalize.Constraint(schema.ForeignKey, cols, ref), nil
}

// parseReference reads the target of a REFERENCES clause: a qualified
// table name, optionally followed by a column list.
func parseReference(toks []string) (*schema.Reference, error) {
	name, rest := takeQualifiedName(toks)
	if name == "" {
		return nil, fmt.Errorf("REFERENCES missing target table")
	}
	ref := &schema.Reference{Table: name}
	if len(rest) > 0 && isGroup(rest[0]) {
		ref.Columns = splitIdentList(rest[0])
	}
	return ref, nil
}

// modifier keywords that terminate a type token or a DEFAULT expression.
var modifierWords = map[string]bool{
	"NOT": true, "NULL": true, "DEFAULT": true, "PRIMARY": true,
	"UNIQUE": true, "REFERENCES": true, "CHECK": true, "CONSTRAINT": true,
	"ENCODE": true, "DISTKEY": true, "SORTKEY": true, "COLLATE": true,
	"IDENTITY": true, "GENERATED": true,
}

// parseColumn resolves one top-level fragment into a column plus any
// inline constraints (PRIMARY KEY, UNIQUE, REFERENCES) folded into
// table-level form.
func parseColumn(toks []string, dialect normalize.Dialect) (schema.ColumnDefinition, []schema.Constraint, error) {
	name := stripQuotes(toks[0])
	if name == "" || isGroup(toks[0]) {
		return schema.ColumnDefinition{}, nil, fmt.Errorf("fragment has no column name")
	}

	rawType, i := takeType(toks, 1)
	if rawType == "" {
		return schema.ColumnDefinition{}, nil, fmt.Errorf("column %s has no type", name)
	}

	nullable := true
	var def *string
	var inline []schema.Constraint

	for i < len(toks) {
		switch strings.ToUpper(toks[i]) {
		case "NOT":
			if i+1 < len(toks) && strings.EqualFold(toks[i+1], "NULL") {
				nullable = false
				i += 2
				continue
			}
			i++
		case "NULL":
			nullable = true
			i++
		case "DEFAULT":
			expr, next := takeDefaultExpr(toks, i+1)
			if expr == "" {
				return schema.ColumnDefinition{}, nil, fmt.Errorf("column %s has empty DEFAULT", name)
			}
			def = &expr
			i = next
		case "PRIMARY":
			inline = append(inline, normalize.Constraint(schema.PrimaryKey, []string{name}, nil))
			nullable = false
			i++
			if i < len(toks) && strings.EqualFold(toks[i], "KEY") {
				i++
			}
		case "UNIQUE":
			inline = append(inline, normalize.Constraint(schema.Unique, []string{name}, nil))
			i++
		case "REFERENCES":
			ref, err := parseReference(toks[i+1:])
			if err != nil {
				return schema.ColumnDefinition{}, nil, fmt.Errorf("column %s: %v", name, err)
			}
			inline = append(inline, normalize.Constraint(schema.ForeignKey, []string{name}, ref))
			// The reference target was consumed from the tail; stop at
			// the next modifier keyword.
			i++
			for i < len(toks) && !modifierWords[strings.ToUpper(toks[i])] {
				i++
			}
		default:
			// Dialect-specific clause (ENCODE lzo, SORTKEY, ...): ignore.
			i++
		}
	}

	col := normalize.Column(name, rawType, nullable, def, nil, nil, nil, dialect)
	return col, inline, nil
}

// takeType consumes the tokens forming the column's type, including
// multi-word spellings (DOUBLE PRECISION, CHARACTER VARYING, TIMESTAMP
// WITH TIME ZONE) and an attached argument list.
func takeType(toks []string, i int) (string, int) {
	if i >= len(toks) || isGroup(toks[i]) || modifierWords[strings.ToUpper(toks[i])] {
		return "", i
	}
	parts := []string{toks[i]}
	i++

	for i < len(toks) {
		up := strings.ToUpper(toks[i])
		switch up {
		case "PRECISION", "VARYING":
			parts = append(parts, toks[i])
			i++
			continue
		case "WITH", "WITHOUT":
			if i+2 < len(toks) && strings.EqualFold(toks[i+1], "TIME") && strings.EqualFold(toks[i+2], "ZONE") {
				parts = append(parts, toks[i], toks[i+1], toks[i+2])
				i += 3
				continue
			}
		}
		break
	}

	raw := strings.Join(parts, " ")
	if i < len(toks) && isGroup(toks[i]) {
		raw += toks[i]
		i++
	}
	return raw, i
}

// takeDefaultExpr consumes a DEFAULT expression: at least one token,
// then everything up to the next modifier keyword. Function-call
// argument groups attach without a space.
func takeDefaultExpr(toks []string, i int) (string, int) {
	var b strings.Builder
	first := true
	for i < len(toks) {
		tok := toks[i]
		if !first && modifierWords[strings.ToUpper(tok)] {
			break
		}
		if isGroup(tok) {
			b.WriteString(tok)
		} else {
			if !first {
				b.WriteByte(' ')
			}
			b.WriteString(tok)
		}
		first = false
		i++
	}
	return strings.TrimSpace(b.String()), i
}

// splitIdentList splits a parenthesized identifier list into trimmed,
// unquoted names.
func splitIdentList(group string) []string {
	inner := group
	if isGroup(group) {
		inner = group[1 : len(group)-1]
	}
	var out []string
	for _, part := range splitTopLevel(inner) {
		name := stripQuotes(strings.TrimSpace(part))
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

func stripQuotes(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

func isGroup(tok string) bool {
	return len(tok) >= 2 && tok[0] == '(' && tok[len(tok)-1] == ')'
}

// splitTopLevel splits s on commas at parenthesis depth zero, keeping
// type arguments and inline CHECK expressions intact.
func splitTopLevel(s string) []string {
	var (
		parts    []string
		depth    int
		inString bool
		start    int
	)
	for i := 0; i < len(s); i++ {
		switch ch := s[i]; {
		case inString:
			if ch == '\'' {
				inString = false
			}
		case ch == '\'':
			inString = true
		case ch == '(':
			depth++
		case ch == ')':
			depth--
		case ch == ',' && depth == 0:
			if p := strings.TrimSpace(s[start:i]); p != "" {
				parts = append(parts, p)
			}
			start = i + 1
		}
	}
	if p := strings.TrimSpace(s[start:]); p != "" {
		parts = append(parts, p)
	}
	return parts
}

// tokenize splits a statement fragment into words, quoted identifiers,
// string literals, and balanced parenthesized groups (one token each).
func tokenize(s string) []string {
	var toks []string
	for i := 0; i < len(s); {
		ch := s[i]
		switch {
		case ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r':
			i++
		case ch == ',':
			toks = append(toks, ",")
			i++
		case ch == '(':
			j := matchParen(s, i)
			toks = append(toks, s[i:j])
			i = j
		case ch == '"':
			j := i + 1
			for j < len(s) && s[j] != '"' {
				j++
			}
			if j < len(s) {
				j++
			}
			toks = append(toks, s[i:j])
			i = j
		case ch == '\'':
			j := i + 1
			for j < len(s) {
				if s[j] == '\'' {
					if j+1 < len(s) && s[j+1] == '\'' {
						j += 2
						continue
					}
					j++
					break
				}
				j++
			}
			toks = append(toks, s[i:j])
			i = j
		default:
			j := i
			for j < len(s) && !strings.ContainsRune(" \t\n\r,()\"'", rune(s[j])) {
				j++
			}
			toks = append(toks, s[i:j])
			i = j
		}
	}
	return toks
}

// matchParen returns the offset one past the parenthesis group opening
// at i, tolerating unbalanced input by running to end of string.
func matchParen(s string, i int) int {
	depth := 0
	inString := false
	for j := i; j < len(s); j++ {
		switch ch := s[j]; {
		case inString:
			if ch == '\'' {
				inString = false
			}
		case ch == '\'':
			inString = true
		case ch == '(':
			depth++
		case ch == ')':
			depth--
			if depth == 0 {
				return j + 1
			}
		}
	}
	return len(s)
}
