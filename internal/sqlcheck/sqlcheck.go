// Package sqlcheck runs checked-in SQL through the PostgreSQL parser
// to produce strict pre-flight diagnostics. The comparison core uses a
// tolerant grammar on purpose (warehouse dialects are not Postgres);
// this check exists so CI can tell "schema drift" apart from "the DDL
// file itself is broken" before a comparison runs.
package sqlcheck

import (
	"fmt"
	"regexp"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"
)

// Diagnostic is one parse problem with a best-effort position.
type Diagnostic struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Line > 0 {
		return fmt.Sprintf("%d:%d: %s", d.Line, d.Column, d.Message)
	}
	return d.Message
}

var nearTokenRe = regexp.MustCompile(`at or near "([^"]+)"`)

// Check parses each statement and collects diagnostics for the ones
// pg_query rejects. Statements that carry non-Postgres warehouse
// clauses (DISTKEY, SORTKEY, ENCODE, PARTITIONED BY) are skipped: the
// tolerant parser owns those, and flagging them here would be noise.
func Check(statements []string) []Diagnostic {
	var diags []Diagnostic
	for _, stmt := range statements {
		if hasWarehouseClause(stmt) {
			continue
		}
		if _, err := pg_query.Parse(stmt); err != nil {
			diags = append(diags, diagnose(stmt, err))
		}
	}
	return diags
}

var warehouseClauseRe = regexp.MustCompile(`(?i)\b(DISTKEY|SORTKEY|DISTSTYLE|ENCODE|PARTITIONED\s+BY|TBLPROPERTIES|STORED\s+AS)\b`)

func hasWarehouseClause(stmt string) bool {
	return warehouseClauseRe.MatchString(stmt)
}

// diagnose converts a pg_query error into a positioned diagnostic by
// locating the offending token in the statement text.
func diagnose(stmt string, err error) Diagnostic {
	msg := strings.TrimPrefix(err.Error(), "failed to parse SQL: ")

	offset := -1
	if m := nearTokenRe.FindStringSubmatch(msg); len(m) > 1 {
		offset = strings.Index(stmt, m[1])
	} else if strings.Contains(msg, "at end of input") {
		offset = len(stmt)
	}

	if offset < 0 {
		return Diagnostic{Message: msg}
	}

	line, col := 1, 1
	for _, ch := range stmt[:offset] {
		if ch == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return Diagnostic{Line: line, Column: col, Message: msg}
}
