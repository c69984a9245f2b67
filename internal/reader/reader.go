// Package reader splits a body of SQL text into individually
// addressable CREATE TABLE / CREATE VIEW statements. Statements of
// other kinds are skipped; a malformed statement is reported as a
// recoverable error and scanning continues after it.
package reader

import (
	"fmt"
	"regexp"
	"strings"
)

var createRe = regexp.MustCompile(`(?is)^\s*CREATE\s+(?:OR\s+REPLACE\s+)?(?:TABLE|VIEW)\b`)

// SplitError describes one statement that could not be delimited.
type SplitError struct {
	Offset int    // byte offset of the statement start
	Reason string // what went wrong
}

func (e SplitError) Error() string {
	return fmt.Sprintf("statement at offset %d: %s", e.Offset, e.Reason)
}

// Split scans sql and returns each CREATE TABLE / CREATE VIEW statement
// verbatim, terminated by the ';' at parenthesis depth zero. Semicolons
// inside single-quoted strings and line comments do not terminate a
// statement. A statement whose parentheses never rebalance is reported
// as a SplitError and the scan resumes after its terminating ';' (or at
// end of text), so one bad statement never aborts the sequence.
func Split(sql string) ([]string, []error) {
	var (
		statements []string
		errs       []error
	)

	for start := 0; start < len(sql); {
		end, depth, terminated := scanStatement(sql, start)
		text := sql[start:end]

		if strings.TrimSpace(text) == "" {
			start = end + 1
			continue
		}

		switch {
		case depth != 0:
			errs = append(errs, SplitError{Offset: start, Reason: "unbalanced parentheses"})
		case !terminated:
			errs = append(errs, SplitError{Offset: start, Reason: "unterminated statement"})
		case createRe.MatchString(text):
			statements = append(statements, strings.TrimSpace(text))
		}
		// Other statement kinds fall through silently.

		start = end + 1
	}

	return statements, errs
}

// scanStatement walks forward from start until the first ';' outside
// strings and comments, returning the end offset (exclusive of the
// ';'), the final parenthesis depth, and whether a terminator was
// found. The ';' ends the scan even at non-zero depth; the caller turns
// that depth into an unbalanced-parentheses error.
func scanStatement(sql string, start int) (end, depth int, terminated bool) {
	inString := false
	inLineComment := false

	for i := start; i < len(sql); i++ {
		ch := sql[i]

		if inLineComment {
			if ch == '\n' {
				inLineComment = false
			}
			continue
		}
		if inString {
			if ch == '\'' {
				// '' is an escaped quote inside the string.
				if i+1 < len(sql) && sql[i+1] == '\'' {
					i++
					continue
				}
				inString = false
			}
			continue
		}

		switch ch {
		case '\'':
			inString = true
		case '-':
			if i+1 < len(sql) && sql[i+1] == '-' {
				inLineComment = true
				i++
			}
		case '(':
			depth++
		case ')':
			depth--
		case ';':
			return i, depth, true
		}
	}

	return len(sql), depth, false
}
