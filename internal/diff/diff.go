// Package diff computes the attribute-level structural difference
// between two canonical table definitions, or between two named
// collections of them. It is a pure transformation: definitions are
// only read, and the emitted order is deterministic for identical
// inputs (left declaration order first, right-only entries appended).
package diff

import (
	"fmt"
	"strings"

	"github.com/schemadrift/schemadrift/internal/normalize"
	"github.com/schemadrift/schemadrift/internal/schema"
)

// Tables compares two definitions of the same object and returns every
// discrepancy. The checks per shared column are independent, so one
// column can produce several entries.
func Tables(left, right *schema.TableDefinition) []schema.DiffEntry {
	var entries []schema.DiffEntry

	for i := range left.Columns {
		lcol := &left.Columns[i]
		rcol := right.Column(lcol.Name)
		if rcol == nil {
			entries = append(entries, entry(left.Name, lcol.Name, schema.MissingInRight,
				fmt.Sprintf("column %s exists only in left", lcol.Name)))
			continue
		}
		entries = append(entries, compareColumns(left.Name, lcol, rcol)...)
	}

	for i := range right.Columns {
		rcol := &right.Columns[i]
		if left.Column(rcol.Name) == nil {
			entries = append(entries, entry(left.Name, rcol.Name, schema.MissingInLeft,
				fmt.Sprintf("column %s exists only in right", rcol.Name)))
		}
	}

	entries = append(entries, compareConstraints(left, right)...)
	return entries
}

// All compares two collections by qualified table name. Tables present
// on only one side are reported as whole-table entries (empty subject)
// without attempting a column diff, and also returned as the unmatched
// name lists.
func All(left, right *schema.Collection) (entries []schema.DiffEntry, unmatchedLeft, unmatchedRight []string) {
	for i := range left.Tables {
		ldef := &left.Tables[i]
		rdef := right.Table(ldef.Name)
		if rdef == nil {
			unmatchedLeft = append(unmatchedLeft, ldef.Name)
			entries = append(entries, entry(ldef.Name, "", schema.MissingInRight,
				fmt.Sprintf("%s %s exists only in %s", ldef.Kind, ldef.Name, left.Name)))
			continue
		}
		entries = append(entries, Tables(ldef, rdef)...)
	}

	for i := range right.Tables {
		rdef := &right.Tables[i]
		if left.Table(rdef.Name) == nil {
			unmatchedRight = append(unmatchedRight, rdef.Name)
			entries = append(entries, entry(rdef.Name, "", schema.MissingInLeft,
				fmt.Sprintf("%s %s exists only in %s", rdef.Kind, rdef.Name, right.Name)))
		}
	}

	return entries, unmatchedLeft, unmatchedRight
}

func compareColumns(table string, l, r *schema.ColumnDefinition) []schema.DiffEntry {
	var entries []schema.DiffEntry

	if l.Type != r.Type {
		entries = append(entries, entry(table, l.Name, schema.TypeMismatch,
			fmt.Sprintf("type %s vs %s", l.RawType, r.RawType)))
	}
	if l.Nullable != r.Nullable {
		entries = append(entries, entry(table, l.Name, schema.NullabilityMismatch,
			fmt.Sprintf("nullable %t vs %t", l.Nullable, r.Nullable)))
	}
	if l.Type.IsCharacter() && r.Type.IsCharacter() && !equalInts(l.MaxLength, r.MaxLength) {
		entries = append(entries, entry(table, l.Name, schema.LengthMismatch,
			fmt.Sprintf("max length %s vs %s", formatInt(l.MaxLength), formatInt(r.MaxLength))))
	}
	if l.Type.IsDecimal() && r.Type.IsDecimal() {
		if !equalInts(l.Precision, r.Precision) {
			entries = append(entries, entry(table, l.Name, schema.PrecisionMismatch,
				fmt.Sprintf("precision %s vs %s", formatInt(l.Precision), formatInt(r.Precision))))
		}
		if !equalInts(l.Scale, r.Scale) {
			entries = append(entries, entry(table, l.Name, schema.ScaleMismatch,
				fmt.Sprintf("scale %s vs %s", formatInt(l.Scale), formatInt(r.Scale))))
		}
	}
	if !equalDefaults(l.Default, r.Default) {
		entries = append(entries, entry(table, l.Name, schema.DefaultMismatch,
			fmt.Sprintf("default %s vs %s", formatDefault(l.Default), formatDefault(r.Default))))
	}

	return entries
}

// compareConstraints matches constraints by canonical signature, so
// differently named or reordered declarations of the same key never
// produce a diff.
func compareConstraints(left, right *schema.TableDefinition) []schema.DiffEntry {
	var entries []schema.DiffEntry

	rightSigs := make(map[string]bool, len(right.Constraints))
	for _, c := range right.Constraints {
		rightSigs[normalize.Signature(c)] = true
	}
	leftSigs := make(map[string]bool, len(left.Constraints))

	for _, c := range left.Constraints {
		sig := normalize.Signature(c)
		if leftSigs[sig] {
			continue // inline + table-level declaration of the same key
		}
		leftSigs[sig] = true
		if !rightSigs[sig] {
			entries = append(entries, entry(left.Name, sig, schema.ConstraintMissingInRight,
				fmt.Sprintf("constraint %s exists only in left", sig)))
		}
	}

	seen := make(map[string]bool, len(right.Constraints))
	for _, c := range right.Constraints {
		sig := normalize.Signature(c)
		if seen[sig] {
			continue
		}
		seen[sig] = true
		if !leftSigs[sig] {
			entries = append(entries, entry(left.Name, sig, schema.ConstraintMissingInLeft,
				fmt.Sprintf("constraint %s exists only in right", sig)))
		}
	}

	return entries
}

func entry(table, subject string, category schema.DiffCategory, detail string) schema.DiffEntry {
	return schema.DiffEntry{Table: table, Subject: subject, Category: category, Detail: detail}
}

func equalInts(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// equalDefaults compares default expressions textually after trimming
// and case-folding; an absent default and the literal NULL are the
// same thing.
func equalDefaults(a, b *string) bool {
	return canonicalDefault(a) == canonicalDefault(b)
}

func canonicalDefault(v *string) string {
	if v == nil {
		return ""
	}
	s := strings.ToUpper(strings.TrimSpace(*v))
	if s == "NULL" {
		return ""
	}
	return s
}

func formatInt(v *int) string {
	if v == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *v)
}

func formatDefault(v *string) string {
	if v == nil {
		return "<none>"
	}
	return *v
}
