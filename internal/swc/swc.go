// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package swc parses SWC morphology files into validated point trees.
//
// An SWC file is line-oriented text: a contiguous prefix of '#' comment
// lines, then one data row per 3D point. Each row has seven whitespace
// separated fields: id, type, x, y, z, radius, parent. The row whose parent
// is -1 is the tree's root.
package swc

import (
	"fmt"
	"strconv"
	"strings"
)

// PointRow is one data row of an SWC file.
type PointRow struct {
	ID     int
	Type   int
	X      float64
	Y      float64
	Z      float64
	Radius float64
	Parent int
}

// Morphology is a parsed and validated SWC point cloud. Immutable after
// Parse returns.
type Morphology struct {
	Rows []PointRow

	// SomaNormalized records that no row carried the soma type (1) and the
	// first row's type was rewritten to 1. A lossy normalization notice,
	// not an error.
	SomaNormalized bool
}

// FormatError reports a malformed line in the raw text. Line is 1-based.
type FormatError struct {
	Line   int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("swc: line %d: %s", e.Line, e.Reason)
}

// ValidationError reports a structural invariant violation on parsed rows.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "swc: " + e.Reason
}

const fieldsPerRow = 7

// somaType is the SWC point type for the soma.
const somaType = 1

// Parse converts raw SWC text into a validated Morphology. Comment lines
// are only accepted as a contiguous header prefix; a comment after data has
// begun is a FormatError. Blank lines are ignored anywhere.
func Parse(data []byte) (*Morphology, error) {
	var rows []PointRow
	inData := false

	for i, line := range strings.Split(string(data), "\n") {
		lineNo := i + 1
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			if inData {
				return nil, &FormatError{Line: lineNo, Reason: "comment after data region"}
			}
			continue
		}
		inData = true

		row, err := parseRow(trimmed, lineNo)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}

	m := &Morphology{Rows: rows}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// parseRow splits one data line into a PointRow.
func parseRow(line string, lineNo int) (PointRow, error) {
	fields := strings.Fields(line)
	if len(fields) != fieldsPerRow {
		return PointRow{}, &FormatError{
			Line:   lineNo,
			Reason: fmt.Sprintf("expected %d fields, got %d", fieldsPerRow, len(fields)),
		}
	}

	var row PointRow
	var err error
	intField := func(idx int, name string, dst *int) {
		if err != nil {
			return
		}
		v, convErr := strconv.Atoi(fields[idx])
		if convErr != nil {
			err = &FormatError{Line: lineNo, Reason: fmt.Sprintf("%s %q is not an integer", name, fields[idx])}
			return
		}
		*dst = v
	}
	floatField := func(idx int, name string, dst *float64) {
		if err != nil {
			return
		}
		v, convErr := strconv.ParseFloat(fields[idx], 64)
		if convErr != nil {
			err = &FormatError{Line: lineNo, Reason: fmt.Sprintf("%s %q is not a number", name, fields[idx])}
			return
		}
		*dst = v
	}

	intField(0, "id", &row.ID)
	intField(1, "type", &row.Type)
	floatField(2, "x", &row.X)
	floatField(3, "y", &row.Y)
	floatField(4, "z", &row.Z)
	floatField(5, "radius", &row.Radius)
	intField(6, "parent", &row.Parent)
	if err != nil {
		return PointRow{}, err
	}
	return row, nil
}

// validate enforces the single-root invariant and applies the soma
// normalization. The normalization rewrites the row at index 0, not the
// root row; the two coincide in well-formed files where the root is first.
func (m *Morphology) validate() error {
	roots := 0
	hasSoma := false
	for _, row := range m.Rows {
		if row.Parent == -1 {
			roots++
		}
		if row.Type == somaType {
			hasSoma = true
		}
	}

	if roots != 1 {
		return &ValidationError{Reason: "missing or duplicate root"}
	}
	if !hasSoma {
		m.Rows[0].Type = somaType
		m.SomaNormalized = true
	}
	return nil
}

// Root returns the row whose parent is -1.
func (m *Morphology) Root() PointRow {
	for _, row := range m.Rows {
		if row.Parent == -1 {
			return row
		}
	}
	return PointRow{}
}

// Encode serializes the morphology back to SWC text in the same row and
// column layout Parse accepts, so parse → encode → parse is lossless.
func (m *Morphology) Encode() []byte {
	var b strings.Builder
	for _, row := range m.Rows {
		fmt.Fprintf(&b, "%d %d %s %s %s %s %d\n",
			row.ID, row.Type,
			formatCoord(row.X), formatCoord(row.Y), formatCoord(row.Z),
			formatCoord(row.Radius), row.Parent)
	}
	return []byte(b.String())
}

// formatCoord prints the shortest decimal form that round-trips the value.
func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
