package rules

// Position is a point in a source file. Lines are 1-based and columns are
// 0-based, the convention shared by LSP and most C# tooling.
type Position struct {
	// Line is the 1-based line number (first line is 1).
	Line int `json:"line"`
	// Column is the 0-based column number.
	Column int `json:"column"`
}

// noPosition marks an unset position. 0 would be ambiguous because
// columns are 0-based, so both fields use -1.
var noPosition = Position{Line: -1, Column: -1}

// Location is a range in a source file. Start is inclusive and End is
// exclusive (LSP semantics): End names the first position after the
// covered text.
type Location struct {
	// File is the path to the source file.
	File string `json:"file"`
	// Start is the starting position (inclusive).
	Start Position `json:"start"`
	// End is the ending position (exclusive). A point location leaves
	// End unset (Line < 0) or equal to Start.
	End Position `json:"end"`
}

// NewFileLocation creates a location for issues that concern the whole
// file rather than any particular line.
func NewFileLocation(file string) Location {
	return Location{File: file, Start: noPosition, End: noPosition}
}

// NewLineLocation creates a point location at the start of a 1-based line.
func NewLineLocation(file string, line int) Location {
	return Location{
		File:  file,
		Start: Position{Line: line, Column: 0},
		End:   noPosition,
	}
}

// NewRangeLocation creates a location spanning from (startLine, startCol)
// up to but not including (endLine, endCol).
func NewRangeLocation(file string, startLine, startCol, endLine, endCol int) Location {
	return Location{
		File:  file,
		Start: Position{Line: startLine, Column: startCol},
		End:   Position{Line: endLine, Column: endCol},
	}
}

// IsFileLevel reports whether the location has no line information.
func (l Location) IsFileLevel() bool {
	return l.Start.Line < 0
}

// IsPointLocation reports whether the location names a single point
// rather than a range.
func (l Location) IsPointLocation() bool {
	return l.End.Line < 0 || l.End == l.Start
}
