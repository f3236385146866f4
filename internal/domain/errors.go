package domain

import "fmt"

// ParseError reports a source that produced no usable rows. Individual bad
// rows never cause a ParseError; they are dropped and counted in Stats.
type ParseError struct {
	Source string
	Reason string
	Stats  ParseStats
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s (lines=%d dropped=%d skipped=%d)",
		e.Source, e.Reason, e.Stats.Lines, e.Stats.Dropped, e.Stats.Skipped)
}

// DegenerateInputError reports a statistical precondition violation, such as
// fewer than two points or zero variance. It replaces a NaN result.
type DegenerateInputError struct {
	N      int
	Reason string
}

func (e *DegenerateInputError) Error() string {
	return fmt.Sprintf("degenerate input (n=%d): %s", e.N, e.Reason)
}

// JoinDataQualityWarning flags a join whose coverage fell below the caller's
// threshold. It is attached to results, never returned as an error.
type JoinDataQualityWarning struct {
	View        string  `json:"view"`
	Matched     int     `json:"matched"`
	Total       int     `json:"total"`
	MinCoverage float64 `json:"min_coverage"`
}

func (w JoinDataQualityWarning) String() string {
	return fmt.Sprintf("view %s matched %d of %d features (minimum coverage %.0f%%)",
		w.View, w.Matched, w.Total, w.MinCoverage*100)
}
