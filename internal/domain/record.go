package domain

import (
	"math"
	"slices"
	"strconv"
	"strings"
)

// Field is one named cell of a parsed row.
type Field struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Record is one data row. Fields keep source column order; cells beyond the
// known columns are ignored and missing trailing cells are simply absent.
type Record struct {
	Line    int
	Fields  []Field
	numbers map[string]float64
}

// Get returns the raw value of the named field.
func (r Record) Get(name string) (string, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Number returns the numeric value of a field. Fields listed in
// ParseOptions.NumericFields were validated by the parser; other fields are
// parsed on demand with the default policy.
func (r Record) Number(name string) (float64, bool) {
	if v, ok := r.numbers[name]; ok {
		return v, true
	}
	raw, ok := r.Get(name)
	if !ok {
		return 0, false
	}
	return ParseNumber(raw, NumberPolicy{})
}

// Values returns the cell values in column order.
func (r Record) Values() []string {
	out := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		out[i] = f.Value
	}
	return out
}

// NumberPolicy decides which parsed numbers are usable. By default only
// finite values greater than zero are accepted.
type NumberPolicy struct {
	AcceptZero     bool `yaml:"accept_zero"`
	AcceptNegative bool `yaml:"accept_negative"`
}

// ParseOptions describes the layout of one source file.
type ParseOptions struct {
	// Columns names cells by index. When empty and HeaderRow is set, the
	// header row supplies the names; otherwise cells are named "0", "1", ...
	Columns []string

	// HeaderRow marks the first body line as a header. It names the columns
	// when Columns is empty and is discarded otherwise.
	HeaderRow bool

	// BodyStart, when set, skips every line up to and including the first
	// line containing it.
	BodyStart string

	// BodyEnd stops parsing at the first line starting with any of these
	// prefixes (leading quotes and spaces ignored).
	BodyEnd []string

	// Quoted enables quote-aware splitting.
	Quoted bool

	// Delimiter defaults to ','.
	Delimiter rune

	// HeaderTokens skips rows whose first cell equals one of them, e.g. a
	// repeated "County" header inside the body.
	HeaderTokens []string

	// ExcludeNames skips aggregate rows such as "United States".
	ExcludeNames []string

	// NumericFields must parse under Numbers or the row is dropped.
	NumericFields []string
	Numbers       NumberPolicy
}

// ParseStats summarizes one parse. Rows are dropped silently; these counts
// are the only trace they leave.
type ParseStats struct {
	Lines   int `json:"lines"`
	Blank   int `json:"blank"`
	Skipped int `json:"skipped"`
	Dropped int `json:"dropped"`
	Records int `json:"records"`
}

// ParseRecords splits delimited text into records. It never fails: malformed
// rows are dropped and a body with no valid rows yields an empty slice.
func ParseRecords(text string, opts ParseOptions) ([]Record, ParseStats) {
	var stats ParseStats
	var records []Record

	delim := opts.Delimiter
	if delim == 0 {
		delim = ','
	}

	columns := opts.Columns
	awaitingHeader := opts.HeaderRow
	started := opts.BodyStart == ""

	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		stats.Lines++

		if strings.TrimSpace(line) == "" {
			stats.Blank++
			continue
		}
		if !started {
			if strings.Contains(line, opts.BodyStart) {
				started = true
			}
			continue
		}
		if hasAnyPrefix(strings.TrimLeft(line, "\" \t"), opts.BodyEnd) {
			break
		}

		cells := splitLine(line, delim, opts.Quoted)

		if awaitingHeader {
			awaitingHeader = false
			if len(columns) == 0 {
				columns = cells
			}
			continue
		}

		if len(cells) > 0 && (slices.Contains(opts.HeaderTokens, cells[0]) || slices.Contains(opts.ExcludeNames, cells[0])) {
			stats.Skipped++
			continue
		}

		rec, ok := buildRecord(i+1, cells, columns, opts)
		if !ok {
			stats.Dropped++
			continue
		}
		records = append(records, rec)
	}

	stats.Records = len(records)
	return records, stats
}

func buildRecord(line int, cells, columns []string, opts ParseOptions) (Record, bool) {
	rec := Record{Line: line, Fields: make([]Field, 0, len(cells))}
	for j, cell := range cells {
		name := strconv.Itoa(j)
		if len(columns) > 0 {
			if j >= len(columns) {
				break
			}
			name = columns[j]
		}
		rec.Fields = append(rec.Fields, Field{Name: name, Value: cell})
	}

	if len(opts.NumericFields) == 0 {
		return rec, true
	}
	rec.numbers = make(map[string]float64, len(opts.NumericFields))
	for _, name := range opts.NumericFields {
		raw, ok := rec.Get(name)
		if !ok {
			return Record{}, false
		}
		v, ok := ParseNumber(raw, opts.Numbers)
		if !ok {
			return Record{}, false
		}
		rec.numbers[name] = v
	}
	return rec, true
}

// splitLine splits one line into trimmed cells. In quoted mode a '"' toggles
// the in-quotes state and is dropped from the cell, and the delimiter only
// separates cells outside quotes.
func splitLine(line string, delim rune, quoted bool) []string {
	if !quoted {
		parts := strings.Split(line, string(delim))
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}

	var cells []string
	var cur strings.Builder
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == delim && !inQuotes:
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	return append(cells, strings.TrimSpace(cur.String()))
}

// ParseNumber strips everything but digits and '.' (and a leading '-' when
// negatives are accepted) and parses the remainder. "$38,000" parses as 38000.
func ParseNumber(raw string, policy NumberPolicy) (float64, bool) {
	var b strings.Builder
	seenDigit := false
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			seenDigit = true
			b.WriteRune(r)
		case r == '.':
			b.WriteRune(r)
		case r == '-' && policy.AcceptNegative && !seenDigit && b.Len() == 0:
			b.WriteRune(r)
		}
	}
	if !seenDigit {
		return 0, false
	}

	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	switch {
	case v > 0:
		return v, true
	case v == 0:
		return v, policy.AcceptZero
	default:
		return v, policy.AcceptNegative
	}
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
