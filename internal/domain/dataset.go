package domain

import (
	"maps"
	"slices"
)

// CountyValue holds the numeric fields recorded for one county.
type CountyValue struct {
	Key    string             `json:"key"`
	Name   string             `json:"name"`
	Values map[string]float64 `json:"values"`
}

// DatasetOptions selects the name and value fields of a record stream.
type DatasetOptions struct {
	NameField   string
	ValueFields []string

	// Scale multiplies every value, e.g. 0.001 for income in thousands.
	// Zero means no rescaling.
	Scale float64
}

// CountyDataset maps county keys to values. It is immutable once built and
// safe for concurrent readers.
type CountyDataset struct {
	source     string
	entries    map[string]CountyValue
	order      []string
	collisions int
	skipped    int
}

// BuildDataset keys records by their normalized name field. Rows are applied
// in input order and a later row for the same key replaces the earlier one;
// each replacement is counted in Collisions. Rows without a name or without
// every value field are skipped. A dataset with no entries is a *ParseError.
func BuildDataset(source string, records []Record, opts DatasetOptions) (*CountyDataset, error) {
	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}

	ds := &CountyDataset{
		source:  source,
		entries: make(map[string]CountyValue, len(records)),
	}

	for _, rec := range records {
		raw, _ := rec.Get(opts.NameField)
		key := NormalizeCountyName(raw)
		if key == "" {
			ds.skipped++
			continue
		}

		values, ok := extractValues(rec, opts.ValueFields, scale)
		if !ok {
			ds.skipped++
			continue
		}

		if _, exists := ds.entries[key]; exists {
			ds.collisions++
		} else {
			ds.order = append(ds.order, key)
		}
		ds.entries[key] = CountyValue{Key: key, Name: DisplayName(raw), Values: values}
	}

	if len(ds.entries) == 0 {
		return nil, &ParseError{
			Source: source,
			Reason: "no usable county rows",
			Stats:  ParseStats{Records: len(records), Dropped: ds.skipped},
		}
	}
	return ds, nil
}

func extractValues(rec Record, fields []string, scale float64) (map[string]float64, bool) {
	values := make(map[string]float64, len(fields))
	for _, field := range fields {
		v, ok := rec.Number(field)
		if !ok {
			return nil, false
		}
		values[field] = v * scale
	}
	return values, true
}

// Source names the file the dataset was built from.
func (d *CountyDataset) Source() string {
	if d == nil {
		return ""
	}
	return d.source
}

// Len returns the number of distinct counties.
func (d *CountyDataset) Len() int { return len(d.entries) }

// Collisions returns how many rows overwrote an earlier row with the same key.
func (d *CountyDataset) Collisions() int { return d.collisions }

// Skipped returns how many records lacked a usable name or value.
func (d *CountyDataset) Skipped() int { return d.skipped }

// Lookup resolves a raw display name by trying each of CountyVariants in
// order. It reports false rather than a default value when nothing matches.
func (d *CountyDataset) Lookup(rawName string) (map[string]float64, bool) {
	e, ok := d.resolve(rawName)
	if !ok {
		return nil, false
	}
	return maps.Clone(e.Values), true
}

// Value is Lookup narrowed to a single field.
func (d *CountyDataset) Value(rawName, field string) (float64, bool) {
	e, ok := d.resolve(rawName)
	if !ok {
		return 0, false
	}
	v, ok := e.Values[field]
	return v, ok
}

// Entries returns copies of all entries in first-seen key order.
func (d *CountyDataset) Entries() []CountyValue {
	out := make([]CountyValue, 0, len(d.order))
	for _, key := range d.order {
		e := d.entries[key]
		e.Values = maps.Clone(e.Values)
		out = append(out, e)
	}
	return out
}

// Extent returns the minimum and maximum of a field across all entries.
func (d *CountyDataset) Extent(field string) (lo, hi float64, ok bool) {
	if d == nil {
		return 0, 0, false
	}
	for _, key := range d.order {
		v, has := d.entries[key].Values[field]
		if !has {
			continue
		}
		if !ok {
			lo, hi, ok = v, v, true
			continue
		}
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi, ok
}

// Keys returns the county keys in first-seen order.
func (d *CountyDataset) Keys() []string {
	return slices.Clone(d.order)
}

func (d *CountyDataset) resolve(rawName string) (CountyValue, bool) {
	if d == nil {
		return CountyValue{}, false
	}
	for _, variant := range CountyVariants(rawName) {
		if e, ok := d.entries[variant]; ok {
			return e, true
		}
	}
	return CountyValue{}, false
}
