// Package catalog holds the reference table of symptoms, possible diseases and
// treatments that symptom reports are matched against.
package catalog

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Record is one row of the reference table. Case is preserved for display.
type Record struct {
	Symptom   string `yaml:"symptom" json:"symptom"`
	Diseases  string `yaml:"possible diseases" json:"diseases"`
	Treatment string `yaml:"treatment" json:"treatment"`
}

// Catalog is an immutable, ordered set of records with a lowercase symptom
// key per record. Safe for concurrent readers.
type Catalog struct {
	source  string
	records []Record
	keys    []string
	skipped int
}

// New builds a catalog from in-memory records, applying the same cleanup as
// Load. Records left with an empty field are skipped.
func New(records []Record) *Catalog {
	return build("", records)
}

func build(source string, raw []Record) *Catalog {
	c := &Catalog{
		source:  source,
		records: make([]Record, 0, len(raw)),
		keys:    make([]string, 0, len(raw)),
	}
	for _, r := range raw {
		rec := Record{
			Symptom:   cleanCell(r.Symptom),
			Diseases:  cleanCell(r.Diseases),
			Treatment: cleanCell(r.Treatment),
		}
		if rec.Symptom == "" || rec.Diseases == "" || rec.Treatment == "" {
			c.skipped++
			continue
		}
		c.records = append(c.records, rec)
		c.keys = append(c.keys, strings.ToLower(rec.Symptom))
	}
	return c
}

// cleanCell applies NFKC, drops a byte order mark and trims whitespace.
func cleanCell(s string) string {
	s = strings.ReplaceAll(s, "\ufeff", "")
	return strings.TrimSpace(norm.NFKC.String(s))
}

// Len returns the number of records; a nil catalog is empty.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.records)
}

// Record returns the i-th record.
func (c *Catalog) Record(i int) Record {
	return c.records[i]
}

// Key returns the lowercase symptom of the i-th record.
func (c *Catalog) Key(i int) string {
	return c.keys[i]
}

// Records returns a copy of all records in load order.
func (c *Catalog) Records() []Record {
	if c == nil {
		return nil
	}
	return append([]Record(nil), c.records...)
}

// Symptoms returns a copy of the lowercase symptom keys in load order.
func (c *Catalog) Symptoms() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.keys...)
}

// Skipped is the number of source rows dropped for an empty field.
func (c *Catalog) Skipped() int {
	if c == nil {
		return 0
	}
	return c.skipped
}

// Source is where the catalog was loaded from, with credentials redacted.
func (c *Catalog) Source() string {
	if c == nil {
		return ""
	}
	return displaySource(c.source)
}
