package catalog

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/themobileprof/medibot-be/internal/db"
)

const (
	colSymptom   = "symptom"
	colDiseases  = "possible diseases"
	colTreatment = "treatment"
)

// diseaseAliases are accepted header spellings for the diseases column.
var diseaseAliases = []string{colDiseases, "diseases", "disease", "possible_diseases"}

// RowQuerier reads catalog rows from a database. *db.DB satisfies it.
type RowQuerier interface {
	ListCatalogRows(ctx context.Context) ([]db.CatalogRow, error)
}

// Load reads a catalog from a CSV/TSV file, a YAML file, or a postgres URL.
// Failures match ErrLoad or ErrSchema.
func Load(ctx context.Context, source string) (*Catalog, error) {
	if isDatabaseSource(source) {
		return loadDatabase(ctx, source)
	}

	switch ext := strings.ToLower(filepath.Ext(source)); ext {
	case ".csv":
		return loadDelimited(source, ',')
	case ".tsv":
		return loadDelimited(source, '\t')
	case ".yaml", ".yml":
		return loadYAML(source)
	default:
		return nil, &LoadError{Source: source, Err: fmt.Errorf("unsupported catalog format %q", ext)}
	}
}

func isDatabaseSource(source string) bool {
	return strings.HasPrefix(source, "postgres://") || strings.HasPrefix(source, "postgresql://")
}

func loadDelimited(path string, comma rune) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	defer f.Close()

	return parseDelimited(path, f, comma)
}

func parseDelimited(source string, r io.Reader, comma rune) (*Catalog, error) {
	reader := csv.NewReader(r)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, &SchemaError{Source: source, Missing: []string{colSymptom, colDiseases, colTreatment}}
	}
	if err != nil {
		return nil, &LoadError{Source: source, Err: fmt.Errorf("failed to read header: %w", err)}
	}

	cols, err := resolveColumns(source, header)
	if err != nil {
		return nil, err
	}

	var raw []Record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &LoadError{Source: source, Err: fmt.Errorf("failed to read row: %w", err)}
		}
		raw = append(raw, Record{
			Symptom:   cell(row, cols.symptom),
			Diseases:  cell(row, cols.diseases),
			Treatment: cell(row, cols.treatment),
		})
	}

	return build(source, raw), nil
}

type columns struct {
	symptom, diseases, treatment int
}

// resolveColumns finds the required columns after trimming and lowercasing
// the header names.
func resolveColumns(source string, header []string) (columns, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		name := normalizeHeader(h)
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	cols := columns{symptom: -1, diseases: -1, treatment: -1}
	if i, ok := index[colSymptom]; ok {
		cols.symptom = i
	}
	for _, alias := range diseaseAliases {
		if i, ok := index[alias]; ok {
			cols.diseases = i
			break
		}
	}
	if i, ok := index[colTreatment]; ok {
		cols.treatment = i
	}

	var missing []string
	if cols.symptom < 0 {
		missing = append(missing, colSymptom)
	}
	if cols.diseases < 0 {
		missing = append(missing, colDiseases)
	}
	if cols.treatment < 0 {
		missing = append(missing, colTreatment)
	}
	if len(missing) > 0 {
		return cols, &SchemaError{Source: source, Missing: missing}
	}
	return cols, nil
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

type yamlDocument struct {
	Records []map[string]string `yaml:"records"`
}

// loadYAML reads a document with a top-level records list whose keys follow
// the same header rules as the tabular sources.
func loadYAML(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}

	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Source: path, Err: fmt.Errorf("failed to parse yaml: %w", err)}
	}
	if len(doc.Records) == 0 {
		return build(path, nil), nil
	}

	// aliases are resolved per record, so one document may mix spellings
	var found columns
	raw := make([]Record, 0, len(doc.Records))
	for _, m := range doc.Records {
		fields := make(map[string]string, len(m))
		for k, v := range m {
			fields[normalizeHeader(k)] = v
		}

		symptom, okS := lookup(fields, colSymptom)
		diseases, okD := lookup(fields, diseaseAliases...)
		treatment, okT := lookup(fields, colTreatment)
		found.symptom += count(okS)
		found.diseases += count(okD)
		found.treatment += count(okT)

		raw = append(raw, Record{Symptom: symptom, Diseases: diseases, Treatment: treatment})
	}

	var missing []string
	if found.symptom == 0 {
		missing = append(missing, colSymptom)
	}
	if found.diseases == 0 {
		missing = append(missing, colDiseases)
	}
	if found.treatment == 0 {
		missing = append(missing, colTreatment)
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Source: path, Missing: missing}
	}
	return build(path, raw), nil
}

// lookup returns the first of names present in fields
func lookup(fields map[string]string, names ...string) (string, bool) {
	for _, name := range names {
		if v, ok := fields[name]; ok {
			return v, true
		}
	}
	return "", false
}

func count(ok bool) int {
	if ok {
		return 1
	}
	return 0
}

func loadDatabase(ctx context.Context, source string) (*Catalog, error) {
	conn, err := db.New(db.Config{URL: source, MaxConnections: 2})
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}
	defer conn.Close()

	return LoadRows(ctx, source, conn)
}

// LoadRows builds a catalog from database rows.
func LoadRows(ctx context.Context, source string, q RowQuerier) (*Catalog, error) {
	rows, err := q.ListCatalogRows(ctx)
	if err != nil {
		return nil, &LoadError{Source: source, Err: err}
	}

	raw := make([]Record, len(rows))
	for i, r := range rows {
		raw[i] = Record{Symptom: r.Symptom, Diseases: r.Diseases, Treatment: r.Treatment}
	}
	return build(source, raw), nil
}
