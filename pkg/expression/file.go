package expression

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FileProvider reads expression profiles from a JSON or CSV/TSV file.
//
// JSON files hold either a flat {"gene": level} object (one unnamed
// condition) or a nested {"condition": {"gene": level}} object. CSV/TSV
// files carry a header row: the first column is the gene id, each further
// column is one condition named by its header.
type FileProvider struct {
	path string
}

// NewFileProvider creates a provider backed by the given file.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path}
}

func (p *FileProvider) ID() ProviderID {
	return ProviderID("file:" + p.path)
}

// Fetch loads and parses the file on every call; profiles are small and
// callers fetch once per solve.
func (p *FileProvider) Fetch(ctx context.Context, condition string) (Profile, error) {
	if err := ctx.Err(); err != nil {
		return Profile{}, err
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		return Profile{}, fmt.Errorf("reading expression file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(p.path)) {
	case ".json":
		return p.fetchJSON(data, condition)
	case ".csv":
		return p.fetchDelimited(data, condition, ',')
	case ".tsv", ".tab":
		return p.fetchDelimited(data, condition, '\t')
	default:
		return Profile{}, fmt.Errorf("unsupported expression file format: %s", p.path)
	}
}

func (p *FileProvider) fetchJSON(data []byte, condition string) (Profile, error) {
	// Try the flat form first.
	var flat map[string]float64
	if err := json.Unmarshal(data, &flat); err == nil {
		if condition != "" {
			return Profile{}, fmt.Errorf("expression file %s has no named conditions", p.path)
		}
		return Profile{Levels: flat}, nil
	}

	var nested map[string]map[string]float64
	if err := json.Unmarshal(data, &nested); err != nil {
		return Profile{}, fmt.Errorf("parsing expression file %s: %w", p.path, err)
	}
	if condition == "" {
		if len(nested) != 1 {
			return Profile{}, fmt.Errorf("expression file %s has %d conditions, name one", p.path, len(nested))
		}
		for name, levels := range nested {
			return Profile{Condition: name, Levels: levels}, nil
		}
	}
	levels, ok := nested[condition]
	if !ok {
		return Profile{}, fmt.Errorf("condition %q not found in %s", condition, p.path)
	}
	return Profile{Condition: condition, Levels: levels}, nil
}

func (p *FileProvider) fetchDelimited(data []byte, condition string, sep rune) (Profile, error) {
	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.Comma = sep
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return Profile{}, fmt.Errorf("parsing expression file %s: %w", p.path, err)
	}
	if len(rows) < 2 || len(rows[0]) < 2 {
		return Profile{}, fmt.Errorf("expression file %s needs a header row and at least one data row", p.path)
	}

	header := rows[0]
	col := 1
	if condition != "" {
		col = -1
		for i := 1; i < len(header); i++ {
			if strings.EqualFold(strings.TrimSpace(header[i]), condition) {
				col = i
				break
			}
		}
		if col < 0 {
			return Profile{}, fmt.Errorf("condition %q not found in %s", condition, p.path)
		}
	} else if len(header) > 2 {
		return Profile{}, fmt.Errorf("expression file %s has %d conditions, name one", p.path, len(header)-1)
	}

	levels := make(map[string]float64, len(rows)-1)
	for i, row := range rows[1:] {
		if len(row) <= col {
			return Profile{}, fmt.Errorf("expression file %s: row %d has %d columns", p.path, i+2, len(row))
		}
		gene := strings.TrimSpace(row[0])
		if gene == "" {
			continue
		}
		level, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
		if err != nil {
			return Profile{}, fmt.Errorf("expression file %s: row %d: %w", p.path, i+2, err)
		}
		levels[gene] = level
	}
	return Profile{Condition: strings.TrimSpace(header[col]), Levels: levels}, nil
}
