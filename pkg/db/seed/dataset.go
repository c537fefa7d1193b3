// Package seed loads fixed-id datasets into the store: reference data for
// fresh environments and the rows of a restored snapshot.
package seed

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed data/sample.yaml
var sampleYAML []byte

// Row maps column names to values. Every row carries its fixed id.
type Row map[string]any

// Group is the rows of one table. Key names the natural unique key used to
// recognize rows loaded earlier; an empty key falls back to the id.
type Group struct {
	Table string   `yaml:"table" json:"table"`
	Key   []string `yaml:"key,omitempty" json:"key,omitempty"`
	Rows  []Row    `yaml:"rows" json:"rows"`
}

// Dataset is an ordered list of groups. Parents come before children.
type Dataset struct {
	Groups []Group `yaml:"groups" json:"groups"`
}

// Sample returns the bundled development dataset.
func Sample() (*Dataset, error) {
	return Parse(bytes.NewReader(sampleYAML))
}

// Parse decodes a YAML dataset.
func Parse(r io.Reader) (*Dataset, error) {
	var ds Dataset
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&ds); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("dataset is empty")
		}
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	for i, g := range ds.Groups {
		if g.Table == "" {
			return nil, fmt.Errorf("dataset group %d has no table", i)
		}
	}
	return &ds, nil
}

// ParseFile reads a YAML dataset from disk.
func ParseFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Counts returns the number of rows declared per table.
func (ds *Dataset) Counts() map[string]int {
	out := make(map[string]int, len(ds.Groups))
	for _, g := range ds.Groups {
		out[g.Table] += len(g.Rows)
	}
	return out
}

func (g Group) naturalKey() []string {
	if len(g.Key) == 0 {
		return []string{"id"}
	}
	return g.Key
}
