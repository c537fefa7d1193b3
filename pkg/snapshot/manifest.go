package snapshot

import (
	"time"

	"gopkg.in/yaml.v3"
)

const formatVersion = "1"

// Manifest is the signed table of contents of a snapshot archive.
type Manifest struct {
	Version          string          `yaml:"version"`
	ID               string          `yaml:"id"`
	CreatedAt        time.Time       `yaml:"created_at"`
	SchemaVersion    int64           `yaml:"schema_version"`
	SchemaMigration  string          `yaml:"schema_migration"`
	Driver           string          `yaml:"driver"`
	Signer           string          `yaml:"signer,omitempty"`
	SigningPublicKey string          `yaml:"signing_public_key,omitempty"`
	Signature        string          `yaml:"signature,omitempty"`
	Tables           []ManifestTable `yaml:"tables"`
}

// SigningBytes marshals the manifest without its signature for signing/verification.
func (m Manifest) SigningBytes() ([]byte, error) {
	clone := m
	clone.Signature = ""
	return yaml.Marshal(clone)
}

// Rows is the total row count across tables.
func (m Manifest) Rows() int64 {
	var n int64
	for _, t := range m.Tables {
		n += t.Rows
	}
	return n
}

// ManifestTable describes one exported table file.
type ManifestTable struct {
	Table  string `yaml:"table"`
	Path   string `yaml:"path"`
	Rows   int64  `yaml:"rows"`
	Size   int64  `yaml:"size"`
	SHA256 string `yaml:"sha256"`
}
