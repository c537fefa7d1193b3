// Package snapshot exports the store into signed, compressed archives and
// restores them into a store at the same schema version.
//
// An archive is a zstd-compressed tar holding manifest.yaml and one JSON
// lines file per registry table, in foreign key order. It may additionally
// be encrypted to an age recipient.
package snapshot

import (
	"archive/tar"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"filippo.io/age"
	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"prompterly/pkg/db"
	"prompterly/pkg/schema"
)

const (
	manifestFileName = "manifest.yaml"
	tablesTarPrefix  = "tables"
)

// Create exports every registry table and writes the archive to Output. It
// fails with migrate.ErrMigrationInProgress while a migration is running.
func Create(ctx context.Context, cfg CreateConfig) (*Manifest, error) {
	switch {
	case cfg.DB == nil:
		return nil, errors.New("db is required")
	case cfg.Registry == nil:
		return nil, errors.New("registry is required")
	case cfg.Versioner == nil:
		return nil, errors.New("versioner is required")
	case cfg.Output == "":
		return nil, errors.New("output path is required")
	case cfg.Signer == nil:
		return nil, errors.New("signer is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Stdout == nil {
		cfg.Stdout = io.Discard
	}

	var recipient age.Recipient
	if cfg.Recipient != "" {
		r, err := age.ParseX25519Recipient(cfg.Recipient)
		if err != nil {
			return nil, fmt.Errorf("parse age recipient: %w", err)
		}
		recipient = r
	}

	release, err := cfg.Versioner.Quiesce(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	marker, err := cfg.Versioner.Version(ctx)
	if err != nil {
		return nil, err
	}
	if marker.Version == 0 {
		return nil, errors.New("store has no schema version; run migrations first")
	}

	tempDir, err := os.MkdirTemp("", "prompterly-snapshot-*")
	if err != nil {
		return nil, fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	manifest := &Manifest{
		Version:          formatVersion,
		ID:               uuid.NewString(),
		CreatedAt:        cfg.Now().UTC().Truncate(time.Second),
		SchemaVersion:    marker.Version,
		SchemaMigration:  marker.ID(),
		Driver:           string(db.DriverOf(cfg.DB)),
		Signer:           cfg.Signer.Recipient(),
		SigningPublicKey: cfg.Signer.PublicKeyBase64(),
	}
	for i, t := range cfg.Registry.Tables() {
		entry, err := exportTable(ctx, cfg.DB, t, tempDir, fmt.Sprintf("%04d_%s.jsonl", i+1, t.Name))
		if err != nil {
			return nil, err
		}
		manifest.Tables = append(manifest.Tables, entry)
	}

	payload, err := manifest.SigningBytes()
	if err != nil {
		return nil, fmt.Errorf("marshal manifest for signing: %w", err)
	}
	sig, err := cfg.Signer.Sign(payload)
	if err != nil {
		return nil, fmt.Errorf("sign manifest: %w", err)
	}
	manifest.Signature = sig

	manifestBytes, err := yaml.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("marshal manifest: %w", err)
	}
	if err := writeArchive(cfg.Output, manifestBytes, tempDir, manifest.Tables, recipient); err != nil {
		return nil, err
	}
	fmt.Fprintf(cfg.Stdout, "wrote snapshot %s (schema %s, %d tables, %d rows)\n",
		cfg.Output, manifest.SchemaMigration, len(manifest.Tables), manifest.Rows())

	if cfg.Upload != nil {
		key, err := upload(ctx, cfg.Upload, cfg.Output, manifest.CreatedAt)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(cfg.Stdout, "uploaded s3://%s/%s\n", cfg.Upload.Bucket, key)
		if cfg.Upload.LinkTTL > 0 {
			link, err := cfg.Upload.Client.PresignGet(ctx, cfg.Upload.Bucket, key, cfg.Upload.LinkTTL)
			if err != nil {
				return nil, fmt.Errorf("presign snapshot link: %w", err)
			}
			fmt.Fprintf(cfg.Stdout, "download link (valid %s): %s\n", cfg.Upload.LinkTTL, link)
		}
	}
	return manifest, nil
}

// exportTable writes the table's registry columns as JSON lines ordered by
// primary key, hashing the file as it goes.
func exportTable(ctx context.Context, gdb *gorm.DB, t *schema.Table, dir, name string) (ManifestTable, error) {
	entry := ManifestTable{Table: t.Name, Path: path.Join(tablesTarPrefix, name)}

	rows, err := gdb.WithContext(ctx).Table(t.Name).Select(t.ColumnNames()).Order(t.PrimaryKey).Rows()
	if err != nil {
		return entry, fmt.Errorf("export %s: %w", t.Name, err)
	}
	defer rows.Close()
	cols, err := rows.Columns()
	if err != nil {
		return entry, fmt.Errorf("export %s: %w", t.Name, err)
	}

	file, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return entry, fmt.Errorf("create %s: %w", name, err)
	}
	defer file.Close()

	hash := sha256.New()
	counter := &countingWriter{w: io.MultiWriter(file, hash)}
	enc := json.NewEncoder(counter)

	raw := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return entry, fmt.Errorf("scan %s: %w", t.Name, err)
		}
		row := make(map[string]any, len(cols))
		for i, col := range cols {
			c, ok := t.Column(col)
			if !ok {
				return entry, fmt.Errorf("export %s: unexpected column %q", t.Name, col)
			}
			row[col] = exportValue(c, raw[i])
		}
		if err := enc.Encode(row); err != nil {
			return entry, fmt.Errorf("encode %s row: %w", t.Name, err)
		}
		entry.Rows++
	}
	if err := rows.Err(); err != nil {
		return entry, fmt.Errorf("export %s: %w", t.Name, err)
	}

	entry.Size = counter.n
	entry.SHA256 = hex.EncodeToString(hash.Sum(nil))
	return entry, nil
}

// exportValue normalises driver values so that JSON documents stay documents
// and text does not turn into base64.
func exportValue(c *schema.Column, v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case []byte:
		switch c.Type {
		case schema.TypeBytes:
			return x
		case schema.TypeJSON:
			if json.Valid(x) {
				return json.RawMessage(append([]byte(nil), x...))
			}
		}
		return string(x)
	case string:
		if c.Type == schema.TypeJSON && json.Valid([]byte(x)) {
			return json.RawMessage(x)
		}
	case time.Time:
		return x.UTC()
	case int64:
		if c.Type == schema.TypeBool {
			return x != 0
		}
	}
	return v
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func writeArchive(output string, manifest []byte, dir string, tables []ManifestTable, recipient age.Recipient) (err error) {
	if d := filepath.Dir(output); d != "." {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	file, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer func() { err = multierr.Append(err, file.Close()) }()

	var sink io.Writer = file
	if recipient != nil {
		enc, encErr := age.Encrypt(file, recipient)
		if encErr != nil {
			return fmt.Errorf("age encrypt: %w", encErr)
		}
		defer func() { err = multierr.Append(err, enc.Close()) }()
		sink = enc
	}

	encoder, err := zstd.NewWriter(sink)
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}
	defer func() { err = multierr.Append(err, encoder.Close()) }()

	tw := tar.NewWriter(encoder)
	defer func() { err = multierr.Append(err, tw.Close()) }()

	now := time.Now().UTC()
	if err := tw.WriteHeader(&tar.Header{
		Name:     manifestFileName,
		Mode:     0o644,
		Size:     int64(len(manifest)),
		ModTime:  now,
		Typeflag: tar.TypeReg,
	}); err != nil {
		return fmt.Errorf("write manifest header: %w", err)
	}
	if _, err := tw.Write(manifest); err != nil {
		return fmt.Errorf("write manifest body: %w", err)
	}

	for _, entry := range tables {
		if err := addFile(tw, filepath.Join(dir, path.Base(entry.Path)), entry, now); err != nil {
			return err
		}
	}
	return nil
}

func addFile(tw *tar.Writer, src string, entry ManifestTable, now time.Time) error {
	file, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %q: %w", entry.Path, err)
	}
	defer file.Close()

	if err := tw.WriteHeader(&tar.Header{
		Name:     entry.Path,
		Mode:     0o644,
		Size:     entry.Size,
		ModTime:  now,
		Typeflag: tar.TypeReg,
	}); err != nil {
		return fmt.Errorf("write header for %q: %w", entry.Path, err)
	}
	if _, err := io.Copy(tw, file); err != nil {
		return fmt.Errorf("copy %q: %w", entry.Path, err)
	}
	return nil
}

func upload(ctx context.Context, up *Upload, archive string, created time.Time) (string, error) {
	if up.Client == nil || up.Bucket == "" {
		return "", errors.New("upload needs an s3 client and a bucket")
	}
	sum, size, err := hashFile(archive)
	if err != nil {
		return "", err
	}
	file, err := os.Open(archive)
	if err != nil {
		return "", fmt.Errorf("open %q for upload: %w", archive, err)
	}
	defer file.Close()

	key := path.Join(up.Prefix, created.Format("2006/01/02"), filepath.Base(archive))
	if err := up.Client.PutObject(ctx, up.Bucket, key, file, size, sum); err != nil {
		return "", fmt.Errorf("upload snapshot: %w", err)
	}
	return key, nil
}

func hashFile(p string) (string, int64, error) {
	file, err := os.Open(p)
	if err != nil {
		return "", 0, fmt.Errorf("open %q: %w", p, err)
	}
	defer file.Close()
	hash := sha256.New()
	size, err := io.Copy(hash, file)
	if err != nil {
		return "", 0, fmt.Errorf("hash %q: %w", p, err)
	}
	return hex.EncodeToString(hash.Sum(nil)), size, nil
}
