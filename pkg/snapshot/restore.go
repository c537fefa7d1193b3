package snapshot

import (
	"archive/tar"
	"bufio"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"filippo.io/age"
	"github.com/klauspost/compress/zstd"
	"gopkg.in/yaml.v3"

	"prompterly/pkg/db/seed"
	gos3 "prompterly/pkg/s3"
	"prompterly/pkg/schema"
)

var (
	// ErrVersionMismatch means the target store is not at the snapshot's schema version.
	ErrVersionMismatch = errors.New("schema version mismatch")
	// ErrCorrupt covers archives whose manifest, signature or files do not check out.
	ErrCorrupt = errors.New("snapshot archive is corrupt")
)

var ageHeader = []byte("age-encryption.org/")

// Restore verifies the archive at Source and loads its rows through the seed
// loader. The target must be migrated to the snapshot's schema version.
func Restore(ctx context.Context, cfg RestoreConfig) (*Manifest, *seed.Result, error) {
	switch {
	case cfg.DB == nil:
		return nil, nil, errors.New("db is required")
	case cfg.Registry == nil:
		return nil, nil, errors.New("registry is required")
	case cfg.Versioner == nil:
		return nil, nil, errors.New("versioner is required")
	case cfg.Source == "":
		return nil, nil, errors.New("snapshot source is required")
	case cfg.Signer == nil:
		return nil, nil, errors.New("signer is required")
	}
	if cfg.Stdout == nil {
		cfg.Stdout = io.Discard
	}

	tempDir, err := os.MkdirTemp("", "prompterly-restore-*")
	if err != nil {
		return nil, nil, fmt.Errorf("temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	archive := cfg.Source
	if strings.HasPrefix(archive, "s3://") {
		archive, err = download(ctx, cfg.S3, cfg.Source, tempDir)
		if err != nil {
			return nil, nil, err
		}
	}

	manifest, files, err := extract(ctx, archive, tempDir, cfg.Signer)
	if err != nil {
		return nil, nil, err
	}
	fmt.Fprintf(cfg.Stdout, "verified snapshot %s signed at %s\n", manifest.ID, manifest.CreatedAt.Format(time.RFC3339))

	marker, err := cfg.Versioner.Version(ctx)
	if err != nil {
		return nil, nil, err
	}
	if marker.Version != manifest.SchemaVersion {
		return nil, nil, fmt.Errorf("%w: snapshot is at %s, store is at %s", ErrVersionMismatch, manifest.SchemaMigration, marker.ID())
	}

	ds := &seed.Dataset{}
	for _, entry := range manifest.Tables {
		t, ok := cfg.Registry.Table(entry.Table)
		if !ok {
			return nil, nil, fmt.Errorf("%w: unknown table %q", ErrCorrupt, entry.Table)
		}
		rows, err := readRows(files[entry.Path], t)
		if err != nil {
			return nil, nil, err
		}
		if int64(len(rows)) != entry.Rows {
			return nil, nil, fmt.Errorf("%w: %s has %d rows, manifest says %d", ErrCorrupt, entry.Table, len(rows), entry.Rows)
		}
		ds.Groups = append(ds.Groups, seed.Group{Table: entry.Table, Rows: rows})
	}

	loader, err := seed.New(cfg.DB, cfg.Registry)
	if err != nil {
		return nil, nil, err
	}
	res, err := loader.Load(ctx, ds)
	if err != nil {
		return manifest, res, err
	}
	fmt.Fprintf(cfg.Stdout, "restored %d rows (%d already present)\n", res.Inserted(), res.Skipped())
	return manifest, res, nil
}

func download(ctx context.Context, client *gos3.Client, url, dir string) (string, error) {
	if client == nil {
		return "", errors.New("s3 client is required for s3:// sources")
	}
	bucket, key, err := gos3.ParseURL(url)
	if err != nil {
		return "", err
	}
	obj, err := client.GetObject(ctx, bucket, key)
	if err != nil {
		return "", err
	}
	defer obj.Body.Close()

	target := filepath.Join(dir, "archive")
	file, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create download file: %w", err)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(io.MultiWriter(file, hash), obj.Body); err != nil {
		return "", fmt.Errorf("download %s: %w", url, err)
	}
	if obj.SHA256 != "" && !strings.EqualFold(obj.SHA256, hex.EncodeToString(hash.Sum(nil))) {
		return "", fmt.Errorf("%w: sha256 mismatch for %s", ErrCorrupt, url)
	}
	return target, nil
}

// extract unpacks the archive into dir, verifies the manifest signature and
// every table file, and returns the file paths keyed by archive path.
func extract(ctx context.Context, archive, dir string, signer *Signer) (*Manifest, map[string]string, error) {
	file, err := os.Open(archive)
	if err != nil {
		return nil, nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer file.Close()

	br := bufio.NewReader(file)
	var src io.Reader = br
	if head, _ := br.Peek(len(ageHeader)); bytes.Equal(head, ageHeader) {
		if signer.identity == nil {
			return nil, nil, errors.New("snapshot is encrypted; AGE_SECRET_KEY is required")
		}
		src, err = age.Decrypt(src, signer.identity)
		if err != nil {
			return nil, nil, fmt.Errorf("age decrypt: %w", err)
		}
	}

	decoder, err := zstd.NewReader(src)
	if err != nil {
		return nil, nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer decoder.Close()

	var (
		manifestBytes []byte
		files         = map[string]string{}
	)
	tr := tar.NewReader(decoder)
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read tar entry: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		name := filepath.ToSlash(filepath.Clean(header.Name))
		if name == manifestFileName {
			if manifestBytes, err = io.ReadAll(tr); err != nil {
				return nil, nil, fmt.Errorf("read manifest: %w", err)
			}
			continue
		}
		if !strings.HasPrefix(name, tablesTarPrefix+"/") || strings.Contains(name, "..") {
			return nil, nil, fmt.Errorf("%w: unexpected entry %q", ErrCorrupt, name)
		}
		target := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return nil, nil, fmt.Errorf("mkdir %q: %w", filepath.Dir(target), err)
		}
		if err := writeFile(target, tr); err != nil {
			return nil, nil, fmt.Errorf("extract %q: %w", name, err)
		}
		files[name] = target
	}

	if len(manifestBytes) == 0 {
		return nil, nil, fmt.Errorf("%w: missing %s", ErrCorrupt, manifestFileName)
	}
	var manifest Manifest
	if err := yaml.Unmarshal(manifestBytes, &manifest); err != nil {
		return nil, nil, fmt.Errorf("%w: unmarshal manifest: %v", ErrCorrupt, err)
	}
	if manifest.Version != formatVersion {
		return nil, nil, fmt.Errorf("unsupported manifest version %q", manifest.Version)
	}
	if manifest.Signature == "" {
		return nil, nil, fmt.Errorf("%w: manifest missing signature", ErrCorrupt)
	}
	payload, err := manifest.SigningBytes()
	if err != nil {
		return nil, nil, fmt.Errorf("marshal manifest for verification: %w", err)
	}
	if err := signer.Verify(payload, manifest.Signature, manifest.SigningPublicKey); err != nil {
		return nil, nil, fmt.Errorf("%w: verify manifest signature: %v", ErrCorrupt, err)
	}

	for _, entry := range manifest.Tables {
		p, ok := files[entry.Path]
		if !ok {
			return nil, nil, fmt.Errorf("%w: %q missing from archive", ErrCorrupt, entry.Path)
		}
		sum, size, err := hashFile(p)
		if err != nil {
			return nil, nil, err
		}
		if size != entry.Size {
			return nil, nil, fmt.Errorf("%w: size mismatch for %q: expected %d got %d", ErrCorrupt, entry.Path, entry.Size, size)
		}
		if !strings.EqualFold(sum, entry.SHA256) {
			return nil, nil, fmt.Errorf("%w: sha256 mismatch for %q", ErrCorrupt, entry.Path)
		}
	}
	return &manifest, files, nil
}

func writeFile(target string, r io.Reader) error {
	file, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(file, r); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// readRows decodes a JSON lines table file. JSON columns are re-encoded and
// byte columns base64-decoded so the loader stores them unchanged.
func readRows(p string, t *schema.Table) ([]seed.Row, error) {
	file, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("open %s rows: %w", t.Name, err)
	}
	defer file.Close()

	var rows []seed.Row
	dec := json.NewDecoder(file)
	dec.UseNumber()
	for {
		var row seed.Row
		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: decode %s row %d: %v", ErrCorrupt, t.Name, len(rows)+1, err)
		}
		for col, v := range row {
			c, ok := t.Column(col)
			if !ok || v == nil {
				continue
			}
			switch c.Type {
			case schema.TypeJSON:
				raw, err := json.Marshal(v)
				if err != nil {
					return nil, fmt.Errorf("encode %s.%s: %w", t.Name, col, err)
				}
				row[col] = raw
			case schema.TypeBytes:
				if s, ok := v.(string); ok {
					raw, err := base64.StdEncoding.DecodeString(s)
					if err != nil {
						return nil, fmt.Errorf("%w: %s.%s: %v", ErrCorrupt, t.Name, col, err)
					}
					row[col] = raw
				}
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
