package snapshot

import (
	"context"
	"io"
	"time"

	"gorm.io/gorm"

	"prompterly/pkg/db/migrate"
	gos3 "prompterly/pkg/s3"
	"prompterly/pkg/schema"
)

// Versioner reports the schema version and holds off migrations while a
// snapshot is taken. *migrate.Runner implements it.
type Versioner interface {
	Version(ctx context.Context) (migrate.Marker, error)
	Quiesce(ctx context.Context) (release func(), err error)
}

// Upload names the bucket an archive is copied to after it is written. A
// non-zero LinkTTL also prints a presigned download link valid that long.
type Upload struct {
	Client  *gos3.Client
	Bucket  string
	Prefix  string
	LinkTTL time.Duration
}

// CreateConfig configures snapshot creation.
type CreateConfig struct {
	DB        *gorm.DB
	Registry  *schema.Registry
	Versioner Versioner
	Output    string
	Signer    *Signer
	// Recipient, when set, encrypts the archive to this age recipient.
	Recipient string
	Upload    *Upload
	Now       func() time.Time
	Stdout    io.Writer
}

// RestoreConfig configures snapshot restore. Source is a local path or an
// s3:// URL, which needs S3.
type RestoreConfig struct {
	DB        *gorm.DB
	Registry  *schema.Registry
	Versioner Versioner
	Source    string
	S3        *gos3.Client
	Signer    *Signer
	Stdout    io.Writer
}
