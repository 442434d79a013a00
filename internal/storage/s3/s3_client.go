package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"weddingplan/internal/config"
	"weddingplan/internal/port"
)

const (
	keyPrefix      = "imports"
	maxNameLen     = 100
	textSourceName = "source.txt"
)

// unsafeNameChars matches runs of characters kept out of archive object keys.
var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

type sourceArchive struct {
	bucket    string
	presigner *s3.PresignClient
	uploader  *manager.Uploader
}

// NewSourceArchive creates the S3-backed archive for committed import sources. A custom
// endpoint (MinIO, LocalStack) switches the client to path-style addressing.
func NewSourceArchive(cfg *config.S3Config) (port.SourceArchive, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 source archive: bucket is required")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &sourceArchive{
		bucket:    cfg.Bucket,
		presigner: s3.NewPresignClient(client),
		uploader:  manager.NewUploader(client),
	}, nil
}

// Store uploads one import source under imports/<wedding>/<session>/<name>. The object is
// served as an attachment carrying the original file name and tagged with its ids.
func (a *sourceArchive) Store(ctx context.Context, src port.ArchiveSource) (*port.ArchivedSource, error) {
	name := SourceName(src.Filename, src.ContentType)
	key := SourceKey(src, name)
	out, err := a.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(a.bucket),
		Key:                aws.String(key),
		Body:               bytes.NewReader(src.Body),
		ContentType:        aws.String(src.ContentType),
		ContentDisposition: aws.String(contentDisposition(src.Filename, name)),
		Metadata: map[string]string{
			"wedding-id": src.WeddingID.String(),
			"session-id": src.SessionID.String(),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sourceArchive.Store %s: %w", key, err)
	}
	return &port.ArchivedSource{Key: key, Location: out.Location, ETag: aws.ToString(out.ETag)}, nil
}

func (a *sourceArchive) DownloadURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	req, err := a.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("sourceArchive.DownloadURL %s: %w", key, err)
	}
	return req.URL, nil
}

// SourceKey is the object key of an archived import source.
func SourceKey(src port.ArchiveSource, name string) string {
	return path.Join(keyPrefix, src.WeddingID.String(), src.SessionID.String(), name)
}

// SourceName turns an uploaded file name into a key-safe PDF name. Anything that is not
// a PDF is typed text and is stored as source.txt.
func SourceName(filename, contentType string) string {
	if !strings.HasPrefix(contentType, "application/pdf") {
		return textSourceName
	}
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	name = strings.Trim(unsafeNameChars.ReplaceAllString(strings.TrimSuffix(name, path.Ext(name)), "_"), "_")
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	if name == "" {
		name = "source"
	}
	return name + ".pdf"
}

// contentDisposition offers the original upload name when it can be encoded, else the key name.
func contentDisposition(original, name string) string {
	if original != "" {
		base := path.Base(strings.ReplaceAll(original, "\\", "/"))
		if v := mime.FormatMediaType("attachment", map[string]string{"filename": base}); v != "" {
			return v
		}
	}
	return mime.FormatMediaType("attachment", map[string]string{"filename": name})
}
