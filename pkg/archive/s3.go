package archive

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/skyops/apodsync/pkg/config"
)

// maxMediaBytes caps a single media download. APOD HD images run to a
// few tens of MB; anything past this is suspect.
const maxMediaBytes = 256 << 20

// s3Archiver implements Archiver for S3-compatible storage.
type s3Archiver struct {
	log      logrus.FieldLogger
	cfg      *config.ArchiveConfig
	client   *s3.Client
	download *http.Client
}

// Ensure interface compliance.
var _ Archiver = (*s3Archiver)(nil)

// NewS3Archiver creates a new S3 media archiver from the given
// configuration.
func NewS3Archiver(
	log logrus.FieldLogger,
	cfg *config.ArchiveConfig,
) (Archiver, error) {
	opts := []func(*s3.Options){
		func(o *s3.Options) {
			if cfg.Region != "" {
				o.Region = cfg.Region
			} else {
				o.Region = "us-east-1"
			}

			if cfg.EndpointURL != "" {
				o.BaseEndpoint = aws.String(cfg.EndpointURL)
			}

			if cfg.ForcePathStyle {
				o.UsePathStyle = true
			}

			if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
				o.Credentials = credentials.NewStaticCredentialsProvider(
					cfg.AccessKeyID, cfg.SecretAccessKey, "",
				)
			}
		},
	}

	client := s3.New(s3.Options{}, opts...)

	return &s3Archiver{
		log:    log.WithField("component", "s3-archiver"),
		cfg:    cfg,
		client: client,
		download: &http.Client{
			Timeout: cfg.DownloadTimeout,
		},
	}, nil
}

// Preflight verifies S3 connectivity by writing a small test object.
func (a *s3Archiver) Preflight(ctx context.Context) error {
	content := fmt.Sprintf("apodsync write test: %s",
		time.Now().UTC().Format(time.RFC3339))
	body := strings.NewReader(content)

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.cfg.Bucket),
		Key:         aws.String(".apodsync-write-test"),
		Body:        body,
		ContentType: aws.String("text/plain"),
	})
	if err != nil {
		return fmt.Errorf("writing test object to s3://%s: %w", a.cfg.Bucket, err)
	}

	return nil
}

// ArchiveMedia downloads the media and uploads it under
// {prefix}/{date}{ext}.
func (a *s3Archiver) ArchiveMedia(
	ctx context.Context, date, mediaURL string,
) (string, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, mediaURL, nil,
	)
	if err != nil {
		return "", fmt.Errorf("building media request: %w", err)
	}

	resp, err := a.download.Do(req)
	if err != nil {
		return "", fmt.Errorf("downloading media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("downloading media: status %d", resp.StatusCode)
	}

	key := a.objectKey(date, mediaURL)

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = contentTypeForKey(key)
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.cfg.Bucket),
		Key:         aws.String(key),
		Body:        io.LimitReader(resp.Body, maxMediaBytes),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("uploading media to s3://%s/%s: %w",
			a.cfg.Bucket, key, err)
	}

	a.log.WithFields(logrus.Fields{
		"date": date,
		"key":  key,
	}).Debug("Uploaded media object")

	return key, nil
}

// objectKey builds the archive key, preserving the media's extension
// when the URL carries one.
func (a *s3Archiver) objectKey(date, mediaURL string) string {
	ext := ""
	if u, err := url.Parse(mediaURL); err == nil {
		ext = path.Ext(u.Path)
	}

	key := date + ext
	if prefix := strings.Trim(a.cfg.Prefix, "/"); prefix != "" {
		key = prefix + "/" + key
	}

	return key
}

// contentTypeForKey guesses a content type from the key's extension.
func contentTypeForKey(key string) string {
	if contentType := mime.TypeByExtension(path.Ext(key)); contentType != "" {
		return contentType
	}

	return "application/octet-stream"
}
