// Package reliability periodically snapshots the on-disk entity
// database and paper trader log to S3-compatible storage, so a lost volume doesn't erase
// the wallet history or the paper-trading ledger. This is backup
// only: restore is an operational runbook step, not code.
package reliability

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// BackupTarget is one local file kept in sync with the bucket, keyed
// by the object name it is stored under.
type BackupTarget struct {
	Name string // object key prefix, e.g. "entities"
	Path string // local file path, e.g. data/entities.db
}

// BackupService uploads snapshots of every configured target to an
// S3-compatible bucket (AWS S3, Cloudflare R2, MinIO, ...) on a
// schedule. It never deletes local files; it only reads and uploads.
type BackupService struct {
	client  *s3.Client
	bucket  string
	targets []BackupTarget
	log     zerolog.Logger
}

// NewBackupService builds a BackupService. endpoint may be empty for
// stock AWS S3, or an R2/MinIO-style base URL for any other
// S3-compatible provider.
func NewBackupService(ctx context.Context, endpoint, region, accessKeyID, secretAccessKey, bucket string, targets []BackupTarget, log zerolog.Logger) (*BackupService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = true
	})

	return &BackupService{
		client:  client,
		bucket:  bucket,
		targets: targets,
		log:     log.With().Str("component", "backup").Logger(),
	}, nil
}

// Run uploads every configured target under a timestamped prefix.
// Failure on one target is logged and does not stop the others — a
// degraded backup of some targets still beats none.
func (s *BackupService) Run(ctx context.Context) error {
	start := time.Now()
	stamp := start.UTC().Format("2006-01-02T15-04-05Z")

	var failures int
	for _, t := range s.targets {
		if err := s.uploadOne(ctx, t, stamp); err != nil {
			s.log.Error().Err(err).Str("target", t.Name).Msg("backup upload failed")
			failures++
			continue
		}
		s.log.Info().Str("target", t.Name).Str("snapshot", stamp).Msg("backup uploaded")
	}

	if failures == len(s.targets) && len(s.targets) > 0 {
		return fmt.Errorf("backup: all %d targets failed", len(s.targets))
	}
	s.log.Info().Dur("elapsed", time.Since(start)).Int("failures", failures).Msg("backup pass completed")
	return nil
}

// backupObjectKey names the uploaded object: target/timestamp.ext, so
// a bucket listing sorts chronologically within each target's prefix.
func backupObjectKey(name, localPath, stamp string) string {
	return fmt.Sprintf("%s/%s%s", name, stamp, filepath.Ext(localPath))
}

// BackupJob adapts BackupService to scheduler.Job.
type BackupJob struct {
	Service *BackupService
}

// Name implements scheduler.Job.
func (j *BackupJob) Name() string { return "db_backup" }

// Run implements scheduler.Job.
func (j *BackupJob) Run(ctx context.Context) error { return j.Service.Run(ctx) }

func (s *BackupService) uploadOne(ctx context.Context, t BackupTarget, stamp string) error {
	f, err := os.Open(t.Path)
	if err != nil {
		return fmt.Errorf("open %s: %w", t.Path, err)
	}
	defer f.Close()

	key := backupObjectKey(t.Name, t.Path, stamp)
	uploader := manager.NewUploader(s.client)
	_, err = uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}
