// Package backup periodically uploads collection snapshots to an
// S3-compatible bucket. Each run writes one timestamped object per
// collection plus a rolling "latest" copy used for disaster recovery.
package backup

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"lims-backend/internal/store"
)

type Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Interval  time.Duration
}

type Uploader struct {
	store    *store.Store
	client   *s3.Client
	bucket   string
	interval time.Duration
}

func NewUploader(ctx context.Context, st *store.Store, cfg Config) (*Uploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to configure backup client: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	interval := cfg.Interval
	if interval <= 0 {
		interval = 30 * time.Minute
	}
	return &Uploader{store: st, client: client, bucket: cfg.Bucket, interval: interval}, nil
}

// Run uploads snapshots on every tick until the context is cancelled.
// A failed upload is logged and retried on the next tick.
func (u *Uploader) Run(ctx context.Context) {
	ticker := time.NewTicker(u.interval)
	defer ticker.Stop()

	log.Printf("[Backup] Scheduler running, interval %s", u.interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := u.UploadAll(ctx); err != nil {
				log.Printf("[Backup] Upload failed: %v", err)
			}
		}
	}
}

// UploadAll snapshots every collection and writes both a timestamped
// and a latest object for each.
func (u *Uploader) UploadAll(ctx context.Context) error {
	stamp := time.Now().UTC().Format("20060102-150405")

	for _, col := range store.Collections() {
		data, err := u.store.Snapshot(col)
		if err != nil {
			return fmt.Errorf("failed to snapshot %s: %w", col, err)
		}
		keys := []string{
			fmt.Sprintf("backups/%s/%s.json", stamp, col),
			fmt.Sprintf("latest/%s.json", col),
		}
		for _, key := range keys {
			_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
				Bucket:      aws.String(u.bucket),
				Key:         aws.String(key),
				Body:        bytes.NewReader(data),
				ContentType: aws.String("application/json"),
			})
			if err != nil {
				return fmt.Errorf("failed to upload %s: %w", key, err)
			}
		}
	}
	log.Printf("[Backup] Uploaded snapshot set %s", stamp)
	return nil
}

// Restore pulls the latest snapshot set into the persistence backend so
// a fresh store.Load picks it up.
func (u *Uploader) Restore(ctx context.Context) (map[string][]byte, error) {
	out := make(map[string][]byte)
	for _, col := range store.Collections() {
		key := fmt.Sprintf("latest/%s.json", col)
		result, err := u.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(u.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			// Missing collections are fine on a fresh bucket
			continue
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(result.Body); err != nil {
			result.Body.Close()
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		result.Body.Close()
		out[col] = buf.Bytes()
	}
	return out, nil
}
