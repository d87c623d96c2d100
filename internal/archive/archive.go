package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dukerupert/fairshare/internal/ledger"
	"github.com/dukerupert/fairshare/internal/model"
)

// ErrDisabled is returned when no bucket credentials are configured.
var ErrDisabled = errors.New("archive storage not configured")

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config holds S3-compatible storage configuration.
type S3Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
}

func (c S3Config) complete() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != ""
}

func newS3Client(cfg S3Config) *s3.Client {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}

// ScoreSource reads a period's ledger rows.
type ScoreSource interface {
	ListByPeriod(ctx context.Context, householdID int64, period string) ([]model.FairnessScore, error)
}

// Roster lists every member of a household, so members without a ledger
// row still count in the statistics.
type Roster interface {
	ListIDs(ctx context.Context, householdID int64) ([]int64, error)
}

// Registry remembers which periods were uploaded.
type Registry interface {
	Get(ctx context.Context, householdID int64, period string) (*model.PeriodArchive, error)
	Record(ctx context.Context, householdID int64, period, objectKey string) error
}

// Document is the JSON object written for one household and period.
type Document struct {
	HouseholdID int64                 `json:"household_id"`
	Period      string                `json:"period"`
	ArchivedAt  time.Time             `json:"archived_at"`
	Scores      []model.FairnessScore `json:"scores"`
	Stats       model.ScoreStats      `json:"stats"`
}

// Archiver uploads closed months of the fairness ledger.
type Archiver struct {
	client   s3Client
	bucket   string
	scores   ScoreSource
	members  Roster
	registry Registry
	logger   *slog.Logger
}

// New returns an Archiver. Without complete credentials the Archiver is
// disabled and every upload returns ErrDisabled.
func New(cfg S3Config, scores ScoreSource, members Roster, registry Registry, logger *slog.Logger) *Archiver {
	a := &Archiver{bucket: cfg.Bucket, scores: scores, members: members, registry: registry, logger: logger}
	if cfg.complete() {
		a.client = newS3Client(cfg)
	}
	return a
}

func (a *Archiver) Enabled() bool {
	return a != nil && a.client != nil
}

// ObjectKey is the bucket key for one household and period.
func ObjectKey(householdID int64, period string) string {
	return fmt.Sprintf("ledgers/household-%d/%s.json", householdID, period)
}

// ArchivePeriod uploads the period's scores and records the upload.
func (a *Archiver) ArchivePeriod(ctx context.Context, householdID int64, period string, now time.Time) (*model.PeriodArchive, error) {
	if !a.Enabled() {
		return nil, ErrDisabled
	}

	scores, err := a.scores.ListByPeriod(ctx, householdID, period)
	if err != nil {
		return nil, fmt.Errorf("load scores: %w", err)
	}
	if scores == nil {
		scores = []model.FairnessScore{}
	}
	ids, err := a.members.ListIDs(ctx, householdID)
	if err != nil {
		return nil, fmt.Errorf("load members: %w", err)
	}

	doc := Document{
		HouseholdID: householdID,
		Period:      period,
		ArchivedAt:  now.UTC(),
		Scores:      scores,
		Stats:       ledger.Stats(ids, ledger.NewSnapshot(householdID, period, scores).Scores(ids)),
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal archive: %w", err)
	}

	key := ObjectKey(householdID, period)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return nil, fmt.Errorf("upload to s3: %w", err)
	}

	if err := a.registry.Record(ctx, householdID, period, key); err != nil {
		return nil, err
	}
	a.logger.Info("period archived", "household_id", householdID, "period", period, "key", key, "members", len(scores))

	return a.registry.Get(ctx, householdID, period)
}

// ArchiveOnce uploads the period unless it was already archived. It reports
// whether an upload happened.
func (a *Archiver) ArchiveOnce(ctx context.Context, householdID int64, period string, now time.Time) (bool, error) {
	if !a.Enabled() {
		return false, nil
	}
	existing, err := a.registry.Get(ctx, householdID, period)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, nil
	}
	if _, err := a.ArchivePeriod(ctx, householdID, period, now); err != nil {
		return false, err
	}
	return true, nil
}

// Fetch downloads a previously archived period.
func (a *Archiver) Fetch(ctx context.Context, householdID int64, period string) (*Document, error) {
	if !a.Enabled() {
		return nil, ErrDisabled
	}
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(ObjectKey(householdID, period)),
	})
	if err != nil {
		return nil, fmt.Errorf("download from s3: %w", err)
	}
	defer out.Body.Close()

	var doc Document
	if err := json.NewDecoder(out.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode archive: %w", err)
	}
	return &doc, nil
}
