package archive

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dukerupert/fairshare/internal/model"
)

// mockS3Client implements s3Client for testing.
type mockS3Client struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, _ := io.ReadAll(input.Body)
	m.objects[*input.Key] = data
	if input.ContentType != nil {
		m.types[*input.Key] = *input.ContentType
	}
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, &s3NotFound{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

type s3NotFound struct{}

func (e *s3NotFound) Error() string { return "NoSuchKey" }

type fakeScores struct {
	rows []model.FairnessScore
}

func (f *fakeScores) ListByPeriod(_ context.Context, householdID int64, period string) ([]model.FairnessScore, error) {
	var out []model.FairnessScore
	for _, r := range f.rows {
		if r.HouseholdID == householdID && r.Period == period {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeRoster map[int64][]int64

func (f fakeRoster) ListIDs(_ context.Context, householdID int64) ([]int64, error) {
	return f[householdID], nil
}

type fakeRegistry struct {
	records map[string]model.PeriodArchive
}

func (f *fakeRegistry) Get(_ context.Context, householdID int64, period string) (*model.PeriodArchive, error) {
	rec, ok := f.records[ObjectKey(householdID, period)]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (f *fakeRegistry) Record(_ context.Context, householdID int64, period, objectKey string) error {
	f.records[ObjectKey(householdID, period)] = model.PeriodArchive{HouseholdID: householdID, Period: period, ObjectKey: objectKey}
	return nil
}

var now = time.Date(2026, 4, 1, 0, 5, 0, 0, time.UTC)

func newTestArchiver() (*Archiver, *mockS3Client, *fakeRegistry) {
	mock := newMockS3()
	reg := &fakeRegistry{records: make(map[string]model.PeriodArchive)}
	scores := &fakeScores{rows: []model.FairnessScore{
		{HouseholdID: 1, MemberID: 1, Period: "2026-03", Score: 18},
		{HouseholdID: 1, MemberID: 2, Period: "2026-03", Score: 20},
		{HouseholdID: 1, MemberID: 1, Period: "2026-04", Score: 3},
	}}
	members := fakeRoster{1: {1, 2}}
	a := &Archiver{client: mock, bucket: "ledgers", scores: scores, members: members, registry: reg, logger: slog.Default()}
	return a, mock, reg
}

func TestArchivePeriodRoundTrip(t *testing.T) {
	a, mock, _ := newTestArchiver()
	ctx := context.Background()

	rec, err := a.ArchivePeriod(ctx, 1, "2026-03", now)
	if err != nil {
		t.Fatalf("archive: %v", err)
	}
	if rec.ObjectKey != "ledgers/household-1/2026-03.json" {
		t.Errorf("key = %q", rec.ObjectKey)
	}
	if mock.types[rec.ObjectKey] != "application/json" {
		t.Errorf("content type = %q", mock.types[rec.ObjectKey])
	}

	doc, err := a.Fetch(ctx, 1, "2026-03")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(doc.Scores) != 2 {
		t.Errorf("scores = %d, want 2", len(doc.Scores))
	}
	if doc.Stats.FairnessIndex != 89 {
		t.Errorf("fairness index = %d, want 89", doc.Stats.FairnessIndex)
	}
}

func TestArchivePeriodCountsMembersWithoutScores(t *testing.T) {
	a, _, _ := newTestArchiver()
	a.members = fakeRoster{1: {1, 2, 3}}
	ctx := context.Background()

	if _, err := a.ArchivePeriod(ctx, 1, "2026-03", now); err != nil {
		t.Fatalf("archive: %v", err)
	}
	doc, err := a.Fetch(ctx, 1, "2026-03")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if doc.Stats.Min != 0 || doc.Stats.Average != 12.7 || doc.Stats.FairnessIndex != 0 {
		t.Errorf("stats = %+v, want min 0, average 12.7, index 0", doc.Stats)
	}
}

func TestArchiveOnce(t *testing.T) {
	a, mock, _ := newTestArchiver()
	ctx := context.Background()

	uploaded, err := a.ArchiveOnce(ctx, 1, "2026-03", now)
	if err != nil || !uploaded {
		t.Fatalf("first ArchiveOnce = %v, %v; want true, nil", uploaded, err)
	}
	mock.putErr = errors.New("should not upload again")
	uploaded, err = a.ArchiveOnce(ctx, 1, "2026-03", now)
	if err != nil || uploaded {
		t.Errorf("second ArchiveOnce = %v, %v; want false, nil", uploaded, err)
	}
}

func TestArchiveUploadFailureNotRecorded(t *testing.T) {
	a, mock, reg := newTestArchiver()
	mock.putErr = errors.New("bucket unreachable")

	if _, err := a.ArchivePeriod(context.Background(), 1, "2026-03", now); err == nil {
		t.Fatal("expected upload error")
	}
	if len(reg.records) != 0 {
		t.Errorf("records = %d, want 0 after failed upload", len(reg.records))
	}
}

func TestArchiverDisabled(t *testing.T) {
	a := New(S3Config{Bucket: "ledgers"}, &fakeScores{}, fakeRoster{}, &fakeRegistry{records: map[string]model.PeriodArchive{}}, slog.Default())
	if a.Enabled() {
		t.Fatal("archiver without credentials should be disabled")
	}
	if _, err := a.ArchivePeriod(context.Background(), 1, "2026-03", now); !errors.Is(err, ErrDisabled) {
		t.Errorf("err = %v, want ErrDisabled", err)
	}
	uploaded, err := a.ArchiveOnce(context.Background(), 1, "2026-03", now)
	if err != nil || uploaded {
		t.Errorf("ArchiveOnce disabled = %v, %v; want false, nil", uploaded, err)
	}

	enabled := New(S3Config{Bucket: "ledgers", Region: "us-east-1", AccessKey: "ak", SecretKey: "sk", Endpoint: "http://localhost:9000"},
		&fakeScores{}, fakeRoster{}, &fakeRegistry{records: map[string]model.PeriodArchive{}}, slog.Default())
	if !enabled.Enabled() {
		t.Error("archiver with credentials should be enabled")
	}
}
