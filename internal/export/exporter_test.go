package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"testing"
	"time"

	"booking-service/internal/model"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	putKey     string
	putBody    []byte
	putErr     error
	presignTTL time.Duration
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.putErr != nil {
		return nil, f.putErr
	}
	f.putKey = *params.Key
	body, _ := io.ReadAll(params.Body)
	f.putBody = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) PresignGetObject(_ context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	opts := s3.PresignOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	f.presignTTL = opts.Expires
	return &v4.PresignedHTTPRequest{URL: "https://s3.local/" + *params.Bucket + "/" + *params.Key + "?X-Amz-Signature=abc"}, nil
}

func sampleBookings(t *testing.T) []model.Booking {
	t.Helper()
	d, err := model.ParseDate("2026-10-19")
	require.NoError(t, err)
	age := 9
	return []model.Booking{
		{
			ID: uuid.MustParse("8d1c0b5e-4d7a-4a43-9a55-1c8d0f1f2a01"), Date: d, StartTime: model.NewClock(6, 0), SessionType: "kids",
			Contact: model.Contact{Name: "Aline", Email: "aline@example.com", Phone: "0788"}, StudentAge: &age,
			Notes: "first lesson, \"beginner\"", Status: model.BookingConfirmed,
			CreatedAt: time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC),
		},
		{
			ID: uuid.MustParse("8d1c0b5e-4d7a-4a43-9a55-1c8d0f1f2a02"), Date: d, StartTime: model.NewClock(6, 30), SessionType: "general",
			Contact: model.Contact{Name: "Jean", Email: "jean@example.com", Phone: "0789"}, Status: model.BookingConfirmed,
			CreatedAt: time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC),
		},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleBookings(t)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, []string{
		"8d1c0b5e-4d7a-4a43-9a55-1c8d0f1f2a01", "2026-10-19", "06:00", "kids",
		"Aline", "aline@example.com", "0788", "9", "first lesson, \"beginner\"", "", "confirmed", "2026-10-15T08:00:00Z",
	}, records[1])
	assert.Equal(t, "", records[2][7])
}

func TestS3Exporter_Export(t *testing.T) {
	fake := &fakeS3{}
	exporter := NewExporter(fake, fake, "booking-exports")
	exporter.now = func() time.Time { return time.Date(2026, 10, 15, 8, 30, 0, 0, time.UTC) }

	from, _ := model.ParseDate("2026-10-01")
	to, _ := model.ParseDate("2026-10-31")

	result, err := exporter.Export(context.Background(), from, to, sampleBookings(t))
	require.NoError(t, err)

	assert.Equal(t, "exports/bookings_2026-10-01_2026-10-31_20261015T083000Z.csv", result.Key)
	assert.Equal(t, fake.putKey, result.Key)
	assert.Equal(t, 2, result.Rows)
	assert.Contains(t, result.URL, "booking-exports/"+result.Key)
	assert.Equal(t, DefaultURLTTL, fake.presignTTL)
	assert.Equal(t, time.Date(2026, 10, 15, 8, 45, 0, 0, time.UTC), result.ExpiresAt)
	assert.Contains(t, string(fake.putBody), "aline@example.com")
}

func TestS3Exporter_UploadFails(t *testing.T) {
	fake := &fakeS3{putErr: errors.New("access denied")}
	exporter := NewExporter(fake, fake, "booking-exports")

	_, err := exporter.Export(context.Background(), model.Date{}, model.Date{}, nil)
	assert.ErrorContains(t, err, "access denied")
}

func TestNewS3Exporter_RequiresBucket(t *testing.T) {
	_, err := NewS3Exporter(context.Background(), Options{Region: "us-east-1"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestNewS3Exporter_CustomEndpoint(t *testing.T) {
	exporter, err := NewS3Exporter(context.Background(), Options{
		Endpoint:     "http://localhost:9000",
		Region:       "us-east-1",
		Bucket:       "booking-exports",
		AccessKey:    "minio",
		SecretKey:    "minio123",
		UsePathStyle: true,
	})
	require.NoError(t, err)

	req, err := exporter.presigner.PresignGetObject(context.Background(), &s3.GetObjectInput{
		Bucket: strPtr("booking-exports"),
		Key:    strPtr("exports/x.csv"),
	})
	require.NoError(t, err)
	assert.Contains(t, req.URL, "localhost:9000")
	assert.Contains(t, req.URL, "exports/x.csv")
}

func strPtr(s string) *string { return &s }
