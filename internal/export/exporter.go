package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"booking-service/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	DefaultURLTTL = 15 * time.Minute
	contentType   = "text/csv; charset=utf-8"
)

var ErrNotConfigured = errors.New("export bucket is not configured")

var csvHeader = []string{
	"booking_id", "date", "start_time", "session_type",
	"name", "email", "phone", "student_age", "notes", "timezone", "status", "created_at",
}

type Options struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type ObjectPresigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type Result struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Rows      int       `json:"rows"`
	ExpiresAt time.Time `json:"expires_at"`
}

// S3Exporter writes booking lists as CSV objects and hands back a time-limited download link.
type S3Exporter struct {
	client    ObjectPutter
	presigner ObjectPresigner
	bucket    string
	urlTTL    time.Duration
	now       func() time.Time
}

func NewExporter(client ObjectPutter, presigner ObjectPresigner, bucket string) *S3Exporter {
	return &S3Exporter{
		client:    client,
		presigner: presigner,
		bucket:    bucket,
		urlTTL:    DefaultURLTTL,
		now:       time.Now,
	}
}

func NewS3Exporter(ctx context.Context, opts Options) (*S3Exporter, error) {
	if opts.Bucket == "" {
		return nil, ErrNotConfigured
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(opts.Region)}

	if opts.Endpoint != "" {
		resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			return aws.Endpoint{
				URL:               opts.Endpoint,
				SigningRegion:     region,
				HostnameImmutable: true,
			}, nil
		})
		loadOpts = append(loadOpts, config.WithEndpointResolverWithOptions(resolver))
	}

	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = opts.UsePathStyle
	})

	return NewExporter(client, s3.NewPresignClient(client), opts.Bucket), nil
}

func (e *S3Exporter) Export(ctx context.Context, from, to model.Date, bookings []model.Booking) (*Result, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, bookings); err != nil {
		return nil, err
	}

	now := e.now().UTC()
	key := ObjectKey(from, to, now)

	_, err := e.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(e.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", key, err)
	}

	request, err := e.presigner.PresignGetObject(ctx,
		&s3.GetObjectInput{
			Bucket: aws.String(e.bucket),
			Key:    aws.String(key),
		},
		func(opts *s3.PresignOptions) {
			opts.Expires = e.urlTTL
		},
	)
	if err != nil {
		return nil, fmt.Errorf("presign %s: %w", key, err)
	}

	return &Result{
		Key:       key,
		URL:       request.URL,
		Rows:      len(bookings),
		ExpiresAt: now.Add(e.urlTTL),
	}, nil
}

func ObjectKey(from, to model.Date, at time.Time) string {
	return fmt.Sprintf("exports/bookings_%s_%s_%s.csv", from, to, at.Format("20060102T150405Z"))
}

func WriteCSV(w io.Writer, bookings []model.Booking) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}

	for _, b := range bookings {
		age := ""
		if b.StudentAge != nil {
			age = strconv.Itoa(*b.StudentAge)
		}
		record := []string{
			b.ID.String(),
			b.Date.String(),
			b.StartTime.String(),
			string(b.SessionType),
			b.Name,
			b.Email,
			b.Phone,
			age,
			b.Notes,
			b.Timezone,
			string(b.Status),
			b.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
