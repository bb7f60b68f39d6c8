package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// S3Config describes an S3-compatible bucket (AWS S3, MinIO, RustFS ...).
type S3Config struct {
	Endpoint      string // scheme://host[:port]
	Bucket        string
	Region        string
	AccessKey     string
	SecretKey     string
	UsePathStyle  bool
	PublicBaseURL string // prefix of the returned URLs; defaults to Endpoint/Bucket
}

// ParseS3URL reads a connection string of the form
//
//	s3://ACCESS_KEY:SECRET_KEY@host[:port]/bucket?region=us-east-1&ssl=true&path_style=true&public=https://cdn.example.com
func ParseS3URL(raw string) (S3Config, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return S3Config{}, fmt.Errorf("invalid media remote url: %w", err)
	}
	if u.Scheme != "s3" {
		return S3Config{}, fmt.Errorf("invalid media remote url: unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return S3Config{}, errors.New("invalid media remote url: missing host")
	}

	cfg := S3Config{
		Bucket:        strings.Trim(u.Path, "/"),
		Region:        u.Query().Get("region"),
		PublicBaseURL: strings.TrimRight(u.Query().Get("public"), "/"),
		UsePathStyle:  true,
	}
	if cfg.Bucket == "" {
		return S3Config{}, errors.New("invalid media remote url: missing bucket")
	}
	if u.User != nil {
		cfg.AccessKey = u.User.Username()
		cfg.SecretKey, _ = u.User.Password()
	}
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return S3Config{}, errors.New("invalid media remote url: missing credentials")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	scheme := "https"
	if v := u.Query().Get("ssl"); v != "" {
		ssl, err := strconv.ParseBool(v)
		if err != nil {
			return S3Config{}, fmt.Errorf("invalid media remote url: ssl: %w", err)
		}
		if !ssl {
			scheme = "http"
		}
	}
	if v := u.Query().Get("path_style"); v != "" {
		pathStyle, err := strconv.ParseBool(v)
		if err != nil {
			return S3Config{}, fmt.Errorf("invalid media remote url: path_style: %w", err)
		}
		cfg.UsePathStyle = pathStyle
	}
	cfg.Endpoint = scheme + "://" + u.Host
	return cfg, nil
}

type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads blobs to a bucket under a key derived from the suggested name, so a later
// upload with the same name replaces the earlier object.
type S3Store struct {
	client  putObjectAPI
	bucket  string
	baseURL string
}

// NewS3Store builds an S3 client from static credentials and a custom endpoint.
func NewS3Store(ctx context.Context, cfg S3Config) (*S3Store, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		o.BaseEndpoint = aws.String(cfg.Endpoint)
	})
	return newS3Store(client, cfg), nil
}

func newS3Store(client putObjectAPI, cfg S3Config) *S3Store {
	base := cfg.PublicBaseURL
	if base == "" {
		base = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	return &S3Store{client: client, bucket: cfg.Bucket, baseURL: base}
}

// ObjectKey returns the key a blob with the given suggested name is stored under.
func ObjectKey(name string, kind Kind) string {
	name = baseName(name)
	if name == "" {
		name = strings.ReplaceAll(uuid.New().String(), "-", "")
	}
	return string(kind) + "s/" + name
}

// Store uploads the blob and returns its public URL.
func (s *S3Store) Store(ctx context.Context, blob Blob, kind Kind) (string, error) {
	fail := func(err error) (string, error) {
		return "", &UploadError{Backend: "s3", Name: blob.Name, Err: err}
	}
	if blob.Body == nil {
		return fail(errors.New("empty body"))
	}
	data, err := io.ReadAll(contextReader{ctx: ctx, r: blob.Body})
	if err != nil {
		return fail(err)
	}

	key := ObjectKey(blob.Name, kind)
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if blob.ContentType != "" {
		input.ContentType = aws.String(blob.ContentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fail(err)
	}
	return s.baseURL + "/" + (&url.URL{Path: key}).EscapedPath(), nil
}
