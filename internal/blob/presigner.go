// Package blob hands out presigned S3 URLs for board post attachments. The
// server never proxies attachment bytes itself.
package blob

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ErrDisabled is returned when no bucket is configured.
var ErrDisabled = errors.New("attachments are not configured")

const DefaultExpires = 15 * time.Minute

// seams for tests
var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

type Config struct {
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	BaseEndpoint string
	Expires      time.Duration
}

// Presigned is a URL the client can use directly against the bucket.
type Presigned struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Presigner struct {
	cfg Config
	now func() time.Time
}

func NewPresigner(cfg Config) *Presigner {
	if cfg.Expires <= 0 {
		cfg.Expires = DefaultExpires
	}
	return &Presigner{cfg: cfg, now: time.Now}
}

// Enabled reports whether a bucket is configured.
func (p *Presigner) Enabled() bool {
	return p != nil && p.cfg.Bucket != ""
}

func (p *Presigner) client(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(p.cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			p.cfg.AccessKey,
			p.cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if p.cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(p.cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})
	return newS3PresignClient(client), nil
}

// NewObjectKey builds a unique object key for an attachment of a group.
func NewObjectKey(groupID, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	return fmt.Sprintf("groups/%s/%s/%s", groupID, uuid.NewString(), name)
}

// PresignUpload returns a PUT URL for key.
func (p *Presigner) PresignUpload(ctx context.Context, key string) (*Presigned, error) {
	if !p.Enabled() {
		return nil, ErrDisabled
	}
	pc, err := p.client(ctx)
	if err != nil {
		return nil, err
	}
	bucket := p.cfg.Bucket
	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(p.cfg.Expires))
	if err != nil {
		return nil, fmt.Errorf("presign upload %s: %w", key, err)
	}
	return &Presigned{Key: key, URL: req.URL, Method: req.Method, ExpiresAt: p.now().Add(p.cfg.Expires).UTC()}, nil
}

// PresignDownload returns a GET URL for key.
func (p *Presigner) PresignDownload(ctx context.Context, key string) (*Presigned, error) {
	if !p.Enabled() {
		return nil, ErrDisabled
	}
	pc, err := p.client(ctx)
	if err != nil {
		return nil, err
	}
	bucket := p.cfg.Bucket
	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(p.cfg.Expires))
	if err != nil {
		return nil, fmt.Errorf("presign download %s: %w", key, err)
	}
	return &Presigned{Key: key, URL: req.URL, Method: req.Method, ExpiresAt: p.now().Add(p.cfg.Expires).UTC()}, nil
}
