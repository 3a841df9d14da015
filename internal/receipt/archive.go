package receipt

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/kelseyhightower/envconfig"
)

// Archive stores rendered receipts by order id
type Archive interface {
	Save(ctx context.Context, orderID string, body []byte) error
	Load(ctx context.Context, orderID string) ([]byte, error)
}

// Config selects where receipts are archived. Decoded from RECEIPT_* variables.
type Config struct {
	S3Bucket    string `envconfig:"S3_BUCKET"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3PathStyle bool   `envconfig:"S3_PATH_STYLE" default:"false"`
	// static credentials; the default AWS chain is used when empty
	AccessKeyID     string `envconfig:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
}

// LoadConfig reads the archive configuration from the environment
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("RECEIPT", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load receipt config: %w", err)
	}
	return cfg, nil
}

// Key is the object key of an archived receipt
func Key(orderID string) string {
	return fmt.Sprintf("receipts/%s.txt", orderID)
}

// NewArchive returns an S3 archive when a bucket is configured and an
// in-memory one otherwise
func NewArchive(ctx context.Context, cfg Config) (Archive, error) {
	if cfg.S3Bucket == "" {
		return NewMemoryArchive(), nil
	}
	return NewS3Archive(ctx, cfg)
}

// S3Archive keeps receipts in an S3-compatible bucket (AWS S3 or MinIO)
type S3Archive struct {
	client *s3.Client
	bucket string
}

// NewS3Archive builds the client from the default AWS config chain
func NewS3Archive(ctx context.Context, cfg Config, optFns ...func(*s3.Options)) (*S3Archive, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.S3Region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.S3PathStyle
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		for _, fn := range optFns {
			fn(o)
		}
	})
	return &S3Archive{client: client, bucket: cfg.S3Bucket}, nil
}

func (a *S3Archive) Save(ctx context.Context, orderID string, body []byte) error {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(Key(orderID)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/plain; charset=utf-8"),
	})
	if err != nil {
		return fmt.Errorf("failed to put receipt %s: %w", orderID, err)
	}
	return nil
}

func (a *S3Archive) Load(ctx context.Context, orderID string) ([]byte, error) {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(Key(orderID)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt %s: %w", orderID, err)
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

// MemoryArchive keeps receipts in process memory
type MemoryArchive struct {
	mu       sync.RWMutex
	receipts map[string][]byte
}

func NewMemoryArchive() *MemoryArchive {
	return &MemoryArchive{receipts: make(map[string][]byte)}
}

func (a *MemoryArchive) Save(_ context.Context, orderID string, body []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.receipts[Key(orderID)] = append([]byte(nil), body...)
	return nil
}

func (a *MemoryArchive) Load(_ context.Context, orderID string) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	body, ok := a.receipts[Key(orderID)]
	if !ok {
		return nil, fmt.Errorf("receipt %s not archived", orderID)
	}
	return append([]byte(nil), body...), nil
}
