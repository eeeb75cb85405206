// Package storage — S3-совместимое объектное хранилище для загруженных файлов.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
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

// PresignExpiry — срок жизни подписанных ссылок.
const PresignExpiry = time.Hour

// ErrNotConfigured — хранилище не настроено (нет бакета).
var ErrNotConfigured = errors.New("object storage not configured")

// ObjectStore — контракт объектного хранилища.
type ObjectStore interface {
	PresignPut(ctx context.Context, key, contentType string) (string, error)
	PresignGet(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
	// ObjectURL — постоянный (неподписанный) адрес объекта.
	ObjectURL(key string) string
	Bucket() string
}

// Settings — параметры подключения к S3.
type Settings struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error {
		_, err := c.PutObject(ctx, in)
		return err
	}
)

// S3Store — реализация ObjectStore поверх aws-sdk-go-v2.
type S3Store struct {
	settings Settings
	client   *s3.Client
	presign  *s3.PresignClient
}

// NewS3Store собирает клиента. Без бакета возвращает ErrNotConfigured.
func NewS3Store(ctx context.Context, s Settings) (*S3Store, error) {
	if s.Bucket == "" {
		return nil, ErrNotConfigured
	}
	if s.Region == "" {
		s.Region = "us-east-1"
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(s.Region)}
	if s.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.AccessKey, s.SecretKey, "")))
	}
	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if s.Endpoint != "" {
			o.BaseEndpoint = aws.String(strings.TrimRight(s.Endpoint, "/"))
			o.UsePathStyle = true
		}
	})
	return &S3Store{settings: s, client: client, presign: s3.NewPresignClient(client)}, nil
}

func (s *S3Store) PresignPut(ctx context.Context, key, contentType string) (string, error) {
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.settings.Bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	req, err := presignPutObject(s.presign, ctx, in, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func (s *S3Store) PresignGet(ctx context.Context, key string) (string, error) {
	req, err := presignGetObject(s.presign, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.settings.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.settings.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	return putObject(s.client, ctx, in)
}

func (s *S3Store) Bucket() string { return s.settings.Bucket }

func (s *S3Store) ObjectURL(key string) string {
	if s.settings.Endpoint != "" {
		return strings.TrimRight(s.settings.Endpoint, "/") + "/" + s.settings.Bucket + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.settings.Bucket, s.settings.Region, key)
}

// UploadKey строит ключ объекта для нового файла: uploads/<uuid>-<имя>.
func UploadKey(fileName string) string {
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "file"
	}
	return "uploads/" + uuid.NewString() + "-" + name
}

// KeyFromURL извлекает ключ объекта из file_url: путь без ведущего "/"
// и без префикса бакета для path-style адресов.
func KeyFromURL(fileURL, bucket string) (string, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return "", err
	}
	key := strings.TrimPrefix(u.Path, "/")
	if bucket != "" {
		key = strings.TrimPrefix(key, bucket+"/")
	}
	if key == "" {
		return "", fmt.Errorf("no object key in %q", fileURL)
	}
	return key, nil
}
