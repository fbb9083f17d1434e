package utils

import (
	"fmt"
	"mime/multipart"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/Kyz7/fincore/internal/config"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	S3Session       *session.Session
	S3Bucket        string
	S3Region        string
	CloudFrontURL   string
	UseLocalStorage = true
)

// InitStorage selects S3 when USE_S3 is set and falls back to local disk
// otherwise.
func InitStorage(cfg *config.Config) error {
	UploadBasePath = cfg.UploadDir
	if !cfg.UseS3 {
		zap.L().Info("using local file storage", zap.String("dir", UploadBasePath))
		return InitLocalStorage()
	}
	return InitS3(cfg.S3Bucket, cfg.S3Region, cfg.CloudFrontURL)
}

func InitS3(bucket, region, cloudfrontURL string) error {
	if bucket == "" {
		return fmt.Errorf("S3_BUCKET is required when USE_S3 is enabled")
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(region),
	})
	if err != nil {
		return fmt.Errorf("create aws session: %w", err)
	}

	S3Session = sess
	S3Bucket = bucket
	S3Region = region
	CloudFrontURL = strings.TrimRight(cloudfrontURL, "/")
	UseLocalStorage = false
	return nil
}

// UploadFile stores file under folder and returns its public URL.
func UploadFile(file *multipart.FileHeader, folder string) (string, error) {
	if UseLocalStorage {
		return UploadToLocal(file, folder)
	}
	return UploadToS3(file, folder)
}

func UploadToS3(file *multipart.FileHeader, folder string) (string, error) {
	if S3Session == nil {
		return "", fmt.Errorf("S3 not initialized")
	}

	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	key := path.Join(folder, time.Now().Format("2006/01"), uuid.New().String()+filepath.Ext(file.Filename))

	_, err = s3.New(S3Session).PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(S3Bucket),
		Key:         aws.String(key),
		Body:        src,
		ContentType: aws.String(file.Header.Get("Content-Type")),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	return objectURL(key), nil
}

func objectURL(key string) string {
	if CloudFrontURL != "" {
		return CloudFrontURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", S3Bucket, S3Region, key)
}

func DeleteFile(fileURL string) error {
	if UseLocalStorage {
		return DeleteFromLocal(fileURL)
	}
	return DeleteFromS3(fileURL)
}

func DeleteFromS3(fileURL string) error {
	if S3Session == nil {
		return fmt.Errorf("S3 not initialized")
	}

	key, err := extractKeyFromURL(fileURL)
	if err != nil {
		return err
	}

	_, err = s3.New(S3Session).DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(S3Bucket),
		Key:    aws.String(key),
	})
	return err
}

// extractKeyFromURL maps a URL produced by objectURL back to its key.
func extractKeyFromURL(fileURL string) (string, error) {
	u, err := url.Parse(fileURL)
	if err != nil {
		return "", fmt.Errorf("invalid file url: %w", err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", fmt.Errorf("file url has no object key: %s", fileURL)
	}
	return key, nil
}

func GetStorageMode() string {
	if UseLocalStorage {
		return "local"
	}
	return "s3"
}
