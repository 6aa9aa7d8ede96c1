package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"melotree/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

var minioClient *minio.Client

// InitMinio initializes the MinIO client and ensures the bucket exists.
func InitMinio() error {
	cfg := config.Load()

	log.Printf("Connecting to MinIO at %s (bucket: %s)...", cfg.MinioEndpoint, cfg.MinioBucket)

	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure: cfg.MinioUseSSL,
		Region: cfg.MinioRegion,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, cfg.MinioBucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.MinioBucket, minio.MakeBucketOptions{Region: cfg.MinioRegion}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		log.Printf("Created bucket: %s", cfg.MinioBucket)
	}

	minioClient = client
	log.Println("MinIO client initialized successfully.")
	return nil
}

// GetMinioClient returns the MinIO client instance.
func GetMinioClient() *minio.Client {
	return minioClient
}

// UploadLibraryCSV stores the raw library CSV under objectKey, byte-for-byte.
// The stored object is what the download endpoint later serves unchanged.
func UploadLibraryCSV(ctx context.Context, objectKey string, raw []byte) error {
	if minioClient == nil {
		return fmt.Errorf("MinIO client not initialized")
	}

	cfg := config.Load()
	_, err := minioClient.PutObject(ctx, cfg.MinioBucket, objectKey,
		bytes.NewReader(raw), int64(len(raw)),
		minio.PutObjectOptions{ContentType: "text/csv"})
	if err != nil {
		return fmt.Errorf("failed to upload library CSV %s: %w", objectKey, err)
	}
	return nil
}

// GetLibraryCSV opens the stored raw CSV for reading. The caller must close
// the returned reader.
func GetLibraryCSV(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	if minioClient == nil {
		return nil, fmt.Errorf("MinIO client not initialized")
	}

	cfg := config.Load()
	object, err := minioClient.GetObject(ctx, cfg.MinioBucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get library CSV %s: %w", objectKey, err)
	}
	return object, nil
}

// StatLibraryCSV checks that the stored raw CSV exists. Unlike GetLibraryCSV,
// which opens the object lazily, this fails immediately when the object is
// missing.
func StatLibraryCSV(ctx context.Context, objectKey string) error {
	if minioClient == nil {
		return fmt.Errorf("MinIO client not initialized")
	}

	cfg := config.Load()
	if _, err := minioClient.StatObject(ctx, cfg.MinioBucket, objectKey, minio.StatObjectOptions{}); err != nil {
		return fmt.Errorf("failed to stat library CSV %s: %w", objectKey, err)
	}
	return nil
}

// RemoveLibraryCSV deletes the stored raw CSV.
func RemoveLibraryCSV(ctx context.Context, objectKey string) error {
	if minioClient == nil {
		return fmt.Errorf("MinIO client not initialized")
	}

	cfg := config.Load()
	if err := minioClient.RemoveObject(ctx, cfg.MinioBucket, objectKey, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove library CSV %s: %w", objectKey, err)
	}
	return nil
}

// VerifyMinio performs a write/read/delete round trip against the bucket.
// Used by the minio diagnostics command.
func VerifyMinio(ctx context.Context) error {
	if minioClient == nil {
		return fmt.Errorf("MinIO client not initialized")
	}

	cfg := config.Load()
	testObjectName := "test/connection.txt"
	testContent := "MinIO connection verification. Created at: " + time.Now().String()

	_, err := minioClient.PutObject(ctx, cfg.MinioBucket, testObjectName,
		strings.NewReader(testContent), int64(len(testContent)),
		minio.PutObjectOptions{ContentType: "text/plain"})
	if err != nil {
		return fmt.Errorf("failed to upload test object: %w", err)
	}

	object, err := minioClient.GetObject(ctx, cfg.MinioBucket, testObjectName, minio.GetObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to get test object: %w", err)
	}
	defer object.Close()

	content, err := io.ReadAll(object)
	if err != nil {
		return fmt.Errorf("failed to read test object: %w", err)
	}
	if string(content) != testContent {
		return fmt.Errorf("unexpected test object content")
	}

	if err := minioClient.RemoveObject(ctx, cfg.MinioBucket, testObjectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove test object: %w", err)
	}
	return nil
}
