package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/twinmind/meeting-backend/internal/logger"
)

// AudioArchiveService keeps the raw audio of ingested chunks in object
// storage. Archival is best-effort: the transcript is the system of record,
// the archive exists for replay and debugging, and a failed upload never
// fails the ingest.
type AudioArchiveService interface {
	ArchiveChunk(ctx context.Context, meetingID string, offset int64, mimeType string, audio []byte) error
	Close() error
}

type gcsArchiveService struct {
	log           *logger.Logger
	storageClient *storage.Client
	bucketName    string
}

func NewGCSArchiveService(log *logger.Logger) (AudioArchiveService, error) {
	bucketName := strings.TrimSpace(os.Getenv("MEETING_AUDIO_BUCKET"))
	if bucketName == "" {
		return nil, fmt.Errorf("missing MEETING_AUDIO_BUCKET")
	}
	serviceLog := log.With("service", "GCSArchiveService")

	creds := strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))

	ctx := context.Background()
	var client *storage.Client
	var err error
	if creds != "" {
		client, err = storage.NewClient(ctx, option.WithCredentialsFile(creds))
	} else {
		client, err = storage.NewClient(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("storage client: %w", err)
	}

	return &gcsArchiveService{
		log:           serviceLog,
		storageClient: client,
		bucketName:    bucketName,
	}, nil
}

func (s *gcsArchiveService) ArchiveChunk(ctx context.Context, meetingID string, offset int64, mimeType string, audio []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	key := fmt.Sprintf("meetings/%s/chunks/%d%s", meetingID, offset, extensionForMime(mimeType))
	w := s.storageClient.Bucket(s.bucketName).Object(key).NewWriter(ctx)
	w.ContentType = mimeType
	if _, err := w.Write(audio); err != nil {
		_ = w.Close()
		return fmt.Errorf("archive write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("archive close %s: %w", key, err)
	}
	return nil
}

func (s *gcsArchiveService) Close() error {
	if s == nil || s.storageClient == nil {
		return nil
	}
	return s.storageClient.Close()
}
