package services

import (
  "context"
  "fmt"
  "strings"
  "time"

  "github.com/google/uuid"
  "gorm.io/datatypes"

  "github.com/twinmind/meeting-backend/internal/apperr"
  "github.com/twinmind/meeting-backend/internal/logger"
  "github.com/twinmind/meeting-backend/internal/repos"
  "github.com/twinmind/meeting-backend/internal/types"
)

type InitializeMeetingInput struct {
  MeetingID   string
  OwnerUID    string
  Name        string
  Description string
  StartTime   string
  EndTime     string
  CreatedAt   string
}

type SearchItemInput struct {
  Question string
  Answer   string
  AskedAt  string
}

// MeetingService owns meeting lifecycle state: idempotent creation, ordered
// accumulation of transcript chunks, search history, and the read surface.
// It holds no state of its own; every operation goes through the repo, so
// instances are freely replicable.
type MeetingService interface {
  InitializeMeeting(ctx context.Context, in InitializeMeetingInput) (string, error)
  IngestChunk(ctx context.Context, meetingID string, offset int64, audio []byte, mimeType string) (string, error)
  AppendSearches(ctx context.Context, meetingID, ownerUID string, items []SearchItemInput) (int64, error)
  ListForUser(ctx context.Context, ownerUID string) ([]*types.Meeting, error)
  Find(ctx context.Context, ownerUID, meetingID string) (*types.Meeting, error)
}

type meetingService struct {
  log         *logger.Logger
  meetingRepo repos.MeetingRepo
  transcriber TranscriptionService
  archive     AudioArchiveService
}

func NewMeetingService(log *logger.Logger, meetingRepo repos.MeetingRepo, transcriber TranscriptionService, archive AudioArchiveService) MeetingService {
  serviceLog := log.With("service", "MeetingService")
  return &meetingService{
    log:         serviceLog,
    meetingRepo: meetingRepo,
    transcriber: transcriber,
    archive:     archive,
  }
}

func (s *meetingService) InitializeMeeting(ctx context.Context, in InitializeMeetingInput) (string, error) {
  if strings.TrimSpace(in.MeetingID) == "" {
    return "", apperr.Validation("missing required field: meetingId")
  }
  if strings.TrimSpace(in.OwnerUID) == "" {
    return "", apperr.Validation("missing required field: uid")
  }
  if strings.TrimSpace(in.Name) == "" {
    return "", apperr.Validation("missing required field: meetingName")
  }
  if in.Description == "" {
    return "", apperr.Validation("missing required field: meetingDescription")
  }
  startTime, err := parseTimestamp(in.StartTime)
  if err != nil {
    return "", apperr.Validation("invalid meetingStartTime: %v", err)
  }
  endTime, err := parseTimestamp(in.EndTime)
  if err != nil {
    return "", apperr.Validation("invalid meetingEndTime: %v", err)
  }
  createdAt, err := parseTimestamp(in.CreatedAt)
  if err != nil {
    return "", apperr.Validation("invalid createdAt: %v", err)
  }

  meeting := &types.Meeting{
    ID:            uuid.New(),
    MeetingID:     in.MeetingID,
    OwnerUID:      in.OwnerUID,
    Name:          in.Name,
    Description:   in.Description,
    StartTime:     startTime,
    EndTime:       endTime,
    CreatedAt:     createdAt,
    Transcript:    datatypes.JSON("[]"),
    SearchHistory: datatypes.JSON("[]"),
  }

  created, err := s.meetingRepo.CreateIfAbsent(ctx, nil, meeting)
  if err != nil {
    return "", apperr.Store(fmt.Errorf("initialize meeting: %w", err))
  }
  if !created {
    // Replayed init: the existing document is left untouched.
    s.log.Debug("Meeting already initialized", "meeting_id", in.MeetingID)
  }
  return in.MeetingID, nil
}

func (s *meetingService) IngestChunk(ctx context.Context, meetingID string, offset int64, audio []byte, mimeType string) (string, error) {
  if strings.TrimSpace(meetingID) == "" {
    return "", apperr.Validation("missing required field: meetingId")
  }
  if !strings.HasPrefix(strings.ToLower(mimeType), "audio/") {
    return "", apperr.InvalidMedia("expected audio content type, got %q", mimeType)
  }
  if len(audio) == 0 {
    return "", apperr.Validation("empty audio payload")
  }

  text, err := s.transcriber.Transcribe(ctx, audio, mimeType)
  if err != nil {
    // Nothing was written; the client retries with the same offset.
    return "", apperr.Transcription(err)
  }

  applied, err := s.meetingRepo.AppendTranscript(ctx, nil, meetingID, []types.TranscriptChunk{{Offset: offset, Text: text}})
  if err != nil {
    return "", apperr.Store(fmt.Errorf("append transcript chunk: %w", err))
  }
  if applied == 0 {
    return "", apperr.NotFound("meeting %s not found", meetingID)
  }

  if s.archive != nil {
    if aErr := s.archive.ArchiveChunk(ctx, meetingID, offset, mimeType, audio); aErr != nil {
      s.log.Warn("Audio archive failed", "meeting_id", meetingID, "offset", offset, "error", aErr)
    }
  }

  return text, nil
}

func (s *meetingService) AppendSearches(ctx context.Context, meetingID, ownerUID string, items []SearchItemInput) (int64, error) {
  if strings.TrimSpace(meetingID) == "" {
    return 0, apperr.Validation("missing required field: meetingId")
  }
  if strings.TrimSpace(ownerUID) == "" {
    return 0, apperr.Validation("missing required field: uid")
  }
  if len(items) == 0 {
    return 0, apperr.Validation("empty searches batch")
  }

  // The batch is validated as a whole before anything is written: one bad
  // item rejects the lot.
  records := make([]types.SearchRecord, 0, len(items))
  for i, item := range items {
    if strings.TrimSpace(item.Question) == "" {
      return 0, apperr.Validation("searches[%d]: empty question", i)
    }
    if strings.TrimSpace(item.Answer) == "" {
      return 0, apperr.Validation("searches[%d]: empty answer", i)
    }
    askedAt, err := parseTimestamp(item.AskedAt)
    if err != nil {
      return 0, apperr.Validation("searches[%d]: invalid timestamp: %v", i, err)
    }
    records = append(records, types.SearchRecord{
      Question: item.Question,
      Answer:   item.Answer,
      AskedAt:  askedAt,
    })
  }

  applied, err := s.meetingRepo.AppendSearches(ctx, nil, meetingID, ownerUID, records)
  if err != nil {
    return 0, apperr.Store(fmt.Errorf("append searches: %w", err))
  }
  if applied == 0 {
    return 0, apperr.NotFound("meeting %s not found", meetingID)
  }
  return int64(len(records)), nil
}

func (s *meetingService) ListForUser(ctx context.Context, ownerUID string) ([]*types.Meeting, error) {
  if strings.TrimSpace(ownerUID) == "" {
    return nil, apperr.Validation("missing required field: uid")
  }
  meetings, err := s.meetingRepo.ListByOwner(ctx, nil, ownerUID)
  if err != nil {
    return nil, apperr.Store(fmt.Errorf("list meetings: %w", err))
  }
  return meetings, nil
}

func (s *meetingService) Find(ctx context.Context, ownerUID, meetingID string) (*types.Meeting, error) {
  if strings.TrimSpace(ownerUID) == "" || strings.TrimSpace(meetingID) == "" {
    return nil, apperr.Validation("missing uid or meetingId")
  }
  meeting, err := s.meetingRepo.GetByOwnerAndID(ctx, nil, ownerUID, meetingID)
  if err != nil {
    return nil, apperr.Store(fmt.Errorf("find meeting: %w", err))
  }
  return meeting, nil
}

// parseTimestamp accepts RFC3339 (with Z or numeric offset) and normalizes to
// UTC before storage.
func parseTimestamp(value string) (time.Time, error) {
  value = strings.TrimSpace(value)
  if value == "" {
    return time.Time{}, fmt.Errorf("empty timestamp")
  }
  t, err := time.Parse(time.RFC3339, value)
  if err != nil {
    return time.Time{}, err
  }
  return t.UTC(), nil
}
