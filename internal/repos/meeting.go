package repos

import (
  "context"
  "encoding/json"
  "fmt"
  "gorm.io/datatypes"
  "gorm.io/gorm"
  "gorm.io/gorm/clause"
  "github.com/twinmind/meeting-backend/internal/logger"
  "github.com/twinmind/meeting-backend/internal/types"
)

// MeetingRepo is the document-store adapter. Every write touches a single
// meeting row in one statement; row-level atomicity is the only
// synchronization primitive the engine relies on, so none of these methods
// may be implemented as read-modify-write.
type MeetingRepo interface {
  CreateIfAbsent(ctx context.Context, tx *gorm.DB, meeting *types.Meeting) (bool, error)
  GetByMeetingID(ctx context.Context, tx *gorm.DB, meetingID string) (*types.Meeting, error)
  GetByOwnerAndID(ctx context.Context, tx *gorm.DB, ownerUID, meetingID string) (*types.Meeting, error)
  ListByOwner(ctx context.Context, tx *gorm.DB, ownerUID string) ([]*types.Meeting, error)
  AppendTranscript(ctx context.Context, tx *gorm.DB, meetingID string, chunks []types.TranscriptChunk) (int64, error)
  AppendSearches(ctx context.Context, tx *gorm.DB, meetingID, ownerUID string, records []types.SearchRecord) (int64, error)
  SetSummary(ctx context.Context, tx *gorm.DB, meetingID, ownerUID string, summary *types.Summary) (int64, error)
}

type meetingRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewMeetingRepo(db *gorm.DB, baseLog *logger.Logger) MeetingRepo {
  repoLog := baseLog.With("repo", "MeetingRepo")
  return &meetingRepo{db: db, log: repoLog}
}

func (r *meetingRepo) CreateIfAbsent(ctx context.Context, tx *gorm.DB, meeting *types.Meeting) (bool, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  res := transaction.WithContext(ctx).
    Clauses(clause.OnConflict{
      Columns:   []clause.Column{{Name: "meeting_id"}},
      DoNothing: true,
    }).
    Create(meeting)
  if res.Error != nil {
    return false, res.Error
  }
  return res.RowsAffected > 0, nil
}

func (r *meetingRepo) GetByMeetingID(ctx context.Context, tx *gorm.DB, meetingID string) (*types.Meeting, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.Meeting
  if err := transaction.WithContext(ctx).
    Where("meeting_id = ?", meetingID).
    Limit(1).
    Find(&results).Error; err != nil {
    return nil, err
  }
  if len(results) == 0 {
    return nil, nil
  }
  return results[0], nil
}

func (r *meetingRepo) GetByOwnerAndID(ctx context.Context, tx *gorm.DB, ownerUID, meetingID string) (*types.Meeting, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.Meeting
  if err := transaction.WithContext(ctx).
    Where("owner_uid = ? AND meeting_id = ?", ownerUID, meetingID).
    Limit(1).
    Find(&results).Error; err != nil {
    return nil, err
  }
  if len(results) == 0 {
    return nil, nil
  }
  return results[0], nil
}

func (r *meetingRepo) ListByOwner(ctx context.Context, tx *gorm.DB, ownerUID string) ([]*types.Meeting, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  var results []*types.Meeting
  if err := transaction.WithContext(ctx).
    Where("owner_uid = ?", ownerUID).
    Order("start_time DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *meetingRepo) AppendTranscript(ctx context.Context, tx *gorm.DB, meetingID string, chunks []types.TranscriptChunk) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(chunks) == 0 {
    return 0, nil
  }
  expr, err := r.appendExpr("transcript", toAnySlice(chunks))
  if err != nil {
    return 0, err
  }
  res := transaction.WithContext(ctx).
    Model(&types.Meeting{}).
    Where("meeting_id = ?", meetingID).
    Update("transcript", expr)
  if res.Error != nil {
    return 0, res.Error
  }
  return res.RowsAffected, nil
}

func (r *meetingRepo) AppendSearches(ctx context.Context, tx *gorm.DB, meetingID, ownerUID string, records []types.SearchRecord) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  if len(records) == 0 {
    return 0, nil
  }
  expr, err := r.appendExpr("search_history", toAnySlice(records))
  if err != nil {
    return 0, err
  }
  res := transaction.WithContext(ctx).
    Model(&types.Meeting{}).
    Where("meeting_id = ? AND owner_uid = ?", meetingID, ownerUID).
    Update("search_history", expr)
  if res.Error != nil {
    return 0, res.Error
  }
  return res.RowsAffected, nil
}

func (r *meetingRepo) SetSummary(ctx context.Context, tx *gorm.DB, meetingID, ownerUID string, summary *types.Summary) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }
  raw, err := json.Marshal(summary)
  if err != nil {
    return 0, err
  }
  res := transaction.WithContext(ctx).
    Model(&types.Meeting{}).
    Where("meeting_id = ? AND owner_uid = ?", meetingID, ownerUID).
    Update("summary", datatypes.JSON(raw))
  if res.Error != nil {
    return 0, res.Error
  }
  return res.RowsAffected, nil
}

// appendExpr builds a single-statement JSON array append for the active
// dialect. Postgres concatenates the whole batch with ||; SQLite nests
// json_insert calls, one per item. Either way the append lands in one UPDATE,
// so concurrent appends to the same row interleave without losing items.
func (r *meetingRepo) appendExpr(column string, items []any) (any, error) {
  switch r.db.Dialector.Name() {
  case "sqlite", "sqlite3":
    inner := fmt.Sprintf("COALESCE(%s, json('[]'))", column)
    args := make([]any, 0, len(items))
    for _, item := range items {
      raw, err := json.Marshal(item)
      if err != nil {
        return nil, err
      }
      inner = fmt.Sprintf("json_insert(%s, '$[#]', json(?))", inner)
      args = append(args, string(raw))
    }
    return gorm.Expr(inner, args...), nil
  default:
    raw, err := json.Marshal(items)
    if err != nil {
      return nil, err
    }
    return gorm.Expr(fmt.Sprintf("COALESCE(%s, '[]'::jsonb) || ?::jsonb", column), string(raw)), nil
  }
}

func toAnySlice[T any](in []T) []any {
  out := make([]any, len(in))
  for i := range in {
    out[i] = in[i]
  }
  return out
}
