package audit

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventType represents the type of points event being recorded
type EventType string

const (
	EventTypeAwardDecision EventType = "award_decision"
	EventTypeBatchSummary  EventType = "batch_summary"
	EventTypeReferralClaim EventType = "referral_claim"
	EventTypeSeasonChange  EventType = "season_change"
)

// PointsEventLog is one structured observability row: one per award
// decision, one summary per batch run. Kept separate from the
// PointEvent audit trail, which only records successful awards.
type PointsEventLog struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	EventType string    `gorm:"type:varchar(32);index"`
	Outcome   string    `gorm:"type:varchar(32);index"`
	Wallet    string    `gorm:"type:varchar(64);index"`
	Metadata  string    `gorm:"type:text"` // JSON string of additional data
	CreatedAt time.Time `gorm:"index"`
}

// Recorder is the event emission interface the services depend on.
type Recorder interface {
	Record(ctx context.Context, eventType EventType, outcome, wallet string, metadata map[string]interface{})
}

// Logger persists structured events to the store and mirrors them to
// the process log.
type Logger struct {
	db *gorm.DB
}

// NewLogger creates a new points event logger
func NewLogger(db *gorm.DB) *Logger {
	return &Logger{db: db}
}

// Record writes one event row. Failures are logged and swallowed:
// observability must never fail the operation it observes.
func (l *Logger) Record(ctx context.Context, eventType EventType, outcome, wallet string, metadata map[string]interface{}) {
	var metaJSON string
	if metadata != nil {
		if b, err := json.Marshal(metadata); err == nil {
			metaJSON = string(b)
		}
	}

	entry := PointsEventLog{
		ID:        uuid.New(),
		EventType: string(eventType),
		Outcome:   outcome,
		Wallet:    wallet,
		Metadata:  metaJSON,
		CreatedAt: time.Now(),
	}

	if err := l.db.WithContext(ctx).Create(&entry).Error; err != nil {
		log.Printf("Failed to write points event log (%s/%s): %v", eventType, outcome, err)
	}
}

// NopRecorder discards all events. Used in tests and as the default
// when no store-backed logger is wired.
type NopRecorder struct{}

func (NopRecorder) Record(ctx context.Context, eventType EventType, outcome, wallet string, metadata map[string]interface{}) {
}
