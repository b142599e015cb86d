package queue

import (
	"context"
	"sync"
	"time"

	"github.com/bytekstore/bytek/pkg/logger"
	"gorm.io/gorm"
)

// FailedJob is a job that exhausted its retries.
type FailedJob struct {
	ID       uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Type     string    `gorm:"size:255;not null;index" json:"type"`
	Payload  string    `gorm:"type:text;not null" json:"payload"`
	Error    string    `gorm:"type:text" json:"error"`
	Attempts int       `gorm:"not null;default:0" json:"attempts"`
	FailedAt time.Time `gorm:"not null" json:"failed_at"`
}

func (FailedJob) TableName() string { return "failed_jobs" }

// FailureStore keeps failed jobs for later inspection.
type FailureStore interface {
	Record(ctx context.Context, f FailedJob)
	List(ctx context.Context) ([]FailedJob, error)
}

// MemoryFailureStore is the default store.
type MemoryFailureStore struct {
	mu   sync.Mutex
	jobs []FailedJob
}

func NewMemoryFailureStore() *MemoryFailureStore { return &MemoryFailureStore{} }

func (s *MemoryFailureStore) Record(_ context.Context, f FailedJob) {
	s.mu.Lock()
	s.jobs = append(s.jobs, f)
	s.mu.Unlock()
}

func (s *MemoryFailureStore) List(context.Context) ([]FailedJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]FailedJob(nil), s.jobs...), nil
}

// DBFailureStore writes failures to the failed_jobs table.
type DBFailureStore struct {
	db *gorm.DB
}

func NewDBFailureStore(db *gorm.DB) *DBFailureStore { return &DBFailureStore{db: db} }

func (s *DBFailureStore) Record(ctx context.Context, f FailedJob) {
	if err := s.db.WithContext(ctx).Create(&f).Error; err != nil {
		logger.Error("queue: persist failed job", "type", f.Type, "error", err)
	}
}

func (s *DBFailureStore) List(ctx context.Context) ([]FailedJob, error) {
	var out []FailedJob
	err := s.db.WithContext(ctx).Order("failed_at desc").Find(&out).Error
	return out, err
}
