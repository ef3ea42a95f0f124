package indexer

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"chainsphere/core/events"
)

// Record is one emitted ledger event persisted for off-ledger querying.
// Attributes holds the JSON-rendered attribute map.
type Record struct {
	ID         uint      `gorm:"primaryKey"`
	Type       string    `gorm:"index"`
	Attributes string    `gorm:""`
	CreatedAt  time.Time `gorm:"index"`
}

// Indexer subscribes to the event fan-out and mirrors every event into an
// embedded sqlite database. Emission is fire-and-forget, so persistence
// failures are logged rather than surfaced to the engines.
type Indexer struct {
	db  *gorm.DB
	log *slog.Logger
}

// Open creates or opens the index database at path. Use "file::memory:" for
// an ephemeral index.
func Open(path string, log *slog.Logger) (*Indexer, error) {
	if log == nil {
		log = slog.Default()
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Discard,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, err
	}
	return &Indexer{db: db, log: log}, nil
}

// Emit implements the events.Emitter interface.
func (ix *Indexer) Emit(evt events.Event) {
	if ix == nil || evt == nil {
		return
	}
	record := Record{Type: evt.EventType(), CreatedAt: time.Now().UTC()}
	if payload, ok := evt.(events.Payload); ok {
		if generic := payload.Event(); generic != nil {
			encoded, err := json.Marshal(generic.Attributes)
			if err == nil {
				record.Attributes = string(encoded)
			}
		}
	}
	if err := ix.db.Create(&record).Error; err != nil {
		ix.log.Error("indexer: persist event failed", "type", record.Type, "error", err)
	}
}

// Recent returns up to limit records, newest first.
func (ix *Indexer) Recent(limit int) ([]Record, error) {
	var records []Record
	err := ix.db.Order("id desc").Limit(limit).Find(&records).Error
	return records, err
}

// ByType returns up to limit records of one event type, newest first.
func (ix *Indexer) ByType(eventType string, limit int) ([]Record, error) {
	var records []Record
	err := ix.db.Where("type = ?", eventType).Order("id desc").Limit(limit).Find(&records).Error
	return records, err
}

// Close releases the underlying database handle.
func (ix *Indexer) Close() error {
	sqlDB, err := ix.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
