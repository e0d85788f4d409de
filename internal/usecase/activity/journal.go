package activity

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"autostream-dashboard/internal/domain"
)

// DefaultCapacity задаёт размер журнала по умолчанию.
const DefaultCapacity = 50

// Journal хранит последние записи операционного журнала, новые первыми.
// Каждая запись дублируется в zerolog.
type Journal struct {
	mu       sync.RWMutex
	entries  []domain.LogEntry
	capacity int
	log      zerolog.Logger
	now      func() time.Time
}

// NewJournal создаёт журнал. capacity <= 0 означает DefaultCapacity.
func NewJournal(logger zerolog.Logger, capacity int) *Journal {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Journal{
		capacity: capacity,
		log:      logger,
		now:      time.Now,
	}
}

// Add добавляет запись в начало и отбрасывает самые старые сверх лимита.
func (j *Journal) Add(source, message string, typ domain.LogType) domain.LogEntry {
	entry := domain.LogEntry{
		ID:        uuid.NewString(),
		Timestamp: j.now(),
		Source:    source,
		Message:   message,
		Type:      typ,
	}

	j.mu.Lock()
	j.entries = append([]domain.LogEntry{entry}, j.entries...)
	if len(j.entries) > j.capacity {
		j.entries = j.entries[:j.capacity]
	}
	j.mu.Unlock()

	var ev *zerolog.Event
	switch typ {
	case domain.LogError:
		ev = j.log.Error()
	case domain.LogWarn:
		ev = j.log.Warn()
	default:
		ev = j.log.Info()
	}
	ev.Str("source", source).Msg("journal: " + message)
	return entry
}

// Info добавляет информационную запись.
func (j *Journal) Info(source, message string) { j.Add(source, message, domain.LogInfo) }

// Warn добавляет предупреждение.
func (j *Journal) Warn(source, message string) { j.Add(source, message, domain.LogWarn) }

// Error добавляет запись об ошибке.
func (j *Journal) Error(source, message string) { j.Add(source, message, domain.LogError) }

// Entries возвращает копию журнала, новые записи первыми.
func (j *Journal) Entries() []domain.LogEntry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]domain.LogEntry, len(j.entries))
	copy(out, j.entries)
	return out
}
