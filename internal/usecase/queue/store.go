package queue

import (
	"sort"
	"strings"
	"sync"

	"autostream-dashboard/internal/domain"
)

// Store хранит локальный кэш очереди задач и выбранную задачу.
//
// Каждая локальная мутация увеличивает поколение. Перечитывание, начатое
// до мутации, не затирает её: патчи накладываются поверх свежих строк,
// вставки сохраняются, удалённые задачи не возвращаются.
type Store struct {
	mu         sync.RWMutex
	gen        uint64
	entries    []*entry
	selected   string
	tombstones map[string]uint64
}

type entry struct {
	item      domain.ContentItem
	pending   domain.ItemPatch
	patchGen  uint64
	insertGen uint64
}

// NewStore создаёт пустой кэш.
func NewStore() *Store {
	return &Store{tombstones: make(map[string]uint64)}
}

// Generation возвращает текущее поколение. Снимается до начала выборки.
func (s *Store) Generation() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.gen
}

// Replace атомарно заменяет содержимое кэша результатом выборки, начатой на поколении startGen.
func (s *Store) Replace(fetched []domain.ContentItem, startGen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old := make(map[string]*entry, len(s.entries))
	for _, e := range s.entries {
		old[e.item.ID] = e
	}

	next := make([]*entry, 0, len(fetched))
	seen := make(map[string]struct{}, len(fetched))
	for _, item := range fetched {
		if _, dup := seen[item.ID]; dup {
			continue
		}
		if g, ok := s.tombstones[item.ID]; ok && g > startGen {
			continue
		}
		seen[item.ID] = struct{}{}
		e := &entry{item: item}
		if prev, ok := old[item.ID]; ok && prev.patchGen > startGen {
			e.pending = prev.pending
			e.patchGen = prev.patchGen
			e.item = prev.pending.Apply(item)
		}
		next = append(next, e)
	}
	for _, prev := range s.entries {
		if _, ok := seen[prev.item.ID]; ok {
			continue
		}
		if prev.insertGen > startGen {
			next = append(next, prev)
		}
	}

	sort.SliceStable(next, func(i, j int) bool {
		return next[i].item.CreatedAt.After(next[j].item.CreatedAt)
	})

	for id, g := range s.tombstones {
		if g <= startGen {
			delete(s.tombstones, id)
		}
	}
	s.entries = next
}

// Prepend вставляет новую задачу в начало кэша.
func (s *Store) Prepend(item domain.ContentItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.removeLocked(item.ID)
	s.entries = append([]*entry{{item: item, insertGen: s.gen}}, s.entries...)
}

// Patch оптимистично применяет патч к задаче. false, если задачи нет в кэше.
func (s *Store) Patch(id string, patch domain.ItemPatch) (domain.ContentItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.item.ID != id {
			continue
		}
		s.gen++
		e.item = patch.Apply(e.item)
		e.pending = e.pending.Merge(patch)
		e.patchGen = s.gen
		return e.item, true
	}
	return domain.ContentItem{}, false
}

// Remove удаляет задачу и снимает выбор, если она была выбрана.
func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.tombstones[id] = s.gen
	s.removeLocked(id)
	if s.selected == id {
		s.selected = ""
	}
}

func (s *Store) removeLocked(id string) {
	for i, e := range s.entries {
		if e.item.ID == id {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}

// Get возвращает задачу по ID.
func (s *Store) Get(id string) (domain.ContentItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.item.ID == id {
			return e.item, true
		}
	}
	return domain.ContentItem{}, false
}

// Items возвращает задачи, чьё название содержит query без учёта регистра.
// Пустой query возвращает всё.
func (s *Store) Items(query string) []domain.ContentItem {
	q := strings.ToLower(strings.TrimSpace(query))
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ContentItem, 0, len(s.entries))
	for _, e := range s.entries {
		if q != "" && !strings.Contains(strings.ToLower(e.item.Title), q) {
			continue
		}
		out = append(out, e.item)
	}
	return out
}

// Len возвращает число задач в кэше.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Select делает задачу выбранной. false, если её нет в кэше.
func (s *Store) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.item.ID == id {
			s.selected = id
			return true
		}
	}
	return false
}

// ClearSelection снимает выбор.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	s.selected = ""
	s.mu.Unlock()
}

// Selected возвращает актуальную версию выбранной задачи.
func (s *Store) Selected() (domain.ContentItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.selected == "" {
		return domain.ContentItem{}, false
	}
	for _, e := range s.entries {
		if e.item.ID == s.selected {
			return e.item, true
		}
	}
	return domain.ContentItem{}, false
}
