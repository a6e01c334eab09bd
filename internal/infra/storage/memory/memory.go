package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/artscout/artscout/internal/core/domain"
	"github.com/artscout/artscout/internal/infra/storage"
)

// MemoryStorage is the in-process backend used for tests and for runs
// without a configured database. One lock guards all tables; write volume
// here is a handful of rows per processed page.
type MemoryStorage struct {
	mu     sync.RWMutex
	urls   map[string]*domain.SourceURL
	exhib  map[int64]*domain.Exhibition
	fees   map[int64][]domain.EntryFee
	prizes map[int64][]domain.Prize
	tasks  map[string]*domain.Task

	nextURLID   int64
	nextExhibID int64
	nextChildID int64
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		urls:   make(map[string]*domain.SourceURL),
		exhib:  make(map[int64]*domain.Exhibition),
		fees:   make(map[int64][]domain.EntryFee),
		prizes: make(map[int64][]domain.Prize),
		tasks:  make(map[string]*domain.Task),
	}
}

// Ping always succeeds; the in-memory store cannot be unreachable.
func (s *MemoryStorage) Ping(ctx context.Context) error { return nil }

// -----------------------------------------------------------------------------
// URL Repository
// -----------------------------------------------------------------------------

type URLRepo struct {
	store *MemoryStorage
}

func NewURLRepo(store *MemoryStorage) *URLRepo {
	return &URLRepo{store: store}
}

func (r *URLRepo) Upsert(ctx context.Context, u *domain.SourceURL) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	now := time.Now().UTC()
	if existing, ok := r.store.urls[u.URL]; ok {
		existing.RawTitle = u.RawTitle
		existing.RawDate = u.RawDate
		existing.RawLocation = u.RawLocation
		existing.RawDescription = u.RawDescription
		existing.UpdatedAt = now
		return existing.ID, nil
	}

	r.store.nextURLID++
	row := *u
	row.ID = r.store.nextURLID
	row.FirstSeen = now
	row.UpdatedAt = now
	r.store.urls[u.URL] = &row
	return row.ID, nil
}

func (r *URLRepo) GetByURL(ctx context.Context, url string) (*domain.SourceURL, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	u, ok := r.store.urls[url]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *URLRepo) ListUnprocessed(ctx context.Context, limit int) ([]*domain.SourceURL, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	backed := make(map[int64]bool, len(r.store.exhib))
	for _, e := range r.store.exhib {
		backed[e.URLID] = true
	}

	var out []*domain.SourceURL
	for _, u := range r.store.urls {
		if !backed[u.ID] {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// -----------------------------------------------------------------------------
// Exhibition Repository
// -----------------------------------------------------------------------------

type ExhibitionRepo struct {
	store *MemoryStorage
}

func NewExhibitionRepo(store *MemoryStorage) *ExhibitionRepo {
	return &ExhibitionRepo{store: store}
}

func (r *ExhibitionRepo) ListByStartDate(ctx context.Context, start time.Time) ([]*domain.Exhibition, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	day := start.Truncate(24 * time.Hour)
	var out []*domain.Exhibition
	for _, e := range r.store.exhib {
		if e.DateStart.Truncate(24 * time.Hour).Equal(day) {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ExhibitionRepo) SaveCandidate(ctx context.Context, w *storage.CandidateWrite) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	id := w.ExhibitionID
	if id == 0 {
		r.store.nextExhibID++
		id = r.store.nextExhibID
	}

	row := *w.Exhibition
	row.ID = id
	r.store.exhib[id] = &row

	r.store.fees[id] = replaceFees(r.store.fees[id], w.Fees, id, &r.store.nextChildID)
	r.store.prizes[id] = replacePrizes(r.store.prizes[id], w.Prizes, id, &r.store.nextChildID)

	return id, nil
}

func replaceFees(existing, incoming []domain.EntryFee, exhibitionID int64, nextID *int64) []domain.EntryFee {
	if incoming == nil {
		return existing
	}
	byKey := make(map[string]domain.EntryFee, len(existing))
	key := func(f domain.EntryFee) string {
		return string(f.Type) + ":" + strconv.Itoa(f.NumberEntries)
	}
	for _, f := range existing {
		byKey[key(f)] = f
	}
	out := make([]domain.EntryFee, 0, len(incoming))
	for _, f := range incoming {
		f.ExhibitionID = exhibitionID
		if prev, ok := byKey[key(f)]; ok {
			f.ID = prev.ID
		} else {
			*nextID++
			f.ID = *nextID
		}
		out = append(out, f)
	}
	return out
}

func replacePrizes(existing, incoming []domain.Prize, exhibitionID int64, nextID *int64) []domain.Prize {
	if incoming == nil {
		return existing
	}
	byRank := make(map[int]domain.Prize, len(existing))
	for _, p := range existing {
		byRank[p.Rank] = p
	}
	out := make([]domain.Prize, 0, len(incoming))
	for _, p := range incoming {
		p.ExhibitionID = exhibitionID
		if prev, ok := byRank[p.Rank]; ok {
			p.ID = prev.ID
		} else {
			*nextID++
			p.ID = *nextID
		}
		out = append(out, p)
	}
	return out
}

func (r *ExhibitionRepo) FeesAndPrizes(ctx context.Context, exhibitionID int64) ([]domain.EntryFee, []domain.Prize, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	fees := append([]domain.EntryFee(nil), r.store.fees[exhibitionID]...)
	prizes := append([]domain.Prize(nil), r.store.prizes[exhibitionID]...)
	return fees, prizes, nil
}

func (r *ExhibitionRepo) Stats(ctx context.Context) (*storage.DatasetStats, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	stats := &storage.DatasetStats{
		URLs:        len(r.store.urls),
		Exhibitions: len(r.store.exhib),
	}
	for _, fs := range r.store.fees {
		stats.EntryFees += len(fs)
	}
	for _, ps := range r.store.prizes {
		stats.Prizes += len(ps)
	}
	for _, e := range r.store.exhib {
		if stats.EarliestDate.IsZero() || e.DateStart.Before(stats.EarliestDate) {
			stats.EarliestDate = e.DateStart
		}
		if e.DateEnd.After(stats.LatestDate) {
			stats.LatestDate = e.DateEnd
		}
	}
	return stats, nil
}

// -----------------------------------------------------------------------------
// Task Repository
// -----------------------------------------------------------------------------

type TaskRepo struct {
	store *MemoryStorage
}

func NewTaskRepo(store *MemoryStorage) *TaskRepo {
	return &TaskRepo{store: store}
}

func (r *TaskRepo) Save(ctx context.Context, t *domain.Task) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *t
	r.store.tasks[t.ID] = &cp
	return nil
}

func (r *TaskRepo) Update(ctx context.Context, t *domain.Task) error {
	return r.Save(ctx, t)
}

func (r *TaskRepo) GetByURL(ctx context.Context, url string) (*domain.Task, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	for _, t := range r.store.tasks {
		if t.URL == url {
			cp := *t
			return &cp, nil
		}
	}
	return nil, storage.ErrNotFound
}

func (r *TaskRepo) LoadResumable(ctx context.Context) ([]*domain.Task, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	var out []*domain.Task
	for _, t := range r.store.tasks {
		if !t.State.Terminal() {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *TaskRepo) CountByState(ctx context.Context) (map[domain.TaskState]int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	counts := make(map[domain.TaskState]int)
	for _, t := range r.store.tasks {
		counts[t.State]++
	}
	return counts, nil
}

