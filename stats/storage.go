package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

const monthLayout = "2006-01"

// MonthlyStats holds operational counters for one month
type MonthlyStats struct {
	Requests           int       `json:"requests"`
	Errors             int       `json:"errors"`
	Audits             int       `json:"audits"`
	FetchFailures      int       `json:"fetch_failures"`
	ReputationLookups  int       `json:"reputation_lookups"`
	HeuristicFallbacks int       `json:"heuristic_fallbacks"`
	LastUpdated        time.Time `json:"last_updated"`
}

func (m *MonthlyStats) add(d MonthlyStats) {
	m.Requests += d.Requests
	m.Errors += d.Errors
	m.Audits += d.Audits
	m.FetchFailures += d.FetchFailures
	m.ReputationLookups += d.ReputationLookups
	m.HeuristicFallbacks += d.HeuristicFallbacks
}

// Storage handles persistent storage of statistics
type Storage struct {
	mutex       sync.RWMutex
	stats       map[string]*MonthlyStats // key: "YYYY-MM"
	filePath    string
	lastWrite   time.Time
	now         func() time.Time
	writeBuffer chan struct{}
	stop        chan struct{}
	done        chan struct{}
	stopOnce    sync.Once
}

// Option configures a Storage
type Option func(*Storage)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Storage) {
		s.now = now
	}
}

// NewStorage creates a new statistics storage instance
func NewStorage(dataDir string, opts ...Option) (*Storage, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Storage{
		stats:       make(map[string]*MonthlyStats),
		filePath:    filepath.Join(dataDir, "stats.json"),
		now:         time.Now,
		writeBuffer: make(chan struct{}, 1),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load stats: %w", err)
	}

	go s.backgroundWriter()

	return s, nil
}

func (s *Storage) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	return json.Unmarshal(data, &s.stats)
}

// Flush writes statistics to disk through a temporary file and rename
func (s *Storage) Flush() error {
	s.mutex.RLock()
	data, err := json.Marshal(s.stats)
	s.mutex.RUnlock()

	if err != nil {
		return fmt.Errorf("failed to marshal stats: %w", err)
	}

	tempFile := s.filePath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tempFile, s.filePath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}

func (s *Storage) backgroundWriter() {
	defer close(s.done)
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.writeBuffer:
			_ = s.Flush()
		case <-ticker.C:
			_ = s.Flush()
		case <-s.stop:
			return
		}
	}
}

// MonthKey returns the period key for t
func MonthKey(t time.Time) string {
	return t.Format(monthLayout)
}

func (s *Storage) requestWrite() {
	select {
	case s.writeBuffer <- struct{}{}:
	default:
		// write already pending
	}
}

// IncrementStats adds delta to the current month's counters
func (s *Storage) IncrementStats(delta MonthlyStats) {
	now := s.now()
	month := MonthKey(now)

	s.mutex.Lock()
	defer s.mutex.Unlock()

	stats, exists := s.stats[month]
	if !exists {
		stats = &MonthlyStats{}
		s.stats[month] = stats
	}
	stats.add(delta)
	stats.LastUpdated = now

	if now.Sub(s.lastWrite) > time.Minute {
		s.requestWrite()
		s.lastWrite = now
	}
}

// CurrentMonth is the period key of the storage clock
func (s *Storage) CurrentMonth() string {
	return MonthKey(s.now())
}

// GetCurrentStats returns statistics for the current month
func (s *Storage) GetCurrentStats() MonthlyStats {
	stats, _ := s.GetMonthlyStats(s.CurrentMonth())
	return stats
}

// GetMonthlyStats returns statistics for a specific month
func (s *Storage) GetMonthlyStats(yearMonth string) (MonthlyStats, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if stats, exists := s.stats[yearMonth]; exists {
		return *stats, true
	}
	return MonthlyStats{}, false
}

// Cleanup drops every month older than the retained window, the current month included in the count
func (s *Storage) Cleanup(retainMonths int) {
	if retainMonths < 1 {
		retainMonths = 1
	}
	now := s.now()
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	keep := make(map[string]bool, retainMonths)
	for i := 0; i < retainMonths; i++ {
		keep[MonthKey(first.AddDate(0, -i, 0))] = true
	}

	s.mutex.Lock()
	for key := range s.stats {
		if !keep[key] {
			delete(s.stats, key)
		}
	}
	s.mutex.Unlock()

	s.requestWrite()
}

// GetAllMonths returns all months with statistics, newest first
func (s *Storage) GetAllMonths() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	months := make([]string, 0, len(s.stats))
	for month := range s.stats {
		months = append(months, month)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))

	return months
}

// Shutdown stops the background writer and persists the final state
func (s *Storage) Shutdown() error {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
	return s.Flush()
}
