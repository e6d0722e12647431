// Package stats tracks usage metrics for completed transcriptions in a
// JSON store: lifetime totals, a per-day breakdown, and a derived report
// with words-per-minute, streak, and recent daily history.
package stats

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/kbukum/voicekit/logger"
	"github.com/kbukum/voicekit/pipeline"
)

const (
	statsFileName = "stats.json"
	dateKeyLayout = "2006-01-02"

	// defaultHistoryWindowDays is the daily-word-history span in a report.
	defaultHistoryWindowDays = 30
)

// DailyStats aggregates one calendar day.
type DailyStats struct {
	Transcriptions   uint64  `json:"transcriptions"`
	Words            uint64  `json:"words"`
	RecordingSeconds float64 `json:"recordingSeconds"`
}

// UsageStats is the persisted shape.
type UsageStats struct {
	TotalTranscriptions   uint64                `json:"totalTranscriptions"`
	TotalWords            uint64                `json:"totalWords"`
	TotalRecordingSeconds float64               `json:"totalRecordingSeconds"`
	DailyStats            map[string]DailyStats `json:"dailyStats"`
	LastUpdated           string                `json:"lastUpdated"`
}

// DailyWordCount is one point in the report's daily history.
type DailyWordCount struct {
	Date  string `json:"date"`
	Words uint64 `json:"words"`
}

// Report is the derived usage summary.
type Report struct {
	TotalTranscriptions        uint64           `json:"totalTranscriptions"`
	TotalWords                 uint64           `json:"totalWords"`
	TotalRecordingSeconds      float64          `json:"totalRecordingSeconds"`
	WordsPerMinute             float64          `json:"wordsPerMinute"`
	AverageTranscriptionLength float64          `json:"averageTranscriptionLength"`
	StreakDays                 uint64           `json:"streakDays"`
	Today                      DailyStats       `json:"today"`
	DailyWordHistory           []DailyWordCount `json:"dailyWordHistory"`
	LastUpdated                string           `json:"lastUpdated"`
}

// Store is a JSON-file usage stats store.
type Store struct {
	filePath string
	ioLock   sync.Mutex
	log      *logger.Logger

	// today is injectable for tests.
	today func() time.Time
}

// NewStore creates a Store under dataDir, initializing the file if absent.
func NewStore(dataDir string) (*Store, error) {
	return NewStoreWithFilePath(filepath.Join(dataDir, statsFileName))
}

// NewStoreWithFilePath creates a Store over an explicit file path.
func NewStoreWithFilePath(filePath string) (*Store, error) {
	store := &Store{
		filePath: filePath,
		log:      logger.WithComponent("stats"),
		today:    time.Now,
	}
	if err := store.ensureFile(); err != nil {
		return nil, err
	}
	return store, nil
}

// Record adds one completed transcription to the lifetime totals and to
// today's bucket.
func (s *Store) Record(wordCount uint64, recordingSecs float64) error {
	duration := sanitizeSeconds(recordingSecs)
	today := s.todayKey()

	s.ioLock.Lock()
	defer s.ioLock.Unlock()

	stats, err := s.read()
	if err != nil {
		return err
	}

	stats.TotalTranscriptions++
	stats.TotalWords += wordCount
	stats.TotalRecordingSeconds = sanitizeSeconds(stats.TotalRecordingSeconds + duration)

	day := stats.DailyStats[today]
	day.Transcriptions++
	day.Words += wordCount
	day.RecordingSeconds = sanitizeSeconds(day.RecordingSeconds + duration)
	stats.DailyStats[today] = day

	stats.LastUpdated = today
	return s.write(stats)
}

// RecordTranscription implements pipeline.Sink.
func (s *Store) RecordTranscription(event pipeline.CompletedTranscription) error {
	return s.Record(uint64(event.Words), event.DurationSecs)
}

// GetReport builds the derived usage report.
func (s *Store) GetReport() (*Report, error) {
	s.ioLock.Lock()
	defer s.ioLock.Unlock()

	stats, err := s.read()
	if err != nil {
		return nil, err
	}
	return buildReport(stats, s.todayDate(), defaultHistoryWindowDays), nil
}

// Reset clears all usage stats.
func (s *Store) Reset() error {
	s.log.Info("resetting usage stats")
	s.ioLock.Lock()
	defer s.ioLock.Unlock()
	return s.write(s.emptyStats())
}

func (s *Store) todayDate() time.Time {
	return s.today().Local()
}

func (s *Store) todayKey() string {
	return s.todayDate().Format(dateKeyLayout)
}

func (s *Store) emptyStats() *UsageStats {
	return &UsageStats{
		DailyStats:  make(map[string]DailyStats),
		LastUpdated: s.todayKey(),
	}
}

func (s *Store) read() (*UsageStats, error) {
	raw, err := os.ReadFile(s.filePath)
	if os.IsNotExist(err) {
		return s.emptyStats(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read usage stats file: %w", err)
	}
	if len(raw) == 0 {
		return s.emptyStats(), nil
	}

	var stats UsageStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		if err := s.recoverMalformedFile(fmt.Sprintf("parse usage stats file: %v", err)); err != nil {
			return nil, err
		}
		return s.emptyStats(), nil
	}

	s.normalize(&stats)
	return &stats, nil
}

func (s *Store) write(stats *UsageStats) error {
	serialized, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize usage stats: %w", err)
	}

	tempPath := fmt.Sprintf("%s.%d.%d.tmp", s.filePath, os.Getpid(), time.Now().UnixNano())
	if err := os.WriteFile(tempPath, serialized, 0o600); err != nil {
		return fmt.Errorf("write usage stats temp file %q: %w", tempPath, err)
	}
	if err := os.Rename(tempPath, s.filePath); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("finalize usage stats file: %w", err)
	}
	return nil
}

func (s *Store) recoverMalformedFile(reason string) error {
	backupPath := fmt.Sprintf("%s.corrupt-%d-%d.bak", s.filePath, os.Getpid(), time.Now().UnixNano())
	if err := os.Rename(s.filePath, backupPath); err != nil {
		return fmt.Errorf("backup malformed usage stats file: %w", err)
	}
	if err := s.write(s.emptyStats()); err != nil {
		return err
	}
	s.log.Warn("recovered malformed usage stats file",
		logger.Fields("backup", backupPath, "reason", reason))
	return nil
}

func (s *Store) ensureFile() error {
	if dir := filepath.Dir(s.filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create usage stats directory: %w", err)
		}
	}
	if _, err := os.Stat(s.filePath); os.IsNotExist(err) {
		return s.write(s.emptyStats())
	}
	return nil
}

// normalize drops malformed date keys and non-finite durations that may
// have been written by older builds.
func (s *Store) normalize(stats *UsageStats) {
	stats.TotalRecordingSeconds = sanitizeSeconds(stats.TotalRecordingSeconds)
	if _, err := time.Parse(dateKeyLayout, stats.LastUpdated); err != nil {
		stats.LastUpdated = s.todayKey()
	}
	if stats.DailyStats == nil {
		stats.DailyStats = make(map[string]DailyStats)
		return
	}
	for date, day := range stats.DailyStats {
		if _, err := time.Parse(dateKeyLayout, date); err != nil {
			delete(stats.DailyStats, date)
			continue
		}
		day.RecordingSeconds = sanitizeSeconds(day.RecordingSeconds)
		stats.DailyStats[date] = day
	}
}

func buildReport(stats *UsageStats, today time.Time, historyDays int) *Report {
	todayKey := today.Format(dateKeyLayout)

	var wordsPerMinute float64
	if stats.TotalRecordingSeconds > 0 {
		wordsPerMinute = float64(stats.TotalWords) / (stats.TotalRecordingSeconds / 60.0)
	}
	var averageLength float64
	if stats.TotalTranscriptions > 0 {
		averageLength = float64(stats.TotalWords) / float64(stats.TotalTranscriptions)
	}

	return &Report{
		TotalTranscriptions:        stats.TotalTranscriptions,
		TotalWords:                 stats.TotalWords,
		TotalRecordingSeconds:      stats.TotalRecordingSeconds,
		WordsPerMinute:             wordsPerMinute,
		AverageTranscriptionLength: averageLength,
		StreakDays:                 calculateStreakDays(stats.DailyStats, today),
		Today:                      stats.DailyStats[todayKey],
		DailyWordHistory:           buildDailyWordHistory(stats.DailyStats, today, historyDays),
		LastUpdated:                stats.LastUpdated,
	}
}

// calculateStreakDays counts consecutive days with at least one
// transcription, ending today.
func calculateStreakDays(daily map[string]DailyStats, today time.Time) uint64 {
	var streak uint64
	cursor := today
	for {
		day, ok := daily[cursor.Format(dateKeyLayout)]
		if !ok || day.Transcriptions == 0 {
			break
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
	return streak
}

// buildDailyWordHistory returns oldest-to-newest word counts for the last
// historyDays days, zero-filled for inactive days.
func buildDailyWordHistory(daily map[string]DailyStats, today time.Time, historyDays int) []DailyWordCount {
	if historyDays <= 0 {
		return []DailyWordCount{}
	}

	out := make([]DailyWordCount, 0, historyDays)
	for offset := 0; offset < historyDays; offset++ {
		date := today.AddDate(0, 0, -(historyDays - 1 - offset))
		key := date.Format(dateKeyLayout)
		out = append(out, DailyWordCount{Date: key, Words: daily[key].Words})
	}
	return out
}

func sanitizeSeconds(value float64) float64 {
	if math.IsInf(value, 0) || math.IsNaN(value) || value < 0 {
		return 0
	}
	return value
}

var _ pipeline.Sink = (*Store)(nil)
