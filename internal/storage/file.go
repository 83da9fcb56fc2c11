package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	logx "tgsched/pkg/logx"
)

// fileStore is a dependency-free persistence backend.
//
// Files:
//   - <prefix>.history.jsonl (append-only JSON Lines)
type fileStore struct {
	log logx.Logger

	mu          sync.Mutex
	historyPath string
	historyFile *os.File
}

type historyRecord struct {
	At       int64  `json:"at"` // unix milli
	JobID    string `json:"job_id"`
	ChatID   int64  `json:"chat_id"`
	TopicID  int    `json:"topic_id,omitempty"`
	Label    string `json:"label"`
	Outcome  string `json:"outcome"`
	Category string `json:"category,omitempty"`
}

func openFile(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		return nil, errors.New("storage.path is required for file driver")
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	prefix := filepath.Join(dir, base)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	historyPath := prefix + ".history.jsonl"
	hf, err := os.OpenFile(historyPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}

	return &fileStore{
		log:         log,
		historyPath: historyPath,
		historyFile: hf,
	}, nil
}

func (s *fileStore) AppendHistory(ctx context.Context, e HistoryEntry) error {
	if s == nil {
		return ErrDisabled
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}
	rec := historyRecord{
		At:       e.At.UnixMilli(),
		JobID:    e.JobID,
		ChatID:   e.ChatID,
		TopicID:  e.TopicID,
		Label:    e.Label,
		Outcome:  e.Outcome,
		Category: e.Category,
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	b = append(b, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.historyFile == nil {
		return ErrDisabled
	}
	_, err = s.historyFile.Write(b)
	return err
}

func (s *fileStore) RecentHistory(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if s == nil {
		return nil, ErrDisabled
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}

	s.mu.Lock()
	path := s.historyPath
	s.mu.Unlock()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	// The file is append-only, so a single pass keeping the tail is
	// enough.
	var tail []HistoryEntry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var rec historyRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			s.log.Warn("skipping corrupt history line", logx.Err(err))
			continue
		}
		tail = append(tail, HistoryEntry{
			At:       time.UnixMilli(rec.At),
			JobID:    rec.JobID,
			ChatID:   rec.ChatID,
			TopicID:  rec.TopicID,
			Label:    rec.Label,
			Outcome:  rec.Outcome,
			Category: rec.Category,
		})
		if len(tail) > limit {
			tail = tail[1:]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	// Newest first.
	for i, j := 0, len(tail)-1; i < j; i, j = i+1, j-1 {
		tail[i], tail[j] = tail[j], tail[i]
	}
	return tail, nil
}

func (s *fileStore) Close() error {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.historyFile == nil {
		return nil
	}
	err := s.historyFile.Close()
	s.historyFile = nil
	return err
}
