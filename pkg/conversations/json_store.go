package conversations

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hmarward/sidekick/pkg/logger"
)

// JSONConversationStore implements ConversationStore using one JSON file per
// conversation under a base directory.
type JSONConversationStore struct {
	basePath string
}

var _ ConversationStore = (*JSONConversationStore)(nil)

// NewJSONConversationStore creates a new JSON file-based conversation store
func NewJSONConversationStore(basePath string) (*JSONConversationStore, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, errors.Wrap(err, "failed to create conversations directory")
	}

	return &JSONConversationStore{basePath: basePath}, nil
}

// Save persists a conversation to a JSON file via an atomic rename
func (s *JSONConversationStore) Save(ctx context.Context, record ConversationRecord) error {
	if record.ID == "" {
		record.ID = GenerateID()
	}

	// A re-saved conversation keeps its original creation time
	if existing, err := s.Load(ctx, record.ID); err == nil && !existing.CreatedAt.IsZero() {
		record.CreatedAt = existing.CreatedAt
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	record.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to marshal conversation record")
	}

	filePath := s.filePath(record.ID)
	tempPath := filePath + ".tmp"

	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return errors.Wrap(err, "failed to write temporary conversation file")
	}

	if err := os.Rename(tempPath, filePath); err != nil {
		os.Remove(tempPath)
		return errors.Wrap(err, "failed to rename temporary conversation file")
	}

	return nil
}

// Load retrieves a conversation from its JSON file
func (s *JSONConversationStore) Load(ctx context.Context, id string) (ConversationRecord, error) {
	data, err := os.ReadFile(s.filePath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return ConversationRecord{}, errors.Errorf("conversation not found: %s", id)
		}
		return ConversationRecord{}, errors.Wrap(err, "failed to read conversation file")
	}

	var record ConversationRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return ConversationRecord{}, errors.Wrap(err, "failed to unmarshal conversation record")
	}

	return record, nil
}

// List returns summaries of all stored conversations
func (s *JSONConversationStore) List(ctx context.Context) ([]ConversationSummary, error) {
	return s.Query(ctx, QueryOptions{})
}

// Delete removes a conversation
func (s *JSONConversationStore) Delete(ctx context.Context, id string) error {
	if err := os.Remove(s.filePath(id)); err != nil {
		if os.IsNotExist(err) {
			return errors.Errorf("conversation not found: %s", id)
		}
		return errors.Wrap(err, "failed to delete conversation file")
	}
	return nil
}

// Query searches for conversations matching the given criteria
func (s *JSONConversationStore) Query(ctx context.Context, options QueryOptions) ([]ConversationSummary, error) {
	log := logger.G(ctx)

	var summaries []ConversationSummary
	err := filepath.WalkDir(s.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".json") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			log.WithError(err).WithField("path", path).Warn("failed to read conversation file")
			return nil
		}

		var record ConversationRecord
		if err := json.Unmarshal(data, &record); err != nil {
			log.WithError(err).WithField("path", path).Warn("failed to parse conversation file")
			return nil
		}

		if !matchesQuery(record, options) {
			return nil
		}

		summaries = append(summaries, record.ToSummary())
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to query conversations")
	}

	sortSummaries(summaries, options)
	return paginate(summaries, options), nil
}

// Close cleans up any resources
func (s *JSONConversationStore) Close() error {
	return nil
}

func (s *JSONConversationStore) filePath(id string) string {
	return filepath.Join(s.basePath, id+".json")
}

func matchesQuery(record ConversationRecord, options QueryOptions) bool {
	if options.StartDate != nil && record.UpdatedAt.Before(*options.StartDate) {
		return false
	}
	if options.EndDate != nil && record.UpdatedAt.After(*options.EndDate) {
		return false
	}

	if options.SearchTerm != "" {
		term := strings.ToLower(options.SearchTerm)
		if !strings.Contains(strings.ToLower(record.Summary), term) &&
			!strings.Contains(strings.ToLower(string(record.RawMessages)), term) {
			return false
		}
	}

	return true
}

func sortSummaries(summaries []ConversationSummary, options QueryOptions) {
	asc := options.SortOrder == "asc"

	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if !asc {
			a, b = b, a
		}
		switch options.SortBy {
		case "created":
			return a.CreatedAt.Before(b.CreatedAt)
		case "messages":
			return a.MessageCount < b.MessageCount
		default:
			return a.UpdatedAt.Before(b.UpdatedAt)
		}
	})
}

func paginate(summaries []ConversationSummary, options QueryOptions) []ConversationSummary {
	if options.Limit <= 0 && options.Offset <= 0 {
		return summaries
	}

	offset := options.Offset
	if offset > len(summaries) {
		offset = len(summaries)
	}

	limit := options.Limit
	if limit <= 0 || offset+limit > len(summaries) {
		limit = len(summaries) - offset
	}

	return summaries[offset : offset+limit]
}
