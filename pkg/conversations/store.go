package conversations

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// QueryOptions provides filtering and sorting options for conversation queries
type QueryOptions struct {
	StartDate  *time.Time // Filter by start date
	EndDate    *time.Time // Filter by end date
	SearchTerm string     // Text to search for in messages
	Limit      int        // Maximum number of results
	Offset     int        // Offset for pagination
	SortBy     string     // "updated", "created" or "messages"
	SortOrder  string     // "asc" or "desc"
}

// ConversationStore defines the interface for conversation persistence
type ConversationStore interface {
	Save(ctx context.Context, record ConversationRecord) error
	Load(ctx context.Context, id string) (ConversationRecord, error)
	List(ctx context.Context) ([]ConversationSummary, error)
	Delete(ctx context.Context, id string) error
	Query(ctx context.Context, options QueryOptions) ([]ConversationSummary, error)

	Close() error
}

// GenerateID creates a unique identifier for a conversation
func GenerateID() string {
	timestamp := time.Now().UTC().Format("20060102T150405")

	b := make([]byte, 8)
	rand.Read(b)

	return timestamp + "-" + hex.EncodeToString(b)
}

// GetDefaultBasePath returns the default path for storing conversations
func GetDefaultBasePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve home directory")
	}

	basePath := filepath.Join(homeDir, ".sidekick", "conversations")
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return "", errors.Wrap(err, "failed to create conversations directory")
	}

	return basePath, nil
}

// GetConversationStore returns the default conversation store
func GetConversationStore(ctx context.Context) (ConversationStore, error) {
	basePath, err := GetDefaultBasePath()
	if err != nil {
		return nil, err
	}
	return NewJSONConversationStore(basePath)
}

// GetMostRecentConversationID returns the ID of the most recently updated conversation
func GetMostRecentConversationID(ctx context.Context) (string, error) {
	store, err := GetConversationStore(ctx)
	if err != nil {
		return "", err
	}
	defer store.Close()

	summaries, err := store.Query(ctx, QueryOptions{
		Limit:     1,
		SortBy:    "updated",
		SortOrder: "desc",
	})
	if err != nil {
		return "", err
	}

	if len(summaries) == 0 {
		return "", errors.New("no conversations found")
	}

	return summaries[0].ID, nil
}
