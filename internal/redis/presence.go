package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"screenplay-collab/internal/domain"

	goredis "github.com/redis/go-redis/v9"
)

// PresenceEntry is one user's live state inside a script
type PresenceEntry struct {
	UserID     uint64         `json:"user_id"`
	Online     bool           `json:"online"`
	Cursor     *domain.Cursor `json:"cursor,omitempty"`
	LastActive time.Time      `json:"last_active"`
}

// PresenceStore keeps presence in one hash per script. Writes are plain
// HSETs, so concurrent senders resolve as last writer wins.
type PresenceStore struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewPresenceStore(client *goredis.Client, ttl time.Duration) *PresenceStore {
	return &PresenceStore{client: client, ttl: ttl}
}

func presenceKey(scriptID uint64) string {
	return fmt.Sprintf("presence:script:%d", scriptID)
}

func (p *PresenceStore) Enabled() bool {
	return p != nil && p.client != nil
}

func (p *PresenceStore) Put(ctx context.Context, scriptID uint64, entry PresenceEntry) error {
	if !p.Enabled() {
		return nil
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	key := presenceKey(scriptID)
	pipe := p.client.Pipeline()
	pipe.HSet(ctx, key, strconv.FormatUint(entry.UserID, 10), raw)
	pipe.Expire(ctx, key, p.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (p *PresenceStore) Remove(ctx context.Context, scriptID, userID uint64) error {
	if !p.Enabled() {
		return nil
	}
	return p.client.HDel(ctx, presenceKey(scriptID), strconv.FormatUint(userID, 10)).Err()
}

func (p *PresenceStore) Clear(ctx context.Context, scriptID uint64) error {
	if !p.Enabled() {
		return nil
	}
	return p.client.Del(ctx, presenceKey(scriptID)).Err()
}

// List returns every entry for the script ordered by user id. Entries whose
// last activity is older than the store ttl are reported offline.
func (p *PresenceStore) List(ctx context.Context, scriptID uint64) ([]PresenceEntry, error) {
	if !p.Enabled() {
		return []PresenceEntry{}, nil
	}
	raw, err := p.client.HGetAll(ctx, presenceKey(scriptID)).Result()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entries := make([]PresenceEntry, 0, len(raw))
	for _, v := range raw {
		var e PresenceEntry
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			continue
		}
		if now.Sub(e.LastActive) > p.ttl {
			e.Online = false
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].UserID < entries[j].UserID })
	return entries, nil
}
