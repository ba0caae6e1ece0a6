package history

import (
	"context"
	"fmt"
	"sync"

	"github.com/goccy/go-json"

	"github.com/rushteam/musicrec/core"
)

// ErrEmptyID 用户或物品 ID 为空
var ErrEmptyID = core.NewDomainError(core.ModuleHistory, core.ErrorCodeInvalidInput, "history: empty user or item id")

// Store 是基于 core.Store 的收藏历史存储。
//
// 每个用户一个 JSON 数组：{KeyPrefix}:{userID}，有序、去重、只追加。
// 去重由存储层保证，调用方不需要关心。
type Store struct {
	store core.Store

	// KeyPrefix 是存储 key 的前缀
	KeyPrefix string

	// 同一进程内串行化“读-改-写”
	mu sync.Mutex
}

// NewStore 创建历史存储；keyPrefix 为空时使用 "history"
func NewStore(s core.Store, keyPrefix string) *Store {
	if keyPrefix == "" {
		keyPrefix = "history"
	}
	return &Store{store: s, KeyPrefix: keyPrefix}
}

func (s *Store) key(userID string) string {
	return s.KeyPrefix + ":" + userID
}

// Get 返回用户的收藏历史；没有记录时返回空切片
func (s *Store) Get(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, ErrEmptyID
	}
	data, err := s.store.Get(ctx, s.key(userID))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("history: get %s: %w", userID, err)
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, core.NewDomainError(core.ModuleHistory, core.ErrorCodeMalformedArtifact,
			fmt.Sprintf("history: malformed record for %s: %v", userID, err))
	}
	return dedup(ids), nil
}

// Append 把 itemID 追加到用户历史末尾；已存在时不做任何修改。
// 返回值表示是否真的追加了。
func (s *Store) Append(ctx context.Context, userID, itemID string) (bool, error) {
	if userID == "" || itemID == "" {
		return false, ErrEmptyID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.Get(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == itemID {
			return false, nil
		}
	}
	ids = append(ids, itemID)
	data, err := json.Marshal(ids)
	if err != nil {
		return false, err
	}
	if err := s.store.Set(ctx, s.key(userID), data); err != nil {
		return false, fmt.Errorf("history: append %s: %w", userID, err)
	}
	return true, nil
}

// Clear 删除用户的全部历史
func (s *Store) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrEmptyID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Delete(ctx, s.key(userID)); err != nil && !core.IsStoreNotFound(err) {
		return err
	}
	return nil
}

func dedup(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
