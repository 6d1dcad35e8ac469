package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	apperrors "github.com/fogelran/people-match/internal/pkg/errors"
)

type cacheItem struct {
	value     string
	expiresAt time.Time // нулевое значение — без срока жизни
}

// CacheRepo реализует repository.CacheRepository в памяти процесса.
// Используется, когда Redis отключён в конфигурации.
type CacheRepo struct {
	mu    sync.Mutex
	items map[string]cacheItem
	now   func() time.Time
}

// NewCacheRepo создает пустой кеш
func NewCacheRepo() *CacheRepo {
	return &CacheRepo{
		items: make(map[string]cacheItem),
		now:   time.Now,
	}
}

// getLocked возвращает живую запись, удаляя просроченную. Вызывается под c.mu.
func (c *CacheRepo) getLocked(key string) (cacheItem, bool) {
	item, ok := c.items[key]
	if !ok {
		return cacheItem{}, false
	}
	if !item.expiresAt.IsZero() && !c.now().Before(item.expiresAt) {
		delete(c.items, key)
		return cacheItem{}, false
	}
	return item, true
}

func (c *CacheRepo) setLocked(key, value string, expiration time.Duration) {
	item := cacheItem{value: value}
	if expiration > 0 {
		item.expiresAt = c.now().Add(expiration)
	}
	c.items[key] = item
}

// Get получает значение из кеша
func (c *CacheRepo) Get(ctx context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.getLocked(key)
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return item.value, nil
}

// Increment увеличивает значение на 1, как INCR в Redis
func (c *CacheRepo) Increment(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var current int64
	item, ok := c.getLocked(key)
	if ok {
		parsed, err := strconv.ParseInt(item.value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("value of %q is not an integer: %w", key, err)
		}
		current = parsed
	}
	current++
	item.value = strconv.FormatInt(current, 10)
	c.items[key] = item
	return current, nil
}

// SetJSON сохраняет структуру JSON в кеше
func (c *CacheRepo) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, string(data), expiration)
	return nil
}

// GetJSON получает структуру JSON из кеша
func (c *CacheRepo) GetJSON(ctx context.Context, key string, dest interface{}) error {
	value, err := c.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(value), dest)
}
