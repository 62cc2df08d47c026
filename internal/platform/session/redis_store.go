// Package session はブラウザセッションのRedisストアを提供します。
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"stock_portfolio/internal/feature/auth/domain/entity"
	"stock_portfolio/internal/feature/auth/usecase"

	"github.com/redis/go-redis/v9"
)

// DefaultPrefix はセッションキーの既定のプレフィックスです。
const DefaultPrefix = "session"

// record はRedisに保存するセッションのJSON表現です。クッキー値は含めません。
type record struct {
	UserID    uint       `json:"user_id"`
	UserAgent string     `json:"user_agent"`
	IPAddress string     `json:"ip_address"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
}

func toRecord(s *entity.Session) record {
	return record{
		UserID:    s.UserID,
		UserAgent: s.UserAgent,
		IPAddress: s.IPAddress,
		CreatedAt: s.CreatedAt,
		ExpiresAt: s.ExpiresAt,
		RevokedAt: s.RevokedAt,
	}
}

func (r record) toEntity(id string) *entity.Session {
	return &entity.Session{
		ID:        id,
		UserID:    r.UserID,
		UserAgent: r.UserAgent,
		IPAddress: r.IPAddress,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
		RevokedAt: r.RevokedAt,
	}
}

// RedisStore は usecase.SessionRepository のRedis実装です。
//
//	<prefix>:<sha256(cookie)>  セッション本体（JSON、期限と同じTTL）
//	<prefix>:user:<id>         ユーザーのセッション索引（Sorted Set、スコアはログイン時刻）
type RedisStore struct {
	client *redis.Client
	prefix string
}

var _ usecase.SessionRepository = (*RedisStore)(nil)

// NewRedisStore はRedisStoreを生成します。prefixが空の場合はDefaultPrefixを使用します。
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) sessionKey(hash string) string {
	return fmt.Sprintf("%s:%s", s.prefix, hash)
}

func (s *RedisStore) userIndexKey(userID uint) string {
	return fmt.Sprintf("%s:user:%d", s.prefix, userID)
}

// Save はセッション本体と索引を1つのトランザクションで書き込み、
// 上限を超えた古いセッションを削除します。
func (s *RedisStore) Save(ctx context.Context, session *entity.Session, limit int) (int, error) {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return 0, errors.New("session already expired")
	}
	data, err := json.Marshal(toRecord(session))
	if err != nil {
		return 0, fmt.Errorf("failed to marshal session: %w", err)
	}

	hash := entity.HashSessionID(session.ID)
	indexKey := s.userIndexKey(session.UserID)
	if _, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.sessionKey(hash), data, ttl)
		pipe.ZAdd(ctx, indexKey, redis.Z{Score: float64(session.CreatedAt.UnixMicro()), Member: hash})
		return nil
	}); err != nil {
		return 0, err
	}

	if limit <= 0 {
		return 0, nil
	}
	return s.evict(ctx, indexKey, hash, limit)
}

// evict は新しい順に有効なセッションを数え、limit を超えた分を削除します。
// TTLで本体が消えたIDは索引からも取り除きます。
func (s *RedisStore) evict(ctx context.Context, indexKey, keep string, limit int) (int, error) {
	hashes, err := s.client.ZRevRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return 0, err
	}

	kept, evicted := 1, 0
	for _, hash := range hashes {
		if hash == keep {
			continue
		}
		rec, err := s.load(ctx, hash)
		if errors.Is(err, usecase.ErrSessionNotFound) {
			if err := s.client.ZRem(ctx, indexKey, hash).Err(); err != nil {
				return evicted, err
			}
			continue
		}
		if err != nil {
			return evicted, err
		}
		if !rec.toEntity("").IsValid() {
			continue
		}
		if kept < limit {
			kept++
			continue
		}
		if _, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, s.sessionKey(hash))
			pipe.ZRem(ctx, indexKey, hash)
			return nil
		}); err != nil {
			return evicted, err
		}
		evicted++
	}
	return evicted, nil
}

func (s *RedisStore) load(ctx context.Context, hash string) (record, error) {
	data, err := s.client.Get(ctx, s.sessionKey(hash)).Bytes()
	if errors.Is(err, redis.Nil) {
		return record{}, usecase.ErrSessionNotFound
	}
	if err != nil {
		return record{}, err
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return record{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return rec, nil
}

// Get はクッキー値からセッションを取得します。
func (s *RedisStore) Get(ctx context.Context, id string) (*entity.Session, error) {
	rec, err := s.load(ctx, entity.HashSessionID(id))
	if err != nil {
		return nil, err
	}
	return rec.toEntity(id), nil
}

// Revoke はセッションを失効済みにします。残りTTLは維持します。
func (s *RedisStore) Revoke(ctx context.Context, id string) error {
	_, err := s.revoke(ctx, entity.HashSessionID(id))
	return err
}

// revoke は有効だったセッションを失効させた場合に true を返します。
// 読み込みと書き込みの間に期限切れで消えた場合は ErrSessionNotFound です。
func (s *RedisStore) revoke(ctx context.Context, hash string) (bool, error) {
	rec, err := s.load(ctx, hash)
	if err != nil {
		return false, err
	}
	if rec.RevokedAt != nil {
		return false, nil
	}
	active := rec.toEntity("").IsValid()
	now := time.Now()
	rec.RevokedAt = &now

	data, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("failed to marshal session: %w", err)
	}
	// XX: 消えたキーをTTLなしで作り直さない
	err = s.client.SetArgs(ctx, s.sessionKey(hash), data, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if errors.Is(err, redis.Nil) {
		return false, usecase.ErrSessionNotFound
	}
	if err != nil {
		return false, err
	}
	return active, nil
}

// RevokeUser は索引にあるユーザーのセッションをすべて失効させます。
func (s *RedisStore) RevokeUser(ctx context.Context, userID uint) (int64, error) {
	indexKey := s.userIndexKey(userID)
	hashes, err := s.client.ZRange(ctx, indexKey, 0, -1).Result()
	if err != nil {
		return 0, err
	}

	var n int64
	for _, hash := range hashes {
		revoked, err := s.revoke(ctx, hash)
		if errors.Is(err, usecase.ErrSessionNotFound) {
			if err := s.client.ZRem(ctx, indexKey, hash).Err(); err != nil {
				return n, err
			}
			continue
		}
		if err != nil {
			return n, err
		}
		if revoked {
			n++
		}
	}
	return n, nil
}

// Purge は失効済みのセッション本体を削除し、TTLで消えたIDを索引から取り除きます。
// 削除・除去したセッション数を返します。
func (s *RedisStore) Purge(ctx context.Context) (int64, error) {
	var removed int64
	iter := s.client.Scan(ctx, 0, s.prefix+":user:*", 100).Iterator()
	for iter.Next(ctx) {
		indexKey := iter.Val()
		hashes, err := s.client.ZRange(ctx, indexKey, 0, -1).Result()
		if err != nil {
			return removed, err
		}
		for _, hash := range hashes {
			rec, err := s.load(ctx, hash)
			switch {
			case errors.Is(err, usecase.ErrSessionNotFound):
			case err != nil:
				return removed, err
			case rec.RevokedAt == nil:
				continue
			}
			if _, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, s.sessionKey(hash))
				pipe.ZRem(ctx, indexKey, hash)
				return nil
			}); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, iter.Err()
}
