package repository

import (
	"context"
	"encoding/json"
	"examcell_backend/internal/model"
	"fmt"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
)

// DraftRepository 草稿保存在 Redis：每份草稿一个 key，另有按用户索引的 set
type DraftRepository struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewDraftRepository(rdb *redis.Client, ttl time.Duration) *DraftRepository {
	return &DraftRepository{Redis: rdb, TTL: ttl}
}

func draftKey(userID uint, draftID string) string {
	return fmt.Sprintf("qbank:draft:%d:%s", userID, draftID)
}

func draftIndexKey(userID uint) string {
	return fmt.Sprintf("qbank:drafts:%d", userID)
}

func (r *DraftRepository) Save(ctx context.Context, d *model.QuestionBankDraft) error {
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	pipe := r.Redis.TxPipeline()
	pipe.Set(ctx, draftKey(d.UserID, d.ID), data, r.TTL)
	pipe.SAdd(ctx, draftIndexKey(d.UserID), d.ID)
	pipe.Expire(ctx, draftIndexKey(d.UserID), r.TTL)
	_, err = pipe.Exec(ctx)
	return err
}

// Get 不存在时返回 redis.Nil
func (r *DraftRepository) Get(ctx context.Context, userID uint, draftID string) (*model.QuestionBankDraft, error) {
	data, err := r.Redis.Get(ctx, draftKey(userID, draftID)).Bytes()
	if err != nil {
		return nil, err
	}
	var d model.QuestionBankDraft
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// List 顺带清理索引中已过期的草稿
func (r *DraftRepository) List(ctx context.Context, userID uint) ([]model.QuestionBankDraft, error) {
	ids, err := r.Redis.SMembers(ctx, draftIndexKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	drafts := make([]model.QuestionBankDraft, 0, len(ids))
	for _, id := range ids {
		d, err := r.Get(ctx, userID, id)
		if err == redis.Nil {
			r.Redis.SRem(ctx, draftIndexKey(userID), id)
			continue
		}
		if err != nil {
			return nil, err
		}
		d.Tree = nil
		drafts = append(drafts, *d)
	}
	sort.Slice(drafts, func(i, j int) bool { return drafts[i].SavedAt.After(drafts[j].SavedAt) })
	return drafts, nil
}

func (r *DraftRepository) Delete(ctx context.Context, userID uint, draftID string) error {
	pipe := r.Redis.TxPipeline()
	pipe.Del(ctx, draftKey(userID, draftID))
	pipe.SRem(ctx, draftIndexKey(userID), draftID)
	_, err := pipe.Exec(ctx)
	return err
}
