package repository

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"visa-locker/internal/common/database"
	"visa-locker/internal/common/errors"
	"visa-locker/internal/locker"
	"visa-locker/internal/questionnaire/answers"

	"github.com/redis/go-redis/v9"
)

const draftPrefix = "locker:draft:"

// Draft is the cached form of an answers snapshot.
type Draft struct {
	Personal  answers.PersonalInfo    `json:"personal"`
	Questions answers.QuestionAnswers `json:"questions"`
	Locked    bool                    `json:"locked"`
	SavedAt   time.Time               `json:"savedAt"`
}

func (d Draft) Snapshot() answers.Snapshot {
	return answers.Snapshot{Personal: d.Personal, Questions: d.Questions, Locked: d.Locked}
}

// Store rebuilds an answer store from the draft.
func (d Draft) Store() *answers.Store {
	s := answers.NewStore(d.Personal, d.Questions)
	if d.Locked {
		s.Lock()
	}
	return s
}

// DraftCache keeps the latest snapshot per token in Redis with a TTL.
type DraftCache struct {
	client redis.Cmdable
	ttl    time.Duration
	now    func() time.Time
}

func NewDraftCache(rc *database.RedisClient, ttl time.Duration) *DraftCache {
	return &DraftCache{client: rc.Client, ttl: ttl, now: time.Now}
}

var _ locker.DraftStore = (*DraftCache)(nil)

func (c *DraftCache) SaveDraft(ctx context.Context, token string, snap answers.Snapshot) error {
	payload, err := json.Marshal(Draft{
		Personal:  snap.Personal,
		Questions: snap.Questions,
		Locked:    snap.Locked,
		SavedAt:   c.now().UTC(),
	})
	if err != nil {
		return errors.NewCacheFailedError("encode_draft", err)
	}
	if err := c.client.Set(ctx, draftPrefix+token, payload, c.ttl).Err(); err != nil {
		return errors.NewCacheFailedError("set_draft", err)
	}
	return nil
}

// LoadDraft returns false when no draft is cached.
func (c *DraftCache) LoadDraft(ctx context.Context, token string) (*Draft, bool, error) {
	raw, err := c.client.Get(ctx, draftPrefix+token).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.NewCacheFailedError("get_draft", err)
	}
	var d Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, false, errors.NewCacheFailedError("decode_draft", err)
	}
	return &d, true, nil
}

func (c *DraftCache) DeleteDraft(ctx context.Context, token string) error {
	if err := c.client.Del(ctx, draftPrefix+token).Err(); err != nil {
		return errors.NewCacheFailedError("del_draft", err)
	}
	return nil
}
