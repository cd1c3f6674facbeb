package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/gorm"

	"github.com/d60-Lab/albumy/internal/model"
	"github.com/d60-Lab/albumy/internal/repository"
	"github.com/d60-Lab/albumy/pkg/database"
	"github.com/d60-Lab/albumy/pkg/logger"
)

const testTimeout = 5 * time.Second

type fixture struct {
	t     *testing.T
	db    *gorm.DB
	store *repository.Store
	ctx   context.Context
	seq   int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := database.OpenTest(t)
	return &fixture{t: t, db: db, store: repository.NewStore(db), ctx: context.Background()}
}

// observeLogs 替换全局 logger，返回可断言的日志记录
func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	prev := logger.L()
	logger.Set(zap.New(core))
	t.Cleanup(func() { logger.Set(prev) })
	return logs
}

func (f *fixture) user(name string, mutate ...func(*model.User)) *model.User {
	f.t.Helper()
	u := &model.User{
		Name:                       name,
		Email:                      name + "@example.com",
		Username:                   name,
		PasswordHash:               "x",
		Role:                       model.RoleUser,
		Confirmed:                  true,
		ReceiveCommentNotification: true,
		ReceiveCollectNotification: true,
	}
	for _, m := range mutate {
		m(u)
	}
	require.NoError(f.t, f.store.Users.Create(f.ctx, u))
	return u
}

func (f *fixture) photo(author *model.User, mutate ...func(*model.Photo)) *model.Photo {
	f.t.Helper()
	f.seq++
	p := &model.Photo{
		AuthorID:   author.ID,
		Filename:   fmt.Sprintf("p%d.jpg", f.seq),
		CanComment: true,
		CreatedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(f.seq) * time.Minute),
	}
	for _, m := range mutate {
		m(p)
	}
	require.NoError(f.t, f.store.Photos.Create(f.ctx, p))
	return p
}

func (f *fixture) tag(photo *model.Photo, name string) *model.Tag {
	f.t.Helper()
	tag, err := f.store.Tags.FindOrCreate(f.ctx, name)
	require.NoError(f.t, err)
	require.NoError(f.t, f.store.Tags.Attach(f.ctx, photo.ID, tag.ID))
	return tag
}

func (f *fixture) count(m any, cond string, args ...any) int64 {
	f.t.Helper()
	var n int64
	q := f.db.Model(m)
	if cond != "" {
		q = q.Where(cond, args...)
	}
	require.NoError(f.t, q.Count(&n).Error)
	return n
}

func asActor(u *model.User) Actor { return ActorFromUser(u) }
