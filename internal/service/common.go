package service

import (
	"context"
	"math"
	"time"

	"github.com/d60-Lab/albumy/internal/model"
	"github.com/d60-Lab/albumy/internal/repository"
)

// Actor 当前操作者，由鉴权中间件按请求构造并显式传入每个操作
type Actor struct {
	ID        string
	Username  string
	Role      model.Role
	Confirmed bool
}

// Anonymous 未登录访客
var Anonymous = Actor{}

// ActorFromUser 由用户记录构造操作者
func ActorFromUser(u *model.User) Actor {
	return Actor{ID: u.ID, Username: u.Username, Role: u.Role, Confirmed: u.Confirmed}
}

func (a Actor) Authenticated() bool { return a.ID != "" }

func (a Actor) Can(p model.Permission) bool { return a.Authenticated() && a.Role.Can(p) }

// owns 作者本人或拥有审核权限
func (a Actor) owns(authorID string) bool {
	return a.Authenticated() && (a.ID == authorID || a.Can(model.PermModerate))
}

// require 校验登录、权限，confirmed=true 时额外要求邮箱已确认
func (a Actor) require(p model.Permission, confirmed bool) error {
	if !a.Authenticated() || !a.Can(p) {
		return ErrForbidden
	}
	if confirmed && !a.Confirmed {
		return ErrUnconfirmed
	}
	return nil
}

// Page 分页结果
type Page[T any] struct {
	Items    []T   `json:"items"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total"`
}

// DefaultMaxPageSize 单页条数上限
const DefaultMaxPageSize = 100

// maxOffset 偏移量上限，超过的页码钳到最后一个可表示的页
const maxOffset = math.MaxInt32

var maxPageSize = DefaultMaxPageSize

// SetMaxPageSize 进程启动时按配置设置单页上限，n<1 时恢复默认
func SetMaxPageSize(n int) {
	if n < 1 {
		n = DefaultMaxPageSize
	}
	maxPageSize = n
}

func normalizePage(page, pageSize, def int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = def
	}
	if pageSize < 1 {
		pageSize = 10
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if lastPage := maxOffset/pageSize + 1; page > lastPage {
		page = lastPage
	}
	return page, pageSize, (page - 1) * pageSize
}

// base 每个动作拿到带语句超时的 context
type base struct {
	store   *repository.Store
	timeout time.Duration
}

func newBase(store *repository.Store, timeout time.Duration) base {
	return base{store: store, timeout: timeout}
}

func (b base) begin(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, b.timeout)
}

func orderedUsers(ids []string, byID map[string]*model.User) []*model.User {
	out := make([]*model.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, u)
		}
	}
	return out
}
