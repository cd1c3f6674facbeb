package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/getsentry/sentry-go"
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"

	"github.com/d60-Lab/albumy/internal/service"
	"github.com/d60-Lab/albumy/pkg/response"
)

const actorKey = "albumy.actor"

// Authenticator 把访问令牌换成操作者
type Authenticator interface {
	Authenticate(ctx context.Context, accessToken string) (service.Actor, error)
}

// Auth 解析 Authorization: Bearer 令牌。没有令牌按匿名访客继续，令牌无效直接 401
func Auth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c.GetHeader("Authorization"))
		if raw == "" {
			c.Set(actorKey, service.Anonymous)
			c.Next()
			return
		}
		actor, err := auth.Authenticate(c.Request.Context(), raw)
		if err != nil {
			if errors.Is(err, service.ErrInvalidToken) {
				response.Unauthorized(c, "invalid or expired token")
				return
			}
			response.InternalError(c, err)
			return
		}
		c.Set(actorKey, actor)
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.Scope().SetUser(sentry.User{ID: actor.ID, Username: actor.Username})
		}
		c.Next()
	}
}

// RequireLogin 拒绝匿名访客
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CurrentActor(c).Authenticated() {
			response.Unauthorized(c, "login required")
			return
		}
		c.Next()
	}
}

// CurrentActor 取出 Auth 放入的操作者；未经过 Auth 时视为匿名
func CurrentActor(c *gin.Context) service.Actor {
	if v, ok := c.Get(actorKey); ok {
		if a, ok := v.(service.Actor); ok {
			return a
		}
	}
	return service.Anonymous
}

// SetActor 供测试或内部路由直接注入操作者
func SetActor(c *gin.Context, a service.Actor) { c.Set(actorKey, a) }

func bearerToken(header string) string {
	scheme, raw, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(raw)
}
