package mailer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/albumy/pkg/logger"
)

// Message 邮件事件：收件人 + 令牌 + 用途，模板与 SMTP 由下游消费者负责
type Message struct {
	To       string    `json:"to"`
	Username string    `json:"username"`
	Token    string    `json:"token"`
	Purpose  string    `json:"purpose"`
	QueuedAt time.Time `json:"queued_at"`
}

// Sender 把一条邮件事件交给外部投递方
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// RedisQueue 将邮件事件 LPUSH 到 Redis 列表，由独立的投递进程 BRPOP 消费
type RedisQueue struct {
	client *redis.Client
	key    string
}

func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	return &RedisQueue{client: client, key: key}
}

func (q *RedisQueue) Send(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal mail message: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("push mail message: %w", err)
	}
	return nil
}

// LogSender 未配置 Redis 时只打日志
type LogSender struct{}

func (LogSender) Send(_ context.Context, msg Message) error {
	logger.Info("mail event", zap.String("to", msg.To), zap.String("purpose", msg.Purpose))
	return nil
}
