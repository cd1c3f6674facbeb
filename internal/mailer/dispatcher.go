package mailer

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/albumy/pkg/logger"
)

// Dispatcher 本地异步投递器：请求路径只入队，worker 调用 Sender
type Dispatcher struct {
	sender Sender
	ch     chan Message
}

func NewDispatcher(sender Sender, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &Dispatcher{
		sender: sender,
		ch:     make(chan Message, queueSize),
	}
}

// Start 启动 workers 个消费协程，返回停止函数；停止时在 ctx 截止前尽量排空队列
func (d *Dispatcher) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 2
	}
	stopCh := make(chan struct{})
	exited := make(chan struct{}, workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer func() { exited <- struct{}{} }()
			for {
				select {
				case msg := <-d.ch:
					d.deliver(msg)
				case <-stopCh:
					for {
						select {
						case msg := <-d.ch:
							d.deliver(msg)
						default:
							return
						}
					}
				}
			}
		}()
	}
	return func(ctx context.Context) error {
		close(stopCh)
		for i := 0; i < workers; i++ {
			select {
			case <-exited:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	}
}

func (d *Dispatcher) deliver(msg Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := d.sender.Send(ctx, msg); err != nil {
		logger.Warn("mail delivery failed", zap.Error(err), zap.String("to", msg.To), zap.String("purpose", msg.Purpose))
	}
}

// Enqueue 非阻塞入队，队列满时丢弃并告警
func (d *Dispatcher) Enqueue(msg Message) {
	if msg.QueuedAt.IsZero() {
		msg.QueuedAt = time.Now()
	}
	select {
	case d.ch <- msg:
	default:
		logger.Warn("mail queue full, drop message", zap.String("to", msg.To), zap.String("purpose", msg.Purpose))
	}
}

// QueueLen 当前队列长度（采样值）
func (d *Dispatcher) QueueLen() int { return len(d.ch) }
