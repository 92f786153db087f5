package server

import (
	"context"
	"time"

	"xinyuan_tech/purchase-service/internal/conf"
	"xinyuan_tech/purchase-service/internal/service"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/transport"
	"github.com/nats-io/nats.go"
)

var _ transport.Server = (*NatsServer)(nil)

const natsHandleTimeout = 10 * time.Second

// NatsServer consumes payment result events from a NATS subject and feeds
// them to the notification service. It is a no-op when no URL is configured.
type NatsServer struct {
	url     string
	subject string
	queue   string
	notify  *service.NotifyService
	conn    *nats.Conn
	sub     *nats.Subscription
	log     *log.Helper
}

// NewNatsServer 创建支付结果消费者
func NewNatsServer(c *conf.Bootstrap, notify *service.NotifyService, logger log.Logger) *NatsServer {
	s := &NatsServer{notify: notify, log: log.NewHelper(logger)}
	if c != nil && c.Messaging != nil {
		s.url = c.Messaging.Nats.URL
		s.subject = c.Messaging.Nats.Subject
		s.queue = c.Messaging.Nats.Queue
	}
	return s
}

// Enabled reports whether both the url and the subject are configured.
func (s *NatsServer) Enabled() bool {
	return s.url != "" && s.subject != ""
}

func (s *NatsServer) Start(ctx context.Context) error {
	if !s.Enabled() {
		s.log.Info("[NATS] consumer disabled")
		return nil
	}
	conn, err := nats.Connect(s.url,
		nats.Name(ServiceName),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				s.log.Warnf("[NATS] disconnected: %v", err)
			}
		}),
	)
	if err != nil {
		return err
	}
	sub, err := conn.QueueSubscribe(s.subject, s.queue, s.handle)
	if err != nil {
		conn.Close()
		return err
	}
	s.conn, s.sub = conn, sub
	s.log.Infof("[NATS] consuming %s (queue %q) from %s", s.subject, s.queue, s.url)
	return nil
}

func (s *NatsServer) Stop(ctx context.Context) error {
	if s.conn == nil {
		return nil
	}
	s.log.Info("[NATS] draining consumer")
	if err := s.conn.Drain(); err != nil {
		s.conn.Close()
		return err
	}
	return nil
}

func (s *NatsServer) handle(msg *nats.Msg) {
	ctx, cancel := context.WithTimeout(context.Background(), natsHandleTimeout)
	defer cancel()
	if err := s.notify.HandleMessage(ctx, msg.Data); err != nil {
		s.log.WithContext(ctx).Errorf("[NATS] failed to apply payment event on %s: %v", msg.Subject, err)
	}
}
