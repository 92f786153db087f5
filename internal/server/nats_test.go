package server

import (
	"context"
	"testing"

	"xinyuan_tech/purchase-service/internal/conf"
	"xinyuan_tech/purchase-service/internal/service"

	"github.com/stretchr/testify/assert"
)

func TestNatsServer_DisabledWithoutURL(t *testing.T) {
	s := NewNatsServer(&conf.Bootstrap{}, service.NewNotifyService(nil, nil, service.NewMetrics(), testLogger), testLogger)
	assert.False(t, s.Enabled())
	assert.NoError(t, s.Start(context.Background()))
	assert.NoError(t, s.Stop(context.Background()))
}

func TestNatsServer_Config(t *testing.T) {
	c := &conf.Bootstrap{Messaging: &conf.Messaging{}}
	c.Messaging.Nats.URL = "nats://127.0.0.1:4222"
	c.Messaging.Nats.Subject = "payment.result"
	c.Messaging.Nats.Queue = "purchase"
	s := NewNatsServer(c, nil, testLogger)
	assert.True(t, s.Enabled())
	assert.Equal(t, "purchase", s.queue)
}
