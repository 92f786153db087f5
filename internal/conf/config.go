package conf

import (
	"fmt"
	"time"
)

type Bootstrap struct {
	Server    *Server    `yaml:"server" json:"server"`
	Data      *Data      `yaml:"data" json:"data"`
	Client    *Client    `yaml:"client" json:"client"`
	Auth      *Auth      `yaml:"auth" json:"auth"`
	Purchase  *Purchase  `yaml:"purchase" json:"purchase"`
	Messaging *Messaging `yaml:"messaging" json:"messaging"`
	Sweep     *Sweep     `yaml:"sweep" json:"sweep"`
	Log       *Log       `yaml:"log" json:"log"`
}

type Server struct {
	Http struct {
		Addr    string `yaml:"addr" json:"addr"`
		Timeout string `yaml:"timeout" json:"timeout"`
	} `yaml:"http" json:"http"`
}

type Data struct {
	Database struct {
		Driver          string `yaml:"driver" json:"driver"`
		Source          string `yaml:"source" json:"source"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
		AutoMigrate     bool   `yaml:"auto_migrate" json:"auto_migrate"`
	} `yaml:"database" json:"database"`
	Redis struct {
		Addr         string `yaml:"addr" json:"addr"`
		Password     string `yaml:"password" json:"password"`
		Db           int32  `yaml:"db" json:"db"`
		ReadTimeout  string `yaml:"read_timeout" json:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout" json:"write_timeout"`
		DialTimeout  string `yaml:"dial_timeout" json:"dial_timeout"`
		PoolSize     int32  `yaml:"pool_size" json:"pool_size"`
	} `yaml:"redis" json:"redis"`
}

type Client struct {
	Payment *Payment `yaml:"payment" json:"payment"`
}

// Payment configures the outbound payment provider adapter.
// Provider is either "gateway" (HTTP payment service) or "stripe".
type Payment struct {
	Provider string  `yaml:"provider" json:"provider"`
	Timeout  string  `yaml:"timeout" json:"timeout"`
	Gateway  Gateway `yaml:"gateway" json:"gateway"`
	Stripe   Stripe  `yaml:"stripe" json:"stripe"`
}

type Gateway struct {
	Addr      string `yaml:"addr" json:"addr"`
	Merchant  string `yaml:"merchant" json:"merchant"`
	Secret    string `yaml:"secret" json:"secret"`
	NotifyURL string `yaml:"notify_url" json:"notify_url"`
	ReturnURL string `yaml:"return_url" json:"return_url"`
}

type Stripe struct {
	APIKey        string `yaml:"api_key" json:"api_key"`
	WebhookSecret string `yaml:"webhook_secret" json:"webhook_secret"`
}

type Auth struct {
	JwtSecret string `yaml:"jwt_secret" json:"jwt_secret"`
}

type Purchase struct {
	DefaultPaymentMethod string   `yaml:"default_payment_method" json:"default_payment_method"`
	PaymentMethods       []string `yaml:"payment_methods" json:"payment_methods"`
}

type Messaging struct {
	Nats struct {
		URL     string `yaml:"url" json:"url"`
		Subject string `yaml:"subject" json:"subject"`
		Queue   string `yaml:"queue" json:"queue"`
	} `yaml:"nats" json:"nats"`
}

// Sweep configures the stale pending transaction sweep. Both fields must be
// set for the sweep to run; there are no defaults.
type Sweep struct {
	Schedule   string `yaml:"schedule" json:"schedule"`
	PendingTTL string `yaml:"pending_ttl" json:"pending_ttl"`
}

type Log struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"`
	Output     string `yaml:"output" json:"output"`
	FilePath   string `yaml:"file_path" json:"file_path"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	Compress   bool   `yaml:"compress" json:"compress"`
}

// Validate validates the configuration
func (b *Bootstrap) Validate() error {
	if b.Server == nil {
		return fmt.Errorf("server configuration is required")
	}
	if b.Server.Http.Addr == "" {
		return fmt.Errorf("server.http.addr is required")
	}
	if b.Data == nil {
		return fmt.Errorf("data configuration is required")
	}
	if b.Data.Database.Source == "" {
		return fmt.Errorf("data.database.source is required")
	}
	if b.Client == nil || b.Client.Payment == nil {
		return fmt.Errorf("client.payment configuration is required")
	}
	switch b.Client.Payment.Provider {
	case "gateway":
		if b.Client.Payment.Gateway.Addr == "" {
			return fmt.Errorf("client.payment.gateway.addr is required")
		}
	case "stripe":
		if b.Client.Payment.Stripe.APIKey == "" {
			return fmt.Errorf("client.payment.stripe.api_key is required")
		}
	default:
		return fmt.Errorf("client.payment.provider %q is not supported", b.Client.Payment.Provider)
	}
	if _, err := ParseDuration(b.Client.Payment.Timeout, 0); err != nil {
		return fmt.Errorf("client.payment.timeout: %w", err)
	}
	if b.Auth == nil || b.Auth.JwtSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}
	if b.Purchase == nil || b.Purchase.DefaultPaymentMethod == "" {
		return fmt.Errorf("purchase.default_payment_method is required")
	}
	if b.Log == nil {
		return fmt.Errorf("log configuration is required")
	}
	if b.SweepEnabled() {
		if _, err := b.SweepPendingTTL(); err != nil {
			return err
		}
	}
	return nil
}

// PaymentTimeout returns the timeout applied to a single provider call.
// Zero means no timeout was configured.
func (b *Bootstrap) PaymentTimeout() time.Duration {
	if b == nil || b.Client == nil || b.Client.Payment == nil {
		return 0
	}
	d, _ := ParseDuration(b.Client.Payment.Timeout, 0)
	return d
}

// SweepEnabled reports whether both the schedule and the pending TTL are set.
func (b *Bootstrap) SweepEnabled() bool {
	return b != nil && b.Sweep != nil && b.Sweep.Schedule != "" && b.Sweep.PendingTTL != ""
}

// SweepPendingTTL returns the age after which a pending transaction is
// expired by the sweep.
func (b *Bootstrap) SweepPendingTTL() (time.Duration, error) {
	if !b.SweepEnabled() {
		return 0, fmt.Errorf("sweep is not configured")
	}
	d, err := time.ParseDuration(b.Sweep.PendingTTL)
	if err != nil {
		return 0, fmt.Errorf("sweep.pending_ttl: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("sweep.pending_ttl must be positive")
	}
	return d, nil
}

// ParseDuration parses s, returning def for an empty string.
func ParseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}
