package redis

import "time"

// ClientOption configures Client.
type ClientOption func(*ClientConfig)

// ClientConfig holds Redis configuration.
type ClientConfig struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	PoolTimeout  time.Duration
	MinIdleConns int
	Prefix       string
}

// WithAddr sets the Redis address (host:port).
func WithAddr(addr string) ClientOption {
	return func(c *ClientConfig) {
		c.Addr = addr
	}
}

// WithPassword sets the Redis password.
func WithPassword(password string) ClientOption {
	return func(c *ClientConfig) {
		c.Password = password
	}
}

// WithDB sets the Redis database number.
func WithDB(db int) ClientOption {
	return func(c *ClientConfig) {
		c.DB = db
	}
}

// WithPool sets connection pool settings.
func WithPool(poolSize, minIdleConns int, timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.PoolSize = poolSize
		c.MinIdleConns = minIdleConns
		c.PoolTimeout = timeout
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) ClientOption {
	return func(c *ClientConfig) {
		c.Prefix = prefix
	}
}
