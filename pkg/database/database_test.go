package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPoolOptions_Defaults(t *testing.T) {
	opts := PoolOptions{}.withDefaults()
	assert.Equal(t, 10, opts.MaxOpenConns)
	assert.Equal(t, 2, opts.MaxIdleConns)
	assert.Equal(t, 5*time.Minute, opts.ConnMaxLifetime)
	assert.Equal(t, 5*time.Second, opts.PingTimeout)

	// idle 은 open 을 넘지 않는다
	opts = PoolOptions{MaxOpenConns: 1, MaxIdleConns: 4}.withDefaults()
	assert.Equal(t, 1, opts.MaxIdleConns)

	opts = PoolOptions{MaxOpenConns: 20, MaxIdleConns: 5}.withDefaults()
	assert.Equal(t, 20, opts.MaxOpenConns)
	assert.Equal(t, 5, opts.MaxIdleConns)
}

func TestConnect_EmptyURL(t *testing.T) {
	_, err := Connect(context.Background(), "", PoolOptions{})
	assert.Error(t, err)
}
