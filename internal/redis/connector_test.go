package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/huddle/internal/logger"
)

func testOptions(addr string) ConnectOptions {
	return ConnectOptions{
		Addr:           addr,
		DialTimeout:    100 * time.Millisecond,
		ReadTimeout:    100 * time.Millisecond,
		WriteTimeout:   100 * time.Millisecond,
		PoolSize:       2,
		ConnectTimeout: 500 * time.Millisecond,
		RetryInterval:  20 * time.Millisecond,
		MaxWait:        50 * time.Millisecond,
		PingTimeout:    100 * time.Millisecond,
		WarnThreshold:  2,
	}
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := Connect(context.Background(), testOptions(mr.Addr()), logger.NewNop())
	require.NoError(t, err)
	defer client.Close()

	assert.NoError(t, client.Ping(context.Background()).Err())
}

func TestConnect_GivesUp(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	start := time.Now()
	client, err := Connect(context.Background(), testOptions(addr), logger.NewNop())

	require.Error(t, err)
	assert.Nil(t, client)
	assert.Contains(t, err.Error(), "redis unavailable")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestConnect_InvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ConnectOptions)
	}{
		{"zero connect timeout", func(o *ConnectOptions) { o.ConnectTimeout = 0 }},
		{"zero retry interval", func(o *ConnectOptions) { o.RetryInterval = 0 }},
		{"zero max wait", func(o *ConnectOptions) { o.MaxWait = 0 }},
		{"zero ping timeout", func(o *ConnectOptions) { o.PingTimeout = 0 }},
		{"negative warn threshold", func(o *ConnectOptions) { o.WarnThreshold = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions("localhost:0")
			tt.mutate(&opts)
			_, err := Connect(context.Background(), opts, logger.NewNop())
			assert.Error(t, err)
		})
	}
}

func TestConnectOptions_ValidateJoinsErrors(t *testing.T) {
	err := ConnectOptions{WarnThreshold: -1}.Validate()
	require.Error(t, err)
	for _, name := range []string{"ConnectTimeout", "RetryInterval", "MaxWait", "PingTimeout", "WarnThreshold"} {
		assert.Contains(t, err.Error(), name)
	}

	assert.NoError(t, testOptions("localhost:6379").Validate())
}

func TestBackoff(t *testing.T) {
	b := backoff{wait: 2 * time.Second, max: 10 * time.Second}

	var got []time.Duration
	for range 5 {
		got = append(got, b.next())
	}
	assert.Equal(t, []time.Duration{
		2 * time.Second, 4 * time.Second, 8 * time.Second, 10 * time.Second, 10 * time.Second,
	}, got)
}
