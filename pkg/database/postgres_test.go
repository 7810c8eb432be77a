package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsConnectionError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"dial refused", &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}, true},
		{"wrapped eof", fmt.Errorf("ping: %w", io.EOF), true},
		{"unexpected eof", io.ErrUnexpectedEOF, true},
		{"admin shutdown", &pgconn.PgError{Code: "57P01", Message: "terminating connection due to administrator command"}, true},
		{"connection failure", &pgconn.PgError{Code: "08006"}, true},
		{"reset text", errors.New("read: connection reset by peer"), true},
		{"syntax error", &pgconn.PgError{Code: "42601", Message: "syntax error at or near \"TABLE\""}, false},
		{"duplicate tour title", &pgconn.PgError{Code: "23505", ConstraintName: "tours_title_key"}, false},
		{"missing relation", &pgconn.PgError{Code: "42P01", Message: "relation \"reviews\" does not exist"}, false},
		{"plain error", errors.New("invalid migration file name"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isConnectionError(tt.err))
		})
	}
}

func TestRetryBackoff_WithinJitterBounds(t *testing.T) {
	for attempt := 0; attempt < defaultRetryAttempts; attempt++ {
		base := defaultRetryBaseWait << attempt
		lo := time.Duration(float64(base) * (1 - retryJitterFraction))
		hi := time.Duration(float64(base) * (1 + retryJitterFraction))
		for i := 0; i < 20; i++ {
			d := retryBackoff(attempt)
			assert.True(t, d >= lo && d <= hi, "attempt %d: %v outside [%v, %v]", attempt, d, lo, hi)
		}
	}
	assert.LessOrEqual(t, retryBackoff(-1), defaultRetryBaseWait*5/4, "negative attempts clamp to the first delay")
}

func TestRetry_FirstAttemptSucceeds(t *testing.T) {
	var calls int
	err := retry(context.Background(), quietLogger(), "postgres", func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestRetry_CancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int
	err := retry(ctx, nil, "redis", func() error {
		calls++
		return errors.New("dial tcp 127.0.0.1:6379: connect: connection refused")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "connect to redis")
	assert.Equal(t, 1, calls)
}

func TestNewPostgresPool_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := DefaultPostgresConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 1

	pool, err := NewPostgresPoolWithLogger(ctx, &cfg, quietLogger())
	require.Error(t, err)
	assert.Nil(t, pool)
}
