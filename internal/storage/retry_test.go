package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDo_TransientRetriesExactlyTwice_Sentinel(t *testing.T) {
	attempts := 0
	v, err := Do(context.Background(), DefaultPolicy(Sentinel), "test.op", func(ctx context.Context) (string, error) {
		attempts++
		return "", fmt.Errorf("write failed: %w", ErrConnectionEnded)
	})
	require.NoError(t, err, "sentinel terminal behavior must not surface the error")
	require.Empty(t, v)
	require.Equal(t, 2, attempts, "exactly two attempts, never a third")
}

func TestDo_TransientRetriesExactlyTwice_Escalate(t *testing.T) {
	attempts := 0
	_, err := Do(context.Background(), DefaultPolicy(Escalate), "test.op", func(ctx context.Context) ([]int, error) {
		attempts++
		return nil, ErrConnectionEnded
	})
	require.ErrorIs(t, err, ErrConnectionEnded)
	require.Equal(t, 2, attempts)
}

func TestDo_NonRetryableFailsImmediately(t *testing.T) {
	permanent := errors.New("constraint violation")
	attempts := 0
	_, err := Do(context.Background(), DefaultPolicy(Escalate), "test.op", func(ctx context.Context) (int, error) {
		attempts++
		return 0, permanent
	})
	require.ErrorIs(t, err, permanent)
	require.Equal(t, 1, attempts, "permanent errors are never retried")
}

func TestDo_SecondAttemptSucceeds(t *testing.T) {
	attempts := 0
	v, err := Do(context.Background(), DefaultPolicy(Escalate), "test.op", func(ctx context.Context) (string, error) {
		attempts++
		if attempts == 1 {
			return "", ErrConnectionEnded
		}
		return "ok", nil
	})
	require.NoError(t, err)
	require.Equal(t, "ok", v)
	require.Equal(t, 2, attempts)
}

func TestIsTransient(t *testing.T) {
	require.True(t, IsTransient(ErrConnectionEnded))
	require.True(t, IsTransient(fmt.Errorf("query: %w", ErrConnectionEnded)))
	require.True(t, IsTransient(errors.New("read tcp: connection ended unexpectedly")))
	require.False(t, IsTransient(errors.New("UNIQUE constraint failed")))
	require.False(t, IsTransient(nil))
}
