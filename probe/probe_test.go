package probe

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aponysus/recheck/logger"
)

func TestCheck(t *testing.T) {
	t.Run("Should report true when the probe succeeds", func(t *testing.T) {
		check := Check(context.Background(), Func(func(context.Context) error { return nil }), 0, logger.NewForTests())
		assert.True(t, check())
	})

	t.Run("Should report false when the probe fails", func(t *testing.T) {
		check := Check(context.Background(), Func(func(context.Context) error {
			return errors.New("down")
		}), 0, logger.NewForTests())
		assert.False(t, check())
	})

	t.Run("Should bound each call with the probe timeout", func(t *testing.T) {
		var deadlines []bool
		p := Func(func(ctx context.Context) error {
			_, ok := ctx.Deadline()
			deadlines = append(deadlines, ok)
			<-ctx.Done()
			return ctx.Err()
		})
		check := Check(context.Background(), p, 10*time.Millisecond, logger.NewForTests())
		assert.False(t, check())
		assert.False(t, check())
		assert.Equal(t, []bool{true, true}, deadlines)
	})

	t.Run("Should pass the parent context through without a timeout", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		check := Check(ctx, Func(func(ctx context.Context) error { return ctx.Err() }), 0, nil)
		assert.False(t, check())
	})
}
