package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRunInvokesCycles(t *testing.T) {
	s := New(Options{Interval: 20 * time.Millisecond}, zerolog.Nop())

	var cycles atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, func(ctx context.Context, cycle time.Time) error {
			if cycles.Add(1) >= 3 {
				cancel()
			}
			return nil
		})
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("取消后应返回 context.Canceled, 实际 %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("调度循环未在预期时间内结束")
	}

	if cycles.Load() < 3 {
		t.Fatalf("应执行至少 3 个周期, 实际 %d", cycles.Load())
	}
}

func TestRunCycleErrorsNotFatal(t *testing.T) {
	s := New(Options{Interval: 10 * time.Millisecond}, zerolog.Nop())

	var cycles atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, func(ctx context.Context, cycle time.Time) error {
			if cycles.Add(1) >= 2 {
				cancel()
			}
			return errors.New("cycle boom")
		})
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("周期错误不应中止调度循环")
	}

	if cycles.Load() < 2 {
		t.Fatalf("出错后应继续执行, 实际 %d", cycles.Load())
	}
}

func TestRunStartupDelayCancellable(t *testing.T) {
	s := New(Options{Interval: time.Minute, StartupDelay: time.Hour}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx, func(ctx context.Context, cycle time.Time) error { return nil })
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("取消启动延迟应返回 context.Canceled, 实际 %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("取消后应立即返回")
	}
}

func TestNextCycleAligned(t *testing.T) {
	s := New(Options{Interval: time.Hour, AlignToStart: true}, zerolog.Nop())

	now := time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)
	next := s.nextCycle(now)
	if !next.Equal(time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)) {
		t.Fatalf("对齐模式应取下一个整点, 实际 %s", next)
	}

	s = New(Options{Interval: time.Hour}, zerolog.Nop())
	next = s.nextCycle(now)
	if !next.Equal(now.Add(time.Hour)) {
		t.Fatalf("非对齐模式应为 now+interval, 实际 %s", next)
	}
}
