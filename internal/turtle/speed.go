package turtle

import (
	"context"
	"time"
)

// Speed levels follow Python turtle: 0 draws instantly, 1 is the slowest
// animated level and 10 the fastest.
const (
	SpeedInstant = 0
	SpeedSlowest = 1
	SpeedFastest = 10
	DefaultSpeed = 6

	DefaultSteps = 20
)

// pacing returns the animation step count and per-step delay for a level.
// Level 6 gives the classic 20 steps at 5ms.
func pacing(level, steps int) (int, time.Duration) {
	if level <= SpeedInstant {
		return 1, 0
	}
	if level > SpeedFastest {
		level = SpeedFastest
	}
	return steps, time.Duration(SpeedFastest+1-level) * time.Millisecond
}

func clampSpeed(level int) int {
	switch {
	case level < SpeedInstant:
		return SpeedInstant
	case level > SpeedFastest:
		return SpeedFastest
	}
	return level
}

// SleepFunc waits between animation steps. It must return ctx.Err() once
// ctx is done, even for a zero delay.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real-time SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
