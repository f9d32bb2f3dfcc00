package jobs

import (
	"context"
	"testing"

	"github.com/facilityhub/facilityhub/internal/config"
)

func TestMutexLocker_SecondAcquireFails(t *testing.T) {
	l := &mutexLocker{}

	release, ok := l.TryLock(context.Background())
	if !ok {
		t.Fatal("first acquire should succeed")
	}

	if _, ok := l.TryLock(context.Background()); ok {
		t.Fatal("second acquire should fail while the lock is held")
	}

	release()

	release2, ok := l.TryLock(context.Background())
	if !ok {
		t.Fatal("acquire after release should succeed")
	}
	release2()
}

func TestNewLocker_DisabledUsesMutex(t *testing.T) {
	l := NewLocker(&config.GeneratorLockConfig{Enabled: false})
	if _, ok := l.(*mutexLocker); !ok {
		t.Fatalf("expected *mutexLocker, got %T", l)
	}
}

func TestNewLocker_EnabledUsesRedis(t *testing.T) {
	l := NewLocker(&config.GeneratorLockConfig{
		Enabled:   true,
		RedisAddr: "localhost:6379",
		LockKey:   "facilityhub:recurring-generator",
	})
	if _, ok := l.(*redisLocker); !ok {
		t.Fatalf("expected *redisLocker, got %T", l)
	}
}
