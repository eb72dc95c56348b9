package memory

import (
	"testing"
	"time"
)

func TestInflightRepository(t *testing.T) {
	repo := NewInflightRepository(time.Minute)

	if !repo.TryAcquire("session-a") {
		t.Fatal("first acquire should succeed")
	}
	if repo.TryAcquire("session-a") {
		t.Error("second acquire on the same session should fail")
	}
	if !repo.TryAcquire("session-b") {
		t.Error("a different session should not be blocked")
	}

	repo.Release("session-a")
	if !repo.TryAcquire("session-a") {
		t.Error("acquire after release should succeed")
	}
}

func TestInflightRepositoryExpiry(t *testing.T) {
	repo := NewInflightRepository(20 * time.Millisecond)

	if !repo.TryAcquire("session-a") {
		t.Fatal("first acquire should succeed")
	}

	time.Sleep(50 * time.Millisecond)

	// Abandoned entries expire on their own
	if !repo.TryAcquire("session-a") {
		t.Error("acquire after TTL expiry should succeed")
	}
}
