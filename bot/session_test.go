package bot

import "testing"

func TestStoreGetOrCreate(t *testing.T) {
	store := NewStore()

	convo := store.GetOrCreate(1)
	if convo == nil || convo.AskedTopics == nil {
		t.Fatal("expected initialized context")
	}

	convo.LastTopic = "bridge"
	again := store.GetOrCreate(1)
	if again != convo {
		t.Fatal("expected the same context on repeat lookup")
	}

	if got, ok := store.Get(1); !ok || got != convo {
		t.Fatal("Get should return the stored context")
	}
	if store.Len() != 1 {
		t.Fatalf("expected one session, got %d", store.Len())
	}
}

func TestStoreGetMissing(t *testing.T) {
	store := NewStore()
	if _, ok := store.Get(42); ok {
		t.Fatal("expected no context for unknown session")
	}
}

func TestStoreDeleteKeepsLock(t *testing.T) {
	store := NewStore()

	lock := store.Lock(1)
	store.GetOrCreate(1)
	store.Delete(1)

	if store.Len() != 0 {
		t.Fatalf("expected no sessions, got %d", store.Len())
	}
	// the lock survives deletion so in-flight handlers stay serialized
	if store.Lock(1) != lock {
		t.Fatal("expected the same lock after context deletion")
	}
}
