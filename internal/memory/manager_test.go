package memory

import (
	"testing"
	"time"
)

func TestMemoryManager_AddMessage(t *testing.T) {
	manager := NewMemoryManager(5)

	msg := Message{Role: RoleUser, Content: "I have a cough"}
	manager.AddMessage("session-1", msg)

	history := manager.GetTranscript("session-1")
	if len(history) != 1 {
		t.Fatalf("Expected 1 message, got %d", len(history))
	}
	if history[0].Content != msg.Content {
		t.Errorf("Expected content %q, got %q", msg.Content, history[0].Content)
	}
	if history[0].Timestamp.IsZero() {
		t.Error("Expected timestamp to be filled in")
	}
}

func TestMemoryManager_TranscriptLimit(t *testing.T) {
	manager := NewMemoryManager(3)

	messages := []Message{
		{Role: RoleUser, Content: "Message 1"},
		{Role: RoleBot, Content: "Response 1"},
		{Role: RoleUser, Content: "Message 2"},
		{Role: RoleBot, Content: "Response 2"},
		{Role: RoleTable, Table: []TableRow{{Disease: "Flu", Treatment: "Rest"}}},
	}
	for _, msg := range messages {
		manager.AddMessage("session-1", msg)
	}

	history := manager.GetTranscript("session-1")
	if len(history) != 3 {
		t.Fatalf("Expected 3 messages (limit), got %d", len(history))
	}
	if history[0].Content != "Message 2" {
		t.Errorf("Expected oldest kept message to be 'Message 2', got %q", history[0].Content)
	}
	if history[2].Role != RoleTable || len(history[2].Table) != 1 {
		t.Errorf("Expected newest entry to be the table, got %+v", history[2])
	}
}

func TestMemoryManager_TranscriptIsCopy(t *testing.T) {
	manager := NewMemoryManager(5)
	manager.AddMessage("s", Message{Role: RoleUser, Content: "original"})

	history := manager.GetTranscript("s")
	history[0].Content = "changed"

	if manager.GetTranscript("s")[0].Content != "original" {
		t.Error("transcript mutated through returned slice")
	}
}

func TestMemoryManager_UnknownSession(t *testing.T) {
	manager := NewMemoryManager(5)
	if got := manager.GetTranscript("missing"); len(got) != 0 {
		t.Errorf("Expected empty transcript, got %v", got)
	}
	if got := manager.Language("missing"); got != "" {
		t.Errorf("Expected no language, got %q", got)
	}
}

func TestMemoryManager_Language(t *testing.T) {
	manager := NewMemoryManager(5)
	manager.SetLanguage("s", "fr")
	manager.AddMessage("s", Message{Role: RoleUser, Content: "bonjour"})

	manager.ClearTranscript("s")
	if got := manager.Language("s"); got != "fr" {
		t.Errorf("ClearTranscript should keep language, got %q", got)
	}
	if got := manager.GetTranscript("s"); len(got) != 0 {
		t.Errorf("Expected cleared transcript, got %d entries", len(got))
	}

	manager.EndSession("s")
	if manager.SessionCount() != 0 {
		t.Errorf("Expected no sessions after EndSession")
	}
}

func TestMemoryManager_PruneIdle(t *testing.T) {
	manager := NewMemoryManager(5)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return now }

	manager.AddMessage("old", Message{Role: RoleUser, Content: "hi"})
	now = now.Add(2 * time.Hour)
	manager.AddMessage("fresh", Message{Role: RoleUser, Content: "hi"})

	if removed := manager.PruneIdle(time.Hour); removed != 1 {
		t.Fatalf("PruneIdle removed %d, want 1", removed)
	}
	if manager.SessionCount() != 1 || len(manager.GetTranscript("fresh")) != 1 {
		t.Error("fresh session should survive pruning")
	}
}

func TestMemoryManager_MultipleSessions(t *testing.T) {
	manager := NewMemoryManager(5)
	manager.AddMessage("a", Message{Role: RoleUser, Content: "from a"})
	manager.AddMessage("b", Message{Role: RoleUser, Content: "from b"})

	if got := manager.GetTranscript("a"); len(got) != 1 || got[0].Content != "from a" {
		t.Errorf("session a transcript = %+v", got)
	}
	if got := manager.GetTranscript("b"); len(got) != 1 || got[0].Content != "from b" {
		t.Errorf("session b transcript = %+v", got)
	}
}

func TestMemoryManager_ConcurrentAccess(t *testing.T) {
	manager := NewMemoryManager(10)

	done := make(chan bool, 3)

	go func() {
		for i := 0; i < 100; i++ {
			manager.AddMessage("s1", Message{Role: RoleUser, Content: "Message from goroutine 1"})
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 100; i++ {
			manager.GetTranscript("s1")
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 100; i++ {
			manager.PruneIdle(time.Hour)
		}
		done <- true
	}()

	<-done
	<-done
	<-done

	if len(manager.GetTranscript("s1")) == 0 {
		t.Error("Expected messages after concurrent access")
	}
}
