package memory

import (
	"testing"

	"github.com/mkarpov/docchat/internal/core/domain"
)

func TestEnsureCreatesWithBlankID(t *testing.T) {
	store := NewStore()

	sess, created := store.Ensure("")
	if !created {
		t.Fatalf("Ensure(\"\") did not create a session")
	}
	if sess.ID == "" {
		t.Fatalf("created session has no id")
	}
	if len(sess.History) != 0 {
		t.Fatalf("new session history = %v", sess.History)
	}
	if sess.CreatedAt.IsZero() {
		t.Fatalf("created session has zero timestamp")
	}
}

func TestEnsureReusesKnownID(t *testing.T) {
	store := NewStore()
	first, _ := store.Ensure("")

	again, created := store.Ensure(first.ID)
	if created {
		t.Fatalf("Ensure recreated an existing session")
	}
	if again.ID != first.ID {
		t.Fatalf("id changed: %q -> %q", first.ID, again.ID)
	}
}

func TestEnsureUnknownIDCreatesWithThatID(t *testing.T) {
	store := NewStore()
	sess, created := store.Ensure("client-chosen")
	if !created || sess.ID != "client-chosen" {
		t.Fatalf("Ensure(client-chosen) = %q created=%v", sess.ID, created)
	}
}

func TestAppendAndHistory(t *testing.T) {
	store := NewStore()
	sess, _ := store.Ensure("")

	msgs := []domain.Message{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello"},
	}
	for _, m := range msgs {
		if err := store.AppendMessage(sess.ID, m); err != nil {
			t.Fatalf("AppendMessage: %v", err)
		}
	}

	history, err := store.History(sess.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 || history[0] != msgs[0] || history[1] != msgs[1] {
		t.Fatalf("history = %v", history)
	}

	// The returned slice is a copy; mutating it must not leak back.
	history[0].Content = "tampered"
	fresh, _ := store.History(sess.ID)
	if fresh[0].Content != "hi" {
		t.Fatalf("history copy leaked a mutation")
	}
}

func TestResetClearsHistoryKeepsActiveFile(t *testing.T) {
	store := NewStore()
	sess, _ := store.Ensure("")

	if err := store.SetActiveFile(sess.ID, "report.pdf", domain.FileKindPDF); err != nil {
		t.Fatalf("SetActiveFile: %v", err)
	}
	_ = store.AppendMessage(sess.ID, domain.Message{Role: domain.RoleUser, Content: "q"})

	if err := store.Reset(sess.ID); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	after, err := store.Get(sess.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(after.History) != 0 {
		t.Fatalf("history after reset = %v", after.History)
	}
	if after.ActiveFile != "report.pdf" || after.ActiveKind != domain.FileKindPDF {
		t.Fatalf("reset dropped the active file: %q/%q", after.ActiveFile, after.ActiveKind)
	}
}

func TestUnknownSessionErrors(t *testing.T) {
	store := NewStore()

	if _, err := store.Get("missing"); !domain.IsKind(err, domain.ErrSessionNotFound) {
		t.Fatalf("Get err = %v", err)
	}
	if err := store.AppendMessage("missing", domain.Message{}); !domain.IsKind(err, domain.ErrSessionNotFound) {
		t.Fatalf("AppendMessage err = %v", err)
	}
	if err := store.Reset("missing"); !domain.IsKind(err, domain.ErrSessionNotFound) {
		t.Fatalf("Reset err = %v", err)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	store := NewStore()
	a, _ := store.Ensure("")
	b, _ := store.Ensure("")

	_ = store.AppendMessage(a.ID, domain.Message{Role: domain.RoleUser, Content: "only in a"})

	historyB, _ := store.History(b.ID)
	if len(historyB) != 0 {
		t.Fatalf("session b sees session a's messages: %v", historyB)
	}
}
