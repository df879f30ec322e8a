package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"darkchat/internal/config"
	"darkchat/internal/models"
	"darkchat/internal/storage"
)

func newTestStore(t *testing.T) (*Store, *sql.DB) {
	t.Helper()
	cfg := &config.Config{
		Databases: map[string]config.DatabaseConfig{
			"sqlite3": {DSN: ":memory:"},
		},
	}
	db, err := storage.Open("sqlite3", cfg)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := storage.Migrate(db, "sqlite3"); err != nil {
		t.Fatalf("migrate db: %v", err)
	}
	st, err := New(db)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	return st, db
}

func mustRegister(t *testing.T, st *Store) *models.User {
	t.Helper()
	user, err := st.RegisterUser(context.Background(),
		fmt.Sprintf("tester_%d", time.Now().UnixNano()), "pass123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return user
}

func TestRegisterAndLogin(t *testing.T) {
	st, db := newTestStore(t)
	defer db.Close()
	ctx := context.Background()

	user := mustRegister(t, st)

	if _, err := st.RegisterUser(ctx, user.Username, "otherpass"); err == nil {
		t.Fatalf("expected duplicate username to fail")
	}

	got, err := st.Login(ctx, user.Username, "pass123")
	if err != nil || got.ID != user.ID {
		t.Fatalf("login failed: %v", err)
	}
	if _, err := st.Login(ctx, user.Username, "wrong"); err == nil || err.Error() != "invalid credentials" {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := st.Login(ctx, "nobody", "pass123"); err == nil || err.Error() != "invalid credentials" {
		t.Fatalf("unknown user must not be distinguishable, got %v", err)
	}
}

func TestSessionDefaultsAndUpdate(t *testing.T) {
	st, db := newTestStore(t)
	defer db.Close()
	ctx := context.Background()
	user := mustRegister(t, st)

	session, err := st.CreateSession(ctx, user.ID, "", "")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.Title != "New Chat" || session.Model != "gpt-4" {
		t.Fatalf("unexpected defaults: %+v", session)
	}

	title := "Renamed"
	temp := 70
	updated, err := st.UpdateSession(ctx, user.ID, session.ID, SessionUpdate{Title: &title, Temperature: &temp})
	if err != nil {
		t.Fatalf("update session: %v", err)
	}
	if updated.Title != "Renamed" || updated.Temperature != 70 {
		t.Fatalf("update not applied: %+v", updated)
	}

	bad := 150
	if _, err := st.UpdateSession(ctx, user.ID, session.ID, SessionUpdate{Temperature: &bad}); err == nil {
		t.Fatalf("expected out-of-range temperature to fail")
	}

	other := mustRegister(t, st)
	if _, err := st.UpdateSession(ctx, other.ID, session.ID, SessionUpdate{Title: &title}); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("foreign update must look like a missing session, got %v", err)
	}
	if _, err := st.GetSession(ctx, other.ID, session.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("foreign read must look like a missing session, got %v", err)
	}
}

func TestSessionListOrderedByActivity(t *testing.T) {
	st, db := newTestStore(t)
	defer db.Close()
	ctx := context.Background()
	user := mustRegister(t, st)

	first, err := st.CreateSession(ctx, user.ID, "first", "")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := st.CreateSession(ctx, user.ID, "second", ""); err != nil {
		t.Fatalf("create session: %v", err)
	}

	time.Sleep(5 * time.Millisecond)
	if _, err := st.AddMessage(ctx, models.Message{SessionID: first.ID, Role: models.RoleUser, Content: "bump"}); err != nil {
		t.Fatalf("add message: %v", err)
	}

	sessions, err := st.ListSessions(ctx, user.ID)
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != first.ID {
		t.Fatalf("a new message must move the session to the top, got order %d,%d", sessions[0].ID, sessions[1].ID)
	}
}

func TestMessageOrderingAndIdempotentReads(t *testing.T) {
	st, db := newTestStore(t)
	defer db.Close()
	ctx := context.Background()
	user := mustRegister(t, st)
	session, err := st.CreateSession(ctx, user.ID, "", "")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	contents := []string{"one", "two", "three", "four"}
	for _, c := range contents {
		if _, err := st.AddMessage(ctx, models.Message{SessionID: session.ID, Role: models.RoleUser, Content: c}); err != nil {
			t.Fatalf("add %q: %v", c, err)
		}
	}

	list := func() []string {
		msgs, err := st.ListMessages(ctx, session.ID)
		if err != nil {
			t.Fatalf("list messages: %v", err)
		}
		var got []string
		for _, m := range msgs {
			got = append(got, m.Content)
		}
		return got
	}

	firstRead := list()
	if strings.Join(firstRead, ",") != "one,two,three,four" {
		t.Fatalf("unexpected order: %v", firstRead)
	}
	secondRead := list()
	if strings.Join(firstRead, ",") != strings.Join(secondRead, ",") {
		t.Fatalf("repeated reads must be identical: %v vs %v", firstRead, secondRead)
	}

	recent, err := st.ListRecentMessages(ctx, session.ID, 2)
	if err != nil {
		t.Fatalf("list recent: %v", err)
	}
	if len(recent) != 2 || recent[0].Content != "three" || recent[1].Content != "four" {
		t.Fatalf("recent window must be the newest turns oldest-first: %+v", recent)
	}

	if _, err := st.AddMessage(ctx, models.Message{SessionID: session.ID, Role: models.RoleUser, Content: "   "}); err == nil {
		t.Fatalf("blank content must be rejected")
	}
}

func TestDeleteSessionCascades(t *testing.T) {
	st, db := newTestStore(t)
	defer db.Close()
	ctx := context.Background()
	user := mustRegister(t, st)
	session, err := st.CreateSession(ctx, user.ID, "", "")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := st.AddMessage(ctx, models.Message{SessionID: session.ID, Role: models.RoleUser, Content: "hello"}); err != nil {
		t.Fatalf("add message: %v", err)
	}

	if err := st.DeleteSession(ctx, user.ID, session.ID); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM messages WHERE session_id = ?`, session.ID).Scan(&count); err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected messages removed with the session, got %d", count)
	}
	if err := st.DeleteSession(ctx, user.ID, session.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("second delete must report a missing session, got %v", err)
	}
}

func TestAPIKeysMaskedOnList(t *testing.T) {
	st, db := newTestStore(t)
	defer db.Close()
	ctx := context.Background()
	user := mustRegister(t, st)

	created, err := st.CreateAPIKey(ctx, user.ID, "ci key", "openai")
	if err != nil {
		t.Fatalf("create api key: %v", err)
	}
	if !strings.HasPrefix(created.Key, "sk_") || len(created.Key) != 35 {
		t.Fatalf("unexpected key format: %q", created.Key)
	}

	keys, err := st.ListAPIKeys(ctx, user.ID)
	if err != nil {
		t.Fatalf("list api keys: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("expected 1 key, got %d", len(keys))
	}
	if keys[0].Key != created.Key[:8]+"..." {
		t.Fatalf("expected masked key, got %q", keys[0].Key)
	}

	if err := st.DeleteAPIKey(ctx, user.ID, created.ID); err != nil {
		t.Fatalf("delete api key: %v", err)
	}
	if err := st.DeleteAPIKey(ctx, user.ID, created.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("second delete must report a missing key, got %v", err)
	}
}

func TestAPIKeysEncryptedAtRest(t *testing.T) {
	t.Setenv(apiKeyCipherEnv, strings.Repeat("k", 32))

	st, db := newTestStore(t)
	defer db.Close()
	ctx := context.Background()
	user := mustRegister(t, st)

	created, err := st.CreateAPIKey(ctx, user.ID, "enc key", "openai")
	if err != nil {
		t.Fatalf("create api key: %v", err)
	}

	var stored string
	if err := db.QueryRow(`SELECT api_key FROM api_keys WHERE id = ?`, created.ID).Scan(&stored); err != nil {
		t.Fatalf("read raw key: %v", err)
	}
	if stored == created.Key {
		t.Fatalf("key must not be stored in plaintext")
	}

	keys, err := st.ListAPIKeys(ctx, user.ID)
	if err != nil {
		t.Fatalf("list api keys: %v", err)
	}
	if keys[0].Key != created.Key[:8]+"..." {
		t.Fatalf("masked listing must come from the decrypted value, got %q", keys[0].Key)
	}
}

func TestFilesOwnerScoped(t *testing.T) {
	st, db := newTestStore(t)
	defer db.Close()
	ctx := context.Background()
	owner := mustRegister(t, st)
	other := mustRegister(t, st)

	record, err := st.RecordFile(ctx, models.File{
		UserID:    owner.ID,
		Filename:  "notes.txt",
		Path:      fmt.Sprintf("%d/123-notes.txt", owner.ID),
		Size:      12,
		MimeType:  "text/plain",
		PublicURL: fmt.Sprintf("/uploads/%d/123-notes.txt", owner.ID),
	})
	if err != nil {
		t.Fatalf("record file: %v", err)
	}

	if _, err := st.GetFile(ctx, other.ID, record.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("foreign read must look like a missing file, got %v", err)
	}
	if err := st.DeleteFile(ctx, other.ID, record.ID); !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("foreign delete must look like a missing file, got %v", err)
	}

	files, err := st.ListFiles(ctx, owner.ID)
	if err != nil || len(files) != 1 {
		t.Fatalf("owner listing failed: %v (%d files)", err, len(files))
	}
	if err := st.DeleteFile(ctx, owner.ID, record.ID); err != nil {
		t.Fatalf("delete file: %v", err)
	}
}
