package client

import (
	"net/http"
	"testing"
)

func TestSendTextEmptyBodyNoCall(t *testing.T) {
	counter := &countingHandler{handler: func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}}
	api, _ := newTestAPI(t, counter)

	m := NewMessaging(api)
	m.Friend = "bob"
	m.State = ConversationLoaded

	for _, body := range []string{"", "   ", " \n "} {
		if _, err := m.SendText(body); err != ErrEmptyMessage {
			t.Errorf("SendText(%q): expected ErrEmptyMessage, got %v", body, err)
		}
	}
	if counter.calls != 0 {
		t.Errorf("empty sends must not hit the network, got %d calls", counter.calls)
	}
}

func TestSendTextRequiresSelectedFriend(t *testing.T) {
	counter := &countingHandler{handler: func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}}
	api, _ := newTestAPI(t, counter)

	m := NewMessaging(api)
	if _, err := m.SendText("salut"); err != ErrNoFriendSelected {
		t.Fatalf("expected ErrNoFriendSelected, got %v", err)
	}
	if counter.calls != 0 {
		t.Errorf("no request should be issued without a friend, got %d calls", counter.calls)
	}
}

func TestSendTextAppendsAtTail(t *testing.T) {
	api, _ := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Write([]byte(`[{"id": 1, "from_username": "bob", "to_username": "alice", "message_type": "text", "text": "salut"}]`))
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id": 2, "from_username": "alice", "to_username": "bob", "message_type": "text", "text": "ça va ?"}`))
	}))

	m := NewMessaging(api)
	if err := m.SelectFriend("bob"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.State != ConversationLoaded {
		t.Fatalf("expected loaded state, got %s", m.State)
	}

	msg, err := m.SendText("ça va ?")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(m.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(m.Messages))
	}
	if m.Messages[1].ID != msg.ID {
		t.Errorf("confirmed message must be appended at the tail")
	}
}

func TestSelectFriendReloadsThread(t *testing.T) {
	counter := &countingHandler{handler: func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}}
	api, _ := newTestAPI(t, counter)

	m := NewMessaging(api)
	if m.State != ConversationIdle {
		t.Fatalf("expected idle state before any selection, got %s", m.State)
	}

	m.SelectFriend("bob")
	m.SelectFriend("carol")
	m.SelectFriend("bob")

	if counter.calls != 3 {
		t.Errorf("every switch must fully reload, got %d calls", counter.calls)
	}
}

func TestSelectFriendErrorState(t *testing.T) {
	api, _ := newTestAPI(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"detail": "Vous n'êtes pas amis."}`))
	}))

	m := NewMessaging(api)
	if err := m.SelectFriend("eve"); err == nil {
		t.Fatalf("expected error")
	}

	if m.State != ConversationError {
		t.Errorf("expected error state, got %s", m.State)
	}
	if m.Err == nil {
		t.Errorf("error should be kept for display")
	}
}
