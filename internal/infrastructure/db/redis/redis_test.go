package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type recordingSink struct {
	got chan []byte
}

func (s *recordingSink) Broadcast(msg []byte) int {
	s.got <- msg
	return 1
}

func TestRegistrationKey(t *testing.T) {
	if got := registrationKey("u-42"); got != "user:registered:u-42" {
		t.Errorf("unexpected key %q", got)
	}
}

func TestRelay_ForwardsPayloads(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs := make(chan *redis.Message, 2)
	sink := &recordingSink{got: make(chan []byte, 2)}
	done := make(chan error, 1)
	go func() { done <- relay(ctx, msgs, sink) }()

	msgs <- &redis.Message{Channel: "taskboard:events", Payload: `{"event":"taskCreated"}`}

	select {
	case got := <-sink.got:
		if string(got) != `{"event":"taskCreated"}` {
			t.Errorf("unexpected payload %s", got)
		}
	case <-time.After(time.Second):
		t.Fatal("payload not relayed")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("cancellation must end the relay cleanly, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestRelay_ClosedSubscription(t *testing.T) {
	msgs := make(chan *redis.Message)
	close(msgs)

	err := relay(context.Background(), msgs, &recordingSink{got: make(chan []byte, 1)})
	if !errors.Is(err, errBroadcastClosed) {
		t.Fatalf("expected errBroadcastClosed, got %v", err)
	}
}
