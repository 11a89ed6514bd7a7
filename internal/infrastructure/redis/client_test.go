package redis

import (
	"context"
	"fmt"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
)

func TestNewClientSuccess(t *testing.T) {
	s := miniredis.RunT(t)

	ctx := context.Background()
	client, err := NewClient(ctx, fmt.Sprintf("redis://%s/2", s.Addr()), zerolog.Nop())
	if err != nil {
		t.Fatalf("expected client, got error: %v", err)
	}
	defer client.Close()

	if err := client.Set(ctx, "k", "v", 0).Err(); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	s.Select(2)
	if got, err := s.Get("k"); err != nil || got != "v" {
		t.Fatalf("expected key in db 2, got %q err=%v", got, err)
	}
}

func TestNewClientInvalidURL(t *testing.T) {
	_, err := NewClient(context.Background(), "://bad-url", zerolog.Nop())
	if err == nil {
		t.Fatalf("expected error for invalid URL")
	}
}

func TestNewClientPingFailure(t *testing.T) {
	s := miniredis.RunT(t)
	url := fmt.Sprintf("redis://%s", s.Addr())
	s.Close() // close before attempting to connect

	_, err := NewClient(context.Background(), url, zerolog.Nop())
	if err == nil {
		t.Fatalf("expected ping error when server is down")
	}
}
