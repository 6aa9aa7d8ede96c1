package notify

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubRunStopsOnContextCancel(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hub did not stop after context cancel")
	}
}

func TestHubRunClosesClientsOnShutdown(t *testing.T) {
	h := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	c := &client{send: make(chan Event, 8)}
	h.register <- c

	h.Publish(Event{Type: EventLibraryImported, LibraryID: "lib-1"})

	select {
	case event := <-c.send:
		assert.Equal(t, EventLibraryImported, event.Type)
		assert.Equal(t, "lib-1", event.LibraryID)
		assert.NotZero(t, event.Timestamp)
	case <-time.After(time.Second):
		t.Fatal("registered client did not receive the event")
	}

	cancel()
	<-done

	// Shutdown must close the client's send channel
	select {
	case _, open := <-c.send:
		require.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("client send channel was not closed")
	}
}
