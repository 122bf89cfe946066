package lifecycle

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTicketValidUntilEnd(t *testing.T) {
	g := New(context.Background())
	tk := g.Ticket()
	assert.True(t, tk.Valid())
	assert.NoError(t, tk.Context().Err())

	g.End()
	assert.False(t, tk.Valid())
	assert.ErrorIs(t, tk.Context().Err(), context.Canceled)

	next := g.Ticket()
	assert.True(t, next.Valid())
	assert.NoError(t, next.Context().Err())
	assert.Greater(t, next.ID(), tk.ID())
}

func TestZeroTicket(t *testing.T) {
	var tk Ticket
	assert.False(t, tk.Valid())
	assert.Error(t, tk.Context().Err())
}

func TestParentCancellation(t *testing.T) {
	parent, cancel := context.WithCancel(context.Background())
	g := New(parent)
	tk := g.Ticket()
	cancel()
	assert.Error(t, tk.Context().Err())
	assert.True(t, tk.Valid(), "parent cancellation does not end the generation")
}

func TestConcurrentUse(t *testing.T) {
	g := New(context.Background())
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = g.Ticket().Valid()
			}
		}()
	}
	g.End()
	wg.Wait()
	assert.Equal(t, uint64(2), g.Current())
}
