package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"toolEaseRt/internal/modules/realtime/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func event(key, id string) domain.Event {
	return domain.NewEvent(key, domain.Record{"id": id}, time.Now().UTC())
}

func nextWithin(t *testing.T, s *Stream, d time.Duration) domain.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	ev, err := s.Next(ctx)
	if err != nil {
		t.Fatalf("stream %s: unexpected error: %v", s.Role(), err)
	}
	return ev
}

func TestBroadcasterPublishesToEveryRole(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster(domain.DefaultRoles(), BroadcasterConfig{})
	b.Publish(context.Background(), event("revenue", "e1"))

	for _, role := range b.Roles() {
		q, ok := b.Queue(role)
		if !ok {
			t.Fatalf("missing queue for %s", role)
		}
		if q.Len() != 1 {
			t.Fatalf("role %s expected 1 pending event got %d", role, q.Len())
		}
	}
}

func TestBroadcasterRolesAreNormalizedAndDeduplicated(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster([]string{" Owner", "owner", "", "RENTER"}, BroadcasterConfig{})
	if got := fmt.Sprint(b.Roles()); got != "[owner renter]" {
		t.Fatalf("unexpected roles: %s", got)
	}
	if _, err := b.Subscribe("operator"); !errors.Is(err, domain.ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
}

func TestBroadcasterPreservesPublishOrderPerQueue(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster(domain.DefaultRoles(), BroadcasterConfig{QueueCapacity: 500})
	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				b.Publish(context.Background(), event(fmt.Sprintf("topic-%d", p), fmt.Sprintf("%d", i)))
			}
		}(p)
	}
	wg.Wait()

	var reference []string
	for _, role := range b.Roles() {
		s, err := b.Subscribe(role)
		if err != nil {
			t.Fatalf("subscribe %s: %v", role, err)
		}
		var order []string
		last := map[string]int{}
		for i := 0; i < 400; i++ {
			ev := nextWithin(t, s, time.Second)
			id := ev.Data["id"].(string)
			var n int
			fmt.Sscanf(id, "%d", &n)
			if prev, ok := last[ev.Type]; ok && n <= prev {
				t.Fatalf("role %s: topic %s out of order (%d after %d)", role, ev.Type, n, prev)
			}
			last[ev.Type] = n
			order = append(order, ev.Type+"/"+id)
		}
		s.Close()
		if reference == nil {
			reference = order
			continue
		}
		if fmt.Sprint(order) != fmt.Sprint(reference) {
			t.Fatalf("role %s saw a different global order", role)
		}
	}
}

func TestBroadcasterQueuesHoldIndependentCopies(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster([]string{"owner", "renter"}, BroadcasterConfig{})
	original := event("bookings", "B1")
	b.Publish(context.Background(), original)

	owner, _ := b.Subscribe("owner")
	defer owner.Close()
	renter, _ := b.Subscribe("renter")
	defer renter.Close()

	ev := nextWithin(t, owner, time.Second)
	ev.Data["id"] = "mutated"

	if got := nextWithin(t, renter, time.Second); got.Data["id"] != "B1" {
		t.Fatalf("renter copy affected by owner mutation: %v", got.Data)
	}
	if original.Data["id"] != "B1" {
		t.Fatalf("published event mutated: %v", original.Data)
	}
}

func TestStreamYieldsEventPublishedAfterOpen(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster(domain.DefaultRoles(), BroadcasterConfig{IdleInterval: 50 * time.Millisecond})
	s, err := b.Subscribe("renter")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	got := make(chan domain.Event, 1)
	go func() {
		ev, err := s.Next(context.Background())
		if err == nil {
			got <- ev
		}
	}()

	time.Sleep(10 * time.Millisecond)
	b.Publish(context.Background(), event("bookings", "R4"))

	select {
	case ev := <-got:
		if ev.Data["id"] != "R4" || ev.Type != "bookings" {
			t.Fatalf("unexpected event: %#v", ev)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
}

func TestStreamCloseUnblocksPendingNext(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster(domain.DefaultRoles(), BroadcasterConfig{IdleInterval: time.Hour})
	s, err := b.Subscribe("owner")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := s.Next(context.Background())
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	start := time.Now()
	s.Close()
	s.Close()

	select {
	case err := <-errCh:
		if !errors.Is(err, domain.ErrStreamClosed) {
			t.Fatalf("expected ErrStreamClosed, got %v", err)
		}
		if time.Since(start) > time.Second {
			t.Fatalf("close took too long: %s", time.Since(start))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Next did not return after Close")
	}
}

func TestStreamContextCancelUnblocksNext(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster(domain.DefaultRoles(), BroadcasterConfig{IdleInterval: time.Hour})
	s, _ := b.Subscribe("operator")
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := s.Next(ctx)
		errCh <- err
	}()

	time.Sleep(10 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Next did not return after cancel")
	}
}

func TestTwoStreamsOfSameRoleBothSeeEvent(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster(domain.DefaultRoles(), BroadcasterConfig{})
	first, _ := b.Subscribe("renter")
	defer first.Close()
	second, _ := b.Subscribe("renter")
	defer second.Close()

	b.Publish(context.Background(), event("bookings", "R4"))
	b.Publish(context.Background(), event("bookings", "R5"))

	for _, s := range []*Stream{first, second} {
		if ev := nextWithin(t, s, time.Second); ev.Data["id"] != "R4" {
			t.Fatalf("stream %s expected R4 first, got %v", s.ID(), ev.Data["id"])
		}
		if ev := nextWithin(t, s, time.Second); ev.Data["id"] != "R5" {
			t.Fatalf("stream %s expected R5 second, got %v", s.ID(), ev.Data["id"])
		}
	}
}

func TestStreamsReportDistinctIDs(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster(domain.DefaultRoles(), BroadcasterConfig{})
	a, _ := b.Subscribe("owner")
	defer a.Close()
	c, _ := b.Subscribe("owner")
	defer c.Close()
	if a.ID() == c.ID() || a.ID() == "" {
		t.Fatalf("expected distinct ids, got %q and %q", a.ID(), c.ID())
	}
	stats := b.Stats()
	if stats[0].Role != "owner" || stats[0].Subscribers != 2 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
}
