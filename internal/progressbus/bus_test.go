package progressbus

import (
	"testing"

	"github.com/lucidlink/syncd/internal/model"
)

func TestBus_PublishDeliversToSubscriber(t *testing.T) {
	bus := New()
	received := make(chan model.Progress, 1)
	bus.Subscribe(func(jobID string, p model.Progress) {
		received <- p
	})

	bus.Publish("job-1", model.Progress{JobID: "job-1", PercentComplete: 50})

	select {
	case p := <-received:
		if p.PercentComplete != 50 {
			t.Errorf("got percent %v, want 50", p.PercentComplete)
		}
	default:
		t.Fatal("expected subscriber to receive a publish synchronously")
	}
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	bus := New()
	calls := 0
	sub := bus.Subscribe(func(jobID string, p model.Progress) { calls++ })
	bus.Unsubscribe(sub)

	bus.Publish("job-1", model.Progress{JobID: "job-1"})
	if calls != 0 {
		t.Errorf("expected unsubscribed handler to not be called, got %d calls", calls)
	}
}

func TestBus_PanickingSubscriberDoesNotBlockOthers(t *testing.T) {
	bus := New()
	calledSecond := false
	bus.Subscribe(func(jobID string, p model.Progress) { panic("boom") })
	bus.Subscribe(func(jobID string, p model.Progress) { calledSecond = true })

	bus.Publish("job-1", model.Progress{JobID: "job-1"})
	if !calledSecond {
		t.Error("expected second subscriber to still be called after first panicked")
	}
}

func TestBus_LatestReturnsMostRecentSnapshot(t *testing.T) {
	bus := New()
	if _, ok := bus.Latest("job-1"); ok {
		t.Error("expected no latest snapshot before any publish")
	}

	bus.Publish("job-1", model.Progress{JobID: "job-1", PercentComplete: 10})
	bus.Publish("job-1", model.Progress{JobID: "job-1", PercentComplete: 90})

	p, ok := bus.Latest("job-1")
	if !ok {
		t.Fatal("expected a latest snapshot after publishing")
	}
	if p.PercentComplete != 90 {
		t.Errorf("got percent %v, want 90", p.PercentComplete)
	}
}

func TestBus_ClearRemovesLatestSnapshot(t *testing.T) {
	bus := New()
	bus.Publish("job-1", model.Progress{JobID: "job-1"})
	bus.Clear("job-1")
	if _, ok := bus.Latest("job-1"); ok {
		t.Error("expected latest snapshot to be cleared")
	}
}
