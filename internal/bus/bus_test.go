package bus

import "testing"

func TestPublishDeliversToTopicSubscribers(t *testing.T) {
	b := New()
	rules := b.Subscribe(TopicRuleConfigChanged)
	defer rules.Close()
	reads := b.Subscribe(TopicReadStateChanged)
	defer reads.Close()

	b.Publish(TopicRuleConfigChanged, "payload")

	select {
	case ev := <-rules.C:
		if ev.Topic != TopicRuleConfigChanged || ev.Payload != "payload" {
			t.Errorf("unexpected event: %+v", ev)
		}
	default:
		t.Fatal("subscriber on the published topic received nothing")
	}

	select {
	case ev := <-reads.C:
		t.Errorf("subscriber on another topic received %+v", ev)
	default:
	}
}

func TestSubscribeMultipleTopics(t *testing.T) {
	b := New()
	sub := b.Subscribe(TopicRuleConfigChanged, TopicReadStateChanged)
	defer sub.Close()

	b.Publish(TopicRuleConfigChanged, nil)
	b.Publish(TopicReadStateChanged, nil)

	if got := len(sub.C); got != 2 {
		t.Errorf("buffered events = %d, want 2", got)
	}
}

func TestCloseStopsDelivery(t *testing.T) {
	b := New()
	sub := b.Subscribe(TopicRuleConfigChanged)
	sub.Close()
	sub.Close() // idempotent

	b.Publish(TopicRuleConfigChanged, nil)
	if got := len(sub.C); got != 0 {
		t.Errorf("closed subscription received %d events", got)
	}
}

func TestPublishNeverBlocks(t *testing.T) {
	b := New()
	sub := b.Subscribe(TopicReadStateChanged)
	defer sub.Close()

	// Well past the channel buffer; a slow subscriber drops events instead
	// of stalling the publisher.
	for i := 0; i < 100; i++ {
		b.Publish(TopicReadStateChanged, i)
	}
	if got := len(sub.C); got != cap(sub.C) {
		t.Errorf("buffered events = %d, want full buffer %d", got, cap(sub.C))
	}
}
