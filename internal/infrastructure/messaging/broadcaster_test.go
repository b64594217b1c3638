package messaging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HabariMedia/newsroom-go/internal/infrastructure/observability/logging"
)

func testLogger(t *testing.T) *logging.ChanneledLogger {
	t.Helper()

	cfg := logging.DefaultLoggerConfig()
	cfg.OutputToFile = false
	cfg.OutputToConsole = false

	logger, err := logging.NewChanneledLogger(cfg)
	require.NoError(t, err)
	return logger
}

func TestSubscribeReceivesMatchingTopic(t *testing.T) {
	b := NewBroadcaster(testLogger(t))

	ch, cancel := b.Subscribe(TopicSession)
	defer cancel()

	b.Publish(TopicSession, "payload")

	select {
	case event := <-ch:
		assert.Equal(t, TopicSession, event.Topic)
		assert.Equal(t, "payload", event.Payload)
	case <-time.After(time.Second):
		t.Fatal("expected event was not delivered")
	}
}

func TestSubscribeFiltersOtherTopics(t *testing.T) {
	b := NewBroadcaster(testLogger(t))

	ch, cancel := b.Subscribe(TopicGeo)
	defer cancel()

	b.Publish(TopicSession, "ignored")
	b.Publish(TopicGeo, "wanted")

	select {
	case event := <-ch:
		assert.Equal(t, TopicGeo, event.Topic)
	case <-time.After(time.Second):
		t.Fatal("expected event was not delivered")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroadcaster(testLogger(t))

	ch, cancel := b.Subscribe()
	cancel()

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, b.SubscriberCount())
}

func TestSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	b := NewBroadcaster(testLogger(t))

	_, cancel := b.Subscribe(TopicPreferences)
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(TopicPreferences, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a full subscriber buffer")
	}
}
