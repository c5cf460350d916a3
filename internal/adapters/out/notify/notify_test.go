package notify_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"pizzeria/internal/adapters/out/notify"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHub(t *testing.T) {
	t.Run("should deliver to every subscriber of the topic", func(t *testing.T) {
		hub := notify.NewHub(4, discardLogger())
		a := hub.Subscribe("orders")
		b := hub.Subscribe("orders")
		other := hub.Subscribe("orders.x")
		defer a.Close()
		defer b.Close()
		defer other.Close()

		require.NoError(t, hub.Publish(t.Context(), "orders", []byte("hello")))

		assert.Equal(t, []byte("hello"), <-a.C)
		assert.Equal(t, []byte("hello"), <-b.C)
		assert.Empty(t, other.C)
	})

	t.Run("should drop for a full subscriber without blocking others", func(t *testing.T) {
		hub := notify.NewHub(1, discardLogger())
		slow := hub.Subscribe("orders")
		fast := hub.Subscribe("orders")
		defer slow.Close()
		defer fast.Close()

		require.NoError(t, hub.Publish(t.Context(), "orders", []byte("1")))
		<-fast.C
		require.NoError(t, hub.Publish(t.Context(), "orders", []byte("2")))

		assert.Equal(t, []byte("2"), <-fast.C)
		assert.Equal(t, []byte("1"), <-slow.C)
		assert.Empty(t, slow.C)
	})

	t.Run("should close the channel on unsubscribe", func(t *testing.T) {
		hub := notify.NewHub(1, discardLogger())
		sub := hub.Subscribe("orders")

		sub.Close()
		sub.Close()

		_, open := <-sub.C
		assert.False(t, open)
		assert.Zero(t, hub.Subscribers("orders"))
	})
}

type funcPublisher func(ctx context.Context, topic string, payload []byte) error

func (f funcPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	return f(ctx, topic, payload)
}

func TestBroadcaster(t *testing.T) {
	t.Run("should fan out independently of slow and failing channels", func(t *testing.T) {
		var delivered atomic.Int32
		release := make(chan struct{})

		slow := funcPublisher(func(ctx context.Context, _ string, _ []byte) error {
			select {
			case <-release:
			case <-ctx.Done():
			}
			return ctx.Err()
		})
		failing := funcPublisher(func(context.Context, string, []byte) error {
			return errors.New("broker down")
		})
		ok := funcPublisher(func(context.Context, string, []byte) error {
			delivered.Add(1)
			return nil
		})

		b := notify.NewBroadcaster(time.Second, discardLogger(),
			notify.Channel{Name: "slow", Publisher: slow},
			notify.Channel{Name: "failing", Publisher: failing},
			notify.Channel{Name: "ok", Publisher: ok},
		)

		start := time.Now()
		require.NoError(t, b.Publish(t.Context(), "orders", []byte("{}")))
		assert.Less(t, time.Since(start), 100*time.Millisecond)

		assert.Eventually(t, func() bool { return delivered.Load() == 1 }, time.Second, 5*time.Millisecond)
		close(release)
		b.Wait()
	})

	t.Run("should bound each delivery with the publish timeout", func(t *testing.T) {
		done := make(chan error, 1)
		hang := funcPublisher(func(ctx context.Context, _ string, _ []byte) error {
			<-ctx.Done()
			done <- ctx.Err()
			return ctx.Err()
		})
		b := notify.NewBroadcaster(20*time.Millisecond, discardLogger(), notify.Channel{Name: "hang", Publisher: hang})

		ctx, cancel := context.WithCancel(context.Background())
		require.NoError(t, b.Publish(ctx, "orders", nil))
		cancel()
		b.Wait()

		assert.ErrorIs(t, <-done, context.DeadlineExceeded)
	})

	t.Run("should keep publish order on every channel", func(t *testing.T) {
		hub := notify.NewHub(64, discardLogger())
		sub := hub.Subscribe("orders.42")
		defer sub.Close()

		var mu sync.Mutex
		var recorded []string
		record := funcPublisher(func(_ context.Context, _ string, payload []byte) error {
			time.Sleep(time.Millisecond)
			mu.Lock()
			defer mu.Unlock()
			recorded = append(recorded, string(payload))
			return nil
		})

		b := notify.NewBroadcaster(time.Second, discardLogger(),
			notify.Channel{Name: "hub", Publisher: hub},
			notify.Channel{Name: "broker", Publisher: record},
		)
		defer b.Close()

		want := []string{"PENDING", "ACCEPTED", "READY", "ON_THE_WAY", "DELIVERED_PAID"}
		for _, status := range want {
			require.NoError(t, b.Publish(t.Context(), "orders.42", []byte(status)))
		}
		b.Wait()

		got := make([]string, 0, len(want))
		for range want {
			got = append(got, string(<-sub.C))
		}
		assert.Equal(t, want, got)
		mu.Lock()
		assert.Equal(t, want, recorded)
		mu.Unlock()
	})

	t.Run("should drain queued deliveries on close and drop later ones", func(t *testing.T) {
		var delivered atomic.Int32
		ok := funcPublisher(func(context.Context, string, []byte) error {
			delivered.Add(1)
			return nil
		})
		b := notify.NewBroadcaster(time.Second, discardLogger(), notify.Channel{Name: "ok", Publisher: ok})

		for range 3 {
			require.NoError(t, b.Publish(t.Context(), "orders", nil))
		}
		b.Close()
		b.Close()
		require.NoError(t, b.Publish(t.Context(), "orders", nil))

		assert.Equal(t, int32(3), delivered.Load())
	})

	t.Run("should drop when a channel queue is full", func(t *testing.T) {
		release := make(chan struct{})
		var delivered atomic.Int32
		blocked := funcPublisher(func(context.Context, string, []byte) error {
			<-release
			delivered.Add(1)
			return nil
		})
		b := notify.NewBroadcasterWithQueue(time.Second, 1, discardLogger(), notify.Channel{Name: "blocked", Publisher: blocked})

		for range 6 {
			require.NoError(t, b.Publish(t.Context(), "orders", []byte("x")))
		}
		close(release)
		b.Close()

		// One delivery in flight plus one queued at most.
		assert.LessOrEqual(t, delivered.Load(), int32(2))
		assert.GreaterOrEqual(t, delivered.Load(), int32(1))
	})
}

type mockAMQPChannel struct{ mock.Mock }

func (m *mockAMQPChannel) PublishWithContext(
	ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing,
) error {
	return m.Called(ctx, exchange, key, mandatory, immediate, msg).Error(0)
}

func TestAMQPPublisher(t *testing.T) {
	ch := new(mockAMQPChannel)
	ch.On("PublishWithContext", mock.Anything, "pizzeria", "orders.42", false, false,
		mock.MatchedBy(func(msg amqp.Publishing) bool {
			return string(msg.Body) == `{"status":"READY"}` &&
				msg.ContentType == "application/json" &&
				msg.DeliveryMode == amqp.Persistent
		})).Return(nil).Once()

	p := notify.NewAMQPPublisher(ch, "pizzeria")

	require.NoError(t, p.Publish(t.Context(), "orders.42", []byte(`{"status":"READY"}`)))
	ch.AssertExpectations(t)
}

type mockSQS struct{ mock.Mock }

func (m *mockSQS) SendMessage(ctx context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*sqs.SendMessageOutput)
	return out, args.Error(1)
}

func TestSQSPublisher(t *testing.T) {
	t.Run("should send the payload with the topic attribute", func(t *testing.T) {
		client := new(mockSQS)
		client.On("SendMessage", mock.Anything, mock.MatchedBy(func(in *sqs.SendMessageInput) bool {
			return *in.QueueUrl == "https://sqs.local/q" &&
				*in.MessageBody == "{}" &&
				*in.MessageAttributes["topic"].StringValue == "orders"
		})).Return(&sqs.SendMessageOutput{}, nil).Once()

		p := notify.NewSQSPublisher(client, "https://sqs.local/q")

		require.NoError(t, p.Publish(t.Context(), "orders", []byte("{}")))
		client.AssertExpectations(t)
	})

	t.Run("should wrap send errors", func(t *testing.T) {
		client := new(mockSQS)
		client.On("SendMessage", mock.Anything, mock.Anything).Return(nil, errors.New("throttled")).Once()

		err := notify.NewSQSPublisher(client, "q").Publish(t.Context(), "orders", nil)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "throttled")
	})
}
