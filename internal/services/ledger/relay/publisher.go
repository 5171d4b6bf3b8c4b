package relay

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/redis/go-redis/v9"

	"github.com/louisbranch/podcom/internal/services/ledger/domain/event"
)

const (
	// DefaultStream is the Redis stream notifications are appended to.
	DefaultStream = "podcom:notifications"
	// DefaultStreamMaxLen caps the stream length (approximately).
	DefaultStreamMaxLen int64 = 100_000

	defaultPublishTries = 3
)

// StreamAdder is the part of a Redis client the publisher needs.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// StreamPublisher appends notifications to a Redis stream.
type StreamPublisher struct {
	client     StreamAdder
	stream     string
	maxLen     int64
	tries      uint
	newBackOff func() backoff.BackOff
}

// PublisherOption configures a StreamPublisher.
type PublisherOption func(*StreamPublisher)

// WithPublishTries bounds the XADD attempts made for one notification.
func WithPublishTries(n uint) PublisherOption {
	return func(p *StreamPublisher) {
		if n > 0 {
			p.tries = n
		}
	}
}

// WithPublishBackOff overrides the delay policy between XADD attempts.
func WithPublishBackOff(newBackOff func() backoff.BackOff) PublisherOption {
	return func(p *StreamPublisher) {
		if newBackOff != nil {
			p.newBackOff = newBackOff
		}
	}
}

// NewStreamPublisher returns a publisher writing to stream. A non-positive
// maxLen disables trimming.
func NewStreamPublisher(client StreamAdder, stream string, maxLen int64, opts ...PublisherOption) (*StreamPublisher, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	stream = strings.TrimSpace(stream)
	if stream == "" {
		stream = DefaultStream
	}
	p := &StreamPublisher{
		client: client,
		stream: stream,
		maxLen: maxLen,
		tries:  defaultPublishTries,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			return b
		},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p, nil
}

// Publish appends evt and returns the stream entry id.
func (p *StreamPublisher) Publish(ctx context.Context, evt event.Event) (string, error) {
	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: StreamValues(evt),
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}
	id, err := backoff.Retry(ctx, func() (string, error) {
		id, err := p.client.XAdd(ctx, args).Result()
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return "", backoff.Permanent(err)
			}
			return "", err
		}
		return id, nil
	}, backoff.WithBackOff(p.newBackOff()), backoff.WithMaxTries(p.tries))
	if err != nil {
		return "", fmt.Errorf("xadd %s seq %d: %w", p.stream, evt.Seq, err)
	}
	return id, nil
}

// StreamValues flattens evt into stream entry fields.
func StreamValues(evt event.Event) map[string]any {
	return map[string]any{
		"seq":              strconv.FormatUint(evt.Seq, 10),
		"id":               evt.ID,
		"type":             string(evt.Type),
		"instruction":      evt.Instruction,
		"address":          evt.Address.String(),
		"timestamp":        evt.Timestamp.UTC().Format(time.RFC3339Nano),
		"payload":          string(evt.PayloadJSON),
		"chain_hash":       evt.ChainHash,
		"signature":        evt.Signature,
		"signature_key_id": evt.SignatureKeyID,
	}
}
