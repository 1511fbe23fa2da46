package queue

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Publisher appends envelopes to one Redis stream.
type Publisher struct {
	client *redis.Client
	stream string
	opts   []PublishOption
	logger *slog.Logger
}

// PublishOption configures XADD.
type PublishOption func(*redis.XAddArgs)

// WithMaxLenApprox sets an approximate max length for the stream.
func WithMaxLenApprox(maxLen int64) PublishOption {
	return func(args *redis.XAddArgs) {
		if maxLen > 0 {
			args.MaxLen = maxLen
			args.Approx = true
		}
	}
}

// NewPublisher creates a Publisher for stream. opts apply to every XADD.
func NewPublisher(client *redis.Client, stream string, opts ...PublishOption) *Publisher {
	return &Publisher{client: client, stream: stream, opts: opts, logger: slog.Default()}
}

// SetLogger replaces the logger used to report dropped entries. nil keeps the current one.
func (p *Publisher) SetLogger(logger *slog.Logger) {
	if logger != nil {
		p.logger = logger
	}
}

// Stream returns the stream name.
func (p *Publisher) Stream() string {
	return p.stream
}

// Publish validates the envelope and appends it to the stream, returning the entry ID.
func (p *Publisher) Publish(ctx context.Context, envelope Envelope) (string, error) {
	if p.stream == "" {
		return "", fmt.Errorf("stream name is required")
	}
	if envelope.EventID == "" {
		envelope.EventID = uuid.NewString()
	}
	raw, err := envelope.Marshal()
	if err != nil {
		return "", err
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{"envelope": raw},
	}
	for _, opt := range p.opts {
		opt(args)
	}

	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("xadd: %w", err)
	}
	return id, nil
}

// PublishSummarize enqueues one section for summarization.
func (p *Publisher) PublishSummarize(ctx context.Context, sectionID uuid.UUID, attempt int) (string, error) {
	env, err := NewSummarizeEnvelope(sectionID, attempt)
	if err != nil {
		return "", err
	}
	return p.Publish(ctx, env)
}

// Enqueue publishes a first-attempt summarize event for every section, stopping at
// the first failure.
func (p *Publisher) Enqueue(ctx context.Context, sectionIDs []uuid.UUID) error {
	for _, id := range sectionIDs {
		if _, err := p.PublishSummarize(ctx, id, 0); err != nil {
			return fmt.Errorf("failed to enqueue section %s: %w", id, err)
		}
	}
	return nil
}

// PublishAfter schedules the envelope for delivery once delay has passed.
func (p *Publisher) PublishAfter(ctx context.Context, envelope Envelope, delay time.Duration) error {
	if envelope.EventID == "" {
		envelope.EventID = uuid.NewString()
	}
	raw, err := envelope.Marshal()
	if err != nil {
		return err
	}

	readyAt := time.Now().Add(delay)
	member := redis.Z{Score: float64(readyAt.UnixMilli()), Member: string(raw)}
	if err := p.client.ZAdd(ctx, DelayedKey(p.stream), member).Err(); err != nil {
		return fmt.Errorf("zadd: %w", err)
	}
	return nil
}

// promoteScript appends a delayed envelope to the stream and only then removes it from the
// delayed set. It returns 0 when another caller already promoted the member.
//
// KEYS[1] delayed set, KEYS[2] stream; ARGV[1] envelope, ARGV[2] approximate max length or 0.
var promoteScript = redis.NewScript(`
if not redis.call('ZSCORE', KEYS[1], ARGV[1]) then
  return 0
end
if tonumber(ARGV[2]) > 0 then
  redis.call('XADD', KEYS[2], 'MAXLEN', '~', ARGV[2], '*', 'envelope', ARGV[1])
else
  redis.call('XADD', KEYS[2], '*', 'envelope', ARGV[1])
end
redis.call('ZREM', KEYS[1], ARGV[1])
return 1
`)

// PromoteDue moves every delayed envelope whose time has come onto the stream.
// Each move runs as one script, so concurrent workers never deliver the same retry twice
// and a failed append leaves the envelope in the delayed set. Members that do not decode
// are logged and removed.
func (p *Publisher) PromoteDue(ctx context.Context, now time.Time) (int, error) {
	key := DelayedKey(p.stream)
	due, err := p.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("zrangebyscore: %w", err)
	}

	args := &redis.XAddArgs{}
	for _, opt := range p.opts {
		opt(args)
	}

	promoted := 0
	for _, raw := range due {
		env, err := UnmarshalEnvelope([]byte(raw))
		if err != nil {
			p.logger.Warn("dropping undecodable delayed envelope", "key", key, "error", err, "member", truncateMember(raw))
			if err := p.client.ZRem(ctx, key, raw).Err(); err != nil {
				return promoted, fmt.Errorf("zrem: %w", err)
			}
			continue
		}

		moved, err := promoteScript.Run(ctx, p.client, []string{key, p.stream}, raw, args.MaxLen).Int()
		if err != nil {
			return promoted, fmt.Errorf("promote %s: %w", env.EventID, err)
		}
		promoted += moved
	}
	return promoted, nil
}

func truncateMember(raw string) string {
	const limit = 200
	if len(raw) <= limit {
		return raw
	}
	return raw[:limit] + "..."
}
