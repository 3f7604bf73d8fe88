package clients

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/valkey-io/valkey-go"
)

var (
	valkeyInstance *ValkeyClient
	valkeyOnce     sync.Once
)

// ValkeyClient wraps the valkey connection and exposes the stream operations
// the pipeline needs: idempotent group creation, blocking group reads,
// per-entry acks and appends.
type ValkeyClient struct {
	Client valkey.Client
	mu     sync.Mutex
}

// StreamEntry is one delivered stream message: broker-assigned id plus the
// flat field map the producer appended.
type StreamEntry struct {
	ID     string
	Fields map[string]string
}

func InitValkey() *ValkeyClient {
	valkeyOnce.Do(func() {
		client, err := newValkeyConn()
		if err != nil {
			panic(fmt.Errorf("[ValkeyClient] failed to create Valkey: %w", err))
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
		defer cancel()

		c := client.Do(ctx, client.B().Ping().Build())
		if c.Error() != nil {
			panic(fmt.Errorf("[ValkeyClient] failed to ping Valkey: %w", c.Error()))
		}

		slog.Info("[ValkeyClient] Successfully connected to valkey")

		valkeyInstance = &ValkeyClient{Client: client}
	})
	return valkeyInstance
}

func newValkeyConn() (valkey.Client, error) {
	valkeyAddr := os.Getenv("VALKEY_INIT_ADDRESS")
	valkeyPassword := os.Getenv("VALKEY_PASSWORD")
	useTLS := os.Getenv("VALKEY_TLS") == "true"

	opts := valkey.ClientOption{
		InitAddress: []string{
			valkeyAddr,
		},
		Password:         valkeyPassword,
		ConnWriteTimeout: 5 * time.Second,
		SelectDB:         0,
	}

	if useTLS {
		opts.TLSConfig = &tls.Config{InsecureSkipVerify: false}
	}

	return valkey.NewClient(opts)
}

func (vc *ValkeyClient) recreateClient() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("[ValkeyClient] Recreate failed and was recovered from panic",
				slog.Any("panic", r))
		}
	}()

	vc.mu.Lock()
	defer vc.mu.Unlock()
	slog.Warn("[ValkeyClient] Attempting to recreate Valkey client...")
	vc.Client.Close()

	client, err := newValkeyConn()
	if err != nil {
		panic(fmt.Errorf("[ValkeyClient] failed to create Valkey: %w", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*3)
	defer cancel()

	c := client.Do(ctx, client.B().Ping().Build())
	if c.Error() != nil {
		panic(fmt.Errorf("[ValkeyClient] failed to ping Valkey: %w", c.Error()))
	}

	slog.Info("[ValkeyClient] Successfully connected to valkey")
	vc.Client = client
}

func CloseValkey() {
	if valkeyInstance != nil {
		valkeyInstance.Client.Close()
	}
}

func GetValkeyClient() *ValkeyClient {
	if valkeyInstance == nil {
		panic("[ValkeyClient] Error: Valkey client is not initilialized")
	}
	return valkeyInstance
}

// EnsureGroup creates the consumer group on the stream, creating the stream
// itself if needed. A group that already exists is not an error.
func (vc *ValkeyClient) EnsureGroup(ctx context.Context, stream, group, startID string) error {
	cmd := vc.Client.B().XgroupCreate().
		Key(stream).
		Group(group).
		Id(startID).
		Mkstream().
		Build()

	if err := vc.Client.Do(ctx, cmd).Error(); err != nil {
		if strings.Contains(err.Error(), "BUSYGROUP") {
			return nil
		}
		if isConnectionError(err) {
			vc.recreateClient()
		}
		return fmt.Errorf("[ValkeyClient] failed to create consumer group %q: %w", group, err)
	}

	slog.Info("[ValkeyClient] Created consumer group",
		slog.String("stream", stream),
		slog.String("group", group))
	return nil
}

// ReadGroup blocks for up to block waiting for at most count undelivered
// entries for this consumer. An empty result after the block interval is
// returned as a nil slice, not an error.
func (vc *ValkeyClient) ReadGroup(ctx context.Context, group, consumer, stream string, count int, block time.Duration) ([]StreamEntry, error) {
	cmd := vc.Client.B().Xreadgroup().
		Group(group, consumer).
		Count(int64(count)).
		Block(block.Milliseconds()).
		Streams().
		Key(stream).
		Id(">").
		Build()

	res := vc.Client.Do(ctx, cmd)
	if err := res.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, nil
		}
		if isConnectionError(err) {
			vc.recreateClient()
		}
		return nil, fmt.Errorf("[ValkeyClient] group read failed: %w", err)
	}

	streams, err := res.AsXRead()
	if err != nil {
		return nil, fmt.Errorf("[ValkeyClient] failed to parse group read: %w", err)
	}

	var entries []StreamEntry
	for _, msgs := range streams {
		for _, msg := range msgs {
			entries = append(entries, StreamEntry{ID: msg.ID, Fields: msg.FieldValues})
		}
	}
	return entries, nil
}

// Ack removes one delivered entry from the group's pending list.
func (vc *ValkeyClient) Ack(ctx context.Context, stream, group, id string) error {
	cmd := vc.Client.B().Xack().Key(stream).Group(group).Id(id).Build()

	res := vc.DoWithRetry(ctx, cmd, 3)
	if err := res.Error(); err != nil {
		return fmt.Errorf("[ValkeyClient] failed to ack %s: %w", id, err)
	}
	return nil
}

// Add appends one message to the stream with a broker-assigned id.
func (vc *ValkeyClient) Add(ctx context.Context, stream string, fields map[string]string) (string, error) {
	builder := vc.Client.B().Xadd().Key(stream).Id("*").FieldValue()
	for field, value := range fields {
		builder = builder.FieldValue(field, value)
	}

	res := vc.DoWithRetry(ctx, builder.Build(), 3)
	if err := res.Error(); err != nil {
		return "", fmt.Errorf("[ValkeyClient] failed to append to %s: %w", stream, err)
	}

	return res.ToString()
}

// Ping reports broker reachability for health checks.
func (vc *ValkeyClient) Ping(ctx context.Context) error {
	return vc.Client.Do(ctx, vc.Client.B().Ping().Build()).Error()
}

func (vc *ValkeyClient) DoWithRetry(ctx context.Context, completed valkey.Completed, retries int) valkey.ValkeyResult {
	var result valkey.ValkeyResult
	for i := 0; i < retries; i++ {
		result = vc.Client.Do(ctx, completed)
		if result.Error() == nil {
			break
		}

		slog.Warn("[ValkeyClient] Do failed",
			slog.Int("attempt", i+1),
			slog.String("error", result.Error().Error()))

		if isConnectionError(result.Error()) {
			vc.recreateClient()
		}

		time.Sleep(250 * time.Millisecond)
	}

	return result
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "EOF") ||
		strings.Contains(msg, "i/o timeout")
}
