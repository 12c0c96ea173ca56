// Package replay feeds recorded alerts to the ingestion loop from a JSON-lines file.
package replay

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"FinkBridge/internal/config"
	"FinkBridge/internal/ports"
)

// Kind is the stream kind served by this package.
const Kind = "replay"

const maxLineSize = 16 << 20

// line is one recorded message. A line without an "alert" key is taken as the alert itself.
type line struct {
	Topic string         `json:"topic"`
	Alert ports.RawAlert `json:"alert"`
}

// Consumer reads one alert per line and reports an empty poll once input is exhausted.
type Consumer struct {
	mu      sync.Mutex
	scanner *bufio.Scanner
	closer  io.Closer
	topics  map[string]bool
	lineNo  int
	closed  bool
	failed  bool
}

var _ ports.AlertConsumer = (*Consumer)(nil)

// NewConsumer reads from r. When topics is non-empty only those topics and
// lines without a topic are delivered.
func NewConsumer(r io.Reader, topics []string) *Consumer {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	c := &Consumer{scanner: scanner}
	if closer, ok := r.(io.Closer); ok {
		c.closer = closer
	}
	if len(topics) > 0 {
		c.topics = make(map[string]bool, len(topics))
		for _, topic := range topics {
			c.topics[topic] = true
		}
	}
	return c
}

// Poll returns the next subscribed alert. At end of input it waits for timeout
// and returns no alert, the same way a live broker reports an idle interval.
func (c *Consumer) Poll(ctx context.Context, timeout time.Duration) (string, ports.RawAlert, error) {
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	c.mu.Lock()
	topic, alert, done, err := c.next()
	c.mu.Unlock()

	if err != nil || !done {
		return topic, alert, err
	}
	return "", nil, wait(ctx, timeout)
}

// next returns done=true once input is exhausted. A read error is reported
// once; the input counts as exhausted afterwards since the scanner cannot recover.
func (c *Consumer) next() (string, ports.RawAlert, bool, error) {
	if c.closed {
		return "", nil, false, fmt.Errorf("replay consumer closed")
	}
	if c.failed {
		return "", nil, true, nil
	}

	for c.scanner.Scan() {
		c.lineNo++
		raw := bytes.TrimSpace(c.scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		msg, err := decodeLine(raw)
		if err != nil {
			return "", nil, false, fmt.Errorf("line %d: %w", c.lineNo, err)
		}
		if msg.Topic != "" && c.topics != nil && !c.topics[msg.Topic] {
			continue
		}
		return msg.Topic, msg.Alert, false, nil
	}

	if err := c.scanner.Err(); err != nil {
		c.failed = true
		return "", nil, false, fmt.Errorf("read replay input: %w", err)
	}
	return "", nil, true, nil
}

// Close releases the underlying file.
func (c *Consumer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.closer == nil {
		return nil
	}
	return c.closer.Close()
}

func decodeLine(raw []byte) (line, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return line{}, fmt.Errorf("decode alert: %w", err)
	}

	nested, ok := fields["alert"].(map[string]any)
	if !ok {
		return line{Alert: fields}, nil
	}
	topic, _ := fields["topic"].(string)
	return line{Topic: topic, Alert: nested}, nil
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Factory opens replay consumers. A path of "-" reads Stdin.
type Factory struct {
	Stdin io.Reader
}

// Kind identifies the factory inside the stream registry.
func (Factory) Kind() string {
	return Kind
}

// Open opens cfg.Path and subscribes to cfg.Subscribe.
func (f Factory) Open(_ context.Context, cfg config.StreamConfig) (ports.AlertConsumer, error) {
	topics := cfg.Subscribe
	if cfg.Path == "" || cfg.Path == "-" {
		in := f.Stdin
		if in == nil {
			in = os.Stdin
		}
		return NewConsumer(io.NopCloser(in), topics), nil
	}

	file, err := os.Open(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open replay file: %w", err)
	}
	return NewConsumer(file, topics), nil
}
