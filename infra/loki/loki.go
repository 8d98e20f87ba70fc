package loki

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	batchSize     = 20
	flushInterval = time.Second
)

// Writer buffers log lines and ships them to Loki's push API. It is safe for concurrent use and
// is meant to sit behind a zerolog logger as an extra sink.
type Writer struct {
	url    string
	labels map[string]string
	client *http.Client
	mu     sync.Mutex
	buf    [][2]string
	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

type pushRequest struct {
	Streams []stream `json:"streams"`
}

type stream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

// NewWriter returns a Writer pushing to baseURL (e.g. http://loki:3100) under the given job label
// plus any extra labels. Returns nil if baseURL or job is empty.
func NewWriter(baseURL, job string, labels map[string]string) *Writer {
	if baseURL == "" || job == "" {
		return nil
	}
	streamLabels := map[string]string{"job": job}
	for k, v := range labels {
		streamLabels[k] = v
	}
	w := &Writer{
		url:    strings.TrimSuffix(baseURL, "/") + "/loki/api/v1/push",
		labels: streamLabels,
		client: &http.Client{Timeout: 5 * time.Second},
		buf:    make([][2]string, 0, 64),
		ticker: time.NewTicker(flushInterval),
		done:   make(chan struct{}),
	}
	go w.flushLoop()
	return w
}

// Write implements io.Writer. Each non-empty line becomes one Loki entry.
func (w *Writer) Write(p []byte) (int, error) {
	now := strconv.FormatInt(time.Now().UnixNano(), 10)
	w.mu.Lock()
	for _, line := range bytes.Split(p, []byte("\n")) {
		if len(line) == 0 {
			continue
		}
		w.buf = append(w.buf, [2]string{now, string(line)})
	}
	needFlush := len(w.buf) >= batchSize
	w.mu.Unlock()
	if needFlush {
		w.flush()
	}
	return len(p), nil
}

func (w *Writer) flushLoop() {
	for {
		select {
		case <-w.done:
			return
		case <-w.ticker.C:
			w.flush()
		}
	}
}

func (w *Writer) flush() {
	w.mu.Lock()
	if len(w.buf) == 0 {
		w.mu.Unlock()
		return
	}
	entries := w.buf
	w.buf = make([][2]string, 0, 64)
	w.mu.Unlock()

	raw, err := json.Marshal(pushRequest{Streams: []stream{{Stream: w.labels, Values: entries}}})
	if err != nil {
		return
	}
	req, err := http.NewRequest(http.MethodPost, w.url, bytes.NewReader(raw))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.client.Do(req)
	if err != nil {
		return
	}
	resp.Body.Close()
}

// Close flushes remaining buffer and stops the background flusher.
func (w *Writer) Close() error {
	w.once.Do(func() {
		w.ticker.Stop()
		close(w.done)
		w.flush()
	})
	return nil
}
