package sse_test

import (
	"bufio"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bytekstore/bytek/pkg/sse"
)

func TestBroker_StreamsPublishedEvents(t *testing.T) {
	b := sse.NewBroker()
	srv := httptest.NewServer(http.HandlerFunc(b.Serve))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return b.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	b.Publish("order.placed", map[string]string{"order_number": "ORD-1"})

	sc := bufio.NewScanner(resp.Body)
	var lines []string
	for sc.Scan() {
		lines = append(lines, sc.Text())
		if strings.HasPrefix(sc.Text(), "data:") {
			break
		}
	}
	assert.Contains(t, lines, "event: order.placed")
	assert.Contains(t, lines, `data: {"order_number":"ORD-1"}`)

	cancel()
	assert.Eventually(t, func() bool { return b.Subscribers() == 0 }, time.Second, 5*time.Millisecond)
}

func TestBroker_PublishWithoutSubscribers(t *testing.T) {
	b := sse.NewBroker()
	assert.NotPanics(t, func() { b.Publish("order.updated", struct{}{}) })
}
