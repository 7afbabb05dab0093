package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goodnatureofminers/fcuchain/internal/model"
)

// httpTransport delivers gossip messages over plain HTTP POSTs to peer
// gossip endpoints. It lives in the binary, not the core: the node only
// sees the Transport interface.
type httpTransport struct {
	mu     sync.RWMutex
	addrs  map[string]string
	client *http.Client
}

func newHTTPTransport() *httpTransport {
	return &httpTransport{
		addrs:  make(map[string]string),
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *httpTransport) register(peerID, addr string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.addrs[peerID] = addr
}

func (t *httpTransport) Send(ctx context.Context, peerID string, msg *model.Message) error {
	t.mu.RLock()
	addr, ok := t.addrs[peerID]
	t.mu.RUnlock()
	if !ok {
		return fmt.Errorf("no address for peer %s", peerID)
	}

	raw, err := model.EncodeMessage(msg)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"http://"+addr+"/v1/gossip", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-FCU-Peer", msg.Sender)

	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("peer %s responded %d", peerID, resp.StatusCode)
	}
	return nil
}
