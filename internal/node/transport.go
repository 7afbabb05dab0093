package node

import (
	"context"

	"github.com/goodnatureofminers/fcuchain/internal/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

// Transport delivers gossip messages to peers. Implementations own the
// actual wire; the node never touches sockets. Delivery failures feed peer
// reputation, they are not fatal.
type Transport interface {
	Send(ctx context.Context, peerID string, msg *model.Message) error
}
