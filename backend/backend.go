package backend

import (
	"context"
	"fmt"
	"github.com/egaotan/solana-pricefeed/program"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"log"
	"time"
)

const (
	DefaultConfirmTimeout  = time.Second * 60
	DefaultConfirmInterval = time.Millisecond * 500
)

// Backend is the session with one cluster node. Every call blocks until
// the node has answered; nothing is issued concurrently.
type Backend struct {
	logger          *log.Logger
	ctx             context.Context
	url             string
	node            Node
	commitment      rpc.CommitmentType
	wallets         []*Wallet
	player          solana.PublicKey
	confirmTimeout  time.Duration
	confirmInterval time.Duration
}

func NewBackend(ctx context.Context, url string, node Node, commitment rpc.CommitmentType, logger *log.Logger) *Backend {
	if node == nil {
		node = NewRpcNode(url)
	}
	if commitment == "" {
		commitment = rpc.CommitmentConfirmed
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Backend{
		logger:          logger,
		ctx:             ctx,
		url:             url,
		node:            node,
		commitment:      commitment,
		wallets:         make([]*Wallet, 0),
		confirmTimeout:  DefaultConfirmTimeout,
		confirmInterval: DefaultConfirmInterval,
	}
}

func (backend *Backend) SetConfirm(timeout, interval time.Duration) {
	if timeout > 0 {
		backend.confirmTimeout = timeout
	}
	if interval > 0 {
		backend.confirmInterval = interval
	}
}

func (backend *Backend) Url() string {
	return backend.url
}

func (backend *Backend) Commitment() rpc.CommitmentType {
	return backend.commitment
}

// Connect checks that the node answers a version query.
func (backend *Backend) Connect() (string, error) {
	version, err := backend.node.GetVersion(backend.ctx)
	if err != nil {
		return "", fmt.Errorf("%w: get version from %s: %w", program.ErrConnectivity, backend.url, err)
	}
	if version == "" {
		return "", fmt.Errorf("%w: node %s returned an empty version", program.ErrConnectivity, backend.url)
	}
	backend.logger.Printf("connection to cluster established: %s, version: %s", backend.url, version)
	return version, nil
}
