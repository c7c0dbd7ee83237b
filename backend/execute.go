package backend

import (
	"fmt"
	"github.com/egaotan/solana-pricefeed/program"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"time"
)

var commitmentLevel = map[rpc.CommitmentType]int{
	rpc.CommitmentProcessed: 0,
	rpc.CommitmentConfirmed: 1,
	rpc.CommitmentFinalized: 2,
}

func reached(status, target rpc.CommitmentType) bool {
	have, ok := commitmentLevel[status]
	if !ok {
		return false
	}
	want, ok := commitmentLevel[target]
	if !ok {
		want = commitmentLevel[rpc.CommitmentConfirmed]
	}
	return have >= want
}

// Confirm polls the signature status until it reaches the backend
// commitment, fails on chain, or the confirm timeout passes.
func (backend *Backend) Confirm(signature solana.Signature) error {
	if signature.IsZero() {
		return fmt.Errorf("no transaction hash")
	}
	deadline := time.NewTimer(backend.confirmTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(backend.confirmInterval)
	defer ticker.Stop()
	for {
		status, err := backend.node.GetSignatureStatus(backend.ctx, signature)
		if err != nil {
			return fmt.Errorf("get signature status %s: %w", signature, err)
		}
		if status != nil {
			if status.Err != nil {
				return fmt.Errorf("transaction %s failed: %v", signature, status.Err)
			}
			if reached(status.Confirmation, backend.commitment) {
				backend.logger.Printf("transaction %s %s at slot %d", signature, status.Confirmation, status.Slot)
				return nil
			}
		}
		select {
		case <-ticker.C:
		case <-deadline.C:
			return fmt.Errorf("transaction %s not %s after %s", signature, backend.commitment, backend.confirmTimeout)
		case <-backend.ctx.Done():
			return backend.ctx.Err()
		}
	}
}

// Airdrop requests lamports from the cluster faucet and waits for the
// funding transaction to be confirmed.
func (backend *Backend) Airdrop(pubkey solana.PublicKey, lamports uint64) (solana.Signature, error) {
	signature, err := backend.node.RequestAirdrop(backend.ctx, pubkey, lamports, backend.commitment)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: request airdrop of %d lamports to %s: %w", program.ErrFunding, lamports, pubkey, err)
	}
	backend.logger.Printf("airdrop %d lamports to %s: %s", lamports, pubkey, signature)
	if err := backend.Confirm(signature); err != nil {
		return signature, fmt.Errorf("%w: confirm airdrop: %w", program.ErrFunding, err)
	}
	return signature, nil
}
