package backend

import (
	"fmt"
	"github.com/egaotan/solana-pricefeed/program"
	"github.com/gagliardetto/solana-go"
)

// Build assembles and signs a transaction paid by the player.
func (backend *Backend) Build(ins []solana.Instruction) (*solana.Transaction, error) {
	if backend.player == (solana.PublicKey{}) {
		return nil, fmt.Errorf("no fee payer set")
	}
	blockHash, err := backend.GetRecentBlockHash()
	if err != nil {
		return nil, err
	}
	builder := solana.NewTransactionBuilder()
	for _, i := range ins {
		builder.AddInstruction(i)
	}
	builder.SetRecentBlockHash(blockHash)
	builder.SetFeePayer(backend.player)
	trx, err := builder.Build()
	if err != nil {
		return nil, err
	}
	if _, err := trx.Sign(backend.getWallet); err != nil {
		return nil, err
	}
	return trx, nil
}

// Commit sends the instructions as one transaction and waits until it
// reaches the backend commitment.
func (backend *Backend) Commit(ins []solana.Instruction) (solana.Signature, error) {
	trx, err := backend.Build(ins)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: build transaction: %w", program.ErrSubmission, err)
	}
	signature, err := backend.node.SendTransaction(backend.ctx, trx, backend.commitment)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("%w: send transaction: %w", program.ErrSubmission, err)
	}
	backend.logger.Printf("sent transaction: %s", signature)
	if err := backend.Confirm(signature); err != nil {
		return signature, fmt.Errorf("%w: %w", program.ErrSubmission, err)
	}
	return signature, nil
}
