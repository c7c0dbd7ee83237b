package backend

import (
	"fmt"
	"github.com/gagliardetto/solana-go"
)

func (backend *Backend) GetRecentBlockHash() (solana.Hash, error) {
	blockhash, err := backend.node.GetRecentBlockhash(backend.ctx, backend.commitment)
	if err != nil {
		backend.logger.Printf("GetRecentBlockhash, err: %s", err.Error())
		return solana.Hash{}, err
	}
	if blockhash.Hash == (solana.Hash{}) {
		return solana.Hash{}, fmt.Errorf("node returned an empty block hash")
	}
	return blockhash.Hash, nil
}
