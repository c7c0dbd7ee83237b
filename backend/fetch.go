package backend

import (
	"github.com/gagliardetto/solana-go"
)

// Account returns nil when the account does not exist.
func (backend *Backend) Account(pubkey solana.PublicKey) (*Account, error) {
	return backend.node.GetAccountInfo(backend.ctx, pubkey, backend.commitment)
}

func (backend *Backend) HasAccount(pubkey solana.PublicKey) (bool, error) {
	account, err := backend.Account(pubkey)
	if err != nil {
		return false, err
	}
	return account != nil, nil
}

func (backend *Backend) Balance(pubkey solana.PublicKey) (uint64, error) {
	return backend.node.GetBalance(backend.ctx, pubkey, backend.commitment)
}

func (backend *Backend) GetMinimumBalanceForRentExemption(size uint64) (uint64, error) {
	return backend.node.GetMinimumBalanceForRentExemption(backend.ctx, size, backend.commitment)
}

func (backend *Backend) LamportsPerSignature() (uint64, error) {
	blockhash, err := backend.node.GetRecentBlockhash(backend.ctx, backend.commitment)
	if err != nil {
		return 0, err
	}
	return blockhash.LamportsPerSignature, nil
}
