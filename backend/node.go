package backend

import (
	"context"
	"errors"
	"fmt"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Node is the subset of the cluster rpc api the client depends on.
type Node interface {
	GetVersion(ctx context.Context) (string, error)
	GetBalance(ctx context.Context, pubkey solana.PublicKey, commitment rpc.CommitmentType) (uint64, error)
	GetRecentBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*Blockhash, error)
	GetMinimumBalanceForRentExemption(ctx context.Context, size uint64, commitment rpc.CommitmentType) (uint64, error)
	// GetAccountInfo returns nil without error when the account does not exist.
	GetAccountInfo(ctx context.Context, pubkey solana.PublicKey, commitment rpc.CommitmentType) (*Account, error)
	RequestAirdrop(ctx context.Context, pubkey solana.PublicKey, lamports uint64, commitment rpc.CommitmentType) (solana.Signature, error)
	SendTransaction(ctx context.Context, trx *solana.Transaction, commitment rpc.CommitmentType) (solana.Signature, error)
	// GetSignatureStatus returns nil without error while the signature is unknown.
	GetSignatureStatus(ctx context.Context, signature solana.Signature) (*SignatureStatus, error)
}

type Blockhash struct {
	Hash                 solana.Hash
	LamportsPerSignature uint64
}

type Account struct {
	PubKey     solana.PublicKey
	Height     uint64
	Lamports   uint64
	Owner      solana.PublicKey
	Executable bool
	Data       []byte
}

type SignatureStatus struct {
	Slot         uint64
	Err          interface{}
	Confirmation rpc.CommitmentType
}

type rpcNode struct {
	client *rpc.Client
}

func NewRpcNode(url string) Node {
	return &rpcNode{
		client: rpc.New(url),
	}
}

func (n *rpcNode) GetVersion(ctx context.Context) (string, error) {
	out, err := n.client.GetVersion(ctx)
	if err != nil {
		return "", err
	}
	if out == nil {
		return "", fmt.Errorf("empty version response")
	}
	return out.SolanaCore, nil
}

func (n *rpcNode) GetBalance(ctx context.Context, pubkey solana.PublicKey, commitment rpc.CommitmentType) (uint64, error) {
	out, err := n.client.GetBalance(ctx, pubkey, commitment)
	if err != nil {
		return 0, err
	}
	return out.Value, nil
}

func (n *rpcNode) GetRecentBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*Blockhash, error) {
	out, err := n.client.GetRecentBlockhash(ctx, commitment)
	if err != nil {
		return nil, err
	}
	return &Blockhash{
		Hash:                 out.Value.Blockhash,
		LamportsPerSignature: out.Value.FeeCalculator.LamportsPerSignature,
	}, nil
}

func (n *rpcNode) GetMinimumBalanceForRentExemption(ctx context.Context, size uint64, commitment rpc.CommitmentType) (uint64, error) {
	return n.client.GetMinimumBalanceForRentExemption(ctx, size, commitment)
}

func (n *rpcNode) GetAccountInfo(ctx context.Context, pubkey solana.PublicKey, commitment rpc.CommitmentType) (*Account, error) {
	out, err := n.client.GetAccountInfoWithOpts(ctx, pubkey, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: commitment,
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if out == nil || out.Value == nil {
		return nil, nil
	}
	account := &Account{
		PubKey:     pubkey,
		Height:     out.Context.Slot,
		Lamports:   out.Value.Lamports,
		Owner:      out.Value.Owner,
		Executable: out.Value.Executable,
	}
	if out.Value.Data != nil {
		account.Data = out.Value.Data.GetBinary()
	}
	return account, nil
}

func (n *rpcNode) RequestAirdrop(ctx context.Context, pubkey solana.PublicKey, lamports uint64, commitment rpc.CommitmentType) (solana.Signature, error) {
	return n.client.RequestAirdrop(ctx, pubkey, lamports, commitment)
}

func (n *rpcNode) SendTransaction(ctx context.Context, trx *solana.Transaction, commitment rpc.CommitmentType) (solana.Signature, error) {
	return n.client.SendTransactionWithOpts(ctx, trx, false, commitment)
}

func (n *rpcNode) GetSignatureStatus(ctx context.Context, signature solana.Signature) (*SignatureStatus, error) {
	out, err := n.client.GetSignatureStatuses(ctx, true, signature)
	if err != nil {
		return nil, err
	}
	if out == nil || len(out.Value) == 0 || out.Value[0] == nil {
		return nil, nil
	}
	status := out.Value[0]
	return &SignatureStatus{
		Slot:         status.Slot,
		Err:          status.Err,
		Confirmation: rpc.CommitmentType(status.ConfirmationStatus),
	}, nil
}
