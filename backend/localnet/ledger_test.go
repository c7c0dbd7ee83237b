package localnet

import (
	"context"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_GetAccountInfoConcurrent(t *testing.T) {
	ledger := NewLedger()
	key := solana.NewWallet().PublicKey()
	ledger.Fund(key, 1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = ledger.RequestAirdrop(context.Background(), key, 10, rpc.CommitmentConfirmed)
		}()
		go func() {
			defer wg.Done()
			account, err := ledger.GetAccountInfo(context.Background(), key, rpc.CommitmentConfirmed)
			assert.NoError(t, err)
			assert.NotNil(t, account)
		}()
	}
	wg.Wait()

	account, err := ledger.GetAccountInfo(context.Background(), key, rpc.CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, uint64(81), account.Lamports)
	assert.NotZero(t, account.Height)
}
