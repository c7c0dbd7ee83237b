package program

import "github.com/gagliardetto/solana-go"

var (
	System = solana.MustPublicKeyFromBase58("11111111111111111111111111111111")
	// chainlink devnet SOL / USD aggregator
	SolUsdFeed = solana.MustPublicKeyFromBase58("FmAmfoyPXiA8Vhhe6MZTr3U6rZfEZ1ctEHay1ysqCqcf")
)

const (
	LamportsPerSol = 1000000000
	MaxSeedLength  = 32
)
