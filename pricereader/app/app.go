package app

import (
	"context"
	"errors"
	"fmt"
	"github.com/egaotan/solana-pricefeed/backend"
	"github.com/egaotan/solana-pricefeed/config"
	"github.com/egaotan/solana-pricefeed/dingsdk"
	"github.com/egaotan/solana-pricefeed/networkdetect"
	"github.com/egaotan/solana-pricefeed/payer"
	"github.com/egaotan/solana-pricefeed/pricefeed"
	"github.com/egaotan/solana-pricefeed/program"
	"github.com/egaotan/solana-pricefeed/store"
	"github.com/egaotan/solana-pricefeed/utils"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"log"
	"net/http"
	"os"
	"time"
)

type PriceReader struct {
	ctx        context.Context
	log        *log.Logger
	config     *config.Config
	backend    *backend.Backend
	payer      *payer.Payer
	program    *pricefeed.Program
	store      *store.Store
	dsdk       *dingsdk.DingSdk
	metrics    *readerMetrics
	httpServer *http.Server
}

// NewPriceReader wires the reader from cfg, which must already be resolved.
// A nil node talks to the configured rpc url.
func NewPriceReader(ctx context.Context, cfg *config.Config, node backend.Node) (*PriceReader, error) {
	pr := &PriceReader{
		ctx:     ctx,
		config:  cfg,
		log:     utils.NewLog(cfg.LogPath, "pricereader"),
		metrics: newReaderMetrics(),
	}
	opts, err := programOptions(cfg)
	if err != nil {
		return nil, err
	}
	url := cfg.RpcUrl
	if node == nil && cfg.DetectNodes {
		detector := networkdetect.NewNetworkDetector(nil, utils.NewLog(cfg.LogPath, config.NetworkLog))
		peer, ttl, err := detector.DetectPeers(cfg.UsableNodes())
		if err != nil {
			pr.log.Printf("detect peers err: %s, using %s", err.Error(), peer)
		} else {
			pr.log.Printf("peer: %s, ttl: %d ms", peer, ttl.Milliseconds())
		}
		if peer != "" {
			url = peer
		}
	}
	be := backend.NewBackend(ctx, url, node, rpc.CommitmentType(cfg.Commitment), utils.NewLog(cfg.LogPath, config.BackendLog))
	if cfg.ConfirmTimeout > 0 && cfg.ConfirmInterval > 0 {
		be.SetConfirm(time.Duration(cfg.ConfirmTimeout)*time.Second, time.Duration(cfg.ConfirmInterval)*time.Millisecond)
	}
	pr.backend = be
	pr.payer = payer.NewPayer(be, cfg.Keypair, cfg.PersistKeypair, cfg.FeeMultiplier, utils.NewLog(cfg.LogPath, config.PayerLog))
	pr.program = pricefeed.NewProgram(be, opts, utils.NewLog(cfg.LogPath, config.ProgramLog))
	if cfg.DBUrl != "" {
		s, err := store.NewStore(cfg.DBDriver, cfg.DBUrl, utils.NewLog(cfg.LogPath, config.StoreLog))
		if err != nil {
			return nil, fmt.Errorf("%w: open %s store: %w", program.ErrConfiguration, cfg.DBDriver, err)
		}
		pr.store = s
	}
	if cfg.DingUrl != "" {
		pr.dsdk = dingsdk.NewDingSdk(cfg.DingUrl)
	}
	return pr, nil
}

func programOptions(cfg *config.Config) (pricefeed.Options, error) {
	opts := pricefeed.Options{
		Path:     cfg.ProgramPath,
		Name:     cfg.ProgramName,
		Seed:     cfg.Seed,
		Decimals: cfg.Decimals,
	}
	if cfg.ProgramId != "" {
		id, err := solana.PublicKeyFromBase58(cfg.ProgramId)
		if err != nil {
			return opts, fmt.Errorf("%w: program id %q: %w", program.ErrConfiguration, cfg.ProgramId, err)
		}
		opts.Id = id
	}
	if cfg.Feed != "" {
		feed, err := solana.PublicKeyFromBase58(cfg.Feed)
		if err != nil {
			return opts, fmt.Errorf("%w: feed %q: %w", program.ErrConfiguration, cfg.Feed, err)
		}
		opts.Feed = feed
	}
	if len(opts.Seed) > program.MaxSeedLength {
		return opts, fmt.Errorf("%w: seed %q is longer than %d bytes", program.ErrConfiguration, opts.Seed, program.MaxSeedLength)
	}
	return opts, nil
}

func (pr *PriceReader) Backend() *backend.Backend {
	return pr.backend
}

func (pr *PriceReader) Program() *pricefeed.Program {
	return pr.program
}

func (pr *PriceReader) Store() *store.Store {
	return pr.store
}

// Run performs one full reading: connect, fund the payer, check the
// program, create the reading account if needed, ask the program for the
// price and decode it.
func (pr *PriceReader) Run() (*pricefeed.Report, error) {
	report, err := pr.run()
	pr.metrics.observe(report, err)
	return report, err
}

func (pr *PriceReader) run() (*pricefeed.Report, error) {
	pr.log.Printf("let's say hello to a solana account...")
	if _, err := pr.backend.Connect(); err != nil {
		return nil, err
	}
	key, err := pr.payer.Establish(uint64(pricefeed.SizeOf()))
	if err != nil {
		return nil, err
	}
	if err := pr.program.CheckProgram(); err != nil {
		return nil, err
	}
	if _, err := pr.program.EnsureReading(key.PublicKey()); err != nil {
		return nil, err
	}
	signature, err := pr.program.GetPrice()
	if err != nil {
		return nil, err
	}
	report, err := pr.program.ReportPrice()
	if err != nil {
		return nil, err
	}
	report.Signature = signature
	pr.record(report)
	pr.log.Printf("success")
	return report, nil
}

// record keeps the report in the store and pushes it to dingtalk. Neither
// failure fails the reading.
func (pr *PriceReader) record(report *pricefeed.Report) {
	if pr.store != nil {
		if _, err := pr.store.StorePriceReading(report); err != nil {
			pr.log.Printf("store price reading err: %s", err.Error())
		}
	}
	if pr.dsdk.Enabled() {
		text := fmt.Sprintf("price of %s: %s;\nslot: %d;\ntime: %s;",
			report.Feed, report, report.Slot, time.Now().Format("2006-01-02 15:04:05"))
		if _, err := pr.dsdk.NotifyText(pr.ctx, text); err != nil {
			pr.log.Printf("ding notify err: %s", err.Error())
		}
	}
}

// Derive computes the payer and reading account addresses offline.
func (pr *PriceReader) Derive() (solana.PublicKey, solana.PublicKey, error) {
	if pr.config.Keypair == "" {
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("%w: no payer keypair configured", program.ErrConfiguration)
	}
	key, err := backend.LoadWallet(pr.config.Keypair)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("%w: no keypair at %s", program.ErrConfiguration, pr.config.Keypair)
		}
		return solana.PublicKey{}, solana.PublicKey{}, fmt.Errorf("%w: read keypair %s: %w", program.ErrConfiguration, pr.config.Keypair, err)
	}
	if _, err := pr.program.LoadId(); err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	reading, err := pr.program.DeriveReading(key.PublicKey())
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	return key.PublicKey(), reading, nil
}

// Service serves the stored readings and, when interval is set, takes a
// reading every interval until the context is done.
func (pr *PriceReader) Service(interval time.Duration) error {
	if pr.store == nil {
		return fmt.Errorf("%w: serving readings needs db_url", program.ErrConfiguration)
	}
	pr.StartRPC()
	defer pr.Stop()
	if interval <= 0 {
		<-pr.ctx.Done()
		return nil
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := pr.Run(); err != nil {
			pr.log.Printf("reading err: %s", err.Error())
		}
		select {
		case <-pr.ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (pr *PriceReader) Stop() {
	pr.StopRPC()
	if pr.store != nil {
		pr.store.Stop()
	}
}
