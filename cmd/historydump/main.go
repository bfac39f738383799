package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"wallet-history-indexer/internal/application/history"
	domain_service "wallet-history-indexer/internal/domain/service"
	"wallet-history-indexer/internal/infrastructure/blockchain"
	"wallet-history-indexer/internal/infrastructure/config"
	"wallet-history-indexer/internal/infrastructure/explorer"
	"wallet-history-indexer/internal/infrastructure/logger"

	"go.uber.org/zap"
)

func main() {
	address := flag.String("address", "", "account address to dump (defaults to wallet.address)")
	asJSON := flag.Bool("json", false, "print the grouped history as JSON")
	withChain := flag.Bool("chain", false, "also read token logs from chain.rpc_url")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	log, err := logger.NewLogger(*logLevel, logger.EnvDevelopment)
	if err != nil {
		panic(err)
	}
	log = log.WithComponent("history-dump")

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	account := *address
	if account == "" {
		account = cfg.Wallet.Address
	}
	if account == "" {
		fmt.Fprintln(os.Stderr, "no address given: pass -address or set wallet.address")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.History.RefreshTimeout)
	defer cancel()

	sources := []domain_service.LedgerSource{explorer.NewClient(&cfg.Explorer, log)}
	if *withChain && cfg.Chain.RPCURL != "" {
		ethClient, err := blockchain.NewEthereumClient(ctx, cfg.Chain.RPCURL, cfg.Chain.Timeout, log)
		if err != nil {
			log.Fatal("Failed to connect to ethereum node", zap.Error(err))
		}
		defer ethClient.Close()

		decoder, err := blockchain.NewERC20LogDecoder()
		if err != nil {
			log.Fatal("Failed to create log decoder", zap.Error(err))
		}
		sources = append(sources, blockchain.NewLogSource(ethClient, decoder, &cfg.Chain, log))
	}

	fetched, err := history.NewMultiSource(log, sources...).Fetch(ctx, account)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fetch failed: %v\n", err)
		os.Exit(1)
	}
	for kind, ferr := range fetched.Failures {
		fmt.Fprintf(os.Stderr, "warning: %s records unavailable: %v\n", kind, ferr)
	}

	result, err := history.NewPipeline(cfg.History.Location(), time.Now).Run(fetched.Records, account)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipeline failed: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result.Buckets); err != nil {
			log.Fatal("Failed to encode history", zap.Error(err))
		}
		return
	}

	if len(result.Events) == 0 {
		fmt.Println("No transactions found.")
		return
	}

	for _, bucket := range result.Buckets {
		fmt.Println(bucket.DateLabel)
		for _, ev := range bucket.Events {
			fmt.Printf("  %-8s %24s %-8s %s  %s\n",
				ev.Category,
				ev.Amount,
				ev.TokenSymbol,
				ev.CounterpartyAddress,
				history.ExplorerTxURL(cfg.Explorer.TxURLBase, ev.TransactionHash))
		}
	}
	fmt.Printf("\n%d events, %d tokens\n", len(result.Events), len(result.Tokens))
}
