package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/cyphera/authority-proxy/internal/client/aws"
	"github.com/cyphera/authority-proxy/internal/client/chain"
	"github.com/cyphera/authority-proxy/internal/config"
	"github.com/cyphera/authority-proxy/internal/logger"
	"github.com/cyphera/authority-proxy/internal/mintwrapper"
	"github.com/cyphera/authority-proxy/internal/pda"
	"github.com/cyphera/authority-proxy/internal/services"
	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type options struct {
	wrapper        string
	mint           string
	newAuthority   string
	rpcURL         string
	dryRun         bool
	createMetadata bool
	name           string
	symbol         string
	uri            string
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v\n", err)
	}

	opts := options{}
	flag.StringVar(&opts.wrapper, "wrapper", "", "Mint wrapper address (required)")
	flag.StringVar(&opts.mint, "mint", "", "Token mint; checked against the wrapper's mint when set")
	flag.StringVar(&opts.newAuthority, "new-authority", "", "New metadata update authority")
	flag.StringVar(&opts.rpcURL, "rpc", "", "Solana RPC endpoint (defaults to SOLANA_RPC_URL)")
	flag.BoolVar(&opts.dryRun, "dry-run", false, "Print the plan without submitting")
	flag.BoolVar(&opts.createMetadata, "create-metadata", false, "Create the mint's metadata record with the wrapper vault as authority")
	flag.StringVar(&opts.name, "name", "", "Token name for -create-metadata")
	flag.StringVar(&opts.symbol, "symbol", "", "Token symbol for -create-metadata")
	flag.StringVar(&opts.uri, "uri", "", "Metadata URI for -create-metadata")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v\n", err)
	}
	if opts.rpcURL != "" {
		cfg.RPCURL = opts.rpcURL
	}

	logger.InitLogger(cfg.Stage)
	defer func() { _ = logger.Sync() }()

	if err := run(context.Background(), cfg, opts); err != nil {
		logger.Error("Delegation failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, opts options) error {
	wrapper, err := solana.PublicKeyFromBase58(opts.wrapper)
	if err != nil {
		return fmt.Errorf("invalid -wrapper: %w", err)
	}

	secrets, err := aws.NewSecretsManagerClient(ctx)
	if err != nil {
		return err
	}
	minterKey, err := secrets.GetPrivateKey(ctx, config.EnvMinterKeySecretARN, config.EnvMinterPrivateKey)
	if err != nil {
		return fmt.Errorf("failed to load minter key: %w", err)
	}

	rpcClient := chain.NewClient(cfg.RPCURL)

	if opts.createMetadata {
		return createMetadata(ctx, cfg, rpcClient, minterKey, wrapper, opts)
	}
	return delegate(ctx, cfg, rpcClient, minterKey, wrapper, opts)
}

func delegate(ctx context.Context, cfg *config.Config, rpcClient *chain.Client, minterKey solana.PrivateKey, wrapper solana.PublicKey, opts options) error {
	newAuthority, err := solana.PublicKeyFromBase58(opts.newAuthority)
	if err != nil {
		return fmt.Errorf("invalid -new-authority: %w", err)
	}
	params := services.PlanParams{
		MintWrapper:        wrapper,
		MinterAuthority:    minterKey.PublicKey(),
		NewUpdateAuthority: newAuthority,
	}
	if opts.mint != "" {
		mint, err := solana.PublicKeyFromBase58(opts.mint)
		if err != nil {
			return fmt.Errorf("invalid -mint: %w", err)
		}
		params.TokenMint = &mint
	}

	service := services.NewDelegationService(cfg.MintWrapperProgramID, rpcClient)

	if opts.dryRun {
		plan, err := service.Plan(ctx, params)
		if err != nil {
			return err
		}
		return printJSON(plan)
	}

	unsigned, err := service.BuildTransaction(ctx, params)
	if err != nil {
		return err
	}
	if err := printJSON(unsigned.Plan); err != nil {
		return err
	}
	return signAndSubmit(ctx, cfg, rpcClient, minterKey, unsigned.Tx)
}

func createMetadata(ctx context.Context, cfg *config.Config, rpcClient *chain.Client, minterKey solana.PrivateKey, wrapper solana.PublicKey, opts options) error {
	if opts.mint == "" || opts.name == "" || opts.symbol == "" || opts.uri == "" {
		return fmt.Errorf("-create-metadata requires -mint, -name, -symbol and -uri")
	}
	mint, err := solana.PublicKeyFromBase58(opts.mint)
	if err != nil {
		return fmt.Errorf("invalid -mint: %w", err)
	}

	record, _, err := pda.FindMetadataAddress(mint)
	if err != nil {
		return err
	}
	exists, err := rpcClient.AccountExists(ctx, record)
	if err != nil {
		return err
	}
	if exists {
		logger.Info("Metadata record already exists", zap.String("metadata", record.String()))
		return nil
	}

	ix, err := mintwrapper.NewCreateMintMetadataInstruction(cfg.MintWrapperProgramID,
		mintwrapper.CreateMintMetadataAccounts{
			MintWrapper:     wrapper,
			MinterAuthority: minterKey.PublicKey(),
			TokenMint:       mint,
		},
		mintwrapper.CreateMintMetadataArgs{Name: opts.name, Symbol: opts.symbol, URI: opts.uri},
	)
	if err != nil {
		return err
	}
	if opts.dryRun {
		logger.Info("Dry run, not submitting",
			zap.String("metadata", record.String()),
			zap.Int("accounts", len(ix.Accounts())),
		)
		return nil
	}

	blockhash, err := rpcClient.LatestBlockhash(ctx)
	if err != nil {
		return err
	}
	tx, err := solana.NewTransaction([]solana.Instruction{ix}, blockhash, solana.TransactionPayer(minterKey.PublicKey()))
	if err != nil {
		return fmt.Errorf("failed to assemble transaction: %w", err)
	}
	return signAndSubmit(ctx, cfg, rpcClient, minterKey, tx)
}

func signAndSubmit(ctx context.Context, cfg *config.Config, rpcClient *chain.Client, minterKey solana.PrivateKey, tx *solana.Transaction) error {
	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(minterKey.PublicKey()) {
			return &minterKey
		}
		return nil
	}); err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := rpcClient.SendTransaction(ctx, tx)
	if err != nil {
		return err
	}
	logger.Info("Transaction submitted", zap.String("signature", sig.String()))

	confirmCtx, cancel := context.WithTimeout(ctx, cfg.ConfirmTimeout)
	defer cancel()
	if err := rpcClient.WaitForConfirmation(confirmCtx, sig); err != nil {
		return err
	}

	logger.Info("Transaction confirmed", zap.String("signature", sig.String()))
	return nil
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
