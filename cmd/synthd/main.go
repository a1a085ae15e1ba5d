package main

import (
	"flag"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"synthchain/config"
	"synthchain/crypto"
	"synthchain/native/market"
	"synthchain/native/oracle"
	"synthchain/native/privacy"
	"synthchain/native/synth"
	"synthchain/observability/logging"
	"synthchain/rpc"
	"synthchain/state"
	"synthchain/storage"
)

const rpcTokenEnv = "SYNTH_RPC_TOKEN"

// Module vault addresses are fixed well-known accounts rather than keys:
// nothing ever signs for them, the engines alone move their balances.
var (
	collateralVault = moduleAddress("synth/collateral-vault")
	marketVault     = moduleAddress("market/pool-vault")
)

func moduleAddress(name string) crypto.Address {
	raw := make([]byte, 20)
	copy(raw, name)
	return crypto.NewAddress(crypto.SynPrefix, raw)
}

func main() {
	configFile := flag.String("config", "./config.toml", "Path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger := logging.Setup("synthd", strings.TrimSpace(os.Getenv("SYNTH_ENV")))
		logger.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	env := strings.TrimSpace(os.Getenv("SYNTH_ENV"))
	if env == "" {
		env = cfg.Environment
	}
	logger := logging.Setup("synthd", env)

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "synthdb"))
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	manager := state.NewManager(db)
	adapter := oracle.NewAdapter(manager, oracle.Config{
		MaxStalenessSeconds: cfg.OracleStalenessSeconds,
	})
	policy := privacy.ProofPolicy{MinBytes: cfg.ProofMinBytes, MaxBytes: cfg.ProofMaxBytes}
	verifier := privacy.BoundsVerifier{MinBytes: cfg.ProofMinBytes, MaxBytes: cfg.ProofMaxBytes}

	synthEngine := synth.NewEngine(collateralVault)
	synthEngine.SetState(manager)
	synthEngine.SetOracleAdapter(adapter)
	synthEngine.SetVerifier(verifier)
	synthEngine.SetProofPolicy(policy)

	marketEngine := market.NewEngine(marketVault, stakeSymbol(manager, logger))
	marketEngine.SetState(manager)
	marketEngine.SetOracleAdapter(adapter)
	marketEngine.SetVerifier(verifier)
	marketEngine.SetProofPolicy(policy)

	token := strings.TrimSpace(os.Getenv(rpcTokenEnv))
	if token == "" {
		token = cfg.RPCToken
	}
	if token == "" {
		logger.Warn("no RPC token configured, mutating methods are disabled")
	}

	server := rpc.NewServer(logger, synthEngine, marketEngine, token, cfg.RateLimitPerMinute)
	server.SetOracleSink(manager)

	logger.Info("synthd starting",
		slog.String("network", cfg.NetworkName),
		slog.String("rpc", cfg.RPCAddress),
		slog.String("data_dir", cfg.DataDir),
	)
	if err := server.Start(cfg.RPCAddress); err != nil {
		logger.Error("rpc server stopped", slog.Any("error", err))
		os.Exit(1)
	}
}

// stakeSymbol resolves the market stake token from the stored protocol
// configuration, defaulting to SYNTH before initialisation.
func stakeSymbol(manager *state.Manager, logger *slog.Logger) string {
	cfg, err := manager.Config()
	if err != nil {
		logger.Warn("unable to read stored config", slog.Any("error", err))
		return "SYNTH"
	}
	if cfg == nil || cfg.SynthMint == "" {
		return "SYNTH"
	}
	return cfg.SynthMint
}
