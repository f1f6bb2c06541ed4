// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// vaultd runs a staking vault behind a JSON-RPC endpoint. The asset
// ledgers and oracles are in-process; the vault state is persisted to
// disk when a database directory is configured.
package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"github.com/luxfi/database"
	"github.com/luxfi/database/badgerdb"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/ids"
	"github.com/luxfi/log"
	"github.com/luxfi/metric"

	"github.com/luxfi/vault"
	"github.com/luxfi/vault/api"
	"github.com/luxfi/vault/config"
	"github.com/luxfi/vault/oracle"
	"github.com/luxfi/vault/state"
	"github.com/luxfi/vault/token"
)

const shutdownTimeout = 10 * time.Second

var scale18 = big.NewInt(1_000_000_000_000_000_000)

func main() {
	if err := command().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type flags struct {
	httpAddr       string
	dbDir          string
	owner          string
	distributor    string
	vaultAddr      string
	duration       time.Duration
	startPaused    bool
	initialSupply  uint64
	allowedOrigins []string
}

func command() *cobra.Command {
	f := &flags{}
	cmd := &cobra.Command{
		Use:   "vaultd",
		Short: "Runs a staking vault node",
		RunE: func(*cobra.Command, []string) error {
			return run(f)
		},
	}

	cmd.Flags().StringVar(&f.httpAddr, "http-addr", ":9750", "address the JSON-RPC server listens on")
	cmd.Flags().StringVar(&f.dbDir, "db-dir", "", "database directory; in-memory when empty")
	cmd.Flags().StringVar(&f.owner, "owner", "", "vault owner address")
	cmd.Flags().StringVar(&f.distributor, "distributor", "", "rewards distributor address")
	cmd.Flags().StringVar(&f.vaultAddr, "vault-addr", "", "vault custody address")
	cmd.Flags().DurationVar(&f.duration, "rewards-duration", config.DefaultConfig().RewardsDuration, "reward epoch window length")
	cmd.Flags().BoolVar(&f.startPaused, "start-paused", false, "start with staking paused")
	cmd.Flags().Uint64Var(&f.initialSupply, "initial-supply", 0, "deposit asset supply minted to the owner at startup")
	cmd.Flags().StringSliceVar(&f.allowedOrigins, "allowed-origins", []string{"*"}, "allowed CORS origins")
	for _, name := range []string{"owner", "distributor", "vault-addr"} {
		cobra.CheckErr(cmd.MarkFlagRequired(name))
	}
	return cmd
}

func run(f *flags) error {
	logger := log.Root()

	owner, err := ids.ShortFromString(f.owner)
	if err != nil {
		return fmt.Errorf("invalid owner address: %w", err)
	}
	distributor, err := ids.ShortFromString(f.distributor)
	if err != nil {
		return fmt.Errorf("invalid distributor address: %w", err)
	}
	vaultAddr, err := ids.ShortFromString(f.vaultAddr)
	if err != nil {
		return fmt.Errorf("invalid vault address: %w", err)
	}

	cfg := config.DefaultConfig()
	cfg.VaultAddress = vaultAddr
	cfg.Owner = owner
	cfg.RewardsDistributor = distributor
	cfg.RewardsDuration = f.duration
	cfg.StartPaused = f.startPaused

	depositAsset := token.NewLedger(tokenID("STAKE"), "STAKE")
	rewardAsset := token.NewLedger(tokenID("RWD"), "RWD")
	if f.initialSupply > 0 {
		supply := new(big.Int).SetUint64(f.initialSupply)
		if err := depositAsset.Mint(owner, supply); err != nil {
			return err
		}
		if err := rewardAsset.Mint(vaultAddr, supply); err != nil {
			return err
		}
	}

	multiplier := oracle.NewStaticMultiplierOracle(scale18)
	reserves := oracle.NewStaticReserveOracle(new(big.Int), new(big.Int))

	v, err := vault.New(cfg, depositAsset, rewardAsset, multiplier, reserves, logger)
	if err != nil {
		return err
	}

	db, err := openDatabase(f.dbDir)
	if err != nil {
		return err
	}
	defer db.Close()

	store := state.New(db)
	if err := v.UseStore(store); err != nil {
		return fmt.Errorf("failed to rehydrate vault state: %w", err)
	}

	registry := metric.NewRegistry()
	if err := v.RegisterMetrics(registry); err != nil {
		return err
	}

	handler, err := api.NewHandler(v, depositAsset, rewardAsset)
	if err != nil {
		return err
	}

	router := mux.NewRouter()
	router.Handle("/ext/vault", handler)
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              f.httpAddr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: cors.New(cors.Options{
			AllowedOrigins: f.allowedOrigins,
		}).Handler(router),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("serving vault API",
			"addr", f.httpAddr,
			"owner", owner,
			"distributor", distributor,
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func openDatabase(dir string) (database.Database, error) {
	if dir == "" {
		return memdb.New(), nil
	}
	return badgerdb.New(dir, nil, "", nil)
}

// tokenID derives a stable asset identity from its symbol.
func tokenID(symbol string) ids.ID {
	var id ids.ID
	copy(id[:], symbol)
	return id
}
