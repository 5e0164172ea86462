// Command mintd runs one federation peer: the consensus engine (wallet,
// mint, ln modules) driven by a real CometBFT node, plus the client-facing
// HTTP API server.go exposes. Node wiring is grounded on the teacher's
// pkg/consensus/bft_integration.go RealCometBFTEngine -- the same
// privval/node-key/genesis-document construction, generalized from the
// teacher's four hardcoded validator IDs to this federation's own
// PeerSetConfig.
package main

import (
	"context"
	"crypto/ed25519"
	"crypto/sha256"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	cmtconfig "github.com/cometbft/cometbft/config"
	cmted25519 "github.com/cometbft/cometbft/crypto/ed25519"
	dbm "github.com/cometbft/cometbft-db"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cometbft/cometbft/node"
	"github.com/cometbft/cometbft/p2p"
	"github.com/cometbft/cometbft/privval"
	"github.com/cometbft/cometbft/proxy"
	cmthttp "github.com/cometbft/cometbft/rpc/client/http"
	cmttypes "github.com/cometbft/cometbft/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mintfed/federation/pkg/config"
	"github.com/mintfed/federation/pkg/consensus"
	"github.com/mintfed/federation/pkg/eventlog"
	"github.com/mintfed/federation/pkg/kvdb"
	"github.com/mintfed/federation/pkg/module"
	"github.com/mintfed/federation/pkg/modules/ln"
	"github.com/mintfed/federation/pkg/modules/mint"
	"github.com/mintfed/federation/pkg/modules/mint/bls"
	"github.com/mintfed/federation/pkg/modules/wallet"
	"github.com/mintfed/federation/pkg/server"
	"github.com/mintfed/federation/pkg/types"
)

func main() {
	peerID := flag.Int("peer-id", -1, "this process's PeerId, as it appears in the peer-set file")
	flag.Parse()

	if *peerID < 0 {
		log.Fatal("❌ -peer-id is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ invalid configuration: %v", err)
	}

	peerSet, err := config.LoadPeerSetConfig(cfg.PeerSetPath)
	if err != nil {
		log.Fatalf("❌ failed to load peer set %s: %v", cfg.PeerSetPath, err)
	}
	self := types.PeerId(*peerID)
	selfEntry, err := peerSet.Self(self)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	log.Printf("🚀 Starting mintfed peer %s (chain %s)", self, cfg.ChainID)

	homeDir := filepath.Join(cfg.DataDir, fmt.Sprintf("peer-%d", self))
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		log.Fatalf("❌ failed to create data dir %s: %v", homeDir, err)
	}

	db, err := dbm.NewDB("mintfed", dbm.GoLevelDBBackend, filepath.Join(homeDir, "data"))
	if err != nil {
		log.Fatalf("❌ failed to open state database: %v", err)
	}
	kv := kvdb.NewCometKV(db)

	// The federation's mint signing key is shared by every peer -- it is a
	// single-key stand-in for a real threshold scheme (pkg/modules/mint/bls
	// doc comment), but every peer must compute the identical signature
	// over identical input or replicated state diverges across the
	// CometBFT validator set, so it is derived from the chain id alone,
	// not from this peer's identity.
	signerSeed := sha256.Sum256([]byte("mintfed-federation-key-" + cfg.ChainID))
	signer, err := bls.NewNoopSigner(signerSeed[:])
	if err != nil {
		log.Fatalf("❌ failed to derive federation signing key: %v", err)
	}

	registry := module.NewRegistry(
		wallet.NewModule(wallet.FixedVerifier{Value: cfg.DevnetPegInValueSats}, wallet.DefaultPegInFeeAbsSats),
		mint.NewModule(signer),
		ln.NewModule(),
	)

	promReg := prometheus.NewRegistry()
	engine := consensus.NewEngine(kv, registry, int64(self), promReg)
	adapter := consensus.NewABCIAdapter(engine)
	events := eventlog.New(kv)

	cometCfg := buildCometConfig(homeDir, cfg, selfEntry)
	if err := writeGenesisIfNeeded(cometCfg, cfg, peerSet); err != nil {
		log.Fatalf("❌ failed to write genesis: %v", err)
	}

	nodeKey, err := loadOrGenerateNodeKey(cometCfg, cfg.ChainID, self)
	if err != nil {
		log.Fatalf("❌ failed to load node key: %v", err)
	}
	pv, err := loadOrGeneratePrivVal(cometCfg, cfg.ChainID, self)
	if err != nil {
		log.Fatalf("❌ failed to load validator key: %v", err)
	}

	dbProvider := cmtconfig.DBProvider(func(ctx *cmtconfig.DBContext) (dbm.DB, error) {
		return dbm.NewDB(ctx.ID, dbm.BackendType(cometCfg.DBBackend), filepath.Join(cometCfg.RootDir, "data"))
	})
	tmLogger := cmtlog.NewTMLogger(cmtlog.NewSyncWriter(os.Stdout)).With("module", "cometbft")

	n, err := node.NewNode(
		cometCfg,
		pv,
		nodeKey,
		proxy.NewLocalClientCreator(adapter),
		node.DefaultGenesisDocProviderFunc(cometCfg),
		dbProvider,
		node.DefaultMetricsProvider(cometCfg.Instrumentation),
		tmLogger,
	)
	if err != nil {
		log.Fatalf("❌ failed to construct cometbft node: %v", err)
	}

	if err := n.Start(); err != nil {
		log.Fatalf("❌ failed to start cometbft node: %v", err)
	}
	log.Printf("✅ cometbft node started, node id %s", nodeKey.ID())

	// RPC client pointing at this same node's own RPC listener, so /submit
	// can broadcast into its mempool -- grounded on the teacher's
	// bft_integration.go rpcClient construction (0.0.0.0 replaced with
	// 127.0.0.1 since the listener binds every interface but the client
	// must dial a concrete one).
	rpcAddr := strings.Replace(cometCfg.RPC.ListenAddress, "0.0.0.0", "127.0.0.1", 1)
	rpcClient, err := cmthttp.New(rpcAddr, "/websocket")
	if err != nil {
		log.Fatalf("❌ failed to create cometbft rpc client: %v", err)
	}
	if err := rpcClient.Start(); err != nil {
		log.Fatalf("❌ failed to start cometbft rpc client: %v", err)
	}

	handlers := server.NewHandlers(engine, events, rpcClient, log.New(log.Writer(), "[server] ", log.LstdFlags))
	apiServer := &http.Server{Addr: cfg.ListenAddr, Handler: handlers.Mux()}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(promReg, promhttp.HandlerOpts{}))
	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux}

	healthMux := http.NewServeMux()
	healthMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"ok","height":%d}`, engine.Height())
	})
	healthServer := &http.Server{Addr: cfg.HealthAddr, Handler: healthMux}

	go func() {
		log.Printf("🌐 client API listening on %s", cfg.ListenAddr)
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ client API server failed: %v", err)
		}
	}()
	go func() {
		log.Printf("📈 metrics listening on %s", cfg.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("⚠️ metrics server failed: %v", err)
		}
	}()
	go func() {
		log.Printf("🩺 health listening on %s", cfg.HealthAddr)
		if err := healthServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("⚠️ health server failed: %v", err)
		}
	}()

	log.Printf("✅ peer %s ready", self)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Printf("🛑 shutting down peer %s...", self)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("client API shutdown error: %v", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("metrics shutdown error: %v", err)
	}
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("health shutdown error: %v", err)
	}
	if err := rpcClient.Stop(); err != nil {
		log.Printf("cometbft rpc client stop error: %v", err)
	}
	if err := n.Stop(); err != nil {
		log.Printf("cometbft node stop error: %v", err)
	}

	log.Printf("✅ peer %s stopped", self)
}

// buildCometConfig derives a CometBFT *config.Config from this peer's
// addresses, following the teacher's cfg.SetRoot/cfg.P2P/cfg.RPC field
// assignment idiom.
func buildCometConfig(homeDir string, cfg *config.Config, self config.PeerEntry) *cmtconfig.Config {
	cometCfg := cmtconfig.DefaultConfig()
	cometCfg.SetRoot(homeDir)
	cometCfg.Moniker = self.Id.String()
	cometCfg.P2P.ListenAddress = fmt.Sprintf("tcp://0.0.0.0:%d", cfg.P2PPort)
	cometCfg.RPC.ListenAddress = fmt.Sprintf("tcp://0.0.0.0:%d", cfg.RPCPort)
	cometCfg.Consensus.CreateEmptyBlocks = true
	cometCfg.Consensus.CreateEmptyBlocksInterval = cfg.EpochInterval
	cometCfg.TxIndex.Indexer = "kv"
	return cometCfg
}

// deterministicValidatorKey derives the 64-byte CometBFT ed25519 key
// material for peer id under chainID, so every peer in the federation can
// independently compute the same genesis validator set without an
// out-of-band key exchange step.
func deterministicValidatorKey(chainID string, id types.PeerId) cmted25519.PrivKey {
	seed := sha256.Sum256([]byte(fmt.Sprintf("mintfed-validator-key-%s-%s", chainID, id)))
	priv := ed25519.NewKeyFromSeed(seed[:])
	pub := priv.Public().(ed25519.PublicKey)
	combined := make([]byte, 64)
	copy(combined[:32], priv[:32])
	copy(combined[32:], pub)
	return cmted25519.PrivKey(combined)
}

func loadOrGenerateNodeKey(cometCfg *cmtconfig.Config, chainID string, self types.PeerId) (*p2p.NodeKey, error) {
	path := cometCfg.NodeKeyFile()
	if _, err := os.Stat(path); err == nil {
		return p2p.LoadNodeKey(path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	nodeKey := &p2p.NodeKey{PrivKey: deterministicValidatorKey(chainID, self)}
	if err := nodeKey.SaveAs(path); err != nil {
		return nil, err
	}
	return nodeKey, nil
}

func loadOrGeneratePrivVal(cometCfg *cmtconfig.Config, chainID string, self types.PeerId) (*privval.FilePV, error) {
	keyPath := cometCfg.PrivValidatorKeyFile()
	statePath := cometCfg.PrivValidatorStateFile()
	if _, err := os.Stat(keyPath); err == nil {
		return privval.LoadFilePV(keyPath, statePath), nil
	}
	if err := os.MkdirAll(filepath.Dir(keyPath), 0o755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(statePath), 0o755); err != nil {
		return nil, err
	}
	pv := privval.NewFilePV(deterministicValidatorKey(chainID, self), keyPath, statePath)
	pv.Save()
	return pv, nil
}

// writeGenesisIfNeeded writes the shared genesis document every peer in
// peerSet must agree on byte-for-byte, deriving each validator's CometBFT
// public key the same deterministic way loadOrGeneratePrivVal does, so no
// peer needs another peer's key material out of band.
func writeGenesisIfNeeded(cometCfg *cmtconfig.Config, cfg *config.Config, peerSet *config.PeerSetConfig) error {
	genFile := cometCfg.GenesisFile()
	if _, err := os.Stat(genFile); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(genFile), 0o755); err != nil {
		return err
	}

	validators := make([]cmttypes.GenesisValidator, 0, len(peerSet.Peers))
	for _, p := range peerSet.Peers {
		pub := deterministicValidatorKey(cfg.ChainID, p.Id).PubKey()
		validators = append(validators, cmttypes.GenesisValidator{
			Address: pub.Address(),
			PubKey:  pub,
			Power:   1,
			Name:    p.Id.String(),
		})
	}

	genesisDoc := &cmttypes.GenesisDoc{
		ChainID:         cfg.ChainID,
		GenesisTime:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		InitialHeight:   1,
		ConsensusParams: cmttypes.DefaultConsensusParams(),
		Validators:      validators,
		AppState:        []byte(`{}`),
	}
	return genesisDoc.SaveAs(genFile)
}
