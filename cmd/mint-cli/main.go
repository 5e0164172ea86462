// Command mint-cli is the client shell: one invocation per operation,
// persisting its coin store, event log, and signing identity under
// -data-dir between runs. Subcommand dispatch over the standard "flag"
// package matches the teacher's own flag-only CLI idiom (main.go never
// reaches for cobra despite it sitting in the dependency graph).
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	dbm "github.com/cometbft/cometbft-db"

	"github.com/mintfed/federation/client"
	"github.com/mintfed/federation/client/httpapi"
	"github.com/mintfed/federation/pkg/kvdb"
	"github.com/mintfed/federation/pkg/types"
)

const keyFile = "identity.key"

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code: 0 on success, non-zero on any
// transport, deserialization, or local-state failure (spec.md §6).
func run(args []string) int {
	root := flag.NewFlagSet("mint-cli", flag.ContinueOnError)
	dataDir := root.String("data-dir", "./mint-cli-data", "local directory for coin store, event log, and identity")
	federationAddr := root.String("federation", "http://127.0.0.1:8080", "base URL of a federation peer's client API")

	if err := root.Parse(args); err != nil {
		return 2
	}
	if root.NArg() == 0 {
		printUsage()
		return 2
	}
	cmd := root.Arg(0)
	rest := root.Args()[1:]

	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "mint-cli: %v\n", err)
		return 1
	}

	db, err := dbm.NewDB("mint-cli", dbm.GoLevelDBBackend, *dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint-cli: open local store: %v\n", err)
		return 1
	}
	kv := kvdb.NewCometKV(db)

	kp, err := loadOrCreateIdentity(*dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint-cli: %v\n", err)
		return 1
	}

	api := httpapi.New(*federationAddr, nil)
	c := client.New(api, kv, kp)

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	switch cmd {
	case "peg-in":
		return cmdPegIn(ctx, c, rest)
	case "peg-out":
		return cmdPegOut(ctx, c, rest)
	case "spend":
		return cmdSpend(ctx, c, rest)
	case "fund-lightning":
		return cmdFundLightning(ctx, c, rest)
	case "claim-lightning":
		return cmdClaimLightning(ctx, c, rest)
	case "balance":
		return cmdBalance(c)
	case "events":
		return cmdEvents(c)
	case "help", "-h", "--help":
		printUsage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "mint-cli: unknown command %q\n", cmd)
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: mint-cli [-data-dir DIR] [-federation URL] <command> [args]

commands:
  peg-in          -txid TXID -proof HEX -value-sats N
  peg-out         -address ADDR -amount MSAT
  spend           -amount MSAT
  fund-lightning  -preimage HEX -amount MSAT -payee HEX
  claim-lightning -preimage HEX -amount MSAT
  balance
  events`)
}

func cmdPegIn(ctx context.Context, c *client.Client, args []string) int {
	fs := flag.NewFlagSet("peg-in", flag.ContinueOnError)
	txid := fs.String("txid", "", "underlying-chain transaction id")
	proofHex := fs.String("proof", "", "hex-encoded SPV proof")
	valueSats := fs.Uint64("value-sats", 0, "confirmed peg-in value, in satoshis")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	proof, err := decodeHex(*proofHex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint-cli: %v\n", err)
		return 1
	}
	txidOut, err := c.PegIn(ctx, *txid, proof, *valueSats)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint-cli: peg-in failed: %v\n", err)
		return 1
	}
	fmt.Println(txidOut)
	return 0
}

func cmdPegOut(ctx context.Context, c *client.Client, args []string) int {
	fs := flag.NewFlagSet("peg-out", flag.ContinueOnError)
	address := fs.String("address", "", "destination address on the underlying chain")
	amount := fs.Uint64("amount", 0, "amount to withdraw, in milli-satoshis")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	txid, err := c.PegOut(ctx, *address, types.Amount(*amount))
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint-cli: peg-out failed: %v\n", err)
		return 1
	}
	fmt.Println(txid)
	return 0
}

func cmdSpend(ctx context.Context, c *client.Client, args []string) int {
	fs := flag.NewFlagSet("spend", flag.ContinueOnError)
	amount := fs.Uint64("amount", 0, "amount to spend, in milli-satoshis")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	token, txid, err := c.Spend(ctx, types.Amount(*amount))
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint-cli: spend failed: %v\n", err)
		return 1
	}
	fmt.Printf("txid=%s\ntoken=%s\n", txid, token)
	return 0
}

func cmdFundLightning(ctx context.Context, c *client.Client, args []string) int {
	fs := flag.NewFlagSet("fund-lightning", flag.ContinueOnError)
	preimageHex := fs.String("preimage", "", "hex-encoded payment preimage")
	amount := fs.Uint64("amount", 0, "escrow amount, in milli-satoshis")
	payeeHex := fs.String("payee", "", "hex-encoded payee public key")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	preimage, err := decodeHex(*preimageHex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint-cli: %v\n", err)
		return 1
	}
	payee, err := decodeHex(*payeeHex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint-cli: %v\n", err)
		return 1
	}
	txid, err := c.FundLightning(ctx, preimage, types.Amount(*amount), payee)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint-cli: fund-lightning failed: %v\n", err)
		return 1
	}
	fmt.Println(txid)
	return 0
}

func cmdClaimLightning(ctx context.Context, c *client.Client, args []string) int {
	fs := flag.NewFlagSet("claim-lightning", flag.ContinueOnError)
	preimageHex := fs.String("preimage", "", "hex-encoded payment preimage")
	amount := fs.Uint64("amount", 0, "amount to reissue, in milli-satoshis")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	preimage, err := decodeHex(*preimageHex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint-cli: %v\n", err)
		return 1
	}
	txid, err := c.ClaimLightning(ctx, preimage, types.Amount(*amount))
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint-cli: claim-lightning failed: %v\n", err)
		return 1
	}
	fmt.Println(txid)
	return 0
}

func cmdBalance(c *client.Client) int {
	balance, err := c.Balance()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint-cli: %v\n", err)
		return 1
	}
	fmt.Println(balance)
	return 0
}

func cmdEvents(c *client.Client) int {
	events, err := c.DrainEvents()
	if err != nil {
		fmt.Fprintf(os.Stderr, "mint-cli: %v\n", err)
		return 1
	}
	for _, e := range events {
		fmt.Printf("%d %s\n", e.TimeMsSinceEpoch, e.Msg)
	}
	return 0
}

func decodeHex(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	out, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex: %w", err)
	}
	return out, nil
}

// loadOrCreateIdentity loads the caller's signing keypair from dataDir/keyFile,
// generating and persisting a fresh one on first use.
func loadOrCreateIdentity(dataDir string) (*client.Keypair, error) {
	path := filepath.Join(dataDir, keyFile)
	raw, err := os.ReadFile(path)
	if err == nil {
		return client.LoadKeypair(raw)
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read identity: %w", err)
	}
	kp, err := client.NewKeypair()
	if err != nil {
		return nil, fmt.Errorf("generate identity: %w", err)
	}
	if err := os.WriteFile(path, kp.Bytes(), 0o600); err != nil {
		return nil, fmt.Errorf("persist identity: %w", err)
	}
	return kp, nil
}
