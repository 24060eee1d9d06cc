// mfa-demo drives the registration and transaction-servicing packages
// end to end against an in-process fake backend, standing in for a real
// managed cloud tenant. It is a runnable illustration of the library's
// call sequence, not a shippable client.
package main

import (
	"context"
	"crypto/rsa"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/84adam/mfa-core/biometry"
	"github.com/84adam/mfa-core/config"
	"github.com/84adam/mfa-core/keystore"
	"github.com/84adam/mfa-core/logging"
	"github.com/84adam/mfa-core/registration"
	"github.com/84adam/mfa-core/service"
	"github.com/84adam/mfa-core/transport"
)

const (
	Version = "0.1.0-demo"
	Usage   = `mfa-demo - reference driver for github.com/84adam/mfa-core

USAGE:
    mfa-demo [global options] command [command options]

COMMANDS:
    run       Register a device against a fake cloud backend, enroll
              user-presence and biometric factors, then list and
              complete one pending transaction.
    qr        Render arbitrary text as a QR code PNG.
    version   Show version information.

GLOBAL OPTIONS:
    --verbose, -v    Verbose output
    --help, -h       Show help

EXAMPLES:
    mfa-demo run
    mfa-demo run --account "Savings Account"
    mfa-demo qr --text "hello" --out qr.png
`
)

var verbose bool

func main() {
	var (
		verboseFlag = flag.Bool("verbose", false, "Verbose output")
		vFlag       = flag.Bool("v", false, "Verbose output (short)")
		helpFlag    = flag.Bool("help", false, "Show help information")
		hFlag       = flag.Bool("h", false, "Show help information (short)")
		versionFlag = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()
	verbose = *verboseFlag || *vFlag

	if *versionFlag {
		printVersion()
		return
	}
	if *helpFlag || *hFlag || flag.NArg() == 0 {
		printUsage()
		return
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	var err error
	switch command {
	case "run":
		err = handleRunCommand(args)
	case "qr":
		err = handleQRCommand(args)
	case "version":
		printVersion()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

func handleQRCommand(args []string) error {
	fs := flag.NewFlagSet("qr", flag.ExitOnError)
	var (
		text = fs.String("text", "", "Text to encode (required)")
		out  = fs.String("out", "qr.png", "Output PNG path")
		size = fs.Int("size", 256, "Image size in pixels")
	)
	fs.Usage = func() {
		fmt.Printf(`Usage: mfa-demo qr --text TEXT [--out qr.png] [--size 256]

Renders TEXT as a QR code PNG, e.g. a bootstrap descriptor a real
device would present for a phone to scan.
`)
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *text == "" {
		return fmt.Errorf("--text is required")
	}
	if err := renderQRCode(*text, *out, *size); err != nil {
		return err
	}
	fmt.Printf("Wrote QR code to %s\n", *out)
	return nil
}

func handleRunCommand(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	var (
		accountName = fs.String("account", "Jane Doe", "Account name to register under")
		pushToken   = fs.String("push-token", "demo-push-token", "Push token to register")
	)
	fs.Usage = func() {
		fmt.Printf(`Usage: mfa-demo run [--account NAME] [--push-token TOKEN]

Runs the full registration and transaction-servicing lifecycle against
an in-process fake cloud backend: initiate, enroll user-presence and
biometric factors, finalize, then list and approve one transaction.
`)
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := logging.InitLogging(nil); err != nil {
		return fmt.Errorf("mfa-demo: failed to init logging: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	backend := newFakeCloudBackend()
	defer backend.Close()

	cfg := config.Get()
	httpClient := transport.NewHTTPClient(cfg.HTTPTimeout())
	ks, err := keystore.NewInMemoryKeyStore()
	if err != nil {
		return fmt.Errorf("mfa-demo: failed to build keystore: %w", err)
	}

	bootstrap := backend.bootstrapJSON(*accountName)
	logVerbose("bootstrap descriptor: %s", bootstrap)

	regController := registration.NewController(bootstrap, httpClient, noopOAuth{})
	provider, err := regController.Initiate(ctx, *accountName, *pushToken, nil)
	if err != nil {
		return fmt.Errorf("mfa-demo: initiate failed: %w", err)
	}
	fmt.Println("Initiated registration against fake cloud backend.")

	if provider.CanEnrollUserPresence() {
		save := makeSaveKeyFunc(ks, "device-userpresence-key")
		if err := provider.EnrollUserPresence(ctx, save); err != nil {
			return fmt.Errorf("mfa-demo: user-presence enrollment failed: %w", err)
		}
		fmt.Println("Enrolled user-presence factor.")
	}

	if provider.CanEnrollBiometric() {
		save := makeSaveKeyFunc(ks, "device-biometric-key")
		if err := provider.EnrollBiometric(ctx, fixedEvaluator{subtype: biometry.SubtypeFaceID}, save); err != nil {
			return fmt.Errorf("mfa-demo: biometric enrollment failed: %w", err)
		}
		fmt.Println("Enrolled biometric factor.")
	}

	auth, err := provider.Finalize(ctx)
	if err != nil {
		return fmt.Errorf("mfa-demo: finalize failed: %w", err)
	}
	fmt.Printf("Finalized authenticator %s for account %s.\n", auth.ID(), auth.AccountName())

	factors := auth.EnrolledFactors()
	if len(factors) == 0 {
		return fmt.Errorf("mfa-demo: no factors enrolled, nothing to transact with")
	}
	keyName, _ := factors[0].KeyLabel()
	trxnID := backend.QueueTransaction(keyName)
	logVerbose("queued transaction %s", trxnID)

	svcController := service.NewController(httpClient, noopOAuth{})
	svc, err := svcController.NewService(auth)
	if err != nil {
		return fmt.Errorf("mfa-demo: failed to build service: %w", err)
	}

	pending, count, err := svc.NextTransaction(ctx, "")
	if err != nil {
		return fmt.Errorf("mfa-demo: fetching next transaction failed: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("mfa-demo: expected one pending transaction, found none")
	}
	fmt.Printf("Pending transaction %s: %s\n", pending.ShortID(), pending.Message)

	f, ok := svcController.TransactionFactor(auth, pending)
	if !ok {
		return fmt.Errorf("mfa-demo: no enrolled factor matches transaction key %q", pending.KeyName)
	}

	if err := svc.CompleteTransactionWithFactor(ctx, pending, f, service.ActionVerify, ks); err != nil {
		return fmt.Errorf("mfa-demo: completing transaction failed: %w", err)
	}
	fmt.Println("Approved transaction.")

	return nil
}

func printVersion() {
	fmt.Printf("mfa-demo version %s\n", Version)
}

func printUsage() {
	fmt.Print(Usage)
}

func logVerbose(format string, args ...interface{}) {
	if verbose {
		fmt.Printf("[VERBOSE] "+format+"\n", args...)
	}
}

func logError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "[ERROR] "+format+"\n", args...)
}

// makeSaveKeyFunc stores a freshly generated private key under a fixed
// label, standing in for a real device deciding a label per platform
// (spec §9 "Biometric callback for key storage").
func makeSaveKeyFunc(ks keystore.KeyStore, label string) registration.SavePrivateKeyFunc {
	return func(ctx context.Context, key *rsa.PrivateKey) (string, error) {
		if err := ks.Store(ctx, label, key, keystore.AccessControlNone); err != nil {
			return "", err
		}
		return label, nil
	}
}

// fixedEvaluator always reports the given subtype as available and
// successful, standing in for a real platform biometric prompt.
type fixedEvaluator struct {
	subtype biometry.Subtype
}

func (e fixedEvaluator) CanEvaluate(ctx context.Context) (bool, error) {
	return true, nil
}

func (e fixedEvaluator) Evaluate(ctx context.Context, policy biometry.Policy, reason string) (biometry.Subtype, error) {
	return e.subtype, nil
}
