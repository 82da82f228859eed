// receiver listens for DC-09 frames over TCP and UDP and replies with an
// ACK (or, if configured, a NAK) to every inbound frame.
//
// Usage:
//
//	receiver [address] [flags]
//
// Flags:
//
//	-p, --port int        port to listen on (default 8080)
//	-k, --key string       default AES-CBC key (16/24/32 bytes); with --scenarios, used for accounts without their own key
//	    --nak              always respond NAK instead of ACK
//	    --scenarios string config file providing per-account keys
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fioletoven/dc09harness/internal/loglevel"
	"github.com/fioletoven/dc09harness/pkg/config"
	"github.com/fioletoven/dc09harness/pkg/receiver"
)

var opts struct {
	port      int
	key       string
	nak       bool
	scenarios string
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "receiver [address]",
		Short: "Listen for DC-09 frames and acknowledge them",
		Args:  cobra.MaximumNArgs(1),
		RunE:  run,
	}

	flags := rootCmd.Flags()
	flags.IntVarP(&opts.port, "port", "p", 8080, "port to listen on")
	flags.StringVarP(&opts.key, "key", "k", "", "AES-CBC decryption key (16/24/32 bytes)")
	flags.BoolVar(&opts.nak, "nak", false, "always respond NAK instead of ACK")
	flags.StringVar(&opts.scenarios, "scenarios", "", "config file providing per-account keys")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	address := "127.0.0.1"
	if len(args) == 1 {
		address = args[0]
	}

	cfg, err := buildConfig()
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", address, opts.port)
	srv, err := receiver.Listen(addr, cfg, loglevel.Factory())
	if err != nil {
		return fmt.Errorf("receiver: listen on %s: %w", addr, err)
	}
	defer srv.Close()

	return srv.Run()
}

func buildConfig() (receiver.Config, error) {
	cfg := receiver.Config{SendNAK: opts.nak}

	if opts.scenarios == "" {
		cfg.Keys = config.NewKeyMap(opts.key, nil)
		cfg.Accounts = config.NewAccountIndex(nil)
		return cfg, nil
	}

	f, err := os.Open(opts.scenarios)
	if err != nil {
		return cfg, fmt.Errorf("receiver: open scenarios: %w", err)
	}
	defer f.Close()

	scenarios, err := config.Load(f)
	if err != nil {
		return cfg, err
	}

	cfg.Keys = config.NewKeyMap(opts.key, scenarios.Diallers)
	cfg.Accounts = config.NewAccountIndex(scenarios.Diallers)
	return cfg, nil
}
