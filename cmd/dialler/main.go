// dialler sends DC-09 signals to a receiver over TCP or UDP, either a
// single ad-hoc message built from flags or a full scenario queue loaded
// from a JSON config file.
//
// Usage:
//
//	dialler [address] [flags]
//
// Flags:
//
//	-p, --port int        port to connect to (default 8080)
//	-t, --token string     message token (default "SIA-DCS")
//	-m, --message string   message body
//	-a, --account string   account identifier (default "1234")
//	-f, --fixed            share one account across all diallers instead of incrementing it
//	-s, --sequence int     starting sequence number (default 1)
//	-d, --diallers int     number of dialler instances to run (default 1)
//	-r, --repeat int       number of times to send the message (default 1)
//	-k, --key string       AES-CBC encryption key (16/24/32 bytes)
//	-u, --udp              use UDP instead of TCP
//	    --scenarios string scenarios config file (overrides the flag-built message)
package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/fioletoven/dc09harness/internal/loglevel"
	"github.com/fioletoven/dc09harness/pkg/config"
	"github.com/fioletoven/dc09harness/pkg/dialler"
)

var opts struct {
	port      int
	token     string
	message   string
	account   string
	fixed     bool
	sequence  int
	diallers  int
	repeat    int
	key       string
	udp       bool
	scenarios string
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "dialler [address]",
		Short: "Send DC-09 signals to a receiver",
		Args:  cobra.MaximumNArgs(1),
		RunE:  run,
	}

	flags := rootCmd.Flags()
	flags.IntVarP(&opts.port, "port", "p", 8080, "port to connect to")
	flags.StringVarP(&opts.token, "token", "t", "SIA-DCS", "message token")
	flags.StringVarP(&opts.message, "message", "m", "", "message body")
	flags.StringVarP(&opts.account, "account", "a", "1234", "account identifier")
	flags.BoolVarP(&opts.fixed, "fixed", "f", false, "share one account across all diallers instead of incrementing it")
	flags.IntVarP(&opts.sequence, "sequence", "s", 1, "starting sequence number")
	flags.IntVarP(&opts.diallers, "diallers", "d", 1, "number of dialler instances to run")
	flags.IntVarP(&opts.repeat, "repeat", "r", 1, "number of times to send the message")
	flags.StringVarP(&opts.key, "key", "k", "", "AES-CBC encryption key (16/24/32 bytes)")
	flags.BoolVarP(&opts.udp, "udp", "u", false, "use UDP instead of TCP")
	flags.StringVar(&opts.scenarios, "scenarios", "", "scenarios config file (overrides the flag-built message)")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	address := "127.0.0.1"
	if len(args) == 1 {
		address = args[0]
	}

	factory := loglevel.Factory()

	diallers, err := buildDiallers(address)
	if err != nil {
		return err
	}

	var wg sync.WaitGroup
	wg.Add(len(diallers))
	for _, d := range diallers {
		d.WithLogger(factory)
		go func(d *dialler.Dialler) {
			defer wg.Done()
			d.RunSequence(context.Background())
		}(d)
	}
	wg.Wait()

	return nil
}

// buildDiallers constructs one Dialler per account, either from a
// scenarios file or from the flag-built single default signal (spec.md §6
// CLI surface, §3 "count>1" account expansion).
func buildDiallers(address string) ([]*dialler.Dialler, error) {
	if opts.scenarios != "" {
		return diallersFromScenarios(address)
	}
	return diallersFromFlags(address)
}

func diallersFromFlags(address string) ([]*dialler.Dialler, error) {
	var key []byte
	if opts.key != "" {
		key = []byte(opts.key)
	}

	accounts := config.ExpandAccounts(opts.account, opts.diallers, opts.fixed)
	diallers := make([]*dialler.Dialler, 0, len(accounts))
	for _, account := range accounts {
		d := dialler.New(address, opts.port, account, opts.udp).
			WithStartSequence(opts.sequence).
			WithKey(key)
		d.EnqueueDefault(opts.token, opts.message)
		for i := 1; i < opts.repeat; i++ {
			d.EnqueueDefault(opts.token, opts.message)
		}
		diallers = append(diallers, d)
	}
	return diallers, nil
}

func diallersFromScenarios(address string) ([]*dialler.Dialler, error) {
	f, err := os.Open(opts.scenarios)
	if err != nil {
		return nil, fmt.Errorf("dialler: open scenarios: %w", err)
	}
	defer f.Close()

	scenarios, err := config.Load(f)
	if err != nil {
		return nil, err
	}

	var diallers []*dialler.Dialler
	for _, dc := range scenarios.Diallers {
		accounts := config.ExpandAccounts(dc.Name, dc.Count, false)
		for _, account := range accounts {
			d := dialler.New(address, opts.port, account, dc.UDP).
				WithStartSequence(dc.Sequence)
			if dc.Key != "" {
				d.WithKey([]byte(dc.Key))
			}
			if dc.Receiver != "" {
				d.WithReceiver(dc.Receiver)
			}
			if dc.Prefix != "" {
				d.WithLinePrefix(dc.Prefix)
			}

			for _, scenarioID := range dc.Scenarios {
				d.Enqueue(scenarios.SequenceFor(scenarioID)...)
			}
			diallers = append(diallers, d)
		}
	}
	return diallers, nil
}
