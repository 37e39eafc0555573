// Package cmds builds the ddprofdemo command tree, following the
// package-level root-command-plus-subcommands shape of
// cloudwego-goref's cmd/grf/cmds/commands.go.
package cmds

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/continuous-profiler/ddprof-go/internal/log"
)

var (
	// rootCommand is the root of the command tree.
	rootCommand *cobra.Command

	agentURLs  []string
	sampleN    int
	gzipOutput bool
	verbose    bool
)

// New returns an initialized command tree.
func New() *cobra.Command {
	rootCommand = &cobra.Command{
		Use:   "ddprofdemo",
		Short: "ddprofdemo exercises the profile aggregation engine and multi-transport connector.",
		Long:  "ddprofdemo builds a synthetic pprof profile and ships it to one or more agent endpoints over TCP, TLS, or a UNIX domain socket.",
	}
	rootCommand.CompletionOptions.DisableDefaultCmd = true
	rootCommand.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	sendCommand := &cobra.Command{
		Use:   "send",
		Short: "Build a synthetic profile and send it to one or more agent URLs.",
		Long: `Build builds a small synthetic pprof profile (a handful of CPU samples
across a couple of fabricated call stacks), serializes it, and ships the
result concurrently to every --agent-url given. Each destination is
dialed independently through the connector, so a TCP, TLS, and UNIX
socket URL can all be given in the same invocation.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if len(agentURLs) == 0 {
				return errors.New("at least one --agent-url is required")
			}
			return nil
		},
		RunE: sendCmd,
	}
	sendCommand.Flags().StringArrayVar(&agentURLs, "agent-url", nil, "destination URL (repeatable); http(s):// or unix://<hex>")
	sendCommand.Flags().IntVar(&sampleN, "samples", 3, "number of synthetic samples to record")
	sendCommand.Flags().BoolVar(&gzipOutput, "gzip", true, "gzip the encoded pprof buffer before sending")
	rootCommand.AddCommand(sendCommand)

	tagCommand := &cobra.Command{
		Use:   "tag <chunk,chunk,...>",
		Short: "Parse a tag list and print the validated tags.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return errors.New("you must provide a tag string to parse")
			}
			return nil
		},
		RunE: tagCmd,
	}
	rootCommand.AddCommand(tagCommand)

	return rootCommand
}

func setupLogging() {
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}
}

func sendCmd(_ *cobra.Command, _ []string) error {
	setupLogging()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return runSend(ctx, agentURLs, sampleN, gzipOutput)
}

func tagCmd(_ *cobra.Command, args []string) error {
	tags, err := parseTagArg(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	for _, t := range tags {
		fmt.Println(t)
	}
	return nil
}
