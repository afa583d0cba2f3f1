package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	apiBaseURL string
	apiKey     string
	model      string
	tracePath  string
	session    string
	single     bool
	verbose    bool
	noColor    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "agentplan",
		Short:         "Plan-and-execute tool agent with conversation memory",
		Long:          "agentplan asks a model for a plan of tool calls, runs it step by step and remembers every answer.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Config file (default: search ./agentplan.yaml, ~/.config/agentplan, /etc/agentplan)")
	flags.StringVar(&apiBaseURL, "api-base-url", "", "OpenAI API base URL")
	flags.StringVar(&apiKey, "api-key", "", "OpenAI API key")
	flags.StringVar(&model, "model", "", "Model to use")
	flags.StringVar(&tracePath, "trace", "", "JSONL trace file (\"-\" disables)")
	flags.StringVar(&session, "session", "", "Memory session name")
	flags.BoolVar(&verbose, "verbose", false, "Enable verbose output (debug mode)")
	flags.BoolVar(&noColor, "no-color", false, "Disable colored output")

	chatCmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive session: route every question to an agent",
		Args:  cobra.NoArgs,
		RunE:  runChat,
	}
	chatCmd.Flags().BoolVar(&single, "single", false, "Use one planning agent over all tools instead of the router")

	runCmd := &cobra.Command{
		Use:   "run [prompt]",
		Short: "Answer one question and print the result as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runOnce,
	}
	runCmd.Flags().BoolVar(&single, "single", false, "Use one planning agent over all tools instead of the router")

	ingestCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Embed and store the seed knowledge base",
		Args:  cobra.NoArgs,
		RunE:  runIngest,
	}

	toolsCmd := &cobra.Command{
		Use:   "tools",
		Short: "List the registered tools",
		Args:  cobra.NoArgs,
		RunE:  runTools,
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the engine as an MCP server over stdio",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().BoolVar(&single, "single", false, "Answer ask with one planning agent instead of the router")

	rootCmd.AddCommand(chatCmd, runCmd, ingestCmd, toolsCmd, serveCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
