package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"agentplan/internal/cli"
	"agentplan/internal/mcp"
	"agentplan/internal/rag"
	"agentplan/internal/tool"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

var errRunFailed = errors.New("run failed")

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runChat(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, cmd, os.Stdout, true)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.cfg.RequireAPIKey(); err != nil {
		return err
	}

	handler, router, _, err := a.handler(single)
	if err != nil {
		return err
	}
	if router != nil {
		a.log.Info("Agents: %s", strings.Join(router.Agents(), ", "))
	}

	out := cli.NewWriter(a.out)
	out.SetColorMode(!noColor)
	session := cli.NewSession(a.in, out, handler)

	err = session.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func runOnce(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, cmd, os.Stderr, true)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.cfg.RequireAPIKey(); err != nil {
		return err
	}

	handler, _, _, err := a.handler(single)
	if err != nil {
		return err
	}

	result := handler(ctx, strings.Join(args, " "))
	out := cli.NewWriter(a.out)
	out.SetColorMode(false)
	if err := out.WriteJSON(result, ""); err != nil {
		return err
	}
	if result.Failed() {
		return errRunFailed
	}
	return nil
}

func runIngest(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, cmd, os.Stdout, false)
	if err != nil {
		return err
	}
	defer a.Close()
	if a.retriever == nil {
		return errors.New("retrieval is disabled (rag.disabled)")
	}
	if err := a.cfg.RequireAPIKey(); err != nil {
		return err
	}

	n, err := a.retriever.Ingest(ctx, rag.SeedCorpus())
	if err != nil {
		return err
	}
	total, err := a.retriever.Count(ctx)
	if err != nil {
		return err
	}
	a.log.Info("Ingested %d document(s) into %q (%d stored)", n, a.cfg.RAG.Collection, total)
	return nil
}

func runTools(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	a, err := newApp(ctx, cmd, os.Stderr, false)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, t := range a.registry.List() {
		fmt.Fprintf(a.out, "%-20s %s\n", tool.Signature(t), t.Description())
	}
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	// stdout carries the protocol
	a, err := newApp(ctx, cmd, os.Stderr, false)
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.cfg.RequireAPIKey(); err != nil {
		return err
	}

	_, router, exec, err := a.handler(single)
	if err != nil {
		return err
	}

	a.log.Info("Serving MCP over stdio")
	err = mcp.NewService(exec, router).Run(ctx, &sdkmcp.StdioTransport{})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
