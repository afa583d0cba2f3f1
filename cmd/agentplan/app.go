package main

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"

	"agentplan/internal/agent"
	"agentplan/internal/cli"
	"agentplan/internal/config"
	"agentplan/internal/hook"
	"agentplan/internal/hook/handlers"
	"agentplan/internal/llm/openai"
	"agentplan/internal/logger"
	"agentplan/internal/mcp"
	"agentplan/internal/memory"
	"agentplan/internal/plan"
	"agentplan/internal/planner"
	"agentplan/internal/rag"
	"agentplan/internal/tool"
	"agentplan/internal/tool/builtin"
	"agentplan/internal/trace"

	"github.com/spf13/cobra"
)

// app holds everything one command needs, built from config and flags
type app struct {
	cfg       *config.Config
	log       *logger.Logger
	in        *bufio.Reader
	out       io.Writer
	registry  *tool.Registry
	memory    *memory.Log
	sink      trace.Sink
	hooks     *hook.Manager
	retriever *rag.Retriever
	factory   *agent.DefaultFactory
	planner   *planner.LLMPlanner

	closers []func() error
}

// loadConfig reads .env, the config file and flag overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadWithDefaults()
	}
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("api-key") {
		cfg.LLM.APIKey = apiKey
	}
	if flags.Changed("api-base-url") {
		cfg.LLM.BaseURL = apiBaseURL
	}
	if flags.Changed("model") {
		cfg.LLM.Model = model
	}
	if flags.Changed("trace") {
		cfg.Trace.Path = tracePath
	}
	if flags.Changed("session") {
		cfg.Memory.Session = session
	}
	return cfg, cfg.Validate()
}

// newApp wires the engine. logOut receives the logger. Confirmation hooks
// read the terminal and are only installed when interactive is set.
func newApp(ctx context.Context, cmd *cobra.Command, logOut io.Writer, interactive bool) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	logLevel := logger.LevelInfo
	if verbose {
		logLevel = logger.LevelDebug
	}
	log := logger.NewLogger(logOut, logLevel)
	if noColor {
		log.SetColorMode(false)
	}

	a := &app{
		cfg: cfg,
		log: log,
		in:  bufio.NewReader(os.Stdin),
		out: os.Stdout,
	}

	if err := a.openMemory(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.openTrace(); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.buildTools(ctx, interactive); err != nil {
		a.Close()
		return nil, err
	}

	a.planner = planner.New(
		openai.NewClient(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL),
		planner.WithTemperature(cfg.LLM.Temperature),
		planner.WithMaxTokens(cfg.LLM.MaxTokens),
		planner.WithLogger(log),
	)

	a.factory = agent.NewDefaultFactory(a.planner, a.registry, a.memory)
	a.factory.SetHookManager(a.hooks)
	a.factory.SetTrace(a.sink)
	a.factory.SetLogger(log)
	a.factory.SetPlannerTimeout(cfg.LLM.Timeout)

	return a, nil
}

func (a *app) openMemory(ctx context.Context) error {
	if a.cfg.Memory.Path == "" {
		a.memory = memory.NewLog()
		return nil
	}
	store, err := memory.NewBadgerStore(memory.BadgerOptions{Dir: a.cfg.Memory.Path})
	if err != nil {
		return err
	}
	a.closers = append(a.closers, store.Close)

	a.memory, err = memory.Open(ctx, store, a.cfg.Memory.Session)
	if err != nil {
		return err
	}
	a.log.Debug("memory session %s: %d record(s)", a.cfg.Memory.Session, a.memory.Len())
	return nil
}

func (a *app) openTrace() error {
	var sinks []trace.Sink
	if a.cfg.Trace.Path != "-" {
		file, err := trace.NewFileSink(a.cfg.Trace.Path)
		if err != nil {
			return err
		}
		sinks = append(sinks, file)
	}
	if a.cfg.Trace.Echo {
		sinks = append(sinks, trace.NewLogSink(a.log))
	}
	a.sink = trace.Multi(sinks...)
	a.closers = append(a.closers, a.sink.Close)
	return nil
}

func (a *app) buildTools(ctx context.Context, interactive bool) error {
	var searcher builtin.Searcher
	if !a.cfg.RAG.Disabled {
		store, err := rag.OpenStore(a.cfg.RAG.DBPath)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, store.Close)

		embedder := openai.NewEmbedder(a.cfg.LLM.APIKey, a.cfg.LLM.EmbeddingModel, a.cfg.LLM.BaseURL)
		a.retriever = rag.NewRetriever(store, embedder, a.cfg.RAG.Collection)
		searcher = a.retriever
	}

	registry, err := builtin.NewDefaultRegistry(searcher, a.cfg.RAG.TopK)
	if err != nil {
		return err
	}
	a.registry = registry

	if len(a.cfg.MCP.Servers) > 0 {
		manager := mcp.NewManager(registry, a.log)
		a.closers = append(a.closers, manager.Close)
		if err := manager.Initialize(ctx, a.cfg.MCP); err != nil {
			if manager.ServerCount() == 0 {
				return err
			}
			a.log.Warn("%v", err)
		}
	}

	if interactive && len(a.cfg.Hooks.ToolConfirm) > 0 {
		a.hooks = hook.NewManager()
		a.hooks.Register(handlers.NewToolConfirmHandlerWithIO(a.in, a.out, a.cfg.Hooks.ToolConfirm...))
	}
	return nil
}

// handler returns the request cycle for the chosen mode. The router is nil
// in single-agent mode.
func (a *app) handler(singleAgent bool) (cli.Handler, *agent.Router, *plan.Executor, error) {
	exec := a.factory.NewSingleAgent()
	if singleAgent {
		return func(ctx context.Context, prompt string) cli.Result { return exec.Run(ctx, prompt) }, nil, exec, nil
	}

	kinds := []agent.Kind{agent.KindMath, agent.KindString, agent.KindMemory}
	if a.retriever != nil {
		kinds = append(kinds, agent.KindRAG)
	}
	router, err := agent.NewRouterFromFactory(a.planner, a.memory, a.factory, kinds...)
	if err != nil {
		return nil, nil, nil, err
	}
	router.SetTrace(a.sink)
	router.SetLogger(a.log)
	router.SetTimeout(a.cfg.LLM.Timeout)
	return func(ctx context.Context, prompt string) cli.Result { return router.Handle(ctx, prompt) }, router, exec, nil
}

// Close releases stores and servers in reverse order of opening
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
