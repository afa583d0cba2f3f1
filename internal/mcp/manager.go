package mcp

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"agentplan/internal/config"
	"agentplan/internal/logger"
	"agentplan/internal/tool"
)

// Manager connects to the configured MCP servers and registers their tools
type Manager struct {
	clients  map[string]*Client
	tools    map[string][]string
	registry *tool.Registry
	log      *logger.Logger
	mu       sync.RWMutex
}

// NewManager creates a new MCP manager
func NewManager(registry *tool.Registry, log *logger.Logger) *Manager {
	if log == nil {
		log = logger.Discard()
	}
	return &Manager{
		clients:  make(map[string]*Client),
		tools:    make(map[string][]string),
		registry: registry,
		log:      log,
	}
}

// Initialize starts all enabled MCP servers from config concurrently. It
// fails only when every server failed; partial failures are returned as a
// warning error alongside the servers that did start.
func (m *Manager) Initialize(ctx context.Context, cfg config.MCPConfig) error {
	var enabled []config.MCPServerConfig
	names := make(map[string]bool)
	for _, serverCfg := range cfg.Servers {
		if serverCfg.Disabled {
			continue
		}
		if names[serverCfg.Name] {
			return fmt.Errorf("duplicate server name: %s", serverCfg.Name)
		}
		names[serverCfg.Name] = true
		enabled = append(enabled, serverCfg)
	}
	if len(enabled) == 0 {
		return nil
	}

	var wg sync.WaitGroup
	errChan := make(chan error, len(enabled))

	for _, serverCfg := range enabled {
		wg.Add(1)
		go func(cfg config.MCPServerConfig) {
			defer wg.Done()
			if err := m.startServer(ctx, cfg); err != nil {
				errChan <- fmt.Errorf("server %s: %w", cfg.Name, err)
			}
		}(serverCfg)
	}

	wg.Wait()
	close(errChan)

	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}

	if len(errs) == len(enabled) {
		return fmt.Errorf("all MCP servers failed to initialize: %w", errors.Join(errs...))
	}
	if len(errs) > 0 {
		return fmt.Errorf("some MCP servers failed (loaded %d/%d): %w",
			len(enabled)-len(errs), len(enabled), errors.Join(errs...))
	}
	return nil
}

// startServer launches one stdio server and attaches it
func (m *Manager) startServer(ctx context.Context, serverCfg config.MCPServerConfig) error {
	client, err := NewClient(ctx, serverCfg.Name, serverCfg.Command, serverCfg.Args, config.ExpandEnvMap(serverCfg.Env))
	if err != nil {
		return err
	}
	if err := m.Attach(client); err != nil {
		client.Close()
		return err
	}
	return nil
}

// Attach registers every tool of a connected client as <server>_<tool>
func (m *Manager) Attach(client *Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.clients[client.Name()]; exists {
		return fmt.Errorf("duplicate server name: %s", client.Name())
	}

	var registered []string
	for _, mcpTool := range client.Tools() {
		adapter := NewToolAdapter(client, mcpTool)
		if err := m.registry.Register(adapter); err != nil {
			return fmt.Errorf("failed to register tool %s: %w", adapter.Name(), err)
		}
		registered = append(registered, adapter.Name())
	}

	m.clients[client.Name()] = client
	m.tools[client.Name()] = registered
	m.log.Info("MCP server %s: %d tool(s)", client.Name(), len(registered))
	return nil
}

// Close shuts down all MCP servers
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, client := range m.clients {
		if err := client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("server %s: %w", name, err))
		}
	}

	m.clients = make(map[string]*Client)
	m.tools = make(map[string][]string)
	return errors.Join(errs...)
}

// ListServers returns all active server names, sorted
func (m *Manager) ListServers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.clients))
	for name := range m.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToolNames returns the registry names contributed by a server
func (m *Manager) ToolNames(server string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.tools[server]...)
}

// ServerCount returns the number of active servers
func (m *Manager) ServerCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}
