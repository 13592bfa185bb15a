// FILE: lixenwraith/configurations/example/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/lixenwraith/configurations"
)

// AppConfig declares the typed part of the configuration; its values are defaults.
type AppConfig struct {
	Server struct {
		Host string `toml:"host"`
		Port int    `toml:"port"`
	} `toml:"server"`

	Database struct {
		URL         string        `toml:"url"`
		MaxConns    int           `toml:"max_conns"`
		IdleTimeout time.Duration `toml:"idle_timeout"`
	} `toml:"database"`
}

const configFilePath = "example.toml"

func main() {
	defaults := &AppConfig{}
	defaults.Server.Host = "localhost"
	defaults.Server.Port = 8080
	defaults.Database.MaxConns = 10
	defaults.Database.IdleTimeout = 30 * time.Second

	host := configurations.NewBuilder().
		WithName("example").
		ConfigurableStruct("", defaults).
		// Lowercase every feature name
		ConfigurableFunc(func(v any) (any, error) {
			names, ok := v.([]string)
			if !ok {
				return nil, fmt.Errorf("features must be a list of names, got %T", v)
			}
			lower := make([]string, len(names))
			for i, name := range names {
				lower[i] = strings.ToLower(name)
			}
			return lower, nil
		}, configurations.Nest("features", configurations.Leaf("enabled"))).
		NotConfigured(func(p configurations.Path) (any, error) {
			return nil, fmt.Errorf("%w: %s", configurations.ErrNotConfigured, p)
		}, configurations.Nest("database", configurations.Leaf("url"))).
		Method(func(c *configurations.Configuration, _ ...any) (any, error) {
			host, err := c.GetString("host")
			if err != nil {
				return nil, err
			}
			port, err := c.GetInt64("port")
			if err != nil {
				return nil, err
			}
			return fmt.Sprintf("%s:%d", host, port), nil
		}, configurations.Nest("server", configurations.Leaf("address"))).
		WithValidator(configurations.Require("server.host", "server.port")).
		MustBuild()

	if err := os.WriteFile(configFilePath, []byte("[server]\nport = 9090\n\n[database]\nurl = \"postgres://localhost/app\"\n"), 0644); err != nil {
		log.Fatalf("Failed to write %s: %v", configFilePath, err)
	}
	defer os.Remove(configFilePath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	watcher, err := host.Watch(ctx, configFilePath, configurations.DefaultWatchOptions())
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	defer watcher.Stop()

	logConfig(host.Configuration())

	var app AppConfig
	if err := host.Configuration().Decode(&app); err != nil {
		log.Fatalf("Failed to decode config: %v", err)
	}
	log.Printf("Decoded: %+v", app)

	// Writes after configure are rejected
	if err := host.Configuration().SetPath("server.port", 1); errors.Is(err, configurations.ErrNotWriteable) {
		log.Printf("As expected: %v", err)
	}

	log.Printf("Watching %s for changes. Press Ctrl+C to exit.", configFilePath)
	changes := watcher.Subscribe()
	for {
		select {
		case <-ctx.Done():
			log.Println("Shutting down...")
			return
		case event, ok := <-changes:
			if !ok {
				return
			}
			handleConfigChange(host.Configuration(), event)
		}
	}
}

func handleConfigChange(cfg *configurations.Configuration, event string) {
	switch event {
	case configurations.EventFileDeleted:
		log.Println("Config file was deleted!")
	case configurations.EventPermissionsChanged:
		log.Println("SECURITY: Config file permissions changed!")
	case configurations.EventReloadTimeout:
		log.Println("Config reload timed out")
	default:
		value, err := cfg.Lookup(event)
		if err != nil {
			log.Printf("Config event %s: %v", event, err)
			return
		}
		log.Printf("Config changed: %s = %v", event, value)
	}
}

func logConfig(cfg *configurations.Configuration) {
	server, err := cfg.Node("server")
	if err != nil {
		log.Printf("No server namespace: %v", err)
		return
	}
	address, err := server.Call("address")
	if err != nil {
		log.Printf("Address unavailable: %v", err)
	}
	url, err := cfg.Lookup("database.url")
	if err != nil {
		log.Printf("Database: %v", err)
	}
	log.Println("Current configuration:")
	log.Printf("  Server: %v", address)
	log.Printf("  Database: %v", url)
	fmt.Println(cfg.Debug())
}
