package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/nerrad567/sceneagent/internal/infrastructure/config"
)

// defaultConfigPath may be absent; the agent then runs on defaults.
const defaultConfigPath = "configs/config.yaml"

// command bundles a subcommand's flag set with the shared -config flag.
type command struct {
	fs         *flag.FlagSet
	configPath *string
}

func newCommand(name string, out io.Writer) *command {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return &command{
		fs:         fs,
		configPath: fs.String("config", "", "config file (default $SCENEAGENT_CONFIG or "+defaultConfigPath+")"),
	}
}

func (c *command) parse(args []string) error {
	if err := c.fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	return nil
}

// load resolves the config path and loads it. Only the default path is
// allowed to be missing.
func (c *command) load() (*config.Config, string, error) {
	path := *c.configPath
	if path == "" {
		path = os.Getenv("SCENEAGENT_CONFIG")
	}
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.Load(path, path == defaultConfigPath)
	if err != nil {
		return nil, path, fmt.Errorf("loading config: %w", err)
	}
	return cfg, path, nil
}
