package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/dshills/mdsync/internal/config"
	"github.com/dshills/mdsync/internal/logging"
	"github.com/dshills/mdsync/internal/render"
)

// app is the state shared by all commands.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	logLevel   string
	noColor    bool

	cfg      *config.Config
	logger   *logging.Logger
	renderer render.Renderer
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:   stdout,
		stderr:   stderr,
		renderer: render.NewGoldmark(),
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "mdsync",
		Short:         "Map positions between Markdown source and its rendered text",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetOut(a.stdout)
	root.SetErr(a.stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "path to a TOML or YAML configuration file")
	flags.StringVar(&a.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.BoolVar(&a.noColor, "no-color", false, "disable colored output")

	root.AddCommand(
		newRenderCmd(a),
		newMapCmd(a),
		newWatchCmd(a),
		newToggleCmd(a),
		newHighlightCmd(a),
		newVersionCmd(a),
	)
	return root
}

// setup loads the configuration and creates the logger.
func (a *app) setup() error {
	var opts []config.Option
	if a.configPath != "" {
		opts = append(opts, config.WithFile(a.configPath))
	}
	a.cfg = config.New(opts...)
	if err := a.cfg.Load(); err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.logLevel != "" {
		if err := a.cfg.Set("logging.level", a.logLevel); err != nil {
			return err
		}
	}

	lc := a.cfg.Logging().LoggerConfig()
	lc.Output = a.stderr
	a.logger = logging.New(lc)
	logging.SetLogger(a.logger)
	if f := a.cfg.File(); f != "" {
		a.logger.Debug("loaded config from %s", f)
	}

	if a.noColor {
		color.NoColor = true
	}
	return nil
}

// readSource reads a Markdown file, or stdin for "-".
func (a *app) readSource(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(a.stdout, "mdsync %s\n", version)
			fmt.Fprintf(a.stdout, "Commit: %s\n", commit)
			fmt.Fprintf(a.stdout, "Built: %s\n", date)
		},
	}
}
