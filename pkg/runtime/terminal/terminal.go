package terminal

import (
	"fmt"
	"io"
	"os"

	"github.com/de-tools/backcountry/pkg/runtime/terminal/commands"
	"github.com/de-tools/backcountry/pkg/services/config"
	"github.com/de-tools/backcountry/pkg/services/sources"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// CLI represents the command-line interface
type CLI struct {
	env     *commands.Env
	rootCmd *cobra.Command

	root       string
	configFile string
	logFile    string
	verbose    bool
	logCloser  io.Closer
}

// Options contain configuration for the CLI
type Options struct {
	Catalog   *sources.Catalog
	Output    io.Writer
	ErrOutput io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.ErrOutput == nil {
		opts.ErrOutput = os.Stderr
	}
	if opts.Catalog == nil {
		opts.Catalog = sources.BuiltinCatalog()
	}

	cli := &CLI{
		env: &commands.Env{
			Catalog:  opts.Catalog,
			Out:      opts.Output,
			ErrOut:   opts.ErrOutput,
		},
	}

	cli.rootCmd = cli.newRootCmd()
	cli.rootCmd.SetOut(opts.Output)
	cli.rootCmd.SetErr(opts.ErrOutput)
	return cli
}

func (cli *CLI) Execute() error {
	defer cli.closeLog()
	return cli.rootCmd.Execute()
}

// SetArgs replaces os.Args[1:], for tests.
func (cli *CLI) SetArgs(args []string) {
	cli.rootCmd.SetArgs(args)
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:               "backcountry",
		Short:             "Backcountry snow forecast pipeline",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: cli.setup,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&cli.root, "root", "", "Project root (default $BACKCOUNTRY_ROOT or the working directory)")
	flags.StringVarP(&cli.configFile, "config", "c", "", "Config file (default <root>/backcountry.yaml)")
	flags.StringVar(&cli.logFile, "log-file", "", "Append logs to this file as well as stderr")
	flags.BoolVarP(&cli.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(commands.NewDailyCmd(cli.env))
	cmd.AddCommand(commands.NewReportCmd(cli.env))
	cmd.AddCommand(commands.NewCrontabCmd(cli.env))
	cmd.AddCommand(commands.NewScheduleCmd(cli.env))
	cmd.AddCommand(commands.NewSourcesCmd(cli.env))
	cmd.AddCommand(commands.NewRunsCmd(cli.env))

	return cmd
}

func (cli *CLI) setup(cmd *cobra.Command, _ []string) error {
	settings, err := config.Load(config.LoadOptions{Root: cli.root, ConfigFile: cli.configFile})
	if err != nil {
		return err
	}
	cli.env.Settings = settings

	writers := []io.Writer{cli.env.ErrOut}
	if cli.logFile != "" {
		f, err := os.OpenFile(cli.logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		cli.logCloser = f
		writers = append(writers, f)
	}

	level := zerolog.InfoLevel
	if cli.verbose {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(level).
		With().Timestamp().Str("command", cmd.Name()).
		Logger()
	cmd.SetContext(logger.WithContext(cmd.Context()))

	logger.Debug().Str("root", settings.Root).Msg("settings loaded")
	return nil
}

func (cli *CLI) closeLog() {
	if cli.logCloser != nil {
		_ = cli.logCloser.Close()
		cli.logCloser = nil
	}
}
