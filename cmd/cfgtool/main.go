// FILE: lixenwraith/optcfg/cmd/cfgtool/main.go
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/lixenwraith/optcfg"
	"github.com/lixenwraith/optcfg/configpb"
)

// version can be set during build with -ldflags
var version = "dev"

var (
	logLevel string
	plain    bool
	logger   = slog.New(slog.NewTextHandler(io.Discard, nil))
)

var rootCmd = &cobra.Command{
	Use:   "cfgtool",
	Short: "Inspect and convert service configuration files",
	Long: `cfgtool works with the configuration of a sample service: it prints a
documented template, validates configuration files and converts them between
INI text, structured formats and the binary message encoding.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var level slog.Level
		if err := level.UnmarshalText([]byte(logLevel)); err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		return nil
	},
}

func newTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "template",
		Short: "Print the configuration template",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := newServiceConfig()
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), cfg.GetConfig(plain))
			return nil
		},
	}
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Load and validate a configuration file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadFile(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])
			logger.Debug("Validated configuration", "file", args[0], "values", cfg.Debug())
			return nil
		},
	}
}

func newEncodeCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "encode <file>",
		Short: "Encode a configuration file as a binary message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadFile(args[0])
			if err != nil {
				return err
			}
			msg, err := cfg.SaveProto()
			if err != nil {
				return err
			}
			data, err := msg.Marshal()
			if err != nil {
				return err
			}
			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			return os.WriteFile(output, data, 0644)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	return cmd
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <file>",
		Short: "Decode a binary message and print it as configuration text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			msg, err := configpb.Unmarshal(data)
			if err != nil {
				return err
			}
			cfg, err := newServiceConfig()
			if err != nil {
				return err
			}
			if err := cfg.LoadProto(msg); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), cfg.GetConfig(plain))
			return nil
		},
	}
}

func newExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <file> <output>",
		Short: "Convert a configuration file; the output extension selects the format",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadFile(args[0])
			if err != nil {
				return err
			}
			return optcfg.ExportFile(args[1], cfg)
		},
	}
}

func newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <file>",
		Short: "List every option of a configuration file with its state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadFile(args[0])
			if err != nil {
				return err
			}
			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"OPTION", "TYPE", "VALUE", "STATE"})
			appendRows(t, "", cfg)
			t.Render()
			return nil
		},
	}
}

// appendRows adds one row per option, sections in declaration order.
func appendRows(t table.Writer, prefix string, cfg *optcfg.Config) {
	base := cfg.Name()
	if prefix != "" {
		base = prefix + "." + base
	}
	for _, opt := range cfg.Options() {
		state := "set"
		switch {
		case !opt.HasValue():
			state = "unset"
		case opt.IsDefault():
			state = "default"
		}
		value := opt.AsString()
		if len(value) > 60 {
			value = value[:57] + "..."
		}
		t.AppendRow(table.Row{base + "." + opt.Name(), opt.TypeDescription(), value, state})
	}
	for _, sub := range cfg.Configs() {
		if sub.Name() != "" {
			appendRows(t, base, sub)
		}
	}
}

func loadFile(path string) (*optcfg.Config, error) {
	src, err := optcfg.ReadSource(path)
	if err != nil {
		return nil, err
	}
	cfg, err := newServiceConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.LoadConfig(src, ""); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newServiceConfig declares the sample service configuration.
func newServiceConfig() (*optcfg.Config, error) {
	scheme := optcfg.NewDirectoryScheme("cfgtool", "", false)

	database := optcfg.New("database", optcfg.WithDescription("Database connection"))
	if err := database.Add(
		optcfg.Must(optcfg.NewStringOption("dsn", "Connection string", optcfg.Required())),
		optcfg.Must(optcfg.NewIntOption("pool_size", "Maximum open connections", optcfg.Default(10))),
	); err != nil {
		return nil, err
	}

	workerFactory := func(section string) *optcfg.Config {
		w := optcfg.New(section, optcfg.WithDescription("Worker "+section))
		w.MustAdd(
			optcfg.Must(optcfg.NewAddressOption("endpoint", "Worker endpoint", optcfg.Required())),
			optcfg.Must(optcfg.NewIntOption("threads", "Worker threads", optcfg.Default(1))),
		)
		return w
	}

	cfg := optcfg.New("service",
		optcfg.WithDescription("Sample service configuration"),
		optcfg.WithLogger(logger),
	)
	if err := cfg.Add(
		optcfg.Must(optcfg.NewStringOption("name", "Service name", optcfg.Required(), optcfg.Default("cfgtool"))),
		optcfg.Must(optcfg.NewUUIDOption("agent_id", "Service identity")),
		optcfg.Must(optcfg.NewBoolOption("debug", "Enable debug mode", optcfg.Default(false))),
		optcfg.Must(optcfg.NewListOption[string]("tags", "Service tags")),
		optcfg.Must(optcfg.NewPathOption("log_file", "Log file",
			optcfg.WithScheme(scheme), optcfg.Default("{logs}/service.log"))),
		optcfg.Must(optcfg.NewConfigOption("database", "Database section", database, optcfg.Required())),
		optcfg.Must(optcfg.NewConfigListOption("workers", "Worker sections", workerFactory)),
	); err != nil {
		return nil, err
	}
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&plain, "plain", false, "print values without documentation")
	rootCmd.AddCommand(newTemplateCmd(), newValidateCmd(), newEncodeCmd(), newDecodeCmd(), newExportCmd(), newShowCmd())
}

func main() {
	rootCmd.Version = version
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
