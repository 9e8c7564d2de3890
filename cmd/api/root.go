package main

import (
	"fmt"
	"io"
	"runtime"

	"exapi-service/internal/application/services"
	"exapi-service/internal/domain/interfaces"
	"exapi-service/internal/infrastructure/config"
	"exapi-service/internal/infrastructure/exchange"
	"exapi-service/internal/infrastructure/governor"
	"exapi-service/internal/infrastructure/logging"
	"exapi-service/internal/infrastructure/metrics"
	"exapi-service/internal/infrastructure/repositories/cache"
	"exapi-service/pkg/utils"

	"github.com/spf13/cobra"
)

const serviceName = "exapi-service"

// version se sobrescribe con -ldflags "-X main.version=..."
var version = "dev"

type rootOptions struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "exapi",
		Short: "Market data facade over many cryptocurrency exchanges",
		Long: `exapi aggregates orderbooks and cached mid prices from several exchanges
behind one REST API, with per-exchange throttling and bounded retries.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default: search ./configs, ../configs, ., /etc/exapi)")

	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newMidPriceCmd(opts))
	root.AddCommand(newVersionCmd())

	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", serviceName, version, runtime.Version())
		},
	}
}

// loadConfig lee y valida la configuración
func loadConfig(opts *rootOptions) (*config.Config, error) {
	loader := config.NewLoader()
	if opts.configFile != "" {
		loader = config.NewLoaderWithFile(opts.configFile)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	if err := config.NewValidator().Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// initLogging configura los loggers globales según la configuración
func initLogging(cfg *config.Config, output io.Writer) error {
	level := cfg.Logging.Level
	if cfg.Development.DebugMode {
		level = "debug"
	}

	loggerConfig := logging.NewConfigFromSettings(serviceName, version, level, cfg.Logging.Format).
		WithOutput(output).
		WithSource(cfg.Development.DebugMode)

	return logging.InitializeGlobalLoggers(loggerConfig)
}

// app agrupa los componentes de dominio construidos desde la configuración
type app struct {
	cfg      *config.Config
	clock    utils.Clock
	sources  *exchange.Registry
	governor *governor.Governor
	prices   *services.PriceCache
	markets  interfaces.MarketService
}

func buildApp(cfg *config.Config, clock utils.Clock) (*app, error) {
	sources, err := exchange.NewRegistryFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build exchange registry: %w", err)
	}

	gov := governor.New(governor.ConfigFrom(cfg.Governor), clock, logging.Governor())
	prices := services.NewPriceCache(services.PriceCacheConfigFrom(cfg.Cache), sources, gov,
		cache.NewMemoryStore(), clock, logging.Cache())

	metrics.SetApplicationInfo(version, runtime.Version())

	return &app{
		cfg:      cfg,
		clock:    clock,
		sources:  sources,
		governor: gov,
		prices:   prices,
		markets:  services.NewMarketService(sources, gov),
	}, nil
}
