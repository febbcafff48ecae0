package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mikey/phishing-filter/internal/adapters/intel"
	"github.com/mikey/phishing-filter/internal/config"
	"github.com/mikey/phishing-filter/internal/core"
	"github.com/mikey/phishing-filter/internal/factory"
	"github.com/mikey/phishing-filter/internal/logging"
	"go.uber.org/zap"
)

var (
	feedFormat = flag.String("format", "urlhaus", "Feed format (urlhaus, openphish)")
	feedSource = flag.String("feed", "", "Feed location: http(s) URL or local file path")
	timeout    = flag.Duration("timeout", 2*time.Minute, "Overall fetch-and-apply timeout")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")

	storeType  = flag.String("store", "sqlite", "Threat store type (memory, sqlite, mysql)")
	sqlitePath = flag.String("sqlite-path", "indicators.db", "Path to the SQLite indicator database")
	mysqlDSN   = flag.String("mysql-dsn", "", "MySQL DSN for the indicator database")
)

func main() {
	flag.Parse()

	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *feedSource == "" {
		logger.Fatal("No feed location given, use -feed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	indicators, err := fetchIndicators(ctx, *feedFormat, *feedSource)
	if err != nil {
		logger.Fatal("Failed to load feed", zap.Error(err))
	}
	if len(indicators) == 0 {
		logger.Warn("Feed contained no indicators, nothing to apply",
			zap.String("feed", *feedSource))
		return
	}

	store, err := factory.NewStoreFactory(createConfigFromFlags(), logger).CreateThreatStore()
	if err != nil {
		logger.Fatal("Failed to open threat store", zap.Error(err))
	}
	defer func() {
		if closer, ok := store.(interface{ Close() error }); ok {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close threat store", zap.Error(err))
			}
		}
	}()

	start := time.Now()
	if err := store.Refresh(ctx, indicators); err != nil {
		logger.Fatal("Failed to apply indicator batch", zap.Error(err))
	}

	logger.Info("Indicator batch applied",
		zap.String("format", *feedFormat),
		zap.String("feed", *feedSource),
		zap.Int("indicators", len(indicators)),
		zap.Duration("elapsed", time.Since(start)))
}

func fetchIndicators(ctx context.Context, format, location string) ([]core.Indicator, error) {
	body, err := intel.OpenFeed(ctx, location)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	switch strings.ToLower(format) {
	case "urlhaus":
		return intel.ParseURLhausCSV(body)
	case "openphish":
		return intel.ParseOpenPhishFeed(body)
	default:
		return nil, fmt.Errorf("unknown feed format: %s", format)
	}
}

func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()
	v.Set("intel.store", *storeType)
	v.Set("intel.sqlite_path", *sqlitePath)
	if *mysqlDSN != "" {
		v.Set("intel.mysql_dsn", *mysqlDSN)
	}
	return config.NewFromViper(v)
}
