package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/lomik/zapwriter"
	"github.com/natefinch/atomic"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/go-raster/rasterts/apply"
	"github.com/go-raster/rasterts/cube"
	"github.com/go-raster/rasterts/date"
	"github.com/go-raster/rasterts/filter/history"
)

// BuildVersion is provided to be overridden at build time. Eg. go build -ldflags -X 'main.BuildVersion=...'
var BuildVersion = "(development build)"

var defaultLoggerConfig = zapwriter.Config{
	Logger:           "",
	File:             "stderr",
	Level:            "info",
	Encoding:         "console",
	EncodingTime:     "iso8601",
	EncodingDuration: "seconds",
}

type monitoringConfig struct {
	Year int `mapstructure:"year"`
	Day  int `mapstructure:"day"`
}

var config = struct {
	Logger     []zapwriter.Config `mapstructure:"logger"`
	Input      string             `mapstructure:"input"`
	Output     string             `mapstructure:"output"`
	Threshold  string             `mapstructure:"threshold"`
	IsMax      bool               `mapstructure:"isMax"`
	Workers    int                `mapstructure:"workers"`
	Monitoring monitoringConfig   `mapstructure:"monitoring"`
	Dates      []string           `mapstructure:"dates"`
}{
	Logger:    []zapwriter.Config{defaultLoggerConfig},
	Threshold: "iqr",
	Workers:   0,
}

func main() {
	err := zapwriter.ApplyConfig([]zapwriter.Config{defaultLoggerConfig})
	if err != nil {
		log.Fatal("failed to initialize logger with default configuration")
	}
	logger := zapwriter.Logger("main")

	configPath := flag.String("config", "", "config file (yaml)")
	input := flag.String("input", "", "input cube document (json)")
	output := flag.String("output", "", "output cube document (json)")
	threshold := flag.String("threshold", "", `numeric threshold or "iqr"`)
	isMax := flag.Bool("ismax", false, "threshold is a ceiling instead of a floor")
	workers := flag.Int("workers", 0, "parallelism (0 = number of cpus)")
	version := flag.Bool("version", false, "print version")
	flag.Parse()

	if *version {
		fmt.Println(BuildVersion)
		return
	}

	if *configPath != "" {
		viper.SetConfigFile(*configPath)
		if err := viper.ReadInConfig(); err != nil {
			logger.Fatal("failed to read config file",
				zap.String("config_path", *configPath),
				zap.Error(err),
			)
		}
	}
	viper.SetEnvPrefix("RTSFILTER")
	viper.AutomaticEnv()
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("failed to parse config",
			zap.Error(err),
		)
	}

	// flags win over the config file
	if *input != "" {
		config.Input = *input
	}
	if *output != "" {
		config.Output = *output
	}
	if *threshold != "" {
		config.Threshold = *threshold
	}
	if *isMax {
		config.IsMax = true
	}
	if *workers != 0 {
		config.Workers = *workers
	}

	if err := zapwriter.ApplyConfig(config.Logger); err != nil {
		logger.Fatal("failed to initialize logger with requested configuration",
			zap.Any("configuration", config.Logger),
			zap.Error(err),
		)
	}
	logger = zapwriter.Logger("main")

	if config.Input == "" || config.Output == "" {
		logger.Fatal("both input and output must be set")
	}

	thr, err := parseThreshold(config.Threshold)
	if err != nil {
		logger.Fatal("bad threshold",
			zap.String("threshold", config.Threshold),
			zap.Error(err),
		)
	}

	opts := history.Options{
		IsMax:  config.IsMax,
		Engine: &apply.Pool{Workers: config.Workers, Logger: zapwriter.Logger("apply")},
		Diag:   &history.Diagnostics{},
	}
	if config.Monitoring.Year != 0 {
		opts.Monitoring = &date.MonitoringPeriod{Year: config.Monitoring.Year, Day: config.Monitoring.Day}
	}
	if len(config.Dates) > 0 {
		opts.Dates, err = parseDates(config.Dates)
		if err != nil {
			logger.Fatal("bad dates",
				zap.Strings("dates", config.Dates),
				zap.Error(err),
			)
		}
	}

	data, err := os.ReadFile(config.Input)
	if err != nil {
		logger.Fatal("failed to read input cube",
			zap.String("input", config.Input),
			zap.Error(err),
		)
	}
	c, err := cube.UnmarshalJSON(data)
	if err != nil {
		logger.Fatal("failed to parse input cube",
			zap.String("input", config.Input),
			zap.Error(err),
		)
	}
	logger.Info("cube loaded",
		zap.Int("rows", c.Rows),
		zap.Int("cols", c.Cols),
		zap.Int("layers", len(c.Layers)),
	)

	t0 := time.Now()
	out, err := history.Filter(context.Background(), c, thr, opts)
	if err != nil {
		logger.Fatal("filter failed",
			zap.Error(err),
		)
	}

	if err := atomic.WriteFile(config.Output, bytes.NewReader(cube.MarshalJSON(out))); err != nil {
		logger.Fatal("failed to write output cube",
			zap.String("output", config.Output),
			zap.Error(err),
		)
	}

	logger.Info("done",
		zap.String("output", config.Output),
		zap.String("cells_removed", humanize.Comma(opts.Diag.Removed())),
		zap.Duration("runtime", time.Since(t0)),
	)
}

func parseThreshold(s string) (history.Threshold, error) {
	if s == "iqr" || s == "IQR" {
		return history.IQRThreshold(), nil
	}
	var v float64
	if _, err := fmt.Sscanf(s, "%g", &v); err != nil {
		return history.Threshold{}, fmt.Errorf("threshold must be a number or \"iqr\": %w", err)
	}
	return history.FixedThreshold(v), nil
}

func parseDates(ss []string) ([]time.Time, error) {
	dates := make([]time.Time, len(ss))
	for i, s := range ss {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, err
		}
		dates[i] = t
	}
	return dates, nil
}
