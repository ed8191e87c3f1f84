package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/antinvestor/momo-api/config"
	"github.com/antinvestor/momo-api/service/collections"
	"github.com/antinvestor/momo-api/service/coreapi"
	"github.com/antinvestor/momo-api/service/disbursements"
	"github.com/antinvestor/momo-api/service/kyc"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/sirupsen/logrus"
)

// app wires the services of one account from the environment.
type app struct {
	cfg      config.MomoConfig
	logger   *logrus.Entry
	tokens   *coreapi.TokenManager
	metrics  *coreapi.Metrics
	registry *prometheus.Registry
	out      io.Writer
}

func newApp(out io.Writer) (*app, error) {
	loadDotEnv()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	logger := log.WithField("service", "momo")

	registry := prometheus.NewRegistry()
	metrics := coreapi.NewMetrics(registry)
	tokens := coreapi.NewTokenManager(cfg, coreapi.WithLogger(logger), coreapi.WithMetrics(metrics))

	return &app{cfg: cfg, logger: logger, tokens: tokens, metrics: metrics, registry: registry, out: out}, nil
}

func (a *app) options() []coreapi.Option {
	return []coreapi.Option{coreapi.WithLogger(a.logger), coreapi.WithMetrics(a.metrics)}
}

func (a *app) collections() *collections.Service {
	return collections.New(a.cfg, a.tokens, a.options()...)
}

func (a *app) invoices() *collections.Invoices {
	return collections.NewInvoices(a.cfg, a.tokens, a.options()...)
}

func (a *app) disbursements() *disbursements.Service {
	return disbursements.New(a.cfg, a.tokens, a.options()...)
}

func (a *app) kyc() *kyc.Service {
	return kyc.New(a.cfg, a.tokens, a.options()...)
}

// print writes v as indented JSON.
func (a *app) print(v any) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, string(payload))
	return err
}

// dumpMetrics writes the provider call metrics of this run in the text exposition format.
func (a *app) dumpMetrics(w io.Writer) error {
	families, err := a.registry.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err = expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}

// loadDotEnv loads the nearest .env file from the working directory upwards. Variables
// already set in the environment win.
func loadDotEnv() {
	dir, err := os.Getwd()
	if err != nil {
		return
	}
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err = os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}
