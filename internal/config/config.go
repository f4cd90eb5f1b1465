package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"

	"github.com/openledger/generator/internal/domain"
	"github.com/openledger/generator/internal/generator"
)

const EnvPrefix = "OPENLEDGER"

const (
	EnvLogLevel  = "OPENLEDGER_LOG_LEVEL"
	EnvLogFormat = "OPENLEDGER_LOG_FORMAT"
	EnvSeed      = "OPENLEDGER_SEED"
	EnvStartDate = "OPENLEDGER_START_DATE"
	EnvDays      = "OPENLEDGER_DAYS"
	EnvWorkers   = "OPENLEDGER_WORKERS"
	EnvOutputDir = "OPENLEDGER_OUTPUT_DIR"
	EnvDBPath    = "OPENLEDGER_DB_PATH"
	EnvPort      = "OPENLEDGER_PORT"
)

type Config struct {
	App       AppConfig
	Generator GeneratorConfig
	Defects   DefectConfig
	Warehouse WarehouseConfig
	Server    ServerConfig
}

// Load reads the configuration from the environment. Callers load any
// .env file beforehand.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if _, err := cfg.Generator.Start(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	LogLevel     string `envconfig:"OPENLEDGER_LOG_LEVEL" default:"info"`
	LogFormat    string `envconfig:"OPENLEDGER_LOG_FORMAT" default:"json"`
	LogWarnStack bool   `envconfig:"OPENLEDGER_LOG_WARN_STACK" default:"false"`
}

type GeneratorConfig struct {
	Seed      int64  `envconfig:"OPENLEDGER_SEED" default:"42"`
	Users     int    `envconfig:"OPENLEDGER_USERS" default:"100"`
	Merchants int    `envconfig:"OPENLEDGER_MERCHANTS" default:"20"`
	StartDate string `envconfig:"OPENLEDGER_START_DATE" default:"2025-01-01"`
	Days      int    `envconfig:"OPENLEDGER_DAYS" default:"30"`
	Workers   int    `envconfig:"OPENLEDGER_WORKERS" default:"4"`
	OutputDir string `envconfig:"OPENLEDGER_OUTPUT_DIR" default:"data/raw"`

	WeekdayMin int `envconfig:"OPENLEDGER_WEEKDAY_MIN" default:"100"`
	WeekdayMax int `envconfig:"OPENLEDGER_WEEKDAY_MAX" default:"150"`
	WeekendMin int `envconfig:"OPENLEDGER_WEEKEND_MIN" default:"50"`
	WeekendMax int `envconfig:"OPENLEDGER_WEEKEND_MAX" default:"80"`

	MinAmount string `envconfig:"OPENLEDGER_MIN_AMOUNT" default:"5.00"`
	MaxAmount string `envconfig:"OPENLEDGER_MAX_AMOUNT" default:"500.00"`
	Currency  string `envconfig:"OPENLEDGER_CURRENCY" default:"CAD"`
}

// Start parses StartDate as a UTC calendar date.
func (g GeneratorConfig) Start() (time.Time, error) {
	t, err := time.ParseInLocation(domain.DateLayout, g.StartDate, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s %q: %w", EnvStartDate, g.StartDate, err)
	}
	return t, nil
}

type DefectConfig struct {
	MissingAmount     float64 `envconfig:"OPENLEDGER_DEFECT_MISSING_AMOUNT" default:"0.02"`
	MissingUser       float64 `envconfig:"OPENLEDGER_DEFECT_MISSING_USER" default:"0.02"`
	NegativeAmount    float64 `envconfig:"OPENLEDGER_DEFECT_NEGATIVE_AMOUNT" default:"0.01"`
	FutureDate        float64 `envconfig:"OPENLEDGER_DEFECT_FUTURE_DATE" default:"0.01"`
	MalformedCurrency float64 `envconfig:"OPENLEDGER_DEFECT_MALFORMED_CURRENCY" default:"0.01"`
	PaddedMerchant    float64 `envconfig:"OPENLEDGER_DEFECT_PADDED_MERCHANT" default:"0.01"`
	Duplicate         float64 `envconfig:"OPENLEDGER_DEFECT_DUPLICATE" default:"0.02"`

	AmountMismatch float64 `envconfig:"OPENLEDGER_DEFECT_AMOUNT_MISMATCH" default:"0.02"`
	Failed         float64 `envconfig:"OPENLEDGER_DEFECT_FAILED" default:"0.01"`
	Dropped        float64 `envconfig:"OPENLEDGER_DEFECT_DROPPED" default:"0.01"`
	Orphan         float64 `envconfig:"OPENLEDGER_DEFECT_ORPHAN" default:"0.01"`
}

type WarehouseConfig struct {
	DBPath string `envconfig:"OPENLEDGER_DB_PATH" default:"openledger.db"`
}

type ServerConfig struct {
	Port string `envconfig:"OPENLEDGER_PORT" default:"8080"`
}

// Params builds generator parameters. Fee and settlement offset settings
// keep their defaults.
func (c *Config) Params() (generator.Params, error) {
	g := c.Generator
	start, err := g.Start()
	if err != nil {
		return generator.Params{}, err
	}
	minAmount, err := decimal.NewFromString(g.MinAmount)
	if err != nil {
		return generator.Params{}, fmt.Errorf("invalid min amount %q: %w", g.MinAmount, err)
	}
	maxAmount, err := decimal.NewFromString(g.MaxAmount)
	if err != nil {
		return generator.Params{}, fmt.Errorf("invalid max amount %q: %w", g.MaxAmount, err)
	}

	p := generator.DefaultParams()
	p.Seed = g.Seed
	p.Users = g.Users
	p.Merchants = g.Merchants
	p.Start = start
	p.Days = g.Days
	p.Workers = g.Workers

	p.Transactions.Volume = generator.VolumePolicy{
		WeekdayMin: g.WeekdayMin,
		WeekdayMax: g.WeekdayMax,
		WeekendMin: g.WeekendMin,
		WeekendMax: g.WeekendMax,
	}
	p.Transactions.MinAmount = minAmount
	p.Transactions.MaxAmount = maxAmount
	p.Transactions.Currency = g.Currency

	d := c.Defects
	p.Transactions.Defects = generator.TransactionDefectRates{
		MissingAmount:     d.MissingAmount,
		MissingUser:       d.MissingUser,
		NegativeAmount:    d.NegativeAmount,
		FutureDate:        d.FutureDate,
		MalformedCurrency: d.MalformedCurrency,
		PaddedMerchant:    d.PaddedMerchant,
		Duplicate:         d.Duplicate,
	}
	p.Settlements.Defects = generator.SettlementDefectRates{
		AmountMismatch: d.AmountMismatch,
		Failed:         d.Failed,
		Dropped:        d.Dropped,
		Orphan:         d.Orphan,
	}
	return p, nil
}
