package main

import (
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const appID = "stockly"

const (
	storeMySQL  = "mysql"
	storeMemory = "memory"

	stockModelProduct = "product"
	stockModelBatch   = "batch"
)

type config struct {
	ServeRESTAddress string `envconfig:"serve_rest_address" default:":8080"`
	ServeGRPCAddress string `envconfig:"serve_grpc_address" default:":8081"`
	Store            string `envconfig:"store" default:"mysql"`
	StockModel       string `envconfig:"stock_model" default:"batch"`
	DatabaseDSN      string `envconfig:"database_dsn" default:"stockly:stockly@tcp(localhost:3306)/stockly"`
	MemorySnapshot   string `envconfig:"memory_snapshot"`
	LogLevel         string `envconfig:"log_level" default:"info"`
	Location         string `envconfig:"location" default:"Local"`
}

func parseEnv() (*config, error) {
	c := new(config)
	if err := envconfig.Process(appID, c); err != nil {
		return nil, errors.Wrap(err, "failed to parse env")
	}
	if c.Store != storeMySQL && c.Store != storeMemory {
		return nil, errors.Errorf("unknown store %q, want %s or %s", c.Store, storeMySQL, storeMemory)
	}
	if c.StockModel != stockModelProduct && c.StockModel != stockModelBatch {
		return nil, errors.Errorf("unknown stock model %q, want %s or %s", c.StockModel, stockModelProduct, stockModelBatch)
	}
	return c, nil
}

func (c *config) location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Location)
	return loc, errors.Wrapf(err, "failed to load location %s", c.Location)
}

func setupLogger(c *config) error {
	log.SetFormatter(&log.JSONFormatter{})
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return errors.Wrap(err, "failed to parse log level")
	}
	log.SetLevel(level)
	return nil
}
