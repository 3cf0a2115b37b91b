package config

import (
	"os"

	"github.com/jsphweid/bmsdex/chart"
	"github.com/jsphweid/bmsdex/constants"
	"github.com/jsphweid/bmsdex/replay"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	DriverSQLite = "sqlite"
	DriverDynamo = "dynamodb"
)

type SongDB struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"`
	Table    string `yaml:"table"`
	Endpoint string `yaml:"endpoint"`
	Region   string `yaml:"region"`
}

type Server struct {
	Addr        string   `yaml:"addr"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type Config struct {
	Thresholds replay.Thresholds `yaml:"thresholds"`
	SongDB     SongDB            `yaml:"songdb"`
	ChartRoot  string            `yaml:"chart_root"`
	Encoding   string            `yaml:"encoding"`
	Workers    int               `yaml:"workers"`
	Server     Server            `yaml:"server"`
}

func Default() Config {
	return Config{
		Thresholds: replay.Thresholds{
			Key:     constants.KeyThresholdMS,
			Scratch: constants.ScratchThresholdMS,
		},
		SongDB: SongDB{
			Driver:   DriverSQLite,
			Path:     constants.GetSongDBPath(),
			Table:    constants.DynamoTable,
			Endpoint: constants.GetDynamoEndpoint(),
			Region:   constants.DynamoRegion,
		},
		ChartRoot: constants.GetChartRoot(),
		Encoding:  string(chart.EncodingAuto),
		Workers:   constants.DefaultWorkers,
		Server: Server{
			Addr:        constants.GetServeAddr(),
			CORSOrigins: []string{"*"},
		},
	}
}

// Load reads a YAML config over the defaults. A missing file leaves the
// defaults alone. Environment variables win over both.
func Load(filename string) (Config, error) {
	config := Default()
	if filename != "" {
		data, err := os.ReadFile(filename)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return config, errors.Wrapf(err, "reading config %s", filename)
		default:
			if err := yaml.Unmarshal(data, &config); err != nil {
				return config, errors.Wrapf(err, "parsing config %s", filename)
			}
		}
	}
	config.applyEnv()
	return config, config.Validate()
}

func (c *Config) applyEnv() {
	if v := os.Getenv("BMSDEX_SONGDB"); v != "" {
		c.SongDB.Path = v
	}
	if v := os.Getenv("BMSDEX_CHART_ROOT"); v != "" {
		c.ChartRoot = v
	}
	if v := os.Getenv("BMSDEX_DYNAMO_ENDPOINT"); v != "" {
		c.SongDB.Endpoint = v
	}
	if v := os.Getenv("BMSDEX_ADDR"); v != "" {
		c.Server.Addr = v
	}
}

func (c Config) Validate() error {
	if c.Thresholds.Key <= 0 || c.Thresholds.Scratch <= 0 {
		return errors.New("thresholds must be positive")
	}
	switch c.SongDB.Driver {
	case DriverSQLite, DriverDynamo:
	default:
		return errors.Errorf("unknown song db driver %q", c.SongDB.Driver)
	}
	if c.Workers < 1 {
		return errors.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if _, err := chart.ParseEncoding(c.Encoding); err != nil {
		return err
	}
	return nil
}

// ChartEncoding is the validated encoding setting.
func (c Config) ChartEncoding() chart.Encoding {
	enc, err := chart.ParseEncoding(c.Encoding)
	if err != nil {
		return chart.EncodingAuto
	}
	return enc
}
