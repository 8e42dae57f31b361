// Package config loads the service configuration from defaults, an optional
// JSON file, the environment (including a .env file) and command-line flags,
// in increasing order of priority, and validates the result.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	env "github.com/caarlos0/env/v6"
	validator "github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds every setting of the service.
type Config struct {
	Port                int           `env:"PORT" validate:"min=1,max=65535"`
	LogLevel            string        `env:"LOG_LEVEL" validate:"loglevel"`
	MongoDBURI          string        `env:"MONGODB_URI" validate:"omitempty,mongodburi"`
	MongoDBDatabase     string        `env:"MONGODB_DATABASE" validate:"required"`
	DatabaseDSN         string        `env:"DATABASE_DSN"`
	DBFileName          string        `env:"FILE_STORAGE_PATH" validate:"filepath"`
	DBConnectionTimeout time.Duration `env:"DB_CONNECTION_TIMEOUT" validate:"gt=0"`
	GRPCAddr            string        `env:"GRPC_ADDRESS" validate:"omitempty,hostname_port"`
	KafkaBrokers        []string      `env:"KAFKA_BROKERS" envSeparator:"," validate:"dive,hostname_port"`
	KafkaTopic          string        `env:"KAFKA_TOPIC" validate:"required"`
	EventQueueCapacity  int           `env:"EVENT_QUEUE_CAPACITY" validate:"min=1"`
	EventFlushInterval  time.Duration `env:"EVENT_FLUSH_INTERVAL" validate:"gt=0"`
	CORSAllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," validate:"min=1"`
	ConfigFile          string        `env:"CONFIG"`
}

// jsonConfig is the layout of the optional JSON configuration file.
type jsonConfig struct {
	Port                *int     `json:"port"`
	LogLevel            string   `json:"log_level"`
	MongoDBURI          string   `json:"mongodb_uri"`
	MongoDBDatabase     string   `json:"mongodb_database"`
	DatabaseDSN         string   `json:"database_dsn"`
	DBFileName          string   `json:"file_storage_path"`
	DBConnectionTimeout string   `json:"db_connection_timeout"`
	GRPCAddr            string   `json:"grpc_address"`
	KafkaBrokers        []string `json:"kafka_brokers"`
	KafkaTopic          string   `json:"kafka_topic"`
	EventQueueCapacity  int      `json:"event_queue_capacity"`
	EventFlushInterval  string   `json:"event_flush_interval"`
	CORSAllowedOrigins  []string `json:"cors_allowed_origins"`
}

var defaultConfig = Config{
	Port:                3000,
	LogLevel:            "info",
	MongoDBDatabase:     "test",
	DBConnectionTimeout: 10 * time.Second,
	KafkaTopic:          "user_created",
	EventQueueCapacity:  1000,
	EventFlushInterval:  time.Second,
	CORSAllowedOrigins:  []string{"*"},
}

// RunAddr is the listen address of the HTTP server.
func (c *Config) RunAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

type InitOption func(*initOptions)

type initOptions struct {
	disableFlagsParsing bool
}

// WithDisableFlagsParsing makes New ignore the command line.
func WithDisableFlagsParsing(disableFlagsParsing bool) InitOption {
	return func(options *initOptions) {
		options.disableFlagsParsing = disableFlagsParsing
	}
}

func applyDefaults(values *Config, defaults Config) {
	*values = defaults
	values.CORSAllowedOrigins = append([]string(nil), defaults.CORSAllowedOrigins...)
}

// New builds the configuration. Sources are applied in this order, later
// ones winning: defaults, JSON file, environment, command-line flags.
func New(optionsProto ...InitOption) (*Config, error) {
	options := &initOptions{
		disableFlagsParsing: false,
	}
	for _, protoOption := range optionsProto {
		protoOption(options)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("unable to load .env file: %w", err)
	}

	var fromFlags *Config
	var setFlags map[string]bool
	if !options.disableFlagsParsing {
		var err error
		fromFlags, setFlags, err = parseFlags(os.Args[1:])
		if err != nil {
			return nil, err
		}
	}

	values := &Config{}
	applyDefaults(values, defaultConfig)

	configFile := os.Getenv("CONFIG")
	if setFlags["c"] {
		configFile = fromFlags.ConfigFile
	}
	if configFile != "" {
		if err := values.loadJSON(configFile); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(values); err != nil {
		return nil, err
	}

	if fromFlags != nil {
		values.applyFlags(fromFlags, setFlags)
	}

	values.ConfigFile = configFile

	if err := values.validate(); err != nil {
		return nil, err
	}

	return values, nil
}

func parseFlags(args []string) (*Config, map[string]bool, error) {
	fromFlags := &Config{}
	applyDefaults(fromFlags, defaultConfig)

	flagSet := flag.NewFlagSet("profiles", flag.ContinueOnError)
	flagSet.IntVar(&fromFlags.Port, "p", fromFlags.Port, "port to run the HTTP server on")
	flagSet.StringVar(&fromFlags.LogLevel, "l", fromFlags.LogLevel, "logger level")
	flagSet.StringVar(&fromFlags.MongoDBURI, "m", fromFlags.MongoDBURI, "MongoDB connection URI")
	flagSet.StringVar(&fromFlags.DatabaseDSN, "d", fromFlags.DatabaseDSN, "PostgreSQL connection string")
	flagSet.StringVar(&fromFlags.DBFileName, "f", fromFlags.DBFileName, "JSON file name with database")
	flagSet.StringVar(&fromFlags.GRPCAddr, "g", fromFlags.GRPCAddr, "address of the gRPC server, empty to disable")
	flagSet.StringVar(&fromFlags.ConfigFile, "c", fromFlags.ConfigFile, "path to a JSON configuration file")

	if err := flagSet.Parse(args); err != nil {
		return nil, nil, err
	}

	setFlags := map[string]bool{}
	flagSet.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	return fromFlags, setFlags, nil
}

func (c *Config) applyFlags(fromFlags *Config, setFlags map[string]bool) {
	if setFlags["p"] {
		c.Port = fromFlags.Port
	}
	if setFlags["l"] {
		c.LogLevel = fromFlags.LogLevel
	}
	if setFlags["m"] {
		c.MongoDBURI = fromFlags.MongoDBURI
	}
	if setFlags["d"] {
		c.DatabaseDSN = fromFlags.DatabaseDSN
	}
	if setFlags["f"] {
		c.DBFileName = fromFlags.DBFileName
	}
	if setFlags["g"] {
		c.GRPCAddr = fromFlags.GRPCAddr
	}
}

func (c *Config) loadJSON(fileName string) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		return fmt.Errorf("unable to read the config file: %w", err)
	}

	var fromJSON jsonConfig
	if err := json.Unmarshal(data, &fromJSON); err != nil {
		return fmt.Errorf("unable to parse the config file: %w", err)
	}

	if fromJSON.Port != nil {
		c.Port = *fromJSON.Port
	}
	if fromJSON.LogLevel != "" {
		c.LogLevel = fromJSON.LogLevel
	}
	if fromJSON.MongoDBURI != "" {
		c.MongoDBURI = fromJSON.MongoDBURI
	}
	if fromJSON.MongoDBDatabase != "" {
		c.MongoDBDatabase = fromJSON.MongoDBDatabase
	}
	if fromJSON.DatabaseDSN != "" {
		c.DatabaseDSN = fromJSON.DatabaseDSN
	}
	if fromJSON.DBFileName != "" {
		c.DBFileName = fromJSON.DBFileName
	}
	if fromJSON.DBConnectionTimeout != "" {
		timeout, err := time.ParseDuration(fromJSON.DBConnectionTimeout)
		if err != nil {
			return fmt.Errorf("db_connection_timeout: %w", err)
		}
		c.DBConnectionTimeout = timeout
	}
	if fromJSON.GRPCAddr != "" {
		c.GRPCAddr = fromJSON.GRPCAddr
	}
	if len(fromJSON.KafkaBrokers) > 0 {
		c.KafkaBrokers = fromJSON.KafkaBrokers
	}
	if fromJSON.KafkaTopic != "" {
		c.KafkaTopic = fromJSON.KafkaTopic
	}
	if fromJSON.EventQueueCapacity > 0 {
		c.EventQueueCapacity = fromJSON.EventQueueCapacity
	}
	if fromJSON.EventFlushInterval != "" {
		interval, err := time.ParseDuration(fromJSON.EventFlushInterval)
		if err != nil {
			return fmt.Errorf("event_flush_interval: %w", err)
		}
		c.EventFlushInterval = interval
	}
	if len(fromJSON.CORSAllowedOrigins) > 0 {
		c.CORSAllowedOrigins = fromJSON.CORSAllowedOrigins
	}

	return nil
}

func validateFilePath(fieldLevel validator.FieldLevel) bool {
	path := fieldLevel.Field().String()
	if path == "" {
		return true
	}
	_, err := os.Stat(path)

	return err == nil || os.IsNotExist(err)
}

func validateLogLevel(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	allowedLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
	}

	return allowedLogLevels[value]
}

func validateMongoDBURI(fieldLevel validator.FieldLevel) bool {
	value := fieldLevel.Field().String()

	return strings.HasPrefix(value, "mongodb://") || strings.HasPrefix(value, "mongodb+srv://")
}

func (c *Config) validate() error {
	validate := validator.New()

	customValidations := map[string]validator.Func{
		"loglevel":   validateLogLevel,
		"filepath":   validateFilePath,
		"mongodburi": validateMongoDBURI,
	}
	for tag, fn := range customValidations {
		if err := validate.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}

	return validate.Struct(c)
}
