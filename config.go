package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/gmllt/kanvan/board"
)

type S3Config struct {
	Endpoint        string `yaml:"endpoint"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	AccessKey       string `yaml:"access_key"`
	SecretKey       string `yaml:"secret_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
	DisableChecksum bool   `yaml:"disable_checksum"`
	Key             string `yaml:"key"`
}

type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// RedisConfig enables the read cache in front of S3 when URL is set.
type RedisConfig struct {
	URL string        `yaml:"url"`
	TTL time.Duration `yaml:"ttl"`
}

type RemoteConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
	Retries uint64        `yaml:"retries"`
}

type BoardConfig struct {
	AppendPolicy string `yaml:"append_policy"`
}

type Config struct {
	Server ServerConfig `yaml:"server"`
	S3     S3Config     `yaml:"s3"`
	Redis  RedisConfig  `yaml:"redis"`
	Remote RemoteConfig `yaml:"remote"`
	Board  BoardConfig  `yaml:"board"`
}

func defaultConfig() Config {
	return Config{
		Server: ServerConfig{Addr: ":3000", AllowedOrigins: []string{"http://localhost:5173"}},
		S3:     S3Config{Region: "us-east-1", Key: "tasks.json"},
		Redis:  RedisConfig{TTL: 5 * time.Minute},
		Remote: RemoteConfig{BaseURL: "http://localhost:3000", Timeout: 10 * time.Second, Retries: 3},
		Board:  BoardConfig{AppendPolicy: "lane"},
	}
}

// loadConfig reads path over the defaults. A missing file is not an error;
// KANVAN_* variables, optionally from a .env file, override file values.
func loadConfig(path string) (*Config, error) {
	cfg := defaultConfig()
	f, err := os.Open(path)
	switch {
	case err == nil:
		defer f.Close()
		dec := yaml.NewDecoder(f)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if _, err := cfg.Board.policy(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	str := map[string]*string{
		"KANVAN_ADDR":          &cfg.Server.Addr,
		"KANVAN_S3_ENDPOINT":   &cfg.S3.Endpoint,
		"KANVAN_S3_BUCKET":     &cfg.S3.Bucket,
		"KANVAN_S3_REGION":     &cfg.S3.Region,
		"KANVAN_S3_ACCESS_KEY": &cfg.S3.AccessKey,
		"KANVAN_S3_SECRET_KEY": &cfg.S3.SecretKey,
		"KANVAN_S3_KEY":        &cfg.S3.Key,
		"KANVAN_REDIS_URL":     &cfg.Redis.URL,
		"KANVAN_REMOTE_URL":    &cfg.Remote.BaseURL,
		"KANVAN_APPEND_POLICY": &cfg.Board.AppendPolicy,
	}
	for k, p := range str {
		if v, ok := os.LookupEnv(k); ok {
			*p = v
		}
	}
	if v, ok := os.LookupEnv("KANVAN_ALLOWED_ORIGINS"); ok {
		cfg.Server.AllowedOrigins = strings.Split(v, ",")
	}
	if v, ok := os.LookupEnv("KANVAN_S3_PATH_STYLE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid KANVAN_S3_PATH_STYLE: %w", err)
		}
		cfg.S3.UsePathStyle = b
	}
	if v, ok := os.LookupEnv("KANVAN_REMOTE_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid KANVAN_REMOTE_TIMEOUT: %q", v)
		}
		cfg.Remote.Timeout = d
	}
	return nil
}

func (b BoardConfig) policy() (board.AppendPolicy, error) {
	switch strings.ToLower(b.AppendPolicy) {
	case "", "lane":
		return board.AppendToLane, nil
	case "end":
		return board.AppendToEnd, nil
	}
	return 0, fmt.Errorf("invalid board.append_policy %q (want lane or end)", b.AppendPolicy)
}
