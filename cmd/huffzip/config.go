package main

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/urfave/cli/v2"

	"github.com/sukesh19/huffman"
)

const (
	defaultLogLevel   = "info"
	defaultTableCodec = "auto"
	defaultCacheSize  = 16
)

// fileConfig mirrors the TOML configuration file. Unset fields keep their
// defaults.
type fileConfig struct {
	LogLevel   string `toml:"log_level"`
	TableCodec string `toml:"table_codec"`
	Checksum   *bool  `toml:"checksum"`
	Workers    int    `toml:"workers"`
	CacheSize  int    `toml:"cache_size"`
}

// settings are the effective options: flags override the config file, which
// overrides the defaults.
type settings struct {
	LogLevel   string
	TableCodec huffman.TableCodec
	Checksum   bool
	Workers    int
	CacheSize  int
}

func (s settings) encoderOptions() []huffman.Option {
	return []huffman.Option{
		huffman.WithTableCodec(s.TableCodec),
		huffman.WithChecksum(s.Checksum),
		huffman.WithWorkers(s.Workers),
	}
}

func loadConfigFile(path string) (fileConfig, error) {
	var cfg fileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("load config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

func loadSettings(ctx *cli.Context) (settings, error) {
	var cfg fileConfig
	if path := ctx.String(ConfigFlag.Name); path != "" {
		var err error
		if cfg, err = loadConfigFile(path); err != nil {
			return settings{}, err
		}
	}

	s := settings{
		LogLevel:  defaultLogLevel,
		Checksum:  true,
		Workers:   runtime.NumCPU(),
		CacheSize: defaultCacheSize,
	}
	codecName := defaultTableCodec

	if cfg.LogLevel != "" {
		s.LogLevel = cfg.LogLevel
	}
	if cfg.TableCodec != "" {
		codecName = cfg.TableCodec
	}
	if cfg.Checksum != nil {
		s.Checksum = *cfg.Checksum
	}
	if cfg.Workers > 0 {
		s.Workers = cfg.Workers
	}
	if cfg.CacheSize > 0 {
		s.CacheSize = cfg.CacheSize
	}

	if ctx.IsSet(VerbosityFlag.Name) {
		s.LogLevel = ctx.String(VerbosityFlag.Name)
	}
	if ctx.IsSet(TableCodecFlag.Name) {
		codecName = ctx.String(TableCodecFlag.Name)
	}
	if ctx.IsSet(ChecksumFlag.Name) {
		s.Checksum = ctx.Bool(ChecksumFlag.Name)
	}
	if ctx.IsSet(WorkersFlag.Name) {
		s.Workers = ctx.Int(WorkersFlag.Name)
	}
	if ctx.IsSet(CacheSizeFlag.Name) {
		s.CacheSize = ctx.Int(CacheSizeFlag.Name)
	}

	codec, err := huffman.ParseTableCodec(codecName)
	if err != nil {
		return settings{}, err
	}
	s.TableCodec = codec
	if s.CacheSize <= 0 {
		return settings{}, fmt.Errorf("cache size must be positive: %d", s.CacheSize)
	}
	return s, nil
}
