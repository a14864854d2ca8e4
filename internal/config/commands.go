package config

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ReplayConfig holds configuration for the replay command.
type ReplayConfig struct {
	Config
	In          string
	Journal     string
	Errors      string
	BatchSize   uint64
	MetricsAddr string
}

// LoadReplay merges config file, environment variables, and flags into ReplayConfig.
func LoadReplay(cfgFile string, flags *pflag.FlagSet) (ReplayConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("journal", "./data/events.jsonl")
		v.SetDefault("errors", "./data/operation_errors.jsonl")
		v.SetDefault("batch-size", uint64(100))
	})
	if err != nil {
		return ReplayConfig{}, err
	}
	base, err := fromViper(v)
	if err != nil {
		return ReplayConfig{}, err
	}
	return ReplayConfig{
		Config:      base,
		In:          v.GetString("in"),
		Journal:     v.GetString("journal"),
		Errors:      v.GetString("errors"),
		BatchSize:   v.GetUint64("batch-size"),
		MetricsAddr: v.GetString("metrics-addr"),
	}, nil
}

// EventsConfig holds configuration for the events command.
type EventsConfig struct {
	Config
	In     string
	Out    string
	Errors string
	From   uint64
}

// LoadEvents merges config file, environment variables, and flags into EventsConfig.
func LoadEvents(cfgFile string, flags *pflag.FlagSet) (EventsConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("out", "./data/typed_events.jsonl")
		v.SetDefault("errors", "./data/decode_errors.jsonl")
	})
	if err != nil {
		return EventsConfig{}, err
	}
	base, err := fromViper(v)
	if err != nil {
		return EventsConfig{}, err
	}
	return EventsConfig{
		Config: base,
		In:     v.GetString("in"),
		Out:    v.GetString("out"),
		Errors: v.GetString("errors"),
		From:   v.GetUint64("from"),
	}, nil
}

// ServeConfig holds configuration for the serve command.
type ServeConfig struct {
	Config
	Addr string
}

// LoadServe merges config file, environment variables, and flags into ServeConfig.
func LoadServe(cfgFile string, flags *pflag.FlagSet) (ServeConfig, error) {
	v, err := newViper(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("addr", ":8080")
	})
	if err != nil {
		return ServeConfig{}, err
	}
	base, err := fromViper(v)
	if err != nil {
		return ServeConfig{}, err
	}
	return ServeConfig{Config: base, Addr: v.GetString("addr")}, nil
}
