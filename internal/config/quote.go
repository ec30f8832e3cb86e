package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// QuoteConfig holds configuration for the offline quote command.
type QuoteConfig struct {
	ReserveIn  string
	ReserveOut string
	FeeBps     uint64
	Amount     string
	ExactOut   bool
	LogLevel   string
}

func LoadQuote(cfgFile string, flags *pflag.FlagSet) (QuoteConfig, error) {
	v, err := load(cfgFile, flags, nil)
	if err != nil {
		return QuoteConfig{}, err
	}

	cfg := QuoteConfig{
		ReserveIn:  v.GetString("reserve-in"),
		ReserveOut: v.GetString("reserve-out"),
		FeeBps:     v.GetUint64("fee-bps"),
		Amount:     v.GetString("amount"),
		ExactOut:   v.GetBool("exact-out"),
		LogLevel:   v.GetString("log-level"),
	}
	if cfg.ReserveIn == "" || cfg.ReserveOut == "" || cfg.Amount == "" {
		return QuoteConfig{}, fmt.Errorf("reserve-in, reserve-out and amount are required")
	}
	return cfg, nil
}

// MirrorConfig holds configuration for the mirror command.
type MirrorConfig struct {
	RPCURL   string
	Pairs    []string
	Block    uint64
	FeeBps   uint64
	Amount   string
	LogLevel string
}

func LoadMirror(cfgFile string, flags *pflag.FlagSet) (MirrorConfig, error) {
	v, err := load(cfgFile, flags, func(v *viper.Viper) {
		v.SetDefault("fee-bps", uint64(30))
	})
	if err != nil {
		return MirrorConfig{}, err
	}

	cfg := MirrorConfig{
		RPCURL:   v.GetString("rpc"),
		Pairs:    getStringSlice(v, "pair"),
		Block:    v.GetUint64("block"),
		FeeBps:   v.GetUint64("fee-bps"),
		Amount:   v.GetString("amount"),
		LogLevel: v.GetString("log-level"),
	}
	if cfg.RPCURL == "" {
		return MirrorConfig{}, fmt.Errorf("rpc is required")
	}
	if len(cfg.Pairs) == 0 {
		return MirrorConfig{}, fmt.Errorf("at least one pair is required")
	}
	return cfg, nil
}
