package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "AMMSCOPE"

// newViper merges defaults, environment, flags and an optional config file.
// Without cfgFile a ./config.* file is read when present.
func newViper(cfgFile string, flags *pflag.FlagSet, defaults map[string]any) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	return v, nil
}

func getUint16(v *viper.Viper, key string) (uint16, error) {
	raw := v.GetUint64(key)
	if raw > 0xffff {
		return 0, fmt.Errorf("%s out of range: %d", key, raw)
	}
	return uint16(raw), nil
}

func getStringSlice(v *viper.Viper, key string) []string {
	if !v.IsSet(key) {
		return nil
	}

	val := v.Get(key)
	switch typed := val.(type) {
	case []string:
		return cleanStrings(typed)
	case string:
		return splitAndClean(typed)
	case []interface{}:
		items := make([]string, 0, len(typed))
		for _, item := range typed {
			items = append(items, fmt.Sprintf("%v", item))
		}
		return cleanStrings(items)
	default:
		return nil
	}
}

func splitAndClean(input string) []string {
	if input == "" {
		return nil
	}
	parts := strings.Split(input, ",")
	return cleanStrings(parts)
}

func cleanStrings(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		out = append(out, item)
	}
	return out
}

// PoolEntry is one configured pool.
type PoolEntry struct {
	Name   string
	FeeBps uint16
}

// ParsePools reads "name:fee_bps" entries. A bare name takes defaultFee.
func ParsePools(entries []string, defaultFee uint16) ([]PoolEntry, error) {
	pools := make([]PoolEntry, 0, len(entries))
	for _, entry := range entries {
		name, feeText, hasFee := strings.Cut(entry, ":")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("invalid pool entry %q", entry)
		}
		fee := defaultFee
		if hasFee {
			parsed, err := strconv.ParseUint(strings.TrimSpace(feeText), 10, 16)
			if err != nil {
				return nil, fmt.Errorf("invalid fee in pool entry %q: %w", entry, err)
			}
			fee = uint16(parsed)
		}
		pools = append(pools, PoolEntry{Name: name, FeeBps: fee})
	}
	return pools, nil
}
