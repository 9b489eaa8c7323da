package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/barbarian/madman-android/macros"
)

// Configuration carries every tunable of the ad client. Values come from
// viper (file or env) with defaults from SetupViper.
type Configuration struct {
	// MaxWrapperDepth caps VAST wrapper redirect chains.
	MaxWrapperDepth int `mapstructure:"max_wrapper_depth"`
	// RequestTimeout bounds a single manifest or redirect fetch, in ms.
	RequestTimeout uint64 `mapstructure:"request_timeout_ms"`
	// TrackingTimeout bounds a single beacon post, in ms.
	TrackingTimeout uint64 `mapstructure:"tracking_timeout_ms"`
	// UserAgent is sent on every HTTP request.
	UserAgent string `mapstructure:"user_agent"`
	// PreferredBitrate steers media file selection, in kbps. Zero keeps the
	// document's declaration order.
	PreferredBitrate int `mapstructure:"preferred_bitrate_kbps"`
	// EndTolerance treats positions this close to the content duration as
	// "end" for post-roll purposes, in ms.
	EndTolerance uint64 `mapstructure:"end_tolerance_ms"`

	Metrics   Metrics   `mapstructure:"metrics"`
	Macros    Macros    `mapstructure:"macros"`
	Injection Injection `mapstructure:"injection"`
}

type Metrics struct {
	Enabled bool `mapstructure:"enabled"`
}

// Macros configures beacon URL macro expansion.
type Macros struct {
	// UnknownMacroPolicy is "KEEP" or "REMOVE".
	UnknownMacroPolicy string `mapstructure:"unknown_macro_policy"`
	// Custom maps publisher macro names to values, addressed in URLs as
	// [MM-MACRO-<name>].
	Custom map[string]string `mapstructure:"custom"`
}

// Injection configures publisher-side trackers injected into every resolved
// inline ad before playback.
type Injection struct {
	Enabled        bool                `mapstructure:"enabled"`
	ImpressionURLs []string            `mapstructure:"impression_urls"`
	ErrorURLs      []string            `mapstructure:"error_urls"`
	ClickURLs      []string            `mapstructure:"click_urls"`
	TrackingEvents map[string][]string `mapstructure:"tracking_events"`
}

// New uses viper to build and validate the client configuration.
func New(v *viper.Viper) (*Configuration, error) {
	var c Configuration
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("viper failed to unmarshal app config: %v", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (cfg *Configuration) validate() error {
	if cfg.MaxWrapperDepth < 1 {
		return fmt.Errorf("cfg.max_wrapper_depth must be at least 1: %d", cfg.MaxWrapperDepth)
	}
	if cfg.RequestTimeout == 0 {
		return fmt.Errorf("cfg.request_timeout_ms must be positive")
	}
	switch macros.UnknownMacroPolicy(cfg.Macros.UnknownMacroPolicy) {
	case macros.UnknownMacroKeep, macros.UnknownMacroRemove:
	default:
		return fmt.Errorf("cfg.macros.unknown_macro_policy must be KEEP or REMOVE: %q", cfg.Macros.UnknownMacroPolicy)
	}
	return nil
}

// SetupViper sets the default config values and wires environment overrides
// with the MADMAN prefix.
func SetupViper(v *viper.Viper) {
	v.SetDefault("max_wrapper_depth", 5)
	v.SetDefault("request_timeout_ms", 10000)
	v.SetDefault("tracking_timeout_ms", 5000)
	v.SetDefault("user_agent", "madman-android/1.0")
	v.SetDefault("preferred_bitrate_kbps", 0)
	v.SetDefault("end_tolerance_ms", 250)
	v.SetDefault("metrics.enabled", false)
	v.SetDefault("macros.unknown_macro_policy", string(macros.UnknownMacroKeep))
	v.SetDefault("injection.enabled", false)

	v.SetEnvPrefix("MADMAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// NewDefault returns the configuration produced purely from defaults.
func NewDefault() *Configuration {
	v := viper.New()
	SetupViper(v)
	cfg, err := New(v)
	if err != nil {
		// defaults always validate
		panic(err)
	}
	return cfg
}
