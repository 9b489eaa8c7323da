package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewDefault()

	assert.Equal(t, 5, cfg.MaxWrapperDepth)
	assert.Equal(t, uint64(10000), cfg.RequestTimeout)
	assert.Equal(t, uint64(5000), cfg.TrackingTimeout)
	assert.Equal(t, uint64(250), cfg.EndTolerance)
	assert.Equal(t, "KEEP", cfg.Macros.UnknownMacroPolicy)
	assert.False(t, cfg.Injection.Enabled)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestOverrides(t *testing.T) {
	v := viper.New()
	SetupViper(v)
	v.Set("max_wrapper_depth", 3)
	v.Set("injection.enabled", true)
	v.Set("injection.impression_urls", []string{"https://pub.example.com/imp"})
	v.Set("macros.custom", map[string]string{"CAMPAIGN": "fall"})

	cfg, err := New(v)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxWrapperDepth)
	assert.True(t, cfg.Injection.Enabled)
	assert.Equal(t, []string{"https://pub.example.com/imp"}, cfg.Injection.ImpressionURLs)
	assert.Equal(t, "fall", cfg.Macros.Custom["CAMPAIGN"])
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(v *viper.Viper)
		msgContain string
	}{
		{
			name:       "wrapper depth",
			mutate:     func(v *viper.Viper) { v.Set("max_wrapper_depth", 0) },
			msgContain: "max_wrapper_depth",
		},
		{
			name:       "request timeout",
			mutate:     func(v *viper.Viper) { v.Set("request_timeout_ms", 0) },
			msgContain: "request_timeout_ms",
		},
		{
			name:       "macro policy",
			mutate:     func(v *viper.Viper) { v.Set("macros.unknown_macro_policy", "EXPLODE") },
			msgContain: "unknown_macro_policy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetupViper(v)
			tt.mutate(v)

			_, err := New(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msgContain)
		})
	}
}
