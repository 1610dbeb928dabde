package internal

import (
	"morse-lab/errors"
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"
)

func required() env.EnvSet {
	return env.EnvSet{
		"BUFFER_SIZE":            "256",
		"CONNECTION_BUFFER_SIZE": "64",
		"SINK_TIMEOUT":           "100ms",
		"RESTART_INTERVAL":       "1s",
	}
}

func TestConfig_Defaults(t *testing.T) {
	req := require.New(t)
	var config Config

	req.NoError(env.Unmarshal(required(), &config))

	req.NoError(config.Validate())
	req.Equal(8080, config.Port)
	req.Equal(48000, config.SampleRate)
	req.Equal(12, config.WPMFloor)
	req.Equal(15, config.DefaultWPM)
	req.Equal(100*time.Millisecond, config.SinkTimeout)
	req.Nil(config.ArchiveLimit)
	req.Empty(config.BadgerFilepath)
	req.False(config.SealAccessKeys)
}

func TestConfig_Validate(t *testing.T) {
	cases := map[string]string{
		"SAMPLE_RATE":           "100",
		"DEFAULT_WPM":           "90",
		"ARCHIVE_LIMIT":         "0",
		"AUTH_SECRET":           "short",
		"MORSE_WPM_FLOOR":       "0",
		"CHARACTER_REPLACEMENT": "**",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			req := require.New(t)
			es := required()
			es[key] = value
			var config Config
			req.NoError(env.Unmarshal(es, &config))

			req.ErrorIs(config.Validate(), errors.ErrInvalidConfig)
		})
	}
}

func TestConfig_MissingRequired(t *testing.T) {
	es := required()
	delete(es, "BUFFER_SIZE")
	var config Config
	require.Error(t, env.Unmarshal(es, &config))
}

func TestConfig_Words(t *testing.T) {
	req := require.New(t)
	config := Config{CensoredWords: " lid, ,qrm ,"}
	req.Equal([]string{"lid", "qrm"}, config.Words())
	req.Nil(Config{}.Words())

	r, err := CharacterRune("?")
	req.NoError(err)
	req.Equal('?', r)
}
