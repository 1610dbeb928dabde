package internal

import (
	"fmt"
	"morse-lab/errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	LogLevel             string        `env:"LOG_LEVEL,default=INFO" validate:"required"`
	Host                 string        `env:"HOST,default=localhost" validate:"required"`
	Port                 int           `env:"PORT,default=8080" validate:"min=1,max=65535"`
	BufferSize           int           `env:"BUFFER_SIZE,required=true" validate:"min=1"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,required=true" validate:"min=1"`
	SinkTimeout          time.Duration `env:"SINK_TIMEOUT,required=true" validate:"gt=0"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,required=true" validate:"gte=0"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=10s" validate:"gte=0"`
	LowCapacityThreshold int           `env:"LOW_CAPACITY_THRESHOLD,default=10" validate:"min=0,max=100"`
	PingInterval         time.Duration `env:"PING_INTERVAL,default=15s" validate:"gt=0"`

	SampleRate       int `env:"SAMPLE_RATE,default=48000" validate:"min=8000,max=192000"`
	WPMFloor         int `env:"MORSE_WPM_FLOOR,default=12" validate:"min=1"`
	DefaultWPM       int `env:"DEFAULT_WPM,default=15" validate:"min=1,ltefield=MaxWPM"`
	MaxWPM           int `env:"MAX_WPM,default=60" validate:"min=1"`
	MaxContentLength int `env:"MAX_CONTENT_LENGTH,default=256" validate:"min=1"`

	TranscriptLimit int `env:"TRANSCRIPT_LIMIT,default=100" validate:"min=1"`

	// Comma separated, moderation is disabled when empty
	CensoredWords   string `env:"CENSORED_WORDS"`
	CharReplacement string `env:"CHARACTER_REPLACEMENT,default=?"`

	// Archive, disabled when empty
	BadgerFilepath string `env:"BADGER_FILEPATH"`
	ArchiveLimit   *int   `env:"ARCHIVE_LIMIT" validate:"omitempty,min=1"`

	// Access keys are kept verbatim unless sealing is on
	SealAccessKeys bool `env:"SEAL_ACCESS_KEYS,default=false"`

	// Tokens, disabled when empty
	AuthSecret        string        `env:"AUTH_SECRET" validate:"omitempty,min=16"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h" validate:"gt=0"`
}

var validate = validator.New()

// Validate checks the ranges the environment can't express.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidConfig, err)
	}
	_, err := CharacterRune(c.CharReplacement)
	return err
}

// Words splits CENSORED_WORDS, dropping blanks.
func (c Config) Words() []string {
	var words []string
	for _, w := range strings.Split(c.CensoredWords, ",") {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, w)
		}
	}
	return words
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"%w: CHARACTER_REPLACEMENT must be a single character, got %q",
			errors.ErrInvalidConfig, str,
		)
	}
	return r[0], nil
}
