// Package config reads sessions and buffers configuration from files
// and environment.
package config

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"pipelined.dev/hwstream"
	"pipelined.dev/hwstream/decode"
	"pipelined.dev/hwstream/hardware"
	"pipelined.dev/hwstream/hwbuffer"
)

// EnvPrefix prefixes environment variables that override configuration
// keys, e.g. HWSTREAM_PERIOD.
const EnvPrefix = "HWSTREAM"

const defaultPeriod = 100 * time.Millisecond

// Config describes hardware channels of one session.
type Config struct {
	// Period of driver loops.
	Period time.Duration `mapstructure:"period"`
	// Channels by logical name.
	Channels map[string]Channel `mapstructure:"channels"`
}

// Channel maps logical channel to hardware tag and describes its buffer.
type Channel struct {
	Tag        string `mapstructure:"tag"`
	BlockCount int    `mapstructure:"blockcount"`
	Overflow   string `mapstructure:"overflow"`
	Format     Format `mapstructure:"format"`
}

// Format is a textual form of decode.Format.
type Format struct {
	Channels    int     `mapstructure:"channels"`
	Word        string  `mapstructure:"word"`
	Compression string  `mapstructure:"compression"`
	NarrowWidth int     `mapstructure:"narrowwidth"`
	Scale       float64 `mapstructure:"scale"`
	ReadMode    string  `mapstructure:"readmode"`
	SampleRate  float64 `mapstructure:"samplerate"`
}

// Load reads configuration file. File type is defined by extension.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return unmarshal(v)
}

// Read reads configuration of configType, e.g. "yaml", from r.
func Read(r io.Reader, configType string) (*Config, error) {
	v := newViper()
	v.SetConfigType(configType)
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return unmarshal(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetDefault("period", defaultPeriod)
	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("%w: %v", hwstream.ErrConfig, err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks every channel.
func (c *Config) Validate() error {
	if c.Period <= 0 {
		return fmt.Errorf("%w: period %v", hwstream.ErrConfig, c.Period)
	}
	for _, name := range c.Names() {
		if _, _, err := c.Channels[name].buffer(); err != nil {
			return fmt.Errorf("channel %q: %w", name, err)
		}
	}
	return nil
}

// Names returns sorted channel names.
func (c *Config) Names() []string {
	names := make([]string, 0, len(c.Channels))
	for name := range c.Channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open opens a session with all configured channels.
func (c *Config) Open(device hardware.Device) (*hardware.Session, error) {
	options := make([]hardware.Option, 0, len(c.Channels))
	for _, name := range c.Names() {
		options = append(options, hardware.WithChannel(name, c.Channels[name].Tag))
	}
	return hardware.Open(device, options...)
}

// Buffers returns an initialized buffer for every configured channel.
// Options are applied after the configured ones.
func (c *Config) Buffers(s *hardware.Session, options ...hwbuffer.Option) (map[string]*hwbuffer.Buffer, error) {
	buffers := make(map[string]*hwbuffer.Buffer, len(c.Channels))
	for _, name := range c.Names() {
		format, configured, err := c.Channels[name].buffer()
		if err != nil {
			return nil, fmt.Errorf("channel %q: %w", name, err)
		}
		ch, err := s.Channel(name)
		if err != nil {
			return nil, err
		}
		b := hwbuffer.New(name, ch, append(configured, options...)...)
		if err := b.Initialize(format); err != nil {
			return nil, fmt.Errorf("channel %q: %w", name, err)
		}
		buffers[name] = b
	}
	return buffers, nil
}

func (c Channel) buffer() (decode.Format, []hwbuffer.Option, error) {
	if c.Tag == "" {
		return decode.Format{}, nil, fmt.Errorf("%w: empty tag", hwstream.ErrConfig)
	}
	if c.BlockCount < 0 {
		return decode.Format{}, nil, fmt.Errorf("%w: block count %d", hwstream.ErrConfig, c.BlockCount)
	}
	overflow, err := hwbuffer.ParseOverflowPolicy(c.Overflow)
	if err != nil {
		return decode.Format{}, nil, err
	}
	f, err := c.Format.Decode()
	if err != nil {
		return decode.Format{}, nil, err
	}
	options := []hwbuffer.Option{hwbuffer.WithOverflow(overflow)}
	if c.BlockCount > 0 {
		options = append(options, hwbuffer.WithBlockCount(c.BlockCount))
	}
	return f, options, nil
}

// Decode converts textual format. Empty names mean defaults: int32
// words, no compression and continuous reads.
func (f Format) Decode() (decode.Format, error) {
	result := decode.Format{
		Channels:    f.Channels,
		Word:        decode.Int32,
		NarrowWidth: f.NarrowWidth,
		Scale:       f.Scale,
		SampleRate:  f.SampleRate,
	}
	var err error
	if f.Word != "" {
		if result.Word, err = decode.ParseWord(f.Word); err != nil {
			return result, err
		}
	}
	if f.Compression != "" {
		if result.Compression, err = decode.ParseCompression(f.Compression); err != nil {
			return result, err
		}
	}
	if f.ReadMode != "" {
		if result.ReadMode, err = decode.ParseReadMode(f.ReadMode); err != nil {
			return result, err
		}
	}
	return result, result.Validate()
}
