// Package config loads rtsa settings from an optional YAML file, a .env
// file and RTSA_* environment variables, in increasing precedence.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/thesyncim/rtsa"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "RTSA_"

// Config holds everything needed to initialize a session and join.
type Config struct {
	AppID       string `yaml:"app_id" env:"APP_ID"`
	LogLevel    string `yaml:"log_level" env:"LOG_LEVEL"`
	LogPretty   bool   `yaml:"log_pretty" env:"LOG_PRETTY"`
	MetricsAddr string `yaml:"metrics_addr" env:"METRICS_ADDR"`

	Service ServiceConfig `yaml:"service" envPrefix:"SERVICE_"`
	Channel ChannelConfig `yaml:"channel" envPrefix:"CHANNEL_"`
	Video   VideoConfig   `yaml:"video" envPrefix:"VIDEO_"`
}

// ServiceConfig maps onto rtsa.ServiceOptions.
type ServiceConfig struct {
	Area               string `yaml:"area" env:"AREA"`
	ProductID          string `yaml:"product_id" env:"PRODUCT_ID"`
	License            string `yaml:"license" env:"LICENSE"`
	SDKLogDisable      bool   `yaml:"sdk_log_disable" env:"SDK_LOG_DISABLE"`
	DisableDesensitize bool   `yaml:"disable_desensitize" env:"DISABLE_DESENSITIZE"`
	SDKLogLevel        string `yaml:"sdk_log_level" env:"SDK_LOG_LEVEL"`
	SDKLogPath         string `yaml:"sdk_log_path" env:"SDK_LOG_PATH"`
}

// ChannelConfig maps onto the JoinChannel arguments.
type ChannelConfig struct {
	Name               string `yaml:"name" env:"NAME"`
	UID                uint32 `yaml:"uid" env:"UID"`
	Token              string `yaml:"token" env:"TOKEN"`
	AutoSubscribeAudio bool   `yaml:"auto_subscribe_audio" env:"AUTO_SUBSCRIBE_AUDIO"`
	AutoSubscribeVideo bool   `yaml:"auto_subscribe_video" env:"AUTO_SUBSCRIBE_VIDEO"`
	SubscribeLocalUser bool   `yaml:"subscribe_local_user" env:"SUBSCRIBE_LOCAL_USER"`
	AudioJitterBuffer  bool   `yaml:"audio_jitter_buffer" env:"AUDIO_JITTER_BUFFER"`
	AudioMixer         bool   `yaml:"audio_mixer" env:"AUDIO_MIXER"`
	AudioCodec         string `yaml:"audio_codec" env:"AUDIO_CODEC"`
	PCMSampleRate      int    `yaml:"pcm_sample_rate" env:"PCM_SAMPLE_RATE"`
	PCMChannels        int    `yaml:"pcm_channels" env:"PCM_CHANNELS"`
	Encryption         bool   `yaml:"encryption" env:"ENCRYPTION"`
}

// VideoConfig maps onto the default rtsa.VideoFrameInfo.
type VideoConfig struct {
	FrameRate int    `yaml:"frame_rate" env:"FRAME_RATE"`
	Stream    string `yaml:"stream" env:"STREAM"`
}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Service: ServiceConfig{
			Area:               "default",
			DisableDesensitize: true,
			SDKLogLevel:        "notice",
		},
		Channel: ChannelConfig{
			AudioCodec:    "disabled",
			PCMSampleRate: 16000,
			PCMChannels:   1,
		},
		Video: VideoConfig{
			FrameRate: 30,
			Stream:    "high",
		},
	}
}

// Load reads .env files, then path (if non-empty), then the environment,
// and validates the result.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate checks required fields and that every enumerated value parses.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AppID) == "" {
		return fmt.Errorf("%sAPP_ID is required", EnvPrefix)
	}
	if _, err := c.ServiceOptions(); err != nil {
		return err
	}
	if _, err := c.ChannelOptions(); err != nil {
		return err
	}
	if _, err := c.VideoInfo(); err != nil {
		return err
	}
	return nil
}

// ServiceOptions converts the service section.
func (c *Config) ServiceOptions() (rtsa.ServiceOptions, error) {
	area, err := rtsa.ParseAreaCode(c.Service.Area)
	if err != nil {
		return rtsa.ServiceOptions{}, fmt.Errorf("service.area: %w", err)
	}
	level, err := rtsa.ParseLogLevel(c.Service.SDKLogLevel)
	if err != nil {
		return rtsa.ServiceOptions{}, fmt.Errorf("service.sdk_log_level: %w", err)
	}
	if len(c.Service.ProductID) > 63 {
		return rtsa.ServiceOptions{}, fmt.Errorf("service.product_id: longer than 63 bytes")
	}
	if len(c.Service.License) > 32 {
		return rtsa.ServiceOptions{}, fmt.Errorf("service.license: longer than 32 bytes")
	}

	opts := rtsa.ServiceOptions{
		AreaCode: area,
		Log: rtsa.LogConfig{
			Disable:            c.Service.SDKLogDisable,
			DisableDesensitize: c.Service.DisableDesensitize,
			Level:              level,
			Path:               c.Service.SDKLogPath,
		},
	}
	if c.Service.ProductID != "" {
		opts.ProductID = []byte(c.Service.ProductID)
	}
	if c.Service.License != "" {
		opts.License = []byte(c.Service.License)
	}
	return opts, nil
}

// ChannelOptions converts the channel section.
func (c *Config) ChannelOptions() (rtsa.ChannelOptions, error) {
	codec, err := rtsa.ParseAudioCodecType(c.Channel.AudioCodec)
	if err != nil {
		return rtsa.ChannelOptions{}, fmt.Errorf("channel.audio_codec: %w", err)
	}
	return rtsa.ChannelOptions{
		AutoSubscribeAudio:      c.Channel.AutoSubscribeAudio,
		AutoSubscribeVideo:      c.Channel.AutoSubscribeVideo,
		SubscribeLocalUser:      c.Channel.SubscribeLocalUser,
		EnableAudioJitterBuffer: c.Channel.AudioJitterBuffer,
		EnableAudioMixer:        c.Channel.AudioMixer,
		AudioCodec: rtsa.AudioCodecOptions{
			Codec:         codec,
			PCMSampleRate: c.Channel.PCMSampleRate,
			PCMChannels:   c.Channel.PCMChannels,
		},
		EnableEncryption: c.Channel.Encryption,
	}, nil
}

// VideoInfo returns H.264 frame info with an automatic frame type, for use
// as a session default.
func (c *Config) VideoInfo() (rtsa.VideoFrameInfo, error) {
	rate, err := rtsa.ParseVideoFrameRate(c.Video.FrameRate)
	if err != nil {
		return rtsa.VideoFrameInfo{}, fmt.Errorf("video.frame_rate: %w", err)
	}
	stream, err := rtsa.ParseVideoStreamQuality(c.Video.Stream)
	if err != nil {
		return rtsa.VideoFrameInfo{}, fmt.Errorf("video.stream: %w", err)
	}
	info := rtsa.H264FrameInfo(rtsa.VideoFrameTypeAuto, rate)
	info.Stream = stream
	return info, nil
}
