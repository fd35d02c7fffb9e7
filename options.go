package rtsa

// LogConfig controls the SDK's own log output.
type LogConfig struct {
	Disable            bool     // Turn SDK logging off entirely
	DisableDesensitize bool     // Log identifiers unredacted
	Level              LogLevel // Severity threshold
	Path               string   // Log directory; empty uses the SDK default
}

// ServiceOptions is handed to the SDK once at initialization. The SDK may
// keep a reference for the lifetime of the process, so the session retains
// the marshaled copy until Deinitialize.
type ServiceOptions struct {
	AreaCode  AreaCode
	ProductID []byte // At most 63 bytes, zero padded
	Log       LogConfig
	License   []byte // At most 32 bytes, zero padded
}

// DefaultServiceOptions returns options for the default area with notice
// level logging to the SDK's default location.
func DefaultServiceOptions() ServiceOptions {
	return ServiceOptions{
		AreaCode: AreaCodeDefault,
		Log: LogConfig{
			DisableDesensitize: true,
			Level:              LogLevelNotice,
		},
	}
}

// AudioCodecOptions configures the SDK's built-in audio encoder.
// Sample rate and channel count are ignored when the codec is disabled.
type AudioCodecOptions struct {
	Codec         AudioCodecType
	PCMSampleRate int
	PCMChannels   int
}

// ChannelOptions are supplied fresh on every join and not retained.
type ChannelOptions struct {
	AutoSubscribeAudio      bool
	AutoSubscribeVideo      bool
	SubscribeLocalUser      bool
	EnableAudioJitterBuffer bool
	EnableAudioMixer        bool
	AudioCodec              AudioCodecOptions
	EnableEncryption        bool
}

// DefaultChannelOptions subscribes to nothing and disables audio encoding.
func DefaultChannelOptions() ChannelOptions {
	return ChannelOptions{
		AudioCodec: AudioCodecOptions{Codec: AudioCodecDisabled},
	}
}

// VideoFrameInfo is the per-frame metadata sent alongside video data.
type VideoFrameInfo struct {
	DataType  VideoDataType
	FrameType VideoFrameType
	FrameRate VideoFrameRate
	Stream    VideoStreamQuality
}

// H264FrameInfo returns frame info for an H.264 frame of the given type.
func H264FrameInfo(frameType VideoFrameType, rate VideoFrameRate) VideoFrameInfo {
	return VideoFrameInfo{
		DataType:  VideoDataTypeH264,
		FrameType: frameType,
		FrameRate: rate,
		Stream:    VideoStreamHigh,
	}
}

// AudioFrameInfo describes an inbound audio frame.
type AudioFrameInfo struct {
	DataType AudioDataType
}
