package rtsa

import "fmt"

// AreaCode selects the geographic region the SDK connects through.
// Values are bit flags and may be combined.
type AreaCode uint32

const (
	AreaCodeDefault AreaCode = 0x00000000
	AreaCodeCN      AreaCode = 0x00000001 // Mainland China
	AreaCodeNA      AreaCode = 0x00000002 // North America
	AreaCodeEU      AreaCode = 0x00000004 // Europe
	AreaCodeAS      AreaCode = 0x00000008 // Asia, excluding Mainland China
	AreaCodeJP      AreaCode = 0x00000010 // Japan
	AreaCodeIN      AreaCode = 0x00000020 // India
	AreaCodeOC      AreaCode = 0x00000040 // Oceania
	AreaCodeSA      AreaCode = 0x00000080 // South America
	AreaCodeAF      AreaCode = 0x00000100 // Africa
	AreaCodeKR      AreaCode = 0x00000200 // South Korea
	AreaCodeOVS     AreaCode = 0xFFFFFFFE // Everywhere except Mainland China
	AreaCodeGlobal  AreaCode = 0xFFFFFFFF
)

var areaCodeNames = []struct {
	code AreaCode
	name string
}{
	{AreaCodeCN, "cn"},
	{AreaCodeNA, "na"},
	{AreaCodeEU, "eu"},
	{AreaCodeAS, "as"},
	{AreaCodeJP, "jp"},
	{AreaCodeIN, "in"},
	{AreaCodeOC, "oc"},
	{AreaCodeSA, "sa"},
	{AreaCodeAF, "af"},
	{AreaCodeKR, "kr"},
}

func (a AreaCode) String() string {
	switch a {
	case AreaCodeDefault:
		return "default"
	case AreaCodeOVS:
		return "ovs"
	case AreaCodeGlobal:
		return "global"
	}
	s := ""
	rest := a
	for _, n := range areaCodeNames {
		if a&n.code == n.code {
			if s != "" {
				s += "|"
			}
			s += n.name
			rest &^= n.code
		}
	}
	if rest != 0 || s == "" {
		return fmt.Sprintf("area(0x%08x)", uint32(a))
	}
	return s
}

// ParseAreaCode parses a region name ("default", "global", "ovs" or a
// "|"-separated list such as "na|eu").
func ParseAreaCode(s string) (AreaCode, error) {
	switch s {
	case "", "default":
		return AreaCodeDefault, nil
	case "ovs":
		return AreaCodeOVS, nil
	case "global", "glob":
		return AreaCodeGlobal, nil
	}
	var code AreaCode
	start := 0
	for i := 0; i <= len(s); i++ {
		if i < len(s) && s[i] != '|' {
			continue
		}
		part := s[start:i]
		start = i + 1
		found := false
		for _, n := range areaCodeNames {
			if n.name == part {
				code |= n.code
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown area code %q", part)
		}
	}
	return code, nil
}

// LogLevel is the SDK log severity, ordered from most to least severe.
type LogLevel uint32

const (
	LogLevelDefault LogLevel = iota // Same as LogLevelNotice
	LogLevelEmergency
	LogLevelAlert
	LogLevelCritical
	LogLevelError
	LogLevelWarning
	LogLevelNotice
	LogLevelInfo
	LogLevelDebug
)

var logLevelNames = [...]string{
	LogLevelDefault:   "default",
	LogLevelEmergency: "emergency",
	LogLevelAlert:     "alert",
	LogLevelCritical:  "critical",
	LogLevelError:     "error",
	LogLevelWarning:   "warning",
	LogLevelNotice:    "notice",
	LogLevelInfo:      "info",
	LogLevelDebug:     "debug",
}

func (l LogLevel) String() string {
	if int(l) < len(logLevelNames) {
		return logLevelNames[l]
	}
	return "unknown"
}

func (l LogLevel) valid() bool { return l <= LogLevelDebug }

// ParseLogLevel parses a level name as returned by LogLevel.String.
func ParseLogLevel(s string) (LogLevel, error) {
	for i, n := range logLevelNames {
		if n == s {
			return LogLevel(i), nil
		}
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// VideoDataType identifies the payload format passed to SendVideoData.
type VideoDataType uint32

const (
	VideoDataTypeYUV420      VideoDataType = 0
	VideoDataTypeH264        VideoDataType = 2
	VideoDataTypeH265        VideoDataType = 3
	VideoDataTypeGeneric     VideoDataType = 6
	VideoDataTypeGenericJPEG VideoDataType = 20
)

func (t VideoDataType) String() string {
	switch t {
	case VideoDataTypeYUV420:
		return "yuv420"
	case VideoDataTypeH264:
		return "h264"
	case VideoDataTypeH265:
		return "h265"
	case VideoDataTypeGeneric:
		return "generic"
	case VideoDataTypeGenericJPEG:
		return "generic-jpeg"
	default:
		return "unknown"
	}
}

func (t VideoDataType) valid() bool { return t.String() != "unknown" }

// VideoFrameType marks a frame as key or delta. Auto lets the SDK decide.
type VideoFrameType uint32

const (
	VideoFrameTypeAuto  VideoFrameType = 0
	VideoFrameTypeKey   VideoFrameType = 3
	VideoFrameTypeDelta VideoFrameType = 4
)

func (t VideoFrameType) String() string {
	switch t {
	case VideoFrameTypeAuto:
		return "auto"
	case VideoFrameTypeKey:
		return "key"
	case VideoFrameTypeDelta:
		return "delta"
	default:
		return "unknown"
	}
}

func (t VideoFrameType) valid() bool { return t.String() != "unknown" }

// VideoFrameRate is one of the frame rates the SDK accepts.
type VideoFrameRate uint32

const (
	VideoFrameRate1  VideoFrameRate = 1
	VideoFrameRate7  VideoFrameRate = 7
	VideoFrameRate10 VideoFrameRate = 10
	VideoFrameRate15 VideoFrameRate = 15
	VideoFrameRate24 VideoFrameRate = 24
	VideoFrameRate30 VideoFrameRate = 30
	VideoFrameRate60 VideoFrameRate = 60 // Windows and macOS only
)

func (r VideoFrameRate) valid() bool {
	switch r {
	case VideoFrameRate1, VideoFrameRate7, VideoFrameRate10, VideoFrameRate15,
		VideoFrameRate24, VideoFrameRate30, VideoFrameRate60:
		return true
	}
	return false
}

// ParseVideoFrameRate maps a numeric rate onto the supported set.
func ParseVideoFrameRate(fps int) (VideoFrameRate, error) {
	r := VideoFrameRate(fps)
	if fps <= 0 || !r.valid() {
		return 0, fmt.Errorf("unsupported frame rate %d", fps)
	}
	return r, nil
}

// VideoStreamQuality selects the high or low simulcast stream.
type VideoStreamQuality uint32

const (
	VideoStreamHigh VideoStreamQuality = 0
	VideoStreamLow  VideoStreamQuality = 1
)

func (q VideoStreamQuality) String() string {
	switch q {
	case VideoStreamHigh:
		return "high"
	case VideoStreamLow:
		return "low"
	default:
		return "unknown"
	}
}

func (q VideoStreamQuality) valid() bool { return q <= VideoStreamLow }

// ParseVideoStreamQuality parses "high" or "low".
func ParseVideoStreamQuality(s string) (VideoStreamQuality, error) {
	switch s {
	case "high":
		return VideoStreamHigh, nil
	case "low":
		return VideoStreamLow, nil
	}
	return 0, fmt.Errorf("unknown video stream %q", s)
}

// AudioCodecType selects the SDK's built-in audio encoder.
type AudioCodecType uint32

const (
	AudioCodecDisabled AudioCodecType = iota
	AudioCodecOpus
	AudioCodecG722
	AudioCodecG711A
	AudioCodecG711U
)

func (c AudioCodecType) String() string {
	switch c {
	case AudioCodecDisabled:
		return "disabled"
	case AudioCodecOpus:
		return "opus"
	case AudioCodecG722:
		return "g722"
	case AudioCodecG711A:
		return "g711a"
	case AudioCodecG711U:
		return "g711u"
	default:
		return "unknown"
	}
}

func (c AudioCodecType) valid() bool { return c <= AudioCodecG711U }

// ParseAudioCodecType parses a codec name as returned by String.
func ParseAudioCodecType(s string) (AudioCodecType, error) {
	for c := AudioCodecDisabled; c <= AudioCodecG711U; c++ {
		if c.String() == s {
			return c, nil
		}
	}
	return 0, fmt.Errorf("unknown audio codec %q", s)
}

// AudioDataType identifies the format of inbound audio frames.
type AudioDataType uint32

const (
	AudioDataTypeOpus   AudioDataType = 1
	AudioDataTypeOpusFB AudioDataType = 2
	AudioDataTypePCMA   AudioDataType = 3
	AudioDataTypePCMU   AudioDataType = 4
	AudioDataTypeG722   AudioDataType = 5
	AudioDataTypeAACLC  AudioDataType = 6
	AudioDataTypeHEAAC  AudioDataType = 7
	AudioDataTypePCM    AudioDataType = 100
)

// UserOfflineReason explains an OnUserOffline event.
type UserOfflineReason int32

const (
	UserOfflineQuit UserOfflineReason = iota
	UserOfflineDropped
)

func (r UserOfflineReason) String() string {
	switch r {
	case UserOfflineQuit:
		return "quit"
	case UserOfflineDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// ErrorCode is an opaque vendor status code. Zero means success.
type ErrorCode int32

// Vendor codes the wrapper renders without asking the SDK.
const (
	ErrCodeOK                          ErrorCode = 0
	ErrCodeInvalidAppID                ErrorCode = 101
	ErrCodeInvalidChannelName          ErrorCode = 102
	ErrCodeInvalidToken                ErrorCode = 110
	ErrCodeDynamicTokenButUseStaticKey ErrorCode = 111
)

// KnownErrorMessage returns a human-readable message for the handful of
// codes that indicate a configuration mistake, or "" for anything else.
func KnownErrorMessage(code ErrorCode) string {
	switch code {
	case ErrCodeInvalidAppID:
		return "invalid app id"
	case ErrCodeInvalidChannelName:
		return "invalid channel name"
	case ErrCodeInvalidToken:
		return "invalid token"
	case ErrCodeDynamicTokenButUseStaticKey:
		return "dynamic token is enabled but not provided"
	default:
		return ""
	}
}
