package rtsa

import (
	"runtime"
	"strings"
	"unicode/utf8"
	"unsafe"
)

// Capacities of the fixed char arrays in rtc_service_option_t.
const (
	productIDSize = 64
	licenseSize   = 33
)

// maxCStringLen bounds how far decodeCString walks native memory.
const maxCStringLen = 4096

// cString is a NUL-terminated byte buffer. The zero value encodes NULL.
type cString []byte

// ptr returns the address of the first byte, or nil for an empty cString.
// The caller must keep the cString reachable until the native call returns.
func (c cString) ptr() *byte {
	if len(c) == 0 {
		return nil
	}
	return &c[0]
}

func (c cString) String() string {
	if len(c) == 0 {
		return ""
	}
	return string(c[:len(c)-1])
}

// encodeString copies s into a NUL-terminated buffer.
func encodeString(field, s string) (cString, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return nil, &EncodingError{Field: field, Err: ErrEmbeddedNUL}
	}
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	return buf, nil
}

// encodeOptionalString is encodeString but maps "" to NULL.
func encodeOptionalString(field, s string) (cString, error) {
	if s == "" {
		return nil, nil
	}
	return encodeString(field, s)
}

// decodeString converts native bytes (without terminator) into a string,
// rejecting anything that is not valid UTF-8.
func decodeString(field string, b []byte) (string, error) {
	if !utf8.Valid(b) {
		return "", &EncodingError{Field: field, Err: ErrInvalidText}
	}
	return string(b), nil
}

// decodeCString reads a NUL-terminated string from native memory. The
// pointer must stay valid for the duration of the call.
func decodeCString(field string, p unsafe.Pointer) (string, error) {
	if p == nil {
		return "", nil
	}
	n := 0
	for n < maxCStringLen && *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	if n == maxCStringLen {
		return "", &EncodingError{Field: field, Err: ErrCapacityExceeded}
	}
	return decodeString(field, unsafe.Slice((*byte)(p), n))
}

// encodeFixed zero-pads src into dst or fails if it does not fit.
func encodeFixed(field string, dst, src []byte) error {
	if len(src) > len(dst) {
		return &EncodingError{Field: field, Err: ErrCapacityExceeded}
	}
	n := copy(dst, src)
	clear(dst[n:])
	return nil
}

// result translates a native status code.
func result(op string, code int32) error {
	if code == 0 {
		return nil
	}
	return &NativeError{Op: op, Code: ErrorCode(code)}
}

// The structs below mirror agora_rtc_api.h on 64-bit Linux. Field order and
// sizes must not change.

type logConfigC struct {
	logDisable            bool
	logDisableDesensitize bool
	logLevel              uint32
	logPath               *byte
}

type serviceOptionC struct {
	areaCode     uint32
	productID    [productIDSize]byte
	logCfg       logConfigC
	licenseValue [licenseSize]byte
}

type audioCodecOptionC struct {
	audioCodecType uint32
	pcmSampleRate  int32
	pcmChannelNum  int32
}

type channelOptionsC struct {
	autoSubscribeAudio      bool
	autoSubscribeVideo      bool
	subscribeLocalUser      bool
	enableAudioJitterBuffer bool
	enableAudioMixer        bool
	audioCodecOpt           audioCodecOptionC
	enableAutEncryption     bool
}

type videoFrameInfoC struct {
	dataType   uint32
	streamType uint32
	frameType  uint32
	frameRate  uint32
}

type audioFrameInfoC struct {
	dataType uint32
}

// retainedInit owns every buffer whose address is handed to agora_rtc_init.
// The SDK may keep those pointers until agora_rtc_fini, so they live (and
// stay pinned) for the whole initialization.
type retainedInit struct {
	appID   cString
	logPath cString
	opt     *serviceOptionC
	pinner  runtime.Pinner
}

func marshalServiceOptions(appID string, o ServiceOptions) (*retainedInit, error) {
	if !o.Log.Level.valid() {
		return nil, &EncodingError{Field: "log_level", Err: ErrUnknownValue}
	}
	id, err := encodeString("app_id", appID)
	if err != nil {
		return nil, err
	}
	logPath, err := encodeOptionalString("log_path", o.Log.Path)
	if err != nil {
		return nil, err
	}

	opt := &serviceOptionC{
		areaCode: uint32(o.AreaCode),
		logCfg: logConfigC{
			logDisable:            o.Log.Disable,
			logDisableDesensitize: o.Log.DisableDesensitize,
			logLevel:              uint32(o.Log.Level),
			logPath:               logPath.ptr(),
		},
	}
	// Last byte of each array stays NUL.
	if err := encodeFixed("product_id", opt.productID[:productIDSize-1], o.ProductID); err != nil {
		return nil, err
	}
	if err := encodeFixed("license_value", opt.licenseValue[:licenseSize-1], o.License); err != nil {
		return nil, err
	}

	r := &retainedInit{appID: id, logPath: logPath, opt: opt}
	r.pinner.Pin(opt)
	r.pinner.Pin(&r.appID[0])
	if len(logPath) > 0 {
		r.pinner.Pin(&r.logPath[0])
	}
	return r, nil
}

// release unpins the buffers. Only call after agora_rtc_fini has returned.
func (r *retainedInit) release() {
	r.pinner.Unpin()
	r.opt = nil
	r.appID = nil
	r.logPath = nil
}

func marshalChannelOptions(o ChannelOptions) (channelOptionsC, error) {
	if !o.AudioCodec.Codec.valid() {
		return channelOptionsC{}, &EncodingError{Field: "audio_codec_type", Err: ErrUnknownValue}
	}
	return channelOptionsC{
		autoSubscribeAudio:      o.AutoSubscribeAudio,
		autoSubscribeVideo:      o.AutoSubscribeVideo,
		subscribeLocalUser:      o.SubscribeLocalUser,
		enableAudioJitterBuffer: o.EnableAudioJitterBuffer,
		enableAudioMixer:        o.EnableAudioMixer,
		audioCodecOpt: audioCodecOptionC{
			audioCodecType: uint32(o.AudioCodec.Codec),
			pcmSampleRate:  int32(o.AudioCodec.PCMSampleRate),
			pcmChannelNum:  int32(o.AudioCodec.PCMChannels),
		},
		enableAutEncryption: o.EnableEncryption,
	}, nil
}

func marshalVideoFrameInfo(info VideoFrameInfo) (videoFrameInfoC, error) {
	switch {
	case !info.DataType.valid():
		return videoFrameInfoC{}, &EncodingError{Field: "data_type", Err: ErrUnknownValue}
	case !info.FrameType.valid():
		return videoFrameInfoC{}, &EncodingError{Field: "frame_type", Err: ErrUnknownValue}
	case !info.FrameRate.valid():
		return videoFrameInfoC{}, &EncodingError{Field: "frame_rate", Err: ErrUnknownValue}
	case !info.Stream.valid():
		return videoFrameInfoC{}, &EncodingError{Field: "stream_type", Err: ErrUnknownValue}
	}
	return videoFrameInfoC{
		dataType:   uint32(info.DataType),
		streamType: uint32(info.Stream),
		frameType:  uint32(info.FrameType),
		frameRate:  uint32(info.FrameRate),
	}, nil
}

func unmarshalVideoFrameInfo(c *videoFrameInfoC) VideoFrameInfo {
	if c == nil {
		return VideoFrameInfo{}
	}
	return VideoFrameInfo{
		DataType:  VideoDataType(c.dataType),
		FrameType: VideoFrameType(c.frameType),
		FrameRate: VideoFrameRate(c.frameRate),
		Stream:    VideoStreamQuality(c.streamType),
	}
}

func unmarshalAudioFrameInfo(c *audioFrameInfoC) AudioFrameInfo {
	if c == nil {
		return AudioFrameInfo{}
	}
	return AudioFrameInfo{DataType: AudioDataType(c.dataType)}
}

// borrowBytes views native memory as a slice without copying. The slice is
// only valid while the native caller keeps the buffer alive.
func borrowBytes(p unsafe.Pointer, n uint64) []byte {
	if p == nil || n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(p), int(n))
}
