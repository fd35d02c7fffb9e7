package rtsa

import (
	"sync"
	"unsafe"
)

// fakeNative records every call crossing the native boundary and returns
// scripted status codes.
type fakeNative struct {
	mu       sync.Mutex
	calls    []string
	codes    map[string]int32
	nextConn uint32

	appID     string
	service   serviceOptionC
	logPath   string
	channel   string
	token     string
	tokenNil  bool
	uid       uint32
	channelOp channelOptionsC
	joinConn  uint32
	muted     bool
	sent      []byte
	sentInfo  videoFrameInfoC
	reasons   map[int32]string
}

func newFakeNative() *fakeNative {
	return &fakeNative{
		codes:    make(map[string]int32),
		nextConn: 1,
		reasons:  map[int32]string{110: "invalid token"},
	}
}

func (f *fakeNative) record(op string) int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, op)
	return f.codes[op]
}

// fail makes op return code until cleared with fail(op, 0).
func (f *fakeNative) fail(op string, code int32) {
	f.mu.Lock()
	f.codes[op] = code
	f.mu.Unlock()
}

func (f *fakeNative) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeNative) count(op string) int {
	n := 0
	for _, c := range f.callLog() {
		if c == op {
			n++
		}
	}
	return n
}

func (f *fakeNative) reset() {
	f.mu.Lock()
	f.calls = nil
	f.mu.Unlock()
}

func (f *fakeNative) version() (string, error) {
	f.record("version")
	return "1.9.2-fake", nil
}

func (f *fakeNative) errorString(code int32) (string, error) {
	f.record("error_string")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reasons[code], nil
}

func (f *fakeNative) licenseVerify(certificate, credential []byte) int32 {
	return f.record("license_verify")
}

func (f *fakeNative) initialize(appID cString, opt *serviceOptionC) int32 {
	code := f.record("init")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appID = appID.String()
	f.service = *opt
	f.logPath, _ = decodeCString("log_path", unsafe.Pointer(opt.logCfg.logPath))
	return code
}

func (f *fakeNative) fini() int32 {
	return f.record("fini")
}

func (f *fakeNative) createConnection(connID *uint32) int32 {
	code := f.record("create_connection")
	if code != 0 {
		return code
	}
	f.mu.Lock()
	*connID = f.nextConn
	f.nextConn++
	f.mu.Unlock()
	return 0
}

func (f *fakeNative) destroyConnection(connID uint32) int32 {
	return f.record("destroy_connection")
}

func (f *fakeNative) joinChannel(connID uint32, channel cString, uid uint32, token cString, opt *channelOptionsC) int32 {
	code := f.record("join_channel")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.joinConn = connID
	f.channel = channel.String()
	f.token = token.String()
	f.tokenNil = token.ptr() == nil
	f.uid = uid
	f.channelOp = *opt
	return code
}

func (f *fakeNative) leaveChannel(connID uint32) int32 {
	return f.record("leave_channel")
}

func (f *fakeNative) muteLocalAudio(connID uint32, mute bool) int32 {
	code := f.record("mute_local_audio")
	f.mu.Lock()
	f.muted = mute
	f.mu.Unlock()
	return code
}

func (f *fakeNative) sendVideoData(connID uint32, data []byte, info *videoFrameInfoC) int32 {
	code := f.record("send_video_data")
	f.mu.Lock()
	f.sent = append([]byte(nil), data...)
	f.sentInfo = *info
	f.mu.Unlock()
	return code
}
