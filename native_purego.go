//go:build linux && !(cgo && agora_cgo)

// Agora RTC SDK bindings loaded at runtime with purego.
//
// This is the default backend. It needs no C toolchain: libagora-rtc-sdk.so
// is located and opened on first use and the event trampolines are created
// with purego.NewCallback.

package rtsa

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

var (
	agoraOnce    sync.Once
	agoraHandle  uintptr
	agoraInitErr error
)

// libagora-rtc-sdk function pointers
var (
	agoraRtcGetVersion        func() uintptr
	agoraRtcErr2Str           func(code int32) uintptr
	agoraRtcLicenseVerify     func(certificate uintptr, certificateLen int32, credential uintptr, credentialLen int32) int32
	agoraRtcInit              func(appID uintptr, eventHandler uintptr, option uintptr) int32
	agoraRtcFini              func() int32
	agoraRtcCreateConnection  func(connID uintptr) int32
	agoraRtcDestroyConnection func(connID uint32) int32
	agoraRtcJoinChannel       func(connID uint32, channelName uintptr, uid uint32, token uintptr, options uintptr) int32
	agoraRtcLeaveChannel      func(connID uint32) int32
	agoraRtcMuteLocalAudio    func(connID uint32, mute bool) int32
	agoraRtcSendVideoData     func(connID uint32, data uintptr, dataLen uint64, info uintptr) int32
)

// eventHandlerC mirrors agora_rtc_event_handler_t: fourteen function
// pointers in declaration order.
type eventHandlerC struct {
	onJoinChannelSuccess       uintptr
	onConnectionLost           uintptr
	onRejoinChannelSuccess     uintptr
	onError                    uintptr
	onUserJoined               uintptr
	onUserOffline              uintptr
	onUserMuteAudio            uintptr
	onUserMuteVideo            uintptr
	onAudioData                uintptr
	onMixedAudioData           uintptr
	onVideoData                uintptr
	onTargetBitrateChanged     uintptr
	onKeyFrameGenReq           uintptr
	onTokenPrivilegeWillExpire uintptr
}

var (
	trampolineOnce sync.Once
	// Allocated once and never released: the SDK may read it until fini.
	trampolines *eventHandlerC
)

func openNative() (nativeLib, error) {
	agoraOnce.Do(func() {
		agoraInitErr = loadAgoraLib()
	})
	if agoraInitErr != nil {
		return nil, agoraInitErr
	}
	return puregoNative{}, nil
}

func loadAgoraLib() error {
	paths := agoraLibPaths()

	var lastErr error
	for _, path := range paths {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			lastErr = err
			continue
		}
		if err := loadAgoraSymbols(handle); err != nil {
			purego.Dlclose(handle)
			lastErr = err
			continue
		}
		agoraHandle = handle
		return nil
	}

	if lastErr != nil {
		return fmt.Errorf("%w: %w", ErrLibraryUnavailable, lastErr)
	}
	return fmt.Errorf("%w: libagora-rtc-sdk not found in any standard location", ErrLibraryUnavailable)
}

// sdkArchDir maps GOARCH onto the directory names the vendor ships.
func sdkArchDir() string {
	switch runtime.GOARCH {
	case "arm64":
		return "aarch64"
	case "amd64":
		return "x86_64"
	case "arm":
		return "arm"
	default:
		return runtime.GOARCH
	}
}

func agoraLibPaths() []string {
	const libName = "libagora-rtc-sdk.so"
	var paths []string

	// Environment variable overrides
	if envPath := os.Getenv("AGORA_SDK_LIB_PATH"); envPath != "" {
		paths = append(paths, envPath)
	}
	if envDir := os.Getenv("AGORA_SDK_LIB_DIR"); envDir != "" {
		paths = append(paths, filepath.Join(envDir, libName))
	}

	// Next to the executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, libName),
			filepath.Join(exeDir, "..", "lib", libName),
		)
	}

	// Vendor drop inside the module (agora_sdk/lib/<arch>)
	if root := findModuleRoot(); root != "" {
		paths = append(paths, filepath.Join(root, "agora_sdk", "lib", sdkArchDir(), libName))
	}
	if wd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(wd, "agora_sdk", "lib", sdkArchDir(), libName))
	}

	// Let the dynamic linker search LD_LIBRARY_PATH, then system paths
	paths = append(paths,
		libName,
		"/usr/local/lib/"+libName,
		"/usr/lib/"+libName,
	)
	return paths
}

func loadAgoraSymbols(handle uintptr) error {
	symbols := []struct {
		fptr any
		name string
	}{
		{&agoraRtcGetVersion, "agora_rtc_get_version"},
		{&agoraRtcErr2Str, "agora_rtc_err_2_str"},
		{&agoraRtcLicenseVerify, "agora_rtc_license_verify"},
		{&agoraRtcInit, "agora_rtc_init"},
		{&agoraRtcFini, "agora_rtc_fini"},
		{&agoraRtcCreateConnection, "agora_rtc_create_connection"},
		{&agoraRtcDestroyConnection, "agora_rtc_destroy_connection"},
		{&agoraRtcJoinChannel, "agora_rtc_join_channel"},
		{&agoraRtcLeaveChannel, "agora_rtc_leave_channel"},
		{&agoraRtcMuteLocalAudio, "agora_rtc_mute_local_audio"},
		{&agoraRtcSendVideoData, "agora_rtc_send_video_data"},
	}
	for _, s := range symbols {
		sym, err := purego.Dlsym(handle, s.name)
		if err != nil {
			return fmt.Errorf("missing symbol %s: %w", s.name, err)
		}
		purego.RegisterFunc(s.fptr, sym)
	}
	return nil
}

// initTrampolines builds the callback table once per process. purego
// callbacks are never freed, so they must not be created per session.
func initTrampolines() *eventHandlerC {
	trampolineOnce.Do(func() {
		trampolines = &eventHandlerC{
			onJoinChannelSuccess: purego.NewCallback(func(connID, uid uint32, elapsedMs int32) {
				deliverJoinChannelSuccess(connID, uid, elapsedMs)
			}),
			onConnectionLost: purego.NewCallback(func(connID uint32) {
				deliverConnectionLost(connID)
			}),
			onRejoinChannelSuccess: purego.NewCallback(func(connID, uid uint32, elapsedMs int32) {
				deliverRejoinChannelSuccess(connID, uid, elapsedMs)
			}),
			onError: purego.NewCallback(func(connID uint32, code int32, msg unsafe.Pointer) {
				deliverError(connID, code, msg)
			}),
			onUserJoined: purego.NewCallback(func(connID, uid uint32, elapsedMs int32) {
				deliverUserJoined(connID, uid, elapsedMs)
			}),
			onUserOffline: purego.NewCallback(func(connID, uid uint32, reason int32) {
				deliverUserOffline(connID, uid, reason)
			}),
			onUserMuteAudio: purego.NewCallback(func(connID, uid uint32, muted bool) {
				deliverUserMuteAudio(connID, uid, muted)
			}),
			onUserMuteVideo: purego.NewCallback(func(connID, uid uint32, muted bool) {
				deliverUserMuteVideo(connID, uid, muted)
			}),
			onAudioData: purego.NewCallback(func(connID, uid uint32, sentTS uint16, data unsafe.Pointer, n uint64, info unsafe.Pointer) {
				deliverAudioData(connID, uid, sentTS, data, n, (*audioFrameInfoC)(info))
			}),
			onMixedAudioData: purego.NewCallback(func(connID uint32, data unsafe.Pointer, n uint64, info unsafe.Pointer) {
				deliverMixedAudioData(connID, data, n, (*audioFrameInfoC)(info))
			}),
			onVideoData: purego.NewCallback(func(connID, uid uint32, sentTS uint16, data unsafe.Pointer, n uint64, info unsafe.Pointer) {
				deliverVideoData(connID, uid, sentTS, data, n, (*videoFrameInfoC)(info))
			}),
			onTargetBitrateChanged: purego.NewCallback(func(connID, targetBps uint32) {
				deliverTargetBitrateChanged(connID, targetBps)
			}),
			onKeyFrameGenReq: purego.NewCallback(func(connID, uid, streamType uint32) {
				deliverKeyFrameRequest(connID, uid, streamType)
			}),
			onTokenPrivilegeWillExpire: purego.NewCallback(func(connID uint32, token unsafe.Pointer) {
				deliverTokenPrivilegeWillExpire(connID, token)
			}),
		}
	})
	return trampolines
}

// puregoNative forwards to the symbols bound by loadAgoraSymbols.
type puregoNative struct{}

func (puregoNative) version() (string, error) {
	return cStringFromPtr("version", agoraRtcGetVersion())
}

func (puregoNative) errorString(code int32) (string, error) {
	return cStringFromPtr("reason", agoraRtcErr2Str(code))
}

func (puregoNative) licenseVerify(certificate, credential []byte) int32 {
	code := agoraRtcLicenseVerify(
		bytesPtr(certificate), int32(len(certificate)),
		bytesPtr(credential), int32(len(credential)),
	)
	runtime.KeepAlive(certificate)
	runtime.KeepAlive(credential)
	return code
}

func (puregoNative) initialize(appID cString, opt *serviceOptionC) int32 {
	table := initTrampolines()
	code := agoraRtcInit(
		uintptr(unsafe.Pointer(appID.ptr())),
		uintptr(unsafe.Pointer(table)),
		uintptr(unsafe.Pointer(opt)),
	)
	runtime.KeepAlive(appID)
	runtime.KeepAlive(opt)
	return code
}

func (puregoNative) fini() int32 {
	return agoraRtcFini()
}

func (puregoNative) createConnection(connID *uint32) int32 {
	code := agoraRtcCreateConnection(uintptr(unsafe.Pointer(connID)))
	runtime.KeepAlive(connID)
	return code
}

func (puregoNative) destroyConnection(connID uint32) int32 {
	return agoraRtcDestroyConnection(connID)
}

func (puregoNative) joinChannel(connID uint32, channel cString, uid uint32, token cString, opt *channelOptionsC) int32 {
	code := agoraRtcJoinChannel(
		connID,
		uintptr(unsafe.Pointer(channel.ptr())),
		uid,
		uintptr(unsafe.Pointer(token.ptr())),
		uintptr(unsafe.Pointer(opt)),
	)
	runtime.KeepAlive(channel)
	runtime.KeepAlive(token)
	runtime.KeepAlive(opt)
	return code
}

func (puregoNative) leaveChannel(connID uint32) int32 {
	return agoraRtcLeaveChannel(connID)
}

func (puregoNative) muteLocalAudio(connID uint32, mute bool) int32 {
	return agoraRtcMuteLocalAudio(connID, mute)
}

func (puregoNative) sendVideoData(connID uint32, data []byte, info *videoFrameInfoC) int32 {
	code := agoraRtcSendVideoData(
		connID,
		bytesPtr(data),
		uint64(len(data)),
		uintptr(unsafe.Pointer(info)),
	)
	runtime.KeepAlive(data)
	runtime.KeepAlive(info)
	return code
}
