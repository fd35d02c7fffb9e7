package rtsa

import "sync"

// nativeLib is the agora_rtc_* ABI surface. Arguments arrive already
// marshaled; implementations only cross the boundary and return the raw
// status code.
type nativeLib interface {
	version() (string, error)
	errorString(code int32) (string, error)
	licenseVerify(certificate, credential []byte) int32

	// initialize registers the process-wide trampoline table. appID and opt
	// must stay valid until fini returns.
	initialize(appID cString, opt *serviceOptionC) int32
	fini() int32

	createConnection(connID *uint32) int32
	destroyConnection(connID uint32) int32
	joinChannel(connID uint32, channel cString, uid uint32, token cString, opt *channelOptionsC) int32
	leaveChannel(connID uint32) int32
	muteLocalAudio(connID uint32, mute bool) int32
	sendVideoData(connID uint32, data []byte, info *videoFrameInfoC) int32
}

var (
	defaultNativeOnce sync.Once
	defaultNative     nativeLib
	defaultNativeErr  error
)

// loadDefaultNative returns the platform backend, loading the vendor library
// on first use.
func loadDefaultNative() (nativeLib, error) {
	defaultNativeOnce.Do(func() {
		defaultNative, defaultNativeErr = openNative()
	})
	return defaultNative, defaultNativeErr
}

// Version returns the vendor SDK version string.
func Version() (string, error) {
	lib, err := loadDefaultNative()
	if err != nil {
		return "", err
	}
	return lib.version()
}

// VerifyLicense checks a license certificate without a credential.
func VerifyLicense(certificate []byte) error {
	lib, err := loadDefaultNative()
	if err != nil {
		return err
	}
	return verifyLicense(lib, certificate)
}

func verifyLicense(lib nativeLib, certificate []byte) error {
	code := lib.licenseVerify(certificate, nil)
	observeNativeCall("agora_rtc_license_verify", code)
	return result("agora_rtc_license_verify", code)
}
