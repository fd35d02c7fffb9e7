//go:build linux && cgo && agora_cgo

// Agora RTC SDK bindings linked with cgo.
//
// Build with -tags agora_cgo and the vendor drop unpacked under agora_sdk/.
// The C bridges below give each exported Go callback the exact const-qualified
// signature agora_rtc_event_handler_t expects.

package rtsa

/*
#cgo CFLAGS: -I${SRCDIR}/agora_sdk/include
#cgo linux,arm64 LDFLAGS: -L${SRCDIR}/agora_sdk/lib/aarch64 -lagora-rtc-sdk -Wl,-rpath,${SRCDIR}/agora_sdk/lib/aarch64
#cgo linux,amd64 LDFLAGS: -L${SRCDIR}/agora_sdk/lib/x86_64 -lagora-rtc-sdk -Wl,-rpath,${SRCDIR}/agora_sdk/lib/x86_64

#include <stdbool.h>
#include <stdint.h>
#include <stdlib.h>
#include "agora_rtc_api.h"

// Exported from native_cgo_callbacks.go
extern void rtsaOnJoinChannelSuccess(connection_id_t, uint32_t, int);
extern void rtsaOnConnectionLost(connection_id_t);
extern void rtsaOnRejoinChannelSuccess(connection_id_t, uint32_t, int);
extern void rtsaOnError(connection_id_t, int, char *);
extern void rtsaOnUserJoined(connection_id_t, uint32_t, int);
extern void rtsaOnUserOffline(connection_id_t, uint32_t, int);
extern void rtsaOnUserMuteAudio(connection_id_t, uint32_t, bool);
extern void rtsaOnUserMuteVideo(connection_id_t, uint32_t, bool);
extern void rtsaOnAudioData(connection_id_t, uint32_t, uint16_t, void *, size_t, audio_frame_info_t *);
extern void rtsaOnMixedAudioData(connection_id_t, void *, size_t, audio_frame_info_t *);
extern void rtsaOnVideoData(connection_id_t, uint32_t, uint16_t, void *, size_t, video_frame_info_t *);
extern void rtsaOnTargetBitrateChanged(connection_id_t, uint32_t);
extern void rtsaOnKeyFrameGenReq(connection_id_t, uint32_t, video_stream_type_e);
extern void rtsaOnTokenPrivilegeWillExpire(connection_id_t, char *);

static void bridge_on_join_channel_success(connection_id_t conn_id, uint32_t uid, int elapsed_ms) {
	rtsaOnJoinChannelSuccess(conn_id, uid, elapsed_ms);
}
static void bridge_on_connection_lost(connection_id_t conn_id) {
	rtsaOnConnectionLost(conn_id);
}
static void bridge_on_rejoin_channel_success(connection_id_t conn_id, uint32_t uid, int elapsed_ms) {
	rtsaOnRejoinChannelSuccess(conn_id, uid, elapsed_ms);
}
static void bridge_on_error(connection_id_t conn_id, int code, const char *msg) {
	rtsaOnError(conn_id, code, (char *)msg);
}
static void bridge_on_user_joined(connection_id_t conn_id, uint32_t uid, int elapsed_ms) {
	rtsaOnUserJoined(conn_id, uid, elapsed_ms);
}
static void bridge_on_user_offline(connection_id_t conn_id, uint32_t uid, int reason) {
	rtsaOnUserOffline(conn_id, uid, reason);
}
static void bridge_on_user_mute_audio(connection_id_t conn_id, uint32_t uid, bool muted) {
	rtsaOnUserMuteAudio(conn_id, uid, muted);
}
static void bridge_on_user_mute_video(connection_id_t conn_id, uint32_t uid, bool muted) {
	rtsaOnUserMuteVideo(conn_id, uid, muted);
}
static void bridge_on_audio_data(connection_id_t conn_id, const uint32_t uid, uint16_t sent_ts,
		const void *data_ptr, size_t data_len, const audio_frame_info_t *info_ptr) {
	rtsaOnAudioData(conn_id, uid, sent_ts, (void *)data_ptr, data_len, (audio_frame_info_t *)info_ptr);
}
static void bridge_on_mixed_audio_data(connection_id_t conn_id, const void *data_ptr, size_t data_len,
		const audio_frame_info_t *info_ptr) {
	rtsaOnMixedAudioData(conn_id, (void *)data_ptr, data_len, (audio_frame_info_t *)info_ptr);
}
static void bridge_on_video_data(connection_id_t conn_id, const uint32_t uid, uint16_t sent_ts,
		const void *data_ptr, size_t data_len, const video_frame_info_t *info_ptr) {
	rtsaOnVideoData(conn_id, uid, sent_ts, (void *)data_ptr, data_len, (video_frame_info_t *)info_ptr);
}
static void bridge_on_target_bitrate_changed(connection_id_t conn_id, uint32_t target_bps) {
	rtsaOnTargetBitrateChanged(conn_id, target_bps);
}
static void bridge_on_key_frame_gen_req(connection_id_t conn_id, uint32_t uid, video_stream_type_e stream_type) {
	rtsaOnKeyFrameGenReq(conn_id, uid, stream_type);
}
static void bridge_on_token_privilege_will_expire(connection_id_t conn_id, const char *token) {
	rtsaOnTokenPrivilegeWillExpire(conn_id, (char *)token);
}

// Static storage: outlives agora_rtc_fini.
static agora_rtc_event_handler_t rtsa_event_handler = {
	.on_join_channel_success = bridge_on_join_channel_success,
	.on_connection_lost = bridge_on_connection_lost,
	.on_rejoin_channel_success = bridge_on_rejoin_channel_success,
	.on_error = bridge_on_error,
	.on_user_joined = bridge_on_user_joined,
	.on_user_offline = bridge_on_user_offline,
	.on_user_mute_audio = bridge_on_user_mute_audio,
	.on_user_mute_video = bridge_on_user_mute_video,
	.on_audio_data = bridge_on_audio_data,
	.on_mixed_audio_data = bridge_on_mixed_audio_data,
	.on_video_data = bridge_on_video_data,
	.on_target_bitrate_changed = bridge_on_target_bitrate_changed,
	.on_key_frame_gen_req = bridge_on_key_frame_gen_req,
	.on_token_privilege_will_expire = bridge_on_token_privilege_will_expire,
};

static const agora_rtc_event_handler_t *rtsa_handler_table(void) {
	return &rtsa_event_handler;
}
*/
import "C"

import "unsafe"

// The Go mirrors in marshal.go are passed to C by pointer, so their sizes
// must match the header exactly. Each line fails to compile on a mismatch.
var (
	_ [unsafe.Sizeof(C.rtc_service_option_t{}) - unsafe.Sizeof(serviceOptionC{})]struct{}
	_ [unsafe.Sizeof(serviceOptionC{}) - unsafe.Sizeof(C.rtc_service_option_t{})]struct{}
	_ [unsafe.Sizeof(C.rtc_channel_options_t{}) - unsafe.Sizeof(channelOptionsC{})]struct{}
	_ [unsafe.Sizeof(channelOptionsC{}) - unsafe.Sizeof(C.rtc_channel_options_t{})]struct{}
	_ [unsafe.Sizeof(C.video_frame_info_t{}) - unsafe.Sizeof(videoFrameInfoC{})]struct{}
	_ [unsafe.Sizeof(videoFrameInfoC{}) - unsafe.Sizeof(C.video_frame_info_t{})]struct{}
)

// With cgo the library is linked at build time, so opening cannot fail.
func openNative() (nativeLib, error) {
	return cgoNative{}, nil
}

type cgoNative struct{}

func (cgoNative) version() (string, error) {
	return decodeCString("version", unsafe.Pointer(C.agora_rtc_get_version()))
}

func (cgoNative) errorString(code int32) (string, error) {
	return decodeCString("reason", unsafe.Pointer(C.agora_rtc_err_2_str(C.int(code))))
}

func (cgoNative) licenseVerify(certificate, credential []byte) int32 {
	return int32(C.agora_rtc_license_verify(
		bytesCharPtr(certificate), C.int(len(certificate)),
		bytesCharPtr(credential), C.int(len(credential)),
	))
}

func (cgoNative) initialize(appID cString, opt *serviceOptionC) int32 {
	return int32(C.agora_rtc_init(
		(*C.char)(unsafe.Pointer(appID.ptr())),
		C.rtsa_handler_table(),
		(*C.rtc_service_option_t)(unsafe.Pointer(opt)),
	))
}

func (cgoNative) fini() int32 {
	return int32(C.agora_rtc_fini())
}

func (cgoNative) createConnection(connID *uint32) int32 {
	var id C.connection_id_t
	code := C.agora_rtc_create_connection(&id)
	*connID = uint32(id)
	return int32(code)
}

func (cgoNative) destroyConnection(connID uint32) int32 {
	return int32(C.agora_rtc_destroy_connection(C.connection_id_t(connID)))
}

func (cgoNative) joinChannel(connID uint32, channel cString, uid uint32, token cString, opt *channelOptionsC) int32 {
	return int32(C.agora_rtc_join_channel(
		C.connection_id_t(connID),
		(*C.char)(unsafe.Pointer(channel.ptr())),
		C.uint32_t(uid),
		(*C.char)(unsafe.Pointer(token.ptr())),
		(*C.rtc_channel_options_t)(unsafe.Pointer(opt)),
	))
}

func (cgoNative) leaveChannel(connID uint32) int32 {
	return int32(C.agora_rtc_leave_channel(C.connection_id_t(connID)))
}

func (cgoNative) muteLocalAudio(connID uint32, mute bool) int32 {
	return int32(C.agora_rtc_mute_local_audio(C.connection_id_t(connID), C.bool(mute)))
}

func (cgoNative) sendVideoData(connID uint32, data []byte, info *videoFrameInfoC) int32 {
	var ptr unsafe.Pointer
	if len(data) > 0 {
		ptr = unsafe.Pointer(&data[0])
	}
	return int32(C.agora_rtc_send_video_data(
		C.connection_id_t(connID),
		ptr,
		C.size_t(len(data)),
		(*C.video_frame_info_t)(unsafe.Pointer(info)),
	))
}

func bytesCharPtr(b []byte) *C.char {
	if len(b) == 0 {
		return nil
	}
	return (*C.char)(unsafe.Pointer(&b[0]))
}
