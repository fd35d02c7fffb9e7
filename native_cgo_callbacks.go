//go:build linux && cgo && agora_cgo

package rtsa

/*
#include <stdbool.h>
#include <stdint.h>
#include "agora_rtc_api.h"
*/
import "C"

import "unsafe"

// Exported trampolines called through the bridges in native_cgo.go. They
// hold no state; delivery goes through the process-wide handler table.

//export rtsaOnJoinChannelSuccess
func rtsaOnJoinChannelSuccess(connID C.connection_id_t, uid C.uint32_t, elapsedMs C.int) {
	deliverJoinChannelSuccess(uint32(connID), uint32(uid), int32(elapsedMs))
}

//export rtsaOnConnectionLost
func rtsaOnConnectionLost(connID C.connection_id_t) {
	deliverConnectionLost(uint32(connID))
}

//export rtsaOnRejoinChannelSuccess
func rtsaOnRejoinChannelSuccess(connID C.connection_id_t, uid C.uint32_t, elapsedMs C.int) {
	deliverRejoinChannelSuccess(uint32(connID), uint32(uid), int32(elapsedMs))
}

//export rtsaOnError
func rtsaOnError(connID C.connection_id_t, code C.int, msg *C.char) {
	deliverError(uint32(connID), int32(code), unsafe.Pointer(msg))
}

//export rtsaOnUserJoined
func rtsaOnUserJoined(connID C.connection_id_t, uid C.uint32_t, elapsedMs C.int) {
	deliverUserJoined(uint32(connID), uint32(uid), int32(elapsedMs))
}

//export rtsaOnUserOffline
func rtsaOnUserOffline(connID C.connection_id_t, uid C.uint32_t, reason C.int) {
	deliverUserOffline(uint32(connID), uint32(uid), int32(reason))
}

//export rtsaOnUserMuteAudio
func rtsaOnUserMuteAudio(connID C.connection_id_t, uid C.uint32_t, muted C.bool) {
	deliverUserMuteAudio(uint32(connID), uint32(uid), bool(muted))
}

//export rtsaOnUserMuteVideo
func rtsaOnUserMuteVideo(connID C.connection_id_t, uid C.uint32_t, muted C.bool) {
	deliverUserMuteVideo(uint32(connID), uint32(uid), bool(muted))
}

//export rtsaOnAudioData
func rtsaOnAudioData(connID C.connection_id_t, uid C.uint32_t, sentTS C.uint16_t, data unsafe.Pointer, n C.size_t, info *C.audio_frame_info_t) {
	deliverAudioData(uint32(connID), uint32(uid), uint16(sentTS), data, uint64(n), (*audioFrameInfoC)(unsafe.Pointer(info)))
}

//export rtsaOnMixedAudioData
func rtsaOnMixedAudioData(connID C.connection_id_t, data unsafe.Pointer, n C.size_t, info *C.audio_frame_info_t) {
	deliverMixedAudioData(uint32(connID), data, uint64(n), (*audioFrameInfoC)(unsafe.Pointer(info)))
}

//export rtsaOnVideoData
func rtsaOnVideoData(connID C.connection_id_t, uid C.uint32_t, sentTS C.uint16_t, data unsafe.Pointer, n C.size_t, info *C.video_frame_info_t) {
	deliverVideoData(uint32(connID), uint32(uid), uint16(sentTS), data, uint64(n), (*videoFrameInfoC)(unsafe.Pointer(info)))
}

//export rtsaOnTargetBitrateChanged
func rtsaOnTargetBitrateChanged(connID C.connection_id_t, targetBps C.uint32_t) {
	deliverTargetBitrateChanged(uint32(connID), uint32(targetBps))
}

//export rtsaOnKeyFrameGenReq
func rtsaOnKeyFrameGenReq(connID C.connection_id_t, uid C.uint32_t, stream C.video_stream_type_e) {
	deliverKeyFrameRequest(uint32(connID), uint32(uid), uint32(stream))
}

//export rtsaOnTokenPrivilegeWillExpire
func rtsaOnTokenPrivilegeWillExpire(connID C.connection_id_t, token *C.char) {
	deliverTokenPrivilegeWillExpire(uint32(connID), unsafe.Pointer(token))
}
