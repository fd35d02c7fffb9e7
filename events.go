package rtsa

import (
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/rs/zerolog"
)

// EventHandler is the table of callbacks the SDK invokes from its own
// threads. Every slot may be nil. Handlers must return quickly and must not
// call session methods that change state.
//
// Byte slices passed to the data slots point into SDK memory and are only
// valid until the handler returns; copy them to keep them.
type EventHandler struct {
	OnJoinChannelSuccess       func(connID, uid uint32, elapsed time.Duration)
	OnConnectionLost           func(connID uint32)
	OnRejoinChannelSuccess     func(connID, uid uint32, elapsed time.Duration)
	OnError                    func(connID uint32, code ErrorCode, msg string)
	OnUserJoined               func(connID, uid uint32, elapsed time.Duration)
	OnUserOffline              func(connID, uid uint32, reason UserOfflineReason)
	OnUserMuteAudio            func(connID, uid uint32, muted bool)
	OnUserMuteVideo            func(connID, uid uint32, muted bool)
	OnAudioData                func(connID, uid uint32, sentTS uint16, data []byte, info AudioFrameInfo)
	OnMixedAudioData           func(connID uint32, data []byte, info AudioFrameInfo)
	OnVideoData                func(connID, uid uint32, sentTS uint16, data []byte, info VideoFrameInfo)
	OnTargetBitrateChanged     func(connID, targetBps uint32)
	OnKeyFrameRequest          func(connID, uid uint32, stream VideoStreamQuality)
	OnTokenPrivilegeWillExpire func(connID uint32, token string)
}

// DefaultEventHandler logs control events and ignores media data.
func DefaultEventHandler(log zerolog.Logger) EventHandler {
	return EventHandler{
		OnJoinChannelSuccess: func(connID, uid uint32, elapsed time.Duration) {
			log.Info().Uint32("conn_id", connID).Uint32("uid", uid).Dur("elapsed", elapsed).Msg("join channel success")
		},
		OnConnectionLost: func(connID uint32) {
			log.Error().Uint32("conn_id", connID).Msg("connection lost")
		},
		OnRejoinChannelSuccess: func(connID, uid uint32, elapsed time.Duration) {
			log.Info().Uint32("conn_id", connID).Uint32("uid", uid).Dur("elapsed", elapsed).Msg("rejoin channel success")
		},
		OnError: func(connID uint32, code ErrorCode, msg string) {
			ev := log.Error().Uint32("conn_id", connID).Int32("code", int32(code)).Str("msg", msg)
			if known := KnownErrorMessage(code); known != "" {
				ev = ev.Str("reason", known)
			}
			ev.Msg("sdk error")
		},
		OnUserJoined: func(connID, uid uint32, elapsed time.Duration) {
			log.Info().Uint32("conn_id", connID).Uint32("uid", uid).Dur("elapsed", elapsed).Msg("user joined")
		},
		OnUserOffline: func(connID, uid uint32, reason UserOfflineReason) {
			log.Warn().Uint32("conn_id", connID).Uint32("uid", uid).Stringer("reason", reason).Msg("user offline")
		},
		OnUserMuteAudio: func(connID, uid uint32, muted bool) {
			log.Info().Uint32("conn_id", connID).Uint32("uid", uid).Bool("muted", muted).Msg("user mute audio")
		},
		OnUserMuteVideo: func(connID, uid uint32, muted bool) {
			log.Info().Uint32("conn_id", connID).Uint32("uid", uid).Bool("muted", muted).Msg("user mute video")
		},
		OnTargetBitrateChanged: func(connID, targetBps uint32) {
			log.Info().Uint32("conn_id", connID).Uint32("target_bps", targetBps).Msg("target bitrate changed")
		},
		OnKeyFrameRequest: func(connID, uid uint32, stream VideoStreamQuality) {
			log.Info().Uint32("conn_id", connID).Uint32("uid", uid).Stringer("stream", stream).Msg("key frame requested")
		},
		OnTokenPrivilegeWillExpire: func(connID uint32, token string) {
			log.Warn().Uint32("conn_id", connID).Msg("token will expire")
		},
	}
}

// Process-wide active table. The SDK supports one initialization per
// process, so there is exactly one table the trampolines deliver to.
var (
	activeHandler atomic.Pointer[EventHandler]
	eventLog      atomic.Pointer[zerolog.Logger]
)

func installHandler(h *EventHandler, log zerolog.Logger) {
	eventLog.Store(&log)
	activeHandler.Store(h)
}

func clearHandler() {
	activeHandler.Store(nil)
}

func currentHandler() *EventHandler {
	return activeHandler.Load()
}

// recoverCallback keeps a panicking handler from unwinding into SDK frames.
func recoverCallback(event string) {
	if r := recover(); r != nil {
		if l := eventLog.Load(); l != nil {
			l.Error().Str("event", event).Interface("panic", r).Msg("event handler panicked")
		}
	}
}

func logDecodeFailure(event string, err error) {
	if l := eventLog.Load(); l != nil {
		l.Warn().Str("event", event).Err(err).Msg("dropping undecodable callback argument")
	}
}

// The deliver* functions are the backend-independent half of each
// trampoline: backends decode raw arguments and call these.

func deliverJoinChannelSuccess(connID, uid uint32, elapsedMs int32) {
	const ev = "join_channel_success"
	observeEvent(ev)
	h := currentHandler()
	if h == nil || h.OnJoinChannelSuccess == nil {
		return
	}
	defer recoverCallback(ev)
	h.OnJoinChannelSuccess(connID, uid, time.Duration(elapsedMs)*time.Millisecond)
}

func deliverConnectionLost(connID uint32) {
	const ev = "connection_lost"
	observeEvent(ev)
	h := currentHandler()
	if h == nil || h.OnConnectionLost == nil {
		return
	}
	defer recoverCallback(ev)
	h.OnConnectionLost(connID)
}

func deliverRejoinChannelSuccess(connID, uid uint32, elapsedMs int32) {
	const ev = "rejoin_channel_success"
	observeEvent(ev)
	h := currentHandler()
	if h == nil || h.OnRejoinChannelSuccess == nil {
		return
	}
	defer recoverCallback(ev)
	h.OnRejoinChannelSuccess(connID, uid, time.Duration(elapsedMs)*time.Millisecond)
}

func deliverError(connID uint32, code int32, msg unsafe.Pointer) {
	const ev = "error"
	observeEvent(ev)
	h := currentHandler()
	if h == nil || h.OnError == nil {
		return
	}
	text, err := decodeCString("msg", msg)
	if err != nil {
		logDecodeFailure(ev, err)
	}
	defer recoverCallback(ev)
	h.OnError(connID, ErrorCode(code), text)
}

func deliverUserJoined(connID, uid uint32, elapsedMs int32) {
	const ev = "user_joined"
	observeEvent(ev)
	h := currentHandler()
	if h == nil || h.OnUserJoined == nil {
		return
	}
	defer recoverCallback(ev)
	h.OnUserJoined(connID, uid, time.Duration(elapsedMs)*time.Millisecond)
}

func deliverUserOffline(connID, uid uint32, reason int32) {
	const ev = "user_offline"
	observeEvent(ev)
	h := currentHandler()
	if h == nil || h.OnUserOffline == nil {
		return
	}
	defer recoverCallback(ev)
	h.OnUserOffline(connID, uid, UserOfflineReason(reason))
}

func deliverUserMuteAudio(connID, uid uint32, muted bool) {
	const ev = "user_mute_audio"
	observeEvent(ev)
	h := currentHandler()
	if h == nil || h.OnUserMuteAudio == nil {
		return
	}
	defer recoverCallback(ev)
	h.OnUserMuteAudio(connID, uid, muted)
}

func deliverUserMuteVideo(connID, uid uint32, muted bool) {
	const ev = "user_mute_video"
	observeEvent(ev)
	h := currentHandler()
	if h == nil || h.OnUserMuteVideo == nil {
		return
	}
	defer recoverCallback(ev)
	h.OnUserMuteVideo(connID, uid, muted)
}

func deliverAudioData(connID, uid uint32, sentTS uint16, data unsafe.Pointer, n uint64, info *audioFrameInfoC) {
	const ev = "audio_data"
	observeEvent(ev)
	h := currentHandler()
	if h == nil || h.OnAudioData == nil {
		return
	}
	defer recoverCallback(ev)
	h.OnAudioData(connID, uid, sentTS, borrowBytes(data, n), unmarshalAudioFrameInfo(info))
}

func deliverMixedAudioData(connID uint32, data unsafe.Pointer, n uint64, info *audioFrameInfoC) {
	const ev = "mixed_audio_data"
	observeEvent(ev)
	h := currentHandler()
	if h == nil || h.OnMixedAudioData == nil {
		return
	}
	defer recoverCallback(ev)
	h.OnMixedAudioData(connID, borrowBytes(data, n), unmarshalAudioFrameInfo(info))
}

func deliverVideoData(connID, uid uint32, sentTS uint16, data unsafe.Pointer, n uint64, info *videoFrameInfoC) {
	const ev = "video_data"
	observeEvent(ev)
	h := currentHandler()
	if h == nil || h.OnVideoData == nil {
		return
	}
	defer recoverCallback(ev)
	h.OnVideoData(connID, uid, sentTS, borrowBytes(data, n), unmarshalVideoFrameInfo(info))
}

func deliverTargetBitrateChanged(connID, targetBps uint32) {
	const ev = "target_bitrate_changed"
	observeEvent(ev)
	h := currentHandler()
	if h == nil || h.OnTargetBitrateChanged == nil {
		return
	}
	defer recoverCallback(ev)
	h.OnTargetBitrateChanged(connID, targetBps)
}

func deliverKeyFrameRequest(connID, uid, stream uint32) {
	const ev = "key_frame_gen_req"
	observeEvent(ev)
	h := currentHandler()
	if h == nil || h.OnKeyFrameRequest == nil {
		return
	}
	defer recoverCallback(ev)
	h.OnKeyFrameRequest(connID, uid, VideoStreamQuality(stream))
}

func deliverTokenPrivilegeWillExpire(connID uint32, token unsafe.Pointer) {
	const ev = "token_privilege_will_expire"
	observeEvent(ev)
	h := currentHandler()
	if h == nil || h.OnTokenPrivilegeWillExpire == nil {
		return
	}
	text, err := decodeCString("token", token)
	if err != nil {
		logDecodeFailure(ev, err)
	}
	defer recoverCallback(ev)
	h.OnTokenPrivilegeWillExpire(connID, text)
}
