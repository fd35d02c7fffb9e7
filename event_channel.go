package rtsa

import (
	"sync/atomic"
	"time"
)

// EventKind identifies which callback produced an Event.
type EventKind int

const (
	EventJoinChannelSuccess EventKind = iota
	EventConnectionLost
	EventRejoinChannelSuccess
	EventError
	EventUserJoined
	EventUserOffline
	EventUserMuteAudio
	EventUserMuteVideo
	EventAudioData
	EventMixedAudioData
	EventVideoData
	EventTargetBitrateChanged
	EventKeyFrameRequest
	EventTokenPrivilegeWillExpire
)

var eventKindNames = [...]string{
	EventJoinChannelSuccess:       "join_channel_success",
	EventConnectionLost:           "connection_lost",
	EventRejoinChannelSuccess:     "rejoin_channel_success",
	EventError:                    "error",
	EventUserJoined:               "user_joined",
	EventUserOffline:              "user_offline",
	EventUserMuteAudio:            "user_mute_audio",
	EventUserMuteVideo:            "user_mute_video",
	EventAudioData:                "audio_data",
	EventMixedAudioData:           "mixed_audio_data",
	EventVideoData:                "video_data",
	EventTargetBitrateChanged:     "target_bitrate_changed",
	EventKeyFrameRequest:          "key_frame_request",
	EventTokenPrivilegeWillExpire: "token_privilege_will_expire",
}

func (k EventKind) String() string {
	if k >= 0 && int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "unknown"
}

// Event is one callback, detached from SDK memory. Only the fields that
// apply to Kind are set.
type Event struct {
	Kind      EventKind
	ConnID    uint32
	UID       uint32
	Elapsed   time.Duration
	Code      ErrorCode
	Message   string // error text, or the expiring token
	Reason    UserOfflineReason
	Muted     bool
	SentTS    uint16
	Data      []byte // owned copy
	Audio     AudioFrameInfo
	Video     VideoFrameInfo
	TargetBps uint32
	Stream    VideoStreamQuality
}

// EventChannel forwards callbacks from SDK threads to an application
// goroutine. Sends never block: when the buffer is full the event is
// dropped and counted.
//
// The channel is never closed, since the SDK may deliver late callbacks
// after a session is torn down.
type EventChannel struct {
	ch      chan Event
	media   bool
	dropped atomic.Uint64
}

// NewEventChannel returns a channel buffering size events. Audio and video
// payloads are forwarded only when media is true.
func NewEventChannel(size int, media bool) *EventChannel {
	if size < 1 {
		size = 1
	}
	return &EventChannel{ch: make(chan Event, size), media: media}
}

// Events returns the receive side.
func (c *EventChannel) Events() <-chan Event { return c.ch }

// Dropped returns the number of events discarded so far.
func (c *EventChannel) Dropped() uint64 { return c.dropped.Load() }

func (c *EventChannel) push(ev Event) {
	select {
	case c.ch <- ev:
	default:
		c.dropped.Add(1)
		DroppedEvents.Inc()
	}
}

// Handler returns an EventHandler that forwards into c. Data slots are
// left nil unless c was created with media enabled.
func (c *EventChannel) Handler() EventHandler {
	h := EventHandler{
		OnJoinChannelSuccess: func(connID, uid uint32, elapsed time.Duration) {
			c.push(Event{Kind: EventJoinChannelSuccess, ConnID: connID, UID: uid, Elapsed: elapsed})
		},
		OnConnectionLost: func(connID uint32) {
			c.push(Event{Kind: EventConnectionLost, ConnID: connID})
		},
		OnRejoinChannelSuccess: func(connID, uid uint32, elapsed time.Duration) {
			c.push(Event{Kind: EventRejoinChannelSuccess, ConnID: connID, UID: uid, Elapsed: elapsed})
		},
		OnError: func(connID uint32, code ErrorCode, msg string) {
			c.push(Event{Kind: EventError, ConnID: connID, Code: code, Message: msg})
		},
		OnUserJoined: func(connID, uid uint32, elapsed time.Duration) {
			c.push(Event{Kind: EventUserJoined, ConnID: connID, UID: uid, Elapsed: elapsed})
		},
		OnUserOffline: func(connID, uid uint32, reason UserOfflineReason) {
			c.push(Event{Kind: EventUserOffline, ConnID: connID, UID: uid, Reason: reason})
		},
		OnUserMuteAudio: func(connID, uid uint32, muted bool) {
			c.push(Event{Kind: EventUserMuteAudio, ConnID: connID, UID: uid, Muted: muted})
		},
		OnUserMuteVideo: func(connID, uid uint32, muted bool) {
			c.push(Event{Kind: EventUserMuteVideo, ConnID: connID, UID: uid, Muted: muted})
		},
		OnTargetBitrateChanged: func(connID, targetBps uint32) {
			c.push(Event{Kind: EventTargetBitrateChanged, ConnID: connID, TargetBps: targetBps})
		},
		OnKeyFrameRequest: func(connID, uid uint32, stream VideoStreamQuality) {
			c.push(Event{Kind: EventKeyFrameRequest, ConnID: connID, UID: uid, Stream: stream})
		},
		OnTokenPrivilegeWillExpire: func(connID uint32, token string) {
			c.push(Event{Kind: EventTokenPrivilegeWillExpire, ConnID: connID, Message: token})
		},
	}
	if !c.media {
		return h
	}
	h.OnAudioData = func(connID, uid uint32, sentTS uint16, data []byte, info AudioFrameInfo) {
		c.push(Event{Kind: EventAudioData, ConnID: connID, UID: uid, SentTS: sentTS, Data: clone(data), Audio: info})
	}
	h.OnMixedAudioData = func(connID uint32, data []byte, info AudioFrameInfo) {
		c.push(Event{Kind: EventMixedAudioData, ConnID: connID, Data: clone(data), Audio: info})
	}
	h.OnVideoData = func(connID, uid uint32, sentTS uint16, data []byte, info VideoFrameInfo) {
		c.push(Event{Kind: EventVideoData, ConnID: connID, UID: uid, SentTS: sentTS, Data: clone(data), Video: info})
	}
	return h
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
