package rtsa

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ io.Closer = (*Session)(nil)

func newTestSession(t *testing.T, lib *fakeNative, opts ...Option) *Session {
	t.Helper()
	opts = append([]Option{withNative(lib), WithLogger(zerolog.Nop())}, opts...)
	s, err := NewSession("test-app", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// joinedSession drives a fresh session to Joined.
func joinedSession(t *testing.T, lib *fakeNative, opts ...Option) *Session {
	t.Helper()
	s := newTestSession(t, lib, opts...)
	require.NoError(t, s.Initialize(DefaultServiceOptions()))
	_, err := s.CreateConnection()
	require.NoError(t, err)
	require.NoError(t, s.JoinChannel("test-channel", 42, "tok", DefaultChannelOptions()))
	return s
}

// sessionIn drives a fresh session to the requested state.
func sessionIn(t *testing.T, lib *fakeNative, state State) *Session {
	t.Helper()
	s := newTestSession(t, lib)
	if state >= StateInitialized {
		require.NoError(t, s.Initialize(DefaultServiceOptions()))
	}
	if state >= StateConnectionCreated {
		_, err := s.CreateConnection()
		require.NoError(t, err)
	}
	if state >= StateJoined {
		require.NoError(t, s.JoinChannel("test-channel", 42, "", DefaultChannelOptions()))
	}
	require.Equal(t, state, s.State())
	return s
}

var allStates = []State{StateUninitialized, StateInitialized, StateConnectionCreated, StateJoined}

func TestSessionLifecycle(t *testing.T) {
	lib := newFakeNative()
	s := newTestSession(t, lib)
	assert.Equal(t, StateUninitialized, s.State())
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, "test-app", s.AppID())

	opts := ServiceOptions{
		AreaCode: AreaCodeDefault,
		Log:      LogConfig{Level: LogLevelNotice},
	}
	require.NoError(t, s.Initialize(opts))
	assert.Equal(t, StateInitialized, s.State())
	assert.Equal(t, "test-app", lib.appID)
	assert.Equal(t, uint32(AreaCodeDefault), lib.service.areaCode)
	assert.Equal(t, uint32(LogLevelNotice), lib.service.logCfg.logLevel)
	assert.Equal(t, [productIDSize]byte{}, lib.service.productID)
	assert.Empty(t, lib.logPath)

	id, err := s.CreateConnection()
	require.NoError(t, err)
	assert.Equal(t, StateConnectionCreated, s.State())
	connID, ok := s.ConnID()
	assert.True(t, ok)
	assert.Equal(t, id, connID)

	require.NoError(t, s.JoinChannel("test-channel", 42, "tok", DefaultChannelOptions()))
	assert.True(t, s.IsJoined())
	assert.Equal(t, "test-channel", s.Channel())
	assert.Equal(t, uint32(42), s.UID())
	assert.Equal(t, "test-channel", lib.channel)
	assert.Equal(t, "tok", lib.token)
	assert.Equal(t, uint32(42), lib.uid)
	assert.Equal(t, id, lib.joinConn)

	frame := []byte{0, 0, 0, 1, 0x65, 0x88}
	require.NoError(t, s.SendVideoData(frame, H264FrameInfo(VideoFrameTypeKey, VideoFrameRate30)))
	assert.Equal(t, frame, lib.sent)
	assert.Equal(t, uint32(VideoDataTypeH264), lib.sentInfo.dataType)
	assert.Equal(t, uint32(VideoFrameTypeKey), lib.sentInfo.frameType)
	assert.Equal(t, uint32(VideoFrameRate30), lib.sentInfo.frameRate)

	require.NoError(t, s.LeaveChannel())
	assert.Equal(t, StateConnectionCreated, s.State())
	assert.Empty(t, s.Channel())

	require.NoError(t, s.DestroyConnection())
	assert.Equal(t, StateInitialized, s.State())
	_, ok = s.ConnID()
	assert.False(t, ok)

	require.NoError(t, s.Deinitialize())
	assert.Equal(t, StateUninitialized, s.State())

	assert.Equal(t, []string{
		"init", "create_connection", "join_channel", "send_video_data",
		"leave_channel", "destroy_connection", "fini",
	}, lib.callLog())
}

func TestSessionEmptyTokenIsNull(t *testing.T) {
	lib := newFakeNative()
	sessionIn(t, lib, StateJoined)
	assert.True(t, lib.tokenNil)
}

func TestSessionChannelOptionsMarshaled(t *testing.T) {
	lib := newFakeNative()
	s := sessionIn(t, lib, StateConnectionCreated)

	opts := ChannelOptions{
		AutoSubscribeVideo: true,
		EnableAudioMixer:   true,
		AudioCodec: AudioCodecOptions{
			Codec:         AudioCodecOpus,
			PCMSampleRate: 48000,
			PCMChannels:   2,
		},
		EnableEncryption: true,
	}
	require.NoError(t, s.JoinChannel("c", 7, "", opts))

	got := lib.channelOp
	assert.False(t, got.autoSubscribeAudio)
	assert.True(t, got.autoSubscribeVideo)
	assert.True(t, got.enableAudioMixer)
	assert.Equal(t, uint32(AudioCodecOpus), got.audioCodecOpt.audioCodecType)
	assert.Equal(t, int32(48000), got.audioCodecOpt.pcmSampleRate)
	assert.Equal(t, int32(2), got.audioCodecOpt.pcmChannelNum)
	assert.True(t, got.enableAutEncryption)
}

func TestSessionRejoinKeepsJoined(t *testing.T) {
	lib := newFakeNative()
	s := joinedSession(t, lib)

	require.NoError(t, s.JoinChannel("other", 9, "", DefaultChannelOptions()))
	assert.Equal(t, StateJoined, s.State())
	assert.Equal(t, "other", s.Channel())
	assert.Equal(t, uint32(9), s.UID())

	lib.fail("join_channel", -2)
	err := s.JoinChannel("third", 10, "", DefaultChannelOptions())
	require.Error(t, err)
	assert.Equal(t, StateJoined, s.State())
	assert.Equal(t, "other", s.Channel())
}

func TestSessionWrongState(t *testing.T) {
	info := H264FrameInfo(VideoFrameTypeKey, VideoFrameRate30)
	ops := map[string]struct {
		allowed map[State]bool
		run     func(s *Session) error
	}{
		"initialize": {
			allowed: map[State]bool{StateUninitialized: true},
			run:     func(s *Session) error { return s.Initialize(DefaultServiceOptions()) },
		},
		"create_connection": {
			allowed: map[State]bool{StateInitialized: true},
			run: func(s *Session) error {
				_, err := s.CreateConnection()
				return err
			},
		},
		"join_channel": {
			allowed: map[State]bool{StateConnectionCreated: true, StateJoined: true},
			run:     func(s *Session) error { return s.JoinChannel("c", 1, "", DefaultChannelOptions()) },
		},
		"send_video_data": {
			allowed: map[State]bool{StateJoined: true},
			run:     func(s *Session) error { return s.SendVideoData([]byte{1}, info) },
		},
		"mute_local_audio": {
			allowed: map[State]bool{StateConnectionCreated: true, StateJoined: true},
			run:     func(s *Session) error { return s.MuteLocalAudio(true) },
		},
	}

	for name, op := range ops {
		for _, state := range allStates {
			if op.allowed[state] {
				continue
			}
			t.Run(name+"/"+state.String(), func(t *testing.T) {
				lib := newFakeNative()
				s := sessionIn(t, lib, state)
				lib.reset()

				err := op.run(s)
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidState)
				var serr *StateError
				require.ErrorAs(t, err, &serr)
				assert.Equal(t, state, serr.State)
				assert.Equal(t, state, s.State())
				assert.Empty(t, lib.callLog(), "no native call may be made from the wrong state")
			})
		}
	}
}

func TestSessionTeardownFromEveryState(t *testing.T) {
	expected := map[State][]string{
		StateUninitialized:     nil,
		StateInitialized:       {"fini"},
		StateConnectionCreated: {"destroy_connection", "fini"},
		StateJoined:            {"leave_channel", "destroy_connection", "fini"},
	}
	for _, state := range allStates {
		t.Run(state.String(), func(t *testing.T) {
			lib := newFakeNative()
			s := sessionIn(t, lib, state)
			lib.reset()

			s.Teardown()
			assert.Equal(t, StateUninitialized, s.State())
			assert.Equal(t, expected[state], lib.callLog())
			assert.Empty(t, processGuard.holder())

			s.Teardown()
			assert.Equal(t, expected[state], lib.callLog(), "second teardown must not call the library")
		})
	}
}

func TestSessionTeardownSwallowsFailures(t *testing.T) {
	lib := newFakeNative()
	s := sessionIn(t, lib, StateJoined)
	lib.fail("leave_channel", -1)
	lib.fail("destroy_connection", -1)
	lib.fail("fini", -1)

	assert.NotPanics(t, s.Teardown)
	assert.Equal(t, StateUninitialized, s.State())
	assert.Empty(t, processGuard.holder())

	abandonedMu.Lock()
	n := len(abandoned)
	abandonedMu.Unlock()
	assert.Positive(t, n, "buffers of a failed fini stay parked")
}

func TestSessionLeaveIdempotent(t *testing.T) {
	for _, state := range allStates {
		t.Run(state.String(), func(t *testing.T) {
			lib := newFakeNative()
			s := sessionIn(t, lib, state)

			require.NoError(t, s.LeaveChannel())
			require.NoError(t, s.LeaveChannel())

			want := 0
			if state == StateJoined {
				want = 1
			}
			assert.Equal(t, want, lib.count("leave_channel"))
			if state == StateJoined {
				assert.Equal(t, StateConnectionCreated, s.State())
			} else {
				assert.Equal(t, state, s.State())
			}
		})
	}
}

func TestSessionDestroyAndDeinitIdempotent(t *testing.T) {
	lib := newFakeNative()
	s := newTestSession(t, lib)
	require.NoError(t, s.DestroyConnection())
	require.NoError(t, s.Deinitialize())
	assert.Empty(t, lib.callLog())

	require.NoError(t, s.Initialize(DefaultServiceOptions()))
	require.NoError(t, s.DestroyConnection())
	assert.Equal(t, StateInitialized, s.State())
	assert.Zero(t, lib.count("destroy_connection"))
}

func TestSessionDestroyFromJoinedLeavesFirst(t *testing.T) {
	lib := newFakeNative()
	s := sessionIn(t, lib, StateJoined)
	lib.reset()

	require.NoError(t, s.DestroyConnection())
	assert.Equal(t, StateInitialized, s.State())
	assert.Equal(t, []string{"leave_channel", "destroy_connection"}, lib.callLog())
}

func TestSessionDeinitFromConnectionCreated(t *testing.T) {
	lib := newFakeNative()
	s := sessionIn(t, lib, StateConnectionCreated)
	lib.reset()

	require.NoError(t, s.Deinitialize())
	assert.Equal(t, StateUninitialized, s.State())
	assert.Equal(t, []string{"destroy_connection", "fini"}, lib.callLog())
}

func TestSessionLeaveFailureStillLeaves(t *testing.T) {
	lib := newFakeNative()
	s := sessionIn(t, lib, StateJoined)
	lib.fail("leave_channel", int32(ErrCodeInvalidChannelName))

	err := s.LeaveChannel()
	require.Error(t, err)
	code, ok := ErrorCodeOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrCodeInvalidChannelName, code)
	assert.Equal(t, StateConnectionCreated, s.State())
}

func TestSessionLeaveFailureLogsWarning(t *testing.T) {
	lib := newFakeNative()
	var buf bytes.Buffer
	s := newTestSession(t, lib, WithLogger(zerolog.New(&buf)))
	require.NoError(t, s.Initialize(DefaultServiceOptions()))
	_, err := s.CreateConnection()
	require.NoError(t, err)
	require.NoError(t, s.JoinChannel("test-channel", 42, "", DefaultChannelOptions()))
	buf.Reset()

	lib.fail("leave_channel", -1)
	require.Error(t, s.LeaveChannel())
	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, "leave channel failed")
	assert.Contains(t, out, "agora_rtc_leave_channel")
	assert.NotContains(t, out, "left channel")

	lib.fail("leave_channel", 0)
	require.NoError(t, s.JoinChannel("test-channel", 42, "", DefaultChannelOptions()))
	buf.Reset()
	require.NoError(t, s.LeaveChannel())
	assert.Contains(t, buf.String(), "left channel")
	assert.NotContains(t, buf.String(), `"level":"warn"`)
}

func TestSessionRecordsToken(t *testing.T) {
	lib := newFakeNative()
	s := joinedSession(t, lib)
	assert.Equal(t, "tok", s.token)

	require.NoError(t, s.JoinChannel("other", 7, "tok2", DefaultChannelOptions()))
	assert.Equal(t, "tok2", s.token)

	lib.fail("join_channel", -1)
	require.Error(t, s.JoinChannel("third", 8, "tok3", DefaultChannelOptions()))
	assert.Equal(t, "tok2", s.token, "failed rejoin keeps the previous token")

	require.NoError(t, s.LeaveChannel())
	assert.Empty(t, s.token)
}

func TestSessionDestroyAggregatesErrors(t *testing.T) {
	lib := newFakeNative()
	s := sessionIn(t, lib, StateJoined)
	lib.fail("leave_channel", -1)
	lib.fail("destroy_connection", -2)

	err := s.DestroyConnection()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agora_rtc_leave_channel")
	assert.Contains(t, err.Error(), "agora_rtc_destroy_connection")
	assert.Equal(t, StateInitialized, s.State())
}

func TestSessionFreshConnectionIDs(t *testing.T) {
	lib := newFakeNative()
	s := sessionIn(t, lib, StateInitialized)

	first, err := s.CreateConnection()
	require.NoError(t, err)
	require.NoError(t, s.DestroyConnection())
	second, err := s.CreateConnection()
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	got, ok := s.ConnID()
	assert.True(t, ok)
	assert.Equal(t, second, got)
}

func TestSessionNativeFailureLeavesStateUnchanged(t *testing.T) {
	t.Run("init", func(t *testing.T) {
		lib := newFakeNative()
		lib.fail("init", int32(ErrCodeInvalidAppID))
		s := newTestSession(t, lib)

		err := s.Initialize(DefaultServiceOptions())
		var nerr *NativeError
		require.ErrorAs(t, err, &nerr)
		assert.Equal(t, "agora_rtc_init", nerr.Op)
		assert.Equal(t, ErrCodeInvalidAppID, nerr.Code)
		assert.Equal(t, StateUninitialized, s.State())
		assert.Empty(t, processGuard.holder(), "failed init must release the guard")
		assert.Nil(t, currentHandler())

		lib.fail("init", 0)
		require.NoError(t, s.Initialize(DefaultServiceOptions()))
	})

	t.Run("create_connection", func(t *testing.T) {
		lib := newFakeNative()
		s := sessionIn(t, lib, StateInitialized)
		lib.fail("create_connection", -1)

		_, err := s.CreateConnection()
		require.Error(t, err)
		assert.Equal(t, StateInitialized, s.State())
		_, ok := s.ConnID()
		assert.False(t, ok)
	})

	t.Run("join_channel", func(t *testing.T) {
		lib := newFakeNative()
		s := sessionIn(t, lib, StateConnectionCreated)
		lib.fail("join_channel", int32(ErrCodeInvalidToken))

		err := s.JoinChannel("c", 1, "bad", DefaultChannelOptions())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid token")
		assert.Equal(t, StateConnectionCreated, s.State())
		assert.Empty(t, s.Channel())
	})

	t.Run("send_video_data", func(t *testing.T) {
		lib := newFakeNative()
		s := sessionIn(t, lib, StateJoined)
		lib.fail("send_video_data", -5)

		err := s.SendVideoData([]byte{1}, H264FrameInfo(VideoFrameTypeDelta, VideoFrameRate30))
		require.Error(t, err)
		assert.Equal(t, StateJoined, s.State())
	})
}

func TestSessionFiniFailure(t *testing.T) {
	lib := newFakeNative()
	s := sessionIn(t, lib, StateInitialized)
	lib.fail("fini", -1)

	err := s.Deinitialize()
	require.Error(t, err)
	assert.Equal(t, StateUninitialized, s.State())
	assert.Empty(t, processGuard.holder())

	other := newTestSession(t, newFakeNative())
	require.NoError(t, other.Initialize(DefaultServiceOptions()))
}

func TestSessionGuardRejectsSecondSession(t *testing.T) {
	first := sessionIn(t, newFakeNative(), StateInitialized)

	lib := newFakeNative()
	second := newTestSession(t, lib)
	err := second.Initialize(DefaultServiceOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
	assert.ErrorIs(t, err, ErrInvalidState)
	assert.Contains(t, err.Error(), first.ID())
	assert.Empty(t, lib.callLog())
	assert.Equal(t, StateUninitialized, second.State())

	first.Teardown()
	require.NoError(t, second.Initialize(DefaultServiceOptions()))
}

func TestSessionEncodingFailuresMakeNoNativeCall(t *testing.T) {
	t.Run("embedded NUL in channel", func(t *testing.T) {
		lib := newFakeNative()
		s := sessionIn(t, lib, StateConnectionCreated)
		lib.reset()

		err := s.JoinChannel("a\x00b", 1, "", DefaultChannelOptions())
		assert.ErrorIs(t, err, ErrEmbeddedNUL)
		var eerr *EncodingError
		require.ErrorAs(t, err, &eerr)
		assert.Equal(t, "channel_name", eerr.Field)
		assert.Empty(t, lib.callLog())
		assert.Equal(t, StateConnectionCreated, s.State())
	})

	t.Run("embedded NUL in token", func(t *testing.T) {
		lib := newFakeNative()
		s := sessionIn(t, lib, StateConnectionCreated)
		lib.reset()

		err := s.JoinChannel("c", 1, "t\x00k", DefaultChannelOptions())
		assert.ErrorIs(t, err, ErrEmbeddedNUL)
		assert.Empty(t, lib.callLog())
	})

	t.Run("embedded NUL in app id", func(t *testing.T) {
		lib := newFakeNative()
		s, err := NewSession("app\x00id", withNative(lib), WithLogger(zerolog.Nop()))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })

		assert.ErrorIs(t, s.Initialize(DefaultServiceOptions()), ErrEmbeddedNUL)
		assert.Empty(t, lib.callLog())
		assert.Empty(t, processGuard.holder())
	})

	t.Run("product id too long", func(t *testing.T) {
		lib := newFakeNative()
		s := newTestSession(t, lib)
		opts := DefaultServiceOptions()
		opts.ProductID = bytes.Repeat([]byte{'p'}, productIDSize)

		assert.ErrorIs(t, s.Initialize(opts), ErrCapacityExceeded)
		assert.Empty(t, lib.callLog())
		assert.Equal(t, StateUninitialized, s.State())
	})

	t.Run("license too long", func(t *testing.T) {
		lib := newFakeNative()
		s := newTestSession(t, lib)
		opts := DefaultServiceOptions()
		opts.License = bytes.Repeat([]byte{'l'}, licenseSize)

		assert.ErrorIs(t, s.Initialize(opts), ErrCapacityExceeded)
		assert.Empty(t, lib.callLog())
	})

	t.Run("unknown frame rate", func(t *testing.T) {
		lib := newFakeNative()
		s := sessionIn(t, lib, StateJoined)
		lib.reset()

		info := H264FrameInfo(VideoFrameTypeKey, VideoFrameRate(29))
		assert.ErrorIs(t, s.SendVideoData([]byte{1}, info), ErrUnknownValue)
		assert.Empty(t, lib.callLog())
	})
}

func TestSessionProductIDAtCapacity(t *testing.T) {
	lib := newFakeNative()
	s := newTestSession(t, lib)
	opts := DefaultServiceOptions()
	opts.ProductID = bytes.Repeat([]byte{'p'}, productIDSize-1)
	opts.License = bytes.Repeat([]byte{'l'}, licenseSize-1)
	opts.Log.Path = "/tmp/agora"

	require.NoError(t, s.Initialize(opts))
	assert.Equal(t, byte('p'), lib.service.productID[productIDSize-2])
	assert.Zero(t, lib.service.productID[productIDSize-1])
	assert.Zero(t, lib.service.licenseValue[licenseSize-1])
	assert.Equal(t, "/tmp/agora", lib.logPath)
}

func TestSessionSendVideoDataDefault(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		lib := newFakeNative()
		s := sessionIn(t, lib, StateJoined)
		lib.reset()

		assert.ErrorIs(t, s.SendVideoDataDefault([]byte{1}), ErrNoDefaultConfigured)
		assert.Empty(t, lib.callLog())
	})

	t.Run("not joined", func(t *testing.T) {
		lib := newFakeNative()
		info := H264FrameInfo(VideoFrameTypeAuto, VideoFrameRate15)
		s := newTestSession(t, lib, WithDefaultVideoInfo(info))

		assert.ErrorIs(t, s.SendVideoDataDefault([]byte{1}), ErrInvalidState)
		assert.Empty(t, lib.callLog())
	})

	t.Run("configured", func(t *testing.T) {
		lib := newFakeNative()
		info := H264FrameInfo(VideoFrameTypeAuto, VideoFrameRate15)
		s := joinedSession(t, lib, WithDefaultVideoInfo(info))

		require.NoError(t, s.SendVideoDataDefault([]byte{9, 9}))
		assert.Equal(t, []byte{9, 9}, lib.sent)
		assert.Equal(t, uint32(VideoFrameRate15), lib.sentInfo.frameRate)

		require.NoError(t, s.SetDefaultVideoInfo(H264FrameInfo(VideoFrameTypeDelta, VideoFrameRate24)))
		require.NoError(t, s.SendVideoDataDefault([]byte{1}))
		assert.Equal(t, uint32(VideoFrameRate24), lib.sentInfo.frameRate)
	})

	t.Run("invalid default rejected", func(t *testing.T) {
		lib := newFakeNative()
		bad := VideoFrameInfo{DataType: VideoDataType(99)}
		_, err := NewSession("test-app", withNative(lib), WithDefaultVideoInfo(bad))
		assert.ErrorIs(t, err, ErrUnknownValue)

		s := newTestSession(t, lib)
		assert.ErrorIs(t, s.SetDefaultVideoInfo(bad), ErrUnknownValue)
	})
}

func TestSessionMuteLocalAudio(t *testing.T) {
	lib := newFakeNative()
	s := sessionIn(t, lib, StateConnectionCreated)

	require.NoError(t, s.MuteLocalAudio(true))
	assert.True(t, lib.muted)
	require.NoError(t, s.MuteLocalAudio(false))
	assert.False(t, lib.muted)
}

func TestSessionErrorReason(t *testing.T) {
	lib := newFakeNative()
	s := newTestSession(t, lib)

	_, err := s.ErrorReason(ErrCodeInvalidToken)
	assert.ErrorIs(t, err, ErrInvalidState)

	require.NoError(t, s.Initialize(DefaultServiceOptions()))
	reason, err := s.ErrorReason(ErrCodeInvalidToken)
	require.NoError(t, err)
	assert.Equal(t, "invalid token", reason)
}

func TestSessionEventHandlerInstalledWhileInitialized(t *testing.T) {
	var joined []uint32
	h := EventHandler{
		OnUserJoined: func(connID, uid uint32, elapsed time.Duration) {
			joined = append(joined, uid)
		},
	}
	lib := newFakeNative()
	s := newTestSession(t, lib, WithEventHandler(h))

	deliverUserJoined(1, 100, 5)
	assert.Empty(t, joined, "no handler before initialize")

	require.NoError(t, s.Initialize(DefaultServiceOptions()))
	deliverUserJoined(1, 101, 5)
	assert.Equal(t, []uint32{101}, joined)

	require.Error(t, s.SetEventHandler(EventHandler{}), "handler is fixed while initialized")

	require.NoError(t, s.Deinitialize())
	deliverUserJoined(1, 102, 5)
	assert.Equal(t, []uint32{101}, joined)

	require.NoError(t, s.SetEventHandler(EventHandler{}))
}

func TestSessionMetrics(t *testing.T) {
	initOK := NativeCalls.WithLabelValues("agora_rtc_init", "ok")
	sendErr := NativeCalls.WithLabelValues("agora_rtc_send_video_data", "error")
	toJoined := StateTransitions.WithLabelValues("connection_created", "joined")

	beforeInit := testutil.ToFloat64(initOK)
	beforeSendErr := testutil.ToFloat64(sendErr)
	beforeJoined := testutil.ToFloat64(toJoined)
	beforeGauge := testutil.ToFloat64(InitializedSessions)
	beforeFrames := testutil.ToFloat64(VideoFramesSent)
	beforeBytes := testutil.ToFloat64(VideoBytesSent)

	lib := newFakeNative()
	s := joinedSession(t, lib)
	assert.Equal(t, beforeGauge+1, testutil.ToFloat64(InitializedSessions))

	require.NoError(t, s.SendVideoData(make([]byte, 100), H264FrameInfo(VideoFrameTypeKey, VideoFrameRate30)))
	lib.fail("send_video_data", -1)
	require.Error(t, s.SendVideoData(make([]byte, 100), H264FrameInfo(VideoFrameTypeKey, VideoFrameRate30)))

	assert.Equal(t, beforeInit+1, testutil.ToFloat64(initOK))
	assert.Equal(t, beforeSendErr+1, testutil.ToFloat64(sendErr))
	assert.Equal(t, beforeJoined+1, testutil.ToFloat64(toJoined))
	assert.Equal(t, beforeFrames+1, testutil.ToFloat64(VideoFramesSent))
	assert.Equal(t, beforeBytes+100, testutil.ToFloat64(VideoBytesSent))

	s.Teardown()
	assert.Equal(t, beforeGauge, testutil.ToFloat64(InitializedSessions))
}

func TestSessionCloseAlwaysNil(t *testing.T) {
	lib := newFakeNative()
	s := sessionIn(t, lib, StateJoined)
	lib.fail("fini", -1)
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
	assert.Equal(t, StateUninitialized, s.State())
}

func TestVerifyLicense(t *testing.T) {
	lib := newFakeNative()
	require.NoError(t, verifyLicense(lib, []byte("cert")))

	lib.fail("license_verify", -3)
	err := verifyLicense(lib, []byte("cert"))
	code, ok := ErrorCodeOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrorCode(-3), code)
	assert.False(t, errors.Is(err, ErrInvalidState))
}
