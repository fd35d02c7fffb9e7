package rtsa

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Session owns one initialization of the Agora RTC library and at most one
// connection. Mutating operations are serialized; accessors and sends may
// run concurrently with each other.
//
// The library supports a single initialization per process. A second
// Session calling Initialize while another is initialized fails with
// ErrAlreadyInitialized.
type Session struct {
	id    string
	appID string
	log   zerolog.Logger
	lib   nativeLib

	mu            sync.RWMutex
	state         State
	handler       EventHandler
	customHandler bool
	retained      *retainedInit
	connID        uint32
	channel       string
	token         string
	uid           uint32
	defaultInfo   *VideoFrameInfo
}

// Option configures a Session at construction.
type Option func(*Session)

// WithLogger sets the logger used for session diagnostics and by the
// default event handler.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Session) {
		s.log = l
	}
}

// WithEventHandler replaces the default logging event handler.
func WithEventHandler(h EventHandler) Option {
	return func(s *Session) {
		s.handler = h
		s.customHandler = true
	}
}

// WithDefaultVideoInfo sets the frame info used by SendVideoDataDefault.
func WithDefaultVideoInfo(info VideoFrameInfo) Option {
	return func(s *Session) {
		s.defaultInfo = &info
	}
}

// withNative substitutes the library backend.
func withNative(lib nativeLib) Option {
	return func(s *Session) {
		s.lib = lib
	}
}

// NewSession creates an uninitialized session for appID. The vendor library
// is loaded on first use; ErrLibraryUnavailable is returned if it cannot be.
func NewSession(appID string, opts ...Option) (*Session, error) {
	s := &Session{
		id:    uuid.NewString(),
		appID: appID,
		log:   log.Logger.With().Str("component", "rtsa").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.defaultInfo != nil {
		if _, err := marshalVideoFrameInfo(*s.defaultInfo); err != nil {
			return nil, err
		}
	}
	if s.lib == nil {
		lib, err := loadDefaultNative()
		if err != nil {
			return nil, err
		}
		s.lib = lib
	}
	s.log = s.log.With().Str("session", s.id).Logger()
	if !s.customHandler {
		s.handler = DefaultEventHandler(s.log)
	}

	runtime.SetFinalizer(s, finalizeSession)
	return s, nil
}

func finalizeSession(s *Session) {
	if s.State() == StateUninitialized {
		return
	}
	s.log.Warn().Stringer("state", s.State()).Msg("session collected without Close, tearing down")
	s.Teardown()
}

// ID is a random identifier used to correlate log lines.
func (s *Session) ID() string { return s.id }

// AppID returns the application id the session initializes with.
func (s *Session) AppID() string { return s.appID }

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsJoined reports whether the session is in a channel.
func (s *Session) IsJoined() bool {
	return s.State() == StateJoined
}

// ConnID returns the native connection id, if one exists.
func (s *Session) ConnID() (uint32, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.connID, s.state.hasConnection()
}

// Channel returns the name of the joined channel, or "".
func (s *Session) Channel() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.channel
}

// UID returns the user id of the last successful join.
func (s *Session) UID() uint32 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.uid
}

// SetEventHandler replaces the handler table. The table is handed to the
// library at Initialize, so it can only change while uninitialized.
func (s *Session) SetEventHandler(h EventHandler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateUninitialized {
		return &StateError{Op: "set_event_handler", State: s.state}
	}
	s.handler = h
	return nil
}

// SetDefaultVideoInfo sets the frame info used by SendVideoDataDefault.
func (s *Session) SetDefaultVideoInfo(info VideoFrameInfo) error {
	if _, err := marshalVideoFrameInfo(info); err != nil {
		return err
	}
	s.mu.Lock()
	s.defaultInfo = &info
	s.mu.Unlock()
	return nil
}

func (s *Session) transition(to State) {
	from := s.state
	s.state = to
	observeTransition(from, to)
	s.log.Debug().Stringer("from", from).Stringer("to", to).Msg("state transition")
}

// call records and translates one native status code.
func (s *Session) call(op string, code int32) error {
	observeNativeCall(op, code)
	err := result(op, code)
	if err != nil {
		s.log.Warn().Str("op", op).Int32("code", code).Msg("native call failed")
	}
	return err
}

// Initialize registers the event handler table and service options with the
// library. Buffers the library may retain stay pinned until Deinitialize.
func (s *Session) Initialize(opts ServiceOptions) error {
	const op = "initialize"
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateUninitialized {
		return &StateError{Op: op, State: s.state}
	}
	r, err := marshalServiceOptions(s.appID, opts)
	if err != nil {
		return err
	}
	if !processGuard.acquire(s.id) {
		r.release()
		return &StateError{Op: op, State: s.state, Err: fmt.Errorf("%w (held by session %s)", ErrAlreadyInitialized, processGuard.holder())}
	}

	h := s.handler
	installHandler(&h, s.log)
	if err := s.call("agora_rtc_init", s.lib.initialize(r.appID, r.opt)); err != nil {
		clearHandler()
		processGuard.release(s.id)
		r.release()
		return err
	}
	s.retained = r
	s.transition(StateInitialized)
	s.log.Info().Stringer("area", opts.AreaCode).Stringer("log_level", opts.Log.Level).Msg("initialized")
	return nil
}

// CreateConnection allocates a native connection and returns its id.
func (s *Session) CreateConnection() (uint32, error) {
	const op = "create_connection"
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateInitialized {
		return 0, &StateError{Op: op, State: s.state}
	}
	var id uint32
	if err := s.call("agora_rtc_create_connection", s.lib.createConnection(&id)); err != nil {
		return 0, err
	}
	s.connID = id
	s.transition(StateConnectionCreated)
	s.log.Info().Uint32("conn_id", id).Msg("connection created")
	return id, nil
}

// JoinChannel joins channel as uid. An empty token is passed as NULL.
// Calling it while joined rejoins with the new parameters.
func (s *Session) JoinChannel(channel string, uid uint32, token string, opts ChannelOptions) error {
	const op = "join_channel"
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.hasConnection() {
		return &StateError{Op: op, State: s.state}
	}
	name, err := encodeString("channel_name", channel)
	if err != nil {
		return err
	}
	tok, err := encodeOptionalString("token", token)
	if err != nil {
		return err
	}
	copts, err := marshalChannelOptions(opts)
	if err != nil {
		return err
	}

	if err := s.call("agora_rtc_join_channel", s.lib.joinChannel(s.connID, name, uid, tok, &copts)); err != nil {
		return err
	}
	s.channel = channel
	s.token = token
	s.uid = uid
	if s.state != StateJoined {
		s.transition(StateJoined)
	}
	s.log.Info().Uint32("conn_id", s.connID).Str("channel", channel).Uint32("uid", uid).Msg("joined channel")
	return nil
}

// SendVideoData sends one encoded frame. data is only read for the duration
// of the call.
func (s *Session) SendVideoData(data []byte, info VideoFrameInfo) error {
	const op = "send_video_data"
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state != StateJoined {
		return &StateError{Op: op, State: s.state}
	}
	return s.sendLocked(data, info)
}

// SendVideoDataDefault sends data with the session's default frame info.
func (s *Session) SendVideoDataDefault(data []byte) error {
	const op = "send_video_data"
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.state != StateJoined {
		return &StateError{Op: op, State: s.state}
	}
	if s.defaultInfo == nil {
		return fmt.Errorf("%s: %w", op, ErrNoDefaultConfigured)
	}
	return s.sendLocked(data, *s.defaultInfo)
}

func (s *Session) sendLocked(data []byte, info VideoFrameInfo) error {
	cinfo, err := marshalVideoFrameInfo(info)
	if err != nil {
		return err
	}
	code := s.lib.sendVideoData(s.connID, data, &cinfo)
	observeNativeCall("agora_rtc_send_video_data", code)
	if err := result("agora_rtc_send_video_data", code); err != nil {
		return err
	}
	observeVideoSent(len(data))
	return nil
}

// MuteLocalAudio stops or resumes sending local audio.
func (s *Session) MuteLocalAudio(mute bool) error {
	const op = "mute_local_audio"
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.hasConnection() {
		return &StateError{Op: op, State: s.state}
	}
	return s.call("agora_rtc_mute_local_audio", s.lib.muteLocalAudio(s.connID, mute))
}

// LeaveChannel leaves the joined channel. It is a no-op when not joined.
func (s *Session) LeaveChannel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leaveLocked()
}

// A failed leave still drops the joined state: the channel membership is
// not usable after the library rejects the leave.
func (s *Session) leaveLocked() error {
	if s.state != StateJoined {
		return nil
	}
	err := s.call("agora_rtc_leave_channel", s.lib.leaveChannel(s.connID))
	if err != nil {
		s.log.Warn().Err(err).Uint32("conn_id", s.connID).Str("channel", s.channel).Msg("leave channel failed")
	} else {
		s.log.Info().Uint32("conn_id", s.connID).Str("channel", s.channel).Msg("left channel")
	}
	s.channel = ""
	s.token = ""
	s.transition(StateConnectionCreated)
	return err
}

// DestroyConnection releases the native connection, leaving the channel
// first if needed. It is a no-op when no connection exists.
func (s *Session) DestroyConnection() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.destroyLocked()
}

func (s *Session) destroyLocked() error {
	if !s.state.hasConnection() {
		return nil
	}
	var errs *multierror.Error
	if err := s.leaveLocked(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := s.call("agora_rtc_destroy_connection", s.lib.destroyConnection(s.connID)); err != nil {
		errs = multierror.Append(errs, err)
	}
	s.log.Info().Uint32("conn_id", s.connID).Msg("connection destroyed")
	s.connID = 0
	s.transition(StateInitialized)
	return errs.ErrorOrNil()
}

// Deinitialize destroys any connection and shuts the library down. It is a
// no-op when uninitialized.
func (s *Session) Deinitialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deinitLocked()
}

// abandoned holds init buffers whose fini failed. The library may still
// reference them, so they stay pinned for the life of the process.
var (
	abandonedMu sync.Mutex
	abandoned   []*retainedInit
)

func (s *Session) deinitLocked() error {
	if s.state == StateUninitialized {
		return nil
	}
	var errs *multierror.Error
	if err := s.destroyLocked(); err != nil {
		errs = multierror.Append(errs, err)
	}
	finiErr := s.call("agora_rtc_fini", s.lib.fini())
	clearHandler()
	if finiErr != nil {
		errs = multierror.Append(errs, finiErr)
		abandonedMu.Lock()
		abandoned = append(abandoned, s.retained)
		abandonedMu.Unlock()
	} else {
		s.retained.release()
	}
	s.retained = nil
	processGuard.release(s.id)
	s.uid = 0
	s.transition(StateUninitialized)
	s.log.Info().Msg("deinitialized")
	return errs.ErrorOrNil()
}

// Teardown leaves, destroys the connection and deinitializes, in that
// order, from whatever state the session is in. Failures are logged and
// swallowed; the session always ends uninitialized.
func (s *Session) Teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs *multierror.Error
	if err := s.leaveLocked(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := s.destroyLocked(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := s.deinitLocked(); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := errs.ErrorOrNil(); err != nil {
		s.log.Debug().Err(err).Msg("teardown finished with errors")
	}
}

// Close tears the session down. It always returns nil.
func (s *Session) Close() error {
	s.Teardown()
	runtime.SetFinalizer(s, nil)
	return nil
}

// ErrorReason asks the library for the text of a status code. The library
// must be initialized.
func (s *Session) ErrorReason(code ErrorCode) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == StateUninitialized {
		return "", &StateError{Op: "error_reason", State: s.state}
	}
	return s.lib.errorString(int32(code))
}
