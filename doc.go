// Package rtsa wraps the Agora RTSA (real-time streaming acceleration) C SDK
// with a lifecycle-safe Session and typed marshaling for every value that
// crosses the native boundary.
//
// Key pieces include:
//   - Session: the Initialize -> CreateConnection -> JoinChannel state
//     machine with idempotent LeaveChannel/DestroyConnection/Deinitialize
//     and an error-swallowing Teardown
//   - EventHandler and EventChannel for the SDK's fourteen callbacks
//   - H.264 helpers (Annex B splitting, AVCC conversion) and an RTP
//     packetizer/depacketizer pair for bridging to WebRTC
//   - Prometheus collectors for native calls, transitions and events
//
// # Lifecycle
//
//	Uninitialized -> Initialized -> ConnectionCreated -> Joined
//
// Each step has an inverse. Operations called from the wrong state fail with
// a *StateError before any native call is made. Teardown walks back to
// Uninitialized from anywhere and never fails.
//
// The SDK is a process-wide singleton: only one Session may be initialized
// at a time. A second Initialize fails fast with ErrAlreadyInitialized.
//
// # Callbacks
//
// The SDK invokes callbacks on its own threads. Handlers must not call
// Session methods that change state. Media payloads are borrowed and only
// valid until the handler returns.
//
// # Native Library
//
// By default the package uses purego (CGO_ENABLED=0) and loads
// libagora-rtc-sdk.so at first use. Set AGORA_SDK_LIB_PATH to the library
// file or AGORA_SDK_LIB_DIR to its directory, or unpack the vendor drop into
// agora_sdk/ at the module root. Build with -tags agora_cgo to link the
// library with cgo instead.
//
// Only Linux builds of the SDK exist; on other platforms every call fails
// with ErrLibraryUnavailable.
package rtsa
