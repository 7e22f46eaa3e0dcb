// Package protocol implements the wire formats spoken between the shell
// and the server.
//
// Two transports are involved:
//
//   - The init endpoint (GET VAADIN/?v-r=init) answers with a JSON
//     AppConfig describing the server-side UI session.
//   - The push endpoint (GET VAADIN/push?v-a={appId}) is a WebSocket over
//     which binary frames are exchanged.
//
// # Wire Format
//
// Every WebSocket message is one frame with a 4-byte header:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Flags        │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (2 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// # Frame Types
//
//   - FrameHandshake (0x00): client → server app id, server → client ack
//   - FrameConnect (0x01): client → server request to bind a route to an element
//   - FrameReady (0x02): server → client, the element's view is bound
//   - FrameControl (0x03): ping / pong
//   - FrameError (0x05): error, optionally scoped to one element
//
// # Encoding
//
// Strings are length-prefixed with an unsigned varint (protobuf-style).
// Fixed-width integers are big-endian.
//
//	Connect: [Tag: len-prefixed][ElementID: len-prefixed][Path: len-prefixed]
//	Ready:   [ElementID: len-prefixed]
package protocol
