// Package client is a headless client runtime for the shell.
//
// A Runtime is an activation.Module: ApplyBootstrap records the session
// and document, Init opens a push connection in the background, and each
// connection reports Initializing until the WebSocket handshake with the
// server completes. Once open, the connection is the shell's
// bridge.Bridge: ConnectClient sends a Connect frame, and the connection's
// read loop turns Ready and Error frames from the server into
// ServerConnected and Fail calls on the document.
//
//	rt := client.New()
//	defer rt.Close()
//	act := activation.New(rt.Loader())
package client
