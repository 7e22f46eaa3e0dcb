// Package session performs the one-time handshake that creates a
// server-side UI session.
//
// The Initializer issues a single GET to {base}/VAADIN/?v-r=init and
// decodes the JSON answer into a Session. It never retries: a transport
// failure, a non-2xx status, a non-JSON content type or a body without an
// app id is reported as an *InitializationError.
//
//	ini, err := session.NewInitializer("http://localhost:3000/")
//	if err != nil {
//	    return err
//	}
//	sess, err := ini.Initialize(ctx)
package session
