// Package server is a reference implementation of the server side of the
// shell's contracts.
//
// It serves the init endpoint (GET VAADIN/?v-r=init), which creates an
// app session and answers with its JSON AppConfig, and the push endpoint
// (GET VAADIN/push?v-a={appId}), a WebSocket over which the shell sends
// Connect frames. Each Connect is handed to a ViewBinder; when it
// succeeds the server answers with a Ready frame for the element,
// otherwise with an Error frame scoped to the element.
//
// The server does not render anything. A ViewBinder decides which routes
// exist; RouteBinder matches them with chi route patterns:
//
//	srv := server.New(nil, server.NewRouteBinder("/", "main/users", "users/{id}"))
//	http.ListenAndServe(":3000", srv.Handler())
package server
