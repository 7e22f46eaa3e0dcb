// Package bootstrap orchestrates the shell: one-time session
// initialization, runtime activation and navigation to server-side views.
//
// # Lifecycle
//
// A Bootstrapper moves through three states:
//
//	NotStarted → Starting → Started
//
// Start runs the session initializer, then the runtime activator, then the
// optional Imports hook, strictly in that order. Concurrent calls share
// the single in-flight run; once Started, Start returns the cached
// Session without touching the network. A failure at any step returns the
// Bootstrapper to NotStarted so a later Start may try again.
//
// # Navigation
//
// Navigate starts the Bootstrapper if needed, allocates a fresh
// placeholder element for the path, asks the server bridge to bind the
// path to it and returns once the server reports the view ready:
//
//	b := bootstrap.New(initializer, activator, &bootstrap.Config{
//	    Imports: registerModules,
//	})
//	el, err := b.Navigate(ctx, "main/users")
//	// el.ID == "flow-main-users-0"
//
// Every navigation gets its own element, even for a path seen before.
// Navigate has no timeout of its own; bound it with ctx.
package bootstrap
