// Package activation loads a client runtime module and waits until it has
// finished activating.
//
// A runtime module exposes no completion event. It only exposes the set of
// client instances it has created, each of which reports whether it is
// still initializing. The Activator therefore polls: on every tick of a
// short interval it asks every instance, and it returns on the first tick
// where none is initializing. An empty set counts as activated.
//
//	act := activation.New(loader, activation.WithInterval(5*time.Millisecond))
//	module, err := act.Activate(ctx, sess, doc)
package activation
