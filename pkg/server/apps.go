package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// App is a server-side UI session created by an init request.
type App struct {
	ID             string
	ProductionMode bool
	CreatedAt      time.Time
}

// Apps is the registry of live app sessions.
type Apps struct {
	mu   sync.RWMutex
	apps map[string]*App
	max  int
}

// NewApps creates a registry holding at most max apps (0 = unlimited).
func NewApps(max int) *Apps {
	return &Apps{
		apps: make(map[string]*App),
		max:  max,
	}
}

// Create allocates a new app with a random id.
func (a *Apps) Create(productionMode bool) (*App, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.max > 0 && len(a.apps) >= a.max {
		return nil, ErrMaxAppsReached
	}
	app := &App{
		ID:             uuid.NewString(),
		ProductionMode: productionMode,
		CreatedAt:      time.Now(),
	}
	a.apps[app.ID] = app
	return app, nil
}

// Get returns the app with the given id.
func (a *Apps) Get(id string) (*App, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	app, ok := a.apps[id]
	if !ok {
		return nil, ErrAppNotFound
	}
	return app, nil
}

// Remove deletes an app. Removing an unknown id is a no-op.
func (a *Apps) Remove(id string) {
	a.mu.Lock()
	delete(a.apps, id)
	a.mu.Unlock()
}

// Len returns the number of live apps.
func (a *Apps) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.apps)
}
