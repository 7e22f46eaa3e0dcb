package dom

import (
	"errors"
	"sync"
	"testing"
)

func TestCreateElementIDs(t *testing.T) {
	d := NewDocument()

	first := d.CreateElement(TagFor("main/users"), "main/users")
	if first.ID != "flow-main-users-0" {
		t.Fatalf("first.ID = %q, want %q", first.ID, "flow-main-users-0")
	}
	if first.Tag != "flow-main-users" {
		t.Errorf("first.Tag = %q, want %q", first.Tag, "flow-main-users")
	}

	second := d.CreateElement(TagFor("settings"), "settings")
	if second.ID != "flow-settings-1" {
		t.Errorf("second.ID = %q, want %q", second.ID, "flow-settings-1")
	}

	again := d.CreateElement(TagFor("main/users"), "main/users")
	if again.ID != "flow-main-users-2" {
		t.Errorf("again.ID = %q, want %q", again.ID, "flow-main-users-2")
	}
	if again == first {
		t.Error("navigating to the same path reused an element")
	}

	if d.Len() != 3 {
		t.Errorf("Len() = %d, want 3", d.Len())
	}
	if d.Counter() != 3 {
		t.Errorf("Counter() = %d, want 3", d.Counter())
	}

	got, ok := d.Lookup(second.ID)
	if !ok || got != second {
		t.Errorf("Lookup(%q) = %v, %v", second.ID, got, ok)
	}
}

func TestCreateElementConcurrentUnique(t *testing.T) {
	d := NewDocument()

	const n = 200
	ids := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ids <- d.CreateElement(TagFor("same"), "same").ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[string]bool, n)
	for id := range ids {
		if seen[id] {
			t.Fatalf("id %q issued twice", id)
		}
		seen[id] = true
	}
	if d.Len() != n {
		t.Errorf("Len() = %d, want %d", d.Len(), n)
	}
}

func TestServerConnectedFiresOnce(t *testing.T) {
	d := NewDocument()
	el := d.CreateElement("flow-a", "a")

	if err := d.ServerConnected(el.ID); !errors.Is(err, ErrNotAwaiting) {
		t.Fatalf("ServerConnected before callback: err = %v, want ErrNotAwaiting", err)
	}

	calls := 0
	el.SetServerConnected(func(err error) {
		if err != nil {
			t.Errorf("callback err = %v, want nil", err)
		}
		calls++
	})

	if err := d.ServerConnected(el.ID); err != nil {
		t.Fatalf("ServerConnected: %v", err)
	}
	if err := d.ServerConnected(el.ID); !errors.Is(err, ErrNotAwaiting) {
		t.Errorf("second ServerConnected: err = %v, want ErrNotAwaiting", err)
	}
	if el.ServerConnected() {
		t.Error("element fired a third time")
	}
	if calls != 1 {
		t.Errorf("callback ran %d times, want 1", calls)
	}
	if !el.Connected() {
		t.Error("Connected() = false after readiness")
	}

	el.SetServerConnected(func(error) { calls++ })
	el.ServerConnected()
	if calls != 1 {
		t.Error("callback installed after firing was run")
	}
}

func TestFail(t *testing.T) {
	d := NewDocument()
	el := d.CreateElement("flow-a", "a")

	cause := errors.New("no such view")
	var got error
	el.SetServerConnected(func(err error) { got = err })

	if err := d.Fail(el.ID, cause); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if !errors.Is(got, cause) {
		t.Errorf("callback err = %v, want %v", got, cause)
	}
	if el.Connected() {
		t.Error("Connected() = true after Fail")
	}
	if !errors.Is(el.Err(), cause) {
		t.Errorf("Err() = %v, want %v", el.Err(), cause)
	}
	if err := d.ServerConnected(el.ID); !errors.Is(err, ErrNotAwaiting) {
		t.Errorf("ServerConnected after Fail: err = %v, want ErrNotAwaiting", err)
	}
}

func TestUnknownElement(t *testing.T) {
	d := NewDocument()
	if err := d.ServerConnected("flow-x-9"); !errors.Is(err, ErrElementNotFound) {
		t.Errorf("ServerConnected: err = %v, want ErrElementNotFound", err)
	}
	if err := d.Fail("flow-x-9", nil); !errors.Is(err, ErrElementNotFound) {
		t.Errorf("Fail: err = %v, want ErrElementNotFound", err)
	}
}
