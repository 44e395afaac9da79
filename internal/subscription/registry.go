// Package subscription holds the broker's table of active subscriptions.
//
// The Registry does no locking of its own: the broker serializes every call
// behind its subscription lock.
package subscription

import (
	"github.com/casualjim/evbroker/events"
	"github.com/casualjim/evbroker/pkg/reflectx"
	"github.com/casualjim/evbroker/pkg/uuidx"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Token is the opaque handle returned for a subscription.
type Token string

func (t Token) String() string {
	return string(t)
}

// Callback receives a delivered event. A returned error is logged by the
// broker and otherwise ignored.
type Callback func(events.Event) error

// Subscription is a registered interest. It is immutable once added.
type Subscription struct {
	Token    Token
	Callback Callback
	// Name identifies the callback in logs.
	Name string
	// Types is nil for subscriptions that receive every event type.
	Types   map[events.EventType]struct{}
	OneShot bool
}

// Matches reports whether events of type t are delivered to s.
func (s *Subscription) Matches(t events.EventType) bool {
	if s.Types == nil {
		return true
	}
	_, ok := s.Types[t]
	return ok
}

type Registry struct {
	subs *orderedmap.OrderedMap[Token, *Subscription]
}

func New() *Registry {
	return &Registry{subs: orderedmap.New[Token, *Subscription]()}
}

// Add stores a new subscription and returns its freshly generated token.
// A nil or empty types slice subscribes to all event types.
func (r *Registry) Add(callback Callback, types []events.EventType, oneShot bool) Token {
	return r.AddNamed(reflectx.FunctionName(callback), callback, types, oneShot)
}

// AddNamed is Add for callbacks that wrap another function, where name
// should identify the wrapped function rather than the wrapper.
func (r *Registry) AddNamed(name string, callback Callback, types []events.EventType, oneShot bool) Token {
	sub := &Subscription{
		Token:    Token(uuidx.NewString()),
		Callback: callback,
		Name:     name,
		OneShot:  oneShot,
	}
	if len(types) > 0 {
		sub.Types = make(map[events.EventType]struct{}, len(types))
		for _, t := range types {
			sub.Types[t] = struct{}{}
		}
	}
	r.subs.Set(sub.Token, sub)
	return sub.Token
}

// Remove deletes the subscription for token. Unknown tokens are ignored;
// the return value tells whether anything was removed.
func (r *Registry) Remove(token Token) bool {
	_, present := r.subs.Delete(token)
	return present
}

func (r *Registry) Get(token Token) (*Subscription, bool) {
	return r.subs.Get(token)
}

func (r *Registry) Len() int {
	return r.subs.Len()
}

// Match returns, in registration order, every subscription interested in
// eventType. The result is a fresh slice, so the caller may remove entries
// from the registry while walking it.
func (r *Registry) Match(eventType events.EventType) []*Subscription {
	var matched []*Subscription
	for pair := r.subs.Oldest(); pair != nil; pair = pair.Next() {
		if pair.Value.Matches(eventType) {
			matched = append(matched, pair.Value)
		}
	}
	return matched
}
