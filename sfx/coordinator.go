// Package sfx owns the process-wide sound registry. A Coordinator keeps one
// resource per named sound and guarantees that, per key, only the most
// recently issued command is ever audible.
//
// Every command mints a new generation for the key before doing anything
// else. Playback starts on its own goroutine; once the backend reports the
// start, the generation captured at call time is compared with the current
// one under the coordinator lock and a superseded voice is stopped at once.
// Different keys are independent and may overlap.
package sfx

import (
	"log/slog"
	"sync"
)

// Default sound keys.
const (
	KeyPomo   = "pomo"
	KeyCrack  = "crack"
	KeyHatch  = "hatch"
	KeyEvolve = "evolve"
)

// DefaultKeys lists the sounds loaded at startup.
var DefaultKeys = []string{KeyPomo, KeyCrack, KeyHatch, KeyEvolve}

// DefaultVolume matches the volume the assets were mixed for.
const DefaultVolume = 0.9

// Activity is the logical state of a sound resource.
type Activity int

const (
	Idle Activity = iota
	PlayingOnce
	Looping
)

func (a Activity) String() string {
	switch a {
	case PlayingOnce:
		return "playing-once"
	case Looping:
		return "looping"
	default:
		return "idle"
	}
}

// StartOptions describe a single playback request to the backend.
type StartOptions struct {
	Loop   bool
	Volume float64
	Muted  bool
}

// Voice is one started playback. Done is closed when it ends, either
// naturally or through Stop.
type Voice interface {
	Stop()
	Done() <-chan struct{}
}

// Player is the audio backend. Start may block until playback has begun.
type Player interface {
	Start(key string, opts StartOptions) (Voice, error)
}

type resource struct {
	key        string
	generation uint64
	activity   Activity
	voice      Voice
}

// Coordinator serializes play/loop/stop commands per sound key.
type Coordinator struct {
	mu        sync.Mutex
	player    Player
	volume    float64
	resources map[string]*resource
	keys      []string
	warmed    bool
	warmDone  chan struct{}
	closed    bool
}

// NewCoordinator creates a registry for keys backed by player.
func NewCoordinator(player Player, keys []string, volume float64) *Coordinator {
	if volume <= 0 || volume > 1 {
		volume = DefaultVolume
	}
	c := &Coordinator{
		player:    player,
		volume:    volume,
		resources: make(map[string]*resource, len(keys)),
		warmDone:  make(chan struct{}),
	}
	for _, key := range keys {
		if _, ok := c.resources[key]; ok {
			continue
		}
		c.resources[key] = &resource{key: key}
		c.keys = append(c.keys, key)
	}
	return c
}

// Keys returns the registered sound keys in registration order.
func (c *Coordinator) Keys() []string {
	return append([]string(nil), c.keys...)
}

// Warmup primes every resource once per coordinator lifetime with a muted
// start that is stopped immediately. Later calls are no-ops. It must be
// called before any other audio command of the first user interaction; it
// returns at once and the priming runs in the background.
func (c *Coordinator) Warmup() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.warmed || c.closed {
		return
	}
	c.warmed = true
	keys := c.Keys()

	go func() {
		defer close(c.warmDone)
		for _, key := range keys {
			voice, err := c.player.Start(key, StartOptions{Volume: c.volume, Muted: true})
			if err != nil {
				slog.Debug("Coordinator.Warmup: start failed", "key", key, "error", err)
				continue
			}
			voice.Stop()
		}
		slog.Debug("Coordinator.Warmup: done", "keys", len(keys))
	}()
}

// WarmedUp is closed once the background warmup has finished.
func (c *Coordinator) WarmedUp() <-chan struct{} {
	return c.warmDone
}

// PlayOnce rewinds key and plays it a single time. The returned channel is
// closed once the request has settled.
func (c *Coordinator) PlayOnce(key string) <-chan struct{} {
	return c.begin(key, false)
}

// Loop restarts key and repeats it until a newer command for key arrives.
func (c *Coordinator) Loop(key string) <-chan struct{} {
	return c.begin(key, true)
}

// Stop invalidates anything in flight for key and silences it.
func (c *Coordinator) Stop(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.resources[key]
	if !ok {
		return
	}
	c.stopLocked(r)
}

// StopAll stops every known key.
func (c *Coordinator) StopAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range c.keys {
		c.stopLocked(c.resources[key])
	}
}

// Activity reports the logical state of key.
func (c *Coordinator) Activity(key string) Activity {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.resources[key]; ok {
		return r.activity
	}
	return Idle
}

// Generation reports the current generation token of key.
func (c *Coordinator) Generation(key string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r, ok := c.resources[key]; ok {
		return r.generation
	}
	return 0
}

// Close stops all sounds and rejects further play requests.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range c.keys {
		c.stopLocked(c.resources[key])
	}
	c.closed = true
}

func (c *Coordinator) begin(key string, loop bool) <-chan struct{} {
	settled := make(chan struct{})

	c.mu.Lock()
	r, ok := c.resources[key]
	if !ok || c.closed {
		c.mu.Unlock()
		slog.Debug("Coordinator: ignoring request", "key", key, "known", ok)
		close(settled)
		return settled
	}
	token := c.mintLocked(r)
	c.haltLocked(r)
	if loop {
		r.activity = Looping
	} else {
		r.activity = PlayingOnce
	}
	c.mu.Unlock()

	go func() {
		defer close(settled)
		c.start(r, token, loop)
	}()
	return settled
}

func (c *Coordinator) start(r *resource, token uint64, loop bool) {
	voice, err := c.player.Start(r.key, StartOptions{Loop: loop, Volume: c.volume})

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		slog.Debug("Coordinator: playback failed", "key", r.key, "error", err)
		if r.generation == token {
			r.activity = Idle
		}
		return
	}
	if r.generation != token {
		slog.Debug("Coordinator: superseded, stopping", "key", r.key, "token", token, "current", r.generation)
		voice.Stop()
		return
	}
	r.voice = voice
	if !loop {
		go c.watch(r, token, voice)
	}
}

// watch returns a one-shot resource to idle when its voice ends naturally.
func (c *Coordinator) watch(r *resource, token uint64, voice Voice) {
	<-voice.Done()
	c.mu.Lock()
	defer c.mu.Unlock()
	if r.generation == token && r.voice == voice {
		r.voice = nil
		r.activity = Idle
	}
}

func (c *Coordinator) stopLocked(r *resource) {
	c.mintLocked(r)
	c.haltLocked(r)
	r.activity = Idle
}

func (c *Coordinator) mintLocked(r *resource) uint64 {
	r.generation++
	return r.generation
}

func (c *Coordinator) haltLocked(r *resource) {
	if r.voice == nil {
		return
	}
	r.voice.Stop()
	r.voice = nil
}
