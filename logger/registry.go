package logger

import "sync"

// The named-logger registry lets long-lived subsystems ("vb", "batch")
// fetch their component logger without threading a *Logger through
// every constructor.

var named = struct {
	mu sync.RWMutex
	m  map[string]*Logger
}{m: make(map[string]*Logger)}

// Register binds a name to a logger, replacing any previous binding.
func Register(name string, l *Logger) {
	named.mu.Lock()
	defer named.mu.Unlock()
	named.m[name] = l
}

// Get returns the logger registered under name. An unregistered name
// yields the global logger tagged with name as its component.
func Get(name string) *Logger {
	named.mu.RLock()
	l, ok := named.m[name]
	named.mu.RUnlock()
	if ok {
		return l
	}
	return GetGlobalLogger().WithComponent(name)
}

// RegisterDefaults seeds the registry with component-tagged loggers
// derived from the global logger. Call it after Init.
func RegisterDefaults(names ...string) {
	for _, name := range names {
		Register(name, GetGlobalLogger().WithComponent(name))
	}
}
