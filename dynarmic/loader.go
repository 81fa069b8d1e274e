package dynarmic

import (
	"fmt"
	"os"
	"sync"

	"github.com/wnxd/dynarmic/internal/soft"
)

const (
	DefaultEngine = "soft"
	EngineEnv     = "DYNARMIC_ENGINE"
)

var (
	engineMu  sync.Mutex
	engineMap = make(map[string]Engine)

	loadOnce sync.Once
	loaded   Engine
	loadErr  error
)

var _ = Register(DefaultEngine, soft.New())

// Register makes an engine available to Load under name. The first
// registration of a name wins.
func Register(name string, e Engine) bool {
	engineMu.Lock()
	defer engineMu.Unlock()
	if _, ok := engineMap[name]; ok {
		return false
	}
	engineMap[name] = e
	return true
}

// Load resolves the process engine, named by $DYNARMIC_ENGINE or
// DefaultEngine, and loads it. Resolution happens once per process; later
// calls return the cached result.
func Load() (Engine, error) {
	loadOnce.Do(func() {
		name := os.Getenv(EngineEnv)
		if name == "" {
			name = DefaultEngine
		}
		engineMu.Lock()
		e, ok := engineMap[name]
		engineMu.Unlock()
		if !ok {
			loadErr = fmt.Errorf("%w: engine %q not registered", ErrEngineLoad, name)
			return
		}
		if loadErr = loadEngine(e); loadErr == nil {
			loaded = e
		}
	})
	return loaded, loadErr
}

func loadEngine(e Engine) error {
	if err := e.Load(); err != nil {
		return fmt.Errorf("%w: %w", ErrEngineLoad, err)
	}
	return nil
}
