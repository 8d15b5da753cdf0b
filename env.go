package levelkv

import "github.com/aalhour/levelkv/internal/native"

// Env is the engine's operating system abstraction: files, threads, time.
type Env struct {
	res *resource
}

// NewDefaultEnv returns a handle on the engine's default environment.
func NewDefaultEnv() (*Env, error) {
	if err := ensureLoaded(); err != nil {
		return nil, err
	}
	p := native.CreateDefaultEnv()
	if p == 0 {
		return nil, newError(ErrOperation, "env", "engine returned no env")
	}
	return &Env{res: newResource(p, native.EnvDestroy)}, nil
}

// Close releases the handle once no open database references it.
func (e *Env) Close() { e.res.close() }
