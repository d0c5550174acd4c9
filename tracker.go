package buildcfg

// Tracker collects change-tracking declarations: the paths and
// environment variables whose change must trigger a fresh run.
//
// Declarations are deduplicated and keep their first-seen order so the
// emitted output is stable across runs.
type Tracker struct {
	paths []string
	vars  []string

	seenPaths map[string]struct{}
	seenVars  map[string]struct{}
}

// NewTracker returns an empty [Tracker].
func NewTracker() *Tracker {
	return &Tracker{
		seenPaths: map[string]struct{}{},
		seenVars:  map[string]struct{}{},
	}
}

// Path declares a file or directory dependency.
func (t *Tracker) Path(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, ok := t.seenPaths[p]; ok {
			continue
		}
		t.seenPaths[p] = struct{}{}
		t.paths = append(t.paths, p)
	}
}

// Env declares an environment variable dependency.
func (t *Tracker) Env(keys ...string) {
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := t.seenVars[k]; ok {
			continue
		}
		t.seenVars[k] = struct{}{}
		t.vars = append(t.vars, k)
	}
}

// Paths returns a copy of the declared paths.
func (t *Tracker) Paths() []string {
	return append([]string(nil), t.paths...)
}

// EnvVars returns a copy of the declared variable names.
func (t *Tracker) EnvVars() []string {
	return append([]string(nil), t.vars...)
}
