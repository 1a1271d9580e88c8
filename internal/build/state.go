package build

import "fmt"

// State is a step of the build pipeline. A build moves through the states
// in declaration order and never goes back; Compiling repeats once per
// source.
type State int

const (
	Start State = iota
	ConfigLoaded
	DirectoriesReady
	SourcesDiscovered
	Compiling
	AllObjectsReady
	Linking
	Done
	Failed
)

var stateNames = [...]string{
	Start:             "start",
	ConfigLoaded:      "config-loaded",
	DirectoriesReady:  "directories-ready",
	SourcesDiscovered: "sources-discovered",
	Compiling:         "compiling",
	AllObjectsReady:   "all-objects-ready",
	Linking:           "linking",
	Done:              "done",
	Failed:            "failed",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// tracker enforces forward-only transitions and reports each one.
type tracker struct {
	state State
	on    func(State)
}

func (t *tracker) enter(s State) {
	switch {
	case t.state == Done || t.state == Failed:
		panic(fmt.Sprintf("build: transition %s -> %s after terminal state", t.state, s))
	case s < t.state, s == t.state && s != Compiling:
		panic(fmt.Sprintf("build: backward transition %s -> %s", t.state, s))
	}
	t.state = s
	if t.on != nil {
		t.on(s)
	}
}

// fail moves to Failed unless the build already ended.
func (t *tracker) fail() {
	if t.state == Done || t.state == Failed {
		return
	}
	t.state = Failed
	if t.on != nil {
		t.on(Failed)
	}
}
