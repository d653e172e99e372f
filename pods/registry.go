package pods

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = map[string]Pod{}
)

func init() {
	for _, p := range []Pod{
		ScanPod{}, SegScanPod{}, ReducePod{}, SegReducePod{}, SpMVPod{}, SegmentsPackPod{},
	} {
		Register(p)
	}
}

// Register makes p available under p.Name(), replacing any pod of that name.
func Register(p Pod) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[p.Name()] = p
}

// Lookup returns the pod registered under name.
func Lookup(name string) (Pod, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	p, ok := registry[name]
	return p, ok
}

func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Run executes the named pod.
func Run(x *ExecContext, name string, in any) (any, error) {
	p, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPod, name)
	}
	return p.Run(x, in)
}
