package nettest

import (
	"strings"
	"sync"

	"github.com/feta-zk/feta/internal/player"
)

// RunMesh stands up a full N+1-party mesh on loopback TLS and runs fn
// concurrently for every party index in [0,n], returning each party's
// error (nil entries on success). It is the shared scaffolding every
// preprocessing/proof integration test in this project uses instead of
// mocking the network layer.
func RunMesh(dir string, n int, fn func(idx int, p *player.Player) error) ([]error, error) {
	ports, err := GenerateFixture(dir, n)
	if err != nil {
		return nil, err
	}
	cfgText := ConfigText(dir, ports)

	errs := make([]error, n+1)
	var wg sync.WaitGroup
	wg.Add(n + 1)
	for i := 0; i <= n; i++ {
		i := i
		go func() {
			defer wg.Done()
			p, err := player.New(i, n, strings.NewReader(cfgText))
			if err != nil {
				errs[i] = err
				return
			}
			errs[i] = fn(i, p)
		}()
	}
	wg.Wait()
	return errs, nil
}
