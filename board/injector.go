package board

import (
	"context"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/sarchlab/psp/log"
	"github.com/sarchlab/psp/memory"
)

// Injector plants random single event upsets into a storage, the way cosmic
// rays do on a board in orbit.
type Injector struct {
	storage     *memory.Storage
	interval    time.Duration
	multiBitOdd uint32
	rng         *rand.Rand
	log         log.Logger

	injected atomic.Uint64
}

// NewInjector creates an injector planting one upset per interval. One in
// multiBitOdd upsets is uncorrectable; zero disables those.
func NewInjector(
	storage *memory.Storage,
	interval time.Duration,
	multiBitOdd uint32,
	seed uint64,
	logger log.Logger,
) *Injector {
	return &Injector{
		storage:     storage,
		interval:    interval,
		multiBitOdd: multiBitOdd,
		rng:         rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		log:         logger.Scoped("SEU"),
	}
}

// InjectOne plants a single upset at a random address and returns it.
func (i *Injector) InjectOne() memory.Fault {
	f := memory.Fault{
		Address: i.rng.Uint64N(i.storage.Capacity()),
		Kind:    memory.FaultSingleBit,
	}

	if i.multiBitOdd > 0 && i.rng.Uint32N(i.multiBitOdd) == 0 {
		f.Kind = memory.FaultMultiBit
	}

	if err := i.storage.InjectFault(f.Address, f.Kind); err != nil {
		panic(err)
	}

	i.injected.Add(1)
	i.log.Debug().
		Str("kind", f.Kind.String()).
		Uint64("address", f.Address).
		Msg("upset injected")

	return f
}

// Injected returns how many upsets were planted.
func (i *Injector) Injected() uint64 {
	return i.injected.Load()
}

// Run injects until ctx is done.
func (i *Injector) Run(ctx context.Context) {
	ticker := time.NewTicker(i.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			i.InjectOne()
		}
	}
}
