package board_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/psp/board"
	"github.com/sarchlab/psp/log"
	"github.com/sarchlab/psp/memory"
	"github.com/sarchlab/psp/osal"
	"github.com/sarchlab/psp/scrub"
)

var _ = Describe("Board", func() {
	It("should find boards by name", func() {
		b, err := board.ByName("gr740")
		Expect(err).NotTo(HaveOccurred())
		Expect(b.Capabilities).To(Equal(scrub.FullCapabilities()))

		_, err = board.ByName("z80")
		Expect(err).To(HaveOccurred())
		Expect(board.Names()).To(Equal([]string{"gr740", "pc686"}))
	})

	It("should report the highest valid address as top of RAM", func() {
		Expect(board.GR740().TopOfRAM()).To(Equal(uint64(256*memory.MB - 1)))
	})

	It("should omit the optional checks on the pc686", func() {
		Expect(board.PC686().Capabilities).To(Equal(scrub.Capabilities{}))
		Expect(board.PC686().Defaults.RunMode).To(Equal(scrub.RunModeIdle))
	})
})

var _ = Describe("Platform", func() {
	var (
		kernel   *osal.Kernel
		platform *board.Platform
	)

	BeforeEach(func() {
		kernel = osal.NewKernel(log.NewTestLogger(nil))
		platform = board.NewPlatform(board.GR740(), kernel)
	})

	It("should re-prioritize a task by name", func() {
		id, err := kernel.CreateTask("Scrub", func(ctx context.Context) {
			<-ctx.Done()
		}, 200)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { _ = kernel.DeleteTask(id) })

		Expect(platform.SetTaskPriority("Scrub", 120)).To(Succeed())

		priority, err := kernel.TaskPriority(id)
		Expect(err).NotTo(HaveOccurred())
		Expect(priority).To(Equal(osal.Priority(120)))
	})

	It("should fail for unknown tasks", func() {
		Expect(platform.SetTaskPriority("Nobody", 120)).
			To(MatchError(osal.ErrNameNotFound))
	})
})

var _ = Describe("Reporter", func() {
	It("should convert the latched engine counters", func() {
		storage := memory.NewStorage(1 * memory.MB)
		engine := memory.NewScrubEngine(storage)
		reporter := board.NewReporter(memory.NewErrorRegisters(engine))

		Expect(storage.InjectFault(0x10, memory.FaultSingleBit)).To(Succeed())
		Expect(storage.InjectFault(0x2000, memory.FaultMultiBit)).To(Succeed())
		_, err := engine.ScrubRange(0, 0x4000)
		Expect(err).NotTo(HaveOccurred())

		Expect(reporter.RefreshErrorStats()).To(Equal(scrub.ErrorStats{
			TotalErrors:     2,
			CorrectedErrors: 1,
			MultiBitErrors:  1,
			LastErrorAddr:   0x2000,
			ScrubRuns:       1,
		}))
	})
})

var _ = Describe("Injector", func() {
	It("should plant upsets inside the storage", func() {
		storage := memory.NewStorage(64 * memory.KB)
		injector := board.NewInjector(storage, time.Millisecond, 0, 1, log.NewTestLogger(nil))

		for i := 0; i < 10; i++ {
			f := injector.InjectOne()
			Expect(f.Address).To(BeNumerically("<", storage.Capacity()))
			Expect(f.Kind).To(Equal(memory.FaultSingleBit))
		}

		Expect(injector.Injected()).To(Equal(uint64(10)))
		Expect(storage.Faults(0, storage.Capacity())).NotTo(BeEmpty())
	})

	It("should stop with its context", func() {
		storage := memory.NewStorage(64 * memory.KB)
		injector := board.NewInjector(storage, time.Millisecond, 2, 7, log.NewTestLogger(nil))
		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan struct{})
		go func() {
			injector.Run(ctx)
			close(done)
		}()

		Eventually(injector.Injected).Should(BeNumerically(">", 0))
		cancel()
		Eventually(done).Should(BeClosed())
	})
})

var _ = Describe("Simulator", func() {
	It("should saturate the counters at the board threshold", func() {
		b := board.GR740()
		b.RAMSize = 1 * memory.MB
		b.ErrorThreshold = 2

		sim := board.NewSimulator(b, log.NewTestLogger(nil))

		Expect(sim.Storage.InjectFault(0x10, memory.FaultSingleBit)).To(Succeed())
		_, err := sim.Engine.ScrubRange(0, 0x4000)
		Expect(err).NotTo(HaveOccurred())
		Expect(sim.CountersSaturated()).To(BeFalse())

		Expect(sim.Storage.InjectFault(0x20, memory.FaultSingleBit)).To(Succeed())
		_, err = sim.Engine.ScrubRange(0, 0x4000)
		Expect(err).NotTo(HaveOccurred())
		Expect(sim.CountersSaturated()).To(BeTrue())
	})

	It("should not saturate without a threshold", func() {
		b := board.PC686()
		b.RAMSize = 1 * memory.MB

		sim := board.NewSimulator(b, log.NewTestLogger(nil))

		Expect(sim.Storage.InjectFault(0x10, memory.FaultMultiBit)).To(Succeed())
		_, err := sim.Engine.ScrubRange(0, 0x4000)
		Expect(err).NotTo(HaveOccurred())
		Expect(sim.CountersSaturated()).To(BeFalse())
	})
})
