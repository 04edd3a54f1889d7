package osal_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/psp/log"
	"github.com/sarchlab/psp/osal"
)

var _ = Describe("Kernel tasks", func() {
	var k *osal.Kernel

	BeforeEach(func() {
		k = osal.NewKernel(log.NewTestLogger(nil))
	})

	AfterEach(func() {
		k.Wait()
	})

	It("should register a task by name until it returns", func() {
		release := make(chan struct{})

		id, err := k.CreateTask("worker", func(context.Context) {
			<-release
		}, 100)
		Expect(err).NotTo(HaveOccurred())

		found, err := k.TaskIDByName("worker")
		Expect(err).NotTo(HaveOccurred())
		Expect(found).To(Equal(id))

		close(release)

		Eventually(func() error {
			_, err := k.TaskIDByName("worker")
			return err
		}).Should(MatchError(osal.ErrNameNotFound))
	})

	It("should reject duplicated names", func() {
		release := make(chan struct{})
		defer close(release)

		_, err := k.CreateTask("worker", func(context.Context) { <-release }, 100)
		Expect(err).NotTo(HaveOccurred())

		_, err = k.CreateTask("worker", func(context.Context) {}, 100)
		Expect(err).To(MatchError(osal.ErrNameTaken))
	})

	It("should reject priorities out of range", func() {
		_, err := k.CreateTask("worker", func(context.Context) {}, 0)
		Expect(err).To(MatchError(osal.ErrInvalidPriority))
	})

	It("should cancel the task context on delete", func() {
		stopped := make(chan error, 1)

		id, err := k.CreateTask("sleeper", func(ctx context.Context) {
			stopped <- k.TaskDelay(ctx, time.Hour)
		}, 100)
		Expect(err).NotTo(HaveOccurred())

		Expect(k.DeleteTask(id)).To(Succeed())

		_, err = k.TaskIDByName("sleeper")
		Expect(err).To(MatchError(osal.ErrNameNotFound))
		Eventually(stopped).Should(Receive(MatchError(osal.ErrTaskDeleted)))
		Expect(k.NumTasks()).To(Equal(0))
	})

	It("should fail to delete unknown tasks", func() {
		Expect(k.DeleteTask(42)).To(MatchError(osal.ErrInvalidID))
	})

	It("should change priorities of live tasks", func() {
		release := make(chan struct{})
		defer close(release)

		id, err := k.CreateTask("worker", func(context.Context) { <-release }, 100)
		Expect(err).NotTo(HaveOccurred())

		Expect(k.SetTaskPriority(id, 50)).To(Succeed())
		Expect(k.TaskPriority(id)).To(Equal(osal.Priority(50)))
		Expect(k.SetTaskPriority(id, 300)).To(MatchError(osal.ErrInvalidPriority))
		Expect(k.SetTaskPriority(id+1000, 50)).To(MatchError(osal.ErrInvalidID))
	})

	It("should return from a zero delay", func() {
		Expect(k.TaskDelay(context.Background(), 0)).To(Succeed())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		Expect(k.TaskDelay(ctx, 0)).To(MatchError(osal.ErrTaskDeleted))
	})
})
