package osal_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/psp/log"
	"github.com/sarchlab/psp/osal"
)

var _ = Describe("Kernel binary semaphores", func() {
	var k *osal.Kernel

	BeforeEach(func() {
		k = osal.NewKernel(log.NewTestLogger(nil))
	})

	It("should take and give", func() {
		id, err := k.CreateBinSem("sem", 1)
		Expect(err).NotTo(HaveOccurred())

		Expect(k.TakeBinSem(id)).To(Succeed())
		Expect(k.GiveBinSem(id)).To(Succeed())
		Expect(k.GiveBinSem(id)).To(MatchError(osal.ErrSemFull))
	})

	It("should distinguish a taken name", func() {
		_, err := k.CreateBinSem("sem", 1)
		Expect(err).NotTo(HaveOccurred())

		_, err = k.CreateBinSem("sem", 1)
		Expect(err).To(MatchError(osal.ErrNameTaken))
	})

	It("should reject counting values", func() {
		_, err := k.CreateBinSem("sem", 2)
		Expect(err).To(MatchError(osal.ErrInvalidSemValue))
	})

	It("should block takers until given", func() {
		id, err := k.CreateBinSem("sem", 0)
		Expect(err).NotTo(HaveOccurred())

		taken := make(chan error, 1)
		go func() { taken <- k.TakeBinSem(id) }()

		Consistently(taken).ShouldNot(Receive())

		Expect(k.GiveBinSem(id)).To(Succeed())
		Eventually(taken).Should(Receive(BeNil()))
	})

	It("should release waiters when deleted", func() {
		id, err := k.CreateBinSem("sem", 0)
		Expect(err).NotTo(HaveOccurred())

		taken := make(chan error, 1)
		go func() { taken <- k.TakeBinSem(id) }()

		Expect(k.DeleteBinSem(id)).To(Succeed())
		Eventually(taken).Should(Receive(MatchError(osal.ErrInvalidID)))

		_, err = k.SemIDByName("sem")
		Expect(err).To(MatchError(osal.ErrNameNotFound))
		Expect(k.TakeBinSem(id)).To(MatchError(osal.ErrInvalidID))
		Expect(k.DeleteBinSem(id)).To(MatchError(osal.ErrInvalidID))
	})
})
