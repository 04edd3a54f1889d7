package tracing

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"

	"github.com/sarchlab/psp/hooking"
)

var _ = Describe("Api", func() {
	var (
		mockCtrl *gomock.Controller
		domain   *MockNamedHookable
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		domain = NewMockNamedHookable(mockCtrl)
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should panic if ID is not given", func() {
		domain.EXPECT().NumHooks().Return(1).AnyTimes()
		domain.EXPECT().Name().Return("domain").AnyTimes()
		Expect(func() {
			StartTask("", "123", domain, "kind", "what", nil)
		}).Should(Panic())
	})

	It("should be panic if domain is nil.", func() {
		Expect(func() {
			StartTask("id", "123", nil, "kind", "what", nil)
		}).Should(Panic())
	})

	It("should be panic if domain's name is empty.", func() {
		domain.EXPECT().NumHooks().Return(1).AnyTimes()
		domain.EXPECT().Name().Return("").AnyTimes()
		Expect(func() {
			StartTask("id", "123", domain, "kind", "what", nil)
		}).Should(Panic())
	})

	It("should be panic if kind is empty.", func() {
		Expect(func() {
			StartTask("id", "123", domain, "", "what", nil)
		}).Should(Panic())
	})

	It("should not invoke hooks when nobody listens", func() {
		domain.EXPECT().NumHooks().Return(0).Times(2)

		StartTask("id", "", domain, "kind", "what", nil)
		EndTask("id", domain, nil)
	})

	It("should invoke the start hook with the task", func() {
		domain.EXPECT().NumHooks().Return(1)
		domain.EXPECT().Name().Return("domain").AnyTimes()
		domain.EXPECT().
			InvokeHook(gomock.Any()).
			Do(func(ctx hooking.HookCtx) {
				Expect(ctx.Pos).To(Equal(HookPosTaskStart))
				task := ctx.Item.(Task)
				Expect(task.ID).To(Equal("id"))
				Expect(task.Where).To(Equal("domain"))
				Expect(task.Detail).To(Equal(42))
			})

		StartTask("id", "", domain, "kind", "what", 42)
	})

	It("should invoke the end hook with the detail", func() {
		domain.EXPECT().NumHooks().Return(1)
		domain.EXPECT().
			InvokeHook(gomock.Any()).
			Do(func(ctx hooking.HookCtx) {
				Expect(ctx.Pos).To(Equal(HookPosTaskEnd))
				Expect(ctx.Item.(Task).Detail).To(Equal("done"))
			})

		EndTask("id", domain, "done")
	})
})

type recordingTracer struct {
	started, ended []Task
}

func (t *recordingTracer) StartTask(task Task) { t.started = append(t.started, task) }
func (t *recordingTracer) EndTask(task Task)   { t.ended = append(t.ended, task) }

type namedDomain struct {
	hooking.HookableBase
	name string
}

func (d *namedDomain) Name() string { return d.name }

var _ = Describe("CollectTrace", func() {
	It("should forward task hooks to the tracer", func() {
		domain := &namedDomain{name: "scrubber"}
		tracer := &recordingTracer{}

		CollectTrace(domain, tracer)
		StartTask("1", "", domain, "scrub", "timed", nil)
		EndTask("1", domain, nil)

		Expect(tracer.started).To(HaveLen(1))
		Expect(tracer.started[0].Where).To(Equal("scrubber"))
		Expect(tracer.ended).To(HaveLen(1))
	})

	It("should refuse the same tracer twice", func() {
		domain := &namedDomain{name: "scrubber"}
		tracer := &recordingTracer{}

		CollectTrace(domain, tracer)

		Expect(func() { CollectTrace(domain, tracer) }).To(Panic())
	})
})
