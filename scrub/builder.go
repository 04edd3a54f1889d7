package scrub

import (
	"github.com/sarchlab/psp/idgen"
	"github.com/sarchlab/psp/log"
	"github.com/sarchlab/psp/osal"
)

// Builder can build scrub controllers.
type Builder struct {
	os        osal.OS
	engine    Engine
	platform  Platform
	reporter  ErrorReporter
	caps      Capabilities
	pageSize  uint64
	defaults  Config
	autoStart bool
	semName   string
	idGen     idgen.Generator
	logger    log.Logger
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		caps:     FullCapabilities(),
		pageSize: 4096,
		defaults: DefaultConfig(),
		idGen:    idgen.NewSequential(),
		logger:   log.NewTestLogger(nil),
	}
}

// WithOS sets the OS abstraction that provides tasks and semaphores.
func (b Builder) WithOS(os osal.OS) Builder {
	b.os = os
	return b
}

// WithEngine sets the scrub engine.
func (b Builder) WithEngine(engine Engine) Builder {
	b.engine = engine
	return b
}

// WithPlatform sets the board platform.
func (b Builder) WithPlatform(platform Platform) Builder {
	b.platform = platform
	return b
}

// WithErrorReporter sets the source of the hardware error counters.
func (b Builder) WithErrorReporter(reporter ErrorReporter) Builder {
	b.reporter = reporter
	return b
}

// WithCapabilities sets which settings can be changed.
func (b Builder) WithCapabilities(caps Capabilities) Builder {
	b.caps = caps
	return b
}

// WithPageSize sets the page size in bytes.
func (b Builder) WithPageSize(pageSize uint64) Builder {
	b.pageSize = pageSize
	return b
}

// WithDefaults sets the compiled-in configuration. The sliding window, the
// progress and the task ID of the given config are ignored.
func (b Builder) WithDefaults(cfg Config) Builder {
	b.defaults = cfg
	return b
}

// WithAutoStart makes Init enable the task unless in manual mode.
func (b Builder) WithAutoStart(autoStart bool) Builder {
	b.autoStart = autoStart
	return b
}

// WithSemaphoreName overrides the name of the configuration semaphore.
func (b Builder) WithSemaphoreName(name string) Builder {
	b.semName = name
	return b
}

// WithIDGenerator sets the generator of trace task IDs.
func (b Builder) WithIDGenerator(gen idgen.Generator) Builder {
	b.idGen = gen
	return b
}

// WithLogger sets the logger.
func (b Builder) WithLogger(logger log.Logger) Builder {
	b.logger = logger
	return b
}

// Build creates a controller whose task has the given name.
func (b Builder) Build(name string) *Controller {
	b.mustBeComplete(name)

	defaults := b.defaults
	defaults.TimedStartAddr = 0
	defaults.TimedEndAddr = defaults.BlockSizePages * b.pageSize
	defaults.CurrentPage = 0
	defaults.TotalPages = 0
	defaults.TaskID = osal.UndefinedID

	semName := b.semName
	if semName == "" {
		semName = name + "Sem"
	}

	c := &Controller{
		name:      name,
		semName:   semName,
		os:        b.os,
		engine:    b.engine,
		platform:  b.platform,
		reporter:  b.reporter,
		caps:      b.caps,
		pageSize:  b.pageSize,
		defaults:  defaults,
		autoStart: b.autoStart,
		idGen:     b.idGen,
		log:       b.logger.Scoped("MEM_SCRUB"),
		cfg:       defaults,
	}

	c.validator = NewValidator(b.platform, b.caps, b.pageSize,
		defaults.MinPriority, defaults.MaxPriority)

	return c
}

func (b Builder) mustBeComplete(name string) {
	if name == "" {
		panic("scrub task must have a name")
	}

	if b.os == nil {
		panic("scrub controller requires an OS")
	}

	if b.engine == nil {
		panic("scrub controller requires an engine")
	}

	if b.platform == nil {
		panic("scrub controller requires a platform")
	}

	if b.pageSize == 0 {
		panic("page size must not be zero")
	}

	if b.defaults.BlockSizePages == 0 {
		panic("default block size must not be zero")
	}
}
