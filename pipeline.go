package xdpview

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// Handler is a packet processing function, the Go equivalent of an XDP
// program body. It is invoked once per packet, runs to completion without
// blocking and returns a verdict. `cpu` is the virtual CPU the handler runs
// on, per-CPU constructs like PerfMap.Insert key by it.
type Handler func(cpu int, view *PacketView) Action

// Pipeline is a worker pool which runs a Handler over enqueued packets. Each
// worker has its own virtual CPU ID and no two workers share one, making
// handlers which rely on that property to guard against race conditions
// safe to run. Starting the pool with the exact amount of logical CPUs on
// the host (runtime.NumCPU()) is also the most performant way to run
// non-blocking handlers.
type Pipeline struct {
	handler Handler
	vCPUs   int

	jobQueue chan PipelineJob
	wg       *sync.WaitGroup
}

// PipelineOpt is an option which can be used during the creation of a
// Pipeline with the NewPipeline function.
type PipelineOpt func(*Pipeline)

// OptVirtualCPUs explicitly sets the amount of virtual CPUs of the pipeline.
func OptVirtualCPUs(vCPUs int) PipelineOpt {
	return func(p *Pipeline) {
		p.vCPUs = vCPUs
	}
}

// NewPipeline creates a new pipeline running `handler` from the given
// options.
func NewPipeline(handler Handler, opts ...PipelineOpt) *Pipeline {
	p := &Pipeline{
		handler: handler,
		// Default to the number of CPUs of the host
		vCPUs: runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// VirtualCPUs returns the number of workers/virtual CPUs of the pipeline.
func (p *Pipeline) VirtualCPUs() int {
	return p.vCPUs
}

// PipelineJob is one packet to be processed by the pipeline.
type PipelineJob struct {
	// The packet context to run the handler over.
	Packet *XDPContext
	// The context with which the job is to be ran, which can be used to
	// cancel it while it still sits in the backlog. Optional, if nil
	// context.Background() is used.
	Context context.Context
	// Verdict is called with the handler's verdict once the job completes,
	// in its own goroutine. Optional.
	Verdict func(pkt *XDPContext, action Action, err error)
}

// Enqueue adds the given job to the backlog of the pipeline, if noblock is
// false, this call will block until there is room. If noblock is true, an
// error will be returned if the queue is full.
func (p *Pipeline) Enqueue(job PipelineJob, noblock bool) error {
	if p.wg == nil {
		return fmt.Errorf("pipeline is not yet running")
	}

	if noblock {
		select {
		case p.jobQueue <- job:
			return nil
		default:
			return fmt.Errorf("backlog is full")
		}
	}

	p.jobQueue <- job
	return nil
}

// Start starts the worker pool, one worker per virtual CPU. The backlog is
// the amount of pending jobs before Enqueue starts blocking or giving
// errors. The pipeline keeps running until Stop is called.
func (p *Pipeline) Start(backlog int) error {
	if p.wg != nil {
		return fmt.Errorf("pipeline is already running")
	}

	if backlog < 1 {
		return fmt.Errorf("backlog must be at least 1")
	}

	p.wg = &sync.WaitGroup{}
	p.jobQueue = make(chan PipelineJob, backlog)

	for i := 0; i < p.vCPUs; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	return nil
}

// Stop stops the worker pool, all pending jobs will be completed. Stop will
// block until all workers have exited.
func (p *Pipeline) Stop() {
	close(p.jobQueue)
	p.wg.Wait()
	p.wg = nil
}

func (p *Pipeline) worker(cpuID int) {
	defer p.wg.Done()

	for job := range p.jobQueue {
		if job.Context == nil {
			job.Context = context.Background()
		}

		// If the context is already done by the time we are getting to the
		// job, the packet is aborted without running the handler.
		if err := job.Context.Err(); err != nil {
			p.handoff(job, ActionAborted, err)
			continue
		}

		action := p.handler(cpuID, NewPacketView(job.Packet))
		p.handoff(job, action, nil)
	}
}

func (p *Pipeline) handoff(job PipelineJob, action Action, err error) {
	if job.Verdict != nil {
		// Start Verdict in a separate goroutine so it never blocks this
		// worker.
		go job.Verdict(job.Packet, action, err)
	}
}
