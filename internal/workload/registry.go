package workload

import (
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"

	"github.com/aryankumar/parbench/internal/executor"
	"github.com/aryankumar/parbench/internal/util"
)

// Kernel names
const (
	KernelForEach = "for_each"
	KernelScan    = "scan"
	KernelReduce  = "reduce"
	KernelPi      = "pi"
)

// Variant distinguishes the sequential baseline from the parallel version
type Variant string

const (
	Sequential Variant = "sequential"
	Parallel   Variant = "parallel"
)

// Env carries the executors the parallel variants run on
type Env struct {
	ForkJoin    *executor.ForkJoin
	Partitioner *executor.Partitioner
	Sampler     *executor.Sampler

	// Seed drives the sequential pi kernel; 0 picks a fresh one per run
	Seed uint64
}

// DefaultEnv builds an Env with stock executors
func DefaultEnv(logger *slog.Logger) *Env {
	return &Env{
		ForkJoin:    executor.NewForkJoin(executor.DefaultThreshold, executor.WithForkJoinLogger(logger)),
		Partitioner: executor.NewPartitioner(executor.DefaultPartitionConfig(), logger, nil),
		Sampler:     executor.NewSampler(executor.DefaultSamplerConfig(), logger, nil),
	}
}

func (e *Env) rand() *rand.Rand {
	seed := e.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, 0))
}

// Input is the prepared argument of one kernel run.
// Data is nil for kernels that generate their own samples.
type Input struct {
	Size int
	Data []float64
}

// Kernel is one measurable variant of a workload
type Kernel struct {
	Name    string
	Variant Variant

	// Label names the series in reports
	Label string

	// needsData makes Prepare allocate 1..size
	needsData bool

	run func(env *Env, in Input) (float64, error)
}

// ID is "<name>/<variant>"
func (k Kernel) ID() string {
	return k.Name + "/" + string(k.Variant)
}

// Prepare builds the input for a run of the given size.
// Preparation is kept out of the timed section.
func (k Kernel) Prepare(size int) Input {
	in := Input{Size: size}
	if k.needsData {
		in.Data = Iota(size)
	}
	return in
}

// Run executes the kernel once and returns its result value
func (k Kernel) Run(env *Env, in Input) (float64, error) {
	if k.run == nil {
		return 0, fmt.Errorf("kernel %s: %w", k.ID(), util.ErrNilOperation)
	}
	return k.run(env, in)
}

// Registry maps kernel names to their sequential and parallel variants
type Registry struct {
	kernels map[string][]Kernel
}

// NewRegistry returns a registry holding the built-in kernels
func NewRegistry() *Registry {
	r := &Registry{kernels: make(map[string][]Kernel)}
	for _, pair := range builtin() {
		r.kernels[pair[0].Name] = pair
	}
	return r
}

// Names lists the registered kernels alphabetically
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.kernels))
	for name := range r.kernels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the variants of name, sequential first
func (r *Registry) Lookup(name string) ([]Kernel, error) {
	k, ok := r.kernels[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %s)", util.ErrUnknownKernel, name, strings.Join(r.Names(), ", "))
	}
	return k, nil
}

// Resolve expands names into kernels in the given order.
// An empty list selects every kernel.
func (r *Registry) Resolve(names []string) ([]Kernel, error) {
	if len(names) == 0 {
		names = r.Names()
	}
	var out []Kernel
	for _, name := range names {
		k, err := r.Lookup(name)
		if err != nil {
			return nil, err
		}
		out = append(out, k...)
	}
	return out, nil
}

func builtin() [][]Kernel {
	return [][]Kernel{
		{
			{Name: KernelForEach, Variant: Sequential, Label: "Sequential for_each", needsData: true,
				run: func(_ *Env, in Input) (float64, error) {
					ForEachSequential(in.Data)
					return last(in.Data), nil
				}},
			{Name: KernelForEach, Variant: Parallel, Label: "Parallel for_each", needsData: true,
				run: func(env *Env, in Input) (float64, error) {
					if err := ForEachParallel(env.ForkJoin, in.Data); err != nil {
						return 0, err
					}
					return last(in.Data), nil
				}},
		},
		{
			{Name: KernelScan, Variant: Sequential, Label: "Sequential partial_sum", needsData: true,
				run: func(_ *Env, in Input) (float64, error) {
					PartialSum(in.Data)
					return last(in.Data), nil
				}},
			{Name: KernelScan, Variant: Parallel, Label: "Parallel inclusive_scan", needsData: true,
				run: func(env *Env, in Input) (float64, error) {
					if err := InclusiveScan(env.Partitioner, in.Data); err != nil {
						return 0, err
					}
					return last(in.Data), nil
				}},
		},
		{
			{Name: KernelReduce, Variant: Sequential, Label: "Sequential inner_product", needsData: true,
				run: func(_ *Env, in Input) (float64, error) {
					return InnerProduct(in.Data, in.Data), nil
				}},
			{Name: KernelReduce, Variant: Parallel, Label: "Parallel transform_reduce", needsData: true,
				run: func(env *Env, in Input) (float64, error) {
					return TransformReduce(env.Partitioner, in.Data, in.Data)
				}},
		},
		{
			{Name: KernelPi, Variant: Sequential, Label: "Sequential pi",
				run: func(env *Env, in Input) (float64, error) {
					return EstimatePi(in.Size, env.rand()), nil
				}},
			{Name: KernelPi, Variant: Parallel, Label: "Parallel pi",
				run: func(env *Env, in Input) (float64, error) {
					return EstimatePiParallel(env.Sampler, in.Size)
				}},
		},
	}
}

func last(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	return v[len(v)-1]
}
