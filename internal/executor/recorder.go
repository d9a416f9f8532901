package executor

// Recorder observes the concurrency decisions made by the executors.
// Implementations must be safe for concurrent use.
type Recorder interface {
	// TaskSubmitted is called once per fork/join sub-task handed to a scheduler
	TaskSubmitted()

	// ThreadSpawned is called once per thread started by a partitioned run
	ThreadSpawned()

	// InlineBlock is called once per block executed on the calling goroutine
	InlineBlock()
}

type nopRecorder struct{}

func (nopRecorder) TaskSubmitted() {}
func (nopRecorder) ThreadSpawned() {}
func (nopRecorder) InlineBlock()   {}

func recorderOrNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
