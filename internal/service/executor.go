package service

// Executor runs a task asynchronously. It decides where the matching
// pipeline runs; it must never run the task on the caller's goroutine.
type Executor func(task func())

// GoExecutor starts every task on a new goroutine
func GoExecutor(task func()) {
	go task()
}

// Frame is a captured camera frame
type Frame struct {
	Image       []byte
	ContentType string
}
