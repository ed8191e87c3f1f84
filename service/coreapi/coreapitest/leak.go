package coreapitest

import "go.uber.org/goleak"

// LeakOptions ignores goroutines started during package init, such as the timer and worker
// pools of the config loader, and idle keep-alive connections of the fake provider.
// Call it from TestMain so IgnoreCurrent captures the init goroutines only.
func LeakOptions() []goleak.Option {
	return []goleak.Option{
		goleak.IgnoreCurrent(),
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
		goleak.IgnoreAnyFunction("github.com/desertbit/timer.timerRoutine"),
		goleak.IgnoreAnyFunction("go.opencensus.io/stats/view.(*worker).start"),
	}
}
