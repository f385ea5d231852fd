// Package notify forwards experiment state transitions to a remote monitor
// over socket.io. A monitor is optional and the experiment never waits for it.
package notify
