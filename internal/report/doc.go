// Package report persists and publishes the final report of a run. Writer
// renders it to files in the configured formats; SocketPublisher pushes it to
// a socket.io server as a single event.
package report
