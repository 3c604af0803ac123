package constant

import "time"

const (
	TCPTimeout            = 5 * time.Second
	TCPKeepAliveInitial   = 10 * time.Minute
	TCPKeepAliveInterval  = 75 * time.Second
	DefaultConnectTimeout = 30 * time.Second
	StopTimeout           = 3 * time.Second
)
