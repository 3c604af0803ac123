package adapter

import (
	"context"
	"time"

	M "github.com/sagernet/sing/common/metadata"
)

type Inbound interface {
	Service
	Type() string
	Tag() string
}

// InboundContext describes one accepted connection.
type InboundContext struct {
	Inbound     string
	Source      M.Socksaddr
	Destination M.Socksaddr
	AcceptedAt  time.Time

	// TLS

	ServerName         string
	NegotiatedProtocol string
}

type inboundContextKey struct{}

func WithContext(ctx context.Context, inboundContext *InboundContext) context.Context {
	return context.WithValue(ctx, (*inboundContextKey)(nil), inboundContext)
}

func ContextFrom(ctx context.Context) *InboundContext {
	metadata := ctx.Value((*inboundContextKey)(nil))
	if metadata == nil {
		return nil
	}
	return metadata.(*InboundContext)
}
