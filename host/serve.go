package host

import (
	"context"
	"fmt"

	"github.com/mosn/layotto/domain/entities"
)

// Request is one HTTP exchange fed to a guest.
type Request struct {
	Headers  [][2]string
	Body     []byte
	Trailers [][2]string
}

// Response is what the guest left behind for a Request.
type Response struct {
	ContextID uint32
	// Actions holds the verdict of each callback that ran, in order.
	Actions []entities.Action
	Body    []byte
	HasBody bool
	Headers [][2]string
}

// Paused reports whether any callback asked the host to hold the exchange.
func (r Response) Paused() bool {
	for _, a := range r.Actions {
		if a == entities.ActionPause {
			return true
		}
	}
	return false
}

// StartPlugin starts p with the configuration buffers held by the state.
func (p *PluginInstance) StartPlugin(ctx context.Context) (uint32, error) {
	vmCfg, _ := p.state.Buffer(entities.BufferTypeVMConfiguration)
	pluginCfg, _ := p.state.Buffer(entities.BufferTypePluginConfiguration)
	return p.Start(ctx, len(vmCfg), len(pluginCfg))
}

// Serve runs req through a new HTTP context under rootID: headers, then
// the body when there is one, then trailers when there are any. The
// context is completed and deleted afterwards.
func (p *PluginInstance) Serve(ctx context.Context, rootID uint32, req Request) (Response, error) {
	p.state.ResetRequest()
	for _, h := range req.Headers {
		p.state.PutHeader(entities.MapTypeHttpRequestHeaders, h[0], h[1])
	}
	for _, h := range req.Trailers {
		p.state.PutHeader(entities.MapTypeHttpRequestTrailers, h[0], h[1])
	}

	id := p.NextContextID()
	if err := p.CreateContext(ctx, id, rootID); err != nil {
		return Response{}, err
	}
	resp := Response{ContextID: id}

	hasBody := len(req.Body) > 0
	hasTrailers := len(req.Trailers) > 0
	action, err := p.OnRequestHeaders(ctx, id, len(req.Headers), !hasBody && !hasTrailers)
	if err != nil {
		return resp, err
	}
	resp.Actions = append(resp.Actions, action)

	if hasBody {
		p.state.PutBuffer(entities.BufferTypeHttpRequestBody, req.Body)
		action, err = p.OnRequestBody(ctx, id, len(req.Body), !hasTrailers)
		if err != nil {
			return resp, err
		}
		resp.Actions = append(resp.Actions, action)
	}

	if hasTrailers {
		action, err = p.OnRequestTrailers(ctx, id, len(req.Trailers))
		if err != nil {
			return resp, err
		}
		resp.Actions = append(resp.Actions, action)
	}

	resp.Body, resp.HasBody = p.state.Buffer(entities.BufferTypeHttpResponseBody)
	resp.Headers = p.state.Headers(entities.MapTypeHttpResponseHeaders)

	if _, err := p.Done(ctx, id); err != nil {
		return resp, fmt.Errorf("failed to complete context %d: %w", id, err)
	}
	return resp, nil
}

// ID asks the guest for its function id.
func (p *PluginInstance) ID(ctx context.Context) (string, error) {
	ok, err := p.GetID(ctx)
	if err != nil || !ok {
		return "", err
	}
	id, _ := p.state.Buffer(entities.BufferTypeCallData)
	return string(id), nil
}
