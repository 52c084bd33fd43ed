package runtime

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
	"github.com/aretw0/tendril/pkg/schema"
)

// hostError marks a failure that crossed the host capability boundary.
type hostError struct {
	op  string
	err error
}

func (e *hostError) Error() string { return e.op + ": " + e.err.Error() }
func (e *hostError) Unwrap() error { return e.err }

func (e *hostError) Is(target error) bool { return target == domain.ErrHostCapability }

// guardedHost tags every error returned by the wrapped host.
type guardedHost struct {
	host ports.Host
}

func guard(h ports.Host) ports.Host {
	if h == nil {
		return guardedHost{host: detachedHost{}}
	}
	return guardedHost{host: h}
}

func (g guardedHost) Get(ctx context.Context, entity schema.EntityRef, component string) (any, bool, error) {
	v, ok, err := g.host.Get(ctx, entity, component)
	if err != nil {
		return nil, false, &hostError{op: fmt.Sprintf("get %s.%s", entity, component), err: err}
	}
	return v, ok, nil
}

func (g guardedHost) Set(ctx context.Context, entity schema.EntityRef, component string, value any) error {
	if err := g.host.Set(ctx, entity, component, value); err != nil {
		return &hostError{op: fmt.Sprintf("set %s.%s", entity, component), err: err}
	}
	return nil
}

func (g guardedHost) Emit(ctx context.Context, topic string, value any) error {
	if err := g.host.Emit(ctx, topic, value); err != nil {
		return &hostError{op: "emit " + topic, err: err}
	}
	return nil
}

var errNoHost = errors.New("no host attached")

// detachedHost is used when the manager was built without a host.
type detachedHost struct{}

func (detachedHost) Get(context.Context, schema.EntityRef, string) (any, bool, error) {
	return nil, false, errNoHost
}

func (detachedHost) Set(context.Context, schema.EntityRef, string, any) error { return errNoHost }

func (detachedHost) Emit(context.Context, string, any) error { return errNoHost }
