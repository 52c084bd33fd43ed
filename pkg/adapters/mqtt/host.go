package mqtt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/tendril/pkg/ports"
	"github.com/aretw0/tendril/pkg/schema"
)

// Host implements ports.Host by publishing to a broker. Reads go to a
// local world; writes update it and are published retained under
// <prefix>/entity/<entity>/<component>. Emits go to <prefix>/emit/<topic>.
type Host struct {
	conn   Conn
	world  ports.Host
	prefix string
}

// NewHost creates a host that publishes on conn and keeps its world in world.
func NewHost(conn Conn, world ports.Host, prefix string) *Host {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Host{conn: conn, world: world, prefix: prefix}
}

// Get reads a component from the local world.
func (h *Host) Get(ctx context.Context, entity schema.EntityRef, component string) (any, bool, error) {
	return h.world.Get(ctx, entity, component)
}

// Set updates the local world and publishes the new value retained.
func (h *Host) Set(ctx context.Context, entity schema.EntityRef, component string, value any) error {
	if err := h.world.Set(ctx, entity, component, value); err != nil {
		return err
	}
	return h.publish(fmt.Sprintf("%s/entity/%s/%s", h.prefix, entity, component), true, value)
}

// Emit publishes value on the topic.
func (h *Host) Emit(ctx context.Context, topic string, value any) error {
	return h.publish(h.prefix+"/emit/"+topic, false, value)
}

func (h *Host) publish(topic string, retained bool, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", topic, err)
	}
	return wait(h.conn.Publish(topic, 1, retained, payload), "publish "+topic)
}
