package plugin_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/havelihousing/backoffice/booking"
	"github.com/havelihousing/backoffice/client"
	"github.com/havelihousing/backoffice/id"
	"github.com/havelihousing/backoffice/plugin"
)

type counter struct {
	name     string
	created  atomic.Int32
	rejected atomic.Int32
	err      error
}

func (c *counter) Name() string { return c.name }

func (c *counter) OnBookingCreated(context.Context, *booking.Booking, *client.Client, bool) error {
	c.created.Add(1)
	return c.err
}

func (c *counter) OnBookingRejected(context.Context, id.PropertyID, int) error {
	c.rejected.Add(1)
	return c.err
}

type slow struct{}

func (slow) Name() string { return "slow" }

func (slow) OnBookingCreated(ctx context.Context, _ *booking.Booking, _ *client.Client, _ bool) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := plugin.NewRegistry()
	if err := r.Register(&counter{name: "a"}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(&counter{name: "a"}); err == nil {
		t.Error("expected duplicate registration to fail")
	}
	if got := len(r.Plugins()); got != 1 {
		t.Errorf("plugins: got %d, want 1", got)
	}
	if r.Get("a") == nil || r.Get("missing") != nil {
		t.Error("Get returned the wrong plugin")
	}
}

func TestDispatchOnlyToImplementers(t *testing.T) {
	r := plugin.NewRegistry()
	a := &counter{name: "a"}
	b := &counter{name: "b", err: errors.New("boom")}
	_ = r.Register(a)
	_ = r.Register(b)

	ctx := context.Background()
	r.EmitBookingCreated(ctx, &booking.Booking{}, &client.Client{}, true)
	r.EmitBookingRejected(ctx, id.NewPropertyID(), 3)
	r.EmitPropertyDeleted(ctx, id.NewPropertyID())

	for _, c := range []*counter{a, b} {
		if c.created.Load() != 1 || c.rejected.Load() != 1 {
			t.Errorf("%s: created=%d rejected=%d, want 1/1", c.name, c.created.Load(), c.rejected.Load())
		}
	}
}

func TestDispatchTimesOut(t *testing.T) {
	r := plugin.NewRegistry().WithTimeout(20 * time.Millisecond)
	fast := &counter{name: "fast"}
	_ = r.Register(slow{})
	_ = r.Register(fast)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	start := time.Now()
	r.EmitBookingCreated(ctx, &booking.Booking{}, &client.Client{}, false)
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("slow hook blocked dispatch for %s", elapsed)
	}
	if fast.created.Load() != 1 {
		t.Error("hook after the slow one was not called")
	}
}
