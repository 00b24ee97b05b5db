package compute

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ErrNotAllowed is returned when a machine exists but its name and project
// are absent from the allow-list. Callers render it as an access denial
// rather than a cloud failure.
var ErrNotAllowed = errors.New("machine is not in the allow-list")

// ErrNotFound is returned when the cloud has no machine with the given id.
var ErrNotFound = errors.New("machine not found")

// api is the slice of the compute service the Client consumes. The
// production implementation wraps gophercloud; tests substitute a fake.
type api interface {
	listServers(ctx context.Context) ([]Machine, error)
	getServer(ctx context.Context, id string) (Machine, error)
	getFlavor(ctx context.Context, id string) (Flavor, error)
	startServer(ctx context.Context, id string) error
	stopServer(ctx context.Context, id string) error
	rebootServer(ctx context.Context, id string) error
}

// Observer receives the duration and outcome of each cloud round trip.
type Observer func(operation string, d time.Duration, err error)

// Client is the cloud-resource accessor. Every method is a fresh,
// synchronous round trip to the compute API; nothing is cached. The
// allow-list is applied before results are returned and re-verified at
// action time for single-machine operations.
type Client struct {
	api     api
	allow   Allowlist
	timeout time.Duration
	observe Observer
	log     zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithObserver wires a metrics callback around every cloud round trip.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observe = o }
}

// WithLogger sets the logger used for bulk partial failures.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

func newClient(api api, allow Allowlist, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		api:     api,
		allow:   allow,
		timeout: timeout,
		observe: func(string, time.Duration, error) {},
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) call(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	c.observe(operation, time.Since(start), err)
	return err
}

// Machines enumerates the machines visible through the allow-list.
func (c *Client) Machines(ctx context.Context) ([]Machine, error) {
	var all []Machine
	err := c.call(ctx, "list", func(ctx context.Context) error {
		var err error
		all, err = c.api.listServers(ctx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list machines: %w", err)
	}

	machines := make([]Machine, 0, len(all))
	for _, m := range all {
		if c.allow.Allows(m) {
			machines = append(machines, m)
		}
	}
	return machines, nil
}

// Machine fetches a single machine by id. Allow-list membership is checked
// here too, so a machine id smuggled past the listing still gets rejected.
func (c *Client) Machine(ctx context.Context, id string) (Machine, error) {
	var m Machine
	err := c.call(ctx, "get", func(ctx context.Context) error {
		var err error
		m, err = c.api.getServer(ctx, id)
		return err
	})
	if err != nil {
		return Machine{}, fmt.Errorf("get machine %s: %w", id, err)
	}
	if !c.allow.Allows(m) {
		return Machine{}, ErrNotAllowed
	}
	return m, nil
}

// Flavor fetches the resource-sizing template for the detail view.
func (c *Client) Flavor(ctx context.Context, id string) (Flavor, error) {
	var f Flavor
	err := c.call(ctx, "flavor", func(ctx context.Context) error {
		var err error
		f, err = c.api.getFlavor(ctx, id)
		return err
	})
	if err != nil {
		return Flavor{}, fmt.Errorf("get flavor %s: %w", id, err)
	}
	return f, nil
}

// Start powers on a machine after re-verifying the allow-list. The action
// call is never issued for a machine outside the list.
func (c *Client) Start(ctx context.Context, id string) error {
	return c.act(ctx, "start", id, c.api.startServer)
}

// Stop powers off a machine after re-verifying the allow-list.
func (c *Client) Stop(ctx context.Context, id string) error {
	return c.act(ctx, "stop", id, c.api.stopServer)
}

// SoftReboot asks the guest to reboot after re-verifying the allow-list.
func (c *Client) SoftReboot(ctx context.Context, id string) error {
	return c.act(ctx, "reboot", id, c.api.rebootServer)
}

func (c *Client) act(ctx context.Context, operation, id string, fn func(ctx context.Context, id string) error) error {
	if _, err := c.Machine(ctx, id); err != nil {
		return err
	}
	err := c.call(ctx, operation, func(ctx context.Context) error {
		return fn(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("%s machine %s: %w", operation, id, err)
	}
	return nil
}

// BulkResult reports the outcome of a bulk operation. Acted counts the
// machines the action call was issued for, Skipped those already in the
// target state, Failed the per-machine errors that did not abort the sweep.
type BulkResult struct {
	Acted   int
	Skipped int
	Failed  int
}

// StartAll starts every allow-listed machine that is not already active.
// Machines already active are skipped so the operation is idempotent.
func (c *Client) StartAll(ctx context.Context) (BulkResult, error) {
	return c.bulk(ctx, "start", StateActive, c.api.startServer)
}

// StopAll is the mirror of StartAll for shutoff.
func (c *Client) StopAll(ctx context.Context) (BulkResult, error) {
	return c.bulk(ctx, "stop", StateShutoff, c.api.stopServer)
}

func (c *Client) bulk(ctx context.Context, operation string, target State, fn func(ctx context.Context, id string) error) (BulkResult, error) {
	machines, err := c.Machines(ctx)
	if err != nil {
		return BulkResult{}, err
	}

	var res BulkResult
	for _, m := range machines {
		if m.State() == target {
			res.Skipped++
			continue
		}
		err := c.call(ctx, operation, func(ctx context.Context) error {
			return fn(ctx, m.ID)
		})
		if err != nil {
			res.Failed++
			c.log.Error().Err(err).Str("machine", m.Name).Str("operation", operation).Msg("bulk action failed")
			continue
		}
		res.Acted++
	}
	return res, nil
}
