package compute

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gophercloud/gophercloud/v2"
	"github.com/gophercloud/gophercloud/v2/openstack/compute/v2/flavors"
	"github.com/gophercloud/gophercloud/v2/openstack/compute/v2/servers"
	"github.com/gophercloud/utils/v2/openstack/clientconfig"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Connect authenticates against the named clouds.yaml profile and returns a
// Client scoped to the given allow-list. The underlying HTTP transport is
// wrapped with otelhttp so every compute round trip shows up as a span.
func Connect(ctx context.Context, cloud string, allow Allowlist, timeout time.Duration, opts ...Option) (*Client, error) {
	sc, err := clientconfig.NewServiceClient(ctx, "compute", &clientconfig.ClientOpts{Cloud: cloud})
	if err != nil {
		return nil, fmt.Errorf("connect to cloud %q: %w", cloud, err)
	}
	sc.HTTPClient.Transport = otelhttp.NewTransport(sc.HTTPClient.Transport)

	return newClient(&openstackAPI{compute: sc}, allow, timeout, opts...), nil
}

// openstackAPI adapts gophercloud's compute v2 bindings to the api interface.
type openstackAPI struct {
	compute *gophercloud.ServiceClient
}

func (o *openstackAPI) listServers(ctx context.Context) ([]Machine, error) {
	pages, err := servers.List(o.compute, servers.ListOpts{}).AllPages(ctx)
	if err != nil {
		return nil, err
	}
	all, err := servers.ExtractServers(pages)
	if err != nil {
		return nil, err
	}
	machines := make([]Machine, 0, len(all))
	for _, s := range all {
		machines = append(machines, toMachine(s))
	}
	return machines, nil
}

func (o *openstackAPI) getServer(ctx context.Context, id string) (Machine, error) {
	s, err := servers.Get(ctx, o.compute, id).Extract()
	if err != nil {
		if gophercloud.ResponseCodeIs(err, http.StatusNotFound) {
			return Machine{}, ErrNotFound
		}
		return Machine{}, err
	}
	return toMachine(*s), nil
}

func (o *openstackAPI) getFlavor(ctx context.Context, id string) (Flavor, error) {
	f, err := flavors.Get(ctx, o.compute, id).Extract()
	if err != nil {
		return Flavor{}, err
	}
	return Flavor{
		ID:    f.ID,
		Name:  f.Name,
		VCPUs: f.VCPUs,
		RAM:   f.RAM,
		Disk:  f.Disk,
	}, nil
}

func (o *openstackAPI) startServer(ctx context.Context, id string) error {
	return servers.Start(ctx, o.compute, id).ExtractErr()
}

func (o *openstackAPI) stopServer(ctx context.Context, id string) error {
	return servers.Stop(ctx, o.compute, id).ExtractErr()
}

func (o *openstackAPI) rebootServer(ctx context.Context, id string) error {
	return servers.Reboot(ctx, o.compute, id, servers.RebootOpts{Type: servers.SoftReboot}).ExtractErr()
}

func toMachine(s servers.Server) Machine {
	m := Machine{
		ID:        s.ID,
		Name:      s.Name,
		Status:    s.Status,
		ProjectID: s.TenantID,
	}
	// Nova reports the flavor as a loose map; only the id is needed here.
	if id, ok := s.Flavor["id"].(string); ok {
		m.FlavorID = id
	}
	return m
}
