package hostinfo

import (
	"context"
	"fmt"
	"net"
	"slices"
	"strings"

	gohost "github.com/shirou/gopsutil/v4/host"
	gonet "github.com/shirou/gopsutil/v4/net"
)

// Info is the identity of the machine a checklist is written for.
type Info struct {
	Hostname string
	FQDN     string
	IP       string
	// RawMAC is the hardware address as bare hex digits, e.g. "0242ac110002".
	RawMAC string
}

// Source abstracts host lookups for testability.
type Source interface {
	HostInfo(ctx context.Context) (*gohost.InfoStat, error)
	Interfaces(ctx context.Context) (gonet.InterfaceStatList, error)
	LookupIP(ctx context.Context, host string) ([]net.IP, error)
	LookupAddr(ctx context.Context, addr string) ([]string, error)
}

// NewSystemSource returns a Source backed by the local machine.
func NewSystemSource() Source {
	return &systemSource{resolver: net.DefaultResolver}
}

type systemSource struct {
	resolver *net.Resolver
}

func (s *systemSource) HostInfo(ctx context.Context) (*gohost.InfoStat, error) {
	return gohost.InfoWithContext(ctx)
}

func (s *systemSource) Interfaces(ctx context.Context) (gonet.InterfaceStatList, error) {
	return gonet.InterfacesWithContext(ctx)
}

func (s *systemSource) LookupIP(ctx context.Context, host string) ([]net.IP, error) {
	return s.resolver.LookupIP(ctx, "ip4", host)
}

func (s *systemSource) LookupAddr(ctx context.Context, addr string) ([]string, error) {
	return s.resolver.LookupAddr(ctx, addr)
}

// Collect gathers host data. The hostname and its IPv4 address are
// required; the FQDN falls back to the hostname and the MAC to nothing.
func Collect(ctx context.Context, src Source) (Info, error) {
	hi, err := src.HostInfo(ctx)
	if err != nil {
		return Info{}, fmt.Errorf("host info: %w", err)
	}
	info := Info{Hostname: hi.Hostname}

	ips, err := src.LookupIP(ctx, info.Hostname)
	if err != nil {
		return Info{}, fmt.Errorf("resolve %s: %w", info.Hostname, err)
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			info.IP = v4.String()
			break
		}
	}
	if info.IP == "" {
		return Info{}, fmt.Errorf("resolve %s: no IPv4 address", info.Hostname)
	}

	info.FQDN = fqdn(ctx, src, info.Hostname, info.IP)

	ifaces, err := src.Interfaces(ctx)
	if err != nil {
		return Info{}, fmt.Errorf("list interfaces: %w", err)
	}
	info.RawMAC = hardwareAddr(ifaces)
	return info, nil
}

// fqdn returns the first reverse lookup name that looks qualified.
func fqdn(ctx context.Context, src Source, hostname, ip string) string {
	if strings.Contains(hostname, ".") {
		return hostname
	}
	names, err := src.LookupAddr(ctx, ip)
	if err != nil {
		return hostname
	}
	for _, name := range names {
		name = strings.TrimSuffix(name, ".")
		if strings.Contains(name, ".") {
			return name
		}
	}
	return hostname
}

func hardwareAddr(ifaces gonet.InterfaceStatList) string {
	for _, iface := range ifaces {
		if iface.HardwareAddr == "" || slices.Contains(iface.Flags, "loopback") {
			continue
		}
		return strings.ReplaceAll(iface.HardwareAddr, ":", "")
	}
	return ""
}
