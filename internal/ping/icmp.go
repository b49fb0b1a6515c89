package ping

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

const echoPayload = "pingtray"

// ICMPPinger sends one ICMP echo request over a raw socket per check.
type ICMPPinger struct {
	id       int
	seq      uint32
	resolver *net.Resolver
}

// NewICMPPinger returns a pinger using a process-scoped echo identifier.
func NewICMPPinger() *ICMPPinger {
	return &ICMPPinger{id: os.Getpid() & 0xffff, resolver: net.DefaultResolver}
}

// Ping resolves addr, sends an echo request and waits for the matching reply.
func (p *ICMPPinger) Ping(ctx context.Context, addr string, timeout time.Duration) Result {
	if err := ctx.Err(); err != nil {
		return Result{Error: err}
	}

	deadline := effectiveDeadline(ctx, timeout)
	resolveCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()
	ip, err := p.resolve(resolveCtx, addr)
	if err != nil {
		return Result{Error: err}
	}

	network, protocol, requestType, replyType := icmpSettings(ip)
	conn, err := icmp.ListenPacket(network, "")
	if err != nil {
		return Result{Error: fmt.Errorf("%w: open %s socket: %w", ErrUnavailable, network, err)}
	}
	defer conn.Close()

	seq := int(atomic.AddUint32(&p.seq, 1) & 0xffff)
	msg := icmp.Message{
		Type: requestType,
		Body: &icmp.Echo{ID: p.id, Seq: seq, Data: []byte(echoPayload)},
	}
	payload, err := msg.Marshal(nil)
	if err != nil {
		return Result{Error: fmt.Errorf("%w: marshal echo: %w", ErrUnavailable, err)}
	}
	if err := conn.SetDeadline(deadline); err != nil {
		return Result{Error: err}
	}

	start := time.Now()
	if _, err := conn.WriteTo(payload, &net.IPAddr{IP: ip}); err != nil {
		return Result{Error: err}
	}

	buf := make([]byte, 1500)
	for {
		if err := ctx.Err(); err != nil {
			return Result{Error: err}
		}
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				return Result{Error: fmt.Errorf("ping timeout: %w", err)}
			}
			return Result{Error: err}
		}

		reply, err := icmp.ParseMessage(protocol, buf[:n])
		if err != nil || reply.Type != replyType {
			continue
		}
		body, ok := reply.Body.(*icmp.Echo)
		if !ok || body.ID != p.id || body.Seq != seq {
			continue
		}
		return Result{Success: true, RTT: time.Since(start)}
	}
}

func (p *ICMPPinger) resolve(ctx context.Context, addr string) (net.IP, error) {
	if ip := net.ParseIP(addr); ip != nil {
		return ip, nil
	}
	addrs, err := p.resolver.LookupIPAddr(ctx, addr)
	if err != nil {
		return nil, err
	}
	if len(addrs) == 0 || addrs[0].IP == nil {
		return nil, fmt.Errorf("no addresses found for %s", addr)
	}
	for _, candidate := range addrs {
		if candidate.IP.To4() != nil {
			return candidate.IP, nil
		}
	}
	return addrs[0].IP, nil
}

func icmpSettings(ip net.IP) (network string, protocol int, requestType icmp.Type, replyType icmp.Type) {
	if ip.To4() != nil {
		return "ip4:icmp", ipv4.ICMPTypeEcho.Protocol(), ipv4.ICMPTypeEcho, ipv4.ICMPTypeEchoReply
	}
	return "ip6:ipv6-icmp", ipv6.ICMPTypeEchoRequest.Protocol(), ipv6.ICMPTypeEchoRequest, ipv6.ICMPTypeEchoReply
}
