package firewalld

import "fmt"

// Protocol is a closed enumeration of the IANA protocol keywords firewalld
// services reference. Total order is by the numeric protocol number.
type Protocol struct {
	name   string
	number uint8
}

// String returns the protocol's keyword, e.g. "tcp".
func (p Protocol) String() string {
	return p.name
}

// Number returns the protocol's IANA number.
func (p Protocol) Number() uint8 {
	return p.number
}

// Compare orders protocols by numeric protocol number.
func (p Protocol) Compare(other Protocol) int {
	switch {
	case p.number < other.number:
		return -1
	case p.number > other.number:
		return 1
	default:
		return 0
	}
}

// Well-known protocols. Numbers match /etc/protocols.
var (
	ProtocolICMP   = Protocol{"icmp", 1}
	ProtocolTCP    = Protocol{"tcp", 6}
	ProtocolUDP    = Protocol{"udp", 17}
	ProtocolGRE    = Protocol{"gre", 47}
	ProtocolESP    = Protocol{"esp", 50}
	ProtocolAH     = Protocol{"ah", 51}
	ProtocolICMPv6 = Protocol{"icmpv6", 58}
	ProtocolSCTP   = Protocol{"sctp", 132}
)

var protocolsByName = map[string]Protocol{
	ProtocolICMP.name:   ProtocolICMP,
	ProtocolTCP.name:    ProtocolTCP,
	ProtocolUDP.name:    ProtocolUDP,
	ProtocolGRE.name:    ProtocolGRE,
	ProtocolESP.name:    ProtocolESP,
	ProtocolAH.name:     ProtocolAH,
	ProtocolICMPv6.name: ProtocolICMPv6,
	ProtocolSCTP.name:   ProtocolSCTP,
}

// ParseProtocol looks up a protocol by its keyword. It fails with
// InvalidArgument if the keyword is not in the registry.
func ParseProtocol(s string) (Protocol, error) {
	if p, ok := protocolsByName[s]; ok {
		return p, nil
	}
	return Protocol{}, wrapError(KindInvalidArgument, fmt.Sprintf("unknown protocol: %q", s), nil)
}
