package firewalld

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// xmlService mirrors firewalld's on-disk service document, rooted at
// <service>. Field order matches the conventional emission order.
type xmlService struct {
	XMLName     xml.Name         `xml:"service"`
	Version     string           `xml:"version,attr,omitempty"`
	Short       string           `xml:"short,omitempty"`
	Description string           `xml:"description,omitempty"`
	Ports       []xmlPort        `xml:"port"`
	Protocols   []xmlProtocolVal `xml:"protocol"`
	SourcePorts []xmlSourcePort  `xml:"source-port"`
	Modules     []xmlModule      `xml:"module"`
	Destination *xmlDestination  `xml:"destination"`
}

type xmlPort struct {
	Protocol string `xml:"protocol,attr"`
	Port     string `xml:"port,attr"`
}

type xmlSourcePort struct {
	Protocol string `xml:"protocol,attr"`
	Port     string `xml:"port,attr"`
}

type xmlProtocolVal struct {
	Value string `xml:"value,attr"`
}

type xmlModule struct {
	Name string `xml:"name,attr"`
}

type xmlDestination struct {
	IPv4 string `xml:"ipv4,attr,omitempty"`
	IPv6 string `xml:"ipv6,attr,omitempty"`
}

// ParseService parses the on-disk service document from r and produces a
// Service named name. It tolerates missing optional fields; it fails with
// InvalidFormat on a wrong root element, a duplicate port/protocol/module
// entry, or an unparseable protocol/port/prefix. A missing <destination>
// element expands to both unspecified prefixes; one present with neither
// ipv4 nor ipv6 attribute is invalid.
func ParseService(name string, r io.Reader) (Service, error) {
	var doc xmlService
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return Service{}, wrapError(KindInvalidFormat, fmt.Sprintf("parsing service %q", name), err)
	}

	svc := Service{
		Name:        name,
		Version:     doc.Version,
		ShortName:   doc.Short,
		Description: doc.Description,
	}

	seenPorts := map[PortRange]bool{}
	for _, p := range doc.Ports {
		r, err := parsePortAttr(p.Protocol, p.Port)
		if err != nil {
			return Service{}, wrapError(KindInvalidFormat, fmt.Sprintf("service %q: bad <port>", name), err)
		}
		if seenPorts[r] {
			return Service{}, wrapError(KindInvalidFormat, fmt.Sprintf("service %q: duplicate <port> %s/%s", name, r.Proto, r), nil)
		}
		seenPorts[r] = true
		svc.Ports = append(svc.Ports, r)
	}

	seenProto := map[Protocol]bool{}
	for _, p := range doc.Protocols {
		proto, err := ParseProtocol(p.Value)
		if err != nil {
			return Service{}, wrapError(KindInvalidFormat, fmt.Sprintf("service %q: bad <protocol>", name), err)
		}
		if seenProto[proto] {
			return Service{}, wrapError(KindInvalidFormat, fmt.Sprintf("service %q: duplicate <protocol> %s", name, proto), nil)
		}
		seenProto[proto] = true
		svc.Protocols = append(svc.Protocols, proto)
	}

	seenSourcePorts := map[PortRange]bool{}
	for _, p := range doc.SourcePorts {
		r, err := parsePortAttr(p.Protocol, p.Port)
		if err != nil {
			return Service{}, wrapError(KindInvalidFormat, fmt.Sprintf("service %q: bad <source-port>", name), err)
		}
		if seenSourcePorts[r] {
			return Service{}, wrapError(KindInvalidFormat, fmt.Sprintf("service %q: duplicate <source-port> %s/%s", name, r.Proto, r), nil)
		}
		seenSourcePorts[r] = true
		svc.SourcePorts = append(svc.SourcePorts, r)
	}

	seenModule := map[string]bool{}
	for _, m := range doc.Modules {
		if seenModule[m.Name] {
			return Service{}, wrapError(KindInvalidFormat, fmt.Sprintf("service %q: duplicate <module> %s", name, m.Name), nil)
		}
		seenModule[m.Name] = true
		svc.Modules = append(svc.Modules, m.Name)
	}

	if doc.Destination == nil {
		v4, v6 := UnspecifiedIPv4, UnspecifiedIPv6
		svc.DestinationIPv4 = &v4
		svc.DestinationIPv6 = &v6
	} else {
		if doc.Destination.IPv4 == "" && doc.Destination.IPv6 == "" {
			return Service{}, wrapError(KindInvalidFormat,
				fmt.Sprintf("service %q: <destination> has neither ipv4 nor ipv6", name), nil)
		}
		if doc.Destination.IPv4 != "" {
			p, err := ParsePrefix(doc.Destination.IPv4)
			if err != nil {
				return Service{}, wrapError(KindInvalidFormat, fmt.Sprintf("service %q: bad destination ipv4", name), err)
			}
			svc.DestinationIPv4 = &p
		}
		if doc.Destination.IPv6 != "" {
			p, err := ParsePrefix(doc.Destination.IPv6)
			if err != nil {
				return Service{}, wrapError(KindInvalidFormat, fmt.Sprintf("service %q: bad destination ipv6", name), err)
			}
			svc.DestinationIPv6 = &p
		}
	}

	if len(svc.Ports) == 0 && len(svc.Protocols) == 0 && len(svc.Modules) == 0 {
		return Service{}, wrapError(KindInvalidFormat,
			fmt.Sprintf("service %q: has none of ports, protocols, or modules", name), nil)
	}

	built, err := NewService(svc)
	if err != nil {
		return Service{}, wrapError(KindInvalidFormat, fmt.Sprintf("service %q", name), err)
	}
	return built, nil
}

func parsePortAttr(protoName, portAttr string) (PortRange, error) {
	proto, err := ParseProtocol(protoName)
	if err != nil {
		return PortRange{}, err
	}
	from, to, err := parsePortOrRange(portAttr)
	if err != nil {
		return PortRange{}, err
	}
	return NewPortRange(from, to, proto)
}

func parsePortOrRange(s string) (from, to uint16, err error) {
	if idx := strings.IndexByte(s, '-'); idx >= 0 {
		a, errA := strconv.ParseUint(s[:idx], 10, 16)
		b, errB := strconv.ParseUint(s[idx+1:], 10, 16)
		if errA != nil || errB != nil {
			return 0, 0, fmt.Errorf("invalid port range %q", s)
		}
		return uint16(a), uint16(b), nil
	}
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid port %q", s)
	}
	return uint16(v), uint16(v), nil
}

// WriteService encodes svc as firewalld's on-disk XML document, indenting
// two spaces per level. The <destination> element is omitted only when both
// DestinationIPv4 and DestinationIPv6 are non-nil and equal the per-family
// wildcard; a nil destination for one family means that family has no
// access at all and must be written out so it survives a reparse as nil
// rather than expanding back to a wildcard.
func WriteService(w io.Writer, svc Service) error {
	doc := xmlService{
		Version:     svc.Version,
		Short:       svc.ShortName,
		Description: svc.Description,
	}
	for _, r := range svc.Ports {
		doc.Ports = append(doc.Ports, xmlPort{Protocol: r.Proto.String(), Port: r.String()})
	}
	for _, p := range svc.Protocols {
		doc.Protocols = append(doc.Protocols, xmlProtocolVal{Value: p.String()})
	}
	for _, r := range svc.SourcePorts {
		doc.SourcePorts = append(doc.SourcePorts, xmlSourcePort{Protocol: r.Proto.String(), Port: r.String()})
	}
	for _, m := range svc.Modules {
		doc.Modules = append(doc.Modules, xmlModule{Name: m})
	}

	omit := isWildcardDestination(svc.DestinationIPv4) && isWildcardDestination(svc.DestinationIPv6)
	if !omit {
		dest := &xmlDestination{}
		if svc.DestinationIPv4 != nil {
			dest.IPv4 = svc.DestinationIPv4.String()
		}
		if svc.DestinationIPv6 != nil {
			dest.IPv6 = svc.DestinationIPv6.String()
		}
		doc.Destination = dest
	}

	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return wrapError(KindInvalidFormat, fmt.Sprintf("encoding service %q", svc.Name), err)
	}
	buf.WriteByte('\n')

	_, err := w.Write(buf.Bytes())
	return err
}

// isWildcardDestination reports whether p is an explicit per-family
// wildcard. A nil p means that family is absent, not wildcard, so it
// returns false: the caller must still write the element in that case.
func isWildcardDestination(p *Prefix) bool {
	if p == nil {
		return false
	}
	return *p == UnspecifiedIPv4 || *p == UnspecifiedIPv6
}
