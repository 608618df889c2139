package probe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gosnmp/gosnmp"
)

// OIDSysDescr is SNMPv2-MIB::sysDescr.0
const OIDSysDescr = ".1.3.6.1.2.1.1.1.0"

// SysDescr reads sysDescr.0 over SNMPv2c. port <= 0 uses the configured port.
func (p *Prober) SysDescr(ctx context.Context, address string, port int, community string) (string, error) {
	if port <= 0 {
		port = p.opts.SNMPPort
	}
	fail := func(err error) error {
		return &Failure{Op: "snmp", Address: fmt.Sprintf("%s:%d", address, port), Err: err}
	}

	params := &gosnmp.GoSNMP{
		Target:    address,
		Port:      uint16(port),
		Community: community,
		Version:   gosnmp.Version2c,
		Timeout:   p.opts.SNMPTimeout,
		Retries:   1,
		Context:   ctx,
	}
	if err := params.Connect(); err != nil {
		return "", fail(err)
	}
	defer params.Conn.Close()

	result, err := params.Get([]string{OIDSysDescr})
	if err != nil {
		return "", fail(err)
	}
	if result == nil || len(result.Variables) == 0 {
		return "", fail(errors.New("empty SNMP result"))
	}

	v := result.Variables[0]
	var descr string
	switch v.Type {
	case gosnmp.OctetString:
		if b, ok := v.Value.([]byte); ok {
			descr = string(b)
		}
	case gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.Null:
		return "", fail(fmt.Errorf("sysDescr not available (%s)", v.Type))
	default:
		descr = fmt.Sprintf("%v", v.Value)
	}

	descr = strings.TrimSpace(descr)
	if descr == "" {
		return "", fail(errors.New("empty sysDescr"))
	}
	return descr, nil
}
