/*
 * Copyright 2025 The Monbridge Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// HostStatus controls whether the monitoring server actively polls a host.
type HostStatus int64

const (
	HostStatusEnabled  HostStatus = 0
	HostStatusDisabled HostStatus = 1
)

// MonitoredBy selects which component performs the monitoring of a host:
// the server directly, a single proxy, or a proxy group.
type MonitoredBy int64

const (
	MonitoredByServer     MonitoredBy = 0
	MonitoredByProxy      MonitoredBy = 1
	MonitoredByProxyGroup MonitoredBy = 2
)

func (m MonitoredBy) String() string {
	switch m {
	case MonitoredByServer:
		return "server"
	case MonitoredByProxy:
		return "proxy"
	case MonitoredByProxyGroup:
		return "proxy_group"
	default:
		return fmt.Sprintf("monitored_by(%d)", int64(m))
	}
}

// TLSMode is a bit flag describing an accepted or outgoing encryption mode.
type TLSMode int64

const (
	TLSModeNone TLSMode = 1
	TLSModePSK  TLSMode = 2
	TLSModeCert TLSMode = 4
)

// InventoryMode controls how the remote inventory of a host is populated.
type InventoryMode int64

const (
	InventoryModeDisabled  InventoryMode = -1
	InventoryModeManual    InventoryMode = 0
	InventoryModeAutomatic InventoryMode = 1
)

// MacroType distinguishes plain text macros from secret ones. Secret macro
// values are write-only on the remote side.
type MacroType int64

const (
	MacroTypeText   MacroType = 0
	MacroTypeSecret MacroType = 1
)

// HostTag is a single tag attached to a monitored host.
type HostTag struct {
	Tag   string `json:"tag"`
	Value string `json:"value"`
}

// HostMacro is a user macro attached to a monitored host.
type HostMacro struct {
	Macro       string    `json:"macro"`
	Value       string    `json:"value"`
	Type        MacroType `json:"type"`
	Description string    `json:"description,omitempty"`
}

// InterfaceType identifies the protocol family of a monitoring interface.
type InterfaceType int64

const (
	InterfaceTypeAgent InterfaceType = 1
	InterfaceTypeSNMP  InterfaceType = 2
)

func (t InterfaceType) String() string {
	switch t {
	case InterfaceTypeAgent:
		return "agent"
	case InterfaceTypeSNMP:
		return "snmp"
	default:
		return fmt.Sprintf("type(%d)", int64(t))
	}
}

// ConnectionMethod selects whether a monitoring interface is reached by its
// IP address or by its DNS name.
type ConnectionMethod int64

const (
	ConnectViaDNS ConnectionMethod = 0
	ConnectViaIP  ConnectionMethod = 1
)

// SNMPVersion is the SNMP protocol version of an SNMP interface.
type SNMPVersion int64

const (
	SNMPv1  SNMPVersion = 1
	SNMPv2c SNMPVersion = 2
	SNMPv3  SNMPVersion = 3
)

// SNMPSecurityLevel is the SNMPv3 USM security level.
type SNMPSecurityLevel int64

const (
	SecurityNoAuthNoPriv SNMPSecurityLevel = 0
	SecurityAuthNoPriv   SNMPSecurityLevel = 1
	SecurityAuthPriv     SNMPSecurityLevel = 2
)

// SNMPAuthProtocol is the SNMPv3 authentication protocol.
type SNMPAuthProtocol int64

const (
	AuthMD5    SNMPAuthProtocol = 0
	AuthSHA1   SNMPAuthProtocol = 1
	AuthSHA224 SNMPAuthProtocol = 2
	AuthSHA256 SNMPAuthProtocol = 3
	AuthSHA384 SNMPAuthProtocol = 4
	AuthSHA512 SNMPAuthProtocol = 5
)

// SNMPPrivProtocol is the SNMPv3 privacy protocol.
type SNMPPrivProtocol int64

const (
	PrivDES     SNMPPrivProtocol = 0
	PrivAES128  SNMPPrivProtocol = 1
	PrivAES192  SNMPPrivProtocol = 2
	PrivAES256  SNMPPrivProtocol = 3
	PrivAES192C SNMPPrivProtocol = 4
	PrivAES256C SNMPPrivProtocol = 5
)

// SNMPDetails carries the variant part of an SNMP interface. Community
// applies to v1 and v2c, the USM fields to v3 only.
type SNMPDetails struct {
	Version        SNMPVersion       `json:"version"`
	Bulk           bool              `json:"bulk"`
	MaxRepetitions int64             `json:"max_repetitions,omitempty"`
	Community      string            `json:"community,omitempty"`
	ContextName    string            `json:"context_name,omitempty"`
	SecurityName   string            `json:"security_name,omitempty"`
	SecurityLevel  SNMPSecurityLevel `json:"security_level,omitempty"`
	AuthProtocol   SNMPAuthProtocol  `json:"auth_protocol,omitempty"`
	AuthPassphrase string            `json:"auth_passphrase,omitempty"`
	PrivProtocol   SNMPPrivProtocol  `json:"priv_protocol,omitempty"`
	PrivPassphrase string            `json:"priv_passphrase,omitempty"`
}

// InterfaceConfiguration describes one monitoring interface of a host
// configuration. The common part applies to every interface; Type is the
// variant tag, and SNMP must be non-nil exactly when Type is
// InterfaceTypeSNMP. Agent interfaces carry no variant payload.
//
// Every interface references one network interface of the owning inventory
// object and optionally one of that interface's IP addresses. RemoteID stays
// zero until the interface has been created remotely.
type InterfaceConfiguration struct {
	ID           uuid.UUID        `json:"id"`
	HostConfigID uuid.UUID        `json:"host_config_id"`
	Name         string           `json:"name"`
	RemoteID     int64            `json:"remote_id,omitempty"`
	Type         InterfaceType    `json:"type"`
	Main         bool             `json:"main"`
	ConnectVia   ConnectionMethod `json:"connect_via"`
	NICID        int64            `json:"nic_id"`
	IPAddressID  int64            `json:"ip_address_id,omitempty"`
	IP           string           `json:"ip,omitempty"`
	DNS          string           `json:"dns,omitempty"`
	Port         string           `json:"port"`
	SNMP         *SNMPDetails     `json:"snmp,omitempty"`
}

var (
	// ErrInterfaceAddressMissing is returned when an interface has no
	// usable address for its connection method.
	ErrInterfaceAddressMissing = errors.New("interface has no address")

	// ErrInterfaceNICMissing is returned when an interface references no
	// inventory network interface.
	ErrInterfaceNICMissing = errors.New("interface references no network interface")

	// ErrIPNotOnInterface is returned when an interface references an IP
	// address that does not belong to its referenced network interface.
	ErrIPNotOnInterface = errors.New("ip address does not belong to referenced network interface")

	// ErrSNMPDetailsMissing is returned when an SNMP interface carries no
	// SNMP variant payload.
	ErrSNMPDetailsMissing = errors.New("snmp interface requires snmp details")

	// ErrSNMPDetailsUnexpected is returned when a non-SNMP interface
	// carries an SNMP variant payload.
	ErrSNMPDetailsUnexpected = errors.New("non-snmp interface carries snmp details")

	// ErrSNMPCommunityMissing is returned when an SNMP v1/v2c interface
	// has an empty community.
	ErrSNMPCommunityMissing = errors.New("snmp v1/v2c interface requires a community")

	// ErrSNMPSecurityNameMissing is returned when an SNMPv3 interface has
	// no security name.
	ErrSNMPSecurityNameMissing = errors.New("snmpv3 interface requires a security name")

	// ErrSNMPAuthPassphraseMissing is returned when the security level
	// demands authentication but no auth passphrase is set.
	ErrSNMPAuthPassphraseMissing = errors.New("snmpv3 security level requires an auth passphrase")

	// ErrSNMPPrivPassphraseMissing is returned when the security level
	// demands privacy but no privacy passphrase is set.
	ErrSNMPPrivPassphraseMissing = errors.New("snmpv3 security level requires a privacy passphrase")

	// ErrDuplicateMainInterface is returned when a host declares more than
	// one main interface within the same protocol family.
	ErrDuplicateMainInterface = errors.New("duplicate main interface for protocol family")

	// ErrNoMainInterface is returned when a host declares interfaces of a
	// protocol family but none of them is flagged main.
	ErrNoMainInterface = errors.New("no main interface for protocol family")

	// ErrProxySelectorConflict is returned when the monitored-by mode and
	// the proxy or proxy-group reference disagree.
	ErrProxySelectorConflict = errors.New("monitored-by mode conflicts with proxy selector")

	// ErrHostNameMissing is returned when a host configuration has an
	// empty technical name.
	ErrHostNameMissing = errors.New("host name is required")
)

// Validate checks the interface for internal consistency.
func (ic *InterfaceConfiguration) Validate() error {
	if ic.NICID == 0 {
		return ErrInterfaceNICMissing
	}

	switch ic.ConnectVia {
	case ConnectViaIP:
		if ic.IP == "" {
			return fmt.Errorf("%w: connect-via-ip with empty ip", ErrInterfaceAddressMissing)
		}
	case ConnectViaDNS:
		if ic.DNS == "" {
			return fmt.Errorf("%w: connect-via-dns with empty dns", ErrInterfaceAddressMissing)
		}
	}

	if ic.Type != InterfaceTypeSNMP {
		if ic.SNMP != nil {
			return ErrSNMPDetailsUnexpected
		}

		return nil
	}

	if ic.SNMP == nil {
		return ErrSNMPDetailsMissing
	}

	return ic.SNMP.validate()
}

// ValidateAgainst additionally checks the interface references against the
// owning inventory object: the referenced network interface must exist and
// the referenced IP address, when set, must belong to it.
func (ic *InterfaceConfiguration) ValidateAgainst(obj *InventoryObject) error {
	if err := ic.Validate(); err != nil {
		return err
	}

	nic := obj.Interface(ic.NICID)
	if nic == nil {
		return fmt.Errorf("%w: nic %d not on %s", ErrInterfaceNICMissing, ic.NICID, obj.Ref)
	}

	if ic.IPAddressID != 0 && !nic.HasAddress(ic.IPAddressID) {
		return fmt.Errorf("%w: ip %d not on nic %q", ErrIPNotOnInterface, ic.IPAddressID, nic.Name)
	}

	return nil
}

func (d *SNMPDetails) validate() error {
	switch d.Version {
	case SNMPv1, SNMPv2c:
		if d.Community == "" {
			return ErrSNMPCommunityMissing
		}
	case SNMPv3:
		if d.SecurityName == "" {
			return ErrSNMPSecurityNameMissing
		}

		if d.SecurityLevel >= SecurityAuthNoPriv && d.AuthPassphrase == "" {
			return ErrSNMPAuthPassphraseMissing
		}

		if d.SecurityLevel >= SecurityAuthPriv && d.PrivPassphrase == "" {
			return ErrSNMPPrivPassphraseMissing
		}
	default:
		return fmt.Errorf("unknown snmp version %d", d.Version)
	}

	return nil
}

// HostConfiguration is the local desired-state record for one inventory
// object. RemoteID stays zero until the host has been created remotely.
// InSync and LastSyncCheck are owned by the comparison path: a successful
// comparison or update sets them, a failed write leaves them untouched.
type HostConfiguration struct {
	ID            uuid.UUID                `json:"id"`
	ObjectRef     ObjectRef                `json:"object_ref"`
	RemoteID      int64                    `json:"remote_id,omitempty"`
	Host          string                   `json:"host"`
	VisibleName   string                   `json:"visible_name,omitempty"`
	Description   string                   `json:"description,omitempty"`
	Status        HostStatus               `json:"status"`
	InSync        bool                     `json:"in_sync"`
	LastSyncCheck time.Time                `json:"last_sync_check,omitempty"`
	MonitoredBy   MonitoredBy              `json:"monitored_by"`
	ProxyID       int64                    `json:"proxy_id,omitempty"`
	ProxyGroupID  int64                    `json:"proxy_group_id,omitempty"`
	GroupIDs      []int64                  `json:"group_ids"`
	TemplateIDs   []int64                  `json:"template_ids,omitempty"`
	Tags          []HostTag                `json:"tags,omitempty"`
	Macros        []HostMacro              `json:"macros,omitempty"`
	InventoryMode InventoryMode            `json:"inventory_mode"`
	Inventory     map[string]string        `json:"inventory,omitempty"`
	Interfaces    []InterfaceConfiguration `json:"interfaces,omitempty"`
	TLSConnect    TLSMode                  `json:"tls_connect,omitempty"`
	TLSAccept     TLSMode                  `json:"tls_accept,omitempty"`
	TLSIssuer     string                   `json:"tls_issuer,omitempty"`
	TLSSubject    string                   `json:"tls_subject,omitempty"`
	TLSPSKID      string                   `json:"tls_psk_identity,omitempty"`
	TLSPSK        string                   `json:"tls_psk,omitempty"`
	CreatedAt     time.Time                `json:"created_at,omitempty"`
	UpdatedAt     time.Time                `json:"updated_at,omitempty"`
}

// Provisioned reports whether the host exists remotely.
func (hc *HostConfiguration) Provisioned() bool {
	return hc.RemoteID != 0
}

// Validate checks the configuration for internal consistency, including the
// one-main-interface-per-protocol-family rule.
func (hc *HostConfiguration) Validate() error {
	if hc.Host == "" {
		return ErrHostNameMissing
	}

	switch hc.MonitoredBy {
	case MonitoredByServer:
		if hc.ProxyID != 0 || hc.ProxyGroupID != 0 {
			return fmt.Errorf("%w: server-monitored host references a proxy", ErrProxySelectorConflict)
		}
	case MonitoredByProxy:
		if hc.ProxyID == 0 {
			return fmt.Errorf("%w: proxy-monitored host without proxy id", ErrProxySelectorConflict)
		}

		if hc.ProxyGroupID != 0 {
			return fmt.Errorf("%w: proxy-monitored host references a proxy group", ErrProxySelectorConflict)
		}
	case MonitoredByProxyGroup:
		if hc.ProxyGroupID == 0 {
			return fmt.Errorf("%w: proxy-group-monitored host without proxy group id", ErrProxySelectorConflict)
		}

		if hc.ProxyID != 0 {
			return fmt.Errorf("%w: proxy-group-monitored host references a proxy", ErrProxySelectorConflict)
		}
	}

	mains := make(map[InterfaceType]int)
	counts := make(map[InterfaceType]int)

	for i := range hc.Interfaces {
		ic := &hc.Interfaces[i]

		if err := ic.Validate(); err != nil {
			return fmt.Errorf("interface %q: %w", ic.Name, err)
		}

		counts[ic.Type]++

		if ic.Main {
			mains[ic.Type]++
		}
	}

	for t, n := range counts {
		switch {
		case mains[t] == 0:
			return fmt.Errorf("%w: %s", ErrNoMainInterface, t)
		case mains[t] > 1:
			return fmt.Errorf("%w: %s has %d of %d flagged main", ErrDuplicateMainInterface, t, mains[t], n)
		}
	}

	return nil
}

// MainInterface returns the main interface of the given protocol family, or
// nil when the host has none.
func (hc *HostConfiguration) MainInterface(t InterfaceType) *InterfaceConfiguration {
	for i := range hc.Interfaces {
		if hc.Interfaces[i].Type == t && hc.Interfaces[i].Main {
			return &hc.Interfaces[i]
		}
	}

	return nil
}

// SetMain flags the interface at index idx as the main interface of its
// protocol family, demoting any other interface of the same family. It is
// the only sanctioned way to move the main flag.
func (hc *HostConfiguration) SetMain(idx int) error {
	if idx < 0 || idx >= len(hc.Interfaces) {
		return fmt.Errorf("interface index %d out of range", idx)
	}

	family := hc.Interfaces[idx].Type

	for i := range hc.Interfaces {
		if hc.Interfaces[i].Type == family {
			hc.Interfaces[i].Main = i == idx
		}
	}

	return nil
}

// Clone returns a deep copy of the configuration. Callers that mutate a
// configuration obtained from a shared cache must clone it first.
func (hc *HostConfiguration) Clone() *HostConfiguration {
	if hc == nil {
		return nil
	}

	out := *hc

	if hc.GroupIDs != nil {
		out.GroupIDs = append([]int64(nil), hc.GroupIDs...)
	}

	if hc.TemplateIDs != nil {
		out.TemplateIDs = append([]int64(nil), hc.TemplateIDs...)
	}

	if hc.Tags != nil {
		out.Tags = append([]HostTag(nil), hc.Tags...)
	}

	if hc.Macros != nil {
		out.Macros = append([]HostMacro(nil), hc.Macros...)
	}

	if hc.Inventory != nil {
		out.Inventory = make(map[string]string, len(hc.Inventory))
		for k, v := range hc.Inventory {
			out.Inventory[k] = v
		}
	}

	if hc.Interfaces != nil {
		out.Interfaces = make([]InterfaceConfiguration, len(hc.Interfaces))

		for i := range hc.Interfaces {
			out.Interfaces[i] = hc.Interfaces[i]

			if hc.Interfaces[i].SNMP != nil {
				snmp := *hc.Interfaces[i].SNMP
				out.Interfaces[i].SNMP = &snmp
			}
		}
	}

	return &out
}
