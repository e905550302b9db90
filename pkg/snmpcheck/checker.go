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

// Package snmpcheck probes SNMP monitoring interfaces with their
// configured credentials before they are provisioned remotely. The probe
// is a single sysObjectID GET; the orchestrator treats a failed probe as
// a warning, so unreachable devices still get provisioned.
package snmpcheck

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/gosnmp/gosnmp"

	"github.com/monbridge/monbridge/pkg/logger"
	"github.com/monbridge/monbridge/pkg/models"
)

const (
	oidSysObjectID = ".1.3.6.1.2.1.1.2.0"
	defaultTimeout = 5 * time.Second
	defaultPort    = 161
)

var (
	errUnsupportedVersion = errors.New("unsupported snmp version")
	errProbeRejected      = errors.New("snmp probe rejected")
	errEmptyProbeResponse = errors.New("snmp probe returned no variables")
)

// snmpConn is the slice of the SNMP client the probe uses.
type snmpConn interface {
	Connect() error
	Get(oids []string) (*gosnmp.SnmpPacket, error)
	Close() error
}

type gosnmpConn struct {
	client *gosnmp.GoSNMP
}

func (c *gosnmpConn) Connect() error {
	return c.client.Connect()
}

func (c *gosnmpConn) Get(oids []string) (*gosnmp.SnmpPacket, error) {
	return c.client.Get(oids)
}

func (c *gosnmpConn) Close() error {
	if c.client.Conn == nil {
		return nil
	}

	return c.client.Conn.Close()
}

// Checker verifies that an SNMP interface answers a sysObjectID GET. It
// implements the orchestrator's interface preflight.
type Checker struct {
	timeout time.Duration
	retries int
	logger  logger.Logger

	// dial is swapped in tests.
	dial func(ctx context.Context, ic *models.InterfaceConfiguration) (snmpConn, error)
}

// New creates a Checker. A nil config uses the probe defaults.
func New(cfg *models.SNMPCheckConfig, log logger.Logger) *Checker {
	if cfg == nil {
		cfg = &models.SNMPCheckConfig{}
	}

	timeout := time.Duration(cfg.Timeout)
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	retries := cfg.Retries
	if retries < 0 {
		retries = 0
	}

	c := &Checker{
		timeout: timeout,
		retries: retries,
		logger:  log,
	}

	c.dial = func(ctx context.Context, ic *models.InterfaceConfiguration) (snmpConn, error) {
		client, err := buildClient(ctx, ic, c.timeout, c.retries)
		if err != nil {
			return nil, err
		}

		return &gosnmpConn{client: client}, nil
	}

	return c
}

// CheckInterface probes an SNMP interface. Agent interfaces carry no
// credentials to verify and pass trivially.
func (c *Checker) CheckInterface(ctx context.Context, ic *models.InterfaceConfiguration) error {
	if ic.Type != models.InterfaceTypeSNMP {
		return nil
	}

	conn, err := c.dial(ctx, ic)
	if err != nil {
		return fmt.Errorf("build snmp client: %w", err)
	}

	if err := conn.Connect(); err != nil {
		return fmt.Errorf("connect %q: %w", ic.Name, err)
	}

	defer func() {
		if err := conn.Close(); err != nil {
			c.logger.Debug().Err(err).Str("interface", ic.Name).Msg("Closing SNMP connection failed")
		}
	}()

	packet, err := conn.Get([]string{oidSysObjectID})
	if err != nil {
		return fmt.Errorf("get sysObjectID from %q: %w", ic.Name, err)
	}

	if packet.Error != gosnmp.NoError {
		return fmt.Errorf("%w: %v", errProbeRejected, packet.Error)
	}

	if len(packet.Variables) == 0 {
		return errEmptyProbeResponse
	}

	c.logger.Debug().
		Str("interface", ic.Name).
		Msg("SNMP preflight succeeded")

	return nil
}

func buildClient(ctx context.Context, ic *models.InterfaceConfiguration, timeout time.Duration, retries int) (*gosnmp.GoSNMP, error) {
	details := ic.SNMP
	if details == nil {
		return nil, models.ErrSNMPDetailsMissing
	}

	target := ic.IP
	if ic.ConnectVia == models.ConnectViaDNS {
		target = ic.DNS
	}

	if target == "" {
		return nil, models.ErrInterfaceAddressMissing
	}

	port := uint16(defaultPort)

	if ic.Port != "" {
		parsed, err := strconv.ParseUint(ic.Port, 10, 16)
		if err != nil {
			return nil, fmt.Errorf("parse port %q: %w", ic.Port, err)
		}

		port = uint16(parsed)
	}

	client := &gosnmp.GoSNMP{
		Context:            ctx,
		Target:             target,
		Port:               port,
		Timeout:            timeout,
		Retries:            retries,
		MaxOids:            gosnmp.MaxOids,
		ExponentialTimeout: true,
	}

	switch details.Version {
	case models.SNMPv1:
		client.Version = gosnmp.Version1
		client.Community = details.Community
	case models.SNMPv2c:
		client.Version = gosnmp.Version2c
		client.Community = details.Community
	case models.SNMPv3:
		client.Version = gosnmp.Version3
		client.SecurityModel = gosnmp.UserSecurityModel
		client.ContextName = details.ContextName
		client.MsgFlags = msgFlags(details.SecurityLevel)

		usm := &gosnmp.UsmSecurityParameters{UserName: details.SecurityName}
		configureV3Authentication(usm, details)
		configureV3Privacy(usm, details)
		client.SecurityParameters = usm
	default:
		return nil, fmt.Errorf("%w: %d", errUnsupportedVersion, details.Version)
	}

	return client, nil
}

func msgFlags(level models.SNMPSecurityLevel) gosnmp.SnmpV3MsgFlags {
	switch level {
	case models.SecurityAuthNoPriv:
		return gosnmp.AuthNoPriv
	case models.SecurityAuthPriv:
		return gosnmp.AuthPriv
	default:
		return gosnmp.NoAuthNoPriv
	}
}

func configureV3Authentication(usm *gosnmp.UsmSecurityParameters, details *models.SNMPDetails) {
	if details.SecurityLevel < models.SecurityAuthNoPriv {
		return
	}

	switch details.AuthProtocol {
	case models.AuthMD5:
		usm.AuthenticationProtocol = gosnmp.MD5
	case models.AuthSHA1:
		usm.AuthenticationProtocol = gosnmp.SHA
	case models.AuthSHA224:
		usm.AuthenticationProtocol = gosnmp.SHA224
	case models.AuthSHA256:
		usm.AuthenticationProtocol = gosnmp.SHA256
	case models.AuthSHA384:
		usm.AuthenticationProtocol = gosnmp.SHA384
	case models.AuthSHA512:
		usm.AuthenticationProtocol = gosnmp.SHA512
	}

	usm.AuthenticationPassphrase = details.AuthPassphrase
}

func configureV3Privacy(usm *gosnmp.UsmSecurityParameters, details *models.SNMPDetails) {
	if details.SecurityLevel < models.SecurityAuthPriv {
		return
	}

	switch details.PrivProtocol {
	case models.PrivDES:
		usm.PrivacyProtocol = gosnmp.DES
	case models.PrivAES128:
		usm.PrivacyProtocol = gosnmp.AES
	case models.PrivAES192:
		usm.PrivacyProtocol = gosnmp.AES192
	case models.PrivAES256:
		usm.PrivacyProtocol = gosnmp.AES256
	case models.PrivAES192C:
		usm.PrivacyProtocol = gosnmp.AES192C
	case models.PrivAES256C:
		usm.PrivacyProtocol = gosnmp.AES256C
	}

	usm.PrivacyPassphrase = details.PrivPassphrase
}
