package snmp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gosnmp/gosnmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlosrabelo/netterm/domain/entities"
	"github.com/carlosrabelo/netterm/infrastructure/logging"
)

type fakeClient struct {
	connectErr error
	getErr     error
	variables  []gosnmp.SnmpPDU
	closed     bool
	oids       []string
}

func (f *fakeClient) Connect() error { return f.connectErr }

func (f *fakeClient) Get(oids []string) (*gosnmp.SnmpPacket, error) {
	f.oids = oids
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &gosnmp.SnmpPacket{Variables: f.variables}, nil
}

func (f *fakeClient) Close() error {
	f.closed = true
	return nil
}

func sysDescr(value any) []gosnmp.SnmpPDU {
	return []gosnmp.SnmpPDU{{Name: SysDescrOID, Type: gosnmp.OctetString, Value: value}}
}

func TestDetector_Detect(t *testing.T) {
	tests := []struct {
		name     string
		client   *fakeClient
		expected string
		errMsg   string
	}{
		{
			name:     "cisco ios",
			client:   &fakeClient{variables: sysDescr([]byte("Cisco IOS Software, C2960 Software (C2960-LANBASEK9-M), Version 15.0(2)SE11"))},
			expected: "cisco_ios",
		},
		{
			name:     "ios xr before ios",
			client:   &fakeClient{variables: sysDescr([]byte("Cisco IOS XR Software (Cisco ASR9K Series), Version 7.3.2"))},
			expected: "cisco_iosxr",
		},
		{
			name:     "junos as string",
			client:   &fakeClient{variables: sysDescr("Juniper Networks, Inc. mx960 internet router, kernel JUNOS 21.4R3")},
			expected: "juniper_junos",
		},
		{
			name:   "unknown vendor",
			client: &fakeClient{variables: sysDescr([]byte("Linux fileserver 6.1.0"))},
			errMsg: "no device type matches",
		},
		{
			name:   "missing variable",
			client: &fakeClient{variables: []gosnmp.SnmpPDU{{Name: ".1.3.6.1.2.1.1.5.0", Value: []byte("r1")}}},
			errMsg: "sysDescr missing",
		},
		{
			name:   "no such object",
			client: &fakeClient{variables: []gosnmp.SnmpPDU{{Name: SysDescrOID, Type: gosnmp.NoSuchObject}}},
			errMsg: "sysDescr missing",
		},
		{
			name:   "get fails",
			client: &fakeClient{getErr: errors.New("request timeout")},
			errMsg: "failed to query sysDescr",
		},
		{
			name:   "connect fails",
			client: &fakeClient{connectErr: errors.New("no route to host")},
			errMsg: "failed to open snmp session",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dial := func(host, community string, _ time.Duration) Client {
				assert.Equal(t, "192.0.2.1", host)
				assert.Equal(t, "public", community)
				return tt.client
			}
			cfg := entities.SessionConfig{Host: "192.0.2.1", SNMPCommunity: "public"}

			deviceType, err := NewDetector(dial, logging.NoOp{}).Detect(context.Background(), cfg)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, deviceType)
			assert.Equal(t, []string{SysDescrOID}, tt.client.oids)
			assert.True(t, tt.client.closed)
		})
	}
}

func TestDetector_RequiresCommunity(t *testing.T) {
	dialed := false
	dial := func(string, string, time.Duration) Client {
		dialed = true
		return &fakeClient{}
	}
	_, err := NewDetector(dial, logging.NoOp{}).Detect(context.Background(), entities.SessionConfig{Host: "r1"})
	assert.Error(t, err)
	assert.False(t, dialed)
}

func TestDetector_TimeoutFollowsContext(t *testing.T) {
	var got time.Duration
	dial := func(_ string, _ string, timeout time.Duration) Client {
		got = timeout
		return &fakeClient{variables: sysDescr([]byte("Cisco IOS Software"))}
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	cfg := entities.SessionConfig{Host: "192.0.2.1", SNMPCommunity: "public", Timeout: time.Minute}
	_, err := NewDetector(dial, logging.NoOp{}).Detect(ctx, cfg)
	require.NoError(t, err)
	assert.LessOrEqual(t, got, time.Second)
	assert.Greater(t, got, time.Duration(0))
}

func TestDialV2c(t *testing.T) {
	client, ok := DialV2c("192.0.2.1", "public", 3*time.Second).(gosnmpClient)
	require.True(t, ok)
	assert.Equal(t, gosnmp.Version2c, client.Version)
	assert.Equal(t, uint16(DefaultPort), client.Port)
	assert.Equal(t, 3*time.Second, client.Timeout)
	assert.NoError(t, client.Close())
}
