package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carlosrabelo/netterm/domain/entities"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "lowercase", input: "cisco_ios", expected: "cisco_ios"},
		{name: "uppercase", input: "CISCO_IOS", expected: "cisco_ios"},
		{name: "mixed case", input: "Juniper_JunOS", expected: "juniper_junos"},
		{name: "with spaces", input: "  huawei  ", expected: "huawei"},
		{name: "empty string", input: "", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := normalizeName(tt.input); result != tt.expected {
				t.Errorf("normalizeName(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    string
		expectError bool
	}{
		{name: "cisco ios", input: "cisco_ios", expected: "cisco_ios"},
		{name: "junos uppercase", input: "JUNIPER_JUNOS", expected: "juniper_junos"},
		{name: "datacom", input: "datacom_dmos", expected: "datacom_dmos"},
		{name: "terminal", input: "terminal", expected: "terminal"},
		{name: "unknown", input: "vyos", expectError: true},
		{name: "auto is not a profile", input: "auto", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile, err := Get(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, profile.Name)
		})
	}
}

func TestGetReturnsCopy(t *testing.T) {
	first, err := Get("cisco_ios")
	require.NoError(t, err)
	first.Delimiters[0] = "!"
	first.Modes[1].Enter.Command = "su"

	second, err := Get("cisco_ios")
	require.NoError(t, err)
	assert.Equal(t, ">", second.Delimiters[0])
	assert.Equal(t, "enable", second.Modes[1].Enter.Command)
}

func TestBuiltinProfilesAreValid(t *testing.T) {
	for _, name := range Available() {
		t.Run(name, func(t *testing.T) {
			profile, err := Get(name)
			require.NoError(t, err)
			assert.NoError(t, profile.Validate())
			assert.NotEmpty(t, profile.CommandMode)
		})
	}
}

func TestAvailable(t *testing.T) {
	names := Available()
	for _, want := range []string{
		"alcatel_aos", "arista_eos", "aruba_aos", "cisco_asa", "cisco_ios", "cisco_iosxr", "cisco_nxos",
		"cisco_xe", "datacom_dmos", "fujitsu_switch", "hp_comware", "hp_comware_limited",
		"huawei", "infotecs_hw1000", "juniper_junos", "mikrotik_routeros", "terminal", "ubiquiti_edge",
	} {
		assert.Contains(t, names, want)
	}
	assert.NotContains(t, names, "autodetect")
	assert.IsNonDecreasing(t, names)
}

func TestIsKnown(t *testing.T) {
	assert.True(t, IsKnown("auto"))
	assert.True(t, IsKnown(" Cisco_IOS "))
	assert.False(t, IsKnown("vyos"))
}

func TestDetectFromText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
		found    bool
	}{
		{
			name:     "ios",
			text:     "Cisco IOS Software, C2960 Software (C2960-LANBASEK9-M), Version 15.0(2)SE",
			expected: "cisco_ios",
			found:    true,
		},
		{
			name:     "ios xe before ios",
			text:     "Cisco IOS XE Software, Version 17.03.04a\nCisco IOS Software [Amsterdam]",
			expected: "cisco_xe",
			found:    true,
		},
		{
			name:     "ios xr",
			text:     "Cisco IOS XR Software, Version 6.5.3",
			expected: "cisco_iosxr",
			found:    true,
		},
		{
			name:     "nexus",
			text:     "Cisco Nexus Operating System (NX-OS) Software",
			expected: "cisco_nxos",
			found:    true,
		},
		{
			name:     "asa",
			text:     "Cisco Adaptive Security Appliance Software Version 9.8(4)",
			expected: "cisco_asa",
			found:    true,
		},
		{
			name:     "junos",
			text:     "Juniper Networks, Inc. mx960 internet router, kernel JUNOS 21.4R3",
			expected: "juniper_junos",
			found:    true,
		},
		{
			name:     "comware",
			text:     "HPE Comware Platform Software, Software Version 7.1.045",
			expected: "hp_comware",
			found:    true,
		},
		{
			name:     "huawei",
			text:     "Huawei Versatile Routing Platform Software VRP (R) software, Version 5.170",
			expected: "huawei",
			found:    true,
		},
		{
			name:     "routeros",
			text:     "RouterOS CCR1036-8G-2S+",
			expected: "mikrotik_routeros",
			found:    true,
		},
		{
			name:     "dmos",
			text:     "DmOS 5.6.2 - DM4170",
			expected: "datacom_dmos",
			found:    true,
		},
		{
			name:  "unknown",
			text:  "Linux 6.1.0 x86_64",
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			name, found := DetectFromText(tt.text)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.expected, name)
		})
	}
}

func TestRegisterCustomProfile(t *testing.T) {
	custom := entities.VendorProfile{
		Name:           "Lab_Switch",
		Delimiters:     []string{">", "#"},
		PromptTemplate: `{prompt}.*?[{delimiters}]`,
		Prompt:         entities.PromptRule{TrimRight: 1},
		Modes: []entities.ModeNode{
			{Name: "exec", Check: entities.CheckRule{Contains: "#"}},
		},
		CommandMode:   "exec",
		DetectMarkers: []string{"labos"},
	}
	require.NoError(t, Register(custom))

	profile, err := Get("lab_switch")
	require.NoError(t, err)
	assert.Equal(t, "lab_switch", profile.Name)

	name, found := DetectFromText("LabOS 1.0")
	assert.True(t, found)
	assert.Equal(t, "lab_switch", name)

	reserved := custom
	reserved.Name = "auto"
	assert.Error(t, Register(reserved))

	invalid := custom
	invalid.Modes = nil
	assert.Error(t, Register(invalid))
}
