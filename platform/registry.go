// Package platform maps device-type names to vendor profiles.
package platform

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/carlosrabelo/netterm/domain/entities"
	"github.com/carlosrabelo/netterm/platform/alcatel"
	"github.com/carlosrabelo/netterm/platform/comware"
	"github.com/carlosrabelo/netterm/platform/dmos"
	"github.com/carlosrabelo/netterm/platform/infotecs"
	"github.com/carlosrabelo/netterm/platform/ios"
	"github.com/carlosrabelo/netterm/platform/junos"
	"github.com/carlosrabelo/netterm/platform/routeros"
	"github.com/carlosrabelo/netterm/platform/terminal"
)

// AutoName asks for the device type to be detected at connect time
const AutoName = "auto"

var (
	mu       sync.RWMutex
	registry = make(map[string]entities.VendorProfile)
	order    []string
)

func init() {
	builtins := append(ios.Profiles(),
		junos.Profile(),
		comware.HPComware(),
		comware.HPComwareLimited(),
		comware.Huawei(),
		infotecs.HW1000(),
		alcatel.AOS(),
		routeros.Profile(),
		dmos.Profile(),
		terminal.Profile(),
		terminal.Autodetect(),
	)
	for _, p := range builtins {
		if err := Register(p); err != nil {
			panic(err)
		}
	}
}

// Register adds or replaces a profile after validating it
func Register(profile entities.VendorProfile) error {
	profile.Name = normalizeName(profile.Name)
	if err := profile.Validate(); err != nil {
		return err
	}
	if profile.Name == AutoName {
		return fmt.Errorf("profile name %q is reserved", AutoName)
	}
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[profile.Name]; !exists {
		order = append(order, profile.Name)
	}
	registry[profile.Name] = profile.Clone()
	return nil
}

// Get returns a copy of the profile registered under name
func Get(name string) (entities.VendorProfile, error) {
	mu.RLock()
	defer mu.RUnlock()
	profile, ok := registry[normalizeName(name)]
	if !ok {
		return entities.VendorProfile{}, fmt.Errorf("unknown device type: %s", name)
	}
	return profile.Clone(), nil
}

// Available returns the registered device types, sorted
func Available() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		if name == terminal.AutodetectName {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// IsKnown reports whether name is a registered device type or "auto"
func IsKnown(name string) bool {
	name = normalizeName(name)
	if name == AutoName {
		return true
	}
	mu.RLock()
	defer mu.RUnlock()
	_, ok := registry[name]
	return ok
}

// DetectFromText matches show version or sysDescr output against the
// detection markers of every profile, in registration order.
func DetectFromText(text string) (string, bool) {
	lower := strings.ToLower(text)
	mu.RLock()
	defer mu.RUnlock()
	for _, name := range order {
		for _, marker := range registry[name].DetectMarkers {
			if marker != "" && strings.Contains(lower, strings.ToLower(marker)) {
				return name, true
			}
		}
	}
	return "", false
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
