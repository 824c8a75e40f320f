package script

import "time"

// DefaultSecurityLimits keeps a rule script from stalling a reachability
// pass, which may evaluate it thousands of times.
var DefaultSecurityLimits = SecurityLimits{
	MaxExecutionTime: 50 * time.Millisecond,
	MaxAllocs:        10000,
	AllowedPackages: []string{
		"fmt",
		"math",
		"text",
	},
}

// GetDefaultSecurityLimits returns a copy of the default security limits
func GetDefaultSecurityLimits() SecurityLimits {
	limits := DefaultSecurityLimits
	limits.AllowedPackages = make([]string, len(DefaultSecurityLimits.AllowedPackages))
	copy(limits.AllowedPackages, DefaultSecurityLimits.AllowedPackages)
	return limits
}
