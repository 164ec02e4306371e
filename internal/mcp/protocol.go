package mcp

import (
	"fmt"
	"slices"
)

const (
	DefaultProtocolVersion = "2025-11-25"
	ServerName             = "sysprobe"
	ServerVersion          = "1.0.0"
)

var SupportedProtocolVersions = []string{
	"2025-11-25",
	"2025-03-26",
	"2024-11-05",
}

func IsSupported(version string) bool {
	return slices.Contains(SupportedProtocolVersions, version)
}

// Negotiate picks the protocol version for a session: the client's requested
// version when supported, otherwise the server default.
func Negotiate(requested string) string {
	if requested != "" && IsSupported(requested) {
		return requested
	}
	return DefaultProtocolVersion
}

type UnsupportedVersionError struct {
	Requested string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported protocol version %q (supported: %v)",
		e.Requested, SupportedProtocolVersions)
}
