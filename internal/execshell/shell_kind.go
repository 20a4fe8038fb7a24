package execshell

import (
	"errors"
	"fmt"
	"strings"
)

const (
	shellKindPOSIXStringConstant           = "posix"
	shellKindWindowsStringConstant         = "windows"
	shellKindUnknownStringConstant         = "unknown"
	unsupportedShellKindMessageConstant    = "unsupported shell kind"
	unsupportedShellKindTemplateConstant   = "%w: %q"
	unknownShellPolicyRejectConstant       = "reject"
	unknownShellPolicyWindowsConstant      = "windows"
	unsupportedShellPolicyTemplateConstant = "unsupported unknown shell policy: %q"
)

// ErrUnsupportedShellKind indicates a shell kind outside the recognized set.
var ErrUnsupportedShellKind = errors.New(unsupportedShellKindMessageConstant)

// ShellKind identifies the shell used to interpret a command line.
type ShellKind string

// Recognized shell kinds. ShellKindUnknown marks any other caller-supplied value.
const (
	ShellKindPOSIX   ShellKind = ShellKind(shellKindPOSIXStringConstant)
	ShellKindWindows ShellKind = ShellKind(shellKindWindowsStringConstant)
	ShellKindUnknown ShellKind = ShellKind(shellKindUnknownStringConstant)
)

// ParseShellKind maps a caller-supplied value onto the closed ShellKind set.
// Matching ignores case and surrounding whitespace; anything else is ShellKindUnknown.
func ParseShellKind(rawValue string) ShellKind {
	switch strings.ToLower(strings.TrimSpace(rawValue)) {
	case shellKindPOSIXStringConstant:
		return ShellKindPOSIX
	case shellKindWindowsStringConstant:
		return ShellKindWindows
	default:
		return ShellKindUnknown
	}
}

// Recognized reports whether the kind has an invocation strategy.
func (kind ShellKind) Recognized() bool {
	return kind == ShellKindPOSIX || kind == ShellKindWindows
}

// String returns the wire representation of the kind.
func (kind ShellKind) String() string {
	return string(kind)
}

// RecognizedShellKinds lists the kinds that map to an invocation strategy.
func RecognizedShellKinds() []ShellKind {
	return []ShellKind{ShellKindPOSIX, ShellKindWindows}
}

// UnknownShellPolicy decides how an unrecognized shell kind is treated.
type UnknownShellPolicy string

// Supported unknown shell policies.
const (
	UnknownShellPolicyReject  UnknownShellPolicy = UnknownShellPolicy(unknownShellPolicyRejectConstant)
	UnknownShellPolicyWindows UnknownShellPolicy = UnknownShellPolicy(unknownShellPolicyWindowsConstant)
)

// ParseUnknownShellPolicy validates a configured policy value. Blank selects UnknownShellPolicyReject.
func ParseUnknownShellPolicy(rawValue string) (UnknownShellPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(rawValue)) {
	case "", unknownShellPolicyRejectConstant:
		return UnknownShellPolicyReject, nil
	case unknownShellPolicyWindowsConstant:
		return UnknownShellPolicyWindows, nil
	default:
		return "", fmt.Errorf(unsupportedShellPolicyTemplateConstant, rawValue)
	}
}

// UnmarshalText lets configuration decoding validate policy values.
func (policy *UnknownShellPolicy) UnmarshalText(text []byte) error {
	parsedPolicy, parseError := ParseUnknownShellPolicy(string(text))
	if parseError != nil {
		return parseError
	}
	*policy = parsedPolicy
	return nil
}

// Resolve applies the policy to a parsed kind. The returned flag reports whether a fallback happened.
func (policy UnknownShellPolicy) Resolve(rawValue string) (ShellKind, bool, error) {
	parsedKind := ParseShellKind(rawValue)
	if parsedKind.Recognized() {
		return parsedKind, false, nil
	}
	if policy == UnknownShellPolicyWindows {
		return ShellKindWindows, true, nil
	}
	return ShellKindUnknown, false, fmt.Errorf(unsupportedShellKindTemplateConstant, ErrUnsupportedShellKind, rawValue)
}
