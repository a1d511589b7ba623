package types

import "fmt"

// CLIIdentityKind tells which variant a CLIIdentity holds.
type CLIIdentityKind int

const (
	CLIIdentityUnset CLIIdentityKind = iota
	CLIIdentityRemoteTag
	CLIIdentityLocalPath
)

func (k CLIIdentityKind) String() string {
	switch k {
	case CLIIdentityRemoteTag:
		return "image-tag"
	case CLIIdentityLocalPath:
		return "local-path"
	default:
		return "unset"
	}
}

// CLIIdentity identifies the CLI under test: either an image tag to run via
// docker, or a path to a locally built binary. It never holds both.
type CLIIdentity struct {
	kind  CLIIdentityKind
	value string
}

// RemoteTag returns an identity for a CLI packaged in a tools image.
func RemoteTag(tag string) CLIIdentity {
	return CLIIdentity{kind: CLIIdentityRemoteTag, value: tag}
}

// LocalPath returns an identity for a CLI binary on the host.
func LocalPath(path string) CLIIdentity {
	return CLIIdentity{kind: CLIIdentityLocalPath, value: path}
}

// NewCLIIdentity builds an identity from the two mutually exclusive inputs.
// Exactly one of tag or path must be non-empty.
func NewCLIIdentity(tag, path string) (CLIIdentity, error) {
	switch {
	case tag != "" && path != "":
		return CLIIdentity{}, NewConfigurationError("cannot specify both a test CLI image tag and a test CLI path")
	case tag != "":
		return RemoteTag(tag), nil
	case path != "":
		return LocalPath(path), nil
	default:
		return CLIIdentity{}, NewConfigurationError("must specify one of a test CLI image tag or a test CLI path")
	}
}

func (c CLIIdentity) Kind() CLIIdentityKind {
	return c.kind
}

// Tag returns the image tag and true if this is a RemoteTag identity.
func (c CLIIdentity) Tag() (string, bool) {
	return c.value, c.kind == CLIIdentityRemoteTag
}

// Path returns the binary path and true if this is a LocalPath identity.
func (c CLIIdentity) Path() (string, bool) {
	return c.value, c.kind == CLIIdentityLocalPath
}

// Validate reports a ConfigurationError for a zero or empty identity.
func (c CLIIdentity) Validate() error {
	if c.kind == CLIIdentityUnset {
		return NewConfigurationError("test CLI identity is not set")
	}
	if c.value == "" {
		return NewConfigurationError(fmt.Sprintf("test CLI %s is empty", c.kind))
	}
	return nil
}

func (c CLIIdentity) String() string {
	if c.kind == CLIIdentityUnset {
		return "unset"
	}
	return fmt.Sprintf("%s=%s", c.kind, c.value)
}
