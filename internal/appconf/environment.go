package appconf

import "strings"

type Environment int

const (
	Development Environment = iota
	Test
	Production
)

// EnvFlagToEnvironment maps an env flag value to an Environment. Unknown values are Development.
func EnvFlagToEnvironment(env string) Environment {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "test":
		return Test
	case "production", "prod":
		return Production
	default:
		return Development
	}
}

func (e Environment) String() string {
	switch e {
	case Test:
		return "test"
	case Production:
		return "production"
	default:
		return "development"
	}
}
