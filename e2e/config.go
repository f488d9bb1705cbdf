package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

// Config points the suites at a running chat-dm instance.
// The suites are skipped when E2E_HTTP_URL is unset.
type Config struct {
	HTTPURL  string `envconfig:"E2E_HTTP_URL"`
	GRPCAddr string `envconfig:"E2E_GRPC_ADDR" default:"localhost:3001"`
	// E2E_DEBUG_JSON dumps full gRPC request/response bodies as JSON
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
