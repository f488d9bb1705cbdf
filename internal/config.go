package internal

import (
	"fmt"
	"time"
)

const (
	MediaBackendDisk       = "disk"
	MediaBackendCloudinary = "cloudinary"
)

type Config struct {
	Host     string `env:"HOST,default=0.0.0.0"`
	Port     int    `env:"PORT,default=3000"`
	GRPCPort int    `env:"GRPC_PORT,default=3001"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`
	NodeEnv  string `env:"NODE_ENV,default=development"`

	// ClientURL is the browser origin allowed for CORS and WebSocket upgrades.
	ClientURL string `env:"CLIENT_URL"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`

	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=168h"`

	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT,default=10s"`
	PongTimeout          time.Duration `env:"PONG_TIMEOUT,default=60s"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,default=10s"`

	MediaBackend     string        `env:"MEDIA_BACKEND,default=disk"`
	MediaDir         string        `env:"MEDIA_DIR,default=./media"`
	MediaBaseURL     string        `env:"MEDIA_BASE_URL,default=/media"`
	CloudinaryURL    string        `env:"CLOUDINARY_URL"`
	CloudinaryFolder string        `env:"CLOUDINARY_FOLDER,default=chat-dm"`
	UploadTimeout    time.Duration `env:"UPLOAD_TIMEOUT,default=30s"`
	MaxImageBytes    int           `env:"MAX_IMAGE_BYTES,default=5242880"`

	ModerationEnabled bool   `env:"MODERATION_ENABLED,default=false"`
	CharReplacement   string `env:"CHARACTER_REPLACEMENT,default=*"`
}

// SecureCookies is true everywhere but in development, where the server runs on plain HTTP.
func (c Config) SecureCookies() bool {
	return c.NodeEnv != "development"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c Config) GRPCAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.GRPCPort)
}

// Validate checks the combinations env tags cannot express.
func (c Config) Validate() error {
	switch c.MediaBackend {
	case MediaBackendDisk:
	case MediaBackendCloudinary:
		if c.CloudinaryURL == "" {
			return fmt.Errorf("CLOUDINARY_URL is required when MEDIA_BACKEND=%s", MediaBackendCloudinary)
		}
	default:
		return fmt.Errorf("MEDIA_BACKEND must be %q or %q, got %q", MediaBackendDisk, MediaBackendCloudinary, c.MediaBackend)
	}
	if len(c.JWTSecret) < 16 {
		return fmt.Errorf("JWT_SECRET must be at least 16 characters long")
	}
	if c.ConnectionBufferSize <= 0 {
		return fmt.Errorf("CONNECTION_BUFFER_SIZE must be positive, got %d", c.ConnectionBufferSize)
	}
	return nil
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
