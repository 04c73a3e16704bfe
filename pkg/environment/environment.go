package environment

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	env "github.com/Netflix/go-env"
	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/afero"

	"github.com/modelshelf/modelshelf/pkg"
)

// DotEnvFileName is loaded from the working directory when present.
const DotEnvFileName = ".env"

// Environment holds the service configuration loaded from the OS or defaults.
type Environment struct {
	StoreRoot      string `env:"STORE_ROOT,default=uploads"`
	HostIP         string `env:"HOST_IP,default=0.0.0.0"`
	Port           int    `env:"PORT,default=3000"`
	MaxTextures    int    `env:"MAX_TEXTURES,default=100"`
	MaxFileSize    string `env:"MAX_FILE_SIZE,default=100MB"`
	CORSOrigins    string `env:"CORS_ORIGINS,default=*"`
	TrustedProxies string `env:"TRUSTED_PROXIES"`
	Debug          string `env:"DEBUG,default=0"`
	Extras         env.EnvSet
}

// loadDotEnv exports the variables of the .env file found in dir. Variables
// already present in the process environment win.
func loadDotEnv(fs afero.Fs, dir string) error {
	path := filepath.Join(dir, DotEnvFileName)

	f, err := fs.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	values, err := godotenv.Parse(f)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	for key, value := range values {
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return fmt.Errorf("export %s: %w", key, err)
		}
	}
	return nil
}

// NewEnvironment initializes and returns a new Environment based on provided or default settings.
func NewEnvironment(fs afero.Fs, environ *Environment) (*Environment, error) {
	if environ != nil {
		// An explicit environment only has its zero values replaced by defaults
		merged := *environ
		applyDefaults(&merged)
		return &merged, merged.Validate()
	}

	pwd, _ := os.Getwd()
	if err := loadDotEnv(fs, pwd); err != nil {
		return nil, err
	}

	environment := &Environment{}
	extras, err := env.UnmarshalFromEnviron(environment)
	if err != nil {
		return nil, err
	}
	environment.Extras = extras
	applyDefaults(environment)

	return environment, environment.Validate()
}

func applyDefaults(e *Environment) {
	e.StoreRoot = pkg.ValueOrDefault(e.StoreRoot, pkg.DefaultStoreRoot)
	e.HostIP = pkg.ValueOrDefault(e.HostIP, pkg.DefaultHostIP)
	e.Port = pkg.ValueOrDefault(e.Port, pkg.DefaultPortNum)
	e.MaxTextures = pkg.ValueOrDefault(e.MaxTextures, pkg.DefaultMaxTextures)
	e.MaxFileSize = pkg.ValueOrDefault(e.MaxFileSize, pkg.DefaultMaxFileSize)
	e.CORSOrigins = pkg.ValueOrDefault(e.CORSOrigins, pkg.DefaultCORSOrigins)
}

// Validate rejects settings the server cannot start with.
func (e *Environment) Validate() error {
	if e.Port < 1 || e.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", e.Port)
	}
	if e.MaxTextures < 0 {
		return fmt.Errorf("MAX_TEXTURES must not be negative: %d", e.MaxTextures)
	}
	if _, err := e.MaxFileSizeBytes(); err != nil {
		return err
	}
	return nil
}

// Addr returns the host:port the HTTP server listens on.
func (e *Environment) Addr() string {
	return net.JoinHostPort(e.HostIP, strconv.Itoa(e.Port))
}

// MaxFileSizeBytes parses MAX_FILE_SIZE ("100MB", "512 KiB", "1048576").
func (e *Environment) MaxFileSizeBytes() (int64, error) {
	size, err := humanize.ParseBytes(e.MaxFileSize)
	if err != nil {
		return 0, fmt.Errorf("invalid MAX_FILE_SIZE %q: %w", e.MaxFileSize, err)
	}
	if size == 0 || size > 1<<62 {
		return 0, fmt.Errorf("MAX_FILE_SIZE out of range: %q", e.MaxFileSize)
	}
	return int64(size), nil
}

// AllowedOrigins returns the CORS origins; "*" allows any.
func (e *Environment) AllowedOrigins() []string {
	return splitList(e.CORSOrigins)
}

// TrustedProxyList returns the proxies gin may take client IPs from.
func (e *Environment) TrustedProxyList() []string {
	return splitList(e.TrustedProxies)
}

// IsDebug reports whether DEBUG=1.
func (e *Environment) IsDebug() bool {
	return e.Debug == "1"
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
