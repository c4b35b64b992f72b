package harness

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultHost          = "127.0.0.1"
	defaultPort          = 8080
	defaultLogFile       = "server.log"
	defaultCheckerName   = "h2spec"
	defaultCheckerURL    = "https://github.com/summerwind/h2spec/releases/download/v2.6.0/h2spec_linux_amd64.tar.gz"
	defaultToolDir       = ".harness-tools"
	defaultReadyTimeout  = 10 * time.Second
	defaultShutdownGrace = 5 * time.Second
)

// Duration wraps time.Duration so YAML config files can say "10s" or "500ms".
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Value() time.Duration { return time.Duration(d) }

type ServerConfig struct {
	// Command is the full launch command for the server-under-test, typically
	// a build-and-run invocation with the coverage feature enabled.
	Command []string `yaml:"command"`

	// Env holds environment overrides for the server process, such as the
	// coverage-collection output location.
	Env map[string]string `yaml:"env"`

	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
	LogFile string `yaml:"logFile"`

	// ReadyTimeout bounds the readiness probe after launch. StartupWait is an
	// optional fixed delay before probing begins, for servers that bind their
	// socket early but are not actually serviceable yet.
	ReadyTimeout  Duration `yaml:"readyTimeout"`
	StartupWait   Duration `yaml:"startupWait"`
	ShutdownGrace Duration `yaml:"shutdownGrace"`
}

type CheckerConfig struct {
	Name string   `yaml:"name"`
	URL  string   `yaml:"url"`
	Dir  string   `yaml:"dir"`
	Args []string `yaml:"args"`
}

type ReportConfig struct {
	// Command is the post-run report generator (coverage aggregation, lint
	// summary). Empty means no report step is configured.
	Command []string `yaml:"command"`
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Checker CheckerConfig `yaml:"checker"`
	Report  ReportConfig  `yaml:"report"`
}

func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:          defaultHost,
			Port:          defaultPort,
			LogFile:       defaultLogFile,
			ReadyTimeout:  Duration(defaultReadyTimeout),
			ShutdownGrace: Duration(defaultShutdownGrace),
		},
		Checker: CheckerConfig{
			Name: defaultCheckerName,
			URL:  defaultCheckerURL,
			Dir:  defaultToolDir,
		},
	}
}

// LoadConfig reads a YAML config file over the defaults. Fields the file does
// not mention keep their default values.
func LoadConfig(path string) (Config, error) {
	c := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return c, nil
}

func (c Config) Validate() error {
	if len(c.Server.Command) == 0 {
		return fmt.Errorf("no server command configured")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Checker.Name == "" {
		return fmt.Errorf("no checker tool name configured")
	}
	return nil
}
