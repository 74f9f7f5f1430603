// Package config resolves runtime settings from an optional .env file,
// environment variables and command-line flags, in increasing priority.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Config holds the server settings.
type Config struct {
	DBPath    string // SQLite database file
	Addr      string // HTTP listen address
	UploadDir string // directory for delivery attachments
	LogPath   string // optional log file, in addition to stdout/stderr
	Secret    string // session signing key; stored in the database when empty
}

// Usage is printed for -h.
const Usage = `Usage: entregas [flags]

Flags:
  -d, -db <path>          SQLite database path (default: entregas.sqlite3, env ENTREGAS_DB)
  -a, -addr <host:port>   listen address (default: :8080, env ENTREGAS_ADDR)
  -u, -uploads <dir>      attachment directory (default: uploads, env ENTREGAS_UPLOADS)
  -l, -log <path>         log file path (default: none, env ENTREGAS_LOG)
  -s, -secret <key>       session signing key (default: generated and stored, env ENTREGAS_SECRET)
  -h, -help               show this help and exit
`

// ErrHelp is returned when -h or -help was requested.
var ErrHelp = flag.ErrHelp

// Load reads envFile (if it exists) into the environment and parses args.
// Variables already set in the environment win over the file.
func Load(envFile string, args []string, output io.Writer) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		DBPath:    env("ENTREGAS_DB", "entregas.sqlite3"),
		Addr:      env("ENTREGAS_ADDR", ":8080"),
		UploadDir: env("ENTREGAS_UPLOADS", "uploads"),
		LogPath:   env("ENTREGAS_LOG", ""),
		Secret:    env("ENTREGAS_SECRET", ""),
	}

	fset := flag.NewFlagSet("entregas", flag.ContinueOnError)
	fset.SetOutput(output)
	fset.Usage = func() { fmt.Fprint(output, Usage) }

	for _, names := range [][2]string{{"db", "d"}, {"addr", "a"}, {"uploads", "u"}, {"log", "l"}, {"secret", "s"}} {
		target := cfg.field(names[0])
		fset.StringVar(target, names[0], *target, "")
		fset.StringVar(target, names[1], *target, "")
	}

	if err := fset.Parse(args); err != nil {
		return nil, err
	}
	if fset.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", fset.Arg(0))
	}

	return cfg, nil
}

func (c *Config) field(name string) *string {
	switch name {
	case "db":
		return &c.DBPath
	case "addr":
		return &c.Addr
	case "uploads":
		return &c.UploadDir
	case "log":
		return &c.LogPath
	default:
		return &c.Secret
	}
}

func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}
