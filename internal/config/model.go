// internal/config/model.go
//
// Typed configuration model for Flint.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                         – dotenv values,
//   • `conf/flint.yaml`                       – primary static file,
//   • `FLINT_`-prefixed environment overrides – highest precedence.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`—Koanf ignores `yaml`
//     tags unless configured otherwise.
//   • The `Paths` block is filled at runtime; YAML must not try to set
//     it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr string `koanf:"listen_addr" validate:"required,hostname_port"`
}

//
// App section
//

// App holds the framework-level switches.
//
// Debug gates the post-mortem context-retention path; it must stay off
// in production deployments.  SecretKey signs the session cookie; when
// empty, sessions are disabled entirely.
type App struct {
	Debug         bool   `koanf:"debug"`
	SecretKey     string `koanf:"secret_key"`
	SessionCookie string `koanf:"session_cookie"`
	ContentType   string `koanf:"content_type"`
	GeoDB         string `koanf:"geo_db"` // optional GeoLite2 path
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime—never set in YAML or env.  The loader
// discovers `Root` (repo root or FLINT_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root      string // FLINT_ROOT or discovered parent
	Templates string // <root>/templates
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP  HTTP  `koanf:"http"`
	App   App   `koanf:"app"`
	Paths Paths `koanf:"-"` // not loaded from config files
}
