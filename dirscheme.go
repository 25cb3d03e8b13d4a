// FILE: lixenwraith/optcfg/dirscheme.go
package optcfg

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DirKind names a standard application directory.
type DirKind string

const (
	DirConfig     DirKind = "config"      // host-specific system-wide configuration
	DirRunData    DirKind = "run_data"    // run-time data that may not persist over boot
	DirLogs       DirKind = "logs"        // log files
	DirData       DirKind = "data"        // persistent state modified while running
	DirTmp        DirKind = "tmp"         // temporary files preserved between reboots
	DirCache      DirKind = "cache"       // regenerable cache data
	DirSrv        DirKind = "srv"         // site-specific data served by the system
	DirUserConfig DirKind = "user_config" // user-specific configuration
	DirUserData   DirKind = "user_data"   // user-specific data
	DirUserSync   DirKind = "user_sync"   // user-specific data synchronized across machines
	DirUserCache  DirKind = "user_cache"  // user-specific cache
)

// generalKinds are re-based when the home directory changes.
var generalKinds = []DirKind{DirConfig, DirRunData, DirLogs, DirData, DirCache, DirSrv}

// AllDirKinds lists every directory kind.
var AllDirKinds = []DirKind{
	DirConfig, DirRunData, DirLogs, DirData, DirTmp, DirCache, DirSrv,
	DirUserConfig, DirUserData, DirUserSync, DirUserCache,
}

// DirectoryScheme resolves directory kinds to paths.
type DirectoryScheme interface {
	Resolve(kind DirKind) (string, error)
}

// Directories is the platform directory layout of one application.
//
// The home directory is taken from the <APP>_HOME environment variable, or the
// working directory when it is not set. With <APP>_HOME set, or forceHome,
// general directories live under home and only user-specific directories and
// tmp follow platform conventions.
type Directories struct {
	app       string
	version   string
	forceHome bool
	homeEnv   bool
	home      string
	dirs      map[DirKind]string
}

// platformEnv abstracts the process environment for layout computation.
type platformEnv struct {
	goos    string
	getenv  func(string) string
	userDir string
	cwd     string
}

func currentPlatform() platformEnv {
	env := platformEnv{goos: runtime.GOOS, getenv: os.Getenv}
	env.userDir, _ = os.UserHomeDir()
	env.cwd, _ = os.Getwd()
	return env
}

// NewDirectoryScheme returns the directory layout for the current platform.
func NewDirectoryScheme(app, version string, forceHome bool) *Directories {
	return newDirectories(currentPlatform(), app, version, forceHome)
}

func newDirectories(env platformEnv, app, version string, forceHome bool) *Directories {
	d := &Directories{
		app:       app,
		version:   version,
		forceHome: forceHome,
		dirs:      make(map[DirKind]string, len(AllDirKinds)),
	}
	if h := env.getenv(strings.ToUpper(app) + "_HOME"); h != "" {
		d.home = h
		d.homeEnv = true
	} else {
		d.home = env.cwd
	}
	for _, kind := range AllDirKinds {
		d.dirs[kind] = filepath.Join(d.home, string(kind))
	}

	appDir := app
	if version != "" {
		appDir = filepath.Join(app, version)
	}
	platformLayout := !d.homeEnv && !forceHome
	userPath := func(rel ...string) string {
		return filepath.Join(append([]string{env.userDir}, rel...)...)
	}
	xdg := func(variable string, fallback ...string) string {
		if v := env.getenv(variable); v != "" {
			return filepath.Join(v, appDir)
		}
		return filepath.Join(userPath(fallback...), appDir)
	}

	switch env.goos {
	case "windows":
		pd := env.getenv("PROGRAMDATA")
		lad := env.getenv("LOCALAPPDATA")
		ad := env.getenv("APPDATA")
		if platformLayout {
			d.setAll(map[DirKind]string{
				DirConfig:  filepath.Join(pd, appDir, "config"),
				DirRunData: filepath.Join(pd, appDir, "run"),
				DirLogs:    filepath.Join(pd, appDir, "log"),
				DirData:    filepath.Join(pd, appDir, "data"),
				DirCache:   filepath.Join(pd, appDir, "cache"),
				DirSrv:     filepath.Join(pd, appDir, "srv"),
			})
		}
		d.setAll(map[DirKind]string{
			DirTmp:        filepath.Join(lad, appDir, "tmp"),
			DirUserConfig: filepath.Join(lad, appDir, "config"),
			DirUserData:   filepath.Join(lad, appDir, "data"),
			DirUserSync:   filepath.Join(ad, appDir),
			DirUserCache:  filepath.Join(lad, appDir, "cache"),
		})
	case "darwin":
		pd := "/Library/Application Support"
		lad := userPath("Library", "Application Support")
		if platformLayout {
			d.setAll(map[DirKind]string{
				DirConfig:  filepath.Join(pd, appDir, "config"),
				DirRunData: filepath.Join(pd, appDir, "run"),
				DirLogs:    filepath.Join(pd, appDir, "log"),
				DirData:    filepath.Join(pd, appDir, "data"),
				DirCache:   filepath.Join(pd, appDir, "cache"),
				DirSrv:     filepath.Join(pd, appDir, "srv"),
			})
		}
		tmp := env.getenv("TMPDIR")
		if tmp == "" {
			tmp = "/tmp"
		}
		d.setAll(map[DirKind]string{
			DirTmp:        filepath.Join(tmp, appDir),
			DirUserConfig: filepath.Join(lad, appDir, "config"),
			DirUserData:   filepath.Join(lad, appDir, "data"),
			DirUserSync:   filepath.Join(lad, appDir),
			DirUserCache:  filepath.Join(userPath("Library", "Caches"), appDir, "cache"),
		})
	case "linux", "freebsd", "netbsd", "openbsd":
		if platformLayout {
			d.setAll(map[DirKind]string{
				DirConfig:  filepath.Join("/etc", appDir),
				DirRunData: filepath.Join("/run", appDir),
				DirLogs:    filepath.Join("/var/log", appDir),
				DirData:    filepath.Join("/var/lib", appDir),
				DirCache:   filepath.Join("/var/cache", appDir),
				DirSrv:     filepath.Join("/srv", appDir),
			})
		}
		d.setAll(map[DirKind]string{
			DirTmp:        filepath.Join("/var/tmp", appDir),
			DirUserConfig: xdg("XDG_CONFIG_HOME", ".config"),
			DirUserData:   xdg("XDG_DATA_HOME", ".local", "share"),
			DirUserSync:   filepath.Join(userPath(".local", "sync"), appDir),
			DirUserCache:  xdg("XDG_CACHE_HOME", ".cache"),
		})
	}
	return d
}

func (d *Directories) setAll(dirs map[DirKind]string) {
	for kind, path := range dirs {
		d.dirs[kind] = path
	}
}

// App returns the application name.
func (d *Directories) App() string { return d.app }

// Version returns the application version, possibly empty.
func (d *Directories) Version() string { return d.version }

// HasHomeEnv reports whether home was set by the <APP>_HOME variable.
func (d *Directories) HasHomeEnv() bool { return d.homeEnv }

// Home returns the home directory.
func (d *Directories) Home() string { return d.home }

// SetHome changes the home directory. General directories follow it only
// when home came from <APP>_HOME or forceHome is set.
func (d *Directories) SetHome(path string) {
	d.home = path
	if d.homeEnv || d.forceHome {
		for _, kind := range generalKinds {
			d.dirs[kind] = filepath.Join(path, string(kind))
		}
	}
}

// Set overrides the path of one directory kind.
func (d *Directories) Set(kind DirKind, path string) error {
	if _, ok := d.dirs[kind]; !ok {
		return fmt.Errorf("unknown directory kind '%s'", kind)
	}
	d.dirs[kind] = path
	return nil
}

// Resolve returns the path of kind.
func (d *Directories) Resolve(kind DirKind) (string, error) {
	path, ok := d.dirs[kind]
	if !ok {
		return "", fmt.Errorf("unknown directory kind '%s'", kind)
	}
	return path, nil
}

// FileDiscoveryOptions configures automatic config file discovery
type FileDiscoveryOptions struct {
	// Base name of config file (without extension)
	Name string

	// Extensions to try (in order)
	Extensions []string

	// Custom search paths (in addition to defaults)
	Paths []string

	// Environment variable to check for explicit path
	EnvVar string

	// CLI flag to check (e.g., "--config" or "-c")
	CLIFlag string

	// Directory scheme whose user_config and config directories are searched
	Scheme DirectoryScheme

	// Whether to search in current directory
	UseCurrentDir bool
}

// DefaultDiscoveryOptions returns sensible defaults
func DefaultDiscoveryOptions(appName string) FileDiscoveryOptions {
	return FileDiscoveryOptions{
		Name:          appName,
		Extensions:    []string{".ini", ".conf", ".cfg", ".toml", ".yaml", ".json"},
		EnvVar:        strings.ToUpper(appName) + "_CONFIG",
		CLIFlag:       "--config",
		Scheme:        NewDirectoryScheme(appName, "", false),
		UseCurrentDir: true,
	}
}

// FindConfigFile locates a configuration file. An explicit CLI flag wins,
// then the environment variable, then the first existing file in the search
// paths. ok is false when nothing was found.
func FindConfigFile(opts FileDiscoveryOptions, args []string) (path string, ok bool) {
	if opts.CLIFlag != "" {
		for i, arg := range args {
			if arg == opts.CLIFlag && i+1 < len(args) {
				return args[i+1], true
			}
			if v, found := strings.CutPrefix(arg, opts.CLIFlag+"="); found {
				return v, true
			}
		}
	}

	if opts.EnvVar != "" {
		if path := os.Getenv(opts.EnvVar); path != "" {
			return path, true
		}
	}

	searchPaths := append([]string(nil), opts.Paths...)
	if opts.UseCurrentDir {
		if cwd, err := os.Getwd(); err == nil {
			searchPaths = append(searchPaths, cwd)
		}
	}
	if opts.Scheme != nil {
		for _, kind := range []DirKind{DirUserConfig, DirConfig} {
			if dir, err := opts.Scheme.Resolve(kind); err == nil {
				searchPaths = append(searchPaths, dir)
			}
		}
	}

	for _, dir := range searchPaths {
		for _, ext := range opts.Extensions {
			candidate := filepath.Join(dir, opts.Name+ext)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true
			}
		}
	}
	return "", false
}
