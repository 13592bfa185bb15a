// FILE: lixenwraith/configurations/discovery.go
package configurations

import (
	"os"
	"path/filepath"
	"strings"
)

// FileDiscoveryOptions controls where FindFile looks for a configuration file.
// An explicit location (CLIFlag in args, then EnvVar) always wins over the
// directory search.
type FileDiscoveryOptions struct {
	Name       string   // file name without extension
	Extensions []string // tried in order within each directory
	Paths      []string // searched before the working and XDG directories

	EnvVar  string // e.g. APP_CONFIG
	CLIFlag string // e.g. --config; both "--config x" and "--config=x" match

	UseXDG        bool
	UseCurrentDir bool
}

// DefaultDiscoveryOptions derives the env variable and flag names from appName.
func DefaultDiscoveryOptions(appName string) FileDiscoveryOptions {
	return FileDiscoveryOptions{
		Name:          appName,
		Extensions:    []string{".toml", ".yaml", ".yml", ".json"},
		EnvVar:        strings.ToUpper(appName) + "_CONFIG",
		CLIFlag:       "--config",
		UseXDG:        true,
		UseCurrentDir: true,
	}
}

// FindFile returns the configuration file path, or "" when nothing is found.
// Explicit locations are returned as given without checking existence.
func FindFile(opts FileDiscoveryOptions, args []string) string {
	if path := opts.explicitFile(args); path != "" {
		return path
	}
	for _, dir := range opts.SearchDirs() {
		for _, ext := range opts.Extensions {
			candidate := filepath.Join(dir, opts.Name+ext)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
	}
	return ""
}

func (o FileDiscoveryOptions) explicitFile(args []string) string {
	if o.CLIFlag != "" {
		inline := o.CLIFlag + "="
		for i, arg := range args {
			switch {
			case arg == o.CLIFlag && i+1 < len(args):
				return args[i+1]
			case strings.HasPrefix(arg, inline):
				return arg[len(inline):]
			}
		}
	}
	if o.EnvVar == "" {
		return ""
	}
	return os.Getenv(o.EnvVar)
}

// SearchDirs lists the directories FindFile searches, in order.
func (o FileDiscoveryOptions) SearchDirs() []string {
	dirs := append([]string(nil), o.Paths...)
	if o.UseCurrentDir {
		if cwd, err := os.Getwd(); err == nil {
			dirs = append(dirs, cwd)
		}
	}
	if o.UseXDG {
		dirs = append(dirs, xdgDirs(o.Name)...)
	}
	return dirs
}

// xdgDirs follows the XDG base directory lookup: the user config home first,
// then each system config dir (/etc/xdg when unset), then /etc.
func xdgDirs(name string) []string {
	home := os.Getenv("XDG_CONFIG_HOME")
	if home == "" {
		if userHome, err := os.UserHomeDir(); err == nil {
			home = filepath.Join(userHome, ".config")
		}
	}

	system := []string{"/etc/xdg"}
	if env := os.Getenv("XDG_CONFIG_DIRS"); env != "" {
		system = filepath.SplitList(env)
	}

	var dirs []string
	if home != "" {
		dirs = append(dirs, filepath.Join(home, name))
	}
	for _, dir := range system {
		dirs = append(dirs, filepath.Join(dir, name))
	}
	return append(dirs, filepath.Join("/etc", name))
}
