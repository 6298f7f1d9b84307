package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// FileSystem abstracts the file operations the loader needs, so tests can
// resolve config files against an in-memory layout.
type FileSystem interface {
	Exists(path string) bool
	LoadEnv(path string) error
	Getwd() (string, error)
}

// RealFileSystem implements FileSystem against the host filesystem.
type RealFileSystem struct{}

func (rfs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (rfs *RealFileSystem) LoadEnv(path string) error {
	return godotenv.Load(path)
}

func (rfs *RealFileSystem) Getwd() (string, error) {
	return os.Getwd()
}

// Resolver locates the config.yml and .env files for a binary.
type Resolver struct {
	FileSystem FileSystem
}

// ResolvedFiles holds the file paths the resolver settled on. Empty fields
// mean nothing was found and that layer is skipped.
type ResolvedFiles struct {
	ConfigFile string
	EnvFile    string
}

// ResolveFiles returns explicit paths when the options carry them, and
// otherwise searches the standard locations for the named binary.
func (cr *Resolver) ResolveFiles(binaryName string, opts LoaderConfig) ResolvedFiles {
	resolved := ResolvedFiles{
		ConfigFile: opts.ConfigFile,
		EnvFile:    opts.EnvFile,
	}

	if resolved.ConfigFile == "" {
		resolved.ConfigFile = cr.firstExisting(configSearchPaths(binaryName))
	}
	if resolved.EnvFile == "" {
		resolved.EnvFile = cr.firstExisting(envSearchPaths(binaryName))
	}

	return resolved
}

func (cr *Resolver) firstExisting(paths []string) string {
	for _, path := range paths {
		if cr.FileSystem.Exists(path) {
			return path
		}
	}
	return ""
}

// configSearchPaths lists config.yml candidates, nearest first. The cmd
// directory wins so a checkout can keep a config next to the binary's main
// package; the repo root is the fallback for deployments that mount a single
// file.
func configSearchPaths(binaryName string) []string {
	return []string{
		fmt.Sprintf("./cmd/%s/config.yml", binaryName),
		"./config/config.yml",
		"./config.yml",
	}
}

// envSearchPaths lists .env candidates. A binary-specific .env.<name>
// shadows the shared .env in every directory.
func envSearchPaths(binaryName string) []string {
	dirs := []string{
		fmt.Sprintf("./cmd/%s", binaryName),
		"./config",
		".",
	}

	named := fmt.Sprintf(".env.%s", binaryName)
	paths := make([]string, 0, 2*len(dirs))
	for _, file := range []string{named, ".env"} {
		for _, dir := range dirs {
			paths = append(paths, dir+"/"+file)
		}
	}
	return paths
}

// LoaderConfig holds dependencies and optional file overrides.
type LoaderConfig struct {
	FileSystem FileSystem
	ConfigFile string // Direct config file path (optional)
	EnvFile    string // Direct env file path (optional)
}

// LoaderOption is a functional option for LoadConfig.
type LoaderOption func(*LoaderConfig)

// WithFileSystem sets a custom filesystem for the loader.
func WithFileSystem(fs FileSystem) LoaderOption {
	return func(lc *LoaderConfig) { lc.FileSystem = fs }
}

// WithConfigFile sets an explicit config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// LoadConfig loads configuration for the named binary into cfg. Layers apply
// in order: the YAML config file, then process environment variables, then a
// .env file. A missing file at any layer is not an error; the layer is
// skipped so the struct defaults stand.
func LoadConfig(binaryName string, cfg interface{}, opts ...LoaderOption) error {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}
	if lc.FileSystem == nil {
		lc.FileSystem = &RealFileSystem{}
	}

	resolver := &Resolver{FileSystem: lc.FileSystem}
	files := resolver.ResolveFiles(binaryName, lc)

	return loadResolved(binaryName, cfg, files, lc.FileSystem)
}

func loadResolved(binaryName string, cfg interface{}, files ResolvedFiles, fs FileSystem) error {
	v := viper.New()

	if files.ConfigFile != "" && fs.Exists(files.ConfigFile) {
		v.SetConfigFile(files.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			fmt.Printf("[config] warning: failed to load config file %s: %v\n", files.ConfigFile, err)
		}
	}

	v.AutomaticEnv()
	bindEnviron(v)

	if files.EnvFile != "" && fs.Exists(files.EnvFile) {
		if err := fs.LoadEnv(files.EnvFile); err != nil {
			fmt.Printf("[config] warning: failed to load .env file %s: %v\n", files.EnvFile, err)
		} else {
			// Re-bind so variables introduced by the .env file are seen.
			bindEnviron(v)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config for %s: %w", binaryName, err)
	}

	return nil
}

// bindEnviron sets every process environment variable on the viper instance
// under each nested-key spelling it could correspond to, so STORAGE_BUCKET
// reaches a storage.bucket field without per-field BindEnv calls.
func bindEnviron(v *viper.Viper) {
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) != 2 {
			continue
		}
		for _, key := range envKeyVariants(pair[0]) {
			v.Set(key, pair[1])
		}
	}
}

// envKeyVariants maps an UPPER_SNAKE environment variable name onto the viper
// keys it may address. Each underscore is a candidate nesting boundary, so
// STORAGE_ACCESS_KEY yields storage_access_key, storage.access_key and
// storage.access.key among others; which variant matches depends on the
// mapstructure tags of the target struct.
func envKeyVariants(envKey string) []string {
	lower := strings.ToLower(envKey)
	parts := strings.Split(lower, "_")
	if len(parts) <= 1 {
		return []string{lower}
	}

	seen := map[string]bool{lower: true}
	variants := []string{lower}
	add := func(key string) {
		if !seen[key] {
			seen[key] = true
			variants = append(variants, key)
		}
	}

	add(strings.Join(parts, "."))
	for i := 1; i < len(parts); i++ {
		add(strings.Join(parts[:i], ".") + "." + strings.Join(parts[i:], "_"))
	}

	return variants
}
