package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/stackb/tsresolve/pkg/host"
	"github.com/stackb/tsresolve/pkg/register"
	"github.com/stackb/tsresolve/pkg/tsconfig"
)

const (
	executableName = "tsresolve"
)

type config struct {
	from           string
	cwd            string
	tsconfigPath   string
	namespace      string
	indexFile      string
	runtimeVersion string
	conditions     string
	debug          bool
	specifiers     []string
}

func main() {
	log.SetPrefix(executableName + ": ")
	log.SetFlags(0) // don't print timestamps

	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	if err := run(cfg, os.Stdout, os.Stderr); err != nil {
		log.Fatalln("ERROR:", err)
	}
}

func parseFlags(args []string) (*config, error) {
	cfg := new(config)

	fs := flag.NewFlagSet(executableName, flag.ContinueOnError)
	fs.StringVar(&cfg.from, "from", "", "the importing file; empty resolves specifiers as entry points")
	fs.StringVar(&cfg.cwd, "cwd", "", "the project directory (defaults to the working directory)")
	fs.StringVar(&cfg.tsconfigPath, "tsconfig", "", "the tsconfig file to use instead of discovery (also "+tsconfig.PathEnvVar+")")
	fs.StringVar(&cfg.namespace, "namespace", "", "resolve under a namespaced registration")
	fs.StringVar(&cfg.indexFile, "index_file", "", "the file joined onto directory specifiers")
	fs.StringVar(&cfg.runtimeVersion, "runtime_version", "", "the host version to check against "+register.MinRuntimeVersion)
	fs.StringVar(&cfg.conditions, "conditions", "", "comma-separated export conditions")
	fs.BoolVar(&cfg.debug, "debug", false, "log each resolution step")
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "usage: %s OPTIONS SPECIFIER...\n", executableName)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.specifiers = fs.Args()
	if len(cfg.specifiers) == 0 {
		return nil, fmt.Errorf("at least one specifier is required")
	}

	if cfg.cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		cfg.cwd = wd
	}
	if cfg.from != "" && !filepath.IsAbs(cfg.from) {
		cfg.from = filepath.Join(cfg.cwd, cfg.from)
	}

	return cfg, nil
}

func run(cfg *config, stdout, stderr io.Writer) error {
	level := zerolog.WarnLevel
	if cfg.debug {
		level = zerolog.DebugLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: stderr, NoColor: true}).
		Level(level).
		With().
		Timestamp().
		Logger()

	var options []host.FileSystemOption
	options = append(options, host.WithCwd(cfg.cwd), host.WithLogger(logger))
	if cfg.conditions != "" {
		options = append(options, host.WithConditions(strings.Split(cfg.conditions, ",")...))
	}
	fs := host.NewMemoResolver(host.NewFileSystem(options...))
	rt := register.NewRuntime(cfg.runtimeVersion, fs, host.NewModuleCache())

	h, err := register.Enable(rt, register.Options{
		Namespace:  cfg.namespace,
		ConfigPath: cfg.tsconfigPath,
		Cwd:        cfg.cwd,
		IndexFile:  cfg.indexFile,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer h.Disable()

	var failed int
	for _, spec := range cfg.specifiers {
		resolved, err := h.Resolve(spec, filepath.ToSlash(cfg.from))
		if err != nil {
			failed++
			fmt.Fprintf(stderr, "%s: %v\n", spec, err)
			continue
		}
		fmt.Fprintf(stdout, "%s\t%s\n", spec, resolved)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d specifiers did not resolve", failed, len(cfg.specifiers))
	}

	return nil
}
