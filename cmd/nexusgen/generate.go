package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/syssam/nexusgen/compiler"
	"github.com/syssam/nexusgen/compiler/gen"
	"github.com/syssam/nexusgen/compiler/load"
	"github.com/syssam/nexusgen/internal/config"
	"github.com/syssam/nexusgen/internal/telemetry"
	"github.com/syssam/nexusgen/internal/watch"
)

type generateOptions struct {
	langs             []string
	outDir            string
	outs              []string
	packages          []string
	runtime           string
	primitivePointers bool
	types             []string
	maxIdentLen       int
	dryRun            bool
	watch             bool
	logLevel          string
	trace             bool
}

func newGenerateCmd(cfgFile *string) *cobra.Command {
	var opts generateOptions
	cmd := &cobra.Command{
		Use:   "generate [FILE]",
		Short: "Generate sources from a service definition",
		Long: `Generate the types and service contracts of a definition.

FILE defaults to the schema of the project file. With one language the
sources are written to --out-dir, with more to --out-dir/<lang>.

Examples:
  nexusgen generate -l go -o internal/services service.yaml
  nexusgen generate -l go,java,python,ts -o gen service.yaml
  nexusgen generate -l go --type go:time=civil.Time@cloud.google.com/go/civil service.yaml
  nexusgen generate --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, *cfgFile, args, &opts)
		},
	}
	f := cmd.Flags()
	f.StringSliceVarP(&opts.langs, "lang", "l", nil, "target languages: go, java, python, typescript")
	f.StringVarP(&opts.outDir, "out-dir", "o", "", "output root")
	f.StringArrayVar(&opts.outs, "out", nil, "output directory of one language, lang=dir")
	f.StringArrayVar(&opts.packages, "package", nil, "package or namespace of one language, lang=pkg")
	f.StringVar(&opts.runtime, "runtime", "", "service contract: nexus or none")
	f.BoolVar(&opts.primitivePointers, "go-primitive-pointers", false, "use pointers for optional Go scalars")
	f.StringArrayVar(&opts.types, "type", nil, "kind mapping, lang:kind=Name[@import]")
	f.IntVar(&opts.maxIdentLen, "max-identifier-length", 0, "maximum generated identifier length")
	f.BoolVar(&opts.dryRun, "dry-run", false, "print the generated files instead of writing them")
	f.BoolVar(&opts.watch, "watch", false, "regenerate when the definition changes")
	f.StringVar(&opts.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	f.BoolVar(&opts.trace, "trace", false, "print spans and metrics to stderr")
	return cmd
}

func runGenerate(cmd *cobra.Command, cfgFile string, args []string, opts *generateOptions) error {
	cfg, err := config.LoadOptional(cfgFile)
	if err != nil {
		return err
	}
	if err := opts.apply(cmd, cfg); err != nil {
		return err
	}
	schemaPath := cfg.Schema
	if len(args) > 0 {
		schemaPath = args[0]
	}
	if schemaPath == "" {
		return gen.NewConfigError("FILE", nil, "no definition file given and the project file sets no schema")
	}
	targets, err := cfg.Targets()
	if err != nil {
		return err
	}
	if len(targets) == 0 {
		return gen.NewConfigError("lang", nil, "no target language; use --lang or the languages of the project file")
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.Logging.Level)
	if err != nil {
		return err
	}
	genOpts := append(cfg.Options(), gen.WithLogger(logger))
	if opts.dryRun {
		genOpts = append(genOpts, gen.WithOutput(gen.NewDryRunOutput(cmd.OutOrStdout())))
	}
	if cfg.Logging.Trace {
		p, err := telemetry.Setup(cmd.ErrOrStderr(), version)
		if err != nil {
			return err
		}
		defer func() {
			if err := p.Shutdown(context.Background()); err != nil {
				logger.Warn().Err(err).Msg("telemetry shutdown")
			}
		}()
		genOpts = append(genOpts, p.Options()...)
	}
	g, err := compiler.NewGenerator(genOpts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	run := func(ctx context.Context) error {
		s, err := load.Load(schemaPath)
		if err != nil {
			return err
		}
		_, err = g.Generate(ctx, s, targets)
		return err
	}
	if !opts.watch {
		return run(ctx)
	}

	// The project file is read once; only the definition is watched.
	w, err := watch.New([]string{schemaPath}, func(ctx context.Context) error {
		if err := run(ctx); err != nil {
			printErrors(cmd.ErrOrStderr(), err)
		}
		return nil
	}, watch.WithLogger(logger))
	if err != nil {
		return err
	}
	return w.Run(ctx)
}

// apply overrides the project file with the flags set on the command line.
func (o *generateOptions) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("out-dir") {
		cfg.OutDir = o.outDir
	}
	if flags.Changed("runtime") {
		cfg.Runtime = o.runtime
		for lang, lc := range cfg.Languages {
			lc.Runtime = ""
			cfg.Languages[lang] = lc
		}
	}
	if flags.Changed("max-identifier-length") {
		cfg.MaxIdentifierLength = o.maxIdentLen
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = o.logLevel
	}
	if o.trace {
		cfg.Logging.Trace = true
	}

	var errs gen.ErrorList
	if len(o.langs) > 0 {
		selected := &config.Config{}
		for _, name := range o.langs {
			lang, err := gen.ParseLanguage(name)
			if err != nil {
				errs.Add(err)
				continue
			}
			lc, _ := cfg.Language(lang)
			selected.SetLanguage(lang, lc)
		}
		cfg.Languages = selected.Languages
	}
	// edit changes the settings of one language. Languages named only by
	// these flags are added when --lang is not used.
	edit := func(flag, name string, fn func(*config.LanguageConfig)) {
		lang, err := gen.ParseLanguage(name)
		if err != nil {
			errs.Add(err)
			return
		}
		lc, ok := cfg.Language(lang)
		if !ok && len(o.langs) > 0 {
			errs.Add(gen.NewConfigError(flag, name, "language is not selected by --lang"))
			return
		}
		fn(&lc)
		cfg.SetLanguage(lang, lc)
	}
	for _, kv := range o.outs {
		name, dir, ok := strings.Cut(kv, "=")
		if !ok || dir == "" {
			errs.Add(gen.NewConfigError("out", kv, "expected lang=dir"))
			continue
		}
		edit("out", name, func(lc *config.LanguageConfig) { lc.Out = dir })
	}
	for _, kv := range o.packages {
		name, pkg, ok := strings.Cut(kv, "=")
		if !ok || pkg == "" {
			errs.Add(gen.NewConfigError("package", kv, "expected lang=pkg"))
			continue
		}
		edit("package", name, func(lc *config.LanguageConfig) { lc.Package = pkg })
	}
	for _, spec := range o.types {
		name, mapping, ok := strings.Cut(spec, ":")
		if !ok {
			errs.Add(gen.NewConfigError("type", spec, "expected lang:kind=Name[@import]"))
			continue
		}
		kind, typ, ok := strings.Cut(mapping, "=")
		if !ok {
			errs.Add(gen.NewConfigError("type", spec, "expected lang:kind=Name[@import]"))
			continue
		}
		edit("type", name, func(lc *config.LanguageConfig) {
			if lc.Types == nil {
				lc.Types = make(map[string]string)
			}
			lc.Types[kind] = typ
		})
	}
	if o.primitivePointers {
		edit("go-primitive-pointers", gen.LangGo.String(), func(lc *config.LanguageConfig) { lc.PrimitivePointers = true })
	}
	if err := errs.Err(); err != nil {
		return err
	}
	return cfg.Validate()
}
