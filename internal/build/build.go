// Package build runs the compile and link pipeline of a sugar project.
package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/goplus/sugar/internal/config"
	"github.com/goplus/sugar/internal/project"
	"github.com/goplus/sugar/internal/toolchain"
)

// Options configure a Builder.
type Options struct {
	Logger zerolog.Logger

	// Timeout bounds every toolchain subprocess. When zero the project's
	// timeout setting applies.
	Timeout time.Duration

	// NewToolchain constructs the backend named by the project's compiler.
	// nil means toolchain.New.
	NewToolchain func(name string, opts toolchain.Options) (toolchain.Toolchain, error)

	// GOOS selects artifact naming. Empty means runtime.GOOS.
	GOOS string

	// OnState, if set, observes every state transition.
	OnState func(State)
}

// Result describes a successful build.
type Result struct {
	ID       uuid.UUID
	Artifact string
	Sources  []string
	Objects  []string
	Elapsed  time.Duration
}

type Builder struct {
	opts Options
}

func NewBuilder(opts Options) *Builder {
	if opts.NewToolchain == nil {
		opts.NewToolchain = toolchain.New
	}
	return &Builder{opts: opts}
}

// Build loads the project file at configPath and builds the project rooted
// at its directory.
func (b *Builder) Build(ctx context.Context, configPath string) (*Result, error) {
	id := uuid.New()
	cfg, err := config.Load(configPath)
	if err != nil {
		t := &tracker{on: b.opts.OnState}
		t.fail()
		err = &Error{Stage: StageConfig, Err: err}
		log := b.logger(id)
		log.Error().Str("stage", string(StageConfig)).Err(err).Msg("build failed")
		return nil, err
	}
	return b.buildConfig(ctx, id, filepath.Dir(configPath), cfg)
}

// BuildConfig builds the project described by cfg, rooted at root. Every
// call starts from scratch: all sources are compiled and the artifact is
// linked again. The first failure ends the build.
func (b *Builder) BuildConfig(ctx context.Context, root string, cfg *config.Config) (*Result, error) {
	return b.buildConfig(ctx, uuid.New(), root, cfg)
}

func (b *Builder) logger(id uuid.UUID) zerolog.Logger {
	return b.opts.Logger.With().Str("build_id", id.String()).Logger()
}

func (b *Builder) buildConfig(ctx context.Context, id uuid.UUID, root string, cfg *config.Config) (res *Result, err error) {
	log := b.logger(id)
	t := &tracker{on: b.opts.OnState}
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res, err = nil, &Error{Stage: StageUnexpected, Err: fmt.Errorf("panic: %v", r)}
		}
		if err != nil {
			t.fail()
			log.Error().Str("stage", string(StageOf(err))).Err(err).Msg("build failed")
		}
	}()

	p, tc, err := b.setup(root, cfg, log)
	if err != nil {
		return nil, stageError(StageConfig, "", err)
	}
	t.enter(ConfigLoaded)
	log.Info().
		Str("project", p.Name()).
		Str("compiler", tc.Name()).
		Str("type", string(cfg.ProjectType)).
		Msg("build started")

	buildDir, outputDir := p.BuildDir(), p.OutputDir()
	for _, dir := range []string{buildDir, outputDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, stageError(StageDirectories, "", err)
		}
	}
	t.enter(DirectoriesReady)
	if prev, err := loadRecord(buildDir); err == nil {
		log.Debug().Str("previous_build", prev.ID).Time("at", prev.BuildTime).Msg("rebuilding")
	}

	sources, err := p.SourceFiles()
	if err != nil {
		return nil, stageError(StageDiscovery, "", err)
	}
	if len(sources) == 0 {
		return nil, stageError(StageDiscovery, "", fmt.Errorf("%w in %s", ErrNoSources, p.SourceDir()))
	}
	objects, err := p.ObjectFiles(sources, tc.ObjectFileExtension())
	if err != nil {
		return nil, stageError(StageDiscovery, "", err)
	}
	t.enter(SourcesDiscovered)
	log.Debug().Int("sources", len(sources)).Msg("sources discovered")

	flags := compileFlags(tc, cfg)
	includeDirs := p.IncludeDirs()
	for i, src := range sources {
		t.enter(Compiling)
		rel := relPath(p.Root, src)
		if err := ctx.Err(); err != nil {
			return nil, stageError(StageCompilation, rel, err)
		}
		log.Info().Str("source", rel).Int("n", i+1).Int("of", len(sources)).Msg("compiling")
		if err := tc.Compile(ctx, src, objects[i], includeDirs, flags); err != nil {
			return nil, stageError(StageCompilation, rel, err)
		}
	}
	t.enter(AllObjectsReady)

	artifact, err := p.Artifact()
	if err != nil {
		return nil, stageError(StageConfig, "", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, stageError(StageLinking, "", err)
	}
	t.enter(Linking)
	log.Info().Str("artifact", relPath(p.Root, artifact)).Msg("linking")
	if err := link(ctx, tc, p, objects, artifact); err != nil {
		return nil, err
	}
	t.enter(Done)

	res = &Result{
		ID:       id,
		Artifact: artifact,
		Sources:  sources,
		Objects:  objects,
		Elapsed:  time.Since(start),
	}
	rec := &buildRecord{
		ID:        id.String(),
		Compiler:  tc.Name(),
		Artifact:  artifact,
		Objects:   objects,
		BuildTime: time.Now(),
	}
	if err := saveRecord(buildDir, rec); err != nil {
		log.Warn().Err(err).Msg("cannot save build record")
	}
	log.Info().Str("artifact", artifact).Dur("elapsed", res.Elapsed).Msg("build succeeded")
	return res, nil
}

// setup validates cfg and constructs its toolchain.
func (b *Builder) setup(root string, cfg *config.Config, log zerolog.Logger) (*project.Project, toolchain.Toolchain, error) {
	if cfg == nil {
		return nil, nil, fmt.Errorf("%w: no configuration", config.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	p, err := project.New(root, cfg)
	if err != nil {
		return nil, nil, err
	}
	p.GOOS = b.opts.GOOS

	timeout := b.opts.Timeout
	if timeout == 0 {
		timeout = cfg.TimeoutDuration()
	}
	tc, err := b.opts.NewToolchain(cfg.Compiler, toolchain.Options{
		Logger:  log,
		Env:     cfg.Env,
		Timeout: timeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return p, tc, nil
}

// compileFlags puts the backend's position-independent code flags, needed
// for shared libraries, before the user's flags.
func compileFlags(tc toolchain.Toolchain, cfg *config.Config) []string {
	var flags []string
	if pic, ok := tc.(toolchain.PICer); ok && cfg.ProjectType == config.SharedLibrary {
		flags = append(flags, pic.PICFlags()...)
	}
	return append(flags, cfg.CompilerFlags...)
}

// link dispatches to exactly one link operation by project type.
func link(ctx context.Context, tc toolchain.Toolchain, p *project.Project, objects []string, artifact string) error {
	cfg := p.Config
	var err error
	switch cfg.ProjectType {
	case config.Executable:
		err = tc.LinkExecutable(ctx, objects, artifact, p.LibDirs(), cfg.LinkDependencies, cfg.LinkerFlags)
	case config.StaticLibrary:
		err = tc.LinkStaticLibrary(ctx, objects, artifact, cfg.ArchiverFlags)
	case config.SharedLibrary:
		err = tc.LinkSharedLibrary(ctx, objects, artifact, p.LibDirs(), cfg.LinkDependencies, cfg.LinkerFlags)
	default:
		return stageError(StageConfig, "", fmt.Errorf("%w %q", config.ErrUnknownProjectType, cfg.ProjectType))
	}
	if err != nil {
		return stageError(StageLinking, "", err)
	}
	return nil
}

func relPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return rel
	}
	return path
}
