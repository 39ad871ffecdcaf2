package register_test

import (
	"errors"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/bazelbuild/bazel-gazelle/testtools"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stackb/tsresolve/pkg/host"
	"github.com/stackb/tsresolve/pkg/register"
	"github.com/stackb/tsresolve/pkg/resolver"
	"github.com/stackb/tsresolve/pkg/resolver/mocks"
	"github.com/stackb/tsresolve/pkg/testutil"
	"github.com/stackb/tsresolve/pkg/tsconfig"
)

func mapPointer(m map[string]register.Loader) uintptr {
	return reflect.ValueOf(m).Pointer()
}

func TestCheckVersion(t *testing.T) {
	for name, tc := range map[string]struct {
		version string
		wantErr bool
	}{
		"empty skips":   {},
		"minimum":       {version: "v18.19.0"},
		"newer":         {version: "v20.11.1"},
		"no v prefix":   {version: "22.0.0"},
		"prerelease":    {version: "v18.19.0-pre", wantErr: true},
		"older minor":   {version: "v18.18.2", wantErr: true},
		"older major":   {version: "16.20.0", wantErr: true},
		"not a version": {version: "latest", wantErr: true},
	} {
		t.Run(name, func(t *testing.T) {
			err := register.CheckVersion(tc.version)
			if tc.wantErr {
				require.ErrorIs(t, err, register.ErrUnsupportedRuntime)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestEnableUnsupportedRuntime(t *testing.T) {
	next := mocks.NewResolver(t)
	rt := register.NewRuntime("v18.0.0", next, nil)
	h, err := register.Enable(rt, register.Options{Config: &tsconfig.Config{}})
	require.ErrorIs(t, err, register.ErrUnsupportedRuntime)
	require.Nil(t, h)
	require.Same(t, next, rt.Resolver())
}

func TestEnableMalformedConfig(t *testing.T) {
	dir, _, cleanup := testutil.MustPrepareTestFiles(t, []testtools.FileSpec{
		{Path: "tsconfig.json", Content: `{"compilerOptions": {"paths": {"a/*/*": ["./a/*"]}}}`},
		{Path: "broken/tsconfig.json", Content: `{"compilerOptions": `},
	})
	defer cleanup()

	next := mocks.NewResolver(t)
	rt := register.NewRuntime("v20.0.0", next, nil)

	_, err := register.Enable(rt, register.Options{Cwd: dir, ConfigCache: tsconfig.NewCache()})
	require.Error(t, err)
	require.Contains(t, err.Error(), "at most one '*'")

	_, err = register.Enable(rt, register.Options{Cwd: filepath.Join(dir, "broken"), ConfigCache: tsconfig.NewCache()})
	require.Error(t, err)
	require.False(t, resolver.IsFallthrough(err))

	_, err = register.Enable(rt, register.Options{Cwd: dir, ConfigPath: "missing.json", ConfigCache: tsconfig.NewCache()})
	require.Error(t, err)

	require.Same(t, next, rt.Resolver())
}

func TestDisableRestoresExactReferences(t *testing.T) {
	next := mocks.NewResolver(t)
	rt := register.NewRuntime("", next, nil)
	savedExtensions := rt.Extensions()

	loaded := ""
	h, err := register.Enable(rt, register.Options{
		Config: &tsconfig.Config{},
		Loader: func(filename string) error {
			loaded = filename
			return nil
		},
	})
	require.NoError(t, err)
	require.NotSame(t, next, rt.Resolver())

	ok, err := rt.Load("/w/a.ts")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "/w/a.ts", loaded)
	ok, _ = rt.Load("/w/a.css")
	require.False(t, ok)

	h.Disable()
	require.Same(t, next, rt.Resolver())
	require.Equal(t, mapPointer(savedExtensions), mapPointer(rt.Extensions()))
	require.False(t, h.Enabled())

	// Idempotent.
	h.Disable()
	require.Same(t, next, rt.Resolver())
}

func TestStackedDisableOrder(t *testing.T) {
	for name, order := range map[string][]int{
		"reverse":      {2, 1, 0},
		"in order":     {0, 1, 2},
		"middle last":  {0, 2, 1},
		"middle first": {1, 0, 2},
	} {
		t.Run(name, func(t *testing.T) {
			next := mocks.NewResolver(t)
			rt := register.NewRuntime("", next, nil)
			saved := mapPointer(rt.Extensions())

			var handles []*register.Handle
			for i := 0; i < 3; i++ {
				h, err := register.Enable(rt, register.Options{
					Config:    &tsconfig.Config{},
					Namespace: string(rune('a' + i)),
					Loader:    func(string) error { return nil },
				})
				require.NoError(t, err)
				handles = append(handles, h)
			}
			for _, i := range order {
				handles[i].Disable()
				require.False(t, handles[i].Enabled())
			}
			require.Same(t, next, rt.Resolver())
			require.Equal(t, saved, mapPointer(rt.Extensions()))
		})
	}
}

func TestDisabledRegistrationPassesThrough(t *testing.T) {
	next := resolver.ResolverFunc(func(req *resolver.Request) (string, error) {
		return "host:" + req.Specifier, nil
	})
	rt := register.NewRuntime("", next, nil)
	lower, err := register.Enable(rt, register.Options{Config: &tsconfig.Config{}})
	require.NoError(t, err)
	_, err = register.Enable(rt, register.Options{Config: &tsconfig.Config{}, Namespace: "upper"})
	require.NoError(t, err)

	lower.Disable()
	got, err := rt.Resolve(&resolver.Request{Specifier: "#pkg/x"})
	require.NoError(t, err)
	require.Equal(t, "host:#pkg/x", got)

	_, err = lower.Resolve("#pkg/x", "")
	require.ErrorIs(t, err, register.ErrDisabled)
}

func TestNamespacedRegistrationsAreIsolated(t *testing.T) {
	dir, _, cleanup := testutil.MustPrepareTestFiles(t, []testtools.FileSpec{
		{Path: "one/tsconfig.json", Content: `{"compilerOptions": {"paths": {"#lib": ["./lib.ts"]}}}`},
		{Path: "one/lib.ts"},
		{Path: "two/tsconfig.json", Content: `{"compilerOptions": {"paths": {"#lib": ["./lib.ts"]}}}`},
		{Path: "two/lib.ts"},
		{Path: "main.ts"},
	})
	defer cleanup()

	fs := host.NewFileSystem(host.WithCwd(dir))
	rt := register.NewRuntime("v20.11.1", fs, host.NewModuleCache())
	configs := tsconfig.NewCache()

	one, err := register.Enable(rt, register.Options{
		Namespace:   "one",
		Cwd:         filepath.Join(dir, "one"),
		ConfigCache: configs,
		Logger:      testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	defer one.Disable()
	two, err := register.Enable(rt, register.Options{
		Namespace:   "two",
		Cwd:         filepath.Join(dir, "two"),
		ConfigCache: configs,
		Logger:      testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	defer two.Disable()

	parent := filepath.ToSlash(filepath.Join(dir, "main.ts"))
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		for _, tc := range []struct {
			h    *register.Handle
			want string
		}{
			{one, filepath.ToSlash(filepath.Join(dir, "one/lib.ts")) + "?namespace=one"},
			{two, filepath.ToSlash(filepath.Join(dir, "two/lib.ts")) + "?namespace=two"},
		} {
			wg.Add(1)
			go func(h *register.Handle, want string) {
				defer wg.Done()
				got, err := h.Resolve("#lib", parent)
				assert.NoError(t, err)
				assert.Equal(t, want, got)
			}(tc.h, tc.want)
		}
	}
	wg.Wait()

	// Children of a tagged file inherit its namespace.
	oneLib := filepath.ToSlash(filepath.Join(dir, "one/lib.ts")) + "?namespace=one"
	got, err := rt.Resolve(&resolver.Request{Specifier: "#lib", Parent: &resolver.Parent{Path: oneLib}})
	require.NoError(t, err)
	require.Equal(t, oneLib, got)

	// Untagged requests reach the host untouched.
	_, err = rt.Resolve(&resolver.Request{Specifier: "#lib", Parent: &resolver.Parent{Path: parent}})
	require.True(t, errors.Is(err, resolver.ErrNotFound))
}

func TestNamespacedRegistrationSkipsUntaggedBelow(t *testing.T) {
	dir, _, cleanup := testutil.MustPrepareTestFiles(t, []testtools.FileSpec{
		{Path: "one/tsconfig.json", Content: `{"compilerOptions": {"paths": {"#lib": ["./lib.ts"]}}}`},
		{Path: "one/lib.ts"},
		{Path: "two/tsconfig.json", Content: `{"compilerOptions": {"paths": {"#lib": ["./missing.ts"]}}}`},
		{Path: "main.ts"},
	})
	defer cleanup()

	rt := register.NewRuntime("v20.11.1", host.NewFileSystem(host.WithCwd(dir)), host.NewModuleCache())
	configs := tsconfig.NewCache()

	untagged, err := register.Enable(rt, register.Options{
		Cwd:         filepath.Join(dir, "one"),
		ConfigCache: configs,
		Logger:      testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	defer untagged.Disable()
	two, err := register.Enable(rt, register.Options{
		Namespace:   "two",
		Cwd:         filepath.Join(dir, "two"),
		ConfigCache: configs,
		Logger:      testutil.NewTestLogger(t),
	})
	require.NoError(t, err)
	defer two.Disable()

	parent := filepath.ToSlash(filepath.Join(dir, "main.ts"))
	got, err := two.Resolve("#lib", parent)
	require.ErrorIs(t, err, resolver.ErrNotFound, "resolved to %q", got)

	got, err = untagged.Resolve("#lib", parent)
	require.NoError(t, err)
	require.Equal(t, filepath.ToSlash(filepath.Join(dir, "one/lib.ts")), got)
}
