package host_test

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/bazelbuild/bazel-gazelle/testtools"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/stackb/tsresolve/pkg/host"
	"github.com/stackb/tsresolve/pkg/resolver"
	"github.com/stackb/tsresolve/pkg/testutil"
)

var projectFiles = []testtools.FileSpec{
	{Path: "src/main.ts"},
	{Path: "src/utils.js"},
	{Path: "src/data.json", Content: "{}"},
	{Path: "src/dir/"},
	{Path: "src/dir/index.ts"},
	{Path: "node_modules/plain/index.js"},
	{Path: "node_modules/plain/lib/helper.js"},
	{Path: "node_modules/withmain/package.json", Content: `{"name": "withmain", "main": "dist/entry.js"}`},
	{Path: "node_modules/withmain/dist/entry.js"},
	{Path: "node_modules/@scope/pkg/package.json", Content: `{
  "name": "@scope/pkg",
  "exports": {
    ".": {"types": "./index.d.ts", "import": "./esm/index.mjs", "require": "./cjs/index.cjs"},
    "./feature": "./esm/feature.mjs",
    "./utils/*": "./esm/utils/*.mjs",
    "./internal/*": null
  }
}`},
	{Path: "node_modules/@scope/pkg/esm/index.mjs"},
	{Path: "node_modules/@scope/pkg/cjs/index.cjs"},
	{Path: "node_modules/@scope/pkg/esm/feature.mjs"},
	{Path: "node_modules/@scope/pkg/esm/utils/strings.mjs"},
	{Path: "node_modules/@scope/pkg/esm/internal/secret.mjs"},
	{Path: "node_modules/missingmain/package.json", Content: `{"main": "gone.js"}`},
}

func TestFileSystemResolve(t *testing.T) {
	dir, _, cleanup := testutil.MustPrepareTestFiles(t, projectFiles)
	defer cleanup()

	abs := func(rel string) string {
		return filepath.ToSlash(filepath.Join(dir, rel))
	}
	main := &resolver.Parent{Path: abs("src/main.ts")}

	for name, tc := range map[string]struct {
		req     resolver.Request
		want    string
		wantErr error
	}{
		"relative":              {req: resolver.Request{Specifier: "./utils.js", Parent: main}, want: abs("src/utils.js")},
		"relative keeps query":  {req: resolver.Request{Specifier: "./utils.js?x=1", Parent: main}, want: abs("src/utils.js") + "?x=1"},
		"relative missing":      {req: resolver.Request{Specifier: "./utils", Parent: main}, wantErr: resolver.ErrNotFound},
		"directory not a file":  {req: resolver.Request{Specifier: "./dir", Parent: main}, wantErr: resolver.ErrNotFound},
		"directory shaped":      {req: resolver.Request{Specifier: "./dir/", Parent: main}, wantErr: resolver.ErrNotFound},
		"file used as dir":      {req: resolver.Request{Specifier: "./utils.js/index.js", Parent: main}, wantErr: resolver.ErrNotFound},
		"parent query ignored":  {req: resolver.Request{Specifier: "./data.json", Parent: &resolver.Parent{Path: abs("src/main.ts") + "?namespace=t"}}, want: abs("src/data.json")},
		"absolute":              {req: resolver.Request{Specifier: abs("src/main.ts")}, want: abs("src/main.ts")},
		"entry point from cwd":  {req: resolver.Request{Specifier: "./src/main.ts"}, want: abs("src/main.ts")},
		"file url":              {req: resolver.Request{Specifier: "file://" + abs("src/main.ts")}, want: abs("src/main.ts")},
		"core prefixed":         {req: resolver.Request{Specifier: "node:fs", Parent: main}, want: "node:fs"},
		"core bare":             {req: resolver.Request{Specifier: "fs/promises", Parent: main}, want: "node:fs/promises"},
		"core prefix only":      {req: resolver.Request{Specifier: "node:test", Parent: main}, want: "node:test"},
		"core unknown":          {req: resolver.Request{Specifier: "node:nope", Parent: main}, wantErr: resolver.ErrNotFound},
		"data url":              {req: resolver.Request{Specifier: "data:text/javascript,export{}", Parent: main}, want: "data:text/javascript,export{}"},
		"package index":         {req: resolver.Request{Specifier: "plain", Parent: main}, want: abs("node_modules/plain/index.js")},
		"package subpath":       {req: resolver.Request{Specifier: "plain/lib/helper.js", Parent: main}, want: abs("node_modules/plain/lib/helper.js")},
		"package main":          {req: resolver.Request{Specifier: "withmain", Parent: main}, want: abs("node_modules/withmain/dist/entry.js")},
		"package main missing":  {req: resolver.Request{Specifier: "missingmain", Parent: main}, wantErr: resolver.ErrNotFound},
		"exports import":        {req: resolver.Request{Specifier: "@scope/pkg", Parent: main}, want: abs("node_modules/@scope/pkg/esm/index.mjs")},
		"exports require":       {req: resolver.Request{Specifier: "@scope/pkg", Parent: main, Conditions: []string{"require"}}, want: abs("node_modules/@scope/pkg/cjs/index.cjs")},
		"exports subpath":       {req: resolver.Request{Specifier: "@scope/pkg/feature", Parent: main}, want: abs("node_modules/@scope/pkg/esm/feature.mjs")},
		"exports pattern":       {req: resolver.Request{Specifier: "@scope/pkg/utils/strings", Parent: main}, want: abs("node_modules/@scope/pkg/esm/utils/strings.mjs")},
		"exports null":          {req: resolver.Request{Specifier: "@scope/pkg/internal/secret", Parent: main}, wantErr: resolver.ErrExportNotExported},
		"not exported":          {req: resolver.Request{Specifier: "@scope/pkg/esm/feature.mjs", Parent: main}, wantErr: resolver.ErrExportNotExported},
		"package missing":       {req: resolver.Request{Specifier: "absent", Parent: main}, wantErr: resolver.ErrNotFound},
		"imports field unknown": {req: resolver.Request{Specifier: "#internal", Parent: main}, wantErr: resolver.ErrNotFound},
	} {
		t.Run(name, func(t *testing.T) {
			fs := host.NewFileSystem(host.WithCwd(dir), host.WithLogger(testutil.NewTestLogger(t)))
			req := tc.req
			got, err := fs.Resolve(&req)
			if tc.wantErr != nil {
				require.Error(t, err)
				require.True(t, errors.Is(err, tc.wantErr), "want %v, got %v", tc.wantErr, err)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Resolve (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFileSystemUnsupportedScheme(t *testing.T) {
	fs := host.NewFileSystem(host.WithCwd(t.TempDir()))
	_, err := fs.Resolve(&resolver.Request{Specifier: "https://example.com/mod.js"})
	require.Error(t, err)
	require.False(t, resolver.IsFallthrough(err))
	require.Contains(t, err.Error(), `unsupported URL scheme "https"`)
}

func TestFileSystemMalformedManifest(t *testing.T) {
	dir, _, cleanup := testutil.MustPrepareTestFiles(t, []testtools.FileSpec{
		{Path: "node_modules/broken/package.json", Content: `{"main": `},
	})
	defer cleanup()

	fs := host.NewFileSystem(host.WithCwd(dir))
	_, err := fs.Resolve(&resolver.Request{Specifier: "broken"})
	require.Error(t, err)
	require.False(t, resolver.IsFallthrough(err))
	require.Contains(t, err.Error(), "package.json")
}

func TestFileSystemWalksAncestors(t *testing.T) {
	dir, _, cleanup := testutil.MustPrepareTestFiles(t, []testtools.FileSpec{
		{Path: "node_modules/shared/index.js"},
		{Path: "packages/app/node_modules/local/index.js"},
		{Path: "packages/app/src/main.ts"},
	})
	defer cleanup()

	fs := host.NewFileSystem(host.WithCwd(dir))
	from := &resolver.Parent{Path: filepath.Join(dir, "packages/app/src/main.ts")}
	for spec, want := range map[string]string{
		"shared": filepath.Join(dir, "node_modules/shared/index.js"),
		"local":  filepath.Join(dir, "packages/app/node_modules/local/index.js"),
	} {
		got, err := fs.Resolve(&resolver.Request{Specifier: spec, Parent: from})
		require.NoError(t, err, spec)
		require.Equal(t, filepath.ToSlash(want), got, spec)
	}
}
