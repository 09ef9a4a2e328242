package ware_test

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AntonStoeckl/warekit/testutil/helper"
	"github.com/AntonStoeckl/warekit/ware"
)

var allLoaders = []ware.YAMLLoader{ware.LoaderBase, ware.LoaderSafe, ware.LoaderFull, ware.LoaderUnsafe}

func givenYAMLFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "document.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600), "error in arranging test data")

	return path
}

func Test_LoadYAML_EmptyDocument_ReturnsEmptyMap(t *testing.T) {
	helper.GivenProcessSinkSpy(t)

	for _, content := range []string{"", "# only a comment\n", "~\n", "null\n"} {
		path := givenYAMLFile(t, content)

		for _, loader := range allLoaders {
			t.Run(string(loader)+"/"+content, func(t *testing.T) {
				data, err := ware.LoadYAML(path, loader)
				require.NoError(t, err)
				assert.Equal(t, map[string]any{}, data)
			})
		}
	}
}

func Test_LoadYAML_NonMappingRoot_IsUnexpectedType(t *testing.T) {
	_, spy := helper.GivenProcessSinkSpy(t)

	for _, content := range []string{"just a string\n", "42\n", "- a\n- b\n"} {
		t.Run(content, func(t *testing.T) {
			spy.Reset()

			_, err := ware.LoadYAML(givenYAMLFile(t, content), ware.LoaderSafe)

			assert.ErrorIs(t, err, ware.ErrUnexpectedType)
			assert.Equal(t, 1, spy.CountErrorLogs())
		})
	}
}

func Test_LoadYAML_SafeLoader_ResolvesStandardTypes(t *testing.T) {
	helper.GivenProcessSinkSpy(t)
	path := givenYAMLFile(t, "name: api\nport: 8080\nratio: 0.5\nenabled: true\nnothing: null\nhosts:\n  - a\n  - b\n")

	data, err := ware.LoadYAML(path, "")

	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":    "api",
		"port":    8080,
		"ratio":   0.5,
		"enabled": true,
		"nothing": nil,
		"hosts":   []any{"a", "b"},
	}, data)
}

func Test_LoadYAML_BaseLoader_KeepsScalarsAsStrings(t *testing.T) {
	helper.GivenProcessSinkSpy(t)
	path := givenYAMLFile(t, "port: 8080\nenabled: true\nnothing: null\npoint: !!python/tuple [1, 2]\n")

	data, err := ware.LoadYAML(path, ware.LoaderBase)

	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"port":    "8080",
		"enabled": "true",
		"nothing": "null",
		"point":   []any{"1", "2"},
	}, data)
}

func Test_LoadYAML_ResolvesAliasesAndMergeKeys(t *testing.T) {
	helper.GivenProcessSinkSpy(t)
	path := givenYAMLFile(t, `
defaults: &defaults
  adapter: postgres
  host: localhost
extra: &extra
  pool: 5
  host: extrahost
development:
  host: devhost
  <<: [*defaults, *extra]
copy: *defaults
`)

	data, err := ware.LoadYAML(path, ware.LoaderSafe)

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"adapter": "postgres", "host": "devhost", "pool": 5}, data["development"])
	assert.Equal(t, data["defaults"], data["copy"])
}

func Test_LoadYAML_SelfReferencingAnchor_IsUnexpectedType(t *testing.T) {
	helper.GivenProcessSinkSpy(t)

	documents := map[string]string{
		"sequence": "a: &a [*a]\n",
		"mapping":  "a: &a {b: *a}\n",
		"merge":    "a: &a {<<: *a}\n",
		"root":     "&r {a: [1, *r]}\n",
		"tagged":   "a: &a !custom [*a]\n",
		"nested":   "a: &a\n  b:\n    c: [*a]\n",
	}

	for name, content := range documents {
		path := givenYAMLFile(t, content)

		for _, loader := range allLoaders {
			t.Run(name+"/"+string(loader), func(t *testing.T) {
				_, err := ware.LoadYAML(path, loader)
				assert.ErrorIs(t, err, ware.ErrUnexpectedType)
			})
		}
	}
}

func Test_LoadYAML_ExcessiveAliasing_IsUnexpectedType(t *testing.T) {
	helper.GivenProcessSinkSpy(t)

	var b strings.Builder
	b.WriteString("a: &a [" + strings.TrimSuffix(strings.Repeat("x,", 10), ",") + "]\n")
	for level, name := range []string{"b", "c", "d", "e", "f"} {
		previous := string(rune('a' + level))
		fmt.Fprintf(&b, "%s: &%s [%s]\n", name, name, strings.TrimSuffix(strings.Repeat("*"+previous+",", 10), ","))
	}

	path := givenYAMLFile(t, b.String())

	_, err := ware.LoadYAML(path, ware.LoaderSafe)

	require.ErrorIs(t, err, ware.ErrUnexpectedType)
	assert.Contains(t, err.Error(), "excessive aliasing")
}

func Test_LoadYAML_ModerateAliasReuse_IsAllowed(t *testing.T) {
	helper.GivenProcessSinkSpy(t)

	var b strings.Builder
	b.WriteString("base: &base {host: localhost, port: 5432}\n")
	for i := range 50 {
		fmt.Fprintf(&b, "service%d: *base\n", i)
	}

	path := givenYAMLFile(t, b.String())

	data, err := ware.LoadYAML(path, ware.LoaderSafe)

	require.NoError(t, err)
	assert.Len(t, data, 51)
	assert.Equal(t, data["base"], data["service49"])
}

func Test_LoadYAML_CollidingOrNullKeys_AreUnexpectedType(t *testing.T) {
	helper.GivenProcessSinkSpy(t)

	for name, content := range map[string]string{
		"int and string":  "1: a\n\"1\": b\n",
		"bool and string": "true: a\n\"true\": b\n",
		"null key":        "~: a\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ware.LoadYAML(givenYAMLFile(t, content), ware.LoaderSafe)
			assert.ErrorIs(t, err, ware.ErrUnexpectedType)
		})
	}
}

func Test_LoadYAML_CustomTags(t *testing.T) {
	helper.GivenProcessSinkSpy(t)
	path := givenYAMLFile(t, "secret: !vault db/password\n")

	_, err := ware.LoadYAML(path, ware.LoaderSafe)
	assert.ErrorIs(t, err, ware.ErrUnexpectedType)

	for _, loader := range []ware.YAMLLoader{ware.LoaderFull, ware.LoaderUnsafe} {
		t.Run(string(loader), func(t *testing.T) {
			data, loadErr := ware.LoadYAML(path, loader)
			require.NoError(t, loadErr)
			assert.Equal(t, ware.TaggedValue{Tag: "!vault", Value: "db/password"}, data["secret"])
		})
	}
}

func Test_LoadYAML_ObjectTags_OnlyUnsafe(t *testing.T) {
	helper.GivenProcessSinkSpy(t)
	path := givenYAMLFile(t, "point: !!python/tuple [1, 2]\n")

	_, err := ware.LoadYAML(path, ware.LoaderFull)
	assert.ErrorIs(t, err, ware.ErrUnexpectedType)

	data, err := ware.LoadYAML(path, ware.LoaderUnsafe)
	require.NoError(t, err)
	assert.Equal(t, ware.TaggedValue{Tag: "!!python/tuple", Value: []any{1, 2}}, data["point"])
}

func Test_LoadYAML_UnknownLoader(t *testing.T) {
	_, spy := helper.GivenProcessSinkSpy(t)

	_, err := ware.LoadYAML(givenYAMLFile(t, "a: 1\n"), "fancy")

	assert.ErrorIs(t, err, ware.ErrInvalidArgument)
	assert.ErrorContains(t, err, "Couldn't recognize given loader `fancy`.")
	assert.True(t, spy.HasErrorLogWithMessage("invalid argument: Couldn't recognize given loader `fancy`.").
		WithAttr("node", "ware.LoadYAML").
		Assert())
}

func Test_LoadYAML_MissingFile(t *testing.T) {
	helper.GivenProcessSinkSpy(t)

	_, err := ware.LoadYAML(filepath.Join(t.TempDir(), "missing.yaml"), ware.LoaderSafe)

	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func Test_SaveYAML_KeepsUnicode(t *testing.T) {
	helper.GivenProcessSinkSpy(t)
	path := filepath.Join(t.TempDir(), "greetings.yaml")
	data := map[string]any{"greeting": "привет", "nested":   map[string]any{"count": 3}}

	require.NoError(t, ware.SaveYAML(path, data))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "greeting: привет")

	loaded, err := ware.LoadYAML(path, ware.LoaderSafe)
	require.NoError(t, err)
	assert.Equal(t, data, loaded)
}
