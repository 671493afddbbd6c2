package vdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `"InstallConfigStore"
{
	"Software"
	{
		"Valve"
		{
			"Steam"
			{
				"AutoLoginUser"		"alice"
				"Accounts"
				{
					"alice"
					{
						"SteamID"		"76561198000000001"
					}
				}
			}
		}
	}
}
`

func TestParseNested(t *testing.T) {
	root, err := Parse(sampleConfig)
	require.NoError(t, err)

	steam := SubkeyLookup(root, `InstallConfigStore\Software\Valve\Steam`)
	user, ok := steam.String("AutoLoginUser")
	require.True(t, ok)
	assert.Equal(t, "alice", user)

	accounts, ok := steam.Child("Accounts")
	require.True(t, ok)
	alice, ok := accounts.Child("alice")
	require.True(t, ok)
	id, _ := alice.String("SteamID")
	assert.Equal(t, "76561198000000001", id)
}

func TestDumpRoundTrip(t *testing.T) {
	root, err := Parse(sampleConfig)
	require.NoError(t, err)

	text := Dump(root)
	again, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, text, Dump(again))
	assert.Equal(t, sampleConfig, text)
}

func TestParsePreservesKeyOrder(t *testing.T) {
	root, err := Parse("\"b\" \"2\"\n\"a\" \"1\"\n\"c\" \"3\"\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, root.Keys())
}

func TestParseEscapes(t *testing.T) {
	root, err := Parse(`"key"  "a\\b\"c\nd"`)
	require.NoError(t, err)
	v, ok := root.String("key")
	require.True(t, ok)
	assert.Equal(t, "a\\b\"c\nd", v)

	out := Dump(root)
	again, err := Parse(out)
	require.NoError(t, err)
	v2, _ := again.String("key")
	assert.Equal(t, v, v2)
}

func TestParseComments(t *testing.T) {
	root, err := Parse("// header\n\"k\"\t\"v\" // trailing\n")
	require.NoError(t, err)
	v, _ := root.String("k")
	assert.Equal(t, "v", v)
}

func TestParseErrors(t *testing.T) {
	_, err := Parse(`"key"`)
	require.ErrorIs(t, err, ErrParse)

	_, err = Parse("\"a\"\n{\n\"b\" \"1\"\n")
	require.ErrorIs(t, err, ErrParse)

	_, err = Parse("}")
	require.ErrorIs(t, err, ErrParse)
}

func TestSubkeyLookupCaseFold(t *testing.T) {
	root, err := Parse("\"registry\"\n{\n\"hkcu\"\n{\n\"Software\"\n{\n}\n}\n}\n")
	require.NoError(t, err)

	leaf := SubkeyLookup(root, `Registry\HKCU\Software`)
	leaf.SetString("AutoLoginUser", "bob")

	// Write-back lands under the original casing, not a duplicate key.
	hkcu, ok := SubkeyLookup(root, "registry").Child("hkcu")
	require.True(t, ok)
	sw, ok := hkcu.Child("Software")
	require.True(t, ok)
	v, _ := sw.String("AutoLoginUser")
	assert.Equal(t, "bob", v)
}

func TestSubkeyLookupAutovivify(t *testing.T) {
	root := NewNode()
	leaf := SubkeyLookup(root, `Registry\HKCU\Software\Valve\Steam`)
	leaf.SetString("AutoLoginUser", "carol")

	// A second lookup returns the same mapping, not a fresh one.
	again := SubkeyLookup(root, `Registry\HKCU\Software\Valve\Steam`)
	v, ok := again.String("AutoLoginUser")
	require.True(t, ok)
	assert.Equal(t, "carol", v)
	assert.Same(t, leaf, again)
}

func TestLoadMissingFile(t *testing.T) {
	root, err := Load(filepath.Join(t.TempDir(), "nope.vdf"))
	require.NoError(t, err)
	assert.Equal(t, 0, root.Len())
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.vdf")

	root := NewNode()
	SubkeyLookup(root, `Registry\HKCU\Software\Valve\Steam`).SetString("AutoLoginUser", "alice")
	require.NoError(t, Save(path, root))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\"AutoLoginUser\"\t\t\"alice\"")

	again, err := Load(path)
	require.NoError(t, err)
	v, _ := SubkeyLookup(again, `Registry\HKCU\Software\Valve\Steam`).String("AutoLoginUser")
	assert.Equal(t, "alice", v)
}
