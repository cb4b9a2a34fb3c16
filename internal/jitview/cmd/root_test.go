package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jitview/internal/dump"
	"jitview/internal/view"
)

func writeDump(t *testing.T, arch dump.Arch, pc uint64, code []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "jit_dump.bin")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w, err := dump.NewWriter(f, arch)
	require.NoError(t, err)
	if code != nil {
		require.NoError(t, w.WriteBlock(pc, code))
	}
	return path
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("JITVIEW_LOG_LEVEL", "")
	t.Setenv("JITVIEW_LOG_TO_FILE", "")

	reset := func(fs *pflag.FlagSet) {
		fs.VisitAll(func(f *pflag.Flag) {
			f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	reset(rootCmd.Flags())
	reset(rootCmd.PersistentFlags())
	reset(statsCmd.Flags())

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRootListing(t *testing.T) {
	path := writeDump(t, dump.ArchX64, 0x1000, []byte{0x55, 0x48, 0x89, 0xe5, 0xc3})

	got, err := execute(t, path)
	require.NoError(t, err)
	assert.Equal(t, "architecture: x64\n"+
		"PC 0x1000:\n"+
		"    push   rbp\n"+
		"    mov    rbp, rsp\n"+
		"    ret    \n"+
		"\n", got)
}

func TestRootUsageError(t *testing.T) {
	_, err := execute(t)
	assert.Error(t, err)

	_, err = execute(t, "a.bin", "b.bin")
	assert.Error(t, err)
}

func TestRootMissingFile(t *testing.T) {
	_, err := execute(t, filepath.Join(t.TempDir(), "missing.bin"))
	assert.ErrorContains(t, err, "failed to open dump")
}

func TestRootUnsupportedArchitecture(t *testing.T) {
	path := writeDump(t, dump.ArchX64, 0, nil)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	data[4] = 3
	require.NoError(t, os.WriteFile(path, data, 0o644))

	got, err := execute(t, path)
	assert.ErrorIs(t, err, dump.ErrUnsupportedArchitecture)
	assert.Empty(t, got)
}

func TestRootJSON(t *testing.T) {
	path := writeDump(t, dump.ArchAArch64, 0x4000, []byte{
		0x08, 0x00, 0x00, 0x14, // b +0x20
		0x1f, 0x20, 0x03, 0xd5, 0x1f, 0x20, 0x03, 0xd5, 0x1f, 0x20, 0x03, 0xd5, 0x1f, 0x20, 0x03, 0xd5,
		0x1f, 0x20, 0x03, 0xd5, 0x1f, 0x20, 0x03, 0xd5, 0x1f, 0x20, 0x03, 0xd5,
		0xc0, 0x03, 0x5f, 0xd6, // ret at 0x20
	})

	got, err := execute(t, "--json", path)
	require.NoError(t, err)

	var doc view.JSONOutput
	require.NoError(t, json.Unmarshal([]byte(got), &doc))
	assert.Equal(t, "aarch64", doc.Architecture)
	require.Len(t, doc.Blocks, 1)
	require.Len(t, doc.Blocks[0].Instructions, 9)
	assert.Equal(t, "lbl_000020", doc.Blocks[0].Instructions[0].Target)
	assert.Equal(t, "lbl_000020", doc.Blocks[0].Instructions[8].Label)
}

func TestRootColorFlag(t *testing.T) {
	path := writeDump(t, dump.ArchX64, 0x1000, []byte{0xc3})

	_, err := execute(t, "--color", "sometimes", path)
	assert.Error(t, err)

	got, err := execute(t, "--color", "never", path)
	require.NoError(t, err)
	assert.NotContains(t, got, "\x1b[")
}

func TestStats(t *testing.T) {
	path := writeDump(t, dump.ArchX64, 0x1000, []byte{0x55, 0x48, 0x89, 0xe5, 0xc3})

	got, err := execute(t, "stats", path)
	require.NoError(t, err)
	assert.Contains(t, got, "| Architecture | `x64` |")
	assert.Contains(t, got, "| Instructions | 3 |")
}

func TestSchema(t *testing.T) {
	got, err := execute(t, "schema")
	require.NoError(t, err)
	assert.Contains(t, got, `"color"`)
}
