package imageset_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rpggio/triplet-annotator/internal/domain/imageset"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, f := range files {
		p := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte("png"), 0o644))
	}
}

func triplet(folder, id string) []string {
	return []string{
		folder + "/" + id + "-a-sr_int_full.png",
		folder + "/" + id + "-a-tr_line.png",
		folder + "/" + id + "-a-tr_int_full.png",
	}
}

func TestMatchSuffix(t *testing.T) {
	suffix, ok := imageset.MatchSuffix("001-x-sr_int_full.png")
	require.True(t, ok)
	require.Equal(t, imageset.SuffixSRIntFull, suffix)

	suffix, ok = imageset.MatchSuffix("001-x-tr_int_full.png")
	require.True(t, ok)
	require.Equal(t, imageset.SuffixTRIntFull, suffix)

	_, ok = imageset.MatchSuffix("001-x-other.png")
	require.False(t, ok)
}

func TestFileID(t *testing.T) {
	id, ok := imageset.FileID("001-x-tr_line.png")
	require.True(t, ok)
	require.Equal(t, "001", id)

	_, ok = imageset.FileID("sr_int_full.png")
	require.False(t, ok)
}

func TestScanDirectory_CompleteAndIncomplete(t *testing.T) {
	root := t.TempDir()

	var files []string
	files = append(files, triplet("f1", "001")...)
	files = append(files, triplet("f1", "002")...)
	files = append(files, triplet("f2", "010")...)
	// Incomplete: missing tr_int_full.
	files = append(files, "f2/011-a-sr_int_full.png", "f2/011-a-tr_line.png")
	// Incomplete folder only.
	files = append(files, "f3/020-a-tr_line.png")
	// Root-level triplet is never grouped.
	files = append(files, "030-a-sr_int_full.png", "030-a-tr_line.png", "030-a-tr_int_full.png")
	// Noise.
	files = append(files, "f1/readme.txt", "f1/nodash_sr_int_full.png")
	writeFiles(t, root, files...)

	sets, err := imageset.NewScanner(nil).ScanDirectory(root)
	require.NoError(t, err)
	require.Len(t, sets, 2)

	require.Equal(t, "f1", sets[0].Folder)
	require.Len(t, sets[0].ImageSets, 2)
	require.Equal(t, imageset.Triplet{
		FileID:    "001",
		SRIntFull: "f1/001-a-sr_int_full.png",
		TRLine:    "f1/001-a-tr_line.png",
		TRIntFull: "f1/001-a-tr_int_full.png",
	}, sets[0].ImageSets[0])
	require.Equal(t, "002", sets[0].ImageSets[1].FileID)

	require.Equal(t, "f2", sets[1].Folder)
	require.Len(t, sets[1].ImageSets, 1)
	require.Equal(t, "010", sets[1].ImageSets[0].FileID)
}

func TestScanDirectory_NestedFoldersUseBasename(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, triplet("outer/inner", "001")...)

	sets, err := imageset.NewScanner(nil).ScanDirectory(root)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	require.Equal(t, "inner", sets[0].Folder)
	require.Equal(t, "outer/inner/001-a-tr_line.png", sets[0].ImageSets[0].TRLine)
}

func TestScanDirectory_MissingRoot(t *testing.T) {
	sets, err := imageset.NewScanner(nil).ScanDirectory(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	require.Empty(t, sets)
}

func TestScanFiles(t *testing.T) {
	files := []string{
		"README.md",
		"top-sr_int_full.png",
		"b/002-x-sr_int_full.png",
		"a/001-x-sr_int_full.png",
		"a/001-x-tr_line.png",
		"b/002-x-tr_line.png",
		"a/001-x-tr_int_full.png",
		"b/002-x-tr_int_full.png",
		"b/003-x-tr_int_full.png",
		"c/004-x-tr_line.png",
	}

	sets := imageset.NewScanner(nil).ScanFiles(files)
	require.Len(t, sets, 2)
	require.Equal(t, "b", sets[0].Folder)
	require.Equal(t, "a", sets[1].Folder)
	require.Len(t, sets[0].ImageSets, 1)
	require.Equal(t, "b/002-x-tr_int_full.png", sets[0].ImageSets[0].TRIntFull)
}

func TestScanFiles_DuplicateSuffixLastWins(t *testing.T) {
	files := []string{
		"a/001-x-sr_int_full.png",
		"a/001-y-sr_int_full.png",
		"a/001-x-tr_line.png",
		"a/001-x-tr_int_full.png",
	}

	sets := imageset.NewScanner(nil).ScanFiles(files)
	require.Len(t, sets, 1)
	require.Equal(t, "a/001-y-sr_int_full.png", sets[0].ImageSets[0].SRIntFull)
}

func TestFolderSet_Images(t *testing.T) {
	fs := imageset.FolderSet{Folder: "a", ImageSets: []imageset.Triplet{
		{FileID: "1", SRIntFull: "a/1s", TRLine: "a/1l", TRIntFull: "a/1i"},
	}}
	images := fs.Images()
	require.Len(t, images, 3)
	require.Contains(t, images, "a/1l")
}
