package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ecoreceipt/backend/internal/domain"
)

const testCatalogCSV = "product,category,impactScore,greenerAlternative,impactReason,alternativeReason\n" +
	"Coca Cola,Beverages,8,Sparkling Water,Sugar and packaging.,Tap water in a reusable bottle.\n" +
	"Beef Mince,Meat,9,Lentils,Methane.,Legumes need little land.\n" +
	"Oat Milk,Dairy Alternatives,2,Oat Milk,Low water use.,Already a good choice.\n" +
	"Oat Milk,Dairy Alternatives,3,Oat Milk,Low water use.,Already a good choice.\n"

// workspace creates an isolated directory holding a catalog and returns its path
func workspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "products.csv"), []byte(testCatalogCSV), 0o644))
	return dir
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	workspace(t)

	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "ecoreceipt dev\n", out)
}

func TestNormalize(t *testing.T) {
	dir := workspace(t)

	t.Run("from stdin", func(t *testing.T) {
		out, err := execute(t, "2x COCA-COLA 500ML $3.99\nTOTAL $3.99\n", "normalize")
		require.NoError(t, err)
		assert.Equal(t, "COCACOLA\n", out)
	})

	t.Run("from file", func(t *testing.T) {
		path := filepath.Join(dir, "receipt.txt")
		require.NoError(t, os.WriteFile(path, []byte("FRESH MART\nMilk 1L 1.20\nBread 2.10\n"), 0o644))

		out, err := execute(t, "", "normalize", path)
		require.NoError(t, err)
		assert.Equal(t, "MILK\nBREAD\n", out)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := execute(t, "", "normalize", filepath.Join(dir, "nope.txt"))
		assert.Error(t, err)
	})
}

func TestMatch(t *testing.T) {
	workspace(t)

	t.Run("prints one row per candidate", func(t *testing.T) {
		out, err := execute(t, "", "--catalog", "products.csv", "match", "coca cola", "XYZ")
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 3)
		assert.Contains(t, lines[1], "COCA COLA")
		assert.Contains(t, lines[1], "100.0%")
		assert.Contains(t, lines[2], domain.UnknownProduct)
	})

	t.Run("invalid threshold", func(t *testing.T) {
		_, err := execute(t, "", "--catalog", "products.csv", "match", "--threshold", "120", "COCACOLA")
		assert.ErrorIs(t, err, domain.ErrInvalidRequest)
	})

	t.Run("missing catalog", func(t *testing.T) {
		_, err := execute(t, "", "--catalog", "missing.csv", "match", "COCACOLA")
		assert.ErrorIs(t, err, domain.ErrCatalogLoad)
	})
}

func TestCatalog(t *testing.T) {
	workspace(t)

	out, err := execute(t, "", "--catalog", "products.csv", "catalog")
	require.NoError(t, err)

	assert.Contains(t, out, "BEEF MINCE")
	assert.Contains(t, out, "3 product(s)")
	assert.Contains(t, out, "duplicate row for OAT MILK")
}

func TestAnalyze(t *testing.T) {
	dir := workspace(t)

	week1 := filepath.Join(dir, "week1.txt")
	week2 := filepath.Join(dir, "week2.txt")
	require.NoError(t, os.WriteFile(week1, []byte("Coca Cola 1.99\nBeef Mince 1kg 9.99\nTOTAL 11.98\n"), 0o644))
	require.NoError(t, os.WriteFile(week2, []byte("Oat Milk 1L 2.10\n"), 0o644))

	t.Run("json report", func(t *testing.T) {
		out, err := execute(t, "", "--catalog", "products.csv", "analyze", "--json", week1, week2)
		require.NoError(t, err)

		var report domain.ImpactReport
		require.NoError(t, json.Unmarshal([]byte(out), &report), out)
		require.Len(t, report.Receipts, 2)
		assert.Equal(t, "week1.txt", report.Receipts[0].Source)
		// duplicate OAT MILK row keeps the later score of 3
		assert.Equal(t, 6.67, report.AverageImpact)
		assert.Equal(t, domain.GradeC, report.Grade)
		assert.Equal(t, 10.0, report.WeeklyCO2)
	})

	t.Run("dashboard and export", func(t *testing.T) {
		exportPath := filepath.Join(dir, "out", "report.xlsx")
		out, err := execute(t, "", "--catalog", "products.csv", "analyze", "--export", exportPath, week1)
		require.NoError(t, err)

		assert.Contains(t, out, "Receipt Impact Report")
		assert.Contains(t, out, "Lentils")
		assert.FileExists(t, exportPath)
	})

	t.Run("threshold flag", func(t *testing.T) {
		out, err := execute(t, "", "--catalog", "products.csv", "analyze", "--json", "--threshold", "100", week2)
		require.NoError(t, err)

		var report domain.ImpactReport
		require.NoError(t, json.Unmarshal([]byte(out), &report))
		// OAT MILK is an exact match, so even threshold 100 accepts it
		assert.Equal(t, 3.0, report.AverageImpact)
	})

	t.Run("unknown export format", func(t *testing.T) {
		_, err := execute(t, "", "--catalog", "products.csv", "analyze", "--export", filepath.Join(dir, "report.pdf"), week1)
		assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	})

	t.Run("requires files", func(t *testing.T) {
		_, err := execute(t, "", "analyze")
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := execute(t, "", "--catalog", "products.csv", "analyze", filepath.Join(dir, "nope.txt"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestInvalidLogLevel(t *testing.T) {
	workspace(t)

	_, err := execute(t, "", "--log-level", "verbose", "version")
	assert.Error(t, err)
}
