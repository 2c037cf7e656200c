package main

import (
	"bytes"
	"testing"

	"github.com/sistemita/backend/internal/infrastructure/statement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Commands(t *testing.T) {
	root := newRootCmd()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["reconcile"])
	assert.True(t, names["import"])
	assert.NotNil(t, root.PersistentFlags().Lookup("log-level"))
}

func TestImportCmd_RequiresFile(t *testing.T) {
	root := newRootCmd()
	root.SetOut(new(bytes.Buffer))
	root.SetErr(new(bytes.Buffer))
	root.SetArgs([]string{"import"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg")
}

func TestImportOptions_Request(t *testing.T) {
	t.Run("guesses the format from the extension", func(t *testing.T) {
		req, err := importOptions{}.request("/data/extracto-marzo.XLSX")
		require.NoError(t, err)
		assert.Equal(t, "extracto-marzo.XLSX", req.FileName)
		assert.Equal(t, statement.FormatXLSX, req.Format)
		assert.Empty(t, req.Encoding, "empty keeps the configured default")
	})

	t.Run("flags override the guess", func(t *testing.T) {
		req, err := importOptions{format: "text", encoding: "cp1252", sheet: "Hoja1"}.request("extracto.xlsx")
		require.NoError(t, err)
		assert.Equal(t, statement.FormatText, req.Format)
		assert.Equal(t, statement.EncodingWindows1252, req.Encoding)
		assert.Equal(t, "Hoja1", req.Sheet)
	})

	t.Run("rejects unknown values", func(t *testing.T) {
		_, err := importOptions{format: "pdf"}.request("x.txt")
		assert.ErrorIs(t, err, statement.ErrUnsupportedFormat)

		_, err = importOptions{encoding: "ebcdic"}.request("x.txt")
		assert.ErrorIs(t, err, statement.ErrUnsupportedEncoding)
	})
}
