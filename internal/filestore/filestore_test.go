package filestore_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/expensa/internal/filestore"
	"github.com/MrJamesThe3rd/expensa/internal/ledger"
)

var pdf = []byte("%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n")

func TestStore_SaveAndDelete(t *testing.T) {
	root := t.TempDir()
	s := filestore.New(root, "/media/")

	rel, err := s.Save(bytes.NewReader(pdf))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(rel, "bills/"))
	assert.True(t, strings.HasSuffix(rel, ".pdf"))
	assert.Equal(t, "/media/"+rel, s.URL(rel))

	got, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	assert.Equal(t, pdf, got)

	require.NoError(t, s.Delete(rel))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, s.Delete(rel), "deleting twice is not an error")
}

func TestStore_SaveRejects(t *testing.T) {
	type testCase struct {
		name    string
		store   *filestore.Store
		content []byte
	}

	base := filestore.New(t.TempDir(), "/media")

	tests := []testCase{
		{name: "Empty", store: base, content: nil},
		{name: "PlainText", store: base, content: []byte("just some notes")},
		{name: "TooLarge", store: base.WithMaxSize(8), content: pdf},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.store.Save(bytes.NewReader(tt.content))

			var verr *ledger.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, "bill")
		})
	}
}
