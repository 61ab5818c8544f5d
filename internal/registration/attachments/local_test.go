package attachments

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "ezyassist/pkg/domain-errors"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestLocalStore_SaveOpenDelete(t *testing.T) {
	ctx := context.Background()
	st, err := NewLocal(t.TempDir(), 0)
	require.NoError(t, err)

	ref, err := st.Save(ctx, bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(ref, ".png"), ref)

	rc, err := st.Open(ctx, ref)
	require.NoError(t, err)
	got, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, pngHeader, got)

	require.NoError(t, st.Delete(ctx, ref))
	_, err = st.Open(ctx, ref)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	assert.NoError(t, st.Delete(ctx, ref), "deleting twice is fine")
}

func TestLocalStore_RejectsUnsupportedContent(t *testing.T) {
	st, err := NewLocal(t.TempDir(), 0)
	require.NoError(t, err)

	_, err = st.Save(context.Background(), strings.NewReader("#!/bin/sh\necho hi"))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = st.Save(context.Background(), strings.NewReader(""))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestLocalStore_EnforcesSizeLimit(t *testing.T) {
	st, err := NewLocal(t.TempDir(), int64(len(pngHeader)))
	require.NoError(t, err)

	_, err = st.Save(context.Background(), bytes.NewReader(append(pngHeader, 0, 0, 0)))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestLocalStore_RejectsEscapingRefs(t *testing.T) {
	st, err := NewLocal(t.TempDir(), 0)
	require.NoError(t, err)

	for _, ref := range []string{"", "../etc/passwd", "/etc/passwd", ".."} {
		_, err := st.Open(context.Background(), ref)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest), ref)
	}
}
