package announce

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf))
	assert.Equal(t, "正在生成项目文档...\n文档将在主进程中生成...\n", buf.String())
}

func TestWrite_Repeatable(t *testing.T) {
	var first, second bytes.Buffer
	require.NoError(t, Write(&first))
	require.NoError(t, Write(&second))
	assert.Equal(t, first.Bytes(), second.Bytes())
}

type failingWriter struct{ writes int }

func (f *failingWriter) Write(p []byte) (int, error) {
	f.writes++
	return 0, errors.New("closed pipe")
}

func TestWrite_StopsOnError(t *testing.T) {
	w := &failingWriter{}
	err := Write(w)
	require.Error(t, err)
	assert.Equal(t, 1, w.writes)
}
