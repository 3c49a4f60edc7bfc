package alerts

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/leadsync/internal/cmd/output"
)

func TestAlertString(t *testing.T) {
	a := NewError("import failed").WithError(errors.New("disk full"))
	assert.Equal(t, "✗ import failed: disk full", a.String())
	assert.Equal(t, "✓ done", NewSuccess("done").String())
}

func TestFormatWriterPlain(t *testing.T) {
	var buf bytes.Buffer
	w := NewFormatWriter(&buf, output.FormatTable)
	require.NoError(t, w.WriteAlert(NewWarning("2 rows failed").WithDetails("row 3: boom", "row 5: bad email")))

	assert.Equal(t, "! 2 rows failed\n   row 3: boom\n   row 5: bad email\n", buf.String())
}

func TestFormatWriterStructured(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatWriter(&buf, output.FormatJSON).WriteAlert(NewInfo("no match")))
	assert.JSONEq(t, `{"level":"info","message":"no match"}`, buf.String())

	buf.Reset()
	require.NoError(t, NewFormatWriter(&buf, output.FormatYAML).WriteAlert(NewSuccess("ok")))
	assert.Contains(t, buf.String(), "level: success")
}
