package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// go-fitz returns metadata values as full fixed-size C buffers, so the real
// text is followed by NUL padding up to 256 bytes.
func nulPadded(s string) string {
	buf := make([]byte, 256)
	copy(buf, s)
	return string(buf)
}

func TestMetaField_TrimsNulPadding(t *testing.T) {
	meta := map[string]string{
		"title":  nulPadded("Quarterly Report"),
		"author": nulPadded(""),
		"crufty": nulPadded("  padded  "),
	}

	title := metaField(meta, "title")
	require.NotNil(t, title)
	assert.Equal(t, "Quarterly Report", *title)

	// An all-NUL buffer means the field is absent, not a 256-byte string.
	assert.Nil(t, metaField(meta, "author"))
	assert.Nil(t, metaField(meta, "missing"))

	crufty := metaField(meta, "crufty")
	require.NotNil(t, crufty)
	assert.Equal(t, "padded", *crufty)
}

func TestMetaValue(t *testing.T) {
	meta := map[string]string{"subject": nulPadded("D:20240115093045Z")}
	assert.Equal(t, "D:20240115093045Z", metaValue(meta, "subject"))
	assert.Equal(t, "", metaValue(meta, "missing"))
}
