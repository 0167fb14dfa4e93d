package pagination

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/velvetsouk/velvetsouk-backend/pkg/errors"
)

func TestParseCursorRoundTrip(t *testing.T) {
	want := Cursor{CreatedAt: time.Now().UTC().Truncate(time.Microsecond), ID: uuid.New()}

	got, err := ParseCursor(EncodeCursor(want))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.CreatedAt.Equal(want.CreatedAt))
	assert.Equal(t, want.ID, got.ID)
}

func TestParseCursorEmptyMeansFirstPage(t *testing.T) {
	got, err := ParseCursor("  ")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestParseCursorMalformedIsValidationError(t *testing.T) {
	cases := map[string]string{
		"not base64":    "%%%not-base64%%%",
		"no separator":  base64.StdEncoding.EncodeToString([]byte("just-one-part")),
		"bad timestamp": base64.StdEncoding.EncodeToString([]byte("yesterday|" + uuid.New().String())),
		"bad id":        base64.StdEncoding.EncodeToString([]byte(time.Now().Format(time.RFC3339Nano) + "|nope")),
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCursor(raw)
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
		})
	}
}

func TestNormalizeLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, NormalizeLimit(0))
	assert.Equal(t, DefaultLimit, NormalizeLimit(-5))
	assert.Equal(t, MaxLimit, NormalizeLimit(MaxLimit+1))
	assert.Equal(t, 10, NormalizeLimit(10))
}
