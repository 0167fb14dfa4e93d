package validators

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/velvetsouk/velvetsouk-backend/pkg/errors"
	"github.com/velvetsouk/velvetsouk-backend/pkg/pagination"
)

func TestParsePaginationDefaults(t *testing.T) {
	r := httptest.NewRequest("GET", "/orders", nil)

	params, err := ParsePagination(r)
	require.NoError(t, err)
	assert.Equal(t, pagination.DefaultLimit, params.Limit)
	assert.Empty(t, params.Cursor)
}

func TestParsePaginationRejectsMalformedCursor(t *testing.T) {
	r := httptest.NewRequest("GET", "/orders?cursor=garbage", nil)

	_, err := ParsePagination(r)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestParsePaginationRejectsNonNumericLimit(t *testing.T) {
	r := httptest.NewRequest("GET", "/orders?limit=lots", nil)

	_, err := ParsePagination(r)
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}
