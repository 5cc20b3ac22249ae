package response

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/eventsync-services/common/errors"
)

func decode(t *testing.T, body string) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	return out
}

func TestErrorUsesAppErrorStatus(t *testing.T) {
	resp, err := Error(context.Background(), apperrors.Conflict("Already registered"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	body := decode(t, resp.Body)
	assert.Equal(t, "Already registered", body["message"])
	assert.Equal(t, string(apperrors.ErrCodeConflict), body["code"])
}

func TestErrorHidesUnexpectedErrors(t *testing.T) {
	resp, err := Error(context.Background(), errors.New("sql: connection refused"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Internal server error", decode(t, resp.Body)["message"])
}

func TestNewPaginated(t *testing.T) {
	page := NewPaginated[int](nil, 2, 10, 25)

	assert.Equal(t, 3, page.TotalPages)
	assert.Equal(t, 2, page.CurrentPage)
	assert.NotNil(t, page.Items)

	resp, err := JSON(http.StatusOK, page)
	require.NoError(t, err)
	assert.Contains(t, resp.Body, `"items":[]`)
}

func TestBinary(t *testing.T) {
	resp, err := Binary(http.StatusOK, "application/pdf", "card.pdf", []byte("%PDF"))
	require.NoError(t, err)

	assert.True(t, resp.IsBase64Encoded)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("%PDF")), resp.Body)
	assert.Contains(t, resp.Headers["Content-Disposition"], "card.pdf")
}
