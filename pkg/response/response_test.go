package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuccessAndError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	Success(c, gin.H{"count": 2})
	assert.Equal(t, http.StatusOK, w.Code)
	var ok Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ok))
	assert.Equal(t, 0, ok.Code)
	assert.Equal(t, "success", ok.Message)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	BadRequest(c, "bad input", errors.New("field x"))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, c.IsAborted())
	require.Len(t, c.Errors, 1)
	var bad Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bad))
	assert.Equal(t, 400, bad.Code)
	assert.Nil(t, bad.Data)
	assert.NotContains(t, w.Body.String(), "field x")
}
