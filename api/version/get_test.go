package version

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/killallgit/wavepng/api/types"
)

func TestGet(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name            string
		deps            *types.Dependencies
		expectedVersion string
	}{
		{"reports build version", &types.Dependencies{Version: "1.2.0"}, "1.2.0"},
		{"defaults to dev", nil, "dev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			Get(tt.deps)(c)

			assert.Equal(t, http.StatusOK, w.Code)

			var response types.VersionResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, "wavepng", response.Name)
			assert.Equal(t, tt.expectedVersion, response.Version)
			assert.Equal(t, "running", response.Status)
		})
	}
}
