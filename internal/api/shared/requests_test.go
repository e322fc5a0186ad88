package shared

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Title string `json:"title" validate:"required,max=10"`
}

type selfValidating struct {
	Status string `json:"status" validate:"required"`
	err    error
}

func (s selfValidating) Validate() error { return s.err }

func TestDecodeJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr error
		fails   bool
	}{
		{name: "valid", body: `{"title":"write report"}`},
		{name: "empty", body: "", wantErr: ErrEmptyBody, fails: true},
		{name: "malformed", body: `{"title":`, fails: true},
		{name: "trailing_value", body: `{"title":"a"}{"title":"b"}`, fails: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var req sampleRequest
			err := DecodeJSON(r, &req)
			if !tt.fails {
				require.NoError(t, err)
				assert.Equal(t, "write report", req.Title)
				return
			}
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestValidateRequest(t *testing.T) {
	t.Parallel()

	t.Run("tags", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, ValidateRequest(&sampleRequest{Title: "ok"}))

		err := ValidateRequest(&sampleRequest{})
		var verrs validator.ValidationErrors
		require.ErrorAs(t, err, &verrs)
		assert.Equal(t, "required", verrs[0].Tag())
	})

	t.Run("validate_method_runs_after_tags", func(t *testing.T) {
		t.Parallel()
		custom := assert.AnError

		assert.ErrorIs(t, ValidateRequest(selfValidating{Status: "x", err: custom}), custom)

		var verrs validator.ValidationErrors
		assert.ErrorAs(t, ValidateRequest(selfValidating{err: custom}), &verrs)
	})
}
