package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCode_HTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeNotFound, http.StatusNotFound},
		{CodeAlreadyExists, http.StatusConflict},
		{CodeConflict, http.StatusConflict},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeTokenExpired, http.StatusUnauthorized},
		{CodeRateLimited, http.StatusTooManyRequests},
		{CodeAccessDenied, http.StatusForbidden},
		{CodeValidation, http.StatusBadRequest},
		{CodeForeignItem, http.StatusUnprocessableEntity},
		{CodeIncompleteOrder, http.StatusUnprocessableEntity},
		{CodeCrossWorkspace, http.StatusUnprocessableEntity},
		{CodeInternal, http.StatusInternalServerError},
		{Code("SOMETHING_ELSE"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.code.HTTPStatus())
		})
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := NotFoundf("card %s not found", "card-1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrConflict)

	wrapped := fmt.Errorf("service: %w", err)
	assert.ErrorIs(t, wrapped, ErrNotFound)
}

func TestError_WithCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Conflictf("list %s changed", "list-1").WithCause(cause)

	assert.Equal(t, "list list-1 changed: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestForeignItem(t *testing.T) {
	err := ForeignItem("card-9", "list", "list-1")

	assert.ErrorIs(t, err, ErrForeignItem)
	assert.Equal(t, http.StatusUnprocessableEntity, err.HTTPStatus())
	assert.Contains(t, err.Error(), "card-9")

	details, ok := err.Details.(ForeignItemDetails)
	require.True(t, ok)
	assert.Equal(t, ForeignItemDetails{ItemID: "card-9", ScopeID: "list-1", ScopeKind: "list"}, details)
}

func TestIncompleteOrder(t *testing.T) {
	err := IncompleteOrder(IncompleteOrderDetails{Expected: 3, Got: 2, Missing: []string{"c"}})
	assert.ErrorIs(t, err, ErrIncompleteOrder)
	assert.Equal(t, "order has 2 items, scope has 3", err.Message)
}

func TestWithDetails_DoesNotMutate(t *testing.T) {
	base := Validation("bad")
	detailed := base.WithDetails(map[string]string{"title": "required"})

	assert.Nil(t, base.Details)
	assert.NotNil(t, detailed.Details)
	assert.Equal(t, base.Code, detailed.Code)
}
