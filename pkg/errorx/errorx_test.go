package errorx

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCodeErrorWrapAndUnwrap(t *testing.T) {
	base := errors.New("connection refused")
	err := Wrap(base, CodeDBError, "查询会话")

	assert.Equal(t, "查询会话: connection refused", err.Error())
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "connection refused", err.Detail())
	assert.Equal(t, CodeDBError, GetCode(fmt.Errorf("outer: %w", err)))
}

func TestGetCodeDefaultsToServerBusy(t *testing.T) {
	assert.Equal(t, CodeServerBusy, GetCode(errors.New("boom")))
	assert.Equal(t, "", New(CodeNotFound, "x").Detail())
}

func TestHTTPStatusIsDistinctPerKind(t *testing.T) {
	cases := map[int]int{
		CodeInvalidParam:       http.StatusBadRequest,
		CodeUnauthorized:       http.StatusUnauthorized,
		CodeForbidden:          http.StatusForbidden,
		CodeNotFound:           http.StatusNotFound,
		CodeConversationClosed: http.StatusConflict,
		CodeServerBusy:         http.StatusInternalServerError,
		CodeDBError:            http.StatusInternalServerError,
		9999:                   http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatus(code), "code %d", code)
	}
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(Newf(CodeNotFound, "会话 %s 不存在", "chat_c1_1")))
	assert.True(t, IsNotFound(errors.New("record not found")))
	assert.False(t, IsNotFound(ErrServerBusy))
	assert.False(t, IsNotFound(nil))
}
