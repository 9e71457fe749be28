package errors

import (
	"encoding/json"
	"errors"
	"io"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestZeroErrorEncoding(t *testing.T) {
	type S struct {
		Err *Error
	}
	var s S
	bytes, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	var s1 S
	err = json.Unmarshal(bytes, &s1)
	if err != nil {
		t.Fatal(err)
	}
	if s1.Err != nil {
		t.Errorf("expected nil in field, but got %+v", s1.Err)
	}
}

func TestErrorEncoding(t *testing.T) {
	errVal := &Error{
		Type: Server,
		Help: "helpful text\nwith linebreaks!",
		Err:  errors.New("underlying error"),
	}
	bytes, err := json.Marshal(errVal)
	if err != nil {
		t.Fatal(err)
	}

	var got Error
	err = json.Unmarshal(bytes, &got)
	if err != nil {
		t.Fatal(err)
	}

	if got.Type != errVal.Type {
		t.Errorf("error type: expected %q, got %q", errVal.Type, got.Type)
	}
	if got.Help != errVal.Help || got.Err.Error() != errVal.Err.Error() {
		t.Errorf("expected %+v\ngot %+v", errVal, got)
	}
}

func TestServerErrorKeepsMessage(t *testing.T) {
	err := ServerError("quota exceeded")
	assert.Equal(t, "quota exceeded", err.Error())
	assert.Equal(t, "quota exceeded", pkgerrors.Cause(err.Err).Error())
	// carries a stack, like every other error here
	_, ok := err.Err.(interface{ StackTrace() pkgerrors.StackTrace })
	assert.True(t, ok)
	assert.True(t, IsServer(err))
	assert.False(t, IsConnection(err))
}

func TestPredicatesSeeThroughWrapping(t *testing.T) {
	wrapped := pkgerrors.Wrap(ConnectionError(io.EOF), "reading reply")
	assert.True(t, IsConnection(wrapped))
	assert.False(t, IsProtocol(wrapped))
	assert.Equal(t, io.EOF, pkgerrors.Cause(wrapped))

	assert.True(t, IsProtocol(ProtocolError(errors.New("bad"))))
	assert.True(t, IsUnauthorized(UnauthorizedError("abort_result")))
	assert.False(t, IsServer(errors.New("plain")))
	assert.False(t, IsServer(nil))
}
