package api

import (
	"errors"
	"fmt"
)

// Messages shown to the practitioner.
const (
	MsgConnection = "Erro de conexão. Verifique se o servidor está rodando."
)

type Kind int

const (
	KindConnection Kind = iota + 1
	KindStatus
	KindDecode
	KindEncode
)

// Error separates what a view shows (ClientMessage) from what gets logged
// (DevMessage). ClientMessage is empty when the server gave no reason.
type Error struct {
	Kind          Kind
	StatusCode    int
	ClientMessage string
	DevMessage    string
	Err           error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.DevMessage, e.Err)
	}
	return e.DevMessage
}

func (e *Error) Unwrap() error { return e.Err }

func ErrSendHTTPRequest(err error, resource string) *Error {
	return &Error{
		Kind:          KindConnection,
		ClientMessage: MsgConnection,
		DevMessage:    fmt.Sprintf("send request for %s", resource),
		Err:           err,
	}
}

func ErrStatus(status int, serverMessage, resource string) *Error {
	return &Error{
		Kind:          KindStatus,
		StatusCode:    status,
		ClientMessage: serverMessage,
		DevMessage:    fmt.Sprintf("%s responded %d", resource, status),
	}
}

func ErrDecodeResponse(err error, resource string) *Error {
	return &Error{
		Kind:       KindDecode,
		DevMessage: fmt.Sprintf("decode %s response", resource),
		Err:        err,
	}
}

func ErrEncodeRequest(err error, resource string) *Error {
	return &Error{
		Kind:       KindEncode,
		DevMessage: fmt.Sprintf("encode %s request", resource),
		Err:        err,
	}
}

// ClientMessage picks the text a view renders for err: the connection
// message for transport failures, the server's reason when it sent one,
// fallback otherwise.
func ClientMessage(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.ClientMessage != "" {
		return apiErr.ClientMessage
	}
	return fallback
}

// IsConnection reports whether err is a transport failure.
func IsConnection(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindConnection
}

// IsStatus reports whether the server answered with a non-success status.
func IsStatus(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindStatus
}
