package errors

import (
	"context"
	stderrors "errors"

	"github.com/vango-dev/shell/pkg/activation"
	"github.com/vango-dev/shell/pkg/bootstrap"
	"github.com/vango-dev/shell/pkg/bridge"
	"github.com/vango-dev/shell/pkg/client"
	"github.com/vango-dev/shell/pkg/protocol"
	"github.com/vango-dev/shell/pkg/session"
)

// Classify maps an error returned by the shell packages to a registered
// code. Errors that are already a *ShellError are returned unchanged;
// unrecognized errors get E050.
func Classify(err error) *ShellError {
	if err == nil {
		return nil
	}
	var se *ShellError
	if stderrors.As(err, &se) {
		return se
	}
	return New(classifyCode(err)).Wrap(err)
}

func classifyCode(err error) string {
	var (
		initErr   *session.InitializationError
		moduleErr *activation.ModuleError
		serverErr *protocol.ErrorMessage
	)

	switch {
	case stderrors.Is(err, session.ErrUnexpectedContentType):
		return "E002"
	case stderrors.Is(err, protocol.ErrMissingAppID):
		return "E003"
	case stderrors.As(err, &initErr):
		if initErr.Status >= 200 && initErr.Status < 300 {
			return "E003"
		}
		return "E001"
	case stderrors.Is(err, activation.ErrActivationTimeout):
		return "E011"
	case stderrors.Is(err, bootstrap.ErrImports):
		return "E012"
	case stderrors.Is(err, bootstrap.ErrNoBridge):
		return "E020"
	case stderrors.Is(err, client.ErrHandshakeRejected):
		return "E031"
	case stderrors.Is(err, bridge.ErrClosed):
		return "E030"
	case stderrors.As(err, &moduleErr):
		return "E010"
	case stderrors.As(err, &serverErr):
		return "E021"
	case stderrors.Is(err, context.DeadlineExceeded):
		return "E022"
	}
	return "E050"
}
