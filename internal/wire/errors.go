package wire

import (
	"fmt"

	"github.com/zsiec/moqcore/internal/moqerr"
)

func protocolViolation(format string, args ...any) *moqerr.Error {
	return moqerr.New(moqerr.ProtocolViolation, fmt.Sprintf(format, args...))
}

func fromUtf8Error(format string, args ...any) *moqerr.Error {
	return moqerr.New(moqerr.FromUtf8Error, fmt.Sprintf(format, args...))
}
