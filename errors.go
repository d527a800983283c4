package quintctl

type Error string

const (
	ErrUnknownRegister  Error = "unknown register"
	ErrNotWritable      Error = "register not writable"
	ErrEncodeRange      Error = "value out of range"
	ErrTransport        Error = "transport error"
	ErrInvalidArguments Error = "invalid arguments"
	ErrCatalog          Error = "invalid register catalog"
)

// Error implements the error interface.
func (e Error) Error() (s string) {
	s = string(e)
	return
}
