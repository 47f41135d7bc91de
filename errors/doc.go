/*
Package errors implements the error values shared by all htlc packages.

Reuse the root errors declared here whenever possible and register custom
package errors only when a caller must be able to tell them apart. Use
Register(code, description) to declare a new root error. Codes must be unique
across the whole program, a duplicate registration panics.

Create runtime errors by wrapping a root error, for example

	errors.Wrap(errors.ErrInput, "asset ticker")
	errors.ErrInput.Newf("commitment must be %d bytes", 32)

so that a stack trace is attached at the point of creation. Test the kind of
an error with the Is method of the root error

	if errors.ErrNotFound.Is(err) { ... }

Formatting a wrapped error with fmt reveals more context
	%s is just the error message
	%v appends a compressed [filename:line] where the error was created
	%+v is the full stack trace
*/
package errors
