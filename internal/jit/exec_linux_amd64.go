package jit

// callCode calls the procedure at code with tape in rdi
//
//go:noescape
func callCode(code, tape uintptr)

func run(code, tape uintptr) error {
	callCode(code, tape)
	return nil
}
