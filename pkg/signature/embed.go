package signature

import "embed"

// builtinFS embeds the built-in signature set shipped with the scanner,
// grounded on the teacher's pkg/rule embed.go (//go:embed rules/*.yml).
//
//go:embed builtin/*.yml
var builtinFS embed.FS
