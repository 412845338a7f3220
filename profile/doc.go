// Package profile provides optional runtime profiling built on
// [github.com/pkg/profile].
//
// Profiling is compiled in only with the "pprof" build tag:
//
//	go build -tags pprof -o qsplit .
//
// Without the tag every operation is a no-op and [Modes] is empty.
//
//	p := profile.New(profile.WithMode("cpu"), profile.WithPath(dir))
//	defer p.Start().Stop()
//
// Profiles are written to the configured directory under names matching the
// mode (cpu.pprof, mem.pprof, ...) and are read with go tool pprof:
//
//	qsplit --pprof-mode=cpu parse < queries.txt
//	go tool pprof -http=: ~/.cache/qsplit/pprof/cpu.pprof
//
// With the tag, the package also imports [net/http/pprof], so a program that
// serves [net/http.DefaultServeMux] exposes /debug/pprof/.
package profile
