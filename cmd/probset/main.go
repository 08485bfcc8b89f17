package main

import (
	"github.com/jpillora/opts"
	"github.com/kwertop/probset/server"
)

var VERSION = "0.0.0-src" //set with ldflags

type root struct{}

func main() {
	s := server.Server{
		Title:      "Filter Parameter Calculator",
		Port:       3000,
		ConfigPath: "probset.yaml",
	}
	s.SetVersion(VERSION)
	c := calc{}

	opts.New(&root{}).
		Name("probset").
		Version(VERSION).
		Repo("github.com/kwertop/probset").
		AddCommand(opts.New(&s).Name("serve").Summary("serve the calculator over http")).
		AddCommand(opts.New(&c).Name("calc").Summary("size bloom and cuckoo filters from the command line")).
		Parse().
		RunFatal()
}
