// Command vipflow-cli loads an archive, prints a pool's graph, or runs a
// pool headlessly with its diagnostics surface exposed over HTTP.
package main

/*
   Copyright 2018 Bruno Moura <brunotm@gmail.com>

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	vipflow "github.com/brunotm/vipflow"
	"github.com/brunotm/vipflow/archive"
	"github.com/brunotm/vipflow/log"
)

var logger = log.New("component", "vipflow-cli")

func main() {
	flag.Usage = usage
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "dump-archive":
		err = dumpArchive(args)
	case "graph":
		err = printGraph(args)
	case "run":
		err = runHeadless(args)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		logger.Errorw("command failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: vipflow-cli <command> [flags]

commands:
  dump-archive -file path.vpf         print every record in an archive
  graph        -name pool-name        print an empty pool's DOT graph
  run          -addr :8090 -name demo run a headless pool with diagnostics`)
}

func dumpArchive(args []string) error {
	fs := flag.NewFlagSet("dump-archive", flag.ExitOnError)
	path := fs.String("file", "", "archive file to read")
	version := fs.String("version", "1.0", "archive format version")
	root := fs.String("root", "root", "expected root element name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *path == "" {
		return fmt.Errorf("vipflow-cli: -file is required")
	}

	f, err := os.Open(*path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := archive.NewReader(f, *version)
	if err := r.Start(*root); err != nil {
		return err
	}

	for {
		name, value, err := r.Read()
		if err != nil {
			if errors.Is(err, archive.ErrMalformed) && strings.Contains(err.Error(), "sentinel") {
				return r.End()
			}
			return err
		}
		fmt.Printf("%s = %v\n", name, value)
	}
}

func printGraph(args []string) error {
	fs := flag.NewFlagSet("graph", flag.ExitOnError)
	name := fs.String("name", "pool", "pool name")
	if err := fs.Parse(args); err != nil {
		return err
	}

	p := vipflow.NewPool(*name, nil)
	fmt.Print(p.DOT())
	return nil
}

func runHeadless(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	name := fs.String("name", "pool", "pool name")
	addr := fs.String("addr", ":8090", "diagnostics HTTP listen address")
	debug := fs.Bool("debug", false, "enable debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *debug {
		log.SetDebug()
	}

	p := vipflow.NewPool(*name, nil)
	if err := p.OpenAllConnections(); err != nil {
		logger.Warnw("some connections could not be opened", "error", err)
	}
	p.Start()

	errCh := make(chan error, 1)
	go func() {
		errCh <- vipflow.Manager().StartDiagnostics(*addr, p)
	}()
	logger.Infow("diagnostics listening", "addr", *addr, "pool", *name)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sig:
		logger.Infow("shutting down")
		return vipflow.Manager().StopDiagnostics()
	}
}
