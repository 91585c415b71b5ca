// Copyright 2026 The fkv Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/kballard/go-shellquote"

	"github.com/bpowers/fkv"
)

const helpText = `commands:
  get <key>            print the value stored for key
  put <key> <value>    store value under key (quote to include spaces)
  del <key>            delete key
  size                 print active and deleted record counts
  keys                 list active keys
  clear                delete every record
  load <file>          put each key:value line of file
  stat                 print store geometry and fingerprint
  sync                 flush the store to disk
  exit                 quit`

var errQuit = errors.New("quit")

type shell struct {
	s   *fkv.Store
	out io.Writer
}

// repl reads commands from in until EOF or exit.  Errors from individual
// commands are printed and don't stop the loop.
func repl(s *fkv.Store, in io.Reader, out io.Writer, prompt bool) error {
	sh := &shell{s: s, out: out}
	reader := bufio.NewReader(in)

	for {
		if prompt {
			fmt.Fprint(out, "> ")
		}

		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		atEOF := err != nil

		if line = strings.TrimSpace(line); line != "" {
			args, splitErr := shellquote.Split(line)
			if splitErr != nil {
				fmt.Fprintln(out, "parse error:", splitErr)
			} else if cmdErr := sh.exec(args); errors.Is(cmdErr, errQuit) {
				return nil
			} else if cmdErr != nil {
				fmt.Fprintln(out, "error:", cmdErr)
			}
		}

		if atEOF {
			return nil
		}
	}
}

func wantArgs(args []string, n int) error {
	if len(args)-1 != n {
		return fmt.Errorf("%s takes %d argument(s), got %d", args[0], n, len(args)-1)
	}
	return nil
}

func (sh *shell) exec(args []string) error {
	switch strings.ToLower(args[0]) {
	case "get":
		if err := wantArgs(args, 1); err != nil {
			return err
		}
		if v, ok := sh.s.GetString(args[1]); ok {
			fmt.Fprintf(sh.out, "%q\n", v)
		} else {
			fmt.Fprintln(sh.out, "(nil)")
		}
	case "put", "set":
		if err := wantArgs(args, 2); err != nil {
			return err
		}
		if err := sh.s.PutString(args[1], args[2]); err != nil {
			return err
		}
		fmt.Fprintln(sh.out, "OK")
	case "del", "delete":
		if err := wantArgs(args, 1); err != nil {
			return err
		}
		if err := sh.s.DeleteString(args[1]); err != nil {
			return err
		}
		fmt.Fprintln(sh.out, "OK")
	case "size":
		fmt.Fprintf(sh.out, "active %d deleted %d\n", sh.s.Len(), sh.s.DeletedLen())
	case "keys":
		var keys []string
		sh.s.Range(func(key, _ []byte) bool {
			keys = append(keys, string(key))
			return true
		})
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintln(sh.out, k)
		}
	case "clear":
		if err := sh.s.Clear(); err != nil {
			return err
		}
		fmt.Fprintln(sh.out, "OK")
	case "load":
		if err := wantArgs(args, 1); err != nil {
			return err
		}
		return sh.load(args[1])
	case "stat":
		fmt.Fprintf(sh.out, "path %s\nkey %d bytes\nvalue %d bytes\ncapacity %d\nactive %d\ndeleted %d\nfingerprint %016x\n",
			sh.s.Path(), sh.s.KeyLen(), sh.s.ValueLen(), sh.s.Capacity(), sh.s.Len(), sh.s.DeletedLen(), sh.s.Fingerprint())
	case "sync":
		if err := sh.s.Sync(); err != nil {
			return err
		}
		fmt.Fprintln(sh.out, "OK")
	case "help":
		fmt.Fprintln(sh.out, helpText)
	case "exit", "quit":
		return errQuit
	default:
		return fmt.Errorf("unknown command %q (try 'help')", args[0])
	}
	return nil
}

func (sh *shell) load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("os.Open: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	n, err := sh.s.Load(f)
	fmt.Fprintf(sh.out, "loaded %d records\n", n)
	return err
}
