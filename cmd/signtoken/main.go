// signtoken prints an access token for one API path, signed the same way
// the server's access guard verifies it.
//
//	ACCESS_SECRET=... signtoken --path /api/v1/metrics/all-tickets
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/lorrc/helpdesk-metrics/internal/auth"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Getenv); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer, getenv func(string) string) error {
	var (
		secret string
		path   string
		at     int64
	)

	flagSet := pflag.NewFlagSet("signtoken", pflag.ContinueOnError)
	flagSet.StringVar(&secret, "secret", "", "signing secret (default: $ACCESS_SECRET)")
	flagSet.StringVarP(&path, "path", "p", "", "request path the token is valid for, e.g. /api/v1/metrics/all-tickets")
	flagSet.Int64Var(&at, "at", 0, "unix timestamp to sign (default: now)")

	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if flagSet.NArg() > 0 {
		return fmt.Errorf("unexpected argument: %s", flagSet.Arg(0))
	}

	if secret == "" {
		secret = getenv("ACCESS_SECRET")
	}
	if secret == "" {
		return errors.New("no secret: pass --secret or set ACCESS_SECRET")
	}
	if path == "" {
		return errors.New("--path is required")
	}

	ts := time.Now()
	if at != 0 {
		ts = time.Unix(at, 0)
	}

	_, err := fmt.Fprintln(stdout, auth.Token([]byte(secret), ts, path))
	return err
}
