package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rahulvs07/complyark-data-shield/pkg/tenant"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "intake-link:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("intake-link", flag.ContinueOnError)
	var (
		orgID   int64
		decode  string
		baseURL string
	)
	fs.Int64Var(&orgID, "org", 0, "Organisation ID to encode")
	fs.StringVar(&decode, "decode", "", "Intake token to decode")
	fs.StringVar(&baseURL, "base-url", os.Getenv("INTAKE_BASE_URL"), "Public intake page URL; prints a full link when set")
	if err := fs.Parse(args); err != nil {
		return err
	}

	switch {
	case decode != "":
		id, err := tenant.Decode(decode)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, strconv.FormatInt(id, 10))
		return err
	case orgID > 0:
		if baseURL == "" {
			_, err := fmt.Fprintln(out, tenant.Encode(orgID))
			return err
		}
		link, err := tenant.Link(baseURL, orgID)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, link)
		return err
	default:
		fs.Usage()
		return fmt.Errorf("one of -org or -decode is required")
	}
}
