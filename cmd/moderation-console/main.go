package main

import (
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/pflag"

	"moderation-console/internal"
)

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	application, err := internal.NewApp(opts)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("Application run failed: %v", err)
	}
}

func parseFlags(args []string) (internal.Options, error) {
	var opts internal.Options

	flagSet := pflag.NewFlagSet("moderation-console", pflag.ContinueOnError)
	flagSet.StringVar(&opts.EnvPath, "env", "", "path to env file (default: .env in the working directory, if present)")
	flagSet.StringVarP(&opts.InitialQuery, "query", "q", "", "initial list query, e.g. \"status=pending&sort=priority_desc\"")
	flagSet.BoolVar(&opts.Repl, "repl", false, "run the interactive terminal console next to the HTTP API")
	flagSet.BoolP("help", "h", false, "show help")
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: moderation-console [flags]\n\nFlags:\n%s", flagSet.FlagUsages())
	}

	if err := flagSet.Parse(args); err != nil {
		return opts, err
	}
	if help, _ := flagSet.GetBool("help"); help {
		flagSet.Usage()
		return opts, pflag.ErrHelp
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return opts, fmt.Errorf("unexpected argument: %s", rest[0])
	}
	return opts, nil
}
