package cmd

import "fmt"

func Execute(args []string) error {
	if len(args) < 1 {
		printUsage()
		return nil
	}

	switch args[0] {
	case "run":
		return cmdRun(args[1:])
	case "runs":
		return cmdRuns(args[1:])
	case "serve":
		return cmdServe(args[1:])
	case "help", "-h", "--help":
		printUsage()
		return nil
	default:
		fmt.Printf("Unknown command: %s\n", args[0])
		printUsage()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func printUsage() {
	fmt.Println(`svgsmith - Synthesize SVG templates from text prompts

Usage:
  svgsmith <command> [options]

Commands:
  run      Run one generate-refine-select pipeline
  runs     List past runs and their results
  serve    Start the HTTP API

Run 'svgsmith <command> --help' for details on a specific command.`)
}
