/*
Package cli provides command-line interface utilities for the getgsa command.

Output Formatting:

Commands print results in text, JSON, YAML or CSV, selected with --output:

	formatter, err := cli.NewFormatter(cli.FormatJSON)
	if err != nil {
		return err
	}
	if err := formatter.FormatTo(os.Stdout, result); err != nil {
		return err
	}

Results choose their text rendering by implementing TextWriter, or Table for
row output. CSV output is only available for Table results.

Progress Reporting:

For long-running operations such as exports, use the progress reporter. It
writes to stderr by default so piped output stays clean:

	progress := cli.NewProgressReporter(nil, "requests")
	progress.Start(total)
	for i := range items {
		// Do work
		progress.Update(int64(i + 1))
	}
	progress.Finish()

Exit Codes:

ExitCode maps command errors to process exit codes: configuration errors exit
with 2 and an analysis with unmet required items (ErrProblemsFound) with 3.

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli
