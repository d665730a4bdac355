// getgsa is the GSA onboarding compliance service.
//
// It ingests vendor documents, redacts personal data, extracts the facts a
// GSA Multiple Award Schedule submission needs and checks them against a
// versioned rule pack, producing a checklist, an internal brief and a draft
// email to the applicant.
//
// Usage:
//
//	# Start the API server
//	getgsa run --config /etc/getgsa/config.yaml
//
//	# Analyze documents locally without a server or database
//	getgsa analyze profile.txt past_performance.txt pricing.txt
//
//	# Show or validate the active rule pack
//	getgsa rules show
//	getgsa rules validate rules.yaml
//
//	# Inspect, export and prune stored requests
//	getgsa requests list --status processed
//	getgsa requests export --format csv --out requests.csv
//	getgsa requests prune --days 90
//
//	# Issue an API token
//	getgsa token analyst@example.gov
package main

import (
	"fmt"
	"os"

	"getgsa/onboarding/pkg/cli"
)

func main() {
	if err := Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}
