// Package retention prunes stored onboarding requests on a cron schedule.
//
// A Pruner deletes requests older than the configured number of days,
// optionally writing them to a JSON archive first. A Scheduler runs the
// pruner with robfig/cron using standard five-field expressions:
//
//   - "0 3 * * *"    - Daily at 3 AM
//   - "0 */6 * * *"  - Every 6 hours
//   - "0 0 * * 0"    - Weekly on Sunday at midnight
//
// Days == 0 keeps requests forever and the scheduler does nothing.
package retention
