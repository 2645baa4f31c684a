// Package app is the composition root for roster.
//
// # Overview
//
// Bootstrap wires configuration, logging, the directory client, the shared
// state.Store, metrics and the controller into a Runtime. Run uses that
// runtime to drive the terminal UI; the headless subcommands in cmd/roster
// use it directly and wait on individual tasks.
//
// # Startup
//
//  1. Load ~/.config/roster/config.toml (or the --config path) and apply
//     flag overrides for the API base and log level
//  2. Open the log destination: the log file for the TUI, stderr for the
//     headless CLI unless log_file is set
//  3. Build the directory client with the configured request timeout
//  4. Create the store, metrics collector and controller
//  5. Prepare the optional ops listener and reload schedule
//
// Start opens the listener and starts the schedule. Close undoes both and
// releases the log file.
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> Bootstrap()            Wire everything
//	       ├─────> Runtime.Start()        Ops listener + reload schedule
//	       ├─────> Controller.LoadAll()   First list, not awaited
//	       └─────> ui.Run()               TUI (blocks)
//
//	Controller tasks ──> store.Apply() ──> UI reads store.Snapshot()
//	Reloader (cron) ──> Controller.LoadAll()
//	POST /reload    ──> Controller.LoadAll()
//
// # Error Handling
//
// Configuration, log file and client construction errors abort startup. A
// bad reload_schedule is also fatal so a typo never silently disables
// reloads. Failed directory calls never are: the controller logs them and
// the previous snapshot stays on screen.
package app
