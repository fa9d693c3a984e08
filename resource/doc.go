// Package resource shares build and IO budgets between containers.
//
// A Controller is optional everywhere it is accepted. All methods are no-ops
// on a nil *Controller, so callers never need to check for one.
//
//	┌───────────────────────────────────────────────────────┐
//	│                      Controller                       │
//	├──────────────────┬──────────────────┬─────────────────┤
//	│  Build slots     │  Element budget  │  IO limiter     │
//	│  (semaphore)     │  (weighted sem)  │  (token bucket) │
//	├──────────────────┼──────────────────┼─────────────────┤
//	│  AcquireBuild    │  AcquireBuild    │  AcquireIO      │
//	│  ReleaseBuild    │  ReleaseBuild    │  RateLimited*   │
//	└──────────────────┴──────────────────┴─────────────────┘
//
// Build slots bound how many static structures are built at once across all
// containers sharing the controller (global rebuilds build blocks in
// parallel). The element budget bounds how many elements those concurrent
// builds may stage in memory. The IO limiter throttles checkpoint traffic.
package resource
