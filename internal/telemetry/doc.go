// Package telemetry owns the shared suit state tree.
//
// Ownership boundary:
// - telemetry, DCU, and UIA value types
// - the process-wide Store and its field-level write contract
//
// Write ownership:
// - DCU.EVA1.* is written only by the TSS command dispatcher while the TSS
//   source is active.
// - every field is written only by the simulator while the simulated source is
//   active.
// - readers (procedure validation, admin status) never write.
package telemetry
