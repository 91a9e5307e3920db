// Package reconcile implements the engine that reconciles a text field of a
// record set with synthesized speech stored in another field.
//
// A run has two phases:
//
//  1. Plan: the candidate records are fetched once and each one is judged using
//     only values already in memory. A record whose target field is filled is
//     skipped ("has-audio") unless overwrite is set; once the configured limit of
//     admitted records is reached, the rest are skipped ("limit-reached"). No
//     remote synthesis call happens in this phase, which protects the speech quota.
//
//  2. Apply: every admitted record runs through normalize, synthesize, publish
//     and update. Audio is staged in a TempAudio file that is released right after
//     publishing and on every failure path. A failure is recorded as that record's
//     Outcome and the run moves on; one bad record never aborts the batch.
//
// # Guarantees
//
//   - every fetched record yields exactly one Outcome, in fetch order
//   - each remote call is attempted once; nothing is retried within a run
//   - every TempAudio is released exactly once, and a final sweep removes the
//     run's staging directory even after cancellation
//   - only a *ConfigError is returned before any record is touched
//
// # Usage
//
//	engine := reconcile.NewEngine(notes.NewAdapter(ankiClient, speechClient, nil, logger), logger)
//	summary, err := engine.Run(ctx, reconcile.Job{
//	    Query:  "deck:Spanish",
//	    Target: reconcile.Target{Source: "Front", Field: "Audio"},
//	    Voice:  "es-ES-ElviraNeural",
//	})
//
// Workers > 1 runs the apply phase through a bounded errgroup. Decisions are
// still made in the plan phase, so the limit never depends on scheduling.
package reconcile
