// Package boot sequences application startup.
//
// A Sequencer fetches the boot manifest, then starts the runtime platform
// with every assembly while stylesheets and scripts load into the document
// head. Both must finish before the entry point is called. Progress counts
// one step per referenced assembly, per embedded resource, and one for the
// entry point, so a manifest with one stylesheet and one script reports 0/3
// through 3/3.
//
// Boot is single-shot. Observers receive progress in order and exactly one
// terminal notification (complete or failure).
//
// Example:
//
//	seq := boot.NewSequencer(&boot.HTTPManifestFetcher{Client: client}, runtime, document,
//		boot.WithLogger(logger),
//		boot.WithObserver(boot.ObserverFuncs{
//			Progress: func(c, t int) { fmt.Printf("%d / %d\n", c, t) },
//		}),
//	)
//	err := seq.Boot(ctx)
package boot
