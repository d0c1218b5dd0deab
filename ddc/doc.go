// Package ddc reads and sets external monitor brightness over DDC/CI.
//
// The Engine finds a bus with a responding display, then runs a Get or
// Set VCP Feature transaction for the brightness control (VCP 0x10) on it.
//
// # Quick Start
//
//	eng := ddc.New()
//
//	r, err := eng.GetBrightness(ctx, ddc.Selector{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Current brightness: %d%%\n", r.Level)
//
//	adj, _ := ddc.ParseAdjustment("+10")
//	r, err = eng.SetBrightness(ctx, ddc.Selector{CachedPath: r.Path}, adj)
//
// # Locating the Display
//
// A Selector decides which buses are tried:
//
//   - ExplicitPath: only that bus. Open failures such as ErrPermissionDenied
//     are returned as they are.
//   - CachedPath: that bus first, then every enumerated candidate.
//   - neither: every candidate from the Enumerator, in its order.
//
// Each bus is probed with a brightness Get (two attempts by default). The
// first bus returning a well-formed reply is used. When none does, the
// error is a *NoDisplayError; it matches ErrNoDisplayFound and the cause
// recorded for each probed bus. Reading.Path names the bus that worked so
// the caller can pass it back as CachedPath next time.
//
// # Retries
//
// The brightness transaction itself gets three attempts by default.
// Corrupted frames (*protocol.DecodeError) and transfer failures
// (*channel.IOError) are retried after 25ms, then 50ms. A display that
// rejects the request (*protocol.ProtocolError) is not retried. When every
// attempt fails the error is an *AttemptsExhaustedError wrapping the last
// failure.
//
// # Percentages
//
// Levels are percentages of the display's reported maximum, rounded to the
// nearest integer. Targets outside 0..100 are clamped, so the raw value
// written never exceeds the maximum. A maximum of zero, or a current value
// above the maximum, yields a protocol.MaxRangeMismatch error.
//
// # Timing
//
// Every reply is read at least 40ms after its request and consecutive
// messages on one bus are 50ms apart. With the defaults one call against a
// single bus finishes well within a second even when every retry is used.
// Engine calls block; there is no background work and a cancelled context
// is only noticed between attempts.
package ddc
