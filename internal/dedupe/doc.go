// Package dedupe finds claims that reuse evidence. It classifies extracted
// images as boilerplate or evidence, then runs three passes against claim
// history: byte-identical images, perceptually similar images, and repeat
// claims on the same vehicle describing the same issue close in time.
package dedupe
