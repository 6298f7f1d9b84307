// Package hmm smooths per-tick speaker scores with a hidden Markov
// model whose states enforce a minimum speaker turn duration.
//
// Each speaker slot owns a linear chain of MinDur states sharing one
// emission distribution. Within a chain the only move is a
// deterministic advance; the final state loops on itself with LoopProb
// and exits to every chain start weighted by the target speaker's
// prior. Smoothing runs a log-space forward-backward pass and returns
// per-tick speaker marginals with the total data log-likelihood.
//
// Ticks whose emissions underflow everywhere are recovered
// deterministically: their marginals become uniform over speakers with
// nonzero prior, and the count of such ticks is reported.
package hmm
