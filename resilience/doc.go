// Package resilience retries side operations with exponential backoff.
//
// Only work outside the conversion pipeline retries; the pipeline itself
// fails fast. Classified errors are retried when marked retryable:
//
//	err := resilience.RetryFunc(ctx, resilience.DefaultRetryConfig(), func() error {
//	    return store.Upload(ctx, key, f)
//	})
package resilience
